package relstore

import (
	"context"
	"database/sql"

	"golang.org/x/sync/errgroup"
)

// HolderTxCounts is the pair of derived counters recomputed for a rune
// after its balances change.
type HolderTxCounts struct {
	RuneID       string
	Holders      uint32
	Transactions uint32
}

// RecomputeHoldersAndTransactions recomputes the holders/transactions
// counters for the given rune ids, in concurrent batches of 100, and
// writes the results back to rune_entry. The two counts are derived
// straight from rune_balance: holders counts distinct unspent-balance
// addresses, transactions counts distinct txids that either created or
// spent a balance of the rune.
func RecomputeHoldersAndTransactions(ctx context.Context, db *sql.DB, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	g, ctx := errgroup.WithContext(ctx)
	for start := 0; start < len(ids); start += recomputeChunk {
		end := start + recomputeChunk
		if end > len(ids) {
			end = len(ids)
		}
		batch := ids[start:end]
		g.Go(func() error {
			return recomputeBatch(ctx, db, batch)
		})
	}
	return g.Wait()
}

func recomputeBatch(ctx context.Context, db *sql.DB, ids []string) error {
	placeholders := make([]any, len(ids))
	qs := make([]byte, 0, len(ids)*2)
	for i, id := range ids {
		placeholders[i] = id
		if i > 0 {
			qs = append(qs, ',')
		}
		qs = append(qs, '?')
	}

	rows, err := db.QueryContext(ctx, `
		SELECT rune_id,
		       COUNT(DISTINCT address) FILTER (WHERE spent_height = 0) AS holders,
		       COUNT(DISTINCT txid) AS transactions
		FROM (
			SELECT rune_id, address, spent_height, txid FROM rune_balance WHERE rune_id IN (`+string(qs)+`)
			UNION ALL
			SELECT rune_id, address, spent_height, spent_txid AS txid FROM rune_balance
			WHERE rune_id IN (`+string(qs)+`) AND spent_txid IS NOT NULL
		)
		GROUP BY rune_id`, append(append([]any{}, placeholders...), placeholders...)...)
	if err != nil {
		return err
	}
	defer rows.Close()

	var counts []HolderTxCounts
	for rows.Next() {
		var c HolderTxCounts
		if err := rows.Scan(&c.RuneID, &c.Holders, &c.Transactions); err != nil {
			return err
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `UPDATE rune_entry SET holders=?, transactions=? WHERE rune_id=?`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, c := range counts {
		if _, err := stmt.ExecContext(ctx, c.Holders, c.Transactions, c.RuneID); err != nil {
			return err
		}
	}
	return tx.Commit()
}
