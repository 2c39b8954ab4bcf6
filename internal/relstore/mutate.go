package relstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

const (
	balanceInsertChunk = 1000
	entryInsertChunk   = 500
	recomputeChunk     = 100
)

// InsertRuneEntries batches rune_entry inserts in chunks, matching the
// upstream batching knobs this engine mirrors (non-semantic — they only
// bound single-statement size).
func InsertRuneEntries(ctx context.Context, tx *sql.Tx, rows []RuneEntryRow) error {
	for start := 0; start < len(rows); start += entryInsertChunk {
		end := start + entryInsertChunk
		if end > len(rows) {
			end = len(rows)
		}
		if err := insertRuneEntryChunk(ctx, tx, rows[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func insertRuneEntryChunk(ctx context.Context, tx *sql.Tx, rows []RuneEntryRow) error {
	if len(rows) == 0 {
		return nil
	}
	var sb strings.Builder
	sb.WriteString(`INSERT INTO rune_entry
		(rune_id, etching, number, rune, spaced_rune, symbol, divisibility, premine,
		 amount, cap, start_height, end_height, start_offset, end_offset,
		 mints, turbo, burned, mintable, holders, transactions, height, ts)
		VALUES `)
	args := make([]any, 0, len(rows)*22)
	for i, r := range rows {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString("(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)")
		args = append(args,
			r.RuneID, r.Etching, r.Number, r.Rune, r.SpacedRune, r.Symbol, r.Divisibility, r.Premine,
			r.Amount, r.Cap, r.StartHeight, r.EndHeight, r.StartOffset, r.EndOffset,
			r.Mints, r.Turbo, r.Burned, r.Mintable, r.Holders, r.Transactions, r.Height, r.Timestamp,
		)
	}
	sb.WriteString(` ON CONFLICT(rune_id) DO UPDATE SET
		mints=excluded.mints, burned=excluded.burned, mintable=excluded.mintable,
		holders=excluded.holders, transactions=excluded.transactions`)
	_, err := tx.ExecContext(ctx, sb.String(), args...)
	return err
}

// InsertRuneBalances batches rune_balance inserts in chunks.
func InsertRuneBalances(ctx context.Context, tx *sql.Tx, rows []RuneBalanceRow) error {
	for start := 0; start < len(rows); start += balanceInsertChunk {
		end := start + balanceInsertChunk
		if end > len(rows) {
			end = len(rows)
		}
		if err := insertRuneBalanceChunk(ctx, tx, rows[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func insertRuneBalanceChunk(ctx context.Context, tx *sql.Tx, rows []RuneBalanceRow) error {
	if len(rows) == 0 {
		return nil
	}
	var sb strings.Builder
	sb.WriteString(`INSERT INTO rune_balance
		(txid, vout, value, rune_id, rune_amount, address, height, idx, ts,
		 spent_height, spent_txid, spent_vin, spent_ts)
		VALUES `)
	args := make([]any, 0, len(rows)*13)
	for i, r := range rows {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString("(?,?,?,?,?,?,?,?,?,?,?,?,?)")
		args = append(args,
			r.Txid, r.Vout, r.Value, r.RuneID, r.RuneAmount, r.Address, r.Height, r.Idx, r.Timestamp,
			r.SpentHeight, r.SpentTxid, r.SpentVin, r.SpentTs,
		)
	}
	sb.WriteString(` ON CONFLICT(txid, vout, rune_id) DO NOTHING`)
	_, err := tx.ExecContext(ctx, sb.String(), args...)
	return err
}

// UpdateSpent marks previously-inserted balance rows as spent.
func UpdateSpent(ctx context.Context, tx *sql.Tx, updates []SpentUpdate) error {
	stmt, err := tx.PrepareContext(ctx, `UPDATE rune_balance
		SET spent_height=?, spent_txid=?, spent_vin=?, spent_ts=?
		WHERE txid=? AND vout=? AND rune_id=?`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, u := range updates {
		if _, err := stmt.ExecContext(ctx, u.SpentHeight, u.SpentTxid, u.SpentVin, u.SpentTs, u.Txid, u.Vout, u.RuneID); err != nil {
			return fmt.Errorf("relstore: mark spent %s:%d/%s: %w", u.Txid, u.Vout, u.RuneID, err)
		}
	}
	return nil
}

// DeleteFromHeight removes every balance row created at or after
// height — rewind stage 2 step 1.
func DeleteFromHeight(ctx context.Context, tx *sql.Tx, height uint64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM rune_balance WHERE height >= ?`, height)
	return err
}

// ResetSpentFromHeight clears the spend markers of any balance spent at
// or after height — rewind stage 2 step 2.
func ResetSpentFromHeight(ctx context.Context, tx *sql.Tx, height uint64) error {
	_, err := tx.ExecContext(ctx, `UPDATE rune_balance
		SET spent_height=0, spent_txid=NULL, spent_vin=NULL, spent_ts=NULL
		WHERE spent_height >= ?`, height)
	return err
}

// DeleteEntriesFromHeight removes every rune_entry etched at or after
// height — rewind stage 2 step 3.
func DeleteEntriesFromHeight(ctx context.Context, tx *sql.Tx, height uint64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM rune_entry WHERE height >= ?`, height)
	return err
}
