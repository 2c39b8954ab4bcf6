package faststore

import (
	"fmt"

	"go.etcd.io/bbolt"
)

type writeOp struct {
	cf     CF
	key    []byte
	value  []byte
	delete bool
}

// Batch accumulates writes across any number of column families and
// applies them in one atomic transaction on Commit. This is the unit of
// atomicity the BlockIndexer uses to write an entire block's rune-state
// mutations at once.
type Batch struct {
	store *Store
	ops   []writeOp
}

// NewBatch returns an empty batch bound to this store.
func (s *Store) NewBatch() *Batch { return &Batch{store: s} }

// Put stages a write of key/value into cf.
func (b *Batch) Put(cf CF, key, value []byte) {
	b.ops = append(b.ops, writeOp{cf: cf, key: append([]byte(nil), key...), value: append([]byte(nil), value...)})
}

// Delete stages a deletion of key from cf.
func (b *Batch) Delete(cf CF, key []byte) {
	b.ops = append(b.ops, writeOp{cf: cf, key: append([]byte(nil), key...), delete: true})
}

// Len reports the number of staged operations.
func (b *Batch) Len() int { return len(b.ops) }

// Commit applies every staged operation inside a single bbolt
// transaction: either all of them land, or none do.
func (b *Batch) Commit() error {
	if len(b.ops) == 0 {
		return nil
	}
	return b.store.db.Update(func(tx *bbolt.Tx) error {
		buckets := make(map[CF]*bbolt.Bucket, len(allCFs))
		for _, op := range b.ops {
			bucket, ok := buckets[op.cf]
			if !ok {
				bucket = tx.Bucket([]byte(op.cf))
				if bucket == nil {
					return fmt.Errorf("faststore: unknown column family %s", op.cf)
				}
				buckets[op.cf] = bucket
			}
			if op.delete {
				if err := bucket.Delete(op.key); err != nil {
					return err
				}
				continue
			}
			if err := bucket.Put(op.key, op.value); err != nil {
				return err
			}
		}
		return nil
	})
}
