package faststore

import (
	"bytes"

	"go.etcd.io/bbolt"
)

// ForEachPrefix calls fn for every key/value in cf whose key starts
// with prefix, in ascending key order, until fn returns false or the
// prefix is exhausted. A bbolt bucket never leaks keys across CFs, but
// the prefix check is kept anyway: several CFs (RUNE_ID_HEIGHT_TO_MINTS
// / BURNED, HEIGHT_TO_STATISTIC_COUNT) pack more than one logical
// prefix into a single bucket, and callers rely on this boundary.
func (s *Store) ForEachPrefix(cf CF, prefix []byte, fn func(key, value []byte) bool) error {
	return s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(cf))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			if !fn(k, v) {
				return nil
			}
		}
		return nil
	})
}

// ForEachPrefixReverse is ForEachPrefix but walks the prefix range from
// its last key backward to its first — used by the reorg manager's
// reverse-iteration deletes.
func (s *Store) ForEachPrefixReverse(cf CF, prefix []byte, fn func(key, value []byte) bool) error {
	return s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(cf))
		if b == nil {
			return nil
		}
		c := b.Cursor()

		upperBound := append(append([]byte(nil), prefix...), 0xFF)
		k, v := c.Seek(upperBound)
		if k == nil {
			k, v = c.Last()
		} else {
			k, v = c.Prev()
		}
		for ; k != nil && bytes.HasPrefix(k, prefix); k, v = c.Prev() {
			if !fn(k, v) {
				return nil
			}
		}
		return nil
	})
}

// LastKey returns the last key (and its value) in cf, or nil if the CF
// is empty. This is how latest indexed height is derived: the max key
// in HeightToBlockHeader, never a separately tracked counter.
func (s *Store) LastKey(cf CF) (key, value []byte, err error) {
	err = s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(cf))
		if b == nil {
			return nil
		}
		k, v := b.Cursor().Last()
		if k != nil {
			key = append([]byte(nil), k...)
			value = append([]byte(nil), v...)
		}
		return nil
	})
	return key, value, err
}
