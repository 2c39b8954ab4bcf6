package faststore

import (
	"encoding/binary"

	"github.com/btcsuite/btcd/wire"

	"github.com/AstroxNetwork/runesd/internal/codec"
)

// Statistic tags the single counters kept in STATISTIC_TO_VALUE.
type Statistic uint8

const (
	StatSchema               Statistic = 0
	StatIndexRunes            Statistic = 4
	StatReservedRunes         Statistic = 8
	StatRunes                 Statistic = 9
	StatInitialSyncTime       Statistic = 14
	StatLatestHeight          Statistic = 255
)

func heightKey(height uint64) []byte {
	var k [8]byte
	binary.BigEndian.PutUint64(k[:], height)
	return k[:]
}

// PutHeader stages the header for height in a batch.
func (b *Batch) PutHeader(height uint64, h wire.BlockHeader) error {
	enc, err := codec.EncodeHeader(h)
	if err != nil {
		return err
	}
	b.Put(HeightToBlockHeader, heightKey(height), enc)
	return nil
}

// Header reads the header stored at height, if any.
func (s *Store) Header(height uint64) (wire.BlockHeader, bool, error) {
	v, err := s.Get(HeightToBlockHeader, heightKey(height))
	if err != nil || v == nil {
		return wire.BlockHeader{}, false, err
	}
	h, err := codec.DecodeHeader(v)
	return h, err == nil, err
}

// LatestIndexedHeight derives the indexed tip from the max key in
// HeightToBlockHeader — there is no separately tracked counter.
func (s *Store) LatestIndexedHeight() (height uint64, ok bool, err error) {
	k, _, err := s.LastKey(HeightToBlockHeader)
	if err != nil || k == nil {
		return 0, false, err
	}
	return binary.BigEndian.Uint64(k), true, nil
}

// PutStatistic stages a single counter write.
func (b *Batch) PutStatistic(stat Statistic, value uint64) {
	var v [8]byte
	binary.LittleEndian.PutUint64(v[:], value)
	b.Put(StatisticToValue, []byte{byte(stat)}, v[:])
}

// Statistic reads a counter, defaulting to 0 when unset.
func (s *Store) Statistic(stat Statistic) (uint64, error) {
	v, err := s.Get(StatisticToValue, []byte{byte(stat)})
	if err != nil || v == nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(v), nil
}

// heightStatKey keys HEIGHT_TO_STATISTIC_COUNT by (stat tag, height) so
// a prefix scan on the stat tag recovers every per-height delta for
// that counter in ascending height order. The height is 4 bytes
// big-endian — block heights never approach 2^32 — leaving the stat
// tag as this CF's sole multiplexing prefix.
func heightStatKey(stat Statistic, height uint64) []byte {
	k := make([]byte, 5)
	k[0] = byte(stat)
	binary.BigEndian.PutUint32(k[1:], uint32(height))
	return k
}

// PutStatisticDeltaAtHeight stages the per-height delta for a global
// counter (e.g. how many runes were etched in this block), letting a
// reorg rewind reconstruct the counter's value as of any height via
// SumStatisticToHeight rather than trusting the running total across
// the rewound range.
func (b *Batch) PutStatisticDeltaAtHeight(stat Statistic, height uint64, delta uint64) {
	b.Put(HeightToStatisticCount, heightStatKey(stat, height), leU64(delta))
}

// SumStatisticToHeight sums every HEIGHT_TO_STATISTIC_COUNT delta for
// stat up to and including height.
func (s *Store) SumStatisticToHeight(stat Statistic, height uint64) (uint64, error) {
	var total uint64
	err := s.ForEachPrefix(HeightToStatisticCount, []byte{byte(stat)}, func(key, value []byte) bool {
		h := uint64(binary.BigEndian.Uint32(key[1:5]))
		if h > height {
			return true
		}
		total += binary.LittleEndian.Uint64(value)
		return true
	})
	return total, err
}

// PutRuneEntry stages a full rune entry write.
func (b *Batch) PutRuneEntry(id codec.RuneId, entry codec.RuneEntry) {
	stored := id.Store()
	b.Put(RuneIDToRuneEntry, stored[:], entry.Encode())
}

// RuneEntry reads a rune entry by id.
func (s *Store) RuneEntry(id codec.RuneId) (codec.RuneEntry, bool, error) {
	stored := id.Store()
	v, err := s.Get(RuneIDToRuneEntry, stored[:])
	if err != nil || v == nil {
		return codec.RuneEntry{}, false, err
	}
	e, err := codec.DecodeRuneEntry(v)
	return e, err == nil, err
}

// PutRuneToRuneID stages the name -> id index entry.
func (b *Batch) PutRuneToRuneID(rune_ codec.U128, id codec.RuneId) {
	stored := id.Store()
	b.Put(RuneToRuneID, rune_.PutUvarint(nil), stored[:])
}

// RuneToRuneID looks up a rune id by its numeric name.
func (s *Store) RuneToRuneID(rune_ codec.U128) (codec.RuneId, bool, error) {
	v, err := s.Get(RuneToRuneID, rune_.PutUvarint(nil))
	if err != nil || v == nil {
		return codec.RuneId{}, false, err
	}
	id, err := codec.LoadRuneId(v)
	return id, err == nil, err
}

// PutOutpointBalances stages the rune balances carried by an outpoint.
func (b *Batch) PutOutpointBalances(op wire.OutPoint, entry codec.BalanceEntry) {
	key := codec.EncodeOutPoint(op)
	b.Put(OutpointToRuneBalances, key[:], entry.Encode())
}

// DeleteOutpointBalances removes an outpoint's rune balances entirely
// (used during rewind when confirmed_height >= the rewind target).
func (b *Batch) DeleteOutpointBalances(op wire.OutPoint) {
	key := codec.EncodeOutPoint(op)
	b.Delete(OutpointToRuneBalances, key[:])
}

// OutpointBalances reads the rune balances carried by an outpoint.
func (s *Store) OutpointBalances(op wire.OutPoint) (codec.BalanceEntry, bool, error) {
	key := codec.EncodeOutPoint(op)
	v, err := s.Get(OutpointToRuneBalances, key[:])
	if err != nil || v == nil {
		return codec.BalanceEntry{}, false, err
	}
	e, err := codec.DecodeBalanceEntry(v)
	return e, err == nil, err
}

// PutMintsAtHeight stages the per-height mint delta for a rune (the
// RUNE_ID_HEIGHT_TO_MINTS entry), prefix-summed after a rewind to
// rebuild the RuneEntry's Mints. The RuneIDToMints column family is
// not written.
func (b *Batch) PutMintsAtHeight(id codec.RuneId, height uint64, count uint64) {
	b.Put(RuneIDHeightToMints, heightRuneIDKeyForID(id, height), leU64(count))
}

// PutBurnedAtHeight stages the per-height burned delta for a rune.
func (b *Batch) PutBurnedAtHeight(id codec.RuneId, height uint64, amount codec.U128) {
	b.Put(RuneIDHeightToBurned, heightRuneIDKeyForID(id, height), amount.PutUvarint(nil))
}

// heightRuneIDKeyForID keys RUNE_ID_HEIGHT_TO_* by (rune id, height) so
// a prefix scan on the id recovers every per-height delta for that rune
// in ascending height order.
func heightRuneIDKeyForID(id codec.RuneId, height uint64) []byte {
	stored := id.Store()
	return append(append([]byte(nil), stored[:]...), heightKey(height)...)
}

// SumMintsToHeight sums every RUNE_ID_HEIGHT_TO_MINTS delta for id up to
// and including height, rebuilding a RuneEntry's Mints after a rewind.
func (s *Store) SumMintsToHeight(id codec.RuneId, height uint64) (uint64, error) {
	stored := id.Store()
	var total uint64
	err := s.ForEachPrefix(RuneIDHeightToMints, stored[:], func(key, value []byte) bool {
		h := binary.BigEndian.Uint64(key[len(stored):])
		if h > height {
			return true
		}
		total += binary.LittleEndian.Uint64(value)
		return true
	})
	return total, err
}

// SumBurnedToHeight sums every RUNE_ID_HEIGHT_TO_BURNED delta for id up
// to and including height.
func (s *Store) SumBurnedToHeight(id codec.RuneId, height uint64) (codec.U128, error) {
	stored := id.Store()
	total := codec.Zero
	err := s.ForEachPrefix(RuneIDHeightToBurned, stored[:], func(key, value []byte) bool {
		h := binary.BigEndian.Uint64(key[len(stored):])
		if h > height {
			return true
		}
		v, _, decErr := codec.DecodeU128(value)
		if decErr != nil {
			return false
		}
		total = total.Add(v)
		return true
	})
	return total, err
}

func leU64(v uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return b[:]
}

// HeightOutpointKey keys HEIGHT_OUTPOINT_TO_RUNE_IDS by (height,
// outpoint) so a rewind's reverse scan visits every outpoint touched at
// or after a height without scanning the whole balances CF.
func HeightOutpointKey(height uint64, op wire.OutPoint) []byte {
	opEnc := codec.EncodeOutPoint(op)
	return append(heightKey(height), opEnc[:]...)
}

// PutHeightOutpointRuneIDs stages the side-index entry recording which
// rune ids were touched at an outpoint at a given height.
func (b *Batch) PutHeightOutpointRuneIDs(height uint64, op wire.OutPoint, ids []codec.RuneId) {
	var buf []byte
	for _, id := range ids {
		stored := id.Store()
		buf = append(buf, stored[:]...)
	}
	b.Put(HeightOutpointToRuneIDs, HeightOutpointKey(height, op), buf)
}

// DecodeRuneIDList splits a HEIGHT_OUTPOINT_TO_RUNE_IDS value back into
// individual rune ids.
func DecodeRuneIDList(buf []byte) ([]codec.RuneId, error) {
	var out []codec.RuneId
	for len(buf) >= codec.RuneIdSize {
		id, err := codec.LoadRuneId(buf[:codec.RuneIdSize])
		if err != nil {
			return nil, err
		}
		out = append(out, id)
		buf = buf[codec.RuneIdSize:]
	}
	return out, nil
}
