package codec

import (
	"encoding/binary"
	"math"
)

const entryVersion = 1

// BalanceEntry is the OUTPOINT_TO_RUNE_BALANCES value: the confirmation
// and spend status of one outpoint, its sat value and script, and the
// rune balances it carries.
type BalanceEntry struct {
	ConfirmedHeight uint32
	SpentHeight     uint32
	ValueSats       uint64
	ScriptPubKey    []byte
	Balances        []byte // already-encoded output of EncodeBalances
}

// Encode writes a BalanceEntry as a version byte followed by its fixed
// fields and two length-prefixed byte blobs, mirroring the teacher's
// length-prefixed covenant-data convention.
func (e BalanceEntry) Encode() []byte {
	buf := make([]byte, 0, 1+4+4+8+4+len(e.ScriptPubKey)+4+len(e.Balances))
	buf = append(buf, entryVersion)
	buf = appendU32(buf, e.ConfirmedHeight)
	buf = appendU32(buf, e.SpentHeight)
	buf = appendU64(buf, e.ValueSats)
	buf = appendBytes(buf, e.ScriptPubKey)
	buf = appendBytes(buf, e.Balances)
	return buf
}

// DecodeBalanceEntry is the inverse of Encode.
func DecodeBalanceEntry(buf []byte) (BalanceEntry, error) {
	if len(buf) < 1 {
		return BalanceEntry{}, ErrTruncated
	}
	if buf[0] != entryVersion {
		return BalanceEntry{}, ErrCorruptVersion
	}
	buf = buf[1:]

	var e BalanceEntry
	var err error
	if e.ConfirmedHeight, buf, err = readU32(buf); err != nil {
		return BalanceEntry{}, err
	}
	if e.SpentHeight, buf, err = readU32(buf); err != nil {
		return BalanceEntry{}, err
	}
	if e.ValueSats, buf, err = readU64(buf); err != nil {
		return BalanceEntry{}, err
	}
	if e.ScriptPubKey, buf, err = readBytes(buf); err != nil {
		return BalanceEntry{}, err
	}
	if e.Balances, _, err = readBytes(buf); err != nil {
		return BalanceEntry{}, err
	}
	return e, nil
}

// Terms describes an open mint's window and cap, matching the optional
// etching terms of the Runes protocol.
type Terms struct {
	HasCap         bool
	Cap            U128
	HasAmount      bool
	Amount         U128
	HasStartHeight bool
	StartHeight    uint64
	HasEndHeight   bool
	EndHeight      uint64
	HasStartOffset bool
	StartOffset    uint64
	HasEndOffset   bool
	EndOffset      uint64
}

// RuneEntry is the RUNE_ID_TO_RUNE_ENTRY value: the full accounting
// record for one etched rune.
type RuneEntry struct {
	Block        uint64
	Burned       U128
	Divisibility uint8
	Etching      [32]byte // txid of the etching transaction
	Mints        U128
	Number       uint64
	Premine      U128
	Rune         U128 // the rune's numeric name
	Spacers      uint32
	HasSymbol    bool
	Symbol       rune
	HasTerms     bool
	Terms        Terms
	Timestamp    uint64
	Turbo        bool
}

// Encode writes a RuneEntry as a version byte followed by its fields in
// a fixed little-endian layout, with Option fields as a presence byte
// followed by the value when present.
func (e RuneEntry) Encode() []byte {
	buf := make([]byte, 0, 128)
	buf = append(buf, entryVersion)
	buf = appendU64(buf, e.Block)
	buf = e.Burned.PutUvarint(buf)
	buf = append(buf, e.Divisibility)
	buf = append(buf, e.Etching[:]...)
	buf = e.Mints.PutUvarint(buf)
	buf = appendU64(buf, e.Number)
	buf = e.Premine.PutUvarint(buf)
	buf = e.Rune.PutUvarint(buf)
	buf = appendU32(buf, e.Spacers)

	if e.HasSymbol {
		buf = append(buf, 1)
		var sym [4]byte
		binary.LittleEndian.PutUint32(sym[:], uint32(e.Symbol))
		buf = append(buf, sym[:]...)
	} else {
		buf = append(buf, 0)
	}

	if e.HasTerms {
		buf = append(buf, 1)
		buf = appendTerms(buf, e.Terms)
	} else {
		buf = append(buf, 0)
	}

	buf = appendU64(buf, e.Timestamp)
	if e.Turbo {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	return buf
}

func appendTerms(buf []byte, t Terms) []byte {
	buf = appendOptU128(buf, t.HasCap, t.Cap)
	buf = appendOptU128(buf, t.HasAmount, t.Amount)
	buf = appendOptU64(buf, t.HasStartHeight, t.StartHeight)
	buf = appendOptU64(buf, t.HasEndHeight, t.EndHeight)
	buf = appendOptU64(buf, t.HasStartOffset, t.StartOffset)
	buf = appendOptU64(buf, t.HasEndOffset, t.EndOffset)
	return buf
}

func appendOptU128(buf []byte, has bool, v U128) []byte {
	if !has {
		return append(buf, 0)
	}
	buf = append(buf, 1)
	return v.PutUvarint(buf)
}

func appendOptU64(buf []byte, has bool, v uint64) []byte {
	if !has {
		return append(buf, 0)
	}
	buf = append(buf, 1)
	return appendUvarint(buf, v)
}

// DecodeRuneEntry is the inverse of Encode.
func DecodeRuneEntry(buf []byte) (RuneEntry, error) {
	if len(buf) < 1 {
		return RuneEntry{}, ErrTruncated
	}
	if buf[0] != entryVersion {
		return RuneEntry{}, ErrCorruptVersion
	}
	buf = buf[1:]

	var e RuneEntry
	var err error
	if e.Block, buf, err = readU64(buf); err != nil {
		return RuneEntry{}, err
	}
	if e.Burned, buf, err = readU128(buf); err != nil {
		return RuneEntry{}, err
	}
	if len(buf) < 1 {
		return RuneEntry{}, ErrTruncated
	}
	e.Divisibility = buf[0]
	buf = buf[1:]
	if len(buf) < 32 {
		return RuneEntry{}, ErrTruncated
	}
	copy(e.Etching[:], buf[:32])
	buf = buf[32:]
	if e.Mints, buf, err = readU128(buf); err != nil {
		return RuneEntry{}, err
	}
	if e.Number, buf, err = readU64(buf); err != nil {
		return RuneEntry{}, err
	}
	if e.Premine, buf, err = readU128(buf); err != nil {
		return RuneEntry{}, err
	}
	if e.Rune, buf, err = readU128(buf); err != nil {
		return RuneEntry{}, err
	}
	if e.Spacers, buf, err = readU32(buf); err != nil {
		return RuneEntry{}, err
	}

	if len(buf) < 1 {
		return RuneEntry{}, ErrTruncated
	}
	if buf[0] == 1 {
		buf = buf[1:]
		if len(buf) < 4 {
			return RuneEntry{}, ErrTruncated
		}
		e.HasSymbol = true
		e.Symbol = rune(binary.LittleEndian.Uint32(buf[:4]))
		buf = buf[4:]
	} else {
		buf = buf[1:]
	}

	if len(buf) < 1 {
		return RuneEntry{}, ErrTruncated
	}
	if buf[0] == 1 {
		buf = buf[1:]
		e.HasTerms = true
		if e.Terms, buf, err = readTerms(buf); err != nil {
			return RuneEntry{}, err
		}
	} else {
		buf = buf[1:]
	}

	if e.Timestamp, buf, err = readU64(buf); err != nil {
		return RuneEntry{}, err
	}
	if len(buf) < 1 {
		return RuneEntry{}, ErrTruncated
	}
	e.Turbo = buf[0] == 1
	return e, nil
}

func readTerms(buf []byte) (Terms, []byte, error) {
	var t Terms
	var err error
	if t.HasCap, t.Cap, buf, err = readOptU128(buf); err != nil {
		return Terms{}, nil, err
	}
	if t.HasAmount, t.Amount, buf, err = readOptU128(buf); err != nil {
		return Terms{}, nil, err
	}
	if t.HasStartHeight, t.StartHeight, buf, err = readOptU64(buf); err != nil {
		return Terms{}, nil, err
	}
	if t.HasEndHeight, t.EndHeight, buf, err = readOptU64(buf); err != nil {
		return Terms{}, nil, err
	}
	if t.HasStartOffset, t.StartOffset, buf, err = readOptU64(buf); err != nil {
		return Terms{}, nil, err
	}
	if t.HasEndOffset, t.EndOffset, buf, err = readOptU64(buf); err != nil {
		return Terms{}, nil, err
	}
	return t, buf, nil
}

func readOptU128(buf []byte) (bool, U128, []byte, error) {
	if len(buf) < 1 {
		return false, Zero, nil, ErrTruncated
	}
	has := buf[0] == 1
	buf = buf[1:]
	if !has {
		return false, Zero, buf, nil
	}
	v, n, err := DecodeU128(buf)
	if err != nil {
		return false, Zero, nil, err
	}
	return true, v, buf[n:], nil
}

func readOptU64(buf []byte) (bool, uint64, []byte, error) {
	if len(buf) < 1 {
		return false, 0, nil, ErrTruncated
	}
	has := buf[0] == 1
	buf = buf[1:]
	if !has {
		return false, 0, buf, nil
	}
	v, n := binary.Uvarint(buf)
	if n <= 0 {
		return false, 0, nil, ErrTruncated
	}
	return true, v, buf[n:], nil
}

// --- shared little-endian field helpers ---

func appendU32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

func appendU64(buf []byte, v uint64) []byte {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	return append(buf, tmp[:]...)
}

func appendBytes(buf []byte, v []byte) []byte {
	if len(v) > math.MaxUint32 {
		v = v[:math.MaxUint32]
	}
	buf = appendU32(buf, uint32(len(v)))
	return append(buf, v...)
}

func readU32(buf []byte) (uint32, []byte, error) {
	if len(buf) < 4 {
		return 0, nil, ErrTruncated
	}
	return binary.LittleEndian.Uint32(buf[:4]), buf[4:], nil
}

func readU64(buf []byte) (uint64, []byte, error) {
	if len(buf) < 8 {
		return 0, nil, ErrTruncated
	}
	return binary.LittleEndian.Uint64(buf[:8]), buf[8:], nil
}

func readU128(buf []byte) (U128, []byte, error) {
	v, n, err := DecodeU128(buf)
	if err != nil {
		return Zero, nil, err
	}
	return v, buf[n:], nil
}

func readBytes(buf []byte) ([]byte, []byte, error) {
	n, rest, err := readU32(buf)
	if err != nil {
		return nil, nil, err
	}
	if uint64(len(rest)) < uint64(n) {
		return nil, nil, ErrTruncated
	}
	return rest[:n], rest[n:], nil
}
