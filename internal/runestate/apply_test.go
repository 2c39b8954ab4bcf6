package runestate

import (
	"testing"

	"github.com/btcsuite/btcd/wire"

	"github.com/AstroxNetwork/runesd/internal/codec"
)

type fakeViews struct {
	entries  map[codec.RuneId]codec.RuneEntry
	byName   map[codec.U128]codec.RuneId
	balances map[wire.OutPoint]codec.BalanceEntry
	commits  bool
}

func newFakeViews() *fakeViews {
	return &fakeViews{
		entries:  map[codec.RuneId]codec.RuneEntry{},
		byName:   map[codec.U128]codec.RuneId{},
		balances: map[wire.OutPoint]codec.BalanceEntry{},
		commits:  true,
	}
}

func (f *fakeViews) RuneEntry(id codec.RuneId) (codec.RuneEntry, bool, error) {
	e, ok := f.entries[id]
	return e, ok, nil
}

func (f *fakeViews) RuneIDByName(name codec.U128) (codec.RuneId, bool, error) {
	id, ok := f.byName[name]
	return id, ok, nil
}

func (f *fakeViews) OutpointBalances(op wire.OutPoint) (codec.BalanceEntry, bool, error) {
	e, ok := f.balances[op]
	return e, ok, nil
}

func (f *fakeViews) CommitsToRune(tx *wire.MsgTx, name codec.U128) (bool, error) {
	return f.commits, nil
}

func opAt(vout uint32) wire.OutPoint {
	return wire.OutPoint{Index: vout}
}

func TestEdictCaseADivideEvenlyWithRemainder(t *testing.T) {
	views := newFakeViews()
	id := codec.RuneId{Block: 1, Tx: 1}
	src := opAt(0)
	views.balances[src] = codec.BalanceEntry{Balances: codec.EncodeBalances([]codec.RuneBalance{{ID: id, Amount: codec.NewU128(10)}})}

	tx := &wire.MsgTx{
		TxIn:  []*wire.TxIn{{PreviousOutPoint: src}},
		TxOut: []*wire.TxOut{{}, {}, {}},
	}
	artifact := Artifact{Edicts: []Edict{{ID: id, Amount: codec.Zero, Output: OutputAll}}}

	plan, err := Apply(TxContext{Height: 1, TxIndex: 0}, tx, artifact, views)
	if err != nil {
		t.Fatal(err)
	}

	total := codec.Zero
	for _, ob := range plan.Outputs {
		for _, b := range ob.Balances {
			total = total.Add(b.Amount)
		}
	}
	if total != codec.NewU128(10) {
		t.Fatalf("expected all 10 distributed, got %+v", total)
	}
	if len(plan.Outputs) != 3 {
		t.Fatalf("expected 3 outputs to receive a share, got %d", len(plan.Outputs))
	}
}

func TestEdictCaseBBoundedAllocation(t *testing.T) {
	views := newFakeViews()
	id := codec.RuneId{Block: 1, Tx: 1}
	src := opAt(0)
	views.balances[src] = codec.BalanceEntry{Balances: codec.EncodeBalances([]codec.RuneBalance{{ID: id, Amount: codec.NewU128(10)}})}

	tx := &wire.MsgTx{
		TxIn:  []*wire.TxIn{{PreviousOutPoint: src}},
		TxOut: []*wire.TxOut{{}, {}},
	}
	artifact := Artifact{Edicts: []Edict{{ID: id, Amount: codec.NewU128(3), Output: 1}}}

	plan, err := Apply(TxContext{Height: 1, TxIndex: 0}, tx, artifact, views)
	if err != nil {
		t.Fatal(err)
	}

	var toOutput1 codec.U128
	var residual codec.U128
	for _, ob := range plan.Outputs {
		for _, b := range ob.Balances {
			if ob.Output == 1 {
				toOutput1 = toOutput1.Add(b.Amount)
			} else {
				residual = residual.Add(b.Amount)
			}
		}
	}
	if toOutput1 != codec.NewU128(3) {
		t.Fatalf("expected 3 to output 1, got %+v", toOutput1)
	}
	if residual != codec.NewU128(7) {
		t.Fatalf("expected 7 residual to output 0, got %+v", residual)
	}
}

func TestOpReturnOutputFoldsIntoBurned(t *testing.T) {
	views := newFakeViews()
	id := codec.RuneId{Block: 1, Tx: 1}
	src := opAt(0)
	views.balances[src] = codec.BalanceEntry{Balances: codec.EncodeBalances([]codec.RuneBalance{{ID: id, Amount: codec.NewU128(10)}})}

	opReturnScript := []byte{0x6a} // OP_RETURN
	tx := &wire.MsgTx{
		TxIn:  []*wire.TxIn{{PreviousOutPoint: src}},
		TxOut: []*wire.TxOut{{PkScript: opReturnScript}},
	}
	artifact := Artifact{Edicts: []Edict{{ID: id, Amount: codec.Zero, Output: 0}}}

	plan, err := Apply(TxContext{Height: 1, TxIndex: 0}, tx, artifact, views)
	if err != nil {
		t.Fatal(err)
	}
	if len(plan.Outputs) != 0 {
		t.Fatalf("expected no output balances, all folded to burned, got %+v", plan.Outputs)
	}
	if plan.Burned[id] != codec.NewU128(10) {
		t.Fatalf("expected 10 burned, got %+v", plan.Burned[id])
	}
}

func TestMintIncrementsMintsAndRespectsCap(t *testing.T) {
	views := newFakeViews()
	id := codec.RuneId{Block: 1, Tx: 1}
	views.entries[id] = codec.RuneEntry{
		Block: 1,
		Mints: codec.NewU128(4),
		HasTerms: true,
		Terms: codec.Terms{
			HasCap: true, Cap: codec.NewU128(5),
			HasAmount: true, Amount: codec.NewU128(100),
		},
	}

	tx := &wire.MsgTx{TxOut: []*wire.TxOut{{}}}
	artifact := Artifact{Mint: &id, Pointer: nil}

	plan, err := Apply(TxContext{Height: 1, TxIndex: 0}, tx, artifact, views)
	if err != nil {
		t.Fatal(err)
	}
	if plan.UpdatedEntries[id].Mints != codec.NewU128(5) {
		t.Fatalf("expected mints incremented to 5, got %+v", plan.UpdatedEntries[id].Mints)
	}

	// Second mint should be rejected: cap reached.
	views.entries[id] = plan.UpdatedEntries[id]
	plan2, err := Apply(TxContext{Height: 1, TxIndex: 1}, tx, artifact, views)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := plan2.UpdatedEntries[id]; ok {
		t.Fatal("expected second mint to be rejected once cap is reached")
	}
}

func TestCenotaphBurnsEverythingUnallocated(t *testing.T) {
	views := newFakeViews()
	id := codec.RuneId{Block: 1, Tx: 1}
	src := opAt(0)
	views.balances[src] = codec.BalanceEntry{Balances: codec.EncodeBalances([]codec.RuneBalance{{ID: id, Amount: codec.NewU128(42)}})}

	tx := &wire.MsgTx{TxIn: []*wire.TxIn{{PreviousOutPoint: src}}, TxOut: []*wire.TxOut{{}}}
	artifact := Artifact{IsCenotaph: true}

	plan, err := Apply(TxContext{Height: 1, TxIndex: 0}, tx, artifact, views)
	if err != nil {
		t.Fatal(err)
	}
	if plan.Burned[id] != codec.NewU128(42) {
		t.Fatalf("expected 42 burned, got %+v", plan.Burned[id])
	}
	if len(plan.Outputs) != 0 {
		t.Fatal("cenotaph should not allocate to any output")
	}
}

func TestMintableStartEndCap(t *testing.T) {
	entry := codec.RuneEntry{
		Block: 100,
		Mints: codec.Zero,
		HasTerms: true,
		Terms: codec.Terms{
			HasCap: true, Cap: codec.NewU128(1),
			HasAmount:      true, Amount: codec.NewU128(1),
			HasStartOffset: true, StartOffset: 10,
			HasEndHeight:   true, EndHeight: 200,
		},
	}
	if _, err := Mintable(entry, 109); err == nil || err.Kind != MintErrorStart {
		t.Fatalf("expected start error before height 110, got %v", err)
	}
	if _, err := Mintable(entry, 110); err != nil {
		t.Fatalf("expected mintable at start height, got %v", err)
	}
	if _, err := Mintable(entry, 200); err == nil || err.Kind != MintErrorEnd {
		t.Fatalf("expected end error at height 200, got %v", err)
	}
	entry.Mints = codec.NewU128(1)
	if _, err := Mintable(entry, 110); err == nil || err.Kind != MintErrorCap {
		t.Fatalf("expected cap error once mints reach cap 1, got %v", err)
	}
}
