package runestate

import (
	"fmt"

	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/AstroxNetwork/runesd/internal/codec"
)

// unallocated accumulates every rune balance carried by tx's inputs.
// It only reads balances; marking the source outpoints spent is left to
// the caller that stages the Plan. Inputs that spent no rune balance
// contribute nothing.
func unallocated(tx *wire.MsgTx, views StateViews) (map[codec.RuneId]codec.U128, error) {
	pool := map[codec.RuneId]codec.U128{}
	for _, in := range tx.TxIn {
		entry, ok, err := views.OutpointBalances(in.PreviousOutPoint)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		balances, err := codec.DecodeBalances(entry.Balances)
		if err != nil {
			return nil, fmt.Errorf("runestate: decode balances at %s: %w", in.PreviousOutPoint, err)
		}
		for _, b := range balances {
			pool[b.ID] = pool[b.ID].Add(b.Amount)
		}
	}
	return pool, nil
}

// Apply runs the mint/etch/edict/cenotaph rules for one transaction and
// returns the resulting Plan. It never mutates a store: the caller
// stages Plan's contents into a FastStore batch and a RelStore
// transaction.
func Apply(ctx TxContext, tx *wire.MsgTx, artifact Artifact, views StateViews) (Plan, error) {
	plan := newPlan()

	pool, err := unallocated(tx, views)
	if err != nil {
		return Plan{}, err
	}

	// Step 2: mint.
	if artifact.Mint != nil && !artifact.IsCenotaph {
		entry, ok, err := views.RuneEntry(*artifact.Mint)
		if err != nil {
			return Plan{}, err
		}
		if ok {
			if amount, mintErr := Mintable(entry, ctx.Height); mintErr == nil {
				pool[*artifact.Mint] = pool[*artifact.Mint].Add(amount)
				entry.Mints = entry.Mints.Add(codec.NewU128(1))
				plan.UpdatedEntries[*artifact.Mint] = entry
				plan.Minted[*artifact.Mint] = amount
			}
		}
	}

	// Step 3: etching.
	var etchedID *codec.RuneId
	if artifact.Etching != nil {
		id := codec.RuneId{Block: ctx.Height, Tx: ctx.TxIndex}
		entry, reserved, err := buildEtchingEntry(ctx, tx, *artifact.Etching, views)
		if err != nil {
			return Plan{}, err
		}
		if entry != nil {
			etchedID = &id
			plan.NewEtching = &id
			plan.NewEtchingEntry = *entry
			plan.ReservedEtch = reserved
			if entry.Premine.Cmp(codec.Zero) > 0 {
				pool[id] = pool[id].Add(entry.Premine)
			}
		}
	}

	// Step 4: edicts.
	if !artifact.IsCenotaph {
		outputs := applyEdicts(tx, artifact.Edicts, etchedID, pool)
		plan.Outputs = append(plan.Outputs, outputs...)
	} else {
		// Cenotaph: burn everything unallocated, nothing goes to an
		// output.
		for id, amount := range pool {
			if amount.IsZero() {
				continue
			}
			plan.Burned[id] = plan.Burned[id].Add(amount)
			delete(pool, id)
		}
	}

	// Step 5: residual assignment (whatever Case A/B left in pool).
	if !artifact.IsCenotaph && len(pool) > 0 {
		target := residualOutput(tx, artifact.Pointer)
		if target == nil {
			for id, amount := range pool {
				if amount.IsZero() {
					continue
				}
				plan.Burned[id] = plan.Burned[id].Add(amount)
			}
		} else {
			var balances []codec.RuneBalance
			for id, amount := range pool {
				if amount.IsZero() {
					continue
				}
				balances = append(balances, codec.RuneBalance{ID: id, Amount: amount})
			}
			if len(balances) > 0 {
				plan.Outputs = append(plan.Outputs, OutputBalances{Output: *target, Balances: balances})
			}
		}
	}

	// Steps 6/7: fold any allocation landing on an OP_RETURN output into
	// burned, in a second pass over the already-built Outputs — this
	// two-pass shape (allocate first, fold OP_RETURN after) is
	// deliberate: Case B's direct single-output allocation must not be
	// filtered by destination eligibility before the fold runs.
	kept := plan.Outputs[:0]
	for _, ob := range plan.Outputs {
		if int(ob.Output) >= len(tx.TxOut) || isOpReturn(tx.TxOut[ob.Output]) {
			for _, b := range ob.Balances {
				plan.Burned[b.ID] = plan.Burned[b.ID].Add(b.Amount)
			}
			continue
		}
		kept = append(kept, ob)
	}
	plan.Outputs = kept

	return plan, nil
}

func isOpReturn(out *wire.TxOut) bool {
	return txscript.GetScriptClass(out.PkScript) == txscript.NullDataTy
}

// eligibleOutputs returns the indexes of every non-OP_RETURN output.
func eligibleOutputs(tx *wire.MsgTx) []uint32 {
	var out []uint32
	for i, o := range tx.TxOut {
		if !isOpReturn(o) {
			out = append(out, uint32(i))
		}
	}
	return out
}

// applyEdicts runs the edict loop: each edict either distributes across
// every eligible output (Case A, output == OutputAll) or allocates to a
// single output (Case B). A zero RuneId in an edict means "the rune
// this transaction just etched".
func applyEdicts(tx *wire.MsgTx, edicts []Edict, etchedID *codec.RuneId, pool map[codec.RuneId]codec.U128) []OutputBalances {
	perOutput := map[uint32]map[codec.RuneId]codec.U128{}
	addTo := func(output uint32, id codec.RuneId, amount codec.U128) {
		if perOutput[output] == nil {
			perOutput[output] = map[codec.RuneId]codec.U128{}
		}
		perOutput[output][id] = perOutput[output][id].Add(amount)
	}

	for _, e := range edicts {
		id := e.ID
		if id.Block == 0 && id.Tx == 0 {
			if etchedID == nil {
				continue
			}
			id = *etchedID
		}
		balance := pool[id]
		if balance.IsZero() {
			continue
		}

		if e.Output == OutputAll {
			destinations := eligibleOutputs(tx)
			if len(destinations) == 0 {
				continue
			}
			pool[id] = distributeAll(destinations, balance, e.Amount, addTo, id)
			continue
		}

		if int(e.Output) >= len(tx.TxOut) {
			continue
		}
		amount := balance
		if !e.Amount.IsZero() {
			amount = e.Amount.Min(balance)
		}
		addTo(e.Output, id, amount)
		pool[id] = balance.Sub(amount)
	}

	var outputs []OutputBalances
	for output, balances := range perOutput {
		var list []codec.RuneBalance
		for id, amount := range balances {
			if amount.IsZero() {
				continue
			}
			list = append(list, codec.RuneBalance{ID: id, Amount: amount})
		}
		if len(list) > 0 {
			outputs = append(outputs, OutputBalances{Output: output, Balances: list})
		}
	}
	return outputs
}

// distributeAll implements edict Case A: amount == 0 divides the full
// balance evenly across destinations with the remainder going to the
// lowest-index outputs first, exactly exhausting balance; amount != 0
// sends min(amount, balance) to each destination in order until balance
// is exhausted. It returns whatever of balance was not distributed —
// always zero for the amount == 0 case, but possibly non-zero when
// amount != 0 and destinations runs out before balance does, matching
// updater.rs's `allocate` leaving the leftover in the caller's pool for
// the residual-assignment step to pick up.
func distributeAll(destinations []uint32, balance, amount codec.U128, addTo func(uint32, codec.RuneId, codec.U128), id codec.RuneId) codec.U128 {
	if amount.IsZero() {
		share, remainder := balance.DivEvenly(uint64(len(destinations)))
		for i, out := range destinations {
			give := share
			if uint64(i) < remainder {
				give = give.Add(codec.NewU128(1))
			}
			if !give.IsZero() {
				addTo(out, id, give)
			}
		}
		return codec.Zero
	}
	remaining := balance
	for _, out := range destinations {
		if remaining.IsZero() {
			break
		}
		give := amount.Min(remaining)
		addTo(out, id, give)
		remaining = remaining.Sub(give)
	}
	return remaining
}

// residualOutput is the destination for whatever a transaction left
// unallocated: the runestone's explicit pointer when it names an
// existing output (an OP_RETURN pointer target is then burned by the
// fold in Apply), or else the first non-OP_RETURN output, or nil (burn)
// if there is none.
func residualOutput(tx *wire.MsgTx, pointer *uint32) *uint32 {
	if pointer != nil && int(*pointer) < len(tx.TxOut) {
		return pointer
	}
	destinations := eligibleOutputs(tx)
	if len(destinations) == 0 {
		return nil
	}
	return &destinations[0]
}
