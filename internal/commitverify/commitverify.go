// Package commitverify checks the taproot commit-confirmation rule that
// gates a named rune etching: at least one input of the etching
// transaction must spend a confirmed taproot output whose reveal script
// commits to the rune's name bytes, with enough confirmations by the
// time the etching is mined.
package commitverify

import (
	"context"
	"sync/atomic"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"golang.org/x/sync/errgroup"

	"github.com/AstroxNetwork/runesd/internal/codec"
	"github.com/AstroxNetwork/runesd/internal/log"
	"github.com/AstroxNetwork/runesd/internal/rpcnode"
)

// CommitConfirmations is the number of confirmations a commit output
// must have, relative to the height of the etching transaction, before
// the name it commits to may be etched. Owned by the runestone
// protocol, not this engine — kept here as the one place the indexer
// actually enforces it.
const CommitConfirmations = 6

// Verifier checks commit-confirmation for rune etchings.
type Verifier struct {
	rpc rpcnode.NodeRpc
}

func New(rpc rpcnode.NodeRpc) *Verifier {
	return &Verifier{rpc: rpc}
}

// CommitsToRune reports whether any input of tx reveals a tapscript
// containing a push of name's commitment bytes, spending a confirmed
// P2TR output with enough confirmations by the given height.
func (v *Verifier) CommitsToRune(ctx context.Context, height uint64, tx *wire.MsgTx, name codec.U128) (bool, error) {
	commitment := commitmentBytes(name)

	g, gctx := errgroup.WithContext(ctx)
	var found atomic.Bool

	for _, in := range tx.TxIn {
		in := in
		if found.Load() {
			break
		}
		if !hasCommitmentPush(in.Witness, commitment) {
			continue
		}
		g.Go(func() error {
			if found.Load() {
				return nil
			}
			ok, err := v.confirmedTaprootCommit(gctx, height, in.PreviousOutPoint)
			if err != nil {
				return err
			}
			if ok {
				found.Store(true)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return false, err
	}
	return found.Load(), nil
}

// hasCommitmentPush walks the tapscript preceding a witness's control
// block (BIP341 script-path spend layout) and looks for a data push
// equal to commitment.
func hasCommitmentPush(witness wire.TxWitness, commitment []byte) bool {
	if len(witness) < 2 {
		return false
	}
	script := witness[len(witness)-2]
	tokenizer := txscript.MakeScriptTokenizer(0, script)
	for tokenizer.Next() {
		if opcodeIsDataPush(tokenizer.Opcode()) && bytesEqual(tokenizer.Data(), commitment) {
			return true
		}
	}
	return false
}

func opcodeIsDataPush(op byte) bool {
	return op <= txscript.OP_PUSHDATA4
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// commitmentBytes is the little-endian byte representation of the
// rune's numeric name, stripped of trailing zero bytes — the same bytes
// an etching reveal script pushes.
func commitmentBytes(name codec.U128) []byte {
	var buf [16]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(name.Lo >> (8 * i))
		buf[8+i] = byte(name.Hi >> (8 * i))
	}
	end := len(buf)
	for end > 0 && buf[end-1] == 0 {
		end--
	}
	return buf[:end]
}

// confirmedTaprootCommit fetches the referenced previous output,
// checks it is pay-to-taproot, then checks the commit transaction has
// accrued CommitConfirmations by height.
func (v *Verifier) confirmedTaprootCommit(ctx context.Context, height uint64, prevOut wire.OutPoint) (bool, error) {
	info, err := v.rpc.RawTxInfo(ctx, prevOut.Hash)
	if err != nil {
		return false, err
	}
	if int(prevOut.Index) >= len(info.Vout) {
		return false, nil
	}
	pkScriptHex := info.Vout[prevOut.Index].ScriptPubKey.Hex
	pkScript, err := hexDecode(pkScriptHex)
	if err != nil {
		return false, err
	}
	if txscript.GetScriptClass(pkScript) != txscript.WitnessV1TaprootTy {
		return false, nil
	}

	blockHash, err := chainhash.NewHashFromStr(info.BlockHash)
	if err != nil {
		return false, err
	}
	header, err := v.rpc.HeaderInfo(ctx, *blockHash)
	if err != nil {
		return false, err
	}
	commitHeight := uint64(header.Height)
	if height < commitHeight {
		return false, nil
	}
	confirmations := height - commitHeight + 1
	if confirmations < CommitConfirmations {
		log.Commit().Debug().
			Uint64("height", height).
			Uint64("commit_height", commitHeight).
			Uint64("confirmations", confirmations).
			Msg("commit not yet confirmed")
		return false, nil
	}
	return true, nil
}

func hexDecode(s string) ([]byte, error) {
	out := make([]byte, len(s)/2)
	for i := range out {
		hi := hexNibble(s[i*2])
		lo := hexNibble(s[i*2+1])
		out[i] = hi<<4 | lo
	}
	return out, nil
}

func hexNibble(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	default:
		return 0
	}
}
