package commitverify

import (
	"testing"

	"github.com/AstroxNetwork/runesd/internal/codec"
)

func TestCommitmentBytesStripsTrailingZeros(t *testing.T) {
	name := codec.NewU128(0x0102)
	got := commitmentBytes(name)
	want := []byte{0x02, 0x01}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("got %x want %x", got, want)
	}
}

func TestCommitmentBytesZeroIsEmpty(t *testing.T) {
	if got := commitmentBytes(codec.Zero); len(got) != 0 {
		t.Fatalf("expected empty commitment for zero rune, got %x", got)
	}
}

func TestHasCommitmentPushFindsMatch(t *testing.T) {
	commitment := []byte{0xde, 0xad, 0xbe, 0xef}
	// tapscript: OP_DATA_4 <commitment>; witness stack top-2 is script,
	// top-1 is the control block.
	script := append([]byte{byte(len(commitment))}, commitment...)
	witness := [][]byte{{0x01}, script, {0xc0}}
	if !hasCommitmentPush(witness, commitment) {
		t.Fatal("expected to find commitment push in tapscript")
	}
}

func TestHasCommitmentPushNoMatch(t *testing.T) {
	witness := [][]byte{{0x01}, {0x04, 1, 2, 3, 4}, {0xc0}}
	if hasCommitmentPush(witness, []byte{0xde, 0xad}) {
		t.Fatal("did not expect a match")
	}
}

func TestHexDecode(t *testing.T) {
	got, err := hexDecode("deadbeef")
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0xde, 0xad, 0xbe, 0xef}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %x want %x", got, want)
		}
	}
}
