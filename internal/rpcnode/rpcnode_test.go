package rpcnode

import (
	"errors"
	"testing"

	"github.com/btcsuite/btcd/btcjson"
)

func TestIsMissingClassifiesRPCError(t *testing.T) {
	err := &btcjson.RPCError{Code: btcjson.ErrRPCInvalidParameter, Message: "Block height out of range"}
	if !isMissing(err) {
		t.Fatal("expected invalid-parameter RPC error to classify as missing")
	}
}

func TestIsMissingFallsBackToMessageMatch(t *testing.T) {
	if !isMissing(errors.New("transaction not found")) {
		t.Fatal("expected 'not found' substring to classify as missing")
	}
	if isMissing(errors.New("connection refused")) {
		t.Fatal("connectivity errors should not classify as missing")
	}
}
