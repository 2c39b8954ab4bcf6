// Package chainparams holds the small set of network-specific constants
// the indexing engine needs: which Bitcoin network it's tracking, where
// on disk that network's data lives, and the height the Runes protocol
// activated on it.
package chainparams

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/btcsuite/btcd/chaincfg"
)

// Chain identifies a Bitcoin network.
type Chain int

const (
	Mainnet Chain = iota
	Testnet
	Testnet4
	Signet
	Regtest
)

// ParseChain accepts both long and short network names, matching what
// a bitcoind getblockchaininfo "chain" field and a settings.network
// config value both use.
func ParseChain(s string) (Chain, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "main", "mainnet":
		return Mainnet, nil
	case "test", "testnet":
		return Testnet, nil
	case "test4", "testnet4":
		return Testnet4, nil
	case "signet":
		return Signet, nil
	case "regtest":
		return Regtest, nil
	default:
		return 0, fmt.Errorf("unknown chain %q", s)
	}
}

func (c Chain) String() string {
	switch c {
	case Mainnet:
		return "mainnet"
	case Testnet:
		return "testnet"
	case Testnet4:
		return "testnet4"
	case Signet:
		return "signet"
	case Regtest:
		return "regtest"
	default:
		return "unknown"
	}
}

// DataSubdir returns the chain-specific data directory under dataDir.
// Mainnet data lives at the data directory root; every other network
// gets its own named subdirectory.
func (c Chain) DataSubdir(dataDir string) string {
	switch c {
	case Mainnet:
		return dataDir
	case Testnet:
		return filepath.Join(dataDir, "testnet3")
	case Testnet4:
		return filepath.Join(dataDir, "testnet4")
	case Signet:
		return filepath.Join(dataDir, "signet")
	case Regtest:
		return filepath.Join(dataDir, "regtest")
	default:
		return dataDir
	}
}

// DefaultRPCPort is the bitcoind default RPC port for the network.
func (c Chain) DefaultRPCPort() int {
	switch c {
	case Mainnet:
		return 8332
	case Testnet:
		return 18332
	case Testnet4:
		return 48332
	case Signet:
		return 38332
	case Regtest:
		return 18443
	default:
		return 8332
	}
}

// FirstRuneHeight is the height at which Runestone parsing begins on
// the network; indexing starts at this height, and earlier blocks are
// not indexed at all.
func (c Chain) FirstRuneHeight() uint64 {
	switch c {
	case Mainnet:
		return 840000
	case Testnet:
		return 2584000
	case Testnet4:
		return 0
	case Signet:
		return 0
	case Regtest:
		return 0
	default:
		return 0
	}
}

// Params returns the btcd chain parameters for this network, used to
// derive addresses from scriptPubKeys.
func (c Chain) Params() *chaincfg.Params {
	switch c {
	case Mainnet:
		return &chaincfg.MainNetParams
	case Testnet:
		return &chaincfg.TestNet3Params
	case Testnet4:
		return &chaincfg.TestNet4Params
	case Signet:
		return &chaincfg.SigNetParams
	case Regtest:
		return &chaincfg.RegressionNetParams
	default:
		return &chaincfg.MainNetParams
	}
}

// JubileeHeight is the height at which unnamed-etching restrictions
// relaxed. The indexer's minimum-name floor uses it as the end of its
// step-down window; on every network it equals FirstRuneHeight.
func (c Chain) JubileeHeight() uint64 {
	switch c {
	case Mainnet:
		return 840000
	case Testnet:
		return 2584000
	case Testnet4:
		return 0
	case Signet:
		return 0
	case Regtest:
		return 0
	default:
		return 0
	}
}
