// Command runes-indexerd runs the Runes indexing engine against a
// configured Bitcoin Core node, persisting rune state to FastStore and
// RelStore until terminated.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/AstroxNetwork/runesd/internal/chainparams"
	"github.com/AstroxNetwork/runesd/internal/config"
	"github.com/AstroxNetwork/runesd/internal/faststore"
	"github.com/AstroxNetwork/runesd/internal/indexer"
	"github.com/AstroxNetwork/runesd/internal/log"
	"github.com/AstroxNetwork/runesd/internal/relstore"
	"github.com/AstroxNetwork/runesd/internal/reorg"
	"github.com/AstroxNetwork/runesd/internal/rpcnode"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	defaults := config.Default()
	cfg := defaults

	fs := flag.NewFlagSet("runes-indexerd", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.Network, "network", defaults.Network, "network name (mainnet/testnet/testnet4/signet/regtest)")
	fs.StringVar(&cfg.DataDir, "datadir", defaults.DataDir, "indexer data directory")
	fs.StringVar(&cfg.BitcoinRPCURL, "rpc-url", defaults.BitcoinRPCURL, "bitcoin core RPC URL")
	fs.StringVar(&cfg.BitcoinRPCUsername, "rpc-user", defaults.BitcoinRPCUsername, "bitcoin core RPC username")
	fs.StringVar(&cfg.BitcoinRPCPassword, "rpc-pass", defaults.BitcoinRPCPassword, "bitcoin core RPC password")
	fs.StringVar(&cfg.LogLevel, "log-level", defaults.LogLevel, "log level: debug|info|warn|error")
	fs.BoolVar(&cfg.LogJSON, "log-json", defaults.LogJSON, "emit logs as JSON")
	fs.IntVar(&cfg.MaxBlockQueueSize, "max-block-queue", defaults.MaxBlockQueueSize, "max blocks buffered ahead of commit")
	dryRun := fs.Bool("dry-run", false, "print effective config and exit")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg.Network = strings.ToLower(strings.TrimSpace(cfg.Network))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "invalid config: %v\n", err)
		return 2
	}

	if err := printConfig(stdout, cfg); err != nil {
		fmt.Fprintf(stderr, "config encode failed: %v\n", err)
		return 1
	}
	if *dryRun {
		return 0
	}

	if err := log.Init(cfg.LogLevel, cfg.LogJSON, ""); err != nil {
		fmt.Fprintf(stderr, "log init failed: %v\n", err)
		return 2
	}

	chain, err := chainparams.ParseChain(cfg.Network)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 2
	}

	if err := os.MkdirAll(cfg.DataDir, 0o750); err != nil {
		fmt.Fprintf(stderr, "datadir create failed: %v\n", err)
		return 2
	}

	fast, err := faststore.Open(cfg.DataDir, chain)
	if err != nil {
		fmt.Fprintf(stderr, "faststore open failed: %v\n", err)
		return 2
	}
	defer fast.Close()

	if err := os.MkdirAll(chain.DataSubdir(cfg.DataDir), 0o750); err != nil {
		fmt.Fprintf(stderr, "datadir create failed: %v\n", err)
		return 2
	}
	rel, err := relstore.Open(filepath.Join(chain.DataSubdir(cfg.DataDir), "relstore.sqlite"))
	if err != nil {
		fmt.Fprintf(stderr, "relstore open failed: %v\n", err)
		return 2
	}
	defer rel.Close()

	node, err := rpcnode.Dial(cfg.BitcoinRPCURL, cfg.BitcoinRPCUsername, cfg.BitcoinRPCPassword, chain)
	if err != nil {
		fmt.Fprintf(stderr, "rpc dial failed: %v\n", err)
		return 2
	}
	defer node.Close()

	rm := reorg.New(fast, rel, node, chain.FirstRuneHeight())
	bi := indexer.New(fast, rel, node, rm, noopDecoder{}, chain)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Indexer().Info().Str("network", chain.String()).Str("data_dir", cfg.DataDir).Msg("runes-indexerd starting")
	if err := bi.Run(ctx); err != nil && ctx.Err() == nil {
		fmt.Fprintf(stderr, "indexer stopped: %v\n", err)
		return 1
	}
	log.Indexer().Info().Msg("runes-indexerd stopped")
	return 0
}

func printConfig(w io.Writer, cfg config.Config) error {
	display := cfg
	if display.BitcoinRPCUsername != "" {
		display.BitcoinRPCUsername = "***"
	}
	if display.BitcoinRPCPassword != "" {
		display.BitcoinRPCPassword = "********"
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(display)
}
