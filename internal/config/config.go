// Package config defines the indexing engine's runtime configuration
// surface and its validation rules. Loading this struct from flags or
// environment variables is left to the caller; this package only owns
// the struct shape and the invariants it must satisfy.
package config

import (
	"errors"
	"fmt"
	"strings"
)

// Config is the full set of knobs the indexing engine needs at startup.
type Config struct {
	Network             string `json:"network"`
	DataDir             string `json:"data_dir"`
	BitcoinRPCURL       string `json:"bitcoin_rpc_url"`
	BitcoinRPCUsername  string `json:"bitcoin_rpc_username,omitempty"`
	BitcoinRPCPassword  string `json:"bitcoin_rpc_password,omitempty"`
	MaxBlockQueueSize   int    `json:"max_block_queue_size,omitempty"`
	LogLevel            string `json:"log_level"`
	LogJSON             bool   `json:"log_json"`
}

var allowedNetworks = map[string]struct{}{
	"mainnet":  {},
	"testnet":  {},
	"testnet4": {},
	"signet":   {},
	"regtest":  {},
}

var allowedLogLevels = map[string]struct{}{
	"debug": {},
	"info":  {},
	"warn":  {},
	"error": {},
}

// Default returns a Config usable against a local regtest node.
func Default() Config {
	return Config{
		Network:           "regtest",
		DataDir:           ".runesd",
		BitcoinRPCURL:     "http://127.0.0.1:18443",
		MaxBlockQueueSize: 16,
		LogLevel:          "info",
	}
}

// Validate checks the struct for internal consistency. It does not
// reach the network — the network/RPC-chain match check belongs to
// rpcnode, which has an open connection to compare against.
func (c Config) Validate() error {
	network := strings.ToLower(strings.TrimSpace(c.Network))
	if _, ok := allowedNetworks[network]; !ok {
		return fmt.Errorf("invalid network %q", c.Network)
	}
	if strings.TrimSpace(c.DataDir) == "" {
		return errors.New("data_dir is required")
	}
	if strings.TrimSpace(c.BitcoinRPCURL) == "" {
		return errors.New("bitcoin_rpc_url is required")
	}
	haveUser := strings.TrimSpace(c.BitcoinRPCUsername) != ""
	havePass := strings.TrimSpace(c.BitcoinRPCPassword) != ""
	if haveUser != havePass {
		return errors.New("bitcoin_rpc_username and bitcoin_rpc_password must be set together")
	}
	if c.MaxBlockQueueSize < 0 {
		return errors.New("max_block_queue_size must be >= 0")
	}
	level := strings.ToLower(strings.TrimSpace(c.LogLevel))
	if level == "" {
		level = "info"
	}
	if _, ok := allowedLogLevels[level]; !ok {
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	return nil
}

// String renders the config with credentials redacted, matching the
// display convention the settings this is modeled on use.
func (c Config) String() string {
	user := "<unset>"
	if c.BitcoinRPCUsername != "" {
		user = "***"
	}
	pass := "<unset>"
	if c.BitcoinRPCPassword != "" {
		pass = "********"
	}
	return fmt.Sprintf(
		"Config{network=%s data_dir=%s bitcoin_rpc_url=%s bitcoin_rpc_username=%s bitcoin_rpc_password=%s max_block_queue_size=%d log_level=%s}",
		c.Network, c.DataDir, c.BitcoinRPCURL, user, pass, c.MaxBlockQueueSize, c.LogLevel,
	)
}
