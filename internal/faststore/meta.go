package faststore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/AstroxNetwork/runesd/internal/chainparams"
)

const schemaVersion = 1

// meta is the small on-disk record identifying what this data
// directory contains. It never tracks indexed height — that is always
// derived from the max key in HeightToBlockHeader, per the restart
// reconciliation invariant.
type meta struct {
	SchemaVersion int    `json:"schema_version"`
	Network       string `json:"network"`
}

func metaPath(dir string) string { return filepath.Join(dir, "meta.json") }

// ensureMeta writes meta.json if absent, and verifies schema/network
// agreement if present.
func (s *Store) ensureMeta(chain chainparams.Chain) error {
	path := metaPath(s.dir)
	existing, err := os.ReadFile(path)
	if err == nil {
		var m meta
		if jsonErr := json.Unmarshal(existing, &m); jsonErr != nil {
			return fmt.Errorf("faststore: corrupt meta.json: %w", jsonErr)
		}
		if m.SchemaVersion != schemaVersion {
			return fmt.Errorf("faststore: meta schema version %d, expected %d", m.SchemaVersion, schemaVersion)
		}
		if m.Network != chain.String() {
			return fmt.Errorf("faststore: data directory is for network %q, expected %q", m.Network, chain.String())
		}
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("faststore: read meta.json: %w", err)
	}

	m := meta{SchemaVersion: schemaVersion, Network: chain.String()}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return writeAtomic(s.dir, path, data)
}

// writeAtomic writes data to path via write-tmp, fsync, rename,
// fsync-directory — crash-safe even if the process dies mid-write.
func writeAtomic(dir, path string, data []byte) error {
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		return err
	}
	dirHandle, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer dirHandle.Close()
	return dirHandle.Sync()
}
