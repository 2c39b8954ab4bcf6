package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("write failed") }

func TestRunDryRunOK(t *testing.T) {
	dir := t.TempDir()
	var out, errOut bytes.Buffer

	code := run([]string{"--dry-run", "--datadir", dir, "--network", "regtest"}, &out, &errOut)
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d (stderr=%q)", code, errOut.String())
	}
	if out.Len() == 0 {
		t.Fatalf("expected stdout config output")
	}
}

func TestRunRedactsCredentialsInDryRunOutput(t *testing.T) {
	dir := t.TempDir()
	var out, errOut bytes.Buffer

	code := run([]string{
		"--dry-run", "--datadir", dir,
		"--rpc-user", "alice", "--rpc-pass", "hunter2",
	}, &out, &errOut)
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d (stderr=%q)", code, errOut.String())
	}
	if bytes.Contains(out.Bytes(), []byte("hunter2")) {
		t.Fatalf("expected rpc password not to appear in config output, got %q", out.String())
	}
}

func TestRunInvalidNetwork(t *testing.T) {
	dir := t.TempDir()
	var out, errOut bytes.Buffer

	code := run([]string{"--dry-run", "--datadir", dir, "--network", "bogus"}, &out, &errOut)
	if code != 2 {
		t.Fatalf("expected exit code 2, got %d (stderr=%q)", code, errOut.String())
	}
}

func TestRunParseErrorUnknownFlag(t *testing.T) {
	dir := t.TempDir()
	var out, errOut bytes.Buffer

	code := run([]string{"--dry-run", "--datadir", dir, "--unknown-flag"}, &out, &errOut)
	if code != 2 {
		t.Fatalf("expected exit code 2, got %d", code)
	}
}

func TestRunPrintConfigFailsWhenStdoutFails(t *testing.T) {
	dir := t.TempDir()
	var errOut bytes.Buffer

	code := run([]string{"--dry-run", "--datadir", dir}, failWriter{}, &errOut)
	if code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
}

func TestRunDatadirCreateFailsWhenDatadirIsFile(t *testing.T) {
	tmp := t.TempDir()
	datadir := filepath.Join(tmp, "notadir")
	if err := os.WriteFile(datadir, []byte("x"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	var out, errOut bytes.Buffer
	code := run([]string{"--datadir", datadir}, &out, &errOut)
	if code != 2 {
		t.Fatalf("expected exit code 2, got %d (stderr=%q)", code, errOut.String())
	}
}

func TestRunRPCDialFailsWhenNodeUnreachable(t *testing.T) {
	dir := t.TempDir()
	var out, errOut bytes.Buffer

	code := run([]string{
		"--datadir", dir,
		"--network", "regtest",
		"--rpc-url", "http://127.0.0.1:1",
	}, &out, &errOut)
	if code != 2 {
		t.Fatalf("expected exit code 2 on unreachable node, got %d (stderr=%q)", code, errOut.String())
	}
}
