package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sadopc/suivi/internal/logging"
)

func withConfig(t *testing.T, yaml string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "suivi.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	prev := configPath
	configPath = path
	t.Cleanup(func() { configPath = prev })
}

// ============================================================
// open
// ============================================================

func TestOpenAndClose(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "logs", "suivi.log")
	withConfig(t, "database:\n  path: "+filepath.Join(dir, "suivi.db")+"\nlog:\n  file: "+logFile+"\n")

	d, err := open(logging.ForServer)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if d.weeks.Catalog().InternalClient != "interne" {
		t.Fatalf("catalog not loaded: %+v", d.weeks.Catalog())
	}
	d.logger.Info("opened")
	d.Close()

	raw, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), `"msg":"opened"`) {
		t.Fatalf("log file = %s", raw)
	}
}

func TestOpenFlushesLogWhenDatabaseFails(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	logFile := filepath.Join(dir, "suivi.log")
	withConfig(t, "database:\n  path: "+filepath.Join(blocker, "suivi.db")+"\nlog:\n  file: "+logFile+"\n")

	if _, err := open(logging.ForServer); err == nil {
		t.Fatal("a database under a regular file must not open")
	}

	raw, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("log file: %v", err)
	}
	if !strings.Contains(string(raw), `"msg":"open database"`) {
		t.Fatalf("the failure should be logged, got %s", raw)
	}
}
