package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.DataDir != DefaultDataDir || cfg.APIPort != DefaultAPIPort || cfg.LogLevel != DefaultLogLevel {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("TERMMAIL_API_PORT", "9999")
	t.Setenv("TERMMAIL_LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.APIPort != "9999" {
		t.Errorf("env port not applied: %s", cfg.APIPort)
	}
	if cfg.LogLevel != "DEBUG" {
		t.Errorf("env log level not applied: %s", cfg.LogLevel)
	}
}

func TestSaveAndReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	cfg := &Config{
		DataDir:  "custom-data",
		APIPort:  "8181",
		LogLevel: "WARN",
		Accounts: []AccountConfig{
			{ID: "me@local.test", Kind: "local", LocalPart: "me", Domain: "local.test"},
		},
	}
	if err := cfg.Save(path); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("empty config file written")
	}
}

func TestGetEncryptionKeyIs32Bytes(t *testing.T) {
	cfg := &Config{EncryptionKey: "anything"}
	if got := cfg.GetEncryptionKey(); len(got) != 32 {
		t.Fatalf("expected 32-byte key, got %d", len(got))
	}

	other := &Config{EncryptionKey: "something else"}
	a := cfg.GetEncryptionKey()
	b := other.GetEncryptionKey()
	if string(a) == string(b) {
		t.Fatal("different passphrases derived the same key")
	}
}
