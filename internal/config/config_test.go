package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mnemo.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `{"embedding": {"provider": "ollama"}}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("got port %d, want 8080", cfg.Server.Port)
	}
	if cfg.Embedding.Dimension != 768 {
		t.Errorf("got dimension %d, want 768", cfg.Embedding.Dimension)
	}
	if cfg.Memory.MaxRecords != 1000 || cfg.Memory.DecayDays != 90 {
		t.Errorf("unexpected memory defaults: %+v", cfg.Memory)
	}
}

func TestLoadSubstitutesEnvVars(t *testing.T) {
	t.Setenv("MNEMO_TEST_KEY", "sk-secret")
	path := writeConfig(t, `{
		"embedding": {"api_key": "${MNEMO_TEST_KEY}", "endpoint": "${MNEMO_TEST_ENDPOINT:http://fallback}"}
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Embedding.APIKey != "sk-secret" {
		t.Errorf("got api key %q, want substituted env value", cfg.Embedding.APIKey)
	}
	if cfg.Embedding.Endpoint != "http://fallback" {
		t.Errorf("got endpoint %q, want default fallback", cfg.Embedding.Endpoint)
	}
}

func TestLoadRejectsBadJSON(t *testing.T) {
	path := writeConfig(t, `{not json`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for malformed config")
	}
}
