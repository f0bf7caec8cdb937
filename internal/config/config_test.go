package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadPrecedenceFlagsOverEnvOverFile(t *testing.T) {
	tmp := t.TempDir()
	configPath := filepath.Join(tmp, "config.yaml")
	if err := os.WriteFile(configPath, []byte("output: plain\nretries: 1\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("GUARDIAN_OUTPUT", "json")
	flags := GlobalFlags{ConfigPath: configPath, Plain: true, Retries: 5}
	settings, err := Load(flags)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if settings.OutputMode != "plain" {
		t.Fatalf("expected flag to win, got output=%s", settings.OutputMode)
	}
	if settings.Retries != 5 {
		t.Fatalf("expected retries from flags, got %d", settings.Retries)
	}
}

func TestLoadExplorerAndSnapshotSettings(t *testing.T) {
	tmp := t.TempDir()
	configPath := filepath.Join(tmp, "config.yaml")
	yaml := "explorer:\n  api_key: file-key\n  page_delay: 150ms\n  max_pages: 7\nsnapshot:\n  ttl: 1h\ngovernance:\n  voters_csv: /data/voters.csv\n"
	if err := os.WriteFile(configPath, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	settings, err := Load(GlobalFlags{ConfigPath: configPath, Retries: -1})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if settings.SubscanAPIKey != "file-key" {
		t.Fatalf("explorer api key not read: %+v", settings)
	}
	if settings.PageDelay != 150*time.Millisecond || settings.MaxPages != 7 {
		t.Fatalf("pagination settings not read: %+v", settings)
	}
	if settings.SnapshotTTL != time.Hour {
		t.Fatalf("snapshot ttl not read: %+v", settings)
	}
	if settings.VotersCSVPath != "/data/voters.csv" {
		t.Fatalf("governance path not read: %+v", settings)
	}
}

func TestLoadEnvOverridesFileForAPIKey(t *testing.T) {
	tmp := t.TempDir()
	configPath := filepath.Join(tmp, "config.yaml")
	if err := os.WriteFile(configPath, []byte("explorer:\n  api_key: file-key\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("GUARDIAN_SUBSCAN_API_KEY", "env-key")
	settings, err := Load(GlobalFlags{ConfigPath: configPath, Retries: -1})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if settings.SubscanAPIKey != "env-key" {
		t.Fatalf("expected env to override file, got %q", settings.SubscanAPIKey)
	}
}

func TestLoadBareOpenAIKeyIsFallbackOnly(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmp)
	t.Setenv("OPENAI_API_KEY", "bare-key")
	t.Setenv("GUARDIAN_OPENAI_API_KEY", "guardian-key")

	settings, err := Load(GlobalFlags{Retries: -1})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if settings.OpenAIAPIKey != "guardian-key" {
		t.Fatalf("prefixed env must win over bare fallback, got %q", settings.OpenAIAPIKey)
	}
}

func TestLoadDefaults(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmp)
	t.Setenv("XDG_CACHE_HOME", tmp)

	settings, err := Load(GlobalFlags{Retries: -1})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if settings.PageDelay != 300*time.Millisecond {
		t.Fatalf("default page delay mismatch: %v", settings.PageDelay)
	}
	if settings.SnapshotTTL != 15*time.Minute {
		t.Fatalf("default snapshot ttl mismatch: %v", settings.SnapshotTTL)
	}
	if settings.MaxPages != 0 {
		t.Fatalf("default max pages should be unbounded: %d", settings.MaxPages)
	}
	if filepath.Base(filepath.Dir(settings.CachePath)) != "guardian" {
		t.Fatalf("cache path not under guardian dir: %s", settings.CachePath)
	}
}

func TestLoadMutuallyExclusiveOutputFlags(t *testing.T) {
	_, err := Load(GlobalFlags{JSON: true, Plain: true})
	if err == nil {
		t.Fatal("expected error with --json and --plain")
	}
}
