package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type GlobalFlags struct {
	ConfigPath     string
	JSON           bool
	Plain          bool
	Select         string
	ResultsOnly    bool
	EnableCommands string
	Strict         bool
	Verbose        bool
	Timeout        string
	Retries        int
	MaxStale       string
	NoStale        bool
	NoCache        bool
}

type Settings struct {
	OutputMode     string
	SelectFields   []string
	ResultsOnly    bool
	EnableCommands []string
	Strict         bool
	Verbose        bool
	Timeout        time.Duration
	Retries        int
	MaxStale       time.Duration
	NoStale        bool
	CacheEnabled   bool
	CachePath      string
	CacheLockPath  string

	SubscanAPIKey string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	PageDelay   time.Duration
	MaxPages    int
	SnapshotTTL time.Duration

	VotersCSVPath    string
	ProposalsCSVPath string
}

type fileConfig struct {
	Output  string `yaml:"output"`
	Strict  *bool  `yaml:"strict"`
	Timeout string `yaml:"timeout"`
	Retries *int   `yaml:"retries"`
	Cache   struct {
		Enabled  *bool  `yaml:"enabled"`
		MaxStale string `yaml:"max_stale"`
		Path     string `yaml:"path"`
		LockPath string `yaml:"lock_path"`
	} `yaml:"cache"`
	Explorer struct {
		APIKey    string `yaml:"api_key"`
		APIKeyEnv string `yaml:"api_key_env"`
		PageDelay string `yaml:"page_delay"`
		MaxPages  *int   `yaml:"max_pages"`
	} `yaml:"explorer"`
	Snapshot struct {
		TTL string `yaml:"ttl"`
	} `yaml:"snapshot"`
	OpenAI struct {
		APIKey    string `yaml:"api_key"`
		APIKeyEnv string `yaml:"api_key_env"`
		BaseURL   string `yaml:"base_url"`
		Model     string `yaml:"model"`
	} `yaml:"openai"`
	Governance struct {
		VotersCSV    string `yaml:"voters_csv"`
		ProposalsCSV string `yaml:"proposals_csv"`
	} `yaml:"governance"`
}

// Load resolves effective settings: defaults, then the YAML config file,
// then GUARDIAN_* environment variables, then command-line flags.
func Load(flags GlobalFlags) (Settings, error) {
	settings, err := defaultSettings()
	if err != nil {
		return Settings{}, err
	}

	cfgPath, err := resolveConfigPath(flags.ConfigPath)
	if err != nil {
		return Settings{}, err
	}

	if err := applyFileConfig(cfgPath, &settings); err != nil {
		return Settings{}, err
	}

	applyEnv(&settings)

	if err := applyFlags(flags, &settings); err != nil {
		return Settings{}, err
	}

	if settings.OutputMode == "" {
		settings.OutputMode = "json"
	}
	if settings.Timeout <= 0 {
		settings.Timeout = 10 * time.Second
	}
	if settings.Retries < 0 {
		settings.Retries = 0
	}
	if settings.MaxStale < 0 {
		settings.MaxStale = 5 * time.Minute
	}
	if settings.PageDelay < 0 {
		settings.PageDelay = 0
	}
	if settings.SnapshotTTL <= 0 {
		settings.SnapshotTTL = 15 * time.Minute
	}

	return settings, nil
}

func defaultSettings() (Settings, error) {
	cachePath, lockPath, err := defaultCachePaths()
	if err != nil {
		return Settings{}, err
	}
	return Settings{
		OutputMode:    "json",
		Timeout:       10 * time.Second,
		Retries:       2,
		MaxStale:      5 * time.Minute,
		CacheEnabled:  true,
		CachePath:     cachePath,
		CacheLockPath: lockPath,
		PageDelay:     300 * time.Millisecond,
		SnapshotTTL:   15 * time.Minute,
	}, nil
}

func resolveConfigPath(input string) (string, error) {
	if strings.TrimSpace(input) != "" {
		return input, nil
	}
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "guardian", "config.yaml"), nil
}

func defaultCachePaths() (string, string, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", "", err
		}
		base = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(base, "guardian")
	return filepath.Join(dir, "cache.db"), filepath.Join(dir, "cache.lock"), nil
}

func applyFileConfig(path string, settings *Settings) error {
	buf, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}

	var cfg fileConfig
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return fmt.Errorf("parse config yaml: %w", err)
	}

	if cfg.Output != "" {
		settings.OutputMode = strings.ToLower(cfg.Output)
	}
	if cfg.Strict != nil {
		settings.Strict = *cfg.Strict
	}
	if cfg.Timeout != "" {
		d, err := time.ParseDuration(cfg.Timeout)
		if err != nil {
			return fmt.Errorf("config timeout: %w", err)
		}
		settings.Timeout = d
	}
	if cfg.Retries != nil {
		settings.Retries = *cfg.Retries
	}
	if cfg.Cache.Enabled != nil {
		settings.CacheEnabled = *cfg.Cache.Enabled
	}
	if cfg.Cache.MaxStale != "" {
		d, err := time.ParseDuration(cfg.Cache.MaxStale)
		if err != nil {
			return fmt.Errorf("config cache.max_stale: %w", err)
		}
		settings.MaxStale = d
	}
	if cfg.Cache.Path != "" {
		settings.CachePath = cfg.Cache.Path
	}
	if cfg.Cache.LockPath != "" {
		settings.CacheLockPath = cfg.Cache.LockPath
	}
	if cfg.Explorer.APIKey != "" {
		settings.SubscanAPIKey = cfg.Explorer.APIKey
	}
	if cfg.Explorer.APIKeyEnv != "" {
		settings.SubscanAPIKey = os.Getenv(cfg.Explorer.APIKeyEnv)
	}
	if cfg.Explorer.PageDelay != "" {
		d, err := time.ParseDuration(cfg.Explorer.PageDelay)
		if err != nil {
			return fmt.Errorf("config explorer.page_delay: %w", err)
		}
		settings.PageDelay = d
	}
	if cfg.Explorer.MaxPages != nil {
		settings.MaxPages = *cfg.Explorer.MaxPages
	}
	if cfg.Snapshot.TTL != "" {
		d, err := time.ParseDuration(cfg.Snapshot.TTL)
		if err != nil {
			return fmt.Errorf("config snapshot.ttl: %w", err)
		}
		settings.SnapshotTTL = d
	}
	if cfg.OpenAI.APIKey != "" {
		settings.OpenAIAPIKey = cfg.OpenAI.APIKey
	}
	if cfg.OpenAI.APIKeyEnv != "" {
		settings.OpenAIAPIKey = os.Getenv(cfg.OpenAI.APIKeyEnv)
	}
	if cfg.OpenAI.BaseURL != "" {
		settings.OpenAIBaseURL = cfg.OpenAI.BaseURL
	}
	if cfg.OpenAI.Model != "" {
		settings.OpenAIModel = cfg.OpenAI.Model
	}
	if cfg.Governance.VotersCSV != "" {
		settings.VotersCSVPath = cfg.Governance.VotersCSV
	}
	if cfg.Governance.ProposalsCSV != "" {
		settings.ProposalsCSVPath = cfg.Governance.ProposalsCSV
	}

	return nil
}

func applyEnv(settings *Settings) {
	if v := os.Getenv("GUARDIAN_OUTPUT"); v != "" {
		settings.OutputMode = strings.ToLower(v)
	}
	if v := os.Getenv("GUARDIAN_STRICT"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			settings.Strict = b
		}
	}
	if v := os.Getenv("GUARDIAN_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			settings.Timeout = d
		}
	}
	if v := os.Getenv("GUARDIAN_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			settings.Retries = n
		}
	}
	if v := os.Getenv("GUARDIAN_MAX_STALE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			settings.MaxStale = d
		}
	}
	if v := os.Getenv("GUARDIAN_NO_STALE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			settings.NoStale = b
		}
	}
	if v := os.Getenv("GUARDIAN_NO_CACHE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			settings.CacheEnabled = !b
		}
	}
	if v := os.Getenv("GUARDIAN_CACHE_PATH"); v != "" {
		settings.CachePath = v
	}
	if v := os.Getenv("GUARDIAN_CACHE_LOCK_PATH"); v != "" {
		settings.CacheLockPath = v
	}
	if v := os.Getenv("GUARDIAN_SUBSCAN_API_KEY"); v != "" {
		settings.SubscanAPIKey = v
	}
	if v := os.Getenv("SUBSCAN_API_KEY"); v != "" && settings.SubscanAPIKey == "" {
		settings.SubscanAPIKey = v
	}
	if v := os.Getenv("GUARDIAN_PAGE_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			settings.PageDelay = d
		}
	}
	if v := os.Getenv("GUARDIAN_MAX_PAGES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			settings.MaxPages = n
		}
	}
	if v := os.Getenv("GUARDIAN_SNAPSHOT_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			settings.SnapshotTTL = d
		}
	}
	if v := os.Getenv("GUARDIAN_OPENAI_API_KEY"); v != "" {
		settings.OpenAIAPIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" && settings.OpenAIAPIKey == "" {
		settings.OpenAIAPIKey = v
	}
	if v := os.Getenv("GUARDIAN_OPENAI_BASE_URL"); v != "" {
		settings.OpenAIBaseURL = v
	}
	if v := os.Getenv("GUARDIAN_OPENAI_MODEL"); v != "" {
		settings.OpenAIModel = v
	}
	if v := os.Getenv("GUARDIAN_VOTERS_CSV"); v != "" {
		settings.VotersCSVPath = v
	}
	if v := os.Getenv("GUARDIAN_PROPOSALS_CSV"); v != "" {
		settings.ProposalsCSVPath = v
	}
}

func applyFlags(flags GlobalFlags, settings *Settings) error {
	if flags.JSON && flags.Plain {
		return fmt.Errorf("cannot use --json and --plain together")
	}
	if flags.JSON {
		settings.OutputMode = "json"
	}
	if flags.Plain {
		settings.OutputMode = "plain"
	}
	if strings.TrimSpace(flags.Select) != "" {
		parts := strings.Split(flags.Select, ",")
		fields := make([]string, 0, len(parts))
		for _, part := range parts {
			f := strings.TrimSpace(part)
			if f != "" {
				fields = append(fields, f)
			}
		}
		settings.SelectFields = fields
	}
	settings.ResultsOnly = flags.ResultsOnly

	if strings.TrimSpace(flags.EnableCommands) != "" {
		parts := strings.Split(flags.EnableCommands, ",")
		allowed := make([]string, 0, len(parts))
		for _, part := range parts {
			v := strings.TrimSpace(part)
			if v != "" {
				allowed = append(allowed, v)
			}
		}
		settings.EnableCommands = allowed
	}

	if flags.Strict {
		settings.Strict = true
	}
	if flags.Verbose {
		settings.Verbose = true
	}
	if flags.Timeout != "" {
		d, err := time.ParseDuration(flags.Timeout)
		if err != nil {
			return fmt.Errorf("parse --timeout: %w", err)
		}
		settings.Timeout = d
	}
	if flags.Retries >= 0 {
		settings.Retries = flags.Retries
	}
	if flags.MaxStale != "" {
		d, err := time.ParseDuration(flags.MaxStale)
		if err != nil {
			return fmt.Errorf("parse --max-stale: %w", err)
		}
		settings.MaxStale = d
	}
	if flags.NoStale {
		settings.NoStale = true
	}
	if flags.NoCache {
		settings.CacheEnabled = false
	}

	if settings.OutputMode != "json" && settings.OutputMode != "plain" {
		return fmt.Errorf("output must be json or plain")
	}

	return nil
}
