package app

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/polkaguardian/guardian-cli/internal/cache"
	"github.com/polkaguardian/guardian-cli/internal/config"
	clierr "github.com/polkaguardian/guardian-cli/internal/errors"
	"github.com/polkaguardian/guardian-cli/internal/governance"
	"github.com/polkaguardian/guardian-cli/internal/httpx"
	"github.com/polkaguardian/guardian-cli/internal/llm"
	"github.com/polkaguardian/guardian-cli/internal/model"
	"github.com/polkaguardian/guardian-cli/internal/out"
	"github.com/polkaguardian/guardian-cli/internal/policy"
	"github.com/polkaguardian/guardian-cli/internal/registry"
	"github.com/polkaguardian/guardian-cli/internal/schema"
	"github.com/polkaguardian/guardian-cli/internal/snapshot"
	"github.com/polkaguardian/guardian-cli/internal/subscan"
	"github.com/polkaguardian/guardian-cli/internal/version"
)

type Runner struct {
	stdout io.Writer
	stderr io.Writer
	now    func() time.Time
}

func NewRunner() *Runner {
	return NewRunnerWithWriters(os.Stdout, os.Stderr)
}

func NewRunnerWithWriters(stdout, stderr io.Writer) *Runner {
	return &Runner{
		stdout: stdout,
		stderr: stderr,
		now:    time.Now,
	}
}

type runtimeState struct {
	runner       *Runner
	flags        config.GlobalFlags
	settings     config.Settings
	cache        *cache.Store
	root         *cobra.Command
	logger       *zap.Logger
	lastCommand  string
	lastWarnings []string
	lastSources  []model.SourceStatus
	lastPartial  bool

	http      *httpx.Client
	explorer  *subscan.Client
	assembler *snapshot.Assembler
	chat      *llm.Client
	gov       *governance.Store
}

func (r *Runner) Run(args []string) int {
	state := &runtimeState{runner: r}
	root := state.newRootCommand()
	state.root = root
	state.resetCommandDiagnostics()
	root.SetArgs(args)
	root.SetOut(r.stdout)
	root.SetErr(r.stderr)
	root.SilenceUsage = true
	root.SilenceErrors = true

	err := root.Execute()
	err = normalizeRunError(err)
	if err == nil {
		if state.cache != nil {
			_ = state.cache.Close()
		}
		return 0
	}

	state.renderError("", err, state.lastWarnings, state.lastSources, state.lastPartial)
	if state.cache != nil {
		_ = state.cache.Close()
	}
	return clierr.ExitCode(err)
}

func (s *runtimeState) newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   version.CLIName,
		Short: "Polkadot ecosystem account analytics CLI",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" {
				return nil
			}
			settings, err := config.Load(s.flags)
			if err != nil {
				return clierr.Wrap(clierr.CodeUsage, "load configuration", err)
			}
			s.settings = settings

			path := trimRootPath(cmd.CommandPath())
			s.lastCommand = path
			if err := policy.CheckCommandAllowed(settings.EnableCommands, path); err != nil {
				return err
			}

			if s.logger == nil {
				s.logger = zap.NewNop()
				if settings.Verbose {
					if lg, lerr := zap.NewDevelopment(); lerr == nil {
						s.logger = lg
					}
				}
			}

			if settings.CacheEnabled && shouldOpenCache(path) && s.cache == nil {
				cacheStore, err := cache.Open(settings.CachePath, settings.CacheLockPath)
				if err != nil {
					return clierr.Wrap(clierr.CodeInternal, "open cache", err)
				}
				s.cache = cacheStore
			}

			if s.explorer == nil {
				s.http = httpx.New(settings.Timeout, settings.Retries)
				s.explorer = subscan.New(s.http, settings.SubscanAPIKey, s.logger, subscan.Options{
					PageDelay: settings.PageDelay,
					MaxPages:  settings.MaxPages,
				})
				s.assembler = snapshot.New(s.explorer, s.cache, settings.SnapshotTTL, s.logger)
				s.chat = llm.New(s.http, settings.OpenAIAPIKey, settings.OpenAIBaseURL, settings.OpenAIModel, s.logger)
			}
			return nil
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return clierr.Wrap(clierr.CodeUsage, "parse flags", err)
	})

	cmd.PersistentFlags().BoolVar(&s.flags.JSON, "json", false, "Output JSON (default)")
	cmd.PersistentFlags().BoolVar(&s.flags.Plain, "plain", false, "Output plain text")
	cmd.PersistentFlags().StringVar(&s.flags.Select, "select", "", "Select fields from data (comma-separated)")
	cmd.PersistentFlags().BoolVar(&s.flags.ResultsOnly, "results-only", false, "Output only data payload")
	cmd.PersistentFlags().StringVar(&s.flags.EnableCommands, "enable-commands", "", "Allowlist command paths (comma-separated)")
	cmd.PersistentFlags().BoolVar(&s.flags.Strict, "strict", false, "Fail on partial results")
	cmd.PersistentFlags().BoolVar(&s.flags.Verbose, "verbose", false, "Log explorer traffic and degradations to stderr")
	cmd.PersistentFlags().StringVar(&s.flags.Timeout, "timeout", "", "Explorer request timeout")
	cmd.PersistentFlags().IntVar(&s.flags.Retries, "retries", -1, "Retries per explorer request")
	cmd.PersistentFlags().StringVar(&s.flags.MaxStale, "max-stale", "", "Maximum stale fallback window after TTL expiry")
	cmd.PersistentFlags().BoolVar(&s.flags.NoStale, "no-stale", false, "Reject stale cache entries")
	cmd.PersistentFlags().BoolVar(&s.flags.NoCache, "no-cache", false, "Disable cache reads and writes")
	cmd.PersistentFlags().StringVar(&s.flags.ConfigPath, "config", "", "Path to config file")

	cmd.AddCommand(s.newSchemaCommand())
	cmd.AddCommand(s.newChainsCommand())
	cmd.AddCommand(s.newAccountCommand())
	cmd.AddCommand(s.newChatCommand())
	cmd.AddCommand(s.newGovCommand())
	cmd.AddCommand(newVersionCommand())

	return cmd
}

func newVersionCommand() *cobra.Command {
	var long bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print CLI version",
		Run: func(cmd *cobra.Command, args []string) {
			if long {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), version.Long())
				return
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), version.CLIVersion)
		},
	}
	cmd.Flags().BoolVar(&long, "long", false, "Print extended build metadata")
	return cmd
}

func (s *runtimeState) newSchemaCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema [command path]",
		Short: "Print machine-readable command schema",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) > 0 {
				path = strings.Join(args, " ")
			}
			data, err := schema.Build(s.root, path)
			if err != nil {
				return clierr.Wrap(clierr.CodeUsage, "build schema", err)
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), data, nil, cacheMetaBypass(), nil, false)
		},
	}
	return cmd
}

func (s *runtimeState) newChainsCommand() *cobra.Command {
	root := &cobra.Command{Use: "chains", Short: "Supported networks"}
	list := &cobra.Command{
		Use:   "list",
		Short: "List supported chains and their explorer endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), registry.List(), nil, cacheMetaBypass(), nil, false)
		},
	}
	root.AddCommand(list)
	return root
}

// governanceStore lazily loads the CSV datasets; only governance commands
// need them.
func (s *runtimeState) governanceStore() (*governance.Store, error) {
	if s.gov != nil {
		return s.gov, nil
	}
	if s.settings.VotersCSVPath == "" && s.settings.ProposalsCSVPath == "" {
		return nil, clierr.New(clierr.CodeUsage, "governance datasets are not configured (set governance.voters_csv / governance.proposals_csv)")
	}
	store, err := governance.Load(s.settings.VotersCSVPath, s.settings.ProposalsCSVPath, s.logger)
	if err != nil {
		return nil, err
	}
	s.gov = store
	return store, nil
}

type fetchFn func(ctx context.Context) (data any, sources []model.SourceStatus, warnings []string, partial bool, err error)

func (s *runtimeState) runCachedCommand(commandPath, key string, ttl time.Duration, fetch fetchFn) error {
	s.resetCommandDiagnostics()
	cacheStatus := cacheMetaMiss()
	warnings := []string{}
	var staleData any
	staleAvailable := false
	staleObservedAge := time.Duration(0)
	staleObservedAt := time.Time{}
	staleCacheStatus := cacheMetaMiss()

	if s.settings.CacheEnabled && s.cache != nil {
		cached, err := s.cache.Get(key, s.settings.MaxStale)
		if err == nil && cached.Hit {
			entryStatus := model.CacheStatus{Status: "hit", AgeMS: cached.Age.Milliseconds(), Stale: cached.Stale}
			if !cached.Stale {
				var data any
				if err := json.Unmarshal(cached.Value, &data); err == nil {
					s.captureCommandDiagnostics(warnings, nil, false)
					return s.emitSuccess(commandPath, data, warnings, entryStatus, nil, false)
				}
			} else {
				var data any
				if err := json.Unmarshal(cached.Value, &data); err == nil {
					staleData = data
					staleAvailable = true
					staleObservedAge = cached.Age
					staleObservedAt = time.Now()
					staleCacheStatus = entryStatus
				}
			}
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.settings.Timeout)
	defer cancel()
	data, sources, fetchWarnings, partial, err := fetch(ctx)
	warnings = append(warnings, fetchWarnings...)
	s.captureCommandDiagnostics(warnings, sources, partial)
	if err != nil {
		if staleAvailable {
			if !staleFallbackAllowed(err) {
				return err
			}
			currentStaleAge := staleObservedAge
			if !staleObservedAt.IsZero() {
				currentStaleAge += time.Since(staleObservedAt)
			}
			staleCacheStatus.AgeMS = currentStaleAge.Milliseconds()
			if s.settings.NoStale {
				return clierr.Wrap(clierr.CodeStale, "fresh explorer fetch failed and stale fallback is disabled (--no-stale)", err)
			}
			if staleExceedsBudget(currentStaleAge, ttl, s.settings.MaxStale) {
				return clierr.Wrap(clierr.CodeStale, "fresh explorer fetch failed and cached data exceeded stale budget", err)
			}
			warnings = append(warnings, "explorer fetch failed; serving stale data within max-stale budget")
			s.captureCommandDiagnostics(warnings, sources, false)
			return s.emitSuccess(commandPath, staleData, warnings, staleCacheStatus, sources, false)
		}
		return err
	}

	if partial && s.settings.Strict {
		s.captureCommandDiagnostics(warnings, sources, true)
		return clierr.New(clierr.CodePartialStrict, "partial results returned in strict mode")
	}

	if s.settings.CacheEnabled && s.cache != nil {
		if payload, err := json.Marshal(data); err == nil {
			_ = s.cache.Set(key, payload, ttl)
			cacheStatus = model.CacheStatus{Status: "write", AgeMS: 0, Stale: false}
		}
	}

	s.captureCommandDiagnostics(warnings, sources, partial)
	return s.emitSuccess(commandPath, data, warnings, cacheStatus, sources, partial)
}

func (s *runtimeState) emitSuccess(commandPath string, data any, warnings []string, cacheStatus model.CacheStatus, sources []model.SourceStatus, partial bool) error {
	env := model.Envelope{
		Version:  model.EnvelopeVersion,
		Success:  true,
		Data:     data,
		Error:    nil,
		Warnings: warnings,
		Meta: model.EnvelopeMeta{
			RequestID: newRequestID(),
			Timestamp: s.runner.now().UTC(),
			Command:   commandPath,
			Sources:   sources,
			Cache:     cacheStatus,
			Partial:   partial,
		},
	}
	return out.Render(s.runner.stdout, env, s.settings)
}

func (s *runtimeState) renderError(commandPath string, err error, warnings []string, sources []model.SourceStatus, partial bool) {
	if strings.TrimSpace(commandPath) == "" {
		commandPath = s.lastCommand
		if commandPath == "" {
			commandPath = version.CLIName
		}
	}
	code := clierr.ExitCode(err)
	typ := "internal_error"
	message := err.Error()
	if cErr, ok := clierr.As(err); ok {
		message = cErr.Message
		if cErr.Cause != nil {
			message = fmt.Sprintf("%s: %v", cErr.Message, cErr.Cause)
		}
		switch cErr.Code {
		case clierr.CodeUsage:
			typ = "usage_error"
		case clierr.CodeAuth:
			typ = "auth_error"
		case clierr.CodeRateLimited:
			typ = "rate_limited"
		case clierr.CodeUnavailable:
			typ = "explorer_unavailable"
		case clierr.CodeUnsupported:
			typ = "unsupported"
		case clierr.CodeStale:
			typ = "stale_data"
		case clierr.CodePartialStrict:
			typ = "partial_results"
		case clierr.CodeBlocked:
			typ = "command_blocked"
		case clierr.CodeUpstream:
			typ = "upstream_rejected"
		}
	}

	settings := s.settings
	if settings.OutputMode == "" {
		settings.OutputMode = "json"
	}
	settings.ResultsOnly = false
	settings.SelectFields = nil
	env := model.Envelope{
		Version: model.EnvelopeVersion,
		Success: false,
		Data:    []any{},
		Error: &model.ErrorBody{
			Code:    code,
			Type:    typ,
			Message: message,
		},
		Warnings: warnings,
		Meta: model.EnvelopeMeta{
			RequestID: newRequestID(),
			Timestamp: s.runner.now().UTC(),
			Command:   commandPath,
			Sources:   sources,
			Cache:     cacheMetaBypass(),
			Partial:   partial,
		},
	}
	_ = out.Render(s.runner.stderr, env, settings)
}

func cacheKey(commandPath string, req any) string {
	buf, _ := json.Marshal(req)
	sum := sha256.Sum256(append([]byte(commandPath+"|"), buf...))
	return hex.EncodeToString(sum[:])
}

func newRequestID() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func trimRootPath(path string) string {
	parts := strings.Fields(path)
	if len(parts) <= 1 {
		return path
	}
	return strings.Join(parts[1:], " ")
}

func statusFromErr(err error) string {
	if err == nil {
		return "ok"
	}
	if cErr, ok := clierr.As(err); ok {
		switch cErr.Code {
		case clierr.CodeAuth:
			return "auth_error"
		case clierr.CodeRateLimited:
			return "rate_limited"
		case clierr.CodeUnavailable:
			return "unavailable"
		case clierr.CodeUpstream:
			return "upstream_rejected"
		default:
			return "error"
		}
	}
	return "error"
}

func cacheMetaBypass() model.CacheStatus {
	return model.CacheStatus{Status: "bypass", AgeMS: 0, Stale: false}
}

func cacheMetaMiss() model.CacheStatus {
	return model.CacheStatus{Status: "miss", AgeMS: 0, Stale: false}
}

func normalizeRunError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := clierr.As(err); ok {
		return err
	}
	if isLikelyUsageError(err) {
		return clierr.Wrap(clierr.CodeUsage, "invalid command input", err)
	}
	return clierr.Wrap(clierr.CodeInternal, "execute command", err)
}

func isLikelyUsageError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	patterns := []string{
		"unknown command",
		"unknown flag",
		"required flag(s)",
		"flag needs an argument",
		"requires at least",
		"requires exactly",
		"accepts ",
		"invalid argument",
		"invalid args",
	}
	for _, p := range patterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

func staleExceedsBudget(age, ttl, maxStale time.Duration) bool {
	if age <= ttl {
		return false
	}
	if maxStale < 0 {
		return false
	}
	return age > ttl+maxStale
}

func staleFallbackAllowed(err error) bool {
	return clierr.Transient(err)
}

func shouldOpenCache(commandPath string) bool {
	switch normalizeCommandPath(commandPath) {
	case "", "version", "schema", "chains", "chains list":
		return false
	default:
		return true
	}
}

func normalizeCommandPath(commandPath string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(commandPath))), " ")
}

func (s *runtimeState) resetCommandDiagnostics() {
	s.lastWarnings = nil
	s.lastSources = nil
	s.lastPartial = false
}

func (s *runtimeState) captureCommandDiagnostics(warnings []string, sources []model.SourceStatus, partial bool) {
	if len(warnings) == 0 {
		s.lastWarnings = nil
	} else {
		s.lastWarnings = append([]string(nil), warnings...)
	}
	if len(sources) == 0 {
		s.lastSources = nil
	} else {
		s.lastSources = append([]model.SourceStatus(nil), sources...)
	}
	s.lastPartial = partial
}
