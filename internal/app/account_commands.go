package app

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	clierr "github.com/polkaguardian/guardian-cli/internal/errors"
	"github.com/polkaguardian/guardian-cli/internal/flatten"
	"github.com/polkaguardian/guardian-cli/internal/model"
	"github.com/polkaguardian/guardian-cli/internal/registry"
	"github.com/polkaguardian/guardian-cli/internal/snapshot"
	"github.com/polkaguardian/guardian-cli/internal/subscan"
)

const (
	overviewTTL   = time.Minute
	collectionTTL = 5 * time.Minute
)

// resolveTarget validates the --chain/--address pair every account command
// takes.
func (s *runtimeState) resolveTarget(chainArg, addressArg string) (registry.Chain, string, error) {
	chain, err := registry.Parse(chainArg)
	if err != nil {
		return registry.Chain{}, "", err
	}
	key, err := registry.NormalizeSearchKey(chain, addressArg)
	if err != nil {
		return registry.Chain{}, "", err
	}
	return chain, key, nil
}

// explorerFor returns a client honoring a per-command page cap override.
func (s *runtimeState) explorerFor(maxPages int) *subscan.Client {
	if maxPages <= 0 || maxPages == s.settings.MaxPages {
		return s.explorer
	}
	return subscan.New(s.http, s.settings.SubscanAPIKey, s.logger, subscan.Options{
		PageDelay: s.settings.PageDelay,
		MaxPages:  maxPages,
	})
}

// assembleSnapshot runs the assembler without the command-level timeout: a
// busy account pages through hundreds of requests and each carries its own
// transport deadline already.
func (s *runtimeState) assembleSnapshot(chain registry.Chain, address string, refresh bool) (*snapshot.Result, error) {
	return s.assembler.Assemble(context.Background(), chain, address, refresh)
}

func (s *runtimeState) newAccountCommand() *cobra.Command {
	root := &cobra.Command{Use: "account", Short: "Account analytics"}

	var snapChain, snapAddress string
	var snapRefresh bool
	snapshotCmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Full account snapshot: balances, activity, staking and votes",
		RunE: func(cmd *cobra.Command, args []string) error {
			s.resetCommandDiagnostics()
			chain, address, err := s.resolveTarget(snapChain, snapAddress)
			if err != nil {
				return err
			}
			res, err := s.assembleSnapshot(chain, address, snapRefresh)
			if err != nil {
				return err
			}
			snap := res.Snapshot
			partial := len(snap.Warnings) > 0
			sources := []model.SourceStatus{{Name: "subscan", Status: "ok"}}
			s.captureCommandDiagnostics(snap.Warnings, sources, partial)
			if partial && s.settings.Strict {
				return clierr.New(clierr.CodePartialStrict, "partial results returned in strict mode")
			}
			cacheStatus := model.CacheStatus{Status: "write"}
			if res.Cached {
				cacheStatus = model.CacheStatus{Status: "hit", AgeMS: res.Age.Milliseconds()}
			} else if s.cache == nil {
				cacheStatus = cacheMetaBypass()
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), snap, snap.Warnings, cacheStatus, sources, partial)
		},
	}
	snapshotCmd.Flags().StringVar(&snapChain, "chain", "polkadot", "Chain key or name")
	snapshotCmd.Flags().StringVar(&snapAddress, "address", "", "Account address or identity")
	snapshotCmd.Flags().BoolVar(&snapRefresh, "refresh", false, "Invalidate the cached snapshot and refetch")
	_ = snapshotCmd.MarkFlagRequired("address")

	var ovChain, ovAddress string
	overviewCmd := &cobra.Command{
		Use:   "overview",
		Short: "Balance overview in tokens and USD",
		RunE: func(cmd *cobra.Command, args []string) error {
			chain, address, err := s.resolveTarget(ovChain, ovAddress)
			if err != nil {
				return err
			}
			key := cacheKey(trimRootPath(cmd.CommandPath()), map[string]any{"chain": chain.Key, "address": address})
			return s.runCachedCommand(trimRootPath(cmd.CommandPath()), key, overviewTTL, func(ctx context.Context) (any, []model.SourceStatus, []string, bool, error) {
				start := time.Now()
				search, err := s.explorer.Search(ctx, chain, address)
				sources := []model.SourceStatus{{Name: "subscan/search", Status: statusFromErr(err), LatencyMS: time.Since(start).Milliseconds()}}
				if err != nil {
					return nil, sources, nil, false, err
				}

				start = time.Now()
				meta := s.explorer.TokenMetadata(ctx, chain)
				sources = append(sources, model.SourceStatus{Name: "subscan/token", Status: "ok", LatencyMS: time.Since(start).Milliseconds()})

				var warnings []string
				partial := false
				if meta.Symbol == "N/A" {
					warnings = append(warnings, "token metadata unavailable, monetary figures use fallback decimals and zero price")
					partial = true
				}
				return subscan.Overview(search.Account, meta), sources, warnings, partial, nil
			})
		},
	}
	overviewCmd.Flags().StringVar(&ovChain, "chain", "polkadot", "Chain key or name")
	overviewCmd.Flags().StringVar(&ovAddress, "address", "", "Account address or identity")
	_ = overviewCmd.MarkFlagRequired("address")

	root.AddCommand(snapshotCmd)
	root.AddCommand(overviewCmd)
	root.AddCommand(s.newCollectionCommand("transfers", "Transfer history, newest first",
		func(ctx context.Context, c *subscan.Client, chain registry.Chain, address string) (any, error) {
			rows, cause := c.Transfers(ctx, chain, address)
			return rows, cause
		}))
	root.AddCommand(s.newCollectionCommand("extrinsics", "Successful signed extrinsics in block order",
		func(ctx context.Context, c *subscan.Client, chain registry.Chain, address string) (any, error) {
			rows, cause := c.Extrinsics(ctx, chain, address)
			return rows, cause
		}))
	root.AddCommand(s.newCollectionCommand("staking", "Staking reward and slash events",
		func(ctx context.Context, c *subscan.Client, chain registry.Chain, address string) (any, error) {
			rows, cause := c.StakingHistory(ctx, chain, address)
			return rows, cause
		}))
	root.AddCommand(s.newCollectionCommand("votes", "OpenGov referenda voting record",
		func(ctx context.Context, c *subscan.Client, chain registry.Chain, address string) (any, error) {
			rows, cause := c.ReferendaVotes(ctx, chain, address)
			return rows, cause
		}))
	root.AddCommand(s.newAccountRawCommand())
	return root
}

// collectionFetch returns the rows plus the truncation cause (never a hard
// failure; see the fetchers).
type collectionFetch func(ctx context.Context, c *subscan.Client, chain registry.Chain, address string) (any, error)

func (s *runtimeState) newCollectionCommand(name, short string, fetch collectionFetch) *cobra.Command {
	var chainArg, addressArg string
	var maxPages int
	cmd := &cobra.Command{
		Use:   name,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			chain, address, err := s.resolveTarget(chainArg, addressArg)
			if err != nil {
				return err
			}
			key := cacheKey(trimRootPath(cmd.CommandPath()), map[string]any{
				"chain":     chain.Key,
				"address":   address,
				"max_pages": maxPages,
			})
			return s.runCachedCommand(trimRootPath(cmd.CommandPath()), key, collectionTTL, func(ctx context.Context) (any, []model.SourceStatus, []string, bool, error) {
				start := time.Now()
				rows, cause := fetch(ctx, s.explorerFor(maxPages), chain, address)
				sources := []model.SourceStatus{{Name: "subscan/" + name, Status: statusFromErr(cause), LatencyMS: time.Since(start).Milliseconds()}}
				var warnings []string
				partial := false
				if cause != nil {
					warnings = append(warnings, name+" truncated: "+cause.Error())
					partial = true
				}
				return rows, sources, warnings, partial, nil
			})
		},
	}
	cmd.Flags().StringVar(&chainArg, "chain", "polkadot", "Chain key or name")
	cmd.Flags().StringVar(&addressArg, "address", "", "Account address")
	cmd.Flags().IntVar(&maxPages, "max-pages", 0, "Cap pagination (0 = unbounded)")
	_ = cmd.MarkFlagRequired("address")
	return cmd
}

func (s *runtimeState) newAccountRawCommand() *cobra.Command {
	var chainArg, addressArg string
	var refresh bool
	cmd := &cobra.Command{
		Use:   "raw",
		Short: "Flattened dotted-path view of the raw account record",
		RunE: func(cmd *cobra.Command, args []string) error {
			s.resetCommandDiagnostics()
			chain, address, err := s.resolveTarget(chainArg, addressArg)
			if err != nil {
				return err
			}
			res, err := s.assembleSnapshot(chain, address, refresh)
			if err != nil {
				return err
			}
			pairs := flatten.Flatten(res.Snapshot.AccountData)
			cacheStatus := model.CacheStatus{Status: "write"}
			if res.Cached {
				cacheStatus = model.CacheStatus{Status: "hit", AgeMS: res.Age.Milliseconds()}
			} else if s.cache == nil {
				cacheStatus = cacheMetaBypass()
			}
			sources := []model.SourceStatus{{Name: "subscan", Status: "ok"}}
			s.captureCommandDiagnostics(res.Snapshot.Warnings, sources, false)
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), pairs, res.Snapshot.Warnings, cacheStatus, sources, false)
		},
	}
	cmd.Flags().StringVar(&chainArg, "chain", "polkadot", "Chain key or name")
	cmd.Flags().StringVar(&addressArg, "address", "", "Account address or identity")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Invalidate the cached snapshot and refetch")
	_ = cmd.MarkFlagRequired("address")
	return cmd
}
