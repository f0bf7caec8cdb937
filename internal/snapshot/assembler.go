// Package snapshot assembles the full per-account view: the resolved account
// record plus every activity collection, fetched in parallel and memoized in
// the shared TTL cache keyed by (chain, address).
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/polkaguardian/guardian-cli/internal/cache"
	clierr "github.com/polkaguardian/guardian-cli/internal/errors"
	"github.com/polkaguardian/guardian-cli/internal/model"
	"github.com/polkaguardian/guardian-cli/internal/registry"
	"github.com/polkaguardian/guardian-cli/internal/subscan"
)

// Fetcher is the slice of the explorer client the assembler needs. Only
// Search may fail; the collection fetchers return partial rows with a
// truncation cause, and token metadata degrades internally.
type Fetcher interface {
	TokenMetadata(ctx context.Context, chain registry.Chain) model.TokenMetadata
	Search(ctx context.Context, chain registry.Chain, key string) (*subscan.SearchResult, error)
	Transfers(ctx context.Context, chain registry.Chain, address string) ([]model.Transfer, error)
	Extrinsics(ctx context.Context, chain registry.Chain, address string) ([]model.Extrinsic, error)
	StakingHistory(ctx context.Context, chain registry.Chain, address string) ([]model.StakingEvent, error)
	ReferendaVotes(ctx context.Context, chain registry.Chain, address string) ([]model.GovernanceVote, error)
}

type Assembler struct {
	fetcher Fetcher
	store   *cache.Store
	ttl     time.Duration
	logger  *zap.Logger
	group   singleflight.Group
}

func New(fetcher Fetcher, store *cache.Store, ttl time.Duration, logger *zap.Logger) *Assembler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assembler{fetcher: fetcher, store: store, ttl: ttl, logger: logger}
}

// Result pairs a snapshot with where it came from, for envelope metadata.
type Result struct {
	Snapshot *model.AccountSnapshot
	Cached   bool
	Age      time.Duration
}

func Key(chain registry.Chain, address string) string {
	return "snapshot|" + chain.Key + "|" + address
}

// Assemble returns the account snapshot for (chain, key), serving a fresh
// cached copy when one exists. Concurrent callers for the same key share a
// single fetch. A failed assembly is never cached, so the next call retries.
func (a *Assembler) Assemble(ctx context.Context, chain registry.Chain, key string, refresh bool) (*Result, error) {
	cacheKey := Key(chain, key)

	if refresh && a.store != nil {
		if err := a.store.Invalidate(cacheKey); err != nil {
			a.logger.Warn("cache invalidation failed", zap.String("key", cacheKey), zap.Error(err))
		}
	}

	if !refresh && a.store != nil {
		res, err := a.store.Get(cacheKey, 0)
		if err != nil {
			a.logger.Warn("cache read failed", zap.String("key", cacheKey), zap.Error(err))
		} else if res.Hit && !res.Stale {
			var snap model.AccountSnapshot
			if err := json.Unmarshal(res.Value, &snap); err == nil {
				return &Result{Snapshot: &snap, Cached: true, Age: res.Age}, nil
			}
			a.logger.Warn("discarding corrupt cache entry", zap.String("key", cacheKey))
		}
	}

	v, err, shared := a.group.Do(cacheKey, func() (any, error) {
		return a.assemble(ctx, chain, key, cacheKey)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		a.logger.Debug("snapshot fetch deduplicated", zap.String("key", cacheKey))
	}
	return &Result{Snapshot: v.(*model.AccountSnapshot)}, nil
}

func (a *Assembler) assemble(ctx context.Context, chain registry.Chain, key, cacheKey string) (*model.AccountSnapshot, error) {
	// The account lookup gates everything else: without it there is no
	// canonical address to page collections for, and its failure is the
	// one hard error this path produces.
	search, err := a.fetcher.Search(ctx, chain, key)
	if err != nil {
		return nil, err
	}
	address := search.Account.Address
	if address == "" {
		// Identity searches can resolve without echoing an address.
		address = key
	}

	snap := &model.AccountSnapshot{
		Chain:       chain.Key,
		AccountData: search.Raw,
		Account:     search.Account,
	}

	var (
		transfersCause, extrinsicsCause error
		stakingCause, votesCause        error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		snap.TokenMetadata = a.fetcher.TokenMetadata(gctx, chain)
		return nil
	})
	g.Go(func() error {
		snap.Transfers, transfersCause = a.fetcher.Transfers(gctx, chain, address)
		return nil
	})
	g.Go(func() error {
		snap.Extrinsics, extrinsicsCause = a.fetcher.Extrinsics(gctx, chain, address)
		return nil
	})
	g.Go(func() error {
		snap.StakingHistory, stakingCause = a.fetcher.StakingHistory(gctx, chain, address)
		return nil
	})
	g.Go(func() error {
		snap.ReferendaVotes, votesCause = a.fetcher.ReferendaVotes(gctx, chain, address)
		return nil
	})
	// Goroutines above never return errors; degraded fetches surface as
	// warnings so one flaky endpoint cannot sink the whole snapshot.
	_ = g.Wait()

	snap.Warnings = collectWarnings(snap, transfersCause, extrinsicsCause, stakingCause, votesCause)
	snap.LastUpdated = time.Now().UTC()

	if a.store != nil {
		buf, err := json.Marshal(snap)
		if err != nil {
			return nil, clierr.Wrap(clierr.CodeInternal, "encode snapshot for cache", err)
		}
		if err := a.store.Set(cacheKey, buf, a.ttl); err != nil {
			a.logger.Warn("cache write failed", zap.String("key", cacheKey), zap.Error(err))
		}
	}
	return snap, nil
}

func collectWarnings(snap *model.AccountSnapshot, transfers, extrinsics, staking, votes error) []string {
	var warnings []string
	add := func(collection string, rows int, cause error) {
		if cause == nil {
			return
		}
		warnings = append(warnings, fmt.Sprintf("%s truncated after %d rows: %v", collection, rows, cause))
	}
	add("transfers", len(snap.Transfers), transfers)
	add("extrinsics", len(snap.Extrinsics), extrinsics)
	add("staking_history", len(snap.StakingHistory), staking)
	add("referenda_votes", len(snap.ReferendaVotes), votes)
	if snap.TokenMetadata.Symbol == "N/A" {
		warnings = append(warnings, "token metadata unavailable, monetary figures use fallback decimals and zero price")
	}
	return warnings
}

// Invalidate drops the cached snapshot for one (chain, address) pair.
func (a *Assembler) Invalidate(chain registry.Chain, address string) error {
	if a.store == nil {
		return nil
	}
	return a.store.Invalidate(Key(chain, address))
}
