// Package subscan is the aggregation core: it talks to the Subscan explorer
// API and normalizes its nested JSON into the flat rows the rest of the CLI
// consumes. Every request is a JSON POST (the token listing is a GET) against
// https://{chain}.api.subscan.io with an x-api-key header, answered by an
// envelope {code, message, data} where code == 0 means success.
package subscan

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	clierr "github.com/polkaguardian/guardian-cli/internal/errors"
	"github.com/polkaguardian/guardian-cli/internal/httpx"
	"github.com/polkaguardian/guardian-cli/internal/model"
	"github.com/polkaguardian/guardian-cli/internal/registry"
)

const (
	transfersPageSize  = 100
	extrinsicsPageSize = 50
	eventsPageSize     = 100

	// The extrinsics endpoint is the slowest upstream; it alone gets a
	// fixed per-request deadline on top of the transport timeout.
	extrinsicsRequestTimeout = 15 * time.Second
)

type Options struct {
	// PageDelay is the pause between pages inside one collection fetch,
	// honoring upstream rate limits. Zero disables it (tests).
	PageDelay time.Duration
	// MaxPages caps pagination per collection; zero means unbounded.
	MaxPages int
}

type Client struct {
	http      *httpx.Client
	apiKey    string
	pageDelay time.Duration
	maxPages  int
	logger    *zap.Logger
	base      func(registry.Chain) string
}

func New(httpClient *httpx.Client, apiKey string, logger *zap.Logger, opts Options) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxPages < 0 {
		opts.MaxPages = 0
	}
	return &Client{
		http:      httpClient,
		apiKey:    apiKey,
		pageDelay: opts.PageDelay,
		maxPages:  opts.MaxPages,
		logger:    logger,
		base:      func(chain registry.Chain) string { return chain.BaseURL() },
	}
}

func (c *Client) headers() map[string]string {
	return map[string]string{"x-api-key": c.apiKey}
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) call(ctx context.Context, method, url string, payload any, out *envelope) error {
	var body []byte
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return clierr.Wrap(clierr.CodeInternal, "encode request payload", err)
		}
		body = buf
	}
	_, err := httpx.DoBodyJSON(ctx, c.http, method, url, body, c.headers(), out)
	return err
}

// flexFloat tolerates the explorer's habit of encoding numbers as either
// JSON numbers or decimal strings.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*f = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*f = flexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

type tokenEntry struct {
	Symbol        string    `json:"symbol"`
	TokenDecimals int       `json:"token_decimals"`
	Price         flexFloat `json:"price"`
	IsNative      bool      `json:"is_native"`
}

// TokenMetadata resolves the chain's native token symbol, decimals and USD
// price. It prefers the entry flagged native and otherwise falls back to the
// first entry in the order the explorer returned them. Any failure at all
// (transport, rejected envelope, malformed body, empty listing) degrades to
// the fixed fallback; callers never see an error from this path.
func (c *Client) TokenMetadata(ctx context.Context, chain registry.Chain) model.TokenMetadata {
	url := c.base(chain) + "/api/scan/token"
	var env envelope
	if err := c.call(ctx, http.MethodGet, url, nil, &env); err != nil {
		c.logger.Warn("token metadata fetch failed", zap.String("chain", chain.Key), zap.Error(err))
		return model.FallbackTokenMetadata()
	}
	if env.Code != 0 {
		c.logger.Warn("token metadata rejected", zap.String("chain", chain.Key), zap.String("message", env.Message))
		return model.FallbackTokenMetadata()
	}

	var data struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil || len(data.Detail) == 0 {
		c.logger.Warn("token metadata malformed", zap.String("chain", chain.Key), zap.Error(err))
		return model.FallbackTokenMetadata()
	}

	entries, err := parseTokenEntries(data.Detail)
	if err != nil || len(entries) == 0 {
		c.logger.Warn("token listing empty or malformed", zap.String("chain", chain.Key), zap.Error(err))
		return model.FallbackTokenMetadata()
	}

	chosen := entries[0]
	for _, entry := range entries {
		if entry.IsNative {
			chosen = entry
			break
		}
	}
	return model.TokenMetadata{
		Symbol:   chosen.Symbol,
		Decimals: chosen.TokenDecimals,
		PriceUSD: float64(chosen.Price),
	}
}

// parseTokenEntries decodes the token detail object preserving document
// order, which a plain map decode would lose. The fallback rule "first entry
// as returned" depends on it.
func parseTokenEntries(detail json.RawMessage) ([]tokenEntry, error) {
	dec := json.NewDecoder(bytes.NewReader(detail))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("token detail is not an object")
	}

	var entries []tokenEntry
	for dec.More() {
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		var entry tokenEntry
		if err := dec.Decode(&entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// SearchResult carries both the typed account view and the raw nested
// document; the raw form feeds the flattener and the chat grounding.
type SearchResult struct {
	Account model.Account
	Raw     map[string]any
}

// Search resolves a free-form key (SS58 address, identity, H160 on EVM
// parachains) to a full account record. Unlike every other fetcher in this
// package it propagates failure: a rejected envelope becomes a CodeUpstream
// error carrying the explorer's message, and transport errors pass through
// unchanged. The account is the primary subject of a query, so there is no
// safe default to degrade to.
func (c *Client) Search(ctx context.Context, chain registry.Chain, key string) (*SearchResult, error) {
	url := c.base(chain) + "/api/v2/scan/search"
	var env envelope
	if err := c.call(ctx, http.MethodPost, url, map[string]any{"key": key}, &env); err != nil {
		return nil, err
	}
	if env.Code != 0 {
		return nil, clierr.New(clierr.CodeUpstream, fmt.Sprintf("explorer rejected search: %s", env.Message))
	}

	var raw map[string]any
	if err := json.Unmarshal(env.Data, &raw); err != nil {
		return nil, clierr.Wrap(clierr.CodeUnavailable, "decode search result", err)
	}

	var typed struct {
		Account model.Account `json:"account"`
	}
	if err := json.Unmarshal(env.Data, &typed); err != nil {
		return nil, clierr.Wrap(clierr.CodeUnavailable, "decode account record", err)
	}
	return &SearchResult{Account: typed.Account, Raw: raw}, nil
}
