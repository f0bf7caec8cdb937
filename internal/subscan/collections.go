package subscan

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	clierr "github.com/polkaguardian/guardian-cli/internal/errors"
	"github.com/polkaguardian/guardian-cli/internal/model"
	"github.com/polkaguardian/guardian-cli/internal/registry"
)

// collectionPage POSTs one page request and decodes the envelope's data into
// dst. A rejected envelope (code != 0) is an upstream error carrying the
// explorer's own message.
func (c *Client) collectionPage(ctx context.Context, url, collection string, payload map[string]any, dst any) error {
	var env envelope
	if err := c.call(ctx, http.MethodPost, url, payload, &env); err != nil {
		return err
	}
	if env.Code != 0 {
		return clierr.New(clierr.CodeUpstream, fmt.Sprintf("explorer rejected %s page: %s", collection, env.Message))
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, dst); err != nil {
		return clierr.Wrap(clierr.CodeUnavailable, fmt.Sprintf("decode %s page", collection), err)
	}
	return nil
}

func datetimeOf(blockTimestamp int64) time.Time {
	return time.Unix(blockTimestamp, 0).UTC()
}

type transferRow struct {
	From           string `json:"from"`
	To             string `json:"to"`
	Amount         string `json:"amount"`
	AssetSymbol    string `json:"asset_symbol"`
	Module         string `json:"module"`
	Hash           string `json:"hash"`
	Success        bool   `json:"success"`
	BlockNum       int64  `json:"block_num"`
	BlockTimestamp int64  `json:"block_timestamp"`
}

// Transfers fetches the full transfer history in both directions, newest
// first. The error return is a truncation cause (see paginate); the rows are
// always usable.
func (c *Client) Transfers(ctx context.Context, chain registry.Chain, address string) ([]model.Transfer, error) {
	url := c.base(chain) + "/api/v2/scan/transfers"
	raw, cause := paginate(ctx, c, "transfers", transfersPageSize, func(ctx context.Context, page int) ([]transferRow, error) {
		var data struct {
			Transfers []transferRow `json:"transfers"`
		}
		payload := map[string]any{
			"address":   address,
			"direction": "all",
			"page":      page,
			"row":       transfersPageSize,
		}
		if err := c.collectionPage(ctx, url, "transfers", payload, &data); err != nil {
			return nil, err
		}
		return data.Transfers, nil
	})

	out := make([]model.Transfer, 0, len(raw))
	for _, r := range raw {
		out = append(out, model.Transfer{
			From:           r.From,
			To:             r.To,
			Amount:         r.Amount,
			AssetSymbol:    r.AssetSymbol,
			Module:         r.Module,
			Hash:           r.Hash,
			Success:        r.Success,
			BlockNum:       r.BlockNum,
			BlockTimestamp: r.BlockTimestamp,
			Datetime:       datetimeOf(r.BlockTimestamp),
		})
	}
	// The explorer pages newest-first but ordering inside a page is not
	// guaranteed; re-sort so the contract holds even on partial results.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Datetime.After(out[j].Datetime)
	})
	return out, cause
}

type extrinsicRow struct {
	BlockNum           int64  `json:"block_num"`
	ExtrinsicIndex     string `json:"extrinsic_index"`
	CallModule         string `json:"call_module"`
	CallModuleFunction string `json:"call_module_function"`
	Nonce              int64  `json:"nonce"`
	Success            bool   `json:"success"`
	Fee                string `json:"fee"`
	Tip                string `json:"tip"`
	ExtrinsicHash      string `json:"extrinsic_hash"`
	BlockTimestamp     int64  `json:"block_timestamp"`
}

// Extrinsics fetches the successful signed extrinsics of an address in
// ascending block order. Each page request gets its own deadline because the
// extrinsics endpoint stalls far more often than the rest of the API.
func (c *Client) Extrinsics(ctx context.Context, chain registry.Chain, address string) ([]model.Extrinsic, error) {
	url := c.base(chain) + "/api/v2/scan/extrinsics"
	raw, cause := paginate(ctx, c, "extrinsics", extrinsicsPageSize, func(ctx context.Context, page int) ([]extrinsicRow, error) {
		reqCtx, cancel := context.WithTimeout(ctx, extrinsicsRequestTimeout)
		defer cancel()

		var data struct {
			Extrinsics []extrinsicRow `json:"extrinsics"`
		}
		payload := map[string]any{
			"address": address,
			"order":   "asc",
			"page":    page,
			"row":     extrinsicsPageSize,
			"success": true,
		}
		if err := c.collectionPage(reqCtx, url, "extrinsics", payload, &data); err != nil {
			return nil, err
		}
		return data.Extrinsics, nil
	})

	out := make([]model.Extrinsic, 0, len(raw))
	for _, r := range raw {
		out = append(out, model.Extrinsic{
			BlockNum:           r.BlockNum,
			ExtrinsicIndex:     r.ExtrinsicIndex,
			CallModule:         r.CallModule,
			CallModuleFunction: r.CallModuleFunction,
			Nonce:              r.Nonce,
			Success:            r.Success,
			Fee:                r.Fee,
			Tip:                r.Tip,
			ExtrinsicHash:      r.ExtrinsicHash,
			BlockTimestamp:     r.BlockTimestamp,
			Datetime:           datetimeOf(r.BlockTimestamp),
		})
	}
	return out, cause
}

type stakingRow struct {
	BlockNum       int64     `json:"block_num"`
	EventID        string    `json:"event_id"`
	ModuleID       string    `json:"module_id"`
	ExtrinsicIndex string    `json:"extrinsic_index"`
	Amount         flexFloat `json:"amount"`
	BlockTimestamp int64     `json:"block_timestamp"`
}

// StakingHistory fetches reward and slash events for an address.
func (c *Client) StakingHistory(ctx context.Context, chain registry.Chain, address string) ([]model.StakingEvent, error) {
	url := c.base(chain) + "/api/scan/staking_history"
	raw, cause := paginate(ctx, c, "staking_history", eventsPageSize, func(ctx context.Context, page int) ([]stakingRow, error) {
		var data struct {
			List []stakingRow `json:"list"`
		}
		payload := map[string]any{
			"address": address,
			"page":    page,
			"row":     eventsPageSize,
		}
		if err := c.collectionPage(ctx, url, "staking_history", payload, &data); err != nil {
			return nil, err
		}
		return data.List, nil
	})

	out := make([]model.StakingEvent, 0, len(raw))
	for _, r := range raw {
		out = append(out, model.StakingEvent{
			BlockNum:       r.BlockNum,
			EventID:        r.EventID,
			ModuleID:       r.ModuleID,
			ExtrinsicIndex: r.ExtrinsicIndex,
			Amount:         formatAmount(float64(r.Amount)),
			BlockTimestamp: r.BlockTimestamp,
			Datetime:       datetimeOf(r.BlockTimestamp),
		})
	}
	return out, cause
}

type voteRow struct {
	ReferendumIndex int64  `json:"referendum_index"`
	Status          string `json:"status"`
	Amount          string `json:"amount"`
	Conviction      string `json:"conviction"`
	VotingTime      int64  `json:"voting_time"`
	BlockTimestamp  int64  `json:"block_timestamp"`
}

// ReferendaVotes fetches the OpenGov voting record of an address.
func (c *Client) ReferendaVotes(ctx context.Context, chain registry.Chain, address string) ([]model.GovernanceVote, error) {
	url := c.base(chain) + "/api/scan/gov/votes"
	raw, cause := paginate(ctx, c, "referenda_votes", eventsPageSize, func(ctx context.Context, page int) ([]voteRow, error) {
		var data struct {
			List []voteRow `json:"list"`
		}
		payload := map[string]any{
			"address": address,
			"page":    page,
			"row":     eventsPageSize,
		}
		if err := c.collectionPage(ctx, url, "referenda_votes", payload, &data); err != nil {
			return nil, err
		}
		return data.List, nil
	})

	out := make([]model.GovernanceVote, 0, len(raw))
	for _, r := range raw {
		ts := r.BlockTimestamp
		if ts == 0 {
			ts = r.VotingTime
		}
		out = append(out, model.GovernanceVote{
			ReferendumIndex: r.ReferendumIndex,
			Status:          r.Status,
			Amount:          r.Amount,
			Conviction:      r.Conviction,
			BlockTimestamp:  ts,
			Datetime:        datetimeOf(ts),
		})
	}
	return out, cause
}
