package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/polkaguardian/guardian-cli/internal/model"
)

// Grounding row caps keep prompts inside the model's context budget while
// still covering recent activity.
const (
	groundingTransfers = 20
	groundingVotes     = 20
	groundingProposals = 20
)

// walletGrounding is the compact snapshot digest serialized into the wallet
// prompt. Full collections would blow the context window on busy accounts.
type walletGrounding struct {
	Chain           string                 `json:"chain"`
	Account         model.Account          `json:"account"`
	Token           model.TokenMetadata    `json:"token"`
	Balances        model.BalanceOverview  `json:"balances"`
	TransferCount   int                    `json:"transfer_count"`
	ExtrinsicCount  int                    `json:"extrinsic_count"`
	StakingEvents   int                    `json:"staking_event_count"`
	VoteCount       int                    `json:"vote_count"`
	RecentTransfers []model.Transfer       `json:"recent_transfers"`
	RecentVotes     []model.GovernanceVote `json:"recent_votes"`
	Warnings        []string               `json:"warnings,omitempty"`
}

// WalletMessages builds the grounded prompt for the wallet assistant.
func WalletMessages(snap *model.AccountSnapshot, balances model.BalanceOverview, question string) ([]Message, error) {
	g := walletGrounding{
		Chain:           snap.Chain,
		Account:         snap.Account,
		Token:           snap.TokenMetadata,
		Balances:        balances,
		TransferCount:   len(snap.Transfers),
		ExtrinsicCount:  len(snap.Extrinsics),
		StakingEvents:   len(snap.StakingHistory),
		VoteCount:       len(snap.ReferendaVotes),
		RecentTransfers: head(snap.Transfers, groundingTransfers),
		RecentVotes:     head(snap.ReferendaVotes, groundingVotes),
		Warnings:        snap.Warnings,
	}
	blob, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode wallet grounding: %w", err)
	}

	system := strings.Join([]string{
		"You are a Polkadot ecosystem wallet analyst.",
		"Answer strictly from the account data provided; when the data does not cover the question, say so.",
		"Amounts in the balances section are already in display units with USD valuations.",
		"If warnings indicate a truncated collection, qualify conclusions drawn from that collection.",
	}, " ")

	user := fmt.Sprintf("Account data:\n%s\n\nQuestion: %s", blob, question)
	return []Message{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	}, nil
}

// GovernanceMessages builds the prompt for open-ended governance questions,
// grounded on the most recent referenda.
func GovernanceMessages(proposals []model.Proposal, question string) ([]Message, error) {
	blob, err := json.MarshalIndent(head(proposals, groundingProposals), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode proposal grounding: %w", err)
	}

	system := strings.Join([]string{
		"You are an OpenGov governance analyst for Polkadot and Kusama.",
		"Answer from the referenda records provided.",
		"Cite referenda by id and chain when you reference them.",
	}, " ")

	user := fmt.Sprintf("Recent referenda:\n%s\n\nQuestion: %s", blob, question)
	return []Message{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	}, nil
}

// SummaryMessages builds the single-proposal analysis prompt.
func SummaryMessages(p model.Proposal) ([]Message, error) {
	blob, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode proposal: %w", err)
	}
	system := "You are an OpenGov governance analyst. Summarize the referendum below: what it proposes, its track/origin, its status, and who proposed it. Be factual and concise."
	return []Message{
		{Role: "system", Content: system},
		{Role: "user", Content: string(blob)},
	}, nil
}

func head[T any](rows []T, n int) []T {
	if len(rows) <= n {
		return rows
	}
	return rows[:n]
}
