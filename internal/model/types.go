package model

import "time"

const EnvelopeVersion = "v1"

// Envelope is the uniform command output: every invocation emits exactly one,
// on stdout for success and stderr for failure.
type Envelope struct {
	Version  string       `json:"version"`
	Success  bool         `json:"success"`
	Data     any          `json:"data,omitempty"`
	Error    *ErrorBody   `json:"error"`
	Warnings []string     `json:"warnings,omitempty"`
	Meta     EnvelopeMeta `json:"meta"`
}

type ErrorBody struct {
	Code    int    `json:"code"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

type EnvelopeMeta struct {
	RequestID string         `json:"request_id"`
	Timestamp time.Time      `json:"timestamp"`
	Command   string         `json:"command"`
	Sources   []SourceStatus `json:"sources,omitempty"`
	Cache     CacheStatus    `json:"cache"`
	Partial   bool           `json:"partial"`
}

// SourceStatus records one upstream call made while serving a command.
type SourceStatus struct {
	Name      string `json:"name"`
	Status    string `json:"status"`
	LatencyMS int64  `json:"latency_ms"`
}

type CacheStatus struct {
	Status string `json:"status"`
	AgeMS  int64  `json:"age_ms"`
	Stale  bool   `json:"stale"`
}

type ChainInfo struct {
	Name       string `json:"name"`
	Key        string `json:"key"`
	APIBase    string `json:"api_base"`
	EVMAddress bool   `json:"evm_address_format"`
}

// TokenMetadata describes a chain's native token as reported by the explorer.
// Decimals and PriceUSD drive all monetary display math.
type TokenMetadata struct {
	Symbol   string  `json:"symbol"`
	Decimals int     `json:"decimals"`
	PriceUSD float64 `json:"price_usd"`
}

// FallbackTokenMetadata is returned whenever the token endpoint cannot be
// used: transport failure, rejected envelope, or no usable token entry.
func FallbackTokenMetadata() TokenMetadata {
	return TokenMetadata{Symbol: "N/A", Decimals: 10, PriceUSD: 0.0}
}

// Account is the typed view of the explorer's search result. Monetary fields
// stay as the decimal strings the API returns; parsing happens at display
// time so unknown encodings never fail the fetch.
type Account struct {
	Address        string       `json:"address"`
	Display        string       `json:"display,omitempty"`
	Nonce          int64        `json:"nonce"`
	Role           string       `json:"role,omitempty"`
	Balance        string       `json:"balance"`
	Lock           string       `json:"lock"`
	Reserved       string       `json:"reserved"`
	Bonded         string       `json:"bonded"`
	DemocracyLock  string       `json:"democracy_lock"`
	ConvictionLock string       `json:"conviction_lock"`
	Stash          string       `json:"stash,omitempty"`
	StakingInfo    *StakingInfo `json:"staking_info,omitempty"`
}

type StakingInfo struct {
	Controller    string `json:"controller,omitempty"`
	RewardAccount string `json:"reward_account,omitempty"`
}

type Transfer struct {
	From           string    `json:"from"`
	To             string    `json:"to"`
	Amount         string    `json:"amount"`
	AssetSymbol    string    `json:"asset_symbol,omitempty"`
	Module         string    `json:"module,omitempty"`
	Hash           string    `json:"hash,omitempty"`
	Success        bool      `json:"success"`
	BlockNum       int64     `json:"block_num"`
	BlockTimestamp int64     `json:"block_timestamp"`
	Datetime       time.Time `json:"datetime"`
}

type Extrinsic struct {
	BlockNum           int64     `json:"block_num"`
	ExtrinsicIndex     string    `json:"extrinsic_index"`
	CallModule         string    `json:"call_module"`
	CallModuleFunction string    `json:"call_module_function"`
	Nonce              int64     `json:"nonce"`
	Success            bool      `json:"success"`
	Fee                string    `json:"fee,omitempty"`
	Tip                string    `json:"tip,omitempty"`
	ExtrinsicHash      string    `json:"extrinsic_hash,omitempty"`
	BlockTimestamp     int64     `json:"block_timestamp"`
	Datetime           time.Time `json:"datetime"`
}

type StakingEvent struct {
	BlockNum       int64     `json:"block_num"`
	EventID        string    `json:"event_id"`
	ModuleID       string    `json:"module_id,omitempty"`
	ExtrinsicIndex string    `json:"extrinsic_index,omitempty"`
	Amount         string    `json:"amount"`
	BlockTimestamp int64     `json:"block_timestamp"`
	Datetime       time.Time `json:"datetime"`
}

type GovernanceVote struct {
	ReferendumIndex int64     `json:"referendum_index"`
	Status          string    `json:"status,omitempty"`
	Amount          string    `json:"amount"`
	Conviction      string    `json:"conviction,omitempty"`
	BlockTimestamp  int64     `json:"block_timestamp"`
	Datetime        time.Time `json:"datetime"`
}

// AccountSnapshot is everything known about one account on one chain,
// fetched within a single logical request. Collections are always present,
// empty rather than null; Warnings carries the cause of any silently
// truncated collection so "no activity" and "fetch degraded" stay
// distinguishable.
type AccountSnapshot struct {
	Chain          string           `json:"chain"`
	AccountData    map[string]any   `json:"account_data"`
	Account        Account          `json:"account"`
	TokenMetadata  TokenMetadata    `json:"token_metadata"`
	Transfers      []Transfer       `json:"transfers"`
	Extrinsics     []Extrinsic      `json:"extrinsics"`
	StakingHistory []StakingEvent   `json:"staking_history"`
	ReferendaVotes []GovernanceVote `json:"referenda_votes"`
	LastUpdated    time.Time        `json:"last_updated"`
	Warnings       []string         `json:"warnings,omitempty"`
}

// BalanceOverview is the display-unit financial summary of an account.
type BalanceOverview struct {
	Symbol          string  `json:"symbol"`
	PriceUSD        float64 `json:"price_usd"`
	Total           float64 `json:"total"`
	TotalUSD        float64 `json:"total_usd"`
	Transferable    float64 `json:"transferable"`
	TransferableUSD float64 `json:"transferable_usd"`
	Locked          float64 `json:"locked"`
	LockedUSD       float64 `json:"locked_usd"`
	Reserved        float64 `json:"reserved"`
	ReservedUSD     float64 `json:"reserved_usd"`
	Bonded          float64 `json:"bonded"`
	DemocracyLock   float64 `json:"democracy_lock"`
	ConvictionLock  float64 `json:"conviction_lock"`
}

// VoterProfile summarizes one governance voter from the CSV snapshot.
type VoterProfile struct {
	Address         string  `json:"address"`
	Name            string  `json:"name,omitempty"`
	Type            string  `json:"type"`
	Active          bool    `json:"active"`
	LastVoteTime    string  `json:"last_vote_time,omitempty"`
	TotalVotes      int64   `json:"total_votes"`
	TotalTokensCast float64 `json:"total_tokens_cast"`
	AyeTokens       float64 `json:"aye_tokens"`
	NayTokens       float64 `json:"nay_tokens"`
	AbstainTokens   float64 `json:"abstain_tokens"`
	AyePct          float64 `json:"aye_pct"`
	NayPct          float64 `json:"nay_pct"`
	AbstainPct      float64 `json:"abstain_pct"`
	SupportRatioPct float64 `json:"support_ratio_pct"`
	Delegates       string  `json:"delegates,omitempty"`
}

// Proposal is one governance referendum from the CSV snapshot.
type Proposal struct {
	Chain          string `json:"chain"`
	Origin         string `json:"origin,omitempty"`
	ReferendaID    string `json:"referenda_id"`
	Status         string `json:"status"`
	Title          string `json:"title"`
	ProposedByName string `json:"proposed_by_name,omitempty"`
	ProposedBy     string `json:"proposed_by,omitempty"`
	StartTime      string `json:"start_time,omitempty"`
	EndTime        string `json:"end_time,omitempty"`
	ReferendaURL   string `json:"referenda_url,omitempty"`
}
