package registry

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	clierr "github.com/polkaguardian/guardian-cli/internal/errors"
	"github.com/polkaguardian/guardian-cli/internal/model"
)

// Chain maps a human-readable network name to the explorer's API subdomain
// key. The set is fixed at process start.
type Chain struct {
	Name string
	Key  string
	// EVMAddress marks parachains whose accounts are H160 hex addresses
	// rather than SS58 strings.
	EVMAddress bool
}

func (c Chain) BaseURL() string {
	return fmt.Sprintf("https://%s.api.subscan.io", c.Key)
}

var chainByKey = map[string]Chain{
	"polkadot":   {Name: "Polkadot", Key: "polkadot"},
	"kusama":     {Name: "Kusama", Key: "kusama"},
	"acala":      {Name: "Acala", Key: "acala"},
	"astar":      {Name: "Astar", Key: "astar", EVMAddress: true},
	"moonbeam":   {Name: "Moonbeam", Key: "moonbeam", EVMAddress: true},
	"phala":      {Name: "Phala", Key: "phala"},
	"bifrost":    {Name: "Bifrost", Key: "bifrost"},
	"centrifuge": {Name: "Centrifuge", Key: "centrifuge"},
	"parallel":   {Name: "Parallel", Key: "parallel"},
	"hydradx":    {Name: "HydraDX", Key: "hydradx"},
	"litentry":   {Name: "Litentry", Key: "litentry"},
	"crust":      {Name: "Crust", Key: "crust"},
	"darwinia":   {Name: "Darwinia", Key: "darwinia", EVMAddress: true},
	"edgeware":   {Name: "Edgeware", Key: "edgeware"},
	"karura":     {Name: "Karura", Key: "karura"},
	"statemine":  {Name: "Statemine", Key: "statemine"},
	"statemint":  {Name: "Statemint", Key: "statemint"},
	"ternoa":     {Name: "Ternoa", Key: "ternoa"},
	"unique":     {Name: "Unique", Key: "unique"},
	"zeitgeist":  {Name: "Zeitgeist", Key: "zeitgeist"},
}

// Parse resolves a chain by API key or display name, case-insensitive.
func Parse(input string) (Chain, error) {
	norm := strings.ToLower(strings.TrimSpace(input))
	if norm == "" {
		return Chain{}, clierr.New(clierr.CodeUsage, "chain is required")
	}
	if chain, ok := chainByKey[norm]; ok {
		return chain, nil
	}
	for _, chain := range chainByKey {
		if strings.EqualFold(chain.Name, norm) {
			return chain, nil
		}
	}
	return Chain{}, clierr.New(clierr.CodeUnsupported, fmt.Sprintf("unsupported chain: %s", input))
}

// List returns every registered chain in stable key order.
func List() []model.ChainInfo {
	keys := make([]string, 0, len(chainByKey))
	for key := range chainByKey {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	out := make([]model.ChainInfo, 0, len(keys))
	for _, key := range keys {
		chain := chainByKey[key]
		out = append(out, model.ChainInfo{
			Name:       chain.Name,
			Key:        chain.Key,
			APIBase:    chain.BaseURL(),
			EVMAddress: chain.EVMAddress,
		})
	}
	return out
}

// NormalizeSearchKey validates a free-form search key for a chain. Hex H160
// keys are checksummed on EVM-format parachains and rejected elsewhere;
// anything else (SS58 address, identity, domain-like key) passes through for
// the explorer's search endpoint to resolve.
func NormalizeSearchKey(chain Chain, key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", clierr.New(clierr.CodeUsage, "search key is required")
	}
	if strings.HasPrefix(key, "0x") {
		if !chain.EVMAddress {
			return "", clierr.New(clierr.CodeUsage, fmt.Sprintf("%s accounts are SS58 strings, not hex addresses", chain.Name))
		}
		if !common.IsHexAddress(key) {
			return "", clierr.New(clierr.CodeUsage, "malformed hex address")
		}
		return common.HexToAddress(key).Hex(), nil
	}
	return key, nil
}
