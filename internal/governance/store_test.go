package governance

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

const votersCSV = `voter,voter_name,voter_type,is_active,last_vote_time,total_votes,total_tokens_cast,aye_tokens,nay_tokens,abstain_tokens,support_ratio_pct,delegates
15g4zgBFXtbPv2JMgf21DQZP851BeMJJqmAsE9R3MMaWea71,Alice,individual,true,2025-08-01,42,1000,600,300,100,60.0,
13UVJyLnbVp9RBZYFwFGyDvVd1y27Tt8tkntv6Q7JVPhFsTB,,validator,false,2024-11-15,7,"2,500",2500,0,0,100.0,delegate-x
`

const proposalsCSV = `chain,origin,referenda_id,status,title,proposed_by_name,proposed_by,start_time,end_time,referenda_url
polkadot,BigSpender,1203,Deciding,Treasury grant for tooling,alice,15g4z,2025-08-01,2025-08-29,https://polkadot.subsquare.io/referenda/1203
kusama,Root,512,Executed,Runtime upgrade v1.5,bob,13UVJ,2025-07-10,2025-07-17,
polkadot,SmallTipper,1210,Submitted,,carol,14abc,2025-08-20,,
`

func writeDataset(t *testing.T) *Store {
	t.Helper()
	tmp := t.TempDir()
	votersPath := filepath.Join(tmp, "voters.csv")
	proposalsPath := filepath.Join(tmp, "proposals.csv")
	if err := os.WriteFile(votersPath, []byte(votersCSV), 0o644); err != nil {
		t.Fatalf("write voters csv: %v", err)
	}
	if err := os.WriteFile(proposalsPath, []byte(proposalsCSV), 0o644); err != nil {
		t.Fatalf("write proposals csv: %v", err)
	}
	store, err := Load(votersPath, proposalsPath, nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return store
}

func TestLookupVoterCaseInsensitive(t *testing.T) {
	store := writeDataset(t)

	v, ok := store.LookupVoter("15G4ZGBFXTBPV2JMGF21DQZP851BEMJJQMASE9R3MMAWEA71")
	if !ok {
		t.Fatalf("expected voter match regardless of case")
	}
	if v.Name != "Alice" || v.Type != "individual" || !v.Active || v.TotalVotes != 42 {
		t.Fatalf("voter fields mismatch: %+v", v)
	}
	if math.Abs(v.AyePct-60) > 1e-9 || math.Abs(v.NayPct-30) > 1e-9 || math.Abs(v.AbstainPct-10) > 1e-9 {
		t.Fatalf("token percentages mismatch: %+v", v)
	}
	if v.SupportRatioPct != 60.0 {
		t.Fatalf("support ratio not taken from dataset: %+v", v)
	}
}

func TestLookupVoterParsesFormattedNumbers(t *testing.T) {
	store := writeDataset(t)

	v, ok := store.LookupVoter("13UVJyLnbVp9RBZYFwFGyDvVd1y27Tt8tkntv6Q7JVPhFsTB")
	if !ok {
		t.Fatalf("expected voter match")
	}
	if v.TotalTokensCast != 2500 {
		t.Fatalf("thousands separator not handled: %+v", v)
	}
	if v.Active {
		t.Fatalf("is_active=false not parsed: %+v", v)
	}
	if v.AyePct != 100 {
		t.Fatalf("single-bucket percentage mismatch: %+v", v)
	}
}

func TestLookupVoterMiss(t *testing.T) {
	store := writeDataset(t)
	if _, ok := store.LookupVoter("unknown-address"); ok {
		t.Fatalf("expected miss for unknown address")
	}
	if _, ok := store.LookupVoter("  "); ok {
		t.Fatalf("expected miss for blank address")
	}
}

func TestProposalsLimitAndLookup(t *testing.T) {
	store := writeDataset(t)

	if got := store.Proposals(2); len(got) != 2 || got[0].ReferendaID != "1203" {
		t.Fatalf("limited proposals mismatch: %#v", got)
	}
	if got := store.Proposals(0); len(got) != 3 {
		t.Fatalf("unbounded proposals mismatch: %d", len(got))
	}

	p, ok := store.ProposalByID("512", "")
	if !ok || p.Chain != "kusama" || p.Status != "Executed" {
		t.Fatalf("proposal lookup mismatch: %+v ok=%v", p, ok)
	}
	if _, ok := store.ProposalByID("512", "polkadot"); ok {
		t.Fatalf("chain qualifier should exclude kusama referendum")
	}
	if _, ok := store.ProposalByID("9999", ""); ok {
		t.Fatalf("expected miss for unknown referendum")
	}
}

func TestLoadWithMissingDatasets(t *testing.T) {
	store, err := Load("", "", nil)
	if err != nil {
		t.Fatalf("empty paths must not fail: %v", err)
	}
	if store.VoterCount() != 0 || store.ProposalCount() != 0 {
		t.Fatalf("expected empty store")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.csv"), "", nil); err == nil {
		t.Fatalf("expected error for unreadable dataset")
	}
}
