package registry

import (
	"strings"
	"testing"

	clierr "github.com/polkaguardian/guardian-cli/internal/errors"
)

func TestParseByKeyAndName(t *testing.T) {
	byKey, err := Parse("polkadot")
	if err != nil {
		t.Fatalf("Parse by key failed: %v", err)
	}
	byName, err := Parse("Polkadot")
	if err != nil {
		t.Fatalf("Parse by name failed: %v", err)
	}
	if byKey != byName {
		t.Fatalf("key and name lookups disagree: %+v vs %+v", byKey, byName)
	}
	if byKey.BaseURL() != "https://polkadot.api.subscan.io" {
		t.Fatalf("unexpected base url: %s", byKey.BaseURL())
	}
}

func TestParseUnsupported(t *testing.T) {
	_, err := Parse("dogecoin")
	cErr, ok := clierr.As(err)
	if !ok || cErr.Code != clierr.CodeUnsupported {
		t.Fatalf("expected unsupported error, got %v", err)
	}
}

func TestListIsStableAndComplete(t *testing.T) {
	chains := List()
	if len(chains) != 20 {
		t.Fatalf("expected 20 chains, got %d", len(chains))
	}
	for i := 1; i < len(chains); i++ {
		if chains[i-1].Key >= chains[i].Key {
			t.Fatalf("list not sorted at %d: %s >= %s", i, chains[i-1].Key, chains[i].Key)
		}
	}
}

func TestNormalizeSearchKeyHexOnEVMChain(t *testing.T) {
	moonbeam, _ := Parse("moonbeam")
	got, err := NormalizeSearchKey(moonbeam, "0x1b3cb81e51011b549d78bf720b0d924ac763a7c2")
	if err != nil {
		t.Fatalf("NormalizeSearchKey failed: %v", err)
	}
	if !strings.HasPrefix(got, "0x") || got == "0x1b3cb81e51011b549d78bf720b0d924ac763a7c2" {
		t.Fatalf("expected checksummed address, got %s", got)
	}
}

func TestNormalizeSearchKeyHexRejectedOnSS58Chain(t *testing.T) {
	polkadot, _ := Parse("polkadot")
	_, err := NormalizeSearchKey(polkadot, "0x1b3cb81e51011b549d78bf720b0d924ac763a7c2")
	cErr, ok := clierr.As(err)
	if !ok || cErr.Code != clierr.CodeUsage {
		t.Fatalf("expected usage error, got %v", err)
	}
}

func TestNormalizeSearchKeyPassthrough(t *testing.T) {
	polkadot, _ := Parse("polkadot")
	addr := "15g4zgBFXtbPv2JMgf21DQZP851BeMJJqmAsE9R3MMaWea71"
	got, err := NormalizeSearchKey(polkadot, " "+addr+" ")
	if err != nil {
		t.Fatalf("NormalizeSearchKey failed: %v", err)
	}
	if got != addr {
		t.Fatalf("expected passthrough, got %s", got)
	}
}
