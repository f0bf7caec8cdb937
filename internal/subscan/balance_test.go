package subscan

import (
	"math"
	"testing"

	"github.com/polkaguardian/guardian-cli/internal/model"
)

func approx(got, want float64) bool {
	return math.Abs(got-want) < 1e-9
}

func TestOverviewUSDValuation(t *testing.T) {
	acct := model.Account{
		Balance:  "90",
		Lock:     "10",
		Reserved: "50000000000",
		Bonded:   "25",
	}
	meta := model.TokenMetadata{Symbol: "DOT", Decimals: 10, PriceUSD: 5.0}

	ov := Overview(acct, meta)
	if ov.Symbol != "DOT" {
		t.Fatalf("symbol mismatch: %+v", ov)
	}
	if !approx(ov.Total, 90) || !approx(ov.TotalUSD, 450) {
		t.Fatalf("total mismatch: %+v", ov)
	}
	if !approx(ov.Transferable, 80) || !approx(ov.TransferableUSD, 400) {
		t.Fatalf("transferable mismatch: %+v", ov)
	}
	// Reserved arrives in raw units and is scaled by the fixed 1e10 divisor.
	if !approx(ov.Reserved, 5) || !approx(ov.ReservedUSD, 25) {
		t.Fatalf("reserved mismatch: %+v", ov)
	}
	if !approx(ov.Bonded, 25) {
		t.Fatalf("bonded mismatch: %+v", ov)
	}
}

func TestOverviewWithFallbackMetadata(t *testing.T) {
	acct := model.Account{Balance: "90", Lock: "10", Reserved: "50000000000"}
	ov := Overview(acct, model.FallbackTokenMetadata())
	if ov.Symbol != "N/A" {
		t.Fatalf("expected fallback symbol, got %+v", ov)
	}
	if ov.TotalUSD != 0 || ov.ReservedUSD != 0 {
		t.Fatalf("fallback price must zero all USD figures: %+v", ov)
	}
	if !approx(ov.Total, 90) {
		t.Fatalf("token amounts must survive fallback: %+v", ov)
	}
}

func TestOverviewUnparseableFieldsCountAsZero(t *testing.T) {
	acct := model.Account{Balance: "not-a-number", Lock: "", Reserved: "x"}
	ov := Overview(acct, model.TokenMetadata{Symbol: "KSM", Decimals: 12, PriceUSD: 30})
	if ov.Total != 0 || ov.Locked != 0 || ov.Reserved != 0 {
		t.Fatalf("expected zeros for unparseable fields: %+v", ov)
	}
}
