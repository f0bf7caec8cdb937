package subscan

import (
	"strconv"

	"github.com/polkaguardian/guardian-cli/internal/model"
)

// The explorer reports most balance fields in display units but the reserved
// field arrives in planck-like raw units; dividing by 1e10 matches what the
// explorer's own dashboard shows. Known quirk, kept bug-for-bug: the divisor
// is fixed rather than derived from token decimals, so it is only exact on
// 10-decimal chains.
const reservedDivisor = 1e10

// Overview derives the display-unit financial summary from the typed account
// record and the resolved token metadata. Unparseable fields count as zero;
// with fallback metadata all USD figures are zero because the price is.
func Overview(acct model.Account, meta model.TokenMetadata) model.BalanceOverview {
	balance := parseAmount(acct.Balance)
	lock := parseAmount(acct.Lock)
	reserved := parseAmount(acct.Reserved) / reservedDivisor

	return model.BalanceOverview{
		Symbol:          meta.Symbol,
		PriceUSD:        meta.PriceUSD,
		Total:           balance,
		TotalUSD:        balance * meta.PriceUSD,
		Transferable:    balance - lock,
		TransferableUSD: (balance - lock) * meta.PriceUSD,
		Locked:          lock,
		LockedUSD:       lock * meta.PriceUSD,
		Reserved:        reserved,
		ReservedUSD:     reserved * meta.PriceUSD,
		Bonded:          parseAmount(acct.Bonded),
		DemocracyLock:   parseAmount(acct.DemocracyLock),
		ConvictionLock:  parseAmount(acct.ConvictionLock),
	}
}

func parseAmount(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
