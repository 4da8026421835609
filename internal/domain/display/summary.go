package display

import (
	"math"
	"sort"

	"portfolio_view/internal/domain/entity"
	"portfolio_view/internal/pkg/format"
)

// Synthetic bucket ids produced by GroupAssets.
const (
	MiniAssetsID = "__miniAssets__"
	MiniDebtsID  = "__miniDebts__"
)

// minGroupedListLen and maxBucketExemption implement the "don't bother
// grouping tiny lists" rules: lists of up to ten rows and buckets that would
// hold at most three rows are kept verbatim.
const (
	minGroupedListLen   = 10
	maxBucketExemption  = 3
	smallAssetDivisor   = 1000 // threshold is base/1000, i.e. 0.1%
	roundedDeltaEpsilon = 0.005
)

// Asset is one row of the simplified net-worth breakdown. Value is signed;
// Percent is filled by GroupAssets only after bucketing decisions are made.
type Asset struct {
	ID      string  `json:"id"`
	Symbol  string  `json:"symbol"`
	Value   float64 `json:"value"`
	Price   float64 `json:"price"`
	Amount  float64 `json:"amount"`
	Percent float64 `json:"percent"`
}

// GroupAssets merges long-tail rows into at most two synthetic buckets.
// The list is expected sorted descending by absolute value. Rows whose
// absolute value is at or below 0.1% of smallBaseWorth (or baseWorth when
// smallBaseWorth is not positive) are folded into MiniAssetsID /
// MiniDebtsID, unless the whole list has ten rows or fewer, or the bucket
// in question would hold three rows or fewer. Buckets with a zero
// accumulated value are omitted. Every surviving row, synthetic ones
// included, gets Percent = |value| / baseWorth * 100 (zero when baseWorth
// is zero).
func GroupAssets(list []Asset, baseWorth, smallBaseWorth float64) []Asset {
	base := baseWorth
	if smallBaseWorth > 0 {
		base = smallBaseWorth
	}
	threshold := base / smallAssetDivisor

	var smallAssets, smallDebts int
	for _, a := range list {
		if math.Abs(a.Value) > threshold {
			continue
		}
		if a.Value < 0 {
			smallDebts++
		} else {
			smallAssets++
		}
	}

	out := make([]Asset, 0, len(list))
	var miniAssets, miniDebts float64
	for _, a := range list {
		keep := len(list) <= minGroupedListLen ||
			math.Abs(a.Value) > threshold ||
			(a.Value >= 0 && smallAssets <= maxBucketExemption) ||
			(a.Value < 0 && smallDebts <= maxBucketExemption)
		if keep {
			out = append(out, a)
			continue
		}
		if a.Value < 0 {
			miniDebts += a.Value
		} else {
			miniAssets += a.Value
		}
	}

	if miniAssets != 0 {
		out = append(out, Asset{ID: MiniAssetsID, Symbol: "Others", Value: miniAssets})
	}
	if miniDebts != 0 {
		out = append(out, Asset{ID: MiniDebtsID, Symbol: "Others", Value: miniDebts})
	}

	for i := range out {
		if baseWorth == 0 {
			out[i].Percent = 0
		} else {
			out[i].Percent = math.Abs(out[i].Value) / baseWorth * 100
		}
	}
	return out
}

// GrossAsset is a value-annotated balance row inside a GrossWorth rollup.
type GrossAsset struct {
	ID             string   `json:"id"`
	Symbol         string   `json:"symbol"`
	Amount         float64  `json:"amount"`
	Price          float64  `json:"price"`
	Value          float64  `json:"value"`
	Price24hChange *float64 `json:"price24hChange,omitempty"`
}

// GrossWorth is the wallet-level rollup of all coin and token balances.
// TotalDebt is itself negative, so NetWorth == TotalAssets + TotalDebt
// always holds.
type GrossWorth struct {
	Assets         []GrossAsset `json:"assets"`
	TotalAssets    float64      `json:"totalAssets"`
	TotalDebt      float64      `json:"totalDebt"`
	NetWorth       float64      `json:"netWorth"`
	DebtPercentStr string       `json:"debtPercentStr,omitempty"`
}

// SumGrossWorth flattens coin and token balances into value rows sorted
// descending by value and reduces them into asset/debt/net totals. The debt
// percent string is empty when net worth is zero.
func SumGrossWorth(coins, tokens []entity.BalanceItem) GrossWorth {
	rows := make([]GrossAsset, 0, len(coins)+len(tokens))
	for _, it := range append(append([]entity.BalanceItem{}, coins...), tokens...) {
		rows = append(rows, GrossAsset{
			ID:             it.ID,
			Symbol:         it.Symbol,
			Amount:         it.Amount,
			Price:          it.Price,
			Value:          it.Amount * it.Price,
			Price24hChange: it.Price24hChange,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Value > rows[j].Value })

	gw := GrossWorth{Assets: rows}
	for _, r := range rows {
		if r.Value >= 0 {
			gw.TotalAssets += r.Value
		} else {
			gw.TotalDebt += r.Value
		}
	}
	gw.NetWorth = gw.TotalAssets + gw.TotalDebt
	if gw.NetWorth != 0 {
		gw.DebtPercentStr = format.Percent(math.Abs(gw.TotalDebt) / gw.NetWorth * 100)
	}
	return gw
}

// AssetDelta is one row of the between-snapshots diff produced by
// CompareAssets.
type AssetDelta struct {
	ID                  string  `json:"id"`
	Symbol              string  `json:"symbol"`
	NetWorthChangeValue float64 `json:"netWorthChangeValue"`
	NetWorthChangeStr   string  `json:"netWorthChangeStr"`
	PriceChangePercent  float64 `json:"priceChangePercent"`
	AmountChange        float64 `json:"amountChange"`
	IsLoss              bool    `json:"isLoss"`
}

// CompareAssets diffs two gross snapshots by asset id. Ids only in next are
// compared against an absent prior (delta equals the full next value); ids
// only in pre count as fully divested (delta equals the negated prior
// value). Rows where the rounded value delta, price delta percent and
// balance delta are all zero are dropped. Losses sort biggest-loss first
// when overall net worth moved down, gains biggest-gain first otherwise.
func CompareAssets(pre, next GrossWorth) []AssetDelta {
	preByID := make(map[string]GrossAsset, len(pre.Assets))
	for _, a := range pre.Assets {
		preByID[a.ID] = a
	}
	nextByID := make(map[string]GrossAsset, len(next.Assets))
	for _, a := range next.Assets {
		nextByID[a.ID] = a
	}

	ids := make([]string, 0, len(preByID)+len(nextByID))
	for id := range nextByID {
		ids = append(ids, id)
	}
	for id := range preByID {
		if _, ok := nextByID[id]; !ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	deltas := make([]AssetDelta, 0, len(ids))
	for _, id := range ids {
		pa := preByID[id]
		na := nextByID[id]

		valueDelta := na.Value - pa.Value
		var pricePct float64
		switch {
		case pa.Price != 0:
			pricePct = (na.Price - pa.Price) / pa.Price * 100
		case na.Price != 0:
			pricePct = 100
		}
		amountDelta := na.Amount - pa.Amount

		if math.Abs(valueDelta) < roundedDeltaEpsilon &&
			math.Abs(pricePct) < roundedDeltaEpsilon &&
			amountDelta == 0 {
			continue
		}

		symbol := na.Symbol
		if symbol == "" {
			symbol = pa.Symbol
		}
		deltas = append(deltas, AssetDelta{
			ID:                  id,
			Symbol:              symbol,
			NetWorthChangeValue: valueDelta,
			NetWorthChangeStr:   format.SignedUSD(valueDelta),
			PriceChangePercent:  pricePct,
			AmountChange:        amountDelta,
			IsLoss:              valueDelta < 0,
		})
	}

	worthDown := next.NetWorth < pre.NetWorth
	sort.SliceStable(deltas, func(i, j int) bool {
		if worthDown {
			return deltas[i].NetWorthChangeValue < deltas[j].NetWorthChangeValue
		}
		return deltas[i].NetWorthChangeValue > deltas[j].NetWorthChangeValue
	})
	return deltas
}
