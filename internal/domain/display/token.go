package display

import (
	"math"

	"portfolio_view/internal/domain/entity"
	"portfolio_view/internal/pkg/format"
)

// Token wraps one raw position for display. RealUSDValue keeps the sign
// (negative for debts); USDValue is always its magnitude. Sign information
// therefore lives only in Amount and RealUSDValue.
type Token struct {
	// ID is the position id joined with the chain; unique within a portfolio.
	ID      string `json:"id"`
	TokenID string `json:"tokenId"`
	Chain   string `json:"chain"`
	Symbol  string `json:"symbol"`
	Name    string `json:"name"`
	LogoURL string `json:"logoUrl,omitempty"`

	Amount       float64 `json:"amount"`
	Price        float64 `json:"price"`
	RealUSDValue float64 `json:"realUsdValue"`
	USDValue     float64 `json:"usdValue"`

	AmountStr   string `json:"amountStr"`
	PriceStr    string `json:"priceStr"`
	USDValueStr string `json:"usdValueStr"`

	// History fields are zero until PatchHistory runs. HistoryPatched is
	// monotonic: once true it never resets for the lifetime of the instance.
	AmountChange          float64 `json:"amountChange"`
	AmountChangeStr       string  `json:"amountChangeStr,omitempty"`
	USDValueChange        float64 `json:"usdValueChange"`
	RealUSDValueChange    float64 `json:"realUsdValueChange"`
	USDValueChangePercent string  `json:"usdValueChangePercent,omitempty"`
	HistoryPatched        bool    `json:"historyPatched"`

	noiseFloorUSD float64
}

// TokenKey builds the identity key of a position within a pool. The same
// token id can appear on several chains, so both parts are required.
func TokenKey(id, chain string) string {
	return id + chain
}

// NewToken derives a display token from a raw position.
func NewToken(pos entity.Position, opts Options) *Token {
	real := pos.Price * pos.Amount
	t := &Token{
		ID:            TokenKey(pos.ID, pos.Chain),
		TokenID:       pos.ID,
		Chain:         pos.Chain,
		Symbol:        symbolOf(pos),
		Name:          pos.Name,
		LogoURL:       pos.LogoURL,
		Amount:        pos.Amount,
		Price:         pos.Price,
		RealUSDValue:  real,
		USDValue:      math.Abs(real),
		noiseFloorUSD: opts.noiseFloor(),
	}
	t.AmountStr = format.Amount(math.Abs(pos.Amount))
	t.PriceStr = format.USD(pos.Price)
	t.USDValueStr = format.USD(t.USDValue)
	return t
}

func symbolOf(pos entity.Position) string {
	if pos.DisplaySymbol != "" {
		return pos.DisplaySymbol
	}
	return pos.Symbol
}

// PatchHistory computes the 24h-change fields against a prior position and
// marks the token patched. Amount deltas compare magnitudes, so debts and
// assets both "shrink toward zero". The display string for the amount delta
// is zeroed below the noise floor; the numeric delta is kept either way.
// Callers gate re-entry via HistoryPatched; the method itself never fails on
// missing input, a zero prior simply yields full-value deltas.
func (t *Token) PatchHistory(prior entity.Position) {
	priorReal := prior.Price * prior.Amount
	priorUSD := math.Abs(priorReal)

	t.AmountChange = math.Abs(t.Amount) - math.Abs(prior.Amount)
	if math.Abs(t.AmountChange)*t.Price >= t.noiseFloorUSD {
		t.AmountChangeStr = format.SignedAmount(t.AmountChange)
	} else {
		t.AmountChangeStr = "0"
	}

	t.USDValueChange = t.USDValue - priorUSD
	t.RealUSDValueChange = t.RealUSDValue - priorReal
	t.USDValueChangePercent = format.ChangePercent(priorUSD, t.USDValue)
	t.HistoryPatched = true
}

// PatchPrice synthesizes a prior position holding the same amount at the
// given historical price and delegates to PatchHistory. No-op once patched
// or when the price is not a usable number (zero is usable: it means the
// token had no price 24h ago).
func (t *Token) PatchPrice(priorPrice float64) {
	if t.HistoryPatched {
		return
	}
	if math.IsNaN(priorPrice) || math.IsInf(priorPrice, 0) {
		return
	}
	t.PatchHistory(entity.Position{
		ID:     t.TokenID,
		Chain:  t.Chain,
		Amount: t.Amount,
		Price:  priorPrice,
	})
}
