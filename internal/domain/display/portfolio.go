package display

import (
	"sort"

	"portfolio_view/internal/domain/entity"
	"portfolio_view/internal/pkg/format"
)

// Portfolio aggregates the tokens of one pool position. TokenDict is the
// source of truth; TokenList is always re-derived from it, sorted with the
// shared value rule (see sortTokens).
type Portfolio struct {
	// ID is the pool id, suffixed with the position index when present.
	ID     string `json:"id"`
	PoolID string `json:"poolId"`
	Name   string `json:"name"`

	// NetWorth is signed. It comes from backend pool stats when available,
	// otherwise from the token summation fallback.
	NetWorth    float64 `json:"netWorth"`
	NetWorthStr string  `json:"netWorthStr"`

	// SumTokenRealUSDValue is the signed token-value sum used only for
	// display ordering among sibling portfolios.
	SumTokenRealUSDValue float64 `json:"sumTokenRealUsdValue"`

	TokenDict map[string]*Token `json:"-"`
	TokenList []*Token          `json:"tokens"`

	NetWorthChange    float64 `json:"netWorthChange"`
	NetWorthChangeStr string  `json:"netWorthChangeStr,omitempty"`
	ChangePercentStr  string  `json:"changePercentStr,omitempty"`
	HistoryPatched    bool    `json:"historyPatched"`

	opts Options
}

// PortfolioID derives the dict key of a pool position within a project.
func PortfolioID(pool entity.PoolPosition) string {
	if pool.PositionIndex != "" {
		return pool.ID + ":" + pool.PositionIndex
	}
	return pool.ID
}

// NewPortfolio builds a portfolio from one raw pool position.
func NewPortfolio(pool entity.PoolPosition, opts Options) *Portfolio {
	p := &Portfolio{
		ID:        PortfolioID(pool),
		PoolID:    pool.ID,
		Name:      pool.Name,
		TokenDict: make(map[string]*Token, len(pool.Tokens)),
		opts:      opts,
	}

	// tokenNetWorth sums magnitudes, matching the upstream fallback; the
	// signed sum is kept separately for ordering.
	var tokenNetWorth float64
	for _, pos := range pool.Tokens {
		tk := NewToken(pos, opts)
		p.TokenDict[tk.ID] = tk
		tokenNetWorth += tk.USDValue
		p.SumTokenRealUSDValue += tk.RealUSDValue
	}

	if pool.Stats != nil && pool.Stats.NetUSDValue != nil {
		p.NetWorth = *pool.Stats.NetUSDValue
	} else {
		p.NetWorth = tokenNetWorth
	}
	p.NetWorthStr = format.USD(p.NetWorth)
	p.refreshTokenList()
	return p
}

// PatchHistory patches every token against the prior pool, accumulating the
// signed per-token changes into the portfolio change. Current tokens absent
// from history are treated as brand new (zero baseline). When the prior pool
// carries backend net-worth stats those override the token-accumulated
// estimate; token summation is known to be unreliable for debt-corrected
// pools. A nil or token-less prior pool forces a zero prior net worth.
// Idempotent: a second call is a no-op.
func (p *Portfolio) PatchHistory(prior *entity.PoolPosition) {
	if p.HistoryPatched {
		return
	}

	var change float64
	seen := make(map[string]bool)
	if prior != nil {
		for _, pos := range prior.Tokens {
			key := TokenKey(pos.ID, pos.Chain)
			tk, ok := p.TokenDict[key]
			if !ok {
				// Token fully divested since the snapshot; nothing current
				// to attach the change to.
				continue
			}
			seen[key] = true
			if tk.HistoryPatched {
				continue
			}
			tk.PatchHistory(pos)
			change += tk.RealUSDValueChange
		}
	}
	for key, tk := range p.TokenDict {
		if seen[key] || tk.HistoryPatched {
			continue
		}
		tk.PatchHistory(entity.Position{ID: tk.TokenID, Chain: tk.Chain})
		change += tk.RealUSDValueChange
	}

	preNetWorth := p.NetWorth - change
	if prior != nil && prior.Stats != nil && prior.Stats.NetUSDValue != nil {
		preNetWorth = *prior.Stats.NetUSDValue
		change = p.NetWorth - preNetWorth
	}
	if prior == nil || len(prior.Tokens) == 0 {
		preNetWorth = 0
		change = p.NetWorth
	}

	p.finalizeChange(preNetWorth, change)
}

// PatchPrice patches unpatched tokens from a historical price dictionary
// keyed by raw token id. The derived prior net worth is clamped at zero: a
// debt whose price dropped can make the apparent prior balance negative, and
// a portfolio's historical net worth is defined to never be negative.
// Skipped entirely once the portfolio is patched.
func (p *Portfolio) PatchPrice(prices map[string]float64) {
	if p.HistoryPatched {
		return
	}

	var change float64
	for _, tk := range p.TokenDict {
		if tk.HistoryPatched {
			continue
		}
		price, ok := prices[tk.TokenID]
		if !ok {
			continue
		}
		tk.PatchPrice(price)
		change += tk.RealUSDValueChange
	}

	preNetWorth := p.NetWorth - change
	if preNetWorth < 0 {
		preNetWorth = 0
		change = p.NetWorth
	}

	p.finalizeChange(preNetWorth, change)
}

func (p *Portfolio) finalizeChange(preNetWorth, change float64) {
	p.NetWorthChange = change
	p.NetWorthChangeStr = format.SignedUSD(change)
	p.ChangePercentStr = format.ChangePercent(preNetWorth, p.NetWorth)
	p.HistoryPatched = true
	p.refreshTokenList()
}

func (p *Portfolio) refreshTokenList() {
	list := make([]*Token, 0, len(p.TokenDict))
	for _, tk := range p.TokenDict {
		list = append(list, tk)
	}
	sortTokens(list)
	p.TokenList = list
}

// sortTokens orders two liabilities ascending (most negative first) and
// everything else descending by signed value.
func sortTokens(list []*Token) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.RealUSDValue < 0 && b.RealUSDValue < 0 {
			return a.RealUSDValue < b.RealUSDValue
		}
		return a.RealUSDValue > b.RealUSDValue
	})
}
