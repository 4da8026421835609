package display

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio_view/internal/domain/entity"
)

func floatPtr(v float64) *float64 { return &v }

func pool(id string, tokens ...entity.Position) entity.PoolPosition {
	return entity.PoolPosition{ID: id, Name: id, Tokens: tokens}
}

func TestNewPortfolio_NetWorthFromTokenMagnitudes(t *testing.T) {
	pf := NewPortfolio(pool("lp",
		entity.Position{ID: "a", Chain: "eth", Amount: 10, Price: 2},
		entity.Position{ID: "b", Chain: "eth", Amount: -5, Price: 10},
	), Options{})

	// Fallback summation uses magnitudes: 20 + 50.
	assert.InDelta(t, 70.0, pf.NetWorth, 1e-9)
	// The ordering sum stays signed: 20 - 50.
	assert.InDelta(t, -30.0, pf.SumTokenRealUSDValue, 1e-9)
}

func TestNewPortfolio_StatsOverrideTokenSum(t *testing.T) {
	p := pool("lp", entity.Position{ID: "a", Chain: "eth", Amount: 10, Price: 2})
	p.Stats = &entity.PoolStats{NetUSDValue: floatPtr(15)}
	pf := NewPortfolio(p, Options{})

	assert.InDelta(t, 15.0, pf.NetWorth, 1e-9)
}

func TestPortfolioID_PositionIndexSuffix(t *testing.T) {
	assert.Equal(t, "pool1", PortfolioID(entity.PoolPosition{ID: "pool1"}))
	assert.Equal(t, "pool1:2", PortfolioID(entity.PoolPosition{ID: "pool1", PositionIndex: "2"}))
}

func TestPatchHistory_AccumulatesSignedTokenChanges(t *testing.T) {
	pf := NewPortfolio(pool("lp",
		entity.Position{ID: "a", Chain: "eth", Amount: 10, Price: 2},
		entity.Position{ID: "b", Chain: "eth", Amount: 4, Price: 5},
	), Options{})

	prior := pool("lp",
		entity.Position{ID: "a", Chain: "eth", Amount: 8, Price: 2},
		entity.Position{ID: "b", Chain: "eth", Amount: 4, Price: 5},
	)
	pf.PatchHistory(&prior)

	require.True(t, pf.HistoryPatched)
	assert.InDelta(t, 4.0, pf.NetWorthChange, 1e-9)
	assert.Equal(t, "+$4.00", pf.NetWorthChangeStr)
	// preNetWorth 36 -> 40.
	assert.Equal(t, "+11.11%", pf.ChangePercentStr)
}

func TestPatchHistory_CurrentTokenMissingFromPriorPatchesFromZero(t *testing.T) {
	pf := NewPortfolio(pool("lp",
		entity.Position{ID: "a", Chain: "eth", Amount: 10, Price: 2},
		entity.Position{ID: "new", Chain: "eth", Amount: 1, Price: 30},
	), Options{})

	prior := pool("lp", entity.Position{ID: "a", Chain: "eth", Amount: 10, Price: 2})
	pf.PatchHistory(&prior)

	assert.InDelta(t, 30.0, pf.NetWorthChange, 1e-9)
	newTok := pf.TokenDict[TokenKey("new", "eth")]
	require.NotNil(t, newTok)
	assert.Equal(t, "+100.00%", newTok.USDValueChangePercent)
}

func TestPatchHistory_DivestedPriorTokenIsSkipped(t *testing.T) {
	pf := NewPortfolio(pool("lp",
		entity.Position{ID: "a", Chain: "eth", Amount: 10, Price: 2},
	), Options{})

	prior := pool("lp",
		entity.Position{ID: "a", Chain: "eth", Amount: 10, Price: 2},
		entity.Position{ID: "gone", Chain: "eth", Amount: 3, Price: 7},
	)
	pf.PatchHistory(&prior)

	// The divested token has nothing current to attach to; no change results.
	assert.InDelta(t, 0.0, pf.NetWorthChange, 1e-9)
}

func TestPatchHistory_PriorStatsOverrideAccumulatedChange(t *testing.T) {
	pf := NewPortfolio(pool("lp",
		entity.Position{ID: "a", Chain: "eth", Amount: 10, Price: 2},
	), Options{})

	prior := pool("lp", entity.Position{ID: "a", Chain: "eth", Amount: 8, Price: 2})
	prior.Stats = &entity.PoolStats{NetUSDValue: floatPtr(10)}
	pf.PatchHistory(&prior)

	// Token accumulation says +4; backend stats say prior worth was 10.
	assert.InDelta(t, 10.0, pf.NetWorthChange, 1e-9)
	assert.Equal(t, "+100.00%", pf.ChangePercentStr)
}

func TestPatchHistory_NilPriorMeansNewSinceSnapshot(t *testing.T) {
	pf := NewPortfolio(pool("lp",
		entity.Position{ID: "a", Chain: "eth", Amount: 10, Price: 10},
	), Options{})
	pf.PatchHistory(nil)

	assert.InDelta(t, 100.0, pf.NetWorthChange, 1e-9)
	assert.Equal(t, "+100.00%", pf.ChangePercentStr)
}

func TestPatchHistory_Idempotent(t *testing.T) {
	pf := NewPortfolio(pool("lp", entity.Position{ID: "a", Chain: "eth", Amount: 10, Price: 2}), Options{})
	prior := pool("lp", entity.Position{ID: "a", Chain: "eth", Amount: 8, Price: 2})
	pf.PatchHistory(&prior)
	first := pf.NetWorthChange

	other := pool("lp", entity.Position{ID: "a", Chain: "eth", Amount: 1, Price: 2})
	pf.PatchHistory(&other)
	assert.Equal(t, first, pf.NetWorthChange)
}

func TestPatchPrice_ClampsNegativePriorNetWorth(t *testing.T) {
	p := pool("lev", entity.Position{ID: "debt", Chain: "eth", Amount: -10, Price: 2})
	p.Stats = &entity.PoolStats{NetUSDValue: floatPtr(5)}
	pf := NewPortfolio(p, Options{})

	// The debt was pricier 24h ago: signed change is +30, making the derived
	// prior net worth 5-30 = -25, which must clamp to zero.
	pf.PatchPrice(map[string]float64{"debt": 5})

	assert.InDelta(t, 5.0, pf.NetWorthChange, 1e-9)
	assert.Equal(t, "+100.00%", pf.ChangePercentStr)
}

func TestPatchPrice_MissingPriceLeavesTokenUnpatched(t *testing.T) {
	pf := NewPortfolio(pool("lp",
		entity.Position{ID: "a", Chain: "eth", Amount: 10, Price: 2},
		entity.Position{ID: "b", Chain: "eth", Amount: 1, Price: 100},
	), Options{})
	pf.PatchPrice(map[string]float64{"a": 1})

	assert.True(t, pf.HistoryPatched)
	assert.True(t, pf.TokenDict[TokenKey("a", "eth")].HistoryPatched)
	assert.False(t, pf.TokenDict[TokenKey("b", "eth")].HistoryPatched)
	assert.InDelta(t, 10.0, pf.NetWorthChange, 1e-9)
}

func TestTokenList_SortOrder(t *testing.T) {
	pf := NewPortfolio(pool("lp",
		entity.Position{ID: "smallDebt", Chain: "eth", Amount: -1, Price: 10},
		entity.Position{ID: "bigAsset", Chain: "eth", Amount: 10, Price: 10},
		entity.Position{ID: "bigDebt", Chain: "eth", Amount: -20, Price: 10},
		entity.Position{ID: "smallAsset", Chain: "eth", Amount: 1, Price: 10},
	), Options{})

	ids := make([]string, 0, len(pf.TokenList))
	for _, tk := range pf.TokenList {
		ids = append(ids, tk.TokenID)
	}
	// Assets descending first, then debts most-negative first.
	assert.Equal(t, []string{"bigAsset", "smallAsset", "bigDebt", "smallDebt"}, ids)
}
