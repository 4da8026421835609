package display

import (
	"fmt"
	"sort"

	"portfolio_view/internal/domain/entity"
	"portfolio_view/internal/pkg/format"
)

// WalletProjectID identifies the pseudo-project hosting plain wallet
// balances that belong to no protocol.
const WalletProjectID = "Wallet"

// Project aggregates the portfolios of one protocol. PortfolioDict is the
// source of truth; Portfolios is the derived sorted view.
type Project struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Chain   string `json:"chain,omitempty"`
	SiteURL string `json:"siteUrl,omitempty"`
	LogoURL string `json:"logoUrl,omitempty"`

	NetWorth    float64 `json:"netWorth"`
	NetWorthStr string  `json:"netWorthStr"`

	PortfolioDict map[string]*Portfolio `json:"-"`
	Portfolios    []*Portfolio          `json:"portfolios"`

	NetWorthChange        float64 `json:"netWorthChange"`
	NetWorthChangeStr     string  `json:"netWorthChangeStr,omitempty"`
	NetWorthChangePercent string  `json:"netWorthChangePercent,omitempty"`
	HistoryPatched        bool    `json:"historyPatched"`

	opts Options
}

// NewProject builds a project from its meta and raw pool positions.
func NewProject(meta entity.ProjectMeta, pools []entity.PoolPosition, policy MergePolicy, opts Options) *Project {
	p := &Project{
		ID:            meta.ID,
		Name:          meta.Name,
		Chain:         meta.Chain,
		SiteURL:       meta.SiteURL,
		LogoURL:       meta.LogoURL,
		PortfolioDict: make(map[string]*Portfolio, len(pools)),
		opts:          opts,
	}
	p.SetPortfolios(pools, policy)
	return p
}

// SetPortfolios inserts or merges pool positions. Under MergeReplace an
// existing portfolio with the same id is subtracted before the new one is
// added, so re-fetches never double count. Under MergeKeepBoth colliding ids
// get an index suffix, bumped until free, so every portfolio survives. Net
// worth is maintained incrementally and the sorted view re-derived.
func (p *Project) SetPortfolios(pools []entity.PoolPosition, policy MergePolicy) {
	for i, pool := range pools {
		pf := NewPortfolio(pool, p.opts)
		if old, exists := p.PortfolioDict[pf.ID]; exists {
			if policy == MergeKeepBoth {
				// The suffixed id can itself collide with the result of an
				// earlier keep-both merge; overwriting it would strand its
				// net worth in the project total.
				for n := i; ; n++ {
					suffixed := fmt.Sprintf("%s_%d", pf.ID, n)
					if _, taken := p.PortfolioDict[suffixed]; !taken {
						pf.ID = suffixed
						break
					}
				}
			} else {
				p.NetWorth -= old.NetWorth
			}
		}
		p.PortfolioDict[pf.ID] = pf
		p.NetWorth += pf.NetWorth
	}
	p.NetWorthStr = format.USD(p.NetWorth)
	p.refreshPortfolios()
}

// PatchHistory patches each matching historical pool into its current
// portfolio and sums the changes. With patchRestFromZero, portfolios the
// historical fetch did not touch are treated as new since the snapshot and
// patched against an empty history. Protocol views want that defaulting;
// wallet views do not, their pools are independent. Already-patched
// portfolios keep their stored change but still count toward the project
// sum. Idempotent.
func (p *Project) PatchHistory(pools []entity.PoolPosition, patchRestFromZero bool) {
	if p.HistoryPatched {
		return
	}

	var change float64
	touched := make(map[string]bool, len(pools))
	for i := range pools {
		id := PortfolioID(pools[i])
		pf, ok := p.PortfolioDict[id]
		if !ok {
			continue
		}
		touched[id] = true
		if !pf.HistoryPatched {
			pf.PatchHistory(&pools[i])
		}
		change += pf.NetWorthChange
	}

	if patchRestFromZero {
		for id, pf := range p.PortfolioDict {
			if touched[id] {
				continue
			}
			if !pf.HistoryPatched {
				pf.PatchHistory(nil)
			}
			change += pf.NetWorthChange
		}
	}

	p.finalizeChange(change)
}

// PatchPrice delegates to every unpatched portfolio with a historical price
// dictionary keyed by raw token id. No-op once the project is patched.
func (p *Project) PatchPrice(prices map[string]float64) {
	if p.HistoryPatched {
		return
	}

	var change float64
	for _, pf := range p.PortfolioDict {
		if !pf.HistoryPatched {
			pf.PatchPrice(prices)
		}
		change += pf.NetWorthChange
	}

	p.finalizeChange(change)
}

func (p *Project) finalizeChange(change float64) {
	p.NetWorthChange = change
	p.NetWorthChangeStr = format.SignedUSD(change)
	preNetWorth := p.NetWorth - change
	p.NetWorthChangePercent = format.ChangePercent(preNetWorth, p.NetWorth)
	p.HistoryPatched = true
	p.refreshPortfolios()
}

func (p *Project) refreshPortfolios() {
	list := make([]*Portfolio, 0, len(p.PortfolioDict))
	for _, pf := range p.PortfolioDict {
		list = append(list, pf)
	}
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.SumTokenRealUSDValue < 0 && b.SumTokenRealUSDValue < 0 {
			return a.SumTokenRealUSDValue < b.SumTokenRealUSDValue
		}
		return a.SumTokenRealUSDValue > b.SumTokenRealUSDValue
	})
	p.Portfolios = list
}

// NewWalletProject hosts ungrouped wallet token balances in a project with
// id "Wallet": every token becomes its own single-token pool so the same
// invariants and patch operations apply.
func NewWalletProject(tokens []entity.Position, opts Options) *Project {
	pools := make([]entity.PoolPosition, 0, len(tokens))
	for _, pos := range tokens {
		pools = append(pools, entity.PoolPosition{
			ID:     TokenKey(pos.ID, pos.Chain),
			Name:   symbolOf(pos),
			Tokens: []entity.Position{pos},
		})
	}
	return NewProject(entity.ProjectMeta{ID: WalletProjectID, Name: WalletProjectID}, pools, MergeReplace, opts)
}
