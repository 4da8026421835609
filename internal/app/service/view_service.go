package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"portfolio_view/internal/app/port"
	"portfolio_view/internal/domain/display"
	"portfolio_view/internal/domain/entity"
	"portfolio_view/internal/infrastructure/configloader"
	"portfolio_view/internal/pkg/metrics"
	"portfolio_view/internal/pkg/queue"

	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// historyLookback is how far back the history phase compares against.
const historyLookback = 24 * time.Hour

// viewStore holds the derived trees for one address. Stores are owned by
// the service and handed out only as copied snapshots; generation numbers
// suppress writebacks from superseded refreshes.
type viewStore struct {
	mu        sync.RWMutex
	addr      string
	gen       uint64
	dict      map[string]*display.Project
	netWorth  float64
	hasValue  bool
	isLoading bool
	prevGross *display.GrossWorth
	curGross  *display.GrossWorth
}

// ViewServiceImpl implements port.ViewService.
type ViewServiceImpl struct {
	pricing    port.PricingService
	filter     port.TokenFilterProvider
	logger     *zap.Logger
	cfg        *configloader.Config
	opts       display.Options
	priceCache *cache.Cache

	mu     sync.Mutex
	stores map[string]*viewStore
}

// NewViewService creates a new instance of ViewServiceImpl.
func NewViewService(
	pricing port.PricingService,
	filter port.TokenFilterProvider,
	cfg *configloader.Config,
	logger *zap.Logger,
) *ViewServiceImpl {
	ttl := time.Duration(cfg.Pricing.HistoryPriceCacheTTLMin) * time.Minute
	return &ViewServiceImpl{
		pricing:    pricing,
		filter:     filter,
		logger:     logger.Named("ViewService"),
		cfg:        cfg,
		opts:       display.Options{NoiseFloorUSD: cfg.Thresholds.AmountChangeNoiseFloorUSD},
		priceCache: cache.New(ttl, 10*time.Minute),
		stores:     make(map[string]*viewStore),
	}
}

// Refresh implements port.ViewService. The pipeline runs three phases:
// snapshot paint, per-protocol realtime fetch, history patch. Upstream
// failures degrade to "no data for that chunk"; a cancelled context or a
// newer refresh for the same address stops further commits but is not an
// error either.
func (s *ViewServiceImpl) Refresh(ctx context.Context, addr string) error {
	if addr == "" {
		return fmt.Errorf("address is required")
	}
	timer := prometheus.NewTimer(metrics.RefreshDuration)
	defer timer.ObserveDuration()

	store := s.store(addr)
	gen := store.begin()
	defer store.finish(gen)

	s.logger.Info("Refreshing portfolio view", zap.String("address", addr))

	dict, walletTokens := s.snapshotPhase(ctx, addr)
	if !store.commitSnapshot(gen, dict) {
		return nil
	}

	s.realtimePhase(ctx, addr, store, gen)
	s.historyPhase(ctx, addr, store, gen)

	store.commitGross(gen, s.grossWorth(walletTokens))
	return nil
}

// snapshotPhase builds the first-paint tree: the full protocol snapshot
// plus the Wallet pseudo-project from the filtered token list.
func (s *ViewServiceImpl) snapshotPhase(ctx context.Context, addr string) (map[string]*display.Project, []entity.Position) {
	var dict map[string]*display.Project
	snaps, err := s.pricing.ProjectSnapshot(ctx, addr)
	if err != nil {
		s.logger.Warn("Snapshot fetch failed, painting without protocol data",
			zap.String("address", addr), zap.Error(err))
		dict = make(map[string]*display.Project)
	} else {
		dict, _ = display.SnapshotToDisplay(snaps, s.opts)
	}

	tokens, err := s.pricing.TokenList(ctx, addr)
	if err != nil {
		s.logger.Warn("Token list fetch failed, wallet project will be empty",
			zap.String("address", addr), zap.Error(err))
		return dict, nil
	}

	kept := make([]entity.Position, 0, len(tokens))
	for _, pos := range tokens {
		key := display.TokenKey(pos.ID, pos.Chain)
		if s.filter.IsBlocked(key) {
			continue
		}
		if !pos.IsVerified && !s.filter.IsCustomized(key) {
			continue
		}
		kept = append(kept, pos)
	}
	if len(kept) > 0 {
		dict[display.WalletProjectID] = display.NewWalletProject(kept, s.opts)
	}
	return dict, kept
}

// realtimePhase re-fetches every protocol individually through the bounded
// queue and upserts the fresh positions into the committed tree.
func (s *ViewServiceImpl) realtimePhase(ctx context.Context, addr string, store *viewStore, gen uint64) {
	q := queue.New(s.cfg.Performance.MaxConcurrentRequests, s.cfg.Performance.RequestsPerSecond, s.cfg.Performance.RequestBurst)
	for _, id := range store.projectIDs(gen) {
		if id == display.WalletProjectID {
			continue
		}
		projectID := id
		q.Push(ctx, func(ctx context.Context) error {
			snap, err := s.pricing.ProjectDetail(ctx, addr, projectID)
			if err != nil {
				s.logger.Debug("Realtime protocol fetch failed, keeping snapshot data",
					zap.String("address", addr), zap.String("project", projectID), zap.Error(err))
				return nil
			}
			store.upsert(gen, *snap, s.opts)
			return nil
		})
	}
	q.Drain()
}

// historyPhase computes 24h changes: historical protocol detail where the
// indexer has it, historical token prices otherwise (always for the Wallet
// project, whose pools are independent and never defaulted from zero).
func (s *ViewServiceImpl) historyPhase(ctx context.Context, addr string, store *viewStore, gen uint64) {
	timeAt := time.Now().Add(-historyLookback).Unix()
	q := queue.New(s.cfg.Performance.MaxConcurrentRequests, s.cfg.Performance.RequestsPerSecond, s.cfg.Performance.RequestBurst)

	for _, id := range store.projectIDs(gen) {
		projectID := id
		if projectID == display.WalletProjectID {
			q.Push(ctx, func(ctx context.Context) error {
				s.patchFromPrices(ctx, store, gen, projectID, timeAt)
				return nil
			})
			continue
		}
		q.Push(ctx, func(ctx context.Context) error {
			snap, err := s.pricing.HistoricalProjectDetail(ctx, addr, projectID, timeAt)
			if err != nil {
				s.logger.Debug("Historical protocol fetch failed, change stays empty",
					zap.String("address", addr), zap.String("project", projectID), zap.Error(err))
				return nil
			}
			if snap == nil {
				// No history support for this protocol; fall back to
				// price-only deltas.
				s.patchFromPrices(ctx, store, gen, projectID, timeAt)
				return nil
			}
			store.patchHistory(gen, snap)
			return nil
		})
	}
	q.Drain()
}

// patchFromPrices fetches historical prices for every token of a project,
// chain by chain, and applies a price-only patch.
func (s *ViewServiceImpl) patchFromPrices(ctx context.Context, store *viewStore, gen uint64, projectID string, timeAt int64) {
	tokensByChain := store.tokensByChain(gen, projectID)
	prices := make(map[string]float64)
	for chain, ids := range tokensByChain {
		chainPrices, err := s.historicalPrices(ctx, chain, ids, timeAt)
		if err != nil {
			s.logger.Debug("Historical price fetch failed for chain",
				zap.String("project", projectID), zap.String("chain", chain), zap.Error(err))
			continue
		}
		for id, price := range chainPrices {
			prices[id] = price
		}
	}
	if len(prices) == 0 {
		return
	}
	store.patchPrice(gen, projectID, prices)
}

// historicalPrices resolves token prices through the TTL cache, fetching
// only ids the cache misses.
func (s *ViewServiceImpl) historicalPrices(ctx context.Context, chain string, tokenIDs []string, timeAt int64) (map[string]float64, error) {
	prices := make(map[string]float64, len(tokenIDs))
	missing := make([]string, 0, len(tokenIDs))
	for _, id := range tokenIDs {
		if v, found := s.priceCache.Get(priceCacheKey(chain, id, timeAt)); found {
			if p, ok := v.(float64); ok {
				prices[id] = p
				continue
			}
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return prices, nil
	}

	fetched, err := s.pricing.HistoricalTokenPrices(ctx, chain, missing, timeAt)
	if err != nil {
		return nil, err
	}
	for id, price := range fetched {
		prices[id] = price
		s.priceCache.Set(priceCacheKey(chain, id, timeAt), price, cache.DefaultExpiration)
	}
	return prices, nil
}

func priceCacheKey(chain, tokenID string, timeAt int64) string {
	// Bucket by hour so overlapping refreshes share entries.
	return fmt.Sprintf("%s_%s_%d", chain, tokenID, timeAt/3600)
}

// grossWorth reduces the wallet token list into the rollup kept for the
// summary and changes surfaces.
func (s *ViewServiceImpl) grossWorth(tokens []entity.Position) *display.GrossWorth {
	items := make([]entity.BalanceItem, 0, len(tokens))
	for _, pos := range tokens {
		items = append(items, entity.BalanceItem{
			ID:             display.TokenKey(pos.ID, pos.Chain),
			Chain:          pos.Chain,
			Symbol:         pos.Symbol,
			Amount:         pos.Amount,
			Price:          pos.Price,
			Price24hChange: pos.Price24hChange,
		})
	}
	gw := display.SumGrossWorth(nil, items)
	return &gw
}

// View implements port.ViewService.
func (s *ViewServiceImpl) View(addr string) port.View {
	store := s.store(addr)
	store.mu.RLock()
	defer store.mu.RUnlock()
	return port.View{
		Data:      display.SortedProjects(store.dict),
		NetWorth:  display.SumNetWorth(store.dict),
		HasValue:  store.hasValue,
		IsLoading: store.isLoading,
	}
}

// WalletView implements port.ViewService.
func (s *ViewServiceImpl) WalletView(addr string) port.View {
	store := s.store(addr)
	store.mu.RLock()
	defer store.mu.RUnlock()
	var data []*display.Project
	var netWorth float64
	if prj, ok := store.dict[display.WalletProjectID]; ok {
		data = []*display.Project{prj}
		netWorth = prj.NetWorth
	}
	return port.View{
		Data:      data,
		NetWorth:  netWorth,
		HasValue:  netWorth != 0,
		IsLoading: store.isLoading,
	}
}

// AppView implements port.ViewService.
func (s *ViewServiceImpl) AppView(addr string) port.View {
	store := s.store(addr)
	store.mu.RLock()
	defer store.mu.RUnlock()
	apps := make(map[string]*display.Project, len(store.dict))
	for id, prj := range store.dict {
		if id == display.WalletProjectID {
			continue
		}
		apps[id] = prj
	}
	netWorth := display.SumNetWorth(apps)
	return port.View{
		Data:      display.SortedProjects(apps),
		NetWorth:  netWorth,
		HasValue:  netWorth != 0,
		IsLoading: store.isLoading,
	}
}

// Summary implements port.ViewService.
func (s *ViewServiceImpl) Summary(addr string) (display.GrossWorth, []display.Asset) {
	store := s.store(addr)
	store.mu.RLock()
	defer store.mu.RUnlock()
	if store.curGross == nil {
		return display.GrossWorth{}, nil
	}
	gw := *store.curGross
	assets := make([]display.Asset, 0, len(gw.Assets))
	for _, row := range gw.Assets {
		assets = append(assets, display.Asset{
			ID:     row.ID,
			Symbol: row.Symbol,
			Value:  row.Value,
			Price:  row.Price,
			Amount: row.Amount,
		})
	}
	return gw, display.GroupAssets(assets, gw.NetWorth, 0)
}

// Changes implements port.ViewService.
func (s *ViewServiceImpl) Changes(addr string) []display.AssetDelta {
	store := s.store(addr)
	store.mu.RLock()
	defer store.mu.RUnlock()
	if store.prevGross == nil || store.curGross == nil {
		return nil
	}
	return display.CompareAssets(*store.prevGross, *store.curGross)
}

func (s *ViewServiceImpl) store(addr string) *viewStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.stores[addr]
	if !ok {
		st = &viewStore{addr: addr, dict: make(map[string]*display.Project)}
		s.stores[addr] = st
	}
	return st
}

func (st *viewStore) begin() uint64 {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.gen++
	st.isLoading = true
	return st.gen
}

func (st *viewStore) finish(gen uint64) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.gen != gen {
		return
	}
	st.isLoading = false
}

// commitSnapshot swaps in a freshly built tree. Returns false when this
// refresh has been superseded, in which case nothing was written.
func (st *viewStore) commitSnapshot(gen uint64, dict map[string]*display.Project) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.gen != gen {
		metrics.StaleCommitsDiscarded.Inc()
		return false
	}
	st.dict = dict
	st.netWorth = display.SumNetWorth(dict)
	st.hasValue = st.netWorth != 0
	return true
}

func (st *viewStore) commitGross(gen uint64, gw *display.GrossWorth) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.gen != gen {
		metrics.StaleCommitsDiscarded.Inc()
		return
	}
	st.prevGross = st.curGross
	st.curGross = gw
}

func (st *viewStore) projectIDs(gen uint64) []string {
	st.mu.RLock()
	defer st.mu.RUnlock()
	if st.gen != gen {
		return nil
	}
	ids := make([]string, 0, len(st.dict))
	for id := range st.dict {
		ids = append(ids, id)
	}
	return ids
}

func (st *viewStore) tokensByChain(gen uint64, projectID string) map[string][]string {
	st.mu.RLock()
	defer st.mu.RUnlock()
	if st.gen != gen {
		return nil
	}
	prj, ok := st.dict[projectID]
	if !ok {
		return nil
	}
	byChain := make(map[string][]string)
	for _, pf := range prj.PortfolioDict {
		for _, tk := range pf.TokenDict {
			byChain[tk.Chain] = append(byChain[tk.Chain], tk.TokenID)
		}
	}
	return byChain
}

func (st *viewStore) upsert(gen uint64, snap entity.ProjectSnapshot, opts display.Options) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.gen != gen {
		metrics.StaleCommitsDiscarded.Inc()
		return
	}
	display.UpsertProject(snap, st.dict, opts)
	st.netWorth = display.SumNetWorth(st.dict)
	st.hasValue = st.netWorth != 0
}

func (st *viewStore) patchHistory(gen uint64, snap *entity.ProjectSnapshot) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.gen != gen {
		metrics.StaleCommitsDiscarded.Inc()
		return
	}
	display.PatchProjectHistory(snap, st.dict)
}

func (st *viewStore) patchPrice(gen uint64, projectID string, prices map[string]float64) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.gen != gen {
		metrics.StaleCommitsDiscarded.Inc()
		return
	}
	if prj, ok := st.dict[projectID]; ok {
		prj.PatchPrice(prices)
	}
}
