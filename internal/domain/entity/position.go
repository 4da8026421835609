package entity

// Position represents a single priced token balance as delivered by the
// pricing/indexing service. Amount is signed: a negative amount denotes a
// debt (e.g. a borrowed asset inside a lending pool).
type Position struct {
	ID             string   `json:"id"`
	Chain          string   `json:"chain"`
	Amount         float64  `json:"amount"`
	Price          float64  `json:"price"`
	Decimals       int32    `json:"decimals"`
	Symbol         string   `json:"symbol"`
	DisplaySymbol  string   `json:"display_symbol,omitempty"`
	IsCore         bool     `json:"is_core"`
	IsVerified     bool     `json:"is_verified"`
	IsWallet       bool     `json:"is_wallet"`
	Name           string   `json:"name"`
	TimeAt         int64    `json:"time_at"`
	Price24hChange *float64 `json:"price_24h_change,omitempty"`
	LogoURL        string   `json:"logo_url,omitempty"`
}

// PoolStats carries pool-level aggregates computed by the backend. The
// backend may correct debt-inflated pools here, so when NetUSDValue is
// present it is considered authoritative over any token-level summation.
type PoolStats struct {
	AssetUSDValue float64  `json:"asset_usd_value"`
	DebtUSDValue  float64  `json:"debt_usd_value"`
	NetUSDValue   *float64 `json:"net_usd_value,omitempty"`
}

// PoolPosition is one position held inside a project: one lending market,
// one LP pair and so on. PositionIndex disambiguates several positions in
// the same pool (e.g. two ranges in the same concentrated-liquidity pool).
type PoolPosition struct {
	ID            string     `json:"id"`
	PositionIndex string     `json:"position_index,omitempty"`
	Name          string     `json:"name"`
	DetailTypes   []string   `json:"detail_types,omitempty"`
	Stats         *PoolStats `json:"stats,omitempty"`
	Tokens        []Position `json:"tokens"`
	TimeAt        int64      `json:"time_at,omitempty"`
}

// ProjectMeta identifies a protocol/dApp the wallet holds positions in.
type ProjectMeta struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Chain   string `json:"chain"`
	SiteURL string `json:"site_url,omitempty"`
	LogoURL string `json:"logo_url,omitempty"`
}

// ProjectSnapshot is one protocol with all of its pools, as returned both by
// the full snapshot endpoint and by the per-protocol detail endpoints.
type ProjectSnapshot struct {
	ProjectMeta
	Pools []PoolPosition `json:"portfolio_item_list"`
}
