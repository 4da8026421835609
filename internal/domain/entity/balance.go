package entity

// BalanceItem is a flat priced balance row used by the simplified net-worth
// breakdown (coins plus tokens, no pool structure). Amount is signed the
// same way Position.Amount is.
type BalanceItem struct {
	ID             string   `json:"id"`
	Chain          string   `json:"chain,omitempty"`
	Symbol         string   `json:"symbol"`
	Amount         float64  `json:"amount"`
	Price          float64  `json:"price"`
	Price24hChange *float64 `json:"price_24h_change,omitempty"`
}
