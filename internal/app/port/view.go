package port

import (
	"context"

	"portfolio_view/internal/domain/display"
)

// View is the point-in-time state exposed to UI consumers for one address.
type View struct {
	Data      []*display.Project `json:"data"`
	NetWorth  float64            `json:"netWorth"`
	HasValue  bool               `json:"hasValue"`
	IsLoading bool               `json:"isLoading"`
}

// ViewService aggregates an address's positions into display trees and
// serves point-in-time reads of them.
type ViewService interface {
	// Refresh runs the snapshot, realtime and history phases for addr.
	// It never returns an error for degraded upstream data; the error is
	// only non-nil when the refresh could not start at all.
	Refresh(ctx context.Context, addr string) error

	// View returns the current state for addr. Safe to call while a
	// refresh is running.
	View(addr string) View

	// WalletView is View narrowed to the Wallet pseudo-project.
	WalletView(addr string) View

	// AppView is View narrowed to protocol positions, i.e. everything
	// except the Wallet pseudo-project.
	AppView(addr string) View

	// Summary returns the simplified grouped-assets breakdown for addr.
	Summary(addr string) (display.GrossWorth, []display.Asset)

	// Changes diffs the two most recent gross snapshots held for addr.
	Changes(addr string) []display.AssetDelta
}
