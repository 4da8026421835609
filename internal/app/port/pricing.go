package port

import (
	"context"

	"portfolio_view/internal/domain/entity"
)

// PricingService defines the remote pricing/portfolio indexer this service
// consumes. All methods honor context cancellation; a cancelled call is a
// normal degraded outcome upstream, never surfaced to API consumers.
type PricingService interface {
	// ProjectSnapshot returns the full, possibly stale listing of all
	// protocol positions for an address. Used for first paint.
	ProjectSnapshot(ctx context.Context, addr string) ([]entity.ProjectSnapshot, error)

	// ProjectDetail returns the realtime positions of a single protocol.
	ProjectDetail(ctx context.Context, addr, projectID string) (*entity.ProjectSnapshot, error)

	// HistoricalProjectDetail returns a protocol's positions as of a unix
	// timestamp. Protocols without history support return a nil snapshot
	// and no error.
	HistoricalProjectDetail(ctx context.Context, addr, projectID string, timeAt int64) (*entity.ProjectSnapshot, error)

	// HistoricalTokenPrices returns a token-id keyed price dictionary for
	// one chain as of a unix timestamp.
	HistoricalTokenPrices(ctx context.Context, chain string, tokenIDs []string, timeAt int64) (map[string]float64, error)

	// TokenList returns the plain wallet token balances for an address.
	TokenList(ctx context.Context, addr string) ([]entity.Position, error)
}
