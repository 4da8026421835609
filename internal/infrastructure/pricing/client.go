// Package pricing implements port.PricingService over the remote
// pricing/indexing HTTP API.
package pricing

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"portfolio_view/internal/app/port"
	"portfolio_view/internal/domain/entity"
	"portfolio_view/internal/pkg/metrics"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Client talks to the pricing service. All failures are returned to the
// caller; the service layer decides how to degrade.
type Client struct {
	client              *fasthttp.Client
	baseURL             string
	timeout             time.Duration
	logger              *zap.Logger
	maxTokensPerRequest int
}

// NewClient creates a new pricing client.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger, maxTokensPerRequest int) port.PricingService {
	return &Client{
		client:              &fasthttp.Client{},
		baseURL:             strings.TrimRight(baseURL, "/"),
		timeout:             timeout,
		logger:              logger.Named("PricingClient"),
		maxTokensPerRequest: maxTokensPerRequest,
	}
}

// ProjectSnapshot implements port.PricingService.
func (c *Client) ProjectSnapshot(ctx context.Context, addr string) ([]entity.ProjectSnapshot, error) {
	var snaps []entity.ProjectSnapshot
	err := c.get(ctx, "snapshot", "/v1/user/complex_protocol_list", url.Values{"id": {addr}}, &snaps)
	if err != nil {
		return nil, err
	}
	return snaps, nil
}

// ProjectDetail implements port.PricingService.
func (c *Client) ProjectDetail(ctx context.Context, addr, projectID string) (*entity.ProjectSnapshot, error) {
	var snap entity.ProjectSnapshot
	err := c.get(ctx, "detail", "/v1/user/protocol", url.Values{"id": {addr}, "protocol_id": {projectID}}, &snap)
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// HistoricalProjectDetail implements port.PricingService. A 404 from the
// history endpoint means the protocol has no history support and is
// reported as a nil snapshot without error.
func (c *Client) HistoricalProjectDetail(ctx context.Context, addr, projectID string, timeAt int64) (*entity.ProjectSnapshot, error) {
	var snap entity.ProjectSnapshot
	err := c.get(ctx, "history", "/v1/user/historical_protocol", url.Values{
		"id":          {addr},
		"protocol_id": {projectID},
		"time_at":     {fmt.Sprintf("%d", timeAt)},
	}, &snap)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &snap, nil
}

// HistoricalTokenPrices implements port.PricingService, chunking the token
// id set to the configured batch size and merging the dictionaries.
func (c *Client) HistoricalTokenPrices(ctx context.Context, chain string, tokenIDs []string, timeAt int64) (map[string]float64, error) {
	if len(tokenIDs) == 0 {
		return map[string]float64{}, nil
	}

	prices := make(map[string]float64, len(tokenIDs))
	for _, batch := range batchStrings(tokenIDs, c.maxTokensPerRequest) {
		var chunk map[string]float64
		err := c.get(ctx, "history_price", "/v1/token/historical_price_list", url.Values{
			"chain_id": {chain},
			"ids":      {strings.Join(batch, ",")},
			"time_at":  {fmt.Sprintf("%d", timeAt)},
		}, &chunk)
		if err != nil {
			return nil, err
		}
		for id, price := range chunk {
			prices[id] = price
		}
	}
	return prices, nil
}

// TokenList implements port.PricingService.
func (c *Client) TokenList(ctx context.Context, addr string) ([]entity.Position, error) {
	var tokens []entity.Position
	err := c.get(ctx, "token_list", "/v1/user/token_list", url.Values{"id": {addr}, "is_all": {"true"}}, &tokens)
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

// notFoundError marks a 404 so callers can distinguish "no history" from a
// real failure.
type notFoundError struct{ url string }

func (e *notFoundError) Error() string {
	return fmt.Sprintf("pricing API request to %s returned 404", e.url)
}

func isNotFound(err error) bool {
	_, ok := err.(*notFoundError)
	return ok
}

func (c *Client) get(ctx context.Context, endpoint, path string, params url.Values, out any) error {
	requestURL := c.baseURL + path
	if len(params) > 0 {
		requestURL += "?" + params.Encode()
	}
	metrics.PricingRequestsTotal.WithLabelValues(endpoint).Inc()

	c.logger.Debug("Requesting pricing API", zap.String("url", requestURL))

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.SetContentTypeBytes([]byte("application/json"))

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	deadline, ok := ctx.Deadline()
	if ok {
		if err := c.client.DoDeadline(req, resp, deadline); err != nil {
			metrics.PricingRequestFailures.WithLabelValues(endpoint).Inc()
			c.logger.Error("Failed to execute request to pricing API", zap.String("url", requestURL), zap.Error(err))
			return fmt.Errorf("failed to execute request to %s: %w", requestURL, err)
		}
	} else {
		if err := c.client.DoTimeout(req, resp, c.timeout); err != nil {
			metrics.PricingRequestFailures.WithLabelValues(endpoint).Inc()
			c.logger.Error("Failed to execute request to pricing API (with default timeout)", zap.String("url", requestURL), zap.Error(err))
			return fmt.Errorf("failed to execute request to %s with default timeout: %w", requestURL, err)
		}
	}

	rawBody := resp.Body()

	if resp.StatusCode() == fasthttp.StatusNotFound {
		return &notFoundError{url: requestURL}
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		metrics.PricingRequestFailures.WithLabelValues(endpoint).Inc()
		c.logger.Error("Pricing API request failed",
			zap.String("url", requestURL),
			zap.Int("statusCode", resp.StatusCode()),
			zap.ByteString("responseBody", rawBody),
		)
		return fmt.Errorf("pricing API request to %s failed with status %d: %s", requestURL, resp.StatusCode(), string(rawBody))
	}

	if err := json.Unmarshal(rawBody, out); err != nil {
		metrics.PricingRequestFailures.WithLabelValues(endpoint).Inc()
		c.logger.Error("Failed to unmarshal pricing API response",
			zap.String("url", requestURL),
			zap.ByteString("responseBody", rawBody),
			zap.Error(err),
		)
		return fmt.Errorf("failed to unmarshal pricing API response from %s: %w", requestURL, err)
	}
	return nil
}

// batchStrings splits a string slice into batches of at most batchSize.
func batchStrings(items []string, batchSize int) [][]string {
	if batchSize <= 0 {
		batchSize = len(items)
	}
	if len(items) == 0 {
		return [][]string{}
	}

	var batches [][]string
	for i := 0; i < len(items); i += batchSize {
		end := i + batchSize
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[i:end])
	}
	return batches
}
