package restapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio_view/internal/app/port"
	"portfolio_view/internal/domain/display"
)

type stubViewService struct {
	refreshed  []string
	refreshErr error
	view       port.View
	gross      display.GrossWorth
	assets     []display.Asset
	deltas     []display.AssetDelta
}

func (s *stubViewService) Refresh(ctx context.Context, addr string) error {
	s.refreshed = append(s.refreshed, addr)
	return s.refreshErr
}

func (s *stubViewService) View(addr string) port.View       { return s.view }
func (s *stubViewService) WalletView(addr string) port.View { return s.view }
func (s *stubViewService) AppView(addr string) port.View    { return s.view }
func (s *stubViewService) Summary(addr string) (display.GrossWorth, []display.Asset) {
	return s.gross, s.assets
}
func (s *stubViewService) Changes(addr string) []display.AssetDelta { return s.deltas }

const validAddr = "0x7a16fF8270133F063aAb6C9977183D9e72835428"

func setupTestRouter(svc port.ViewService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return SetupRouter(NewPortfolioHandler(svc))
}

func doRequest(t *testing.T, router *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, path, nil)
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestGetPortfolio_InvalidAddressRejected(t *testing.T) {
	svc := &stubViewService{}
	router := setupTestRouter(svc)

	rec := doRequest(t, router, "/api/v1/portfolio/not-an-address")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, svc.refreshed, "an invalid address must not trigger a refresh")
}

func TestGetPortfolio_RefreshesAndReturnsView(t *testing.T) {
	svc := &stubViewService{
		view: port.View{NetWorth: 120, HasValue: true},
	}
	router := setupTestRouter(svc)

	rec := doRequest(t, router, "/api/v1/portfolio/"+validAddr)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, svc.refreshed, 1)
	// The handler normalizes the address to its checksummed form.
	assert.Equal(t, validAddr, svc.refreshed[0])

	var resp APIPortfolioResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.InDelta(t, 120.0, resp.Data.NetWorth, 1e-9)
	assert.Equal(t, "Portfolio retrieved successfully.", resp.StatusMessage)
}

func TestGetPortfolio_LowercaseAddressAccepted(t *testing.T) {
	svc := &stubViewService{view: port.View{HasValue: true}}
	router := setupTestRouter(svc)

	rec := doRequest(t, router, "/api/v1/portfolio/0x7a16ff8270133f063aab6c9977183d9e72835428")

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, svc.refreshed, 1)
	assert.Equal(t, validAddr, svc.refreshed[0])
}

func TestGetPortfolio_RefreshFailureIsBadGateway(t *testing.T) {
	svc := &stubViewService{refreshErr: assert.AnError}
	router := setupTestRouter(svc)

	rec := doRequest(t, router, "/api/v1/portfolio/"+validAddr)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestGetWallet_DoesNotRefresh(t *testing.T) {
	svc := &stubViewService{view: port.View{HasValue: true}}
	router := setupTestRouter(svc)

	rec := doRequest(t, router, "/api/v1/portfolio/"+validAddr+"/wallet")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, svc.refreshed)
}

func TestGetApps_DoesNotRefresh(t *testing.T) {
	svc := &stubViewService{view: port.View{NetWorth: 40, HasValue: true}}
	router := setupTestRouter(svc)

	rec := doRequest(t, router, "/api/v1/portfolio/"+validAddr+"/apps")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, svc.refreshed)

	var resp APIPortfolioResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.InDelta(t, 40.0, resp.Data.NetWorth, 1e-9)
	assert.Equal(t, "Protocol positions retrieved successfully.", resp.StatusMessage)
}

func TestGetSummary(t *testing.T) {
	svc := &stubViewService{
		gross:  display.GrossWorth{NetWorth: 100, Assets: []display.GrossAsset{{ID: "usdceth", Value: 100}}},
		assets: []display.Asset{{ID: "usdceth", Value: 100, Percent: 100}},
	}
	router := setupTestRouter(svc)

	rec := doRequest(t, router, "/api/v1/portfolio/"+validAddr+"/summary")

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp APISummaryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.InDelta(t, 100.0, resp.Data.GrossWorth.NetWorth, 1e-9)
	require.Len(t, resp.Data.Assets, 1)
}

func TestGetChanges_NotEnoughRefreshes(t *testing.T) {
	svc := &stubViewService{}
	router := setupTestRouter(svc)

	rec := doRequest(t, router, "/api/v1/portfolio/"+validAddr+"/changes")

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp APIChangesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Not enough refreshes to compare. Fetch the portfolio at least twice.", resp.StatusMessage)
}

func TestGetChanges_ReturnsDeltas(t *testing.T) {
	svc := &stubViewService{
		deltas: []display.AssetDelta{{ID: "usdceth", NetWorthChangeValue: 50, NetWorthChangeStr: "+$50.00"}},
	}
	router := setupTestRouter(svc)

	rec := doRequest(t, router, "/api/v1/portfolio/"+validAddr+"/changes")

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp APIChangesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Deltas, 1)
	assert.Equal(t, "usdceth", resp.Data.Deltas[0].ID)
}
