package restapi

import (
	"net/http"

	"portfolio_view/internal/app/port"
	"portfolio_view/internal/domain/display"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

// APIPortfolioResponse is the envelope for the portfolio view endpoints.
type APIPortfolioResponse struct {
	Data          port.View `json:"data"`
	StatusMessage string    `json:"status_message"`
}

// APISummaryResponse is the envelope for the grouped-assets summary endpoint.
type APISummaryResponse struct {
	Data struct {
		GrossWorth display.GrossWorth `json:"grossWorth"`
		Assets     []display.Asset    `json:"assets"`
	} `json:"data"`
	StatusMessage string `json:"status_message"`
}

// APIChangesResponse is the envelope for the between-refreshes diff endpoint.
type APIChangesResponse struct {
	Data struct {
		Deltas []display.AssetDelta `json:"deltas"`
	} `json:"data"`
	StatusMessage string `json:"status_message"`
}

// APIErrorResponse carries a request-level failure.
type APIErrorResponse struct {
	Error string `json:"error"`
}

// PortfolioHandler handles the portfolio view HTTP endpoints.
type PortfolioHandler struct {
	viewService port.ViewService
}

// NewPortfolioHandler creates a new PortfolioHandler instance.
func NewPortfolioHandler(vs port.ViewService) *PortfolioHandler {
	return &PortfolioHandler{viewService: vs}
}

// address validates the path parameter and writes a 400 itself when the
// value is not a hex address.
func (h *PortfolioHandler) address(c *gin.Context) (string, bool) {
	addr := c.Param("address")
	if !common.IsHexAddress(addr) {
		c.JSON(http.StatusBadRequest, APIErrorResponse{Error: "invalid address: expected a 0x-prefixed hex address"})
		return "", false
	}
	return common.HexToAddress(addr).Hex(), true
}

// GetPortfolioHandler runs a refresh and returns the full project tree.
func (h *PortfolioHandler) GetPortfolioHandler(c *gin.Context) {
	addr, ok := h.address(c)
	if !ok {
		return
	}

	if err := h.viewService.Refresh(c.Request.Context(), addr); err != nil {
		c.JSON(http.StatusBadGateway, APIErrorResponse{Error: err.Error()})
		return
	}

	view := h.viewService.View(addr)
	response := APIPortfolioResponse{Data: view}
	if !view.HasValue {
		response.StatusMessage = "No portfolio data found for this address."
	} else {
		response.StatusMessage = "Portfolio retrieved successfully."
	}
	c.JSON(http.StatusOK, response)
}

// GetWalletHandler returns the view narrowed to plain wallet balances.
func (h *PortfolioHandler) GetWalletHandler(c *gin.Context) {
	addr, ok := h.address(c)
	if !ok {
		return
	}

	view := h.viewService.WalletView(addr)
	response := APIPortfolioResponse{Data: view}
	if !view.HasValue {
		response.StatusMessage = "No wallet balances found for this address."
	} else {
		response.StatusMessage = "Wallet balances retrieved successfully."
	}
	c.JSON(http.StatusOK, response)
}

// GetAppsHandler returns the view narrowed to protocol positions.
func (h *PortfolioHandler) GetAppsHandler(c *gin.Context) {
	addr, ok := h.address(c)
	if !ok {
		return
	}

	view := h.viewService.AppView(addr)
	response := APIPortfolioResponse{Data: view}
	if !view.HasValue {
		response.StatusMessage = "No protocol positions found for this address."
	} else {
		response.StatusMessage = "Protocol positions retrieved successfully."
	}
	c.JSON(http.StatusOK, response)
}

// GetSummaryHandler returns the grouped simplified breakdown.
func (h *PortfolioHandler) GetSummaryHandler(c *gin.Context) {
	addr, ok := h.address(c)
	if !ok {
		return
	}

	gross, assets := h.viewService.Summary(addr)
	response := APISummaryResponse{}
	response.Data.GrossWorth = gross
	response.Data.Assets = assets
	if len(gross.Assets) == 0 {
		response.StatusMessage = "No summary available yet. Fetch the portfolio first."
	} else {
		response.StatusMessage = "Summary retrieved successfully."
	}
	c.JSON(http.StatusOK, response)
}

// GetChangesHandler diffs the two most recent refreshes of this address.
func (h *PortfolioHandler) GetChangesHandler(c *gin.Context) {
	addr, ok := h.address(c)
	if !ok {
		return
	}

	deltas := h.viewService.Changes(addr)
	response := APIChangesResponse{}
	response.Data.Deltas = deltas
	if deltas == nil {
		response.StatusMessage = "Not enough refreshes to compare. Fetch the portfolio at least twice."
	} else {
		response.StatusMessage = "Changes retrieved successfully."
	}
	c.JSON(http.StatusOK, response)
}
