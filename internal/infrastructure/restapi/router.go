package restapi

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRouter configures and returns the Gin router instance.
func SetupRouter(portfolioHandler *PortfolioHandler) *gin.Engine {
	router := gin.Default()
	router.Use(cors.Default())

	v1 := router.Group("/api/v1")
	{
		v1.GET("/portfolio/:address", portfolioHandler.GetPortfolioHandler)
		v1.GET("/portfolio/:address/wallet", portfolioHandler.GetWalletHandler)
		v1.GET("/portfolio/:address/apps", portfolioHandler.GetAppsHandler)
		v1.GET("/portfolio/:address/summary", portfolioHandler.GetSummaryHandler)
		v1.GET("/portfolio/:address/changes", portfolioHandler.GetChangesHandler)
	}

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.StaticFile("/docs/swagger.yaml", "./docs/swagger.yaml")

	return router
}
