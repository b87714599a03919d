// Package routes wires the HTTP surface onto a gin engine.
package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rampa-cash/rampa-cash-api-sub002/internal/api/handlers"
	"github.com/rampa-cash/rampa-cash-api-sub002/pkg/tracing"
)

// Setup registers every route on the engine.
func Setup(router *gin.Engine, wallet *handlers.WalletHandler, balance *handlers.BalanceHandler, transfer *handlers.TransferHandler, registry *prometheus.Registry) {
	router.Use(tracing.HTTPMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/wallets", wallet.CreateWallet)
		v1.GET("/wallets/:id", wallet.GetWallet)
		v1.GET("/provisioning/metrics", wallet.GetProvisioningMetrics)

		v1.GET("/wallets/:id/balances", balance.GetBalances)
		v1.GET("/wallets/:id/balances/:token", balance.GetBalance)
		v1.POST("/wallets/:id/balances/invalidate", balance.InvalidateBalances)

		v1.POST("/transfers/build", transfer.BuildTransfer)
	}
}
