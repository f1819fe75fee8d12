// Package server assembles the HTTP surface of the stock ledger.
package server

import (
	"net/http"
	"strconv"
	"time"

	customerhandler "github.com/fekuna/omnipos-stock-ledger/internal/customer/handler"
	"github.com/fekuna/omnipos-stock-ledger/internal/httpx"
	inventoryhandler "github.com/fekuna/omnipos-stock-ledger/internal/inventory/handler"
	"github.com/fekuna/omnipos-stock-ledger/internal/logger"
	"github.com/fekuna/omnipos-stock-ledger/internal/metrics"
	producthandler "github.com/fekuna/omnipos-stock-ledger/internal/product/handler"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handlers struct {
	Products  *producthandler.ProductHandler
	Customers *customerhandler.CustomerHandler
	Inventory *inventoryhandler.InventoryHandler
}

func NewRouter(h Handlers, m *metrics.Registry, log logger.ZapLogger) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		httpx.RequestIDMiddleware(),
		accessLog(log),
		countRequests(m),
	)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(m.Handler()))

	// The browser client talks to /api; the bare paths stay for other callers.
	for _, api := range []*gin.RouterGroup{router.Group(""), router.Group("/api")} {
		h.Products.RegisterRoutes(api)
		h.Customers.RegisterRoutes(api)
		h.Inventory.RegisterRoutes(api)
	}

	return router
}

func accessLog(log logger.ZapLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("http request",
			zap.String("request_id", httpx.RequestID(c)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

func countRequests(m *metrics.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPReqs.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
