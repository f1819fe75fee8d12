package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/fekuna/omnipos-stock-ledger/internal/httpx"
	"github.com/fekuna/omnipos-stock-ledger/internal/inventory"
	"github.com/fekuna/omnipos-stock-ledger/internal/inventory/dto"
	ledgerdto "github.com/fekuna/omnipos-stock-ledger/internal/ledger/dto"
	"github.com/fekuna/omnipos-stock-ledger/internal/logger"
	"github.com/fekuna/omnipos-stock-ledger/internal/model"
	"github.com/gin-gonic/gin"
)

const (
	defaultTopCustomers = 5
	defaultSalesDays    = 7
)

type InventoryHandler struct {
	uc     inventory.UseCase
	logger logger.ZapLogger
	now    func() time.Time
}

func NewInventoryHandler(uc inventory.UseCase, log logger.ZapLogger) *InventoryHandler {
	return &InventoryHandler{
		uc:     uc,
		logger: log,
		now:    time.Now,
	}
}

func (h *InventoryHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/transactions", h.ListTransactions)
	rg.POST("/transactions", h.ApplyTransaction)
	rg.GET("/products/:id/last-restock", h.LastRestock)

	reports := rg.Group("/reports")
	reports.GET("/low-stock", h.LowStock)
	reports.GET("/daily-sales", h.DailySales)
	reports.GET("/top-customers", h.TopCustomers)
	reports.GET("/reconciliation", h.Reconcile)
	reports.GET("/summary", h.Summary)
}

// Timestamp is accepted for compatibility with older clients and ignored; the
// server clock stamps every transaction.
type applyTransactionRequest struct {
	ProductID  string                `json:"productId"`
	CustomerID *string               `json:"customerId"`
	Quantity   int64                 `json:"quantity"`
	Type       model.TransactionType `json:"type"`
	Timestamp  json.RawMessage       `json:"timestamp"`
}

type lastRestockResponse struct {
	ProductID   string     `json:"productId"`
	LastRestock *time.Time `json:"lastRestock"`
}

func (h *InventoryHandler) ApplyTransaction(c *gin.Context) {
	var req applyTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	p, err := h.uc.ApplyTransaction(c.Request.Context(), &dto.ApplyTransactionInput{
		ProductID:  req.ProductID,
		CustomerID: req.CustomerID,
		Quantity:   req.Quantity,
		Type:       req.Type,
	})
	if err != nil {
		httpx.Error(c, h.logger, err, "ApplyTransaction "+req.ProductID)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *InventoryHandler) ListTransactions(c *gin.Context) {
	filter := ledgerdto.Filter{
		ProductID:  c.Query("productId"),
		CustomerID: c.Query("customerId"),
	}
	if raw := c.Query("type"); raw != "" {
		filter.Type = model.TransactionType(raw)
		if !filter.Type.Valid() {
			httpx.BadRequest(c, "type must be add or deduct")
			return
		}
	}
	switch c.DefaultQuery("order", "asc") {
	case "asc":
	case "desc":
		filter.Reverse = true
	default:
		httpx.BadRequest(c, "order must be asc or desc")
		return
	}

	txns, err := h.uc.ListTransactions(c.Request.Context(), filter)
	if err != nil {
		httpx.Error(c, h.logger, err, "ListTransactions")
		return
	}
	c.JSON(http.StatusOK, txns)
}

func (h *InventoryHandler) LastRestock(c *gin.Context) {
	id := c.Param("id")
	ts, err := h.uc.LastRestockDate(c.Request.Context(), id)
	if err != nil {
		httpx.Error(c, h.logger, err, "LastRestock "+id)
		return
	}
	c.JSON(http.StatusOK, lastRestockResponse{ProductID: id, LastRestock: ts})
}

func (h *InventoryHandler) LowStock(c *gin.Context) {
	products, err := h.uc.ListLowStock(c.Request.Context())
	if err != nil {
		httpx.Error(c, h.logger, err, "LowStock")
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *InventoryHandler) Summary(c *gin.Context) {
	summary, err := h.uc.Summary(c.Request.Context())
	if err != nil {
		httpx.Error(c, h.logger, err, "Summary")
		return
	}
	c.JSON(http.StatusOK, summary)
}

// DailySales defaults to the last seven UTC days ending today.
func (h *InventoryHandler) DailySales(c *gin.Context) {
	to := h.now().UTC()
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			httpx.BadRequest(c, "to must be a YYYY-MM-DD date")
			return
		}
		to = t
	}
	from := to.AddDate(0, 0, -(defaultSalesDays - 1))
	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			httpx.BadRequest(c, "from must be a YYYY-MM-DD date")
			return
		}
		from = t
	}

	totals, err := h.uc.DailySalesTotals(c.Request.Context(), from, to)
	if err != nil {
		httpx.Error(c, h.logger, err, "DailySales")
		return
	}
	c.JSON(http.StatusOK, totals)
}

func (h *InventoryHandler) TopCustomers(c *gin.Context) {
	n := defaultTopCustomers
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			httpx.BadRequest(c, "limit must be an integer")
			return
		}
		n = v
	}

	top, err := h.uc.TopCustomersBySales(c.Request.Context(), n)
	if err != nil {
		httpx.Error(c, h.logger, err, "TopCustomers")
		return
	}
	c.JSON(http.StatusOK, top)
}

func (h *InventoryHandler) Reconcile(c *gin.Context) {
	drifts, err := h.uc.Reconcile(c.Request.Context())
	if err != nil {
		httpx.Error(c, h.logger, err, "Reconcile")
		return
	}
	c.JSON(http.StatusOK, drifts)
}
