package handler

import (
	"net/http"
	"strconv"

	"github.com/fekuna/omnipos-stock-ledger/internal/httpx"
	"github.com/fekuna/omnipos-stock-ledger/internal/logger"
	"github.com/fekuna/omnipos-stock-ledger/internal/product"
	"github.com/fekuna/omnipos-stock-ledger/internal/product/dto"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type ProductHandler struct {
	uc     product.UseCase
	logger logger.ZapLogger
}

func NewProductHandler(uc product.UseCase, log logger.ZapLogger) *ProductHandler {
	return &ProductHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *ProductHandler) RegisterRoutes(rg *gin.RouterGroup) {
	products := rg.Group("/products")
	products.GET("", h.ListProducts)
	products.POST("", h.CreateProduct)
	products.GET("/:id", h.GetProduct)
	products.PUT("/:id", h.UpdateProduct)
	products.PATCH("/:id", h.UpdateProduct)
	products.DELETE("/:id", h.DeleteProduct)
}

type createProductRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int64           `json:"quantity"`
}

// Absent fields are left unchanged. Quantity is accepted for compatibility and
// ignored; stock only moves through transactions.
type updateProductRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Category    *string          `json:"category"`
	Price       *decimal.Decimal `json:"price"`
	Quantity    *int64           `json:"quantity"`
}

func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	p, err := h.uc.CreateProduct(c.Request.Context(), &dto.CreateProductInput{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Price:       req.Price,
		Quantity:    req.Quantity,
	})
	if err != nil {
		httpx.Error(c, h.logger, err, "CreateProduct")
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *ProductHandler) GetProduct(c *gin.Context) {
	p, err := h.uc.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpx.Error(c, h.logger, err, "GetProduct "+c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) ListProducts(c *gin.Context) {
	filters := &dto.ProductFilters{
		Category:    c.Query("category"),
		SearchQuery: c.Query("search"),
	}
	if raw := c.Query("lowStock"); raw != "" {
		low, err := strconv.ParseBool(raw)
		if err != nil {
			httpx.BadRequest(c, "lowStock must be true or false")
			return
		}
		filters.LowStock = low
	}

	products, err := h.uc.ListProducts(c.Request.Context(), filters)
	if err != nil {
		httpx.Error(c, h.logger, err, "ListProducts")
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	var req updateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	p, err := h.uc.UpdateProduct(c.Request.Context(), &dto.UpdateProductInput{
		ID:          c.Param("id"),
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Price:       req.Price,
	})
	if err != nil {
		httpx.Error(c, h.logger, err, "UpdateProduct "+c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	p, err := h.uc.DeleteProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpx.Error(c, h.logger, err, "DeleteProduct "+c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, p)
}
