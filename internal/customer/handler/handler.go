package handler

import (
	"net/http"

	"github.com/fekuna/omnipos-stock-ledger/internal/customer"
	"github.com/fekuna/omnipos-stock-ledger/internal/customer/dto"
	"github.com/fekuna/omnipos-stock-ledger/internal/httpx"
	"github.com/fekuna/omnipos-stock-ledger/internal/logger"
	"github.com/gin-gonic/gin"
)

type CustomerHandler struct {
	uc     customer.UseCase
	logger logger.ZapLogger
}

func NewCustomerHandler(uc customer.UseCase, log logger.ZapLogger) *CustomerHandler {
	return &CustomerHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *CustomerHandler) RegisterRoutes(rg *gin.RouterGroup) {
	customers := rg.Group("/customers")
	customers.GET("", h.ListCustomers)
	customers.POST("", h.CreateCustomer)
	customers.GET("/:id", h.GetCustomer)
	customers.PUT("/:id", h.UpdateCustomer)
	customers.PATCH("/:id", h.UpdateCustomer)
	customers.DELETE("/:id", h.DeleteCustomer)
}

type createCustomerRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type updateCustomerRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Phone *string `json:"phone"`
}

func (h *CustomerHandler) CreateCustomer(c *gin.Context) {
	var req createCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	cust, err := h.uc.CreateCustomer(c.Request.Context(), &dto.CreateCustomerInput{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
	})
	if err != nil {
		httpx.Error(c, h.logger, err, "CreateCustomer")
		return
	}
	c.JSON(http.StatusCreated, cust)
}

func (h *CustomerHandler) GetCustomer(c *gin.Context) {
	cust, err := h.uc.GetCustomer(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpx.Error(c, h.logger, err, "GetCustomer "+c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, cust)
}

func (h *CustomerHandler) ListCustomers(c *gin.Context) {
	customers, err := h.uc.ListCustomers(c.Request.Context())
	if err != nil {
		httpx.Error(c, h.logger, err, "ListCustomers")
		return
	}
	c.JSON(http.StatusOK, customers)
}

func (h *CustomerHandler) UpdateCustomer(c *gin.Context) {
	var req updateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	cust, err := h.uc.UpdateCustomer(c.Request.Context(), &dto.UpdateCustomerInput{
		ID:    c.Param("id"),
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
	})
	if err != nil {
		httpx.Error(c, h.logger, err, "UpdateCustomer "+c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, cust)
}

func (h *CustomerHandler) DeleteCustomer(c *gin.Context) {
	cust, err := h.uc.DeleteCustomer(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpx.Error(c, h.logger, err, "DeleteCustomer "+c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, cust)
}
