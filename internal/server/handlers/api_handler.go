package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bdimitrov/skladov/internal/domain/models"
	"github.com/bdimitrov/skladov/internal/service/query"
	"github.com/bdimitrov/skladov/internal/service/reconcile"
	"github.com/bdimitrov/skladov/internal/service/report"
)

const dateLayout = "2006-01-02"

// APIHandler exposes the operator modes over HTTP: record a sale, register a
// product, search by document or product, and period summaries.
type APIHandler struct {
	reconciler *reconcile.Service
	resolver   *query.Service
	reports    *report.Service
	logger     *zap.Logger
}

// NewAPIHandler constructs the HTTP handler adapter.
func NewAPIHandler(reconciler *reconcile.Service, resolver *query.Service, reports *report.Service, logger *zap.Logger) *APIHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &APIHandler{reconciler: reconciler, resolver: resolver, reports: reports, logger: logger}
}

type addSaleRequest struct {
	DocumentID  string `json:"document_id" binding:"required"`
	Customer    string `json:"customer" binding:"required"`
	ProductName string `json:"product_name" binding:"required"`
	Quantity    int    `json:"quantity" binding:"required,gt=0"`
	UnitPrice   string `json:"unit_price" binding:"required"`
	Date        string `json:"date"`
	Note        string `json:"note"`
}

// AddSale records a new sale line item.
func (h *APIHandler) AddSale(c *gin.Context) {
	var req addSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid sale payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	price, err := decimal.NewFromString(req.UnitPrice)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unit_price must be a decimal number"})
		return
	}

	var date time.Time
	if req.Date != "" {
		date, err = time.Parse(dateLayout, req.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be formatted as " + dateLayout})
			return
		}
	}

	result, err := h.reconciler.AddSale(c.Request.Context(), reconcile.AddSaleParams{
		DocumentID:  req.DocumentID,
		Customer:    req.Customer,
		ProductName: req.ProductName,
		Quantity:    req.Quantity,
		UnitPrice:   price,
		Date:        date,
		Note:        req.Note,
	})
	if err != nil {
		h.fail(c, err, "failed recording sale")
		return
	}

	c.JSON(http.StatusCreated, result)
}

type addProductRequest struct {
	ProductName  string `json:"product_name" binding:"required"`
	InitialStock *int   `json:"initial_stock" binding:"required,gte=0"`
}

// AddProduct registers a new product with its starting stock.
func (h *APIHandler) AddProduct(c *gin.Context) {
	var req addProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid product payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.reconciler.AddProduct(c.Request.Context(), req.ProductName, *req.InitialStock); err != nil {
		h.fail(c, err, "failed registering product")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"product_name": req.ProductName, "initial_stock": *req.InitialStock})
}

// SearchDocument resolves a document number, AI-assisted when no exact
// match exists.
func (h *APIHandler) SearchDocument(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter q is required"})
		return
	}

	result, err := h.resolver.ResolveDocument(c.Request.Context(), q)
	if err != nil {
		h.fail(c, err, "document search failed")
		return
	}

	c.JSON(http.StatusOK, result)
}

// SearchProduct returns current stock and sales history for a product.
func (h *APIHandler) SearchProduct(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter q is required"})
		return
	}

	result, err := h.resolver.ResolveProduct(c.Request.Context(), q)
	if err != nil {
		h.fail(c, err, "product search failed")
		return
	}

	c.JSON(http.StatusOK, result)
}

// SalesSummary aggregates ledger activity between the optional from and to
// dates; an omitted bound is open.
func (h *APIHandler) SalesSummary(c *gin.Context) {
	var from, to time.Time
	var err error

	if v := c.Query("from"); v != "" {
		from, err = time.Parse(dateLayout, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from must be formatted as " + dateLayout})
			return
		}
	}
	if v := c.Query("to"); v != "" {
		to, err = time.Parse(dateLayout, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "to must be formatted as " + dateLayout})
			return
		}
	}

	summary, err := h.reports.SalesSummary(c.Request.Context(), from, to)
	if err != nil {
		h.fail(c, err, "summary failed")
		return
	}

	c.JSON(http.StatusOK, summary)
}

// fail maps the error taxonomy to HTTP statuses: lookup misses to 404,
// rejected input to 400, persistence failures (already rolled back) to 500.
func (h *APIHandler) fail(c *gin.Context, err error, logMsg string) {
	var pe *models.PersistenceError
	switch {
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &pe):
		h.logger.Error(logMsg, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "saving failed, no changes were applied"})
	default:
		h.logger.Error(logMsg, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
