// Package reconcile applies a new sale to the ledger and inventory as one
// indivisible operation.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bdimitrov/skladov/internal/domain/models"
	"github.com/bdimitrov/skladov/internal/store"
)

// Auditor archives applied sales. Implemented by the MongoDB repository.
type Auditor interface {
	SaveSaleAudit(ctx context.Context, audit models.SaleAudit) error
}

// Service is the reconciliation engine.
type Service struct {
	store   *store.Store
	auditor Auditor // may be nil
	logger  *zap.Logger
}

// NewService wires a reconciliation service. auditor may be nil.
func NewService(st *store.Store, auditor Auditor, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: st, auditor: auditor, logger: logger}
}

// AddSaleParams holds the fields of a new sale line item.
type AddSaleParams struct {
	DocumentID  string
	Customer    string
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
	Date        time.Time
	Note        string
}

// AddSaleResult reports the appended record, the product's stock after the
// decrement, and a low-stock warning when that stock went below zero.
type AddSaleResult struct {
	Record        models.LedgerRecord     `json:"record"`
	StockQuantity int                     `json:"stock_quantity"`
	Warning       *models.LowStockWarning `json:"warning,omitempty"`
}

// AddSale validates the parameters, then appends the ledger record and
// decrements the product's stock in one transaction. A product never seen
// before gets an inventory record created at stock 0 first, so its stock
// ends up negative and carries a warning. Oversell is allowed; only
// persistence failures make the operation fail, and those roll back.
func (s *Service) AddSale(ctx context.Context, p AddSaleParams) (AddSaleResult, error) {
	if err := p.validate(); err != nil {
		return AddSaleResult{}, err
	}

	rec := models.LedgerRecord{
		Date:        p.Date,
		DocumentID:  strings.TrimSpace(p.DocumentID),
		Customer:    strings.ToUpper(strings.TrimSpace(p.Customer)),
		ProductName: strings.TrimSpace(p.ProductName),
		Quantity:    p.Quantity,
		UnitPrice:   p.UnitPrice,
		Note:        strings.TrimSpace(p.Note),
	}
	if rec.Date.IsZero() {
		rec.Date = time.Now()
	}

	stock, err := s.store.ApplySale(ctx, rec)
	if err != nil {
		return AddSaleResult{}, err
	}

	result := AddSaleResult{Record: rec, StockQuantity: stock}
	if stock < 0 {
		result.Warning = &models.LowStockWarning{ProductName: rec.ProductName, StockQuantity: stock}
		s.logger.Warn("sale oversold stock",
			zap.String("product", rec.ProductName),
			zap.Int("stock", stock))
	}

	s.logger.Info("sale recorded",
		zap.String("document_id", rec.DocumentID),
		zap.String("product", rec.ProductName),
		zap.Int("quantity", rec.Quantity),
		zap.Int("stock_after", stock))

	s.archive(ctx, rec, result)
	return result, nil
}

// AddProduct registers a brand-new product with its starting stock, the
// explicit counterpart to the zero-stock record a first sale creates
// implicitly. Duplicate names are rejected.
func (s *Service) AddProduct(ctx context.Context, name string, initialStock int) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: product name must not be empty", models.ErrInvalidInput)
	}
	if initialStock < 0 {
		return fmt.Errorf("%w: initial stock must not be negative", models.ErrInvalidInput)
	}

	if err := s.store.CreateProduct(ctx, name, initialStock); err != nil {
		if errors.Is(err, models.ErrInvalidInput) {
			return fmt.Errorf("%w: product %q already exists", models.ErrInvalidInput, name)
		}
		return err
	}

	s.logger.Info("product registered",
		zap.String("product", name),
		zap.Int("initial_stock", initialStock))
	return nil
}

func (p AddSaleParams) validate() error {
	if strings.TrimSpace(p.DocumentID) == "" {
		return fmt.Errorf("%w: document_id must not be empty", models.ErrInvalidInput)
	}
	if strings.TrimSpace(p.ProductName) == "" {
		return fmt.Errorf("%w: product_name must not be empty", models.ErrInvalidInput)
	}
	if p.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", models.ErrInvalidInput)
	}
	if p.UnitPrice.IsNegative() {
		return fmt.Errorf("%w: unit price must not be negative", models.ErrInvalidInput)
	}
	return nil
}

func (s *Service) archive(ctx context.Context, rec models.LedgerRecord, result AddSaleResult) {
	if s.auditor == nil {
		return
	}

	audit := models.SaleAudit{
		DocumentID:  rec.DocumentID,
		Customer:    rec.Customer,
		ProductName: rec.ProductName,
		Quantity:    rec.Quantity,
		UnitPrice:   rec.UnitPrice.StringFixed(2),
		TotalValue:  rec.TotalValue().StringFixed(2),
		StockAfter:  result.StockQuantity,
		LowStock:    result.Warning != nil,
		RecordedAt:  time.Now(),
	}
	if err := s.auditor.SaveSaleAudit(ctx, audit); err != nil {
		s.logger.Error("failed to archive sale audit", zap.Error(err))
	}
}
