// Package report computes period sales summaries, the on-demand equivalent
// of the totals row the operator's spreadsheet carried.
package report

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bdimitrov/skladov/internal/domain/models"
	"github.com/bdimitrov/skladov/internal/store"
)

// Service aggregates ledger activity.
type Service struct {
	store  *store.Store
	logger *zap.Logger
}

// NewService wires a reporting service instance.
func NewService(st *store.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: st, logger: logger}
}

// SalesSummary totals quantity and revenue between from and to (inclusive),
// with a per-product breakdown sorted by revenue descending.
func (s *Service) SalesSummary(_ context.Context, from, to time.Time) (models.SalesSummary, error) {
	records := s.store.RecordsBetween(from, to)

	totalRevenue := decimal.Zero
	totalQuantity := 0

	type bucket struct {
		quantity int
		revenue  decimal.Decimal
	}
	byProduct := map[string]*bucket{}
	var order []string

	for _, rec := range records {
		total := rec.TotalValue()
		totalRevenue = totalRevenue.Add(total)
		totalQuantity += rec.Quantity

		b, ok := byProduct[rec.ProductName]
		if !ok {
			b = &bucket{revenue: decimal.Zero}
			byProduct[rec.ProductName] = b
			order = append(order, rec.ProductName)
		}
		b.quantity += rec.Quantity
		b.revenue = b.revenue.Add(total)
	}

	products := make([]models.ProductTotal, 0, len(order))
	for _, name := range order {
		b := byProduct[name]
		products = append(products, models.ProductTotal{
			ProductName: name,
			Quantity:    b.quantity,
			Revenue:     b.revenue.StringFixed(2),
		})
	}
	sort.SliceStable(products, func(a, b int) bool {
		return byProduct[products[a].ProductName].revenue.GreaterThan(byProduct[products[b].ProductName].revenue)
	})

	return models.SalesSummary{
		From:          from,
		To:            to,
		Entries:       len(records),
		TotalQuantity: totalQuantity,
		TotalRevenue:  totalRevenue.StringFixed(2),
		Products:      products,
		GeneratedAt:   time.Now(),
	}, nil
}
