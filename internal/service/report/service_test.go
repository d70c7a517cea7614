package report

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bdimitrov/skladov/internal/domain/models"
	"github.com/bdimitrov/skladov/internal/store"
)

type stubSource struct {
	rows [][]string
}

func (s *stubSource) Load(context.Context) ([][]string, error)    { return s.rows, nil }
func (s *stubSource) Store(_ context.Context, r [][]string) error { s.rows = r; return nil }

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestSalesSummary(t *testing.T) {
	ledger := []models.LedgerRecord{
		{Date: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), DocumentID: "INV-1", ProductName: "Wheat", Quantity: 10, UnitPrice: dec("150.00")},
		{Date: time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC), DocumentID: "INV-2", ProductName: "Barley", Quantity: 5, UnitPrice: dec("80.00")},
		{Date: time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC), DocumentID: "INV-3", ProductName: "Wheat", Quantity: 2, UnitPrice: dec("150.00")},
		{Date: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), DocumentID: "INV-4", ProductName: "Wheat", Quantity: 100, UnitPrice: dec("150.00")},
	}
	inventory := []models.InventoryRecord{
		{ProductName: "Wheat", StockQuantity: 50},
		{ProductName: "Barley", StockQuantity: 20},
	}

	st := store.New(&stubSource{rows: store.MarshalLedger(ledger)}, &stubSource{rows: store.MarshalInventory(inventory)}, nil)
	require.NoError(t, st.Load(context.Background()))

	svc := NewService(st, nil)

	summary, err := svc.SalesSummary(context.Background(),
		time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Entries)
	assert.Equal(t, 17, summary.TotalQuantity)
	assert.Equal(t, "2200.00", summary.TotalRevenue)

	require.Len(t, summary.Products, 2)
	assert.Equal(t, "Wheat", summary.Products[0].ProductName) // highest revenue first
	assert.Equal(t, 12, summary.Products[0].Quantity)
	assert.Equal(t, "1800.00", summary.Products[0].Revenue)
	assert.Equal(t, "400.00", summary.Products[1].Revenue)
}

func TestSalesSummary_EmptyPeriod(t *testing.T) {
	st := store.New(&stubSource{rows: store.MarshalLedger(nil)}, &stubSource{rows: store.MarshalInventory(nil)}, nil)
	require.NoError(t, st.Load(context.Background()))

	svc := NewService(st, nil)

	summary, err := svc.SalesSummary(context.Background(), time.Time{}, time.Time{})
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Entries)
	assert.Equal(t, "0.00", summary.TotalRevenue)
	assert.Empty(t, summary.Products)
}
