package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bdimitrov/skladov/internal/domain/models"
	"github.com/bdimitrov/skladov/internal/store"
)

type stubSource struct {
	rows     [][]string
	storeErr error
}

func (s *stubSource) Load(context.Context) ([][]string, error) { return s.rows, nil }

func (s *stubSource) Store(_ context.Context, rows [][]string) error {
	if s.storeErr != nil {
		return s.storeErr
	}
	s.rows = rows
	return nil
}

type stubAuditor struct {
	saved []models.SaleAudit
	err   error
}

func (a *stubAuditor) SaveSaleAudit(_ context.Context, audit models.SaleAudit) error {
	if a.err != nil {
		return a.err
	}
	a.saved = append(a.saved, audit)
	return nil
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func newService(t *testing.T, inventory []models.InventoryRecord, auditor Auditor) (*Service, *stubSource) {
	t.Helper()

	invSrc := &stubSource{rows: store.MarshalInventory(inventory)}
	st := store.New(&stubSource{rows: store.MarshalLedger(nil)}, invSrc, nil)
	require.NoError(t, st.Load(context.Background()))
	return NewService(st, auditor, nil), invSrc
}

func params(product string, qty int) AddSaleParams {
	return AddSaleParams{
		DocumentID:  "INV-100",
		Customer:    "Ivan Petrov",
		ProductName: product,
		Quantity:    qty,
		UnitPrice:   dec("150.00"),
		Date:        time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
	}
}

func TestAddSale(t *testing.T) {
	auditor := &stubAuditor{}
	svc, _ := newService(t, []models.InventoryRecord{{ProductName: "Wheat", StockQuantity: 10}}, auditor)

	result, err := svc.AddSale(context.Background(), params("Wheat", 4))
	require.NoError(t, err)

	assert.Equal(t, 6, result.StockQuantity)
	assert.Nil(t, result.Warning)
	assert.Equal(t, "IVAN PETROV", result.Record.Customer)
	assert.Equal(t, "600.00", result.Record.TotalValue().StringFixed(2))

	require.Len(t, auditor.saved, 1)
	assert.Equal(t, "INV-100", auditor.saved[0].DocumentID)
	assert.Equal(t, "600.00", auditor.saved[0].TotalValue)
	assert.False(t, auditor.saved[0].LowStock)
}

func TestAddSale_OversellWarning(t *testing.T) {
	svc, _ := newService(t, []models.InventoryRecord{{ProductName: "Wheat", StockQuantity: 3}}, nil)

	result, err := svc.AddSale(context.Background(), params("Wheat", 5))
	require.NoError(t, err)

	assert.Equal(t, -2, result.StockQuantity)
	require.NotNil(t, result.Warning)
	assert.Equal(t, "Wheat", result.Warning.ProductName)
	assert.Equal(t, -2, result.Warning.StockQuantity)
}

func TestAddSale_NewProductCreatedAtZero(t *testing.T) {
	svc, _ := newService(t, nil, nil)

	result, err := svc.AddSale(context.Background(), params("Oats", 5))
	require.NoError(t, err)

	assert.Equal(t, -5, result.StockQuantity)
	require.NotNil(t, result.Warning)
}

func TestAddSale_Validation(t *testing.T) {
	svc, _ := newService(t, nil, nil)

	cases := map[string]AddSaleParams{
		"empty document": {ProductName: "Wheat", Quantity: 1, UnitPrice: dec("1")},
		"empty product":  {DocumentID: "INV-1", Quantity: 1, UnitPrice: dec("1")},
		"zero quantity":  {DocumentID: "INV-1", ProductName: "Wheat", UnitPrice: dec("1")},
		"negative price": {DocumentID: "INV-1", ProductName: "Wheat", Quantity: 1, UnitPrice: dec("-1")},
	}

	for name, p := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.AddSale(context.Background(), p)
			assert.ErrorIs(t, err, models.ErrInvalidInput)
		})
	}
}

func TestAddSale_PersistenceFailure(t *testing.T) {
	svc, invSrc := newService(t, []models.InventoryRecord{{ProductName: "Wheat", StockQuantity: 10}}, nil)
	invSrc.storeErr = errors.New("quota exceeded")

	_, err := svc.AddSale(context.Background(), params("Wheat", 4))

	var pe *models.PersistenceError
	require.ErrorAs(t, err, &pe)
}

func TestAddSale_AuditFailureIsNotFatal(t *testing.T) {
	auditor := &stubAuditor{err: errors.New("mongo down")}
	svc, _ := newService(t, []models.InventoryRecord{{ProductName: "Wheat", StockQuantity: 10}}, auditor)

	result, err := svc.AddSale(context.Background(), params("Wheat", 4))
	require.NoError(t, err)
	assert.Equal(t, 6, result.StockQuantity)
}

func TestAddProduct(t *testing.T) {
	svc, _ := newService(t, nil, nil)

	require.NoError(t, svc.AddProduct(context.Background(), "Rye", 25))

	err := svc.AddProduct(context.Background(), "rye", 10)
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestAddProduct_Validation(t *testing.T) {
	svc, _ := newService(t, nil, nil)

	assert.ErrorIs(t, svc.AddProduct(context.Background(), "  ", 5), models.ErrInvalidInput)
	assert.ErrorIs(t, svc.AddProduct(context.Background(), "Rye", -1), models.ErrInvalidInput)
}
