package query

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
	rows [][]string
}

func (s *stubSource) Load(context.Context) ([][]string, error)    { return s.rows, nil }
func (s *stubSource) Store(_ context.Context, r [][]string) error { s.rows = r; return nil }

type stubMatcher struct {
	calls   int
	matches []models.Candidate
	err     error
}

func (m *stubMatcher) Match(context.Context, string, []string) ([]models.Candidate, error) {
	m.calls++
	return m.matches, m.err
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func seededStore(t *testing.T) *store.Store {
	t.Helper()

	ledger := []models.LedgerRecord{
		{Date: time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC), DocumentID: "INV-0042", Customer: "ACME", ProductName: "Wheat", Quantity: 10, UnitPrice: dec("150.00")},
		{Date: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), DocumentID: "INV-0042", Customer: "ACME", ProductName: "Barley", Quantity: 2, UnitPrice: dec("80.00")},
		{Date: time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC), DocumentID: "INV-0099", Customer: "GLOBEX", ProductName: "Wheat", Quantity: 1, UnitPrice: dec("150.00")},
	}
	inventory := []models.InventoryRecord{
		{ProductName: "Wheat", StockQuantity: 42},
		{ProductName: "Barley", StockQuantity: 5},
	}

	st := store.New(&stubSource{rows: store.MarshalLedger(ledger)}, &stubSource{rows: store.MarshalInventory(inventory)}, nil)
	require.NoError(t, st.Load(context.Background()))
	return st
}

func newResolver(t *testing.T, matcher Matcher, minConfidence float64) *Service {
	t.Helper()
	return NewService(seededStore(t), matcher, minConfidence, time.Second, nil)
}

func TestResolveProduct(t *testing.T) {
	svc := newResolver(t, nil, 0)

	report, err := svc.ResolveProduct(context.Background(), "  wheat ")
	require.NoError(t, err)

	assert.Equal(t, 42, report.Inventory.StockQuantity)
	require.Len(t, report.Sales, 2)
	assert.True(t, report.Sales[0].Date.Before(report.Sales[1].Date))
}

func TestResolveProduct_Unknown(t *testing.T) {
	svc := newResolver(t, nil, 0)

	_, err := svc.ResolveProduct(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestResolveDocument_ExactMatchSkipsAdapter(t *testing.T) {
	matcher := &stubMatcher{matches: []models.Candidate{{DocumentID: "INV-0099", Confidence: 1}}}
	svc := newResolver(t, matcher, 0)

	report, err := svc.ResolveDocument(context.Background(), "INV-0042")
	require.NoError(t, err)

	assert.False(t, report.AIMatched)
	assert.Len(t, report.Records, 2)
	assert.Equal(t, 0, matcher.calls, "adapter must never be invoked on an exact match")
}

func TestResolveDocument_FuzzyFallback(t *testing.T) {
	matcher := &stubMatcher{matches: []models.Candidate{{DocumentID: "INV-0042", Confidence: 0.9}}}
	svc := newResolver(t, matcher, 0)

	report, err := svc.ResolveDocument(context.Background(), "INV-0042x")
	require.NoError(t, err)

	assert.True(t, report.AIMatched)
	assert.Equal(t, "INV-0042", report.DocumentID)
	assert.InDelta(t, 0.9, report.Confidence, 1e-9)
	assert.Len(t, report.Records, 2)
	assert.Equal(t, 1, matcher.calls)
}

func TestResolveDocument_BelowConfidenceThreshold(t *testing.T) {
	matcher := &stubMatcher{matches: []models.Candidate{{DocumentID: "INV-0042", Confidence: 0.3}}}
	svc := newResolver(t, matcher, 0.5)

	_, err := svc.ResolveDocument(context.Background(), "INV-0042x")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestResolveDocument_PicksHighestConfidence(t *testing.T) {
	matcher := &stubMatcher{matches: []models.Candidate{
		{DocumentID: "INV-0099", Confidence: 0.4},
		{DocumentID: "INV-0042", Confidence: 0.8},
	}}
	svc := newResolver(t, matcher, 0)

	report, err := svc.ResolveDocument(context.Background(), "inv 42")
	require.NoError(t, err)
	assert.Equal(t, "INV-0042", report.DocumentID)
}

func TestResolveDocument_AdapterFailureIsAMiss(t *testing.T) {
	matcher := &stubMatcher{err: errors.New("timeout")}
	svc := newResolver(t, matcher, 0)

	_, err := svc.ResolveDocument(context.Background(), "INV-0042x")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestResolveDocument_NoMatcherConfigured(t *testing.T) {
	svc := newResolver(t, nil, 0)

	_, err := svc.ResolveDocument(context.Background(), "INV-0042x")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestResolveDocument_EmptyAdapterResponse(t *testing.T) {
	matcher := &stubMatcher{}
	svc := newResolver(t, matcher, 0)

	_, err := svc.ResolveDocument(context.Background(), "something else entirely")
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Equal(t, 1, matcher.calls)
}
