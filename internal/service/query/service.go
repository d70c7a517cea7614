// Package query resolves operator searches (a document number or a product
// name) into result sets, falling back to the AI matching adapter when a
// document number has no exact match.
package query

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bdimitrov/skladov/internal/domain/models"
	"github.com/bdimitrov/skladov/internal/store"
)

// Matcher resolves an approximate query against the known document
// identifiers, returning candidates ranked by confidence. Implemented by the
// Gemini client in production and by stubs in tests.
type Matcher interface {
	Match(ctx context.Context, query string, candidates []string) ([]models.Candidate, error)
}

// Service is the query resolver.
type Service struct {
	store         *store.Store
	matcher       Matcher // nil when AI search is disabled
	minConfidence float64
	timeout       time.Duration
	logger        *zap.Logger
}

// NewService wires a resolver. matcher may be nil, in which case document
// search is exact-only.
func NewService(st *store.Store, matcher Matcher, minConfidence float64, timeout time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Service{
		store:         st,
		matcher:       matcher,
		minConfidence: minConfidence,
		timeout:       timeout,
		logger:        logger,
	}
}

// ResolveProduct looks up a product by case-normalized exact name and
// returns its current stock plus full sales history, oldest sale first.
func (s *Service) ResolveProduct(_ context.Context, query string) (models.ProductReport, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return models.ProductReport{}, fmt.Errorf("%w: product query must not be empty", models.ErrInvalidInput)
	}

	inv, sales, err := s.store.FindByProduct(query)
	if err != nil {
		return models.ProductReport{}, fmt.Errorf("product %q: %w", query, err)
	}

	return models.ProductReport{Inventory: inv, Sales: sales}, nil
}

// ResolveDocument looks up ledger records by document number. An exact match
// always wins and skips the adapter entirely. On a miss the adapter is asked
// to pick among the known identifiers; the best candidate at or above the
// confidence threshold is used. Adapter failures and timeouts count as
// misses, never as fatal errors.
func (s *Service) ResolveDocument(ctx context.Context, query string) (models.DocumentReport, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return models.DocumentReport{}, fmt.Errorf("%w: document query must not be empty", models.ErrInvalidInput)
	}

	if records := s.store.FindByDocument(query); len(records) > 0 {
		return models.DocumentReport{DocumentID: query, Records: records}, nil
	}

	if s.matcher == nil {
		return models.DocumentReport{}, fmt.Errorf("document %q: %w", query, models.ErrNotFound)
	}

	candidates := s.store.AllDocumentIDs()

	matchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	matches, err := s.matcher.Match(matchCtx, query, candidates)
	if err != nil {
		s.logger.Warn("document match degraded to miss",
			zap.String("query", query),
			zap.Error(&models.AdapterError{Err: err}))
		return models.DocumentReport{}, fmt.Errorf("document %q: %w", query, models.ErrNotFound)
	}

	best, ok := bestMatch(matches, s.minConfidence)
	if !ok {
		return models.DocumentReport{}, fmt.Errorf("document %q: %w", query, models.ErrNotFound)
	}

	records := s.store.FindByDocument(best.DocumentID)
	if len(records) == 0 {
		return models.DocumentReport{}, fmt.Errorf("document %q: %w", query, models.ErrNotFound)
	}

	s.logger.Info("document resolved via ai match",
		zap.String("query", query),
		zap.String("document_id", best.DocumentID),
		zap.Float64("confidence", best.Confidence))

	return models.DocumentReport{
		DocumentID: best.DocumentID,
		Records:    records,
		AIMatched:  true,
		Confidence: best.Confidence,
	}, nil
}

func bestMatch(matches []models.Candidate, minConfidence float64) (models.Candidate, bool) {
	var best models.Candidate
	found := false
	for _, m := range matches {
		if m.Confidence < minConfidence {
			continue
		}
		if !found || m.Confidence > best.Confidence {
			best = m
			found = true
		}
	}
	return best, found
}
