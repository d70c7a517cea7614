// Package store holds the in-memory ledger and inventory collections and is
// the only code path through which either may change. It loads from and
// persists to two tabular sources (Google Sheets in production, local CSV
// files otherwise) and keeps the join invariant: every product appearing in
// the ledger has an inventory record.
package store

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bdimitrov/skladov/internal/domain/models"
)

// Source provides load/store access to one tabular collection. Rows are raw
// string cells; the first row is the header.
type Source interface {
	Load(ctx context.Context) ([][]string, error)
	Store(ctx context.Context, rows [][]string) error
}

// Store owns the two record collections. All access goes through its mutex,
// so at most one mutation is in flight and reads always see a complete
// snapshot.
type Store struct {
	mu        sync.Mutex
	ledgerSrc Source
	invSrc    Source
	logger    *zap.Logger

	ledger    []models.LedgerRecord
	inventory []models.InventoryRecord
	invIndex  map[string]int // normalized product name -> inventory position
}

// New builds a store over the two sources. Call Load before first use.
func New(ledgerSrc, invSrc Source, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		ledgerSrc: ledgerSrc,
		invSrc:    invSrc,
		logger:    logger,
		invIndex:  map[string]int{},
	}
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Load reads both sources and replaces the in-memory collections. On any
// failure the previous contents are kept, so it is safe for periodic
// refresh. Ledger products missing from inventory get a synthesized record
// at stock 0 (same policy as first-sale creation) with a logged warning.
//
// The mutex is held across the reads as well as the swap: a refresh that
// read the sources concurrently with a sale could swap in a snapshot from
// before that sale and silently drop its committed record.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ledgerRows, err := s.ledgerSrc.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading ledger source: %w", err)
	}
	invRows, err := s.invSrc.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading inventory source: %w", err)
	}

	ledger, err := decodeLedger(ledgerRows)
	if err != nil {
		return err
	}
	inventory, err := decodeInventory(invRows)
	if err != nil {
		return err
	}

	index := make(map[string]int, len(inventory))
	for i, rec := range inventory {
		index[normalizeName(rec.ProductName)] = i
	}
	for _, rec := range ledger {
		key := normalizeName(rec.ProductName)
		if _, ok := index[key]; !ok {
			s.logger.Warn("ledger product missing from inventory, assuming zero stock",
				zap.String("product", rec.ProductName))
			inventory = append(inventory, models.InventoryRecord{ProductName: rec.ProductName})
			index[key] = len(inventory) - 1
		}
	}

	s.ledger = ledger
	s.inventory = inventory
	s.invIndex = index

	s.logger.Info("store loaded",
		zap.Int("ledger_records", len(ledger)),
		zap.Int("inventory_records", len(inventory)))
	return nil
}

// FindByDocument returns the ledger records whose document identifier
// exactly matches id, in ledger (append) order. Empty when none match.
func (s *Store) FindByDocument(id string) []models.LedgerRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.LedgerRecord
	for _, rec := range s.ledger {
		if rec.DocumentID == id {
			out = append(out, rec)
		}
	}
	return out
}

// FindByProduct returns the inventory record and sales history (oldest
// first) for the named product. Matching is case-insensitive. Returns
// ErrNotFound when the product has no inventory entry.
func (s *Store) FindByProduct(name string) (models.InventoryRecord, []models.LedgerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := normalizeName(name)
	i, ok := s.invIndex[key]
	if !ok {
		return models.InventoryRecord{}, nil, models.ErrNotFound
	}

	var sales []models.LedgerRecord
	for _, rec := range s.ledger {
		if normalizeName(rec.ProductName) == key {
			sales = append(sales, rec)
		}
	}
	sort.SliceStable(sales, func(a, b int) bool { return sales[a].Date.Before(sales[b].Date) })

	return s.inventory[i], sales, nil
}

// AllDocumentIDs returns the known document identifiers, deduplicated, in
// first-seen ledger order.
func (s *Store) AllDocumentIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{}, len(s.ledger))
	var ids []string
	for _, rec := range s.ledger {
		if _, ok := seen[rec.DocumentID]; ok {
			continue
		}
		seen[rec.DocumentID] = struct{}{}
		ids = append(ids, rec.DocumentID)
	}
	return ids
}

// RecordsBetween returns ledger records with from <= date <= to, in ledger
// order. Zero bounds are open.
func (s *Store) RecordsBetween(from, to time.Time) []models.LedgerRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.LedgerRecord
	for _, rec := range s.ledger {
		if !from.IsZero() && rec.Date.Before(from) {
			continue
		}
		if !to.IsZero() && rec.Date.After(to) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// ApplySale appends rec to the ledger and decrements the product's stock as
// one all-or-nothing operation, creating a zero-stock inventory record when
// the product is new. Both sources are rewritten; if either write fails the
// in-memory state is untouched, any already-written source is restored to
// its pre-operation rows, and a PersistenceError is returned. The new stock
// quantity (possibly negative) is returned on success.
//
// This is the single mutation path for stock; only the reconciliation
// service calls it.
func (s *Store) ApplySale(ctx context.Context, rec models.LedgerRecord) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := normalizeName(rec.ProductName)

	newLedger := append(slices.Clone(s.ledger), rec)
	newInventory := slices.Clone(s.inventory)
	newIndex := s.invIndex

	i, ok := s.invIndex[key]
	if !ok {
		newInventory = append(newInventory, models.InventoryRecord{ProductName: rec.ProductName})
		i = len(newInventory) - 1
		newIndex = make(map[string]int, len(s.invIndex)+1)
		for k, v := range s.invIndex {
			newIndex[k] = v
		}
		newIndex[key] = i
	}
	newInventory[i].StockQuantity -= rec.Quantity

	if err := s.persist(ctx, newLedger, newInventory); err != nil {
		return 0, err
	}

	s.ledger = newLedger
	s.inventory = newInventory
	s.invIndex = newIndex
	return newInventory[i].StockQuantity, nil
}

// CreateProduct registers a new product with its starting stock. Fails with
// ErrInvalidInput when the product already exists. Only the inventory source
// is rewritten.
func (s *Store) CreateProduct(ctx context.Context, name string, initialStock int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := normalizeName(name)
	if _, ok := s.invIndex[key]; ok {
		return models.ErrInvalidInput
	}

	newInventory := append(slices.Clone(s.inventory), models.InventoryRecord{ProductName: name, StockQuantity: initialStock})
	if err := s.invSrc.Store(ctx, MarshalInventory(newInventory)); err != nil {
		return &models.PersistenceError{Source: "inventory", Err: err}
	}

	newIndex := make(map[string]int, len(s.invIndex)+1)
	for k, v := range s.invIndex {
		newIndex[k] = v
	}
	newIndex[key] = len(newInventory) - 1

	s.inventory = newInventory
	s.invIndex = newIndex
	return nil
}

// persist writes the ledger first, then the inventory. A failed inventory
// write triggers a compensating rewrite of the ledger with its pre-operation
// rows so the two sources never diverge.
func (s *Store) persist(ctx context.Context, ledger []models.LedgerRecord, inventory []models.InventoryRecord) error {
	if err := s.ledgerSrc.Store(ctx, MarshalLedger(ledger)); err != nil {
		return &models.PersistenceError{Source: "ledger", Err: err}
	}
	if err := s.invSrc.Store(ctx, MarshalInventory(inventory)); err != nil {
		if cerr := s.ledgerSrc.Store(ctx, MarshalLedger(s.ledger)); cerr != nil {
			s.logger.Error("ledger restore after failed inventory write also failed, sources may diverge",
				zap.Error(cerr))
		}
		return &models.PersistenceError{Source: "inventory", Err: err}
	}
	return nil
}
