package models

import (
	"errors"
	"fmt"
)

// ErrNotFound marks lookup misses. Callers treat it as a normal outcome
// (empty result), never as a session-ending failure.
var ErrNotFound = errors.New("no matching record")

// ErrInvalidInput marks rejected operation parameters (empty identifiers,
// non-positive quantities, negative prices).
var ErrInvalidInput = errors.New("invalid input")

// SchemaError reports a malformed tabular source: a missing required column
// or a cell that cannot be parsed into its typed field. It is fatal to
// loading; the store keeps its previous contents.
type SchemaError struct {
	Source string // "ledger" or "inventory"
	Row    int    // 1-based row in the source, 0 when the header is at fault
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("%s schema: row %d: %s", e.Source, e.Row, e.Reason)
	}
	return fmt.Sprintf("%s schema: %s", e.Source, e.Reason)
}

// PersistenceError reports a failed write of a tabular source. By the time
// the caller sees it the in-memory state has been rolled back to the
// pre-operation values.
type PersistenceError struct {
	Source string
	Err    error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persisting %s: %v", e.Source, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// AdapterError reports a matching adapter failure (network, timeout, or an
// unparseable response). The query resolver downgrades it to a lookup miss.
type AdapterError struct {
	Err error
}

func (e *AdapterError) Error() string { return fmt.Sprintf("matching adapter: %v", e.Err) }

func (e *AdapterError) Unwrap() error { return e.Err }

// LowStockWarning is attached to a successful sale whose decrement left the
// product's stock below zero. It is informational, not a failure.
type LowStockWarning struct {
	ProductName   string `json:"product_name"`
	StockQuantity int    `json:"stock_quantity"`
}

func (w *LowStockWarning) String() string {
	return fmt.Sprintf("stock for %q is below zero (%d)", w.ProductName, w.StockQuantity)
}
