package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerRecord is one sale line item in the sales ledger. Several records may
// share a DocumentID (one invoice with multiple lines) or a ProductName (one
// product sold over time).
type LedgerRecord struct {
	Date        time.Time       `json:"date"`
	DocumentID  string          `json:"document_id"`
	Customer    string          `json:"customer"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Note        string          `json:"note,omitempty"`
}

// TotalValue is the derived line total (quantity x unit price).
func (r LedgerRecord) TotalValue() decimal.Decimal {
	return r.UnitPrice.Mul(decimal.NewFromInt(int64(r.Quantity)))
}

// InventoryRecord is the current stock on hand for one product. ProductName
// is the unique key and joins against LedgerRecord.ProductName.
type InventoryRecord struct {
	ProductName   string `json:"product_name"`
	StockQuantity int    `json:"stock_quantity"`
}

// ProductReport is the result of a product lookup: current stock plus the
// full sales history for that product, oldest first.
type ProductReport struct {
	Inventory InventoryRecord `json:"inventory"`
	Sales     []LedgerRecord  `json:"sales"`
}

// Candidate is one ranked match proposed by the matching adapter for an
// approximate document query.
type Candidate struct {
	DocumentID string  `json:"document_id"`
	Confidence float64 `json:"confidence"`
}

// DocumentReport is the result of a document lookup. AIMatched reports
// whether the identifier came from the matching adapter rather than an exact
// hit, and Confidence carries the adapter's score in that case.
type DocumentReport struct {
	DocumentID string         `json:"document_id"`
	Records    []LedgerRecord `json:"records"`
	AIMatched  bool           `json:"ai_matched"`
	Confidence float64        `json:"confidence,omitempty"`
}
