package store

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bdimitrov/skladov/internal/domain/models"
)

// Canonical column layout for the two sources. Sources are rewritten with
// these headers on every persist; loading matches columns by header name so
// column order in hand-edited files does not matter.
const (
	colDate       = "date"
	colDocumentID = "document_id"
	colCustomer   = "customer"
	colProduct    = "product_name"
	colQuantity   = "quantity"
	colUnitPrice  = "unit_price"
	colTotal      = "total_value"
	colNote       = "note"
	colStock      = "stock_quantity"
)

const dateLayout = "2006-01-02"

var (
	ledgerColumns    = []string{colDate, colDocumentID, colCustomer, colProduct, colQuantity, colUnitPrice, colTotal, colNote}
	inventoryColumns = []string{colProduct, colStock}
)

// headerIndex maps normalized column names to their position and verifies
// every required column is present.
func headerIndex(source string, header []string, required []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range required {
		if _, ok := idx[name]; !ok {
			return nil, &models.SchemaError{Source: source, Reason: fmt.Sprintf("missing column %q", name)}
		}
	}
	return idx, nil
}

func cell(row []string, idx map[string]int, name string) string {
	i, ok := idx[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func blankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// decodeLedger parses raw ledger rows (header first) into typed records.
// Blank rows are skipped; anything else malformed fails the load.
func decodeLedger(rows [][]string) ([]models.LedgerRecord, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	idx, err := headerIndex("ledger", rows[0], []string{colDate, colDocumentID, colProduct, colQuantity, colUnitPrice})
	if err != nil {
		return nil, err
	}

	var records []models.LedgerRecord
	for i, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		rowNum := i + 2

		date, err := time.Parse(dateLayout, cell(row, idx, colDate))
		if err != nil {
			return nil, &models.SchemaError{Source: "ledger", Row: rowNum, Reason: fmt.Sprintf("invalid date %q", cell(row, idx, colDate))}
		}

		qty, err := strconv.Atoi(cell(row, idx, colQuantity))
		if err != nil {
			return nil, &models.SchemaError{Source: "ledger", Row: rowNum, Reason: fmt.Sprintf("invalid quantity %q", cell(row, idx, colQuantity))}
		}

		price, err := decimal.NewFromString(cell(row, idx, colUnitPrice))
		if err != nil {
			return nil, &models.SchemaError{Source: "ledger", Row: rowNum, Reason: fmt.Sprintf("invalid unit price %q", cell(row, idx, colUnitPrice))}
		}

		docID := cell(row, idx, colDocumentID)
		product := cell(row, idx, colProduct)
		if docID == "" || product == "" {
			return nil, &models.SchemaError{Source: "ledger", Row: rowNum, Reason: "document_id and product_name must not be empty"}
		}

		records = append(records, models.LedgerRecord{
			Date:        date,
			DocumentID:  docID,
			Customer:    cell(row, idx, colCustomer),
			ProductName: product,
			Quantity:    qty,
			UnitPrice:   price,
			Note:        cell(row, idx, colNote),
		})
	}
	return records, nil
}

func decodeInventory(rows [][]string) ([]models.InventoryRecord, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	idx, err := headerIndex("inventory", rows[0], inventoryColumns)
	if err != nil {
		return nil, err
	}

	var records []models.InventoryRecord
	for i, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		rowNum := i + 2

		product := cell(row, idx, colProduct)
		if product == "" {
			return nil, &models.SchemaError{Source: "inventory", Row: rowNum, Reason: "product_name must not be empty"}
		}

		stock, err := strconv.Atoi(cell(row, idx, colStock))
		if err != nil {
			return nil, &models.SchemaError{Source: "inventory", Row: rowNum, Reason: fmt.Sprintf("invalid stock quantity %q", cell(row, idx, colStock))}
		}

		records = append(records, models.InventoryRecord{ProductName: product, StockQuantity: stock})
	}
	return records, nil
}

// MarshalLedger renders records into raw rows, canonical header first.
// The derived total column is written out so the file stays readable as a
// plain spreadsheet, matching what the operator's sheet always showed.
func MarshalLedger(records []models.LedgerRecord) [][]string {
	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, append([]string(nil), ledgerColumns...))
	for _, r := range records {
		rows = append(rows, []string{
			r.Date.Format(dateLayout),
			r.DocumentID,
			r.Customer,
			r.ProductName,
			strconv.Itoa(r.Quantity),
			r.UnitPrice.StringFixed(2),
			r.TotalValue().StringFixed(2),
			r.Note,
		})
	}
	return rows
}

// MarshalInventory renders inventory records into raw rows, header first.
func MarshalInventory(records []models.InventoryRecord) [][]string {
	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, append([]string(nil), inventoryColumns...))
	for _, r := range records {
		rows = append(rows, []string{r.ProductName, strconv.Itoa(r.StockQuantity)})
	}
	return rows
}
