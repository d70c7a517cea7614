package models

import "time"

// SaleAudit is the archived trace of one applied sale, stored in MongoDB.
// Monetary fields are pre-formatted strings so the document round-trips
// without a decimal codec.
type SaleAudit struct {
	DocumentID  string    `bson:"document_id" json:"document_id"`
	Customer    string    `bson:"customer" json:"customer"`
	ProductName string    `bson:"product_name" json:"product_name"`
	Quantity    int       `bson:"quantity" json:"quantity"`
	UnitPrice   string    `bson:"unit_price" json:"unit_price"`
	TotalValue  string    `bson:"total_value" json:"total_value"`
	StockAfter  int       `bson:"stock_after" json:"stock_after"`
	LowStock    bool      `bson:"low_stock" json:"low_stock"`
	RecordedAt  time.Time `bson:"recorded_at" json:"recorded_at"`
}

// ProductTotal aggregates sales of one product within a summary period.
type ProductTotal struct {
	ProductName string `bson:"product_name" json:"product_name"`
	Quantity    int    `bson:"quantity" json:"quantity"`
	Revenue     string `bson:"revenue" json:"revenue"`
}

// SalesSummary aggregates ledger activity for a period, the on-demand
// equivalent of the totals row the operator's spreadsheet used to carry.
type SalesSummary struct {
	From          time.Time      `bson:"from" json:"from"`
	To            time.Time      `bson:"to" json:"to"`
	Entries       int            `bson:"entries" json:"entries"`
	TotalQuantity int            `bson:"total_quantity" json:"total_quantity"`
	TotalRevenue  string         `bson:"total_revenue" json:"total_revenue"`
	Products      []ProductTotal `bson:"products" json:"products"`
	GeneratedAt   time.Time      `bson:"generated_at" json:"generated_at"`
}
