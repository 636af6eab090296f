package models

import "time"

// OrderItem snapshots the product name and price at checkout time, so
// later catalog edits never rewrite order history.
type OrderItem struct {
	ProductID uint64  `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int64   `json:"quantity"`
}

type Order struct {
	ID        uint64      `json:"id"`
	Items     []OrderItem `json:"items"`
	Total     float64     `json:"total"`
	CreatedAt time.Time   `json:"created_at"`
	Paid      bool        `json:"paid"`
}
