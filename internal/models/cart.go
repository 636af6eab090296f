package models

type CartItem struct {
	ProductID uint64 `json:"product_id"`
	Quantity  int64  `json:"quantity"`
}

// A cart holds at most one item per product id; adding an existing
// product merges into the stored line instead of appending.
type Cart struct {
	Items []CartItem `json:"items"`
}

type AddCartItemRequest struct {
	ProductID uint64 `json:"product_id" validate:"required"`
	Quantity  int64  `json:"quantity" validate:"omitempty,min=1"`
}
