package models

type Product struct {
	ID          uint64  `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	Quantity    int64   `json:"quantity"`
}

type CreateProductRequest struct {
	Name        string  `json:"name" validate:"required,max=200"`
	Price       float64 `json:"price" validate:"gte=0"`
	Description string  `json:"description"`
	Quantity    int64   `json:"quantity" validate:"gte=0"`
}

// All fields optional; nil fields keep the stored value.
type UpdateProductRequest struct {
	Name        *string  `json:"name,omitempty" validate:"omitempty,max=200"`
	Price       *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
	Description *string  `json:"description,omitempty"`
	Quantity    *int64   `json:"quantity,omitempty" validate:"omitempty,gte=0"`
}
