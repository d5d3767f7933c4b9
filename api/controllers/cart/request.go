package cart

type addItemRequest struct {
	ProductID int  `json:"product_id" validate:"required,gt=0"`
	VariantID *int `json:"variant_id,omitempty" validate:"omitempty,gt=0"`
}

// Quantities below one are rejected here; removing a line is a DELETE.
type updateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"min=1,max=999"`
}

type applyDiscountRequest struct {
	Code string `json:"code" validate:"required,max=32"`
}
