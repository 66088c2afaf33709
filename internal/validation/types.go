package validation

// AddItemRequest is the payload for POST /cart/items.
type AddItemRequest struct {
	ID    string   `json:"id" validate:"required,max=64"`
	Name  string   `json:"name" validate:"required,max=256"`
	Price *float64 `json:"price" validate:"required,gte=0"` // unit price, 0 allowed
	Image string   `json:"image,omitempty" validate:"omitempty,max=2048"`
}

// QuantityRequest is the payload for PATCH /cart/items/:id.
type QuantityRequest struct {
	Delta int `json:"delta" validate:"nonzero_delta"` // signed step, never 0
}

// SearchInputRequest is the payload for POST /search/input.
type SearchInputRequest struct {
	Value string `json:"value" validate:"max=256"`
}

// KeyRequest is the payload for POST /search/keys.
type KeyRequest struct {
	Key string `json:"key" validate:"required,oneof=ArrowDown ArrowUp Enter Escape"`
}

// SelectRequest is the payload for POST /search/select.
type SelectRequest struct {
	Index *int `json:"index" validate:"required,gte=0"`
}
