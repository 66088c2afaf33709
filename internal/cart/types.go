package cart

import "github.com/shopspring/decimal"

// StorageKey is the storage key holding the serialized cart.
const StorageKey = "abak_cart"

// LineItem is one product in the cart. The JSON shape is the persisted
// record format and must stay {id, name, price, image, qty}.
type LineItem struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Image string  `json:"image"`
	Qty   int     `json:"qty"`
}

// UnitPrice returns Price as a decimal.
func (li LineItem) UnitPrice() decimal.Decimal {
	return decimal.NewFromFloat(li.Price)
}

// LineTotal returns price * qty.
func (li LineItem) LineTotal() decimal.Decimal {
	return li.UnitPrice().Mul(decimal.NewFromInt(int64(li.Qty)))
}

// Product is what a storefront control hands to AddItem.
type Product struct {
	ID    string
	Name  string
	Price float64
	Image string
}

// Snapshot is a read-only view of the cart after a mutation.
type Snapshot struct {
	Items []LineItem
	Count int
	Total decimal.Decimal
}

// IsEmpty reports whether the cart has no line items.
func (s Snapshot) IsEmpty() bool { return len(s.Items) == 0 }
