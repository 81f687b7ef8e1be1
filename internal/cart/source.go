package cart

import (
	"context"

	"github.com/google/uuid"
)

// Line is one product/quantity pairing inside a cart, independent of how the
// cart is stored.
type Line struct {
	ProductID uuid.UUID
	Quantity  int
}

// StockWarning reports a rejected mutation that would have exceeded the
// product's available stock. The cart is left untouched so the caller can
// redisplay it.
type StockWarning struct {
	ProductID uuid.UUID `json:"product_id"`
	Requested int       `json:"requested"`
	Available int       `json:"available"`
}

// Mutation is the outcome of a cart write. Exactly one of Line/Warning is
// set except for removals, where both may be nil.
type Mutation struct {
	Line    *Line
	Warning *StockWarning
}

// Applied reports whether the mutation changed the cart.
func (m Mutation) Applied() bool {
	return m.Warning == nil
}

// Source is the shared contract both cart variants satisfy: the anonymous
// session cart and the persisted per-user cart. Callers never branch on the
// variant; migration is the explicit conversion between the two.
type Source interface {
	// Add increments the quantity for the product, creating the entry when
	// absent.
	Add(ctx context.Context, productID uuid.UUID, qty int) (Mutation, error)
	// Update sets the quantity directly; qty <= 0 removes the entry.
	Update(ctx context.Context, productID uuid.UUID, qty int) (Mutation, error)
	// Remove deletes the entry if present; removing an absent product is a
	// no-op.
	Remove(ctx context.Context, productID uuid.UUID) error
	// Lines returns the current cart contents.
	Lines(ctx context.Context) ([]Line, error)
	// Clear empties the cart.
	Clear(ctx context.Context) error
}
