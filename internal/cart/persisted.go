package cart

import (
	"context"

	"github.com/google/uuid"

	"github.com/primestore/primestore-backend/pkg/db/models"
	pkgerrors "github.com/primestore/primestore-backend/pkg/errors"
)

// productLoader is the catalog surface the persisted cart needs to enforce
// stock limits and to skip deleted products during migration.
type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

// PersistedCart is the per-user cart variant backed by cart_lines rows. The
// cart row itself is created lazily on the first mutation. Unlike the session
// variant, writes are stock-checked: a mutation that would exceed available
// stock returns a warning and leaves the line untouched.
type PersistedCart struct {
	repo     *Repository
	products productLoader
	userID   uuid.UUID
}

// NewPersistedCart binds a persisted cart to the given user.
func NewPersistedCart(repo *Repository, products productLoader, userID uuid.UUID) *PersistedCart {
	return &PersistedCart{repo: repo, products: products, userID: userID}
}

func (p *PersistedCart) Add(ctx context.Context, productID uuid.UUID, qty int) (Mutation, error) {
	if qty <= 0 {
		return Mutation{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	product, err := p.loadProduct(ctx, productID)
	if err != nil {
		return Mutation{}, err
	}

	cart, err := p.repo.GetOrCreateByUser(ctx, p.userID)
	if err != nil {
		return Mutation{}, err
	}
	line, err := p.repo.FindLine(ctx, cart.ID, productID)
	if err != nil {
		return Mutation{}, err
	}

	newQty := qty
	if line != nil {
		newQty = line.Quantity + qty
	}
	if newQty > product.Stock {
		return Mutation{Warning: &StockWarning{
			ProductID: productID,
			Requested: newQty,
			Available: product.Stock,
		}}, nil
	}

	if line == nil {
		line = &models.CartLine{CartID: cart.ID, ProductID: productID, Quantity: newQty}
		if err := p.repo.CreateLine(ctx, line); err != nil {
			return Mutation{}, err
		}
	} else {
		if err := p.repo.UpdateLineQuantity(ctx, line.ID, newQty); err != nil {
			return Mutation{}, err
		}
	}
	return Mutation{Line: &Line{ProductID: productID, Quantity: newQty}}, nil
}

func (p *PersistedCart) Update(ctx context.Context, productID uuid.UUID, qty int) (Mutation, error) {
	if qty <= 0 {
		return Mutation{}, p.Remove(ctx, productID)
	}
	product, err := p.loadProduct(ctx, productID)
	if err != nil {
		return Mutation{}, err
	}
	if qty > product.Stock {
		return Mutation{Warning: &StockWarning{
			ProductID: productID,
			Requested: qty,
			Available: product.Stock,
		}}, nil
	}

	cart, err := p.repo.GetOrCreateByUser(ctx, p.userID)
	if err != nil {
		return Mutation{}, err
	}
	line, err := p.repo.FindLine(ctx, cart.ID, productID)
	if err != nil {
		return Mutation{}, err
	}
	if line == nil {
		line = &models.CartLine{CartID: cart.ID, ProductID: productID, Quantity: qty}
		if err := p.repo.CreateLine(ctx, line); err != nil {
			return Mutation{}, err
		}
	} else {
		if err := p.repo.UpdateLineQuantity(ctx, line.ID, qty); err != nil {
			return Mutation{}, err
		}
	}
	return Mutation{Line: &Line{ProductID: productID, Quantity: qty}}, nil
}

func (p *PersistedCart) Remove(ctx context.Context, productID uuid.UUID) error {
	cart, err := p.repo.FindByUser(ctx, p.userID)
	if err != nil {
		return err
	}
	if cart == nil {
		return nil
	}
	return p.repo.DeleteLine(ctx, cart.ID, productID)
}

func (p *PersistedCart) Lines(ctx context.Context) ([]Line, error) {
	cart, err := p.repo.FindByUser(ctx, p.userID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, nil
	}
	rows, err := p.repo.ListLines(ctx, cart.ID)
	if err != nil {
		return nil, err
	}
	lines := make([]Line, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, Line{ProductID: row.ProductID, Quantity: row.Quantity})
	}
	return lines, nil
}

func (p *PersistedCart) Clear(ctx context.Context) error {
	cart, err := p.repo.FindByUser(ctx, p.userID)
	if err != nil {
		return err
	}
	if cart == nil {
		return nil
	}
	return p.repo.ClearLines(ctx, cart.ID)
}

func (p *PersistedCart) loadProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	product, err := p.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return product, nil
}
