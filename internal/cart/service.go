package cart

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/primestore/primestore-backend/pkg/db/models"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ItemView is one cart line priced at the current product price. Carts are
// never price-frozen; only orders are.
type ItemView struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// View summarizes a cart for display: priced items, the decimal total, and
// the unit count.
type View struct {
	Items []ItemView      `json:"items"`
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
}

// Service resolves cart variants and implements the operations shared across
// them: summarization and the login-time migration of a session cart into
// the persisted one.
type Service struct {
	tx       txRunner
	repo     *Repository
	products productLoader
	sessions sessionStore
	ttl      time.Duration
}

// NewService builds the cart service.
func NewService(tx txRunner, repo *Repository, products productLoader, sessions sessionStore, sessionTTL time.Duration) (*Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session store required")
	}
	return &Service{
		tx:       tx,
		repo:     repo,
		products: products,
		sessions: sessions,
		ttl:      sessionTTL,
	}, nil
}

// ForSession returns the anonymous cart bound to the shopper's session id.
func (s *Service) ForSession(sessionID string) Source {
	return NewSessionCart(s.sessions, sessionID, s.ttl)
}

// ForUser returns the persisted cart for an authenticated user.
func (s *Service) ForUser(userID uuid.UUID) Source {
	return NewPersistedCart(s.repo, s.products, userID)
}

// Summarize prices the cart at current product prices. Products that no
// longer exist are skipped rather than failing the whole view.
func (s *Service) Summarize(ctx context.Context, source Source) (*View, error) {
	lines, err := source.Lines(ctx)
	if err != nil {
		return nil, err
	}

	view := &View{Items: []ItemView{}, Total: decimal.Zero}
	if len(lines) == 0 {
		return view, nil
	}

	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}
	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]models.Product, len(products))
	for _, product := range products {
		byID[product.ID] = product
	}

	for _, line := range lines {
		product, ok := byID[line.ProductID]
		if !ok {
			continue
		}
		lineTotal := product.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		view.Items = append(view.Items, ItemView{
			ProductID: line.ProductID,
			Name:      product.Name,
			Quantity:  line.Quantity,
			UnitPrice: product.Price,
			LineTotal: lineTotal,
		})
		view.Total = view.Total.Add(lineTotal)
		view.Count += line.Quantity
	}
	sort.Slice(view.Items, func(i, j int) bool {
		return view.Items[i].Name < view.Items[j].Name
	})
	return view, nil
}

// Migrate merges the anonymous session cart into the user's persisted cart:
// existing lines gain the anonymous quantity, missing lines are created, and
// unknown or deleted products are skipped. The session cart is cleared only
// after the merge commits, and migrating an empty session cart is a no-op,
// so the operation is safe to repeat.
func (s *Service) Migrate(ctx context.Context, sessionID string, userID uuid.UUID) error {
	session := s.ForSession(sessionID)
	lines, err := session.Lines(ctx)
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := repo.GetOrCreateByUser(ctx, userID)
		if err != nil {
			return err
		}
		for _, line := range lines {
			product, err := s.products.FindByID(ctx, line.ProductID)
			if err != nil {
				return err
			}
			if product == nil {
				continue
			}
			existing, err := repo.FindLine(ctx, cart.ID, line.ProductID)
			if err != nil {
				return err
			}
			if existing == nil {
				if err := repo.CreateLine(ctx, &models.CartLine{
					CartID:    cart.ID,
					ProductID: line.ProductID,
					Quantity:  line.Quantity,
				}); err != nil {
					return err
				}
				continue
			}
			if err := repo.UpdateLineQuantity(ctx, existing.ID, existing.Quantity+line.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	return session.Clear(ctx)
}
