package checkout

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/primestore/primestore-backend/internal/cart"
	"github.com/primestore/primestore-backend/internal/catalog"
	"github.com/primestore/primestore-backend/internal/orders"
	"github.com/primestore/primestore-backend/internal/users"
	"github.com/primestore/primestore-backend/pkg/config"
	"github.com/primestore/primestore-backend/pkg/db/models"
	"github.com/primestore/primestore-backend/pkg/enums"
	apperrors "github.com/primestore/primestore-backend/pkg/errors"
	"github.com/primestore/primestore-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ShippingDetails are the destination fields on a checkout request. Empty
// fields fall back to the user's saved profile.
type ShippingDetails struct {
	Address string `json:"address" validate:"omitempty,max=255"`
	City    string `json:"city" validate:"omitempty,max=120"`
	Country string `json:"country" validate:"omitempty,max=120"`
	Phone   string `json:"phone" validate:"omitempty,max=32"`
}

// StockShortage describes one cart line that cannot be fulfilled.
type StockShortage struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Requested int       `json:"requested"`
	Available int       `json:"available"`
}

// Service turns a cart into a pending order. Stock is validated here but
// not reserved; the decrement happens at payment confirmation.
type Service struct {
	tx       txRunner
	orders   *orders.Repository
	carts    *cart.Repository
	products *catalog.Repository
	users    *users.Repository
	cfg      config.CheckoutConfig
	logger   *logger.Logger
}

func NewService(
	tx txRunner,
	ordersRepo *orders.Repository,
	cartsRepo *cart.Repository,
	productsRepo *catalog.Repository,
	usersRepo *users.Repository,
	cfg config.CheckoutConfig,
	logg *logger.Logger,
) (*Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if ordersRepo == nil || cartsRepo == nil || productsRepo == nil || usersRepo == nil {
		return nil, fmt.Errorf("checkout repositories required")
	}
	if cfg.ReferenceMaxAttempts <= 0 {
		cfg.ReferenceMaxAttempts = 5
	}
	return &Service{
		tx:       tx,
		orders:   ordersRepo,
		carts:    cartsRepo,
		products: productsRepo,
		users:    usersRepo,
		cfg:      cfg,
		logger:   logg,
	}, nil
}

// PlaceOrder snapshots the user's persisted cart into a pending order and
// clears the cart, all in one transaction. Prices are frozen at this moment;
// stock is checked but left untouched until the payment settles.
func (s *Service) PlaceOrder(ctx context.Context, userID uuid.UUID, shipping ShippingDetails) (*models.Order, error) {
	userCart, err := s.carts.FindByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "loading cart")
	}
	var lines []models.CartLine
	if userCart != nil {
		lines, err = s.carts.ListLines(ctx, userCart.ID)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeInternal, err, "loading cart lines")
		}
	}
	if len(lines) == 0 {
		return nil, apperrors.New(apperrors.CodeEmptyCart, "cart is empty")
	}

	shipping, err = s.resolveShipping(ctx, userID, shipping)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}
	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "loading products")
	}
	byID := make(map[uuid.UUID]models.Product, len(products))
	for _, product := range products {
		byID[product.ID] = product
	}

	var shortages []StockShortage
	items := make([]models.OrderItem, 0, len(lines))
	total := decimal.Zero
	for _, line := range lines {
		product, ok := byID[line.ProductID]
		if !ok {
			// Product deleted since it was carted; drop the line.
			continue
		}
		if line.Quantity > product.Stock {
			shortages = append(shortages, StockShortage{
				ProductID: product.ID,
				Name:      product.Name,
				Requested: line.Quantity,
				Available: product.Stock,
			})
			continue
		}
		items = append(items, models.OrderItem{
			ID:        uuid.New(),
			ProductID: product.ID,
			Quantity:  line.Quantity,
			UnitPrice: product.Price,
		})
		total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	if len(shortages) > 0 {
		return nil, apperrors.New(apperrors.CodeInsufficientStock, "insufficient stock").WithDetails(shortages)
	}
	if len(items) == 0 {
		return nil, apperrors.New(apperrors.CodeEmptyCart, "cart has no purchasable items")
	}

	reference, err := s.uniqueReference(ctx)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		ID:              uuid.New(),
		UserID:          userID,
		Reference:       reference,
		TotalAmount:     total,
		Status:          enums.OrderStatusPending,
		ShippingAddress: shipping.Address,
		ShippingCity:    shipping.City,
		ShippingCountry: shipping.Country,
		Phone:           shipping.Phone,
		Items:           items,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.orders.WithTx(tx).Create(ctx, order); err != nil {
			return err
		}
		return s.carts.WithTx(tx).ClearLines(ctx, userCart.ID)
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "creating order")
	}

	if s.logger != nil {
		s.logger.Info(s.logger.WithOrderReference(ctx, order.Reference), "order placed")
	}
	return order, nil
}

// resolveShipping fills blanks from the user's profile and rejects the
// request when no address can be determined at all.
func (s *Service) resolveShipping(ctx context.Context, userID uuid.UUID, shipping ShippingDetails) (ShippingDetails, error) {
	if strings.TrimSpace(shipping.Address) != "" {
		return shipping, nil
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return shipping, apperrors.Wrap(apperrors.CodeInternal, err, "loading profile")
	}
	if user == nil || user.Profile == nil || strings.TrimSpace(user.Profile.Address) == "" {
		return shipping, apperrors.New(apperrors.CodeValidation, "shipping address is required")
	}
	profile := user.Profile
	shipping.Address = profile.Address
	if shipping.City == "" {
		shipping.City = profile.City
	}
	if shipping.Country == "" {
		shipping.Country = profile.Country
	}
	if shipping.Phone == "" {
		shipping.Phone = profile.Phone
	}
	return shipping, nil
}

// uniqueReference draws references until one is free, bounded by the
// configured attempt count. Collisions are astronomically unlikely but the
// reference carries a unique index, so the retry loop keeps checkout from
// surfacing a raw constraint error.
func (s *Service) uniqueReference(ctx context.Context) (string, error) {
	for attempt := 0; attempt < s.cfg.ReferenceMaxAttempts; attempt++ {
		reference, err := NewReference(s.cfg.ReferencePrefix)
		if err != nil {
			return "", apperrors.Wrap(apperrors.CodeInternal, err, "generating reference")
		}
		taken, err := s.orders.ReferenceExists(ctx, reference)
		if err != nil {
			return "", apperrors.Wrap(apperrors.CodeInternal, err, "checking reference")
		}
		if !taken {
			return reference, nil
		}
	}
	return "", apperrors.New(apperrors.CodeInternal, "could not allocate an order reference")
}
