package cart

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/primestore/primestore-backend/pkg/errors"
)

// sessionStore is the Redis surface the anonymous cart needs.
type sessionStore interface {
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HIncrBy(ctx context.Context, key, field string, delta int64) (int64, error)
	HSet(ctx context.Context, key, field string, value any) error
	HDel(ctx context.Context, key string, fields ...string) error
	Expire(ctx context.Context, key string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	SessionCartKey(sessionID string) string
}

// SessionCart is the anonymous cart variant: a Redis hash mapping product id
// to quantity, keyed by the shopper's session id. Adds are not stock-checked;
// availability is enforced once the cart becomes persisted or checks out.
type SessionCart struct {
	store sessionStore
	key   string
	ttl   time.Duration
}

// NewSessionCart binds a session cart to the provided session id.
func NewSessionCart(store sessionStore, sessionID string, ttl time.Duration) *SessionCart {
	return &SessionCart{
		store: store,
		key:   store.SessionCartKey(sessionID),
		ttl:   ttl,
	}
}

func (s *SessionCart) Add(ctx context.Context, productID uuid.UUID, qty int) (Mutation, error) {
	if qty <= 0 {
		return Mutation{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	total, err := s.store.HIncrBy(ctx, s.key, productID.String(), int64(qty))
	if err != nil {
		return Mutation{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment session cart")
	}
	s.touch(ctx)
	return Mutation{Line: &Line{ProductID: productID, Quantity: int(total)}}, nil
}

func (s *SessionCart) Update(ctx context.Context, productID uuid.UUID, qty int) (Mutation, error) {
	if qty <= 0 {
		return Mutation{}, s.Remove(ctx, productID)
	}
	if err := s.store.HSet(ctx, s.key, productID.String(), qty); err != nil {
		return Mutation{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update session cart")
	}
	s.touch(ctx)
	return Mutation{Line: &Line{ProductID: productID, Quantity: qty}}, nil
}

func (s *SessionCart) Remove(ctx context.Context, productID uuid.UUID) error {
	if err := s.store.HDel(ctx, s.key, productID.String()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove from session cart")
	}
	return nil
}

func (s *SessionCart) Lines(ctx context.Context) ([]Line, error) {
	entries, err := s.store.HGetAll(ctx, s.key)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session cart")
	}
	lines := make([]Line, 0, len(entries))
	for field, raw := range entries {
		productID, err := uuid.Parse(field)
		if err != nil {
			continue
		}
		qty, err := strconv.Atoi(raw)
		if err != nil || qty <= 0 {
			continue
		}
		lines = append(lines, Line{ProductID: productID, Quantity: qty})
	}
	return lines, nil
}

func (s *SessionCart) Clear(ctx context.Context) error {
	if err := s.store.Del(ctx, s.key); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear session cart")
	}
	return nil
}

func (s *SessionCart) touch(ctx context.Context) {
	if s.ttl <= 0 {
		return
	}
	// TTL refresh is best effort; the cart is ephemeral either way.
	_ = s.store.Expire(ctx, s.key, s.ttl)
}
