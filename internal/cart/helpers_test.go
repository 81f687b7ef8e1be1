package cart

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/primestore/primestore-backend/pkg/db/models"
)

func setupCartDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:cart_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&models.Product{}, &models.Cart{}, &models.CartLine{}))
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, name string, price string, stock int) models.Product {
	t.Helper()

	amount, err := decimal.NewFromString(price)
	require.NoError(t, err)

	product := models.Product{
		ID:    uuid.New(),
		Name:  name,
		Price: amount,
		Stock: stock,
	}
	require.NoError(t, db.Create(&product).Error)
	return product
}

// dbProducts adapts the test DB to the productLoader interface the cart
// variants expect.
type dbProducts struct {
	db *gorm.DB
}

func (p dbProducts) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := p.db.WithContext(ctx).First(&product, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (p dbProducts) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	var products []models.Product
	if err := p.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// fakeSessionStore is an in-memory stand-in for the Redis hash surface.
type fakeSessionStore struct {
	hashes map[string]map[string]string
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{hashes: map[string]map[string]string{}}
}

func (f *fakeSessionStore) hash(key string) map[string]string {
	if f.hashes[key] == nil {
		f.hashes[key] = map[string]string{}
	}
	return f.hashes[key]
}

func (f *fakeSessionStore) HGetAll(_ context.Context, key string) (map[string]string, error) {
	out := map[string]string{}
	for k, v := range f.hashes[key] {
		out[k] = v
	}
	return out, nil
}

func (f *fakeSessionStore) HIncrBy(_ context.Context, key, field string, delta int64) (int64, error) {
	h := f.hash(key)
	current := int64(0)
	if raw, ok := h[field]; ok {
		fmt.Sscanf(raw, "%d", &current)
	}
	current += delta
	h[field] = fmt.Sprintf("%d", current)
	return current, nil
}

func (f *fakeSessionStore) HSet(_ context.Context, key, field string, value any) error {
	f.hash(key)[field] = fmt.Sprintf("%v", value)
	return nil
}

func (f *fakeSessionStore) HDel(_ context.Context, key string, fields ...string) error {
	h := f.hash(key)
	for _, field := range fields {
		delete(h, field)
	}
	return nil
}

func (f *fakeSessionStore) Expire(_ context.Context, _ string, _ time.Duration) error {
	return nil
}

func (f *fakeSessionStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.hashes, key)
	}
	return nil
}

func (f *fakeSessionStore) SessionCartKey(sessionID string) string {
	return "test:cart:session:" + sessionID
}

// gormTxRunner satisfies txRunner on top of a raw test DB.
type gormTxRunner struct {
	db *gorm.DB
}

func (g gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return g.db.WithContext(ctx).Transaction(fn)
}
