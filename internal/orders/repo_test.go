package orders

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/primestore/primestore-backend/pkg/db/models"
	"github.com/primestore/primestore-backend/pkg/enums"
	"github.com/primestore/primestore-backend/pkg/pagination"
)

func setupOrdersDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:orders_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&models.Product{}, &models.Order{}, &models.OrderItem{}))
	return db
}

func seedOrder(t *testing.T, db *gorm.DB, userID uuid.UUID, status enums.OrderStatus) *models.Order {
	t.Helper()

	order := models.Order{
		ID:          uuid.New(),
		UserID:      userID,
		Reference:   "PS-" + uuid.NewString()[:16],
		TotalAmount: decimal.RequireFromString("51.00"),
		Status:      status,
		Items: []models.OrderItem{{
			ID:        uuid.New(),
			ProductID: uuid.New(),
			Quantity:  2,
			UnitPrice: decimal.RequireFromString("25.50"),
		}},
	}
	require.NoError(t, db.Create(&order).Error)
	return &order
}

func TestMarkPaidWinsOnlyOnce(t *testing.T) {
	t.Parallel()

	db := setupOrdersDB(t)
	repo := NewRepository(db)
	order := seedOrder(t, db, uuid.New(), enums.OrderStatusPending)

	won, err := repo.MarkPaid(context.Background(), order.ID)
	require.NoError(t, err)
	assert.True(t, won)

	won, err = repo.MarkPaid(context.Background(), order.ID)
	require.NoError(t, err)
	assert.False(t, won)
}

func TestMarkPaidIgnoresNonPending(t *testing.T) {
	t.Parallel()

	db := setupOrdersDB(t)
	repo := NewRepository(db)
	order := seedOrder(t, db, uuid.New(), enums.OrderStatusCancelled)

	won, err := repo.MarkPaid(context.Background(), order.ID)
	require.NoError(t, err)
	assert.False(t, won)
}

func TestDecrementStockClamps(t *testing.T) {
	t.Parallel()

	db := setupOrdersDB(t)
	repo := NewRepository(db)

	product := models.Product{
		ID:    uuid.New(),
		Name:  "Desk Lamp",
		Price: decimal.RequireFromString("25.50"),
		Stock: 3,
	}
	require.NoError(t, db.Create(&product).Error)

	applied, err := repo.DecrementStock(context.Background(), product.ID, 2)
	require.NoError(t, err)
	assert.True(t, applied)

	// Only 1 left; asking for 2 must not apply.
	applied, err = repo.DecrementStock(context.Background(), product.ID, 2)
	require.NoError(t, err)
	assert.False(t, applied)

	var current models.Product
	require.NoError(t, db.First(&current, "id = ?", product.ID).Error)
	assert.Equal(t, 1, current.Stock)
}

func TestFindByReference(t *testing.T) {
	t.Parallel()

	db := setupOrdersDB(t)
	repo := NewRepository(db)
	order := seedOrder(t, db, uuid.New(), enums.OrderStatusPending)

	found, err := repo.FindByReference(context.Background(), order.Reference)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, order.ID, found.ID)
	assert.Len(t, found.Items, 1)

	missing, err := repo.FindByReference(context.Background(), "PS-UNKNOWN000000000")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestReferenceExists(t *testing.T) {
	t.Parallel()

	db := setupOrdersDB(t)
	repo := NewRepository(db)
	order := seedOrder(t, db, uuid.New(), enums.OrderStatusPending)

	taken, err := repo.ReferenceExists(context.Background(), order.Reference)
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = repo.ReferenceExists(context.Background(), "PS-FRESH00000000000")
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestListByUserPagesNewestFirst(t *testing.T) {
	t.Parallel()

	db := setupOrdersDB(t)
	repo := NewRepository(db)
	userID := uuid.New()

	for i := 0; i < 5; i++ {
		seedOrder(t, db, userID, enums.OrderStatusPending)
	}
	seedOrder(t, db, uuid.New(), enums.OrderStatusPending)

	results, total, err := repo.ListByUser(context.Background(), userID, pagination.Params{Page: 1, PageSize: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, results, 3)

	results, _, err = repo.ListByUser(context.Background(), userID, pagination.Params{Page: 2, PageSize: 3})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestServiceGetEnforcesOwnership(t *testing.T) {
	t.Parallel()

	db := setupOrdersDB(t)
	svc, err := NewService(NewRepository(db), 12)
	require.NoError(t, err)
	order := seedOrder(t, db, uuid.New(), enums.OrderStatusPending)

	_, err = svc.Get(context.Background(), uuid.New(), order.ID)
	require.Error(t, err)

	found, err := svc.Get(context.Background(), order.UserID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)
}
