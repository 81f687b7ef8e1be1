package catalog

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

func setupCatalogDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:catalog_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&models.Product{}))
	return db
}

func seedCatalog(t *testing.T, db *gorm.DB) {
	t.Helper()

	products := []models.Product{
		{ID: uuid.New(), Name: "Aluminum Bottle", Price: decimal.RequireFromString("12.00"), Stock: 5, Category: "Kitchen"},
		{ID: uuid.New(), Name: "Bamboo Cutting Board", Price: decimal.RequireFromString("30.00"), Stock: 3, Category: "Kitchen"},
		{ID: uuid.New(), Name: "Desk Lamp", Price: decimal.RequireFromString("25.50"), Stock: 8, Category: "Office"},
		{ID: uuid.New(), Name: "Ergonomic Chair", Price: decimal.RequireFromString("220.00"), Stock: 2, Category: "Office"},
	}
	for i := range products {
		require.NoError(t, db.Create(&products[i]).Error)
	}
}

func TestFindFiltersByCategory(t *testing.T) {
	t.Parallel()

	db := setupCatalogDB(t)
	seedCatalog(t, db)
	repo := NewRepository(db)

	results, total, err := repo.Find(context.Background(), Filter{Category: "Office"}, pagination.Params{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, results, 2)
	for _, product := range results {
		assert.Equal(t, "Office", product.Category)
	}
}

func TestFindTextSearch(t *testing.T) {
	t.Parallel()

	db := setupCatalogDB(t)
	seedCatalog(t, db)
	repo := NewRepository(db)

	results, total, err := repo.Find(context.Background(), Filter{Query: "lamp"}, pagination.Params{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, results, 1)
	assert.Equal(t, "Desk Lamp", results[0].Name)
}

func TestFindPriceBounds(t *testing.T) {
	t.Parallel()

	db := setupCatalogDB(t)
	seedCatalog(t, db)
	repo := NewRepository(db)

	min := decimal.RequireFromString("20.00")
	max := decimal.RequireFromString("40.00")
	results, total, err := repo.Find(context.Background(), Filter{MinPrice: &min, MaxPrice: &max}, pagination.Params{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	for _, product := range results {
		assert.True(t, product.Price.GreaterThanOrEqual(min))
		assert.True(t, product.Price.LessThanOrEqual(max))
	}
}

func TestFindSortOrders(t *testing.T) {
	t.Parallel()

	db := setupCatalogDB(t)
	seedCatalog(t, db)
	repo := NewRepository(db)

	results, _, err := repo.Find(context.Background(), Filter{Sort: enums.ProductSortPriceLow}, pagination.Params{Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, results, 4)
	for i := 1; i < len(results); i++ {
		assert.True(t, results[i].Price.GreaterThanOrEqual(results[i-1].Price))
	}

	results, _, err = repo.Find(context.Background(), Filter{Sort: enums.ProductSortPriceHigh}, pagination.Params{Page: 1, PageSize: 10})
	require.NoError(t, err)
	for i := 1; i < len(results); i++ {
		assert.True(t, results[i].Price.LessThanOrEqual(results[i-1].Price))
	}

	// Default sort is alphabetical.
	results, _, err = repo.Find(context.Background(), Filter{}, pagination.Params{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, "Aluminum Bottle", results[0].Name)
}

func TestFindPaginates(t *testing.T) {
	t.Parallel()

	db := setupCatalogDB(t)
	seedCatalog(t, db)
	repo := NewRepository(db)

	page1, total, err := repo.Find(context.Background(), Filter{}, pagination.Params{Page: 1, PageSize: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	assert.Len(t, page1, 3)

	page2, _, err := repo.Find(context.Background(), Filter{}, pagination.Params{Page: 2, PageSize: 3})
	require.NoError(t, err)
	assert.Len(t, page2, 1)
}

func TestDistinctCategories(t *testing.T) {
	t.Parallel()

	db := setupCatalogDB(t)
	seedCatalog(t, db)
	repo := NewRepository(db)

	categories, err := repo.DistinctCategories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Kitchen", "Office"}, categories)
}

func TestFindByIDMissing(t *testing.T) {
	t.Parallel()

	db := setupCatalogDB(t)
	repo := NewRepository(db)

	product, err := repo.FindByID(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, product)
}
