package payments

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/primestore/primestore-backend/internal/orders"
	"github.com/primestore/primestore-backend/pkg/db/models"
	"github.com/primestore/primestore-backend/pkg/enums"
	pkgerrors "github.com/primestore/primestore-backend/pkg/errors"
	"github.com/primestore/primestore-backend/pkg/logger"
	"github.com/primestore/primestore-backend/pkg/paystack"
	"github.com/primestore/primestore-backend/pkg/redis"
)

func setupPaymentsDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:payments_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&models.Product{}, &models.Order{}, &models.OrderItem{}))
	return db
}

type gormTxRunner struct {
	db *gorm.DB
}

func (g gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return g.db.WithContext(ctx).Transaction(fn)
}

// stubVerifier returns a scripted provider response and counts calls.
type stubVerifier struct {
	transaction *paystack.Transaction
	err         error
	calls       int
}

func (s *stubVerifier) VerifyTransaction(_ context.Context, _ string) (*paystack.Transaction, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.transaction, nil
}

// fakeDedupe is an in-memory idempotency store.
type fakeDedupe struct {
	keys map[string]bool
}

func newFakeDedupe() *fakeDedupe {
	return &fakeDedupe{keys: map[string]bool{}}
}

func (f *fakeDedupe) SetNX(_ context.Context, key string, _ any, _ time.Duration) (bool, error) {
	if f.keys[key] {
		return false, nil
	}
	f.keys[key] = true
	return true, nil
}

func (f *fakeDedupe) IdempotencyKey(scope, id string) string {
	return "test:idempotency:" + scope + ":" + id
}

func (f *fakeDedupe) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.keys, key)
	}
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func newTestService(t *testing.T, db *gorm.DB, verifier paystack.Verifier, dedupe redis.IdempotencyStore) *Service {
	t.Helper()

	svc, err := NewService(gormTxRunner{db: db}, orders.NewRepository(db), verifier, dedupe, time.Hour, testLogger())
	require.NoError(t, err)
	return svc
}

func seedPendingOrder(t *testing.T, db *gorm.DB, userID uuid.UUID, stock, qty int) (*models.Order, models.Product) {
	t.Helper()

	product := models.Product{
		ID:    uuid.New(),
		Name:  "Desk Lamp",
		Price: decimal.RequireFromString("25.50"),
		Stock: stock,
	}
	require.NoError(t, db.Create(&product).Error)

	total := product.Price.Mul(decimal.NewFromInt(int64(qty)))
	order := models.Order{
		ID:          uuid.New(),
		UserID:      userID,
		Reference:   "PS-" + uuid.NewString()[:16],
		TotalAmount: total,
		Status:      enums.OrderStatusPending,
		Items: []models.OrderItem{{
			ID:        uuid.New(),
			ProductID: product.ID,
			Quantity:  qty,
			UnitPrice: product.Price,
		}},
	}
	require.NoError(t, db.Create(&order).Error)
	return &order, product
}

func successEvent(order *models.Order) *Event {
	return &Event{
		Event: EventChargeSuccess,
		Data: EventData{
			Reference: order.Reference,
			Status:    paystack.TransactionStatusSuccess,
			Amount:    order.TotalAmount.Mul(decimal.NewFromInt(100)).IntPart(),
			Currency:  "NGN",
		},
	}
}

func currentStock(t *testing.T, db *gorm.DB, productID uuid.UUID) int {
	t.Helper()

	var product models.Product
	require.NoError(t, db.First(&product, "id = ?", productID).Error)
	return product.Stock
}

func currentStatus(t *testing.T, db *gorm.DB, orderID uuid.UUID) enums.OrderStatus {
	t.Helper()

	var order models.Order
	require.NoError(t, db.First(&order, "id = ?", orderID).Error)
	return order.Status
}

func TestWebhookSettlesOrderOnce(t *testing.T) {
	t.Parallel()

	db := setupPaymentsDB(t)
	svc := newTestService(t, db, &stubVerifier{}, nil)
	order, product := seedPendingOrder(t, db, uuid.New(), 10, 2)

	require.NoError(t, svc.HandleWebhookEvent(context.Background(), successEvent(order)))
	assert.Equal(t, enums.OrderStatusPaid, currentStatus(t, db, order.ID))
	assert.Equal(t, 8, currentStock(t, db, product.ID))

	// Redelivery after the order is paid changes nothing: the conditional
	// transition has no pending row left to win.
	require.NoError(t, svc.HandleWebhookEvent(context.Background(), successEvent(order)))
	assert.Equal(t, 8, currentStock(t, db, product.ID))
}

func TestWebhookDuplicateDeliverySkippedByDedupe(t *testing.T) {
	t.Parallel()

	db := setupPaymentsDB(t)
	dedupe := newFakeDedupe()
	svc := newTestService(t, db, &stubVerifier{}, dedupe)
	order, product := seedPendingOrder(t, db, uuid.New(), 10, 2)

	require.NoError(t, svc.HandleWebhookEvent(context.Background(), successEvent(order)))
	require.NoError(t, svc.HandleWebhookEvent(context.Background(), successEvent(order)))

	assert.Equal(t, enums.OrderStatusPaid, currentStatus(t, db, order.ID))
	assert.Equal(t, 8, currentStock(t, db, product.ID))
}

func TestWebhookIgnoresOtherEvents(t *testing.T) {
	t.Parallel()

	db := setupPaymentsDB(t)
	svc := newTestService(t, db, &stubVerifier{}, nil)
	order, product := seedPendingOrder(t, db, uuid.New(), 10, 2)

	event := successEvent(order)
	event.Event = "transfer.success"
	require.NoError(t, svc.HandleWebhookEvent(context.Background(), event))

	assert.Equal(t, enums.OrderStatusPending, currentStatus(t, db, order.ID))
	assert.Equal(t, 10, currentStock(t, db, product.ID))
}

func TestWebhookUnknownReferenceAcknowledged(t *testing.T) {
	t.Parallel()

	db := setupPaymentsDB(t)
	svc := newTestService(t, db, &stubVerifier{}, nil)

	event := &Event{
		Event: EventChargeSuccess,
		Data: EventData{
			Reference: "PS-DOESNOTEXIST0000",
			Status:    paystack.TransactionStatusSuccess,
			Amount:    5100,
		},
	}
	require.NoError(t, svc.HandleWebhookEvent(context.Background(), event))
}

func TestWebhookAmountMismatchLeavesOrderPending(t *testing.T) {
	t.Parallel()

	db := setupPaymentsDB(t)
	svc := newTestService(t, db, &stubVerifier{}, nil)
	order, product := seedPendingOrder(t, db, uuid.New(), 10, 2)

	event := successEvent(order)
	event.Data.Amount = 1
	require.NoError(t, svc.HandleWebhookEvent(context.Background(), event))

	assert.Equal(t, enums.OrderStatusPending, currentStatus(t, db, order.ID))
	assert.Equal(t, 10, currentStock(t, db, product.ID))
}

func TestWebhookClampsDecrementWhenStockRanOut(t *testing.T) {
	t.Parallel()

	db := setupPaymentsDB(t)
	svc := newTestService(t, db, &stubVerifier{}, nil)
	// Ordered 5 but only 3 remain by settlement time.
	order, product := seedPendingOrder(t, db, uuid.New(), 3, 5)

	require.NoError(t, svc.HandleWebhookEvent(context.Background(), successEvent(order)))

	// The order still settles; the decrement is skipped instead of driving
	// stock negative.
	assert.Equal(t, enums.OrderStatusPaid, currentStatus(t, db, order.ID))
	assert.Equal(t, 3, currentStock(t, db, product.ID))
}

func TestVerifyPaymentSettlesPendingOrder(t *testing.T) {
	t.Parallel()

	db := setupPaymentsDB(t)
	userID := uuid.New()
	order, product := seedPendingOrder(t, db, userID, 10, 2)
	verifier := &stubVerifier{transaction: &paystack.Transaction{
		Status:    paystack.TransactionStatusSuccess,
		Reference: order.Reference,
		Amount:    order.TotalAmount.Mul(decimal.NewFromInt(100)).IntPart(),
	}}
	svc := newTestService(t, db, verifier, nil)

	result, err := svc.VerifyPayment(context.Background(), userID, order.ID)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 1, verifier.calls)
	assert.Equal(t, enums.OrderStatusPaid, currentStatus(t, db, order.ID))
	assert.Equal(t, 8, currentStock(t, db, product.ID))
}

func TestVerifyPaymentAlreadyPaidSkipsProvider(t *testing.T) {
	t.Parallel()

	db := setupPaymentsDB(t)
	userID := uuid.New()
	order, product := seedPendingOrder(t, db, userID, 10, 2)
	require.NoError(t, db.Model(&models.Order{}).
		Where("id = ?", order.ID).
		Update("status", enums.OrderStatusPaid).Error)

	verifier := &stubVerifier{}
	svc := newTestService(t, db, verifier, nil)

	result, err := svc.VerifyPayment(context.Background(), userID, order.ID)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 0, verifier.calls)
	assert.Equal(t, 10, currentStock(t, db, product.ID))
}

func TestVerifyPaymentIncompleteCharge(t *testing.T) {
	t.Parallel()

	db := setupPaymentsDB(t)
	userID := uuid.New()
	order, product := seedPendingOrder(t, db, userID, 10, 2)
	verifier := &stubVerifier{transaction: &paystack.Transaction{
		Status:    "abandoned",
		Reference: order.Reference,
	}}
	svc := newTestService(t, db, verifier, nil)

	result, err := svc.VerifyPayment(context.Background(), userID, order.ID)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, enums.OrderStatusPending, currentStatus(t, db, order.ID))
	assert.Equal(t, 10, currentStock(t, db, product.ID))
}

func TestVerifyPaymentProviderFailure(t *testing.T) {
	t.Parallel()

	db := setupPaymentsDB(t)
	userID := uuid.New()
	order, _ := seedPendingOrder(t, db, userID, 10, 2)
	verifier := &stubVerifier{err: pkgerrors.New(pkgerrors.CodeProvider, "paystack unavailable")}
	svc := newTestService(t, db, verifier, nil)

	_, err := svc.VerifyPayment(context.Background(), userID, order.ID)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeProvider, typed.Code())
	assert.Equal(t, enums.OrderStatusPending, currentStatus(t, db, order.ID))
}

func TestVerifyPaymentForeignOrderReadsNotFound(t *testing.T) {
	t.Parallel()

	db := setupPaymentsDB(t)
	order, _ := seedPendingOrder(t, db, uuid.New(), 10, 2)
	svc := newTestService(t, db, &stubVerifier{}, nil)

	_, err := svc.VerifyPayment(context.Background(), uuid.New(), order.ID)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestParseEvent(t *testing.T) {
	t.Parallel()

	event, err := ParseEvent([]byte(`{"event":"charge.success","data":{"reference":"PS-ABC","status":"success","amount":5100,"currency":"NGN"}}`))
	require.NoError(t, err)
	assert.Equal(t, EventChargeSuccess, event.Event)
	assert.Equal(t, int64(5100), event.Data.Amount)

	_, err = ParseEvent([]byte(`{not json`))
	require.Error(t, err)
}
