package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/primestore/primestore-backend/internal/orders"
	"github.com/primestore/primestore-backend/pkg/db/models"
	"github.com/primestore/primestore-backend/pkg/enums"
	apperrors "github.com/primestore/primestore-backend/pkg/errors"
	"github.com/primestore/primestore-backend/pkg/logger"
	"github.com/primestore/primestore-backend/pkg/paystack"
	"github.com/primestore/primestore-backend/pkg/redis"
)

const (
	// EventChargeSuccess is the only webhook event type the reconciler acts on.
	EventChargeSuccess = "charge.success"

	dedupeScope = "paystack-event"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Event is the decoded webhook envelope.
type Event struct {
	Event string    `json:"event"`
	Data  EventData `json:"data"`
}

// EventData is the transaction payload inside a webhook event.
type EventData struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
}

// VerificationResult is what the manual verification endpoint reports back.
type VerificationResult struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Reference string `json:"reference"`
	Status    string `json:"status"`
}

// Service reconciles payments against pending orders. Webhook delivery and
// manual verification both funnel into the same settle path, which is
// guarded by a conditional status transition so an order is settled at most
// once no matter how many confirmations arrive.
type Service struct {
	tx        txRunner
	orders    *orders.Repository
	verifier  paystack.Verifier
	dedupe    redis.IdempotencyStore
	dedupeTTL time.Duration
	logger    *logger.Logger
}

func NewService(
	tx txRunner,
	ordersRepo *orders.Repository,
	verifier paystack.Verifier,
	dedupe redis.IdempotencyStore,
	dedupeTTL time.Duration,
	logg *logger.Logger,
) (*Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if verifier == nil {
		return nil, fmt.Errorf("payment verifier required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Service{
		tx:        tx,
		orders:    ordersRepo,
		verifier:  verifier,
		dedupe:    dedupe,
		dedupeTTL: dedupeTTL,
		logger:    logg,
	}, nil
}

// ParseEvent decodes a webhook body after the controller has verified its
// signature.
func ParseEvent(body []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeValidation, err, "decoding webhook event")
	}
	return &event, nil
}

// HandleWebhookEvent processes a signature-verified webhook delivery. Events
// other than charge.success, duplicate deliveries, and references that match
// no order are acknowledged without action; only infrastructure failures
// return an error, so the controller can have the provider redeliver.
func (s *Service) HandleWebhookEvent(ctx context.Context, event *Event) error {
	ctx = s.logger.WithOrderReference(ctx, event.Data.Reference)

	if event.Event != EventChargeSuccess {
		s.logger.Info(ctx, "ignoring webhook event "+event.Event)
		return nil
	}
	if event.Data.Status != paystack.TransactionStatusSuccess {
		s.logger.Info(ctx, "ignoring non-success charge event")
		return nil
	}

	fresh, release, err := s.claimEvent(ctx, event.Data.Reference)
	if err != nil {
		return err
	}
	if !fresh {
		s.logger.Info(ctx, "duplicate webhook delivery skipped")
		return nil
	}

	order, err := s.orders.FindByReference(ctx, event.Data.Reference)
	if err != nil {
		release()
		return apperrors.Wrap(apperrors.CodeInternal, err, "loading order")
	}
	if order == nil {
		// References we never issued are logged and acknowledged so the
		// provider stops redelivering them.
		s.logger.Warn(ctx, "webhook references unknown order")
		return nil
	}
	if !amountMatches(order, event.Data.Amount) {
		s.logger.Warn(ctx, "webhook amount does not match order total")
		return nil
	}

	if _, err := s.settle(ctx, order); err != nil {
		release()
		return err
	}
	return nil
}

// VerifyPayment is the shopper-initiated fallback for missed webhooks: it
// asks the provider for the transaction status and settles the order when
// the charge succeeded. Calling it on an already-paid order is a success.
func (s *Service) VerifyPayment(ctx context.Context, userID, orderID uuid.UUID) (*VerificationResult, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "loading order")
	}
	if order == nil || order.UserID != userID {
		return nil, apperrors.New(apperrors.CodeNotFound, "order not found")
	}
	ctx = s.logger.WithOrderReference(ctx, order.Reference)

	if order.Status != enums.OrderStatusPending {
		return &VerificationResult{
			Success:   true,
			Message:   "payment already confirmed",
			Reference: order.Reference,
			Status:    order.Status.String(),
		}, nil
	}

	transaction, err := s.verifier.VerifyTransaction(ctx, order.Reference)
	if err != nil {
		return nil, err
	}
	if transaction.Status != paystack.TransactionStatusSuccess {
		return &VerificationResult{
			Success:   false,
			Message:   "payment not completed",
			Reference: order.Reference,
			Status:    order.Status.String(),
		}, nil
	}
	if !amountMatches(order, transaction.Amount) {
		s.logger.Warn(ctx, "verified amount does not match order total")
		return nil, apperrors.New(apperrors.CodeConflict, "paid amount does not match order total")
	}

	won, err := s.settle(ctx, order)
	if err != nil {
		return nil, err
	}
	message := "payment confirmed"
	if !won {
		message = "payment already confirmed"
	}
	return &VerificationResult{
		Success:   true,
		Message:   message,
		Reference: order.Reference,
		Status:    enums.OrderStatusPaid.String(),
	}, nil
}

// settle performs the exactly-once transition: the conditional update from
// pending to paid elects a single winner, and only the winner decrements
// stock, inside the same transaction. Lines whose stock already ran out are
// skipped rather than driven negative.
func (s *Service) settle(ctx context.Context, order *models.Order) (bool, error) {
	var won bool
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.orders.WithTx(tx)

		var err error
		won, err = repo.MarkPaid(ctx, order.ID)
		if err != nil {
			return err
		}
		if !won {
			return nil
		}

		for _, item := range order.Items {
			applied, err := repo.DecrementStock(ctx, item.ProductID, item.Quantity)
			if err != nil {
				return err
			}
			if !applied {
				s.logger.Warn(ctx, fmt.Sprintf("stock decrement skipped for product %s", item.ProductID))
			}
		}
		return nil
	})
	if err != nil {
		return false, apperrors.Wrap(apperrors.CodeInternal, err, "settling order")
	}
	if won {
		s.logger.Info(ctx, "order settled")
	}
	return won, nil
}

// claimEvent marks a webhook delivery as seen. The returned release func
// clears the claim so a failed delivery can be retried by the provider.
func (s *Service) claimEvent(ctx context.Context, reference string) (bool, func(), error) {
	if s.dedupe == nil {
		return true, func() {}, nil
	}
	key := s.dedupe.IdempotencyKey(dedupeScope, reference)
	fresh, err := s.dedupe.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), s.dedupeTTL)
	if err != nil {
		return false, nil, apperrors.Wrap(apperrors.CodeDependency, err, "claiming webhook event")
	}
	release := func() {
		if err := s.dedupe.Del(ctx, key); err != nil {
			s.logger.Warn(ctx, "releasing webhook claim failed")
		}
	}
	return fresh, release, nil
}

// amountMatches compares the provider's subunit amount against the order
// total. Paystack reports amounts in the currency's minor unit.
func amountMatches(order *models.Order, subunits int64) bool {
	expected := order.TotalAmount.Mul(decimal.NewFromInt(100)).Truncate(0)
	return expected.Equal(decimal.NewFromInt(subunits))
}
