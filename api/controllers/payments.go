package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/primestore/primestore-backend/api/responses"
	"github.com/primestore/primestore-backend/internal/payments"
	pkgerrors "github.com/primestore/primestore-backend/pkg/errors"
	"github.com/primestore/primestore-backend/pkg/logger"
)

// PaymentVerifier is the manual-verification surface the controller depends on.
type PaymentVerifier interface {
	VerifyPayment(ctx context.Context, userID, orderID uuid.UUID) (*payments.VerificationResult, error)
}

// PaymentVerify lets a shopper confirm a pending order whose webhook was
// missed. The provider is consulted and the order settled when the charge
// succeeded; verifying an already-paid order simply reports success.
func PaymentVerify(svc PaymentVerifier, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		result, err := svc.VerifyPayment(r.Context(), userID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
