package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/primestore/primestore-backend/api/responses"
	"github.com/primestore/primestore-backend/api/validators"
	checkoutsvc "github.com/primestore/primestore-backend/internal/checkout"
	"github.com/primestore/primestore-backend/pkg/db/models"
	pkgerrors "github.com/primestore/primestore-backend/pkg/errors"
	"github.com/primestore/primestore-backend/pkg/logger"
)

// CheckoutService is the order-placement surface the controller depends on.
type CheckoutService interface {
	PlaceOrder(ctx context.Context, userID uuid.UUID, shipping checkoutsvc.ShippingDetails) (*models.Order, error)
}

// Checkout converts the shopper's cart into a pending order.
func Checkout(svc CheckoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutsvc.ShippingDetails
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.PlaceOrder(r.Context(), userID, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newOrderView(order))
	}
}
