package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/primestore/primestore-backend/api/middleware"
	"github.com/primestore/primestore-backend/api/responses"
	"github.com/primestore/primestore-backend/api/validators"
	cartsvc "github.com/primestore/primestore-backend/internal/cart"
	pkgerrors "github.com/primestore/primestore-backend/pkg/errors"
	"github.com/primestore/primestore-backend/pkg/logger"
)

// CartService is the cart surface the controllers depend on.
type CartService interface {
	ForSession(sessionID string) cartsvc.Source
	ForUser(userID uuid.UUID) cartsvc.Source
	Summarize(ctx context.Context, source cartsvc.Source) (*cartsvc.View, error)
	Migrate(ctx context.Context, sessionID string, userID uuid.UUID) error
}

// CartItemRequest is the body for adding or updating a cart line. Quantity
// defaults to 1 when omitted.
type CartItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"omitempty,min=1,max=999"`
}

// CartQuantityRequest is the body for setting a line's quantity. Zero means
// remove.
type CartQuantityRequest struct {
	Quantity int `json:"quantity" validate:"min=0,max=999"`
}

// CartMutationView reports the outcome of a cart write: the refreshed
// summary plus the stock warning when the write was clamped away.
type CartMutationView struct {
	Cart    *cartsvc.View         `json:"cart"`
	Warning *cartsvc.StockWarning `json:"warning,omitempty"`
}

// CartFetch returns the current cart: the persisted one for authenticated
// shoppers, the session one otherwise.
func CartFetch(svc CartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		source, err := resolveCartSource(r, svc, logg)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Summarize(r.Context(), source)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, view)
	}
}

// CartAddItem adds quantity to a line, creating it when absent.
func CartAddItem(svc CartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		source, err := resolveCartSource(r, svc, logg)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload CartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if payload.Quantity == 0 {
			payload.Quantity = 1
		}

		mutation, err := source.Add(r.Context(), payload.ProductID, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		writeCartMutation(w, r, svc, logg, source, mutation)
	}
}

// CartUpdateItem sets a line's quantity; zero removes the line.
func CartUpdateItem(svc CartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		source, err := resolveCartSource(r, svc, logg)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := uuid.Parse(chi.URLParam(r, "productID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		var payload CartQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		mutation, err := source.Update(r.Context(), productID, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		writeCartMutation(w, r, svc, logg, source, mutation)
	}
}

// CartRemoveItem deletes a line. Removing an absent line succeeds.
func CartRemoveItem(svc CartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		source, err := resolveCartSource(r, svc, logg)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := uuid.Parse(chi.URLParam(r, "productID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		if err := source.Remove(r.Context(), productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Summarize(r.Context(), source)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// CartMigrate merges the anonymous session cart into the authenticated
// shopper's persisted cart. Safe to call repeatedly; an empty session cart
// is a no-op.
func CartMigrate(svc CartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sessionID := middleware.SessionIDFromContext(r.Context())
		if sessionID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cart session missing"))
			return
		}

		if err := svc.Migrate(r.Context(), sessionID, userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Summarize(r.Context(), svc.ForUser(userID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func writeCartMutation(w http.ResponseWriter, r *http.Request, svc CartService, logg *logger.Logger, source cartsvc.Source, mutation cartsvc.Mutation) {
	view, err := svc.Summarize(r.Context(), source)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	responses.WriteSuccess(w, CartMutationView{Cart: view, Warning: mutation.Warning})
}

// resolveCartSource picks the persisted cart when the request carries a
// valid user identity and falls back to the session cart otherwise.
func resolveCartSource(r *http.Request, svc CartService, logg *logger.Logger) (cartsvc.Source, error) {
	if svc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable")
	}
	if raw := middleware.UserIDFromContext(r.Context()); raw != "" {
		userID, err := uuid.Parse(raw)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
		}
		return svc.ForUser(userID), nil
	}
	sessionID := middleware.SessionIDFromContext(r.Context())
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart session missing")
	}
	return svc.ForSession(sessionID), nil
}

func userIDFromContext(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return userID, nil
}
