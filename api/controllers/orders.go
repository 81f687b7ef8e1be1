package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/primestore/primestore-backend/api/responses"
	"github.com/primestore/primestore-backend/api/validators"
	"github.com/primestore/primestore-backend/pkg/db/models"
	pkgerrors "github.com/primestore/primestore-backend/pkg/errors"
	"github.com/primestore/primestore-backend/pkg/logger"
	"github.com/primestore/primestore-backend/pkg/pagination"
)

// OrdersService is the order-history surface the controllers depend on.
type OrdersService interface {
	List(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, pagination.Page, error)
	Get(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
}

// OrderListView pages the shopper's order history.
type OrderListView struct {
	Orders     []OrderView     `json:"orders"`
	Pagination pagination.Page `json:"pagination"`
}

// OrderList serves the shopper's orders, newest first.
func OrderList(svc OrdersService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := validators.ParseQueryInt(r, "page", 1, 1, 1_000_000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		pageSize, err := validators.ParseQueryInt(r, "page_size", 0, 1, pagination.MaxPageSize)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		results, pageMeta, err := svc.List(r.Context(), userID, pagination.Params{Page: page, PageSize: pageSize})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		views := make([]OrderView, 0, len(results))
		for i := range results {
			views = append(views, newOrderView(&results[i]))
		}
		responses.WriteSuccess(w, OrderListView{Orders: views, Pagination: pageMeta})
	}
}

// OrderGet serves one of the shopper's orders with its frozen items.
func OrderGet(svc OrdersService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
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

		order, err := svc.Get(r.Context(), userID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderView(order))
	}
}
