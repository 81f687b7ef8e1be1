package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/primestore/primestore-backend/api/responses"
	"github.com/primestore/primestore-backend/api/validators"
	"github.com/primestore/primestore-backend/internal/catalog"
	"github.com/primestore/primestore-backend/pkg/db/models"
	"github.com/primestore/primestore-backend/pkg/enums"
	pkgerrors "github.com/primestore/primestore-backend/pkg/errors"
	"github.com/primestore/primestore-backend/pkg/logger"
	"github.com/primestore/primestore-backend/pkg/pagination"
)

// CatalogService is the catalog surface the product controllers depend on.
type CatalogService interface {
	List(ctx context.Context, filter catalog.Filter, params pagination.Params) (*catalog.Listing, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// ProductList serves the filtered, sorted, paged catalog.
func ProductList(svc CatalogService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		filter, params, err := parseCatalogQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		listing, err := svc.List(r.Context(), filter, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, listing)
	}
}

// ProductGet serves a single product by id.
func ProductGet(svc CatalogService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "productID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		product, err := svc.GetProduct(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

func parseCatalogQuery(r *http.Request) (catalog.Filter, pagination.Params, error) {
	query := r.URL.Query()

	sort, err := parseSort(query.Get("sort"))
	if err != nil {
		return catalog.Filter{}, pagination.Params{}, err
	}

	minPrice, err := validators.ParseQueryDecimal(r, "min_price")
	if err != nil {
		return catalog.Filter{}, pagination.Params{}, err
	}
	maxPrice, err := validators.ParseQueryDecimal(r, "max_price")
	if err != nil {
		return catalog.Filter{}, pagination.Params{}, err
	}

	page, err := validators.ParseQueryInt(r, "page", 1, 1, 1_000_000)
	if err != nil {
		return catalog.Filter{}, pagination.Params{}, err
	}
	pageSize, err := validators.ParseQueryInt(r, "page_size", 0, 1, pagination.MaxPageSize)
	if err != nil {
		return catalog.Filter{}, pagination.Params{}, err
	}

	filter := catalog.Filter{
		Query:       strings.TrimSpace(query.Get("q")),
		Category:    strings.TrimSpace(query.Get("category")),
		Subcategory: strings.TrimSpace(query.Get("subcategory")),
		MinPrice:    minPrice,
		MaxPrice:    maxPrice,
		Sort:        sort,
	}
	return filter, pagination.Params{Page: page, PageSize: pageSize}, nil
}

func parseSort(raw string) (enums.ProductSort, error) {
	sort, err := enums.ParseProductSort(strings.TrimSpace(raw))
	if err != nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "unknown sort order").WithDetails(map[string]any{"field": "sort"})
	}
	return sort, nil
}
