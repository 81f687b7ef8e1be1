package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/primestore/primestore-backend/pkg/db/models"
	apperrors "github.com/primestore/primestore-backend/pkg/errors"
	"github.com/primestore/primestore-backend/pkg/pagination"
)

// Listing is one page of catalog results plus the filter context the
// storefront needs to render it.
type Listing struct {
	Products   []models.Product `json:"products"`
	Pagination pagination.Page  `json:"pagination"`
	Categories []string         `json:"categories"`
}

// Service is the read side of the catalog.
type Service struct {
	repo       *Repository
	categories *CategoryCache
	pageSize   int
}

func NewService(repo *Repository, categories *CategoryCache, pageSize int) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if pageSize <= 0 {
		pageSize = pagination.DefaultPageSize
	}
	return &Service{repo: repo, categories: categories, pageSize: pageSize}, nil
}

// List returns a filtered, sorted page of products together with the
// category list for filter navigation.
func (s *Service) List(ctx context.Context, filter Filter, params pagination.Params) (*Listing, error) {
	params = params.Normalize(s.pageSize)

	products, total, err := s.repo.Find(ctx, filter, params)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "listing products")
	}
	categories, err := s.Categories(ctx)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []models.Product{}
	}
	return &Listing{
		Products:   products,
		Pagination: pagination.NewPage(params, total),
		Categories: categories,
	}, nil
}

// GetProduct returns one product by id.
func (s *Service) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "loading product")
	}
	if product == nil {
		return nil, apperrors.New(apperrors.CodeNotFound, "product not found")
	}
	return product, nil
}

// Categories returns the distinct category names, served from cache when
// warm and refilled from the database on a miss.
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	if s.categories != nil {
		if cached, ok := s.categories.Get(ctx); ok {
			return cached, nil
		}
	}
	categories, err := s.repo.DistinctCategories(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "listing categories")
	}
	if categories == nil {
		categories = []string{}
	}
	if s.categories != nil {
		s.categories.Put(ctx, categories)
	}
	return categories, nil
}
