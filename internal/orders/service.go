package orders

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/primestore/primestore-backend/pkg/db/models"
	apperrors "github.com/primestore/primestore-backend/pkg/errors"
	"github.com/primestore/primestore-backend/pkg/pagination"
)

// Service serves a shopper's own order history. Orders belonging to someone
// else read as not found rather than forbidden, so ids leak nothing.
type Service struct {
	repo     *Repository
	pageSize int
}

func NewService(repo *Repository, pageSize int) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if pageSize <= 0 {
		pageSize = pagination.DefaultPageSize
	}
	return &Service{repo: repo, pageSize: pageSize}, nil
}

// List returns one page of the user's orders, newest first.
func (s *Service) List(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, pagination.Page, error) {
	params = params.Normalize(s.pageSize)
	results, total, err := s.repo.ListByUser(ctx, userID, params)
	if err != nil {
		return nil, pagination.Page{}, apperrors.Wrap(apperrors.CodeInternal, err, "listing orders")
	}
	if results == nil {
		results = []models.Order{}
	}
	return results, pagination.NewPage(params, total), nil
}

// Get returns one of the user's orders with its items.
func (s *Service) Get(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "loading order")
	}
	if order == nil || order.UserID != userID {
		return nil, apperrors.New(apperrors.CodeNotFound, "order not found")
	}
	return order, nil
}
