package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/primestore/primestore-backend/api/middleware"
	cartsvc "github.com/primestore/primestore-backend/internal/cart"
)

type stubCartSource struct {
	mutation cartsvc.Mutation
	lines    []cartsvc.Line
	removed  []uuid.UUID
}

func (s *stubCartSource) Add(ctx context.Context, productID uuid.UUID, qty int) (cartsvc.Mutation, error) {
	return s.mutation, nil
}

func (s *stubCartSource) Update(ctx context.Context, productID uuid.UUID, qty int) (cartsvc.Mutation, error) {
	return s.mutation, nil
}

func (s *stubCartSource) Remove(ctx context.Context, productID uuid.UUID) error {
	s.removed = append(s.removed, productID)
	return nil
}

func (s *stubCartSource) Lines(ctx context.Context) ([]cartsvc.Line, error) {
	return s.lines, nil
}

func (s *stubCartSource) Clear(ctx context.Context) error {
	s.lines = nil
	return nil
}

type stubCartService struct {
	source      *stubCartSource
	userSource  *stubCartSource
	view        *cartsvc.View
	migrated    bool
	sessionSeen string
	userSeen    uuid.UUID
}

func (s *stubCartService) ForSession(sessionID string) cartsvc.Source {
	s.sessionSeen = sessionID
	return s.source
}

func (s *stubCartService) ForUser(userID uuid.UUID) cartsvc.Source {
	s.userSeen = userID
	if s.userSource != nil {
		return s.userSource
	}
	return s.source
}

func (s *stubCartService) Summarize(ctx context.Context, source cartsvc.Source) (*cartsvc.View, error) {
	if s.view != nil {
		return s.view, nil
	}
	return &cartsvc.View{Items: []cartsvc.ItemView{}, Total: decimal.Zero}, nil
}

func (s *stubCartService) Migrate(ctx context.Context, sessionID string, userID uuid.UUID) error {
	s.migrated = true
	return nil
}

func cartView(total string, count int) *cartsvc.View {
	return &cartsvc.View{
		Items: []cartsvc.ItemView{},
		Total: decimal.RequireFromString(total),
		Count: count,
	}
}

func TestCartFetchUsesSessionSource(t *testing.T) {
	svc := &stubCartService{source: &stubCartSource{}, view: cartView("12.50", 1)}
	handler := CartFetch(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req = req.WithContext(middleware.WithSessionID(req.Context(), "sess-123"))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.sessionSeen != "sess-123" {
		t.Fatalf("expected session source, saw %q", svc.sessionSeen)
	}

	var envelope struct {
		Data cartsvc.View `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Count != 1 {
		t.Fatalf("unexpected count %d", envelope.Data.Count)
	}
}

func TestCartFetchPrefersUserSource(t *testing.T) {
	userID := uuid.New()
	svc := &stubCartService{source: &stubCartSource{}}
	handler := CartFetch(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	ctx := middleware.WithSessionID(req.Context(), "sess-123")
	ctx = middleware.WithUserID(ctx, userID.String())
	req = req.WithContext(ctx)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.userSeen != userID {
		t.Fatalf("expected user source for %s, saw %s", userID, svc.userSeen)
	}
	if svc.sessionSeen != "" {
		t.Fatal("session source should not be used for authenticated shoppers")
	}
}

func TestCartFetchMissingSession(t *testing.T) {
	svc := &stubCartService{source: &stubCartSource{}}
	handler := CartFetch(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartAddItemReturnsWarning(t *testing.T) {
	productID := uuid.New()
	warning := &cartsvc.StockWarning{ProductID: productID, Requested: 10, Available: 3}
	svc := &stubCartService{
		source: &stubCartSource{mutation: cartsvc.Mutation{Warning: warning}},
		view:   cartView("0", 0),
	}
	handler := CartAddItem(svc, nil)

	body := fmt.Sprintf(`{"product_id":%q,"quantity":10}`, productID)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(middleware.WithSessionID(req.Context(), "sess-123"))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data CartMutationView `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Warning == nil || envelope.Data.Warning.Available != 3 {
		t.Fatalf("expected stock warning in response, got %+v", envelope.Data.Warning)
	}
}

func TestCartAddItemRejectsNegativeQuantity(t *testing.T) {
	svc := &stubCartService{source: &stubCartSource{}}
	handler := CartAddItem(svc, nil)

	body := fmt.Sprintf(`{"product_id":%q,"quantity":-1}`, uuid.New())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(middleware.WithSessionID(req.Context(), "sess-123"))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartAddItemDefaultsQuantityToOne(t *testing.T) {
	productID := uuid.New()
	source := &stubCartSource{mutation: cartsvc.Mutation{Line: &cartsvc.Line{ProductID: productID, Quantity: 1}}}
	svc := &stubCartService{source: source, view: cartView("25.50", 1)}
	handler := CartAddItem(svc, nil)

	body := fmt.Sprintf(`{"product_id":%q}`, productID)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(middleware.WithSessionID(req.Context(), "sess-123"))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestCartMigrateRequiresAuth(t *testing.T) {
	svc := &stubCartService{source: &stubCartSource{}}
	handler := CartMigrate(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/migrate", nil)
	req = req.WithContext(middleware.WithSessionID(req.Context(), "sess-123"))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
	if svc.migrated {
		t.Fatal("migration should not run without a user")
	}
}

func TestCartMigrateMergesAndSummarizes(t *testing.T) {
	userID := uuid.New()
	svc := &stubCartService{
		source:     &stubCartSource{},
		userSource: &stubCartSource{},
		view:       cartView("30.00", 3),
	}
	handler := CartMigrate(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/migrate", nil)
	ctx := middleware.WithSessionID(req.Context(), "sess-123")
	ctx = middleware.WithUserID(ctx, userID.String())
	req = req.WithContext(ctx)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !svc.migrated {
		t.Fatal("expected migration to run")
	}
	if svc.userSeen != userID {
		t.Fatalf("expected summary of user cart, saw %s", svc.userSeen)
	}
}
