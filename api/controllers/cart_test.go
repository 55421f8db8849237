package controllers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sweetkart/sweetshop-backend/api/middleware"
	"github.com/sweetkart/sweetshop-backend/internal/cart"
)

type stubCartService struct {
	view       *cart.View
	err        error
	lastUser   uuid.UUID
	lastAdd    cart.AddItemRequest
	lastRemove uuid.UUID
}

func (s *stubCartService) Get(ctx context.Context, userID uuid.UUID) (*cart.View, error) {
	s.lastUser = userID
	return s.view, s.err
}

func (s *stubCartService) AddItem(ctx context.Context, userID uuid.UUID, req cart.AddItemRequest) (*cart.View, error) {
	s.lastUser = userID
	s.lastAdd = req
	return s.view, s.err
}

func (s *stubCartService) UpdateItem(ctx context.Context, userID, productID uuid.UUID, req cart.UpdateItemRequest) (*cart.View, error) {
	s.lastUser = userID
	return s.view, s.err
}

func (s *stubCartService) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*cart.View, error) {
	s.lastUser = userID
	s.lastRemove = productID
	return s.view, s.err
}

func (s *stubCartService) Clear(ctx context.Context, userID uuid.UUID) error {
	s.lastUser = userID
	return s.err
}

func withUser(req *http.Request, userID uuid.UUID) *http.Request {
	ctx := middleware.WithUserID(req.Context(), userID.String())
	return req.WithContext(ctx)
}

func TestCartGetUsesContextUser(t *testing.T) {
	svc := &stubCartService{view: &cart.View{}}
	handler := CartGet(svc, nil)

	userID := uuid.New()
	req := withUser(httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil), userID)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastUser != userID {
		t.Fatalf("expected user %s forwarded, got %s", userID, svc.lastUser)
	}
}

func TestCartGetRejectsMissingUser(t *testing.T) {
	handler := CartGet(&stubCartService{view: &cart.View{}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestCartAddItemForwardsPayload(t *testing.T) {
	svc := &stubCartService{view: &cart.View{}}
	handler := CartAddItem(svc, nil)

	productID := uuid.New()
	body := []byte(`{"product_id":"` + productID.String() + `","quantity":3}`)
	req := withUser(httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", bytes.NewReader(body)), uuid.New())
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastAdd.ProductID != productID || svc.lastAdd.Quantity != 3 {
		t.Fatalf("expected add request forwarded, got %+v", svc.lastAdd)
	}
}

func TestCartAddItemRejectsZeroQuantity(t *testing.T) {
	handler := CartAddItem(&stubCartService{view: &cart.View{}}, nil)

	body := []byte(`{"product_id":"` + uuid.NewString() + `","quantity":0}`)
	req := withUser(httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", bytes.NewReader(body)), uuid.New())
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartRemoveItemParsesPathParam(t *testing.T) {
	svc := &stubCartService{view: &cart.View{}}
	handler := CartRemoveItem(svc, nil)

	productID := uuid.New()
	req := withUser(httptest.NewRequest(http.MethodDelete, "/api/v1/cart/items/"+productID.String(), nil), uuid.New())
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("productID", productID.String())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastRemove != productID {
		t.Fatalf("expected product %s forwarded, got %s", productID, svc.lastRemove)
	}
}
