package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/sweetkart/sweetshop-backend/internal/orders"
	"github.com/sweetkart/sweetshop-backend/pkg/enums"
	"github.com/sweetkart/sweetshop-backend/pkg/pagination"
)

type stubOrdersService struct {
	page        *orders.Page
	err         error
	lastFilters orders.ListFilters
}

func (s *stubOrdersService) Create(ctx context.Context, userID uuid.UUID, input orders.CreateOrderInput) (*orders.OrderDTO, error) {
	panic("unimplemented")
}

func (s *stubOrdersService) GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*orders.OrderDTO, error) {
	panic("unimplemented")
}

func (s *stubOrdersService) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*orders.Page, error) {
	panic("unimplemented")
}

func (s *stubOrdersService) Get(ctx context.Context, orderID uuid.UUID) (*orders.OrderDTO, error) {
	panic("unimplemented")
}

func (s *stubOrdersService) List(ctx context.Context, filters orders.ListFilters, params pagination.Params) (*orders.Page, error) {
	s.lastFilters = filters
	return s.page, s.err
}

func (s *stubOrdersService) UpdateStatus(ctx context.Context, actorID, orderID uuid.UUID, input orders.UpdateStatusInput) (*orders.OrderDTO, error) {
	panic("unimplemented")
}

func TestAdminOrderListParsesFilters(t *testing.T) {
	svc := &stubOrdersService{page: &orders.Page{}}
	handler := AdminOrderList(svc, nil)

	userID := uuid.New()
	req := httptest.NewRequest(http.MethodGet,
		"/api/admin/v1/orders?user_id="+userID.String()+"&status=confirmed&payment_status=paid", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.lastFilters.UserID == nil || *svc.lastFilters.UserID != userID {
		t.Fatalf("user filter not forwarded: %+v", svc.lastFilters)
	}
	if svc.lastFilters.Status == nil || *svc.lastFilters.Status != enums.OrderStatusConfirmed {
		t.Fatalf("status filter not forwarded: %+v", svc.lastFilters)
	}
	if svc.lastFilters.PaymentStatus == nil || *svc.lastFilters.PaymentStatus != enums.OrderPaymentStatusPaid {
		t.Fatalf("payment status filter not forwarded: %+v", svc.lastFilters)
	}
}

func TestAdminOrderListRejectsBadPaymentStatus(t *testing.T) {
	svc := &stubOrdersService{page: &orders.Page{}}
	handler := AdminOrderList(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders?payment_status=settled", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
