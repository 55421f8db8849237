package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sweetkart/sweetshop-backend/internal/catalog"
)

type stubCatalogService struct {
	page      *catalog.ProductPage
	product   *catalog.ProductDTO
	err       error
	lastInput catalog.ListProductsInput
	lastID    uuid.UUID
	lastSlug  string
}

func (s *stubCatalogService) ListProducts(ctx context.Context, input catalog.ListProductsInput) (*catalog.ProductPage, error) {
	s.lastInput = input
	return s.page, s.err
}

func (s *stubCatalogService) GetProductByID(ctx context.Context, id uuid.UUID) (*catalog.ProductDTO, error) {
	s.lastID = id
	return s.product, s.err
}

func (s *stubCatalogService) GetProductBySlug(ctx context.Context, slug string) (*catalog.ProductDTO, error) {
	s.lastSlug = slug
	return s.product, s.err
}

func (s *stubCatalogService) ListCategories(ctx context.Context, includeInactive bool) ([]catalog.CategoryDTO, error) {
	return nil, s.err
}

func (s *stubCatalogService) CreateCategory(ctx context.Context, input catalog.CreateCategoryInput) (*catalog.CategoryDTO, error) {
	panic("unimplemented")
}

func (s *stubCatalogService) UpdateCategory(ctx context.Context, id uuid.UUID, input catalog.UpdateCategoryInput) (*catalog.CategoryDTO, error) {
	panic("unimplemented")
}

func (s *stubCatalogService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	panic("unimplemented")
}

func (s *stubCatalogService) CreateProduct(ctx context.Context, input catalog.CreateProductInput) (*catalog.ProductDTO, error) {
	panic("unimplemented")
}

func (s *stubCatalogService) UpdateProduct(ctx context.Context, id uuid.UUID, input catalog.UpdateProductInput) (*catalog.ProductDTO, error) {
	panic("unimplemented")
}

func (s *stubCatalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	panic("unimplemented")
}

func TestListProductsParsesFilters(t *testing.T) {
	svc := &stubCatalogService{page: &catalog.ProductPage{}}
	handler := ListProducts(svc, nil)

	categoryID := uuid.New()
	url := "/api/v1/products?category_id=" + categoryID.String() + "&featured=true&in_stock=true&price_min=100&price_max=500&q=ladoo&limit=5"
	req := httptest.NewRequest(http.MethodGet, url, nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}

	filters := svc.lastInput.Filters
	if filters.CategoryID == nil || *filters.CategoryID != categoryID {
		t.Fatalf("expected category filter forwarded, got %+v", filters.CategoryID)
	}
	if filters.Featured == nil || !*filters.Featured {
		t.Fatalf("expected featured filter forwarded")
	}
	if !filters.InStockOnly {
		t.Fatalf("expected in-stock filter forwarded")
	}
	if filters.PriceMin == nil || filters.PriceMax == nil {
		t.Fatalf("expected price bounds forwarded")
	}
	if filters.Query != "ladoo" {
		t.Fatalf("expected query forwarded, got %q", filters.Query)
	}
	if filters.IncludeInactive {
		t.Fatalf("storefront listing must not include inactive products")
	}
	if svc.lastInput.Pagination.Limit != 5 {
		t.Fatalf("expected limit 5 got %d", svc.lastInput.Pagination.Limit)
	}
}

func TestListProductsRejectsBadFilter(t *testing.T) {
	handler := ListProducts(&stubCatalogService{page: &catalog.ProductPage{}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products?category_id=not-a-uuid", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestGetProductByID(t *testing.T) {
	id := uuid.New()
	svc := &stubCatalogService{product: &catalog.ProductDTO{ID: id}}
	handler := GetProduct(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/"+id.String(), nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("product", id.String())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.lastID != id {
		t.Fatalf("expected lookup by id %s, got %s", id, svc.lastID)
	}
}

func TestGetProductBySlug(t *testing.T) {
	svc := &stubCatalogService{product: &catalog.ProductDTO{}}
	handler := GetProduct(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/kaju-katli", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("product", "kaju-katli")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.lastSlug != "kaju-katli" {
		t.Fatalf("expected lookup by slug, got %q", svc.lastSlug)
	}
}

func TestAdminListProductsIncludesInactive(t *testing.T) {
	svc := &stubCatalogService{page: &catalog.ProductPage{}}
	handler := AdminListProducts(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/products", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !svc.lastInput.Filters.IncludeInactive {
		t.Fatalf("expected admin listing to include inactive products")
	}
}
