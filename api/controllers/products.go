package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sweetkart/sweetshop-backend/api/responses"
	"github.com/sweetkart/sweetshop-backend/api/validators"
	"github.com/sweetkart/sweetshop-backend/internal/catalog"
	pkgerrors "github.com/sweetkart/sweetshop-backend/pkg/errors"
	"github.com/sweetkart/sweetshop-backend/pkg/logger"
)

func storefrontListInput(r *http.Request) (catalog.ListProductsInput, error) {
	var input catalog.ListProductsInput

	categoryID, err := validators.ParseQueryUUID(r, "category_id")
	if err != nil {
		return input, err
	}
	featured, err := validators.ParseQueryBool(r, "featured")
	if err != nil {
		return input, err
	}
	inStock, err := validators.ParseQueryBool(r, "in_stock")
	if err != nil {
		return input, err
	}
	priceMin, err := validators.ParseQueryDecimal(r, "price_min")
	if err != nil {
		return input, err
	}
	priceMax, err := validators.ParseQueryDecimal(r, "price_max")
	if err != nil {
		return input, err
	}
	page, err := paginationParams(r)
	if err != nil {
		return input, err
	}

	input.Filters = catalog.ProductListFilters{
		CategoryID: categoryID,
		Featured:   featured,
		PriceMin:   priceMin,
		PriceMax:   priceMax,
		Query:      validators.SanitizeString(r.URL.Query().Get("q"), 128),
	}
	if inStock != nil {
		input.Filters.InStockOnly = *inStock
	}
	input.Pagination = page
	return input, nil
}

// ListProducts serves the public storefront catalog. Inactive products
// are never visible here.
func ListProducts(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		input, err := storefrontListInput(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListProducts(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, page)
	}
}

// GetProduct resolves a product either by UUID or by slug.
func GetProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		raw := chi.URLParam(r, "product")
		if id, err := uuid.Parse(raw); err == nil {
			product, err := svc.GetProductByID(r.Context(), id)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, product)
			return
		}

		product, err := svc.GetProductBySlug(r.Context(), validators.SanitizeString(raw, 160))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}
