package controllers

import (
	"net/http"
	"time"

	"github.com/sweetkart/sweetshop-backend/api/responses"
	"github.com/sweetkart/sweetshop-backend/api/validators"
	"github.com/sweetkart/sweetshop-backend/internal/reports"
	pkgerrors "github.com/sweetkart/sweetshop-backend/pkg/errors"
	"github.com/sweetkart/sweetshop-backend/pkg/logger"
)

func reportWindow(r *http.Request) (reports.Window, error) {
	var window reports.Window
	if raw := r.URL.Query().Get("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return window, pkgerrors.New(pkgerrors.CodeValidation, "from must be RFC3339")
		}
		window.From = from
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return window, pkgerrors.New(pkgerrors.CodeValidation, "to must be RFC3339")
		}
		window.To = to
	}
	if !window.From.IsZero() && !window.To.IsZero() && window.To.Before(window.From) {
		return window, pkgerrors.New(pkgerrors.CodeValidation, "to must not precede from")
	}
	return window, nil
}

// AdminSalesSummary aggregates paid-order revenue over an optional window.
func AdminSalesSummary(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reports service unavailable"))
			return
		}

		window, err := reportWindow(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.SalesSummary(r.Context(), window)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, summary)
	}
}

func AdminRevenueByDay(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reports service unavailable"))
			return
		}

		window, err := reportWindow(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		days, err := svc.RevenueByDay(r.Context(), window)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, days)
	}
}

func AdminTopProducts(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reports service unavailable"))
			return
		}

		window, err := reportWindow(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 10, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		top, err := svc.TopProducts(r.Context(), window, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, top)
	}
}

func AdminLowStock(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reports service unavailable"))
			return
		}

		threshold, err := validators.ParseQueryInt(r, "threshold", 5, 0, 10_000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		low, err := svc.LowStock(r.Context(), threshold)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, low)
	}
}
