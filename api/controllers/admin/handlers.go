// Package admin serves the back-office routes. Every handler forwards the
// signed-in admin's token to the remote admin API.
package admin

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/auth"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const maxImportBytes = 10 << 20

// Client is the remote admin surface.
type Client interface {
	Stats(ctx context.Context, token, period string) (*catalog.AdminStats, error)
	Inventory(ctx context.Context, token string) (*catalog.InventoryStats, error)
	Forecasts(ctx context.Context, token string) ([]catalog.SalesForecast, error)
	CustomerSegments(ctx context.Context, token string) ([]catalog.CustomerSegment, error)
	BatchUpdateProducts(ctx context.Context, token string, updates []catalog.BatchUpdate) ([]catalog.Product, error)
	BatchUpdateOrders(ctx context.Context, token string, updates []catalog.BatchUpdate) ([]catalog.Order, error)
	UpdateOrderStatus(ctx context.Context, token string, id int, status string) (*catalog.Order, error)
	UpdateProduct(ctx context.Context, token string, id int, patch catalog.ProductPatch) (*catalog.Product, error)
	ImportProducts(ctx context.Context, token, filename string, file io.Reader) (*catalog.ImportResult, error)
	ExportProducts(ctx context.Context, token string, filters catalog.ExportFilters) (io.ReadCloser, string, error)
}

type batchRequest struct {
	Updates []catalog.BatchUpdate `json:"updates" validate:"required,min=1,max=500,dive"`
}

type orderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending processing shipped delivered cancelled"`
}

type productPatchRequest struct {
	Title       *string  `json:"title,omitempty" validate:"omitempty,min=1"`
	Price       *string  `json:"price,omitempty" validate:"omitempty,numeric"`
	Description *string  `json:"description,omitempty"`
	CategoryID  *int     `json:"category_id,omitempty" validate:"omitempty,gt=0"`
	Images      []string `json:"images,omitempty" validate:"omitempty,dive,url"`
}

func (p productPatchRequest) toPatch() (catalog.ProductPatch, error) {
	patch := catalog.ProductPatch{
		Title:       p.Title,
		Description: p.Description,
		CategoryID:  p.CategoryID,
		Images:      p.Images,
	}
	if p.Price != nil {
		price, err := decimal.NewFromString(*p.Price)
		if err != nil || price.IsNegative() {
			return catalog.ProductPatch{}, pkgerrors.New(pkgerrors.CodeValidation, "price must be a non-negative number").WithDetails(map[string]any{"price": *p.Price})
		}
		patch.Price = &price
	}
	return patch, nil
}

// adminToken returns the remote token of the signed-in session. The admin
// guard runs first, so a missing login here is unexpected but still denied.
func adminToken(r *http.Request) (string, error) {
	sess, err := middleware.RequireSession(r.Context())
	if err != nil {
		return "", err
	}
	state := sess.Auth.Snapshot()
	if !state.Authenticated() {
		return "", auth.ErrNotAuthenticated
	}
	if !state.IsAdmin {
		return "", pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	return *state.Token, nil
}

func unavailable(w http.ResponseWriter, r *http.Request, logg *logger.Logger) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "admin client unavailable"))
}

// Stats accepts an optional period query; the remote API defaults to week.
func Stats(client Client, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if client == nil {
			unavailable(w, r, logg)
			return
		}
		token, err := adminToken(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		period := strings.TrimSpace(r.URL.Query().Get("period"))
		switch period {
		case "", "day", "week", "month", "year":
		default:
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid period").WithDetails(map[string]any{"period": period}))
			return
		}

		stats, err := client.Stats(r.Context(), token, period)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, catalog.Translate(err))
			return
		}
		responses.WriteSuccess(w, stats)
	}
}

func Inventory(client Client, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if client == nil {
			unavailable(w, r, logg)
			return
		}
		token, err := adminToken(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		inventory, err := client.Inventory(r.Context(), token)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, catalog.Translate(err))
			return
		}
		responses.WriteSuccess(w, inventory)
	}
}

func Forecasts(client Client, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if client == nil {
			unavailable(w, r, logg)
			return
		}
		token, err := adminToken(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		forecasts, err := client.Forecasts(r.Context(), token)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, catalog.Translate(err))
			return
		}
		if forecasts == nil {
			forecasts = []catalog.SalesForecast{}
		}
		responses.WriteSuccess(w, forecasts)
	}
}

func CustomerSegments(client Client, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if client == nil {
			unavailable(w, r, logg)
			return
		}
		token, err := adminToken(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		segments, err := client.CustomerSegments(r.Context(), token)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, catalog.Translate(err))
			return
		}
		if segments == nil {
			segments = []catalog.CustomerSegment{}
		}
		responses.WriteSuccess(w, segments)
	}
}

func BatchUpdateProducts(client Client, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if client == nil {
			unavailable(w, r, logg)
			return
		}
		token, err := adminToken(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body batchRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		products, err := client.BatchUpdateProducts(r.Context(), token, body.Updates)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, catalog.Translate(err))
			return
		}
		responses.WriteSuccess(w, products)
	}
}

func BatchUpdateOrders(client Client, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if client == nil {
			unavailable(w, r, logg)
			return
		}
		token, err := adminToken(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body batchRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orders, err := client.BatchUpdateOrders(r.Context(), token, body.Updates)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, catalog.Translate(err))
			return
		}
		responses.WriteSuccess(w, orders)
	}
}

func UpdateOrderStatus(client Client, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if client == nil {
			unavailable(w, r, logg)
			return
		}
		token, err := adminToken(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.ParsePathInt(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body orderStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := client.UpdateOrderStatus(r.Context(), token, id, body.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, catalog.Translate(err))
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func UpdateProduct(client Client, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if client == nil {
			unavailable(w, r, logg)
			return
		}
		token, err := adminToken(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.ParsePathInt(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body productPatchRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		patch, err := body.toPatch()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := client.UpdateProduct(r.Context(), token, id, patch)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, catalog.Translate(err))
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// ImportProducts forwards the multipart "file" part untouched.
func ImportProducts(client Client, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if client == nil {
			unavailable(w, r, logg)
			return
		}
		token, err := adminToken(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)
		file, header, err := r.FormFile("file")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "file is required"))
			return
		}
		defer file.Close()

		result, err := client.ImportProducts(r.Context(), token, header.Filename, file)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, catalog.Translate(err))
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ExportProducts streams the remote export body back with its content type.
func ExportProducts(client Client, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if client == nil {
			unavailable(w, r, logg)
			return
		}
		token, err := adminToken(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters, err := exportFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		body, contentType, err := client.ExportProducts(r.Context(), token, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, catalog.Translate(err))
			return
		}
		defer body.Close()

		if contentType == "" {
			contentType = "application/octet-stream"
		}
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Disposition", `attachment; filename="products-export"`)
		w.WriteHeader(http.StatusOK)
		if _, err := io.Copy(w, body); err != nil && logg != nil {
			logg.Error(r.Context(), "admin.export_stream_failed", err)
		}
	}
}

func exportFilters(r *http.Request) (catalog.ExportFilters, error) {
	q := r.URL.Query()
	filters := catalog.ExportFilters{
		Category: strings.TrimSpace(q.Get("category")),
		DateFrom: strings.TrimSpace(q.Get("date_from")),
		DateTo:   strings.TrimSpace(q.Get("date_to")),
	}
	for key, dest := range map[string]**int{"min_stock": &filters.MinStock, "max_stock": &filters.MaxStock} {
		raw := strings.TrimSpace(q.Get(key))
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			return catalog.ExportFilters{}, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be a non-negative integer").WithDetails(map[string]any{"field": key})
		}
		*dest = &v
	}
	return filters, nil
}
