package controllers

import (
	"net/http"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const (
	defaultProductLimit = 10
	maxProductLimit     = 100
	maxProductOffset    = 1_000_000

	// categoryScanLimit bounds the product page a category listing filters.
	categoryScanLimit = 50
)

// ListProducts proxies a product page from the catalog.
func ListProducts(reader catalog.Reader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if reader == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}

		offset, err := validators.ParseQueryInt(r, "offset", 0, 0, maxProductOffset)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", defaultProductLimit, 1, maxProductLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		products, err := reader.ListProducts(r.Context(), offset, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, catalog.Translate(err))
			return
		}
		if products == nil {
			products = []catalog.Product{}
		}
		responses.WriteSuccess(w, products)
	}
}

func GetProduct(reader catalog.Reader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if reader == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}

		id, err := validators.ParsePathInt(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := reader.GetProduct(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, catalog.Translate(err))
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func ListCategories(reader catalog.Reader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if reader == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}

		categories, err := reader.ListCategories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, catalog.Translate(err))
			return
		}
		if categories == nil {
			categories = []catalog.Category{}
		}
		responses.WriteSuccess(w, categories)
	}
}

type categoryProducts struct {
	Category catalog.Category  `json:"category"`
	Products []catalog.Product `json:"products"`
}

// ListCategoryProducts returns the category with the products from the first
// catalog page that belong to it. An unknown category is a 404.
func ListCategoryProducts(reader catalog.Reader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if reader == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}

		id, err := validators.ParsePathInt(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		categories, err := reader.ListCategories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, catalog.Translate(err))
			return
		}
		var (
			category catalog.Category
			found    bool
		)
		for _, c := range categories {
			if c.ID == id {
				category, found = c, true
				break
			}
		}
		if !found {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "category not found"))
			return
		}

		products, err := reader.ListProducts(r.Context(), 0, categoryScanLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, catalog.Translate(err))
			return
		}
		out := categoryProducts{Category: category, Products: []catalog.Product{}}
		for _, p := range products {
			if p.Category.ID == id {
				out.Products = append(out.Products, p)
			}
		}
		responses.WriteSuccess(w, out)
	}
}
