package controllers

import (
	"net/http"

	"github.com/angelmondragon/retailpos-backend/api/controllers/dto"
	"github.com/angelmondragon/retailpos-backend/api/middleware"
	"github.com/angelmondragon/retailpos-backend/api/responses"
	"github.com/angelmondragon/retailpos-backend/api/validators"
	"github.com/angelmondragon/retailpos-backend/internal/catalog"
	pkgerrors "github.com/angelmondragon/retailpos-backend/pkg/errors"
	"github.com/angelmondragon/retailpos-backend/pkg/logger"
)

type createProductRequest struct {
	Name         string                 `json:"name" validate:"required,max=200"`
	ItemCode     string                 `json:"item_code" validate:"required,max=64"`
	CategoryName string                 `json:"category_name,omitempty" validate:"max=120"`
	CategorySlug string                 `json:"category_slug,omitempty" validate:"max=120"`
	Variants     []createVariantRequest `json:"variants" validate:"required,min=1,max=50,dive"`
}

type createVariantRequest struct {
	Size  string `json:"size" validate:"required,max=32"`
	Price string `json:"price" validate:"required,money"`
	Stock int    `json:"stock" validate:"min=0"`
}

// AdminCreateProduct adds a product and its sizes to the catalog.
func AdminCreateProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := catalog.CreateProductInput{
			Name:         validators.SanitizeString(payload.Name, 200),
			ItemCode:     validators.SanitizeString(payload.ItemCode, 64),
			CategoryName: validators.SanitizeString(payload.CategoryName, 120),
			CategorySlug: validators.SanitizeString(payload.CategorySlug, 120),
		}
		for _, v := range payload.Variants {
			price, err := dto.ParseMoney(v.Price, "variants.price")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.Variants = append(input.Variants, catalog.VariantInput{Size: v.Size, Price: price, Stock: v.Stock})
		}

		product, err := svc.CreateProduct(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

type adjustStockRequest struct {
	Reason string                   `json:"reason" validate:"required,max=200"`
	Lines  []adjustStockLineRequest `json:"lines" validate:"required,min=1,max=100,dive"`
}

type adjustStockLineRequest struct {
	catalog.VariantRef
	Delta int `json:"delta" validate:"required"`
}

// AdminAdjustStock applies signed stock deltas; nothing is written unless every line is valid.
func AdminAdjustStock(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		var payload adjustStockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := catalog.AdjustStockInput{Reason: validators.SanitizeString(payload.Reason, 200)}
		if operatorID, ok := middleware.OperatorIDFromContext(r.Context()); ok {
			input.OperatorID = &operatorID
		}
		for _, line := range payload.Lines {
			input.Lines = append(input.Lines, catalog.StockAdjustmentLine{Ref: line.VariantRef, Delta: line.Delta})
		}

		results, err := svc.AdjustStock(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"adjustments": results})
	}
}
