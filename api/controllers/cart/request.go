package cart

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/retailpos-backend/api/controllers/dto"
	"github.com/angelmondragon/retailpos-backend/api/validators"
	pkgerrors "github.com/angelmondragon/retailpos-backend/pkg/errors"
)

type addLineRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Size      string    `json:"size" validate:"required,max=32"`
}

type setQuantityRequest struct {
	Qty int `json:"qty" validate:"min=1"`
}

type checkoutRequest struct {
	Tender       *dto.TenderRequest `json:"tender" validate:"required"`
	CustomerName string             `json:"customer_name,omitempty" validate:"max=120"`
}

func cartIDParam(r *http.Request) (uuid.UUID, error) {
	return validators.ParseUUIDParam(chi.URLParam(r, "cartId"), "cartId")
}

func lineIndexParam(r *http.Request) (int, error) {
	index, err := strconv.Atoi(strings.TrimSpace(chi.URLParam(r, "index")))
	if err != nil || index < 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "invalid line index").WithDetails(map[string]any{"field": "index"})
	}
	return index, nil
}
