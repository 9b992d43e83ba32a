package cart

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/retailpos-backend/api/middleware"
	"github.com/angelmondragon/retailpos-backend/internal/cart/session"
	"github.com/angelmondragon/retailpos-backend/internal/catalog"
	"github.com/angelmondragon/retailpos-backend/internal/sales"
	"github.com/angelmondragon/retailpos-backend/internal/tender"
	"github.com/angelmondragon/retailpos-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/retailpos-backend/pkg/errors"
	"github.com/angelmondragon/retailpos-backend/pkg/logger"
)

type stubCarts struct {
	created  *uuid.UUID
	added    catalog.VariantRef
	index    int
	qty      int
	checkout session.CheckoutInput
	err      error
}

func (s *stubCarts) view(id uuid.UUID) (*session.CartView, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &session.CartView{ID: id, Subtotal: "0.00", Tax: "0.00", Total: "0.00"}, nil
}

func (s *stubCarts) Create(_ context.Context, operatorID *uuid.UUID) (*session.CartView, error) {
	s.created = operatorID
	return s.view(uuid.New())
}

func (s *stubCarts) Get(_ context.Context, id uuid.UUID) (*session.CartView, error) {
	return s.view(id)
}

func (s *stubCarts) AddLine(_ context.Context, id uuid.UUID, ref catalog.VariantRef) (*session.CartView, error) {
	s.added = ref
	return s.view(id)
}

func (s *stubCarts) SetQuantity(_ context.Context, id uuid.UUID, index, qty int) (*session.CartView, error) {
	s.index, s.qty = index, qty
	return s.view(id)
}

func (s *stubCarts) RemoveLine(_ context.Context, id uuid.UUID, index int) (*session.CartView, error) {
	s.index = index
	return s.view(id)
}

func (s *stubCarts) Clear(_ context.Context, id uuid.UUID) (*session.CartView, error) {
	return s.view(id)
}

func (s *stubCarts) Checkout(_ context.Context, _ uuid.UUID, input session.CheckoutInput) (*sales.Result, error) {
	s.checkout = input
	if s.err != nil {
		return nil, s.err
	}
	return &sales.Result{OrderID: uuid.New(), Code: "ABCDEF", Channel: enums.SaleChannelPOS, Total: decimal.RequireFromString("10.83")}, nil
}

func router(svc session.Service) http.Handler {
	r := chi.NewRouter()
	logg := logger.Nop()
	r.Post("/carts", Create(svc, logg))
	r.Get("/carts/{cartId}", Get(svc, logg))
	r.Post("/carts/{cartId}/lines", AddLine(svc, logg))
	r.Patch("/carts/{cartId}/lines/{index}", SetQuantity(svc, logg))
	r.Delete("/carts/{cartId}/lines/{index}", RemoveLine(svc, logg))
	r.Delete("/carts/{cartId}/lines", Clear(svc, logg))
	r.Post("/carts/{cartId}/checkout", Checkout(svc, logg))
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	req = req.WithContext(middleware.WithOperator(req.Context(), uuid.MustParse("11111111-1111-4111-8111-111111111111"), enums.OperatorRoleCashier))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCreateUsesOperator(t *testing.T) {
	svc := &stubCarts{}
	rec := do(t, router(svc), http.MethodPost, "/carts", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, svc.created)
	assert.Equal(t, "11111111-1111-4111-8111-111111111111", svc.created.String())
}

func TestLineOperations(t *testing.T) {
	svc := &stubCarts{}
	h := router(svc)
	cartID := uuid.NewString()
	productID := uuid.New()

	rec := do(t, h, http.MethodPost, "/carts/"+cartID+"/lines", `{"product_id":"`+productID.String()+`","size":"M"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, catalog.VariantRef{ProductID: productID, Size: "M"}, svc.added)

	rec = do(t, h, http.MethodPatch, "/carts/"+cartID+"/lines/1", `{"qty":3}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, svc.index)
	assert.Equal(t, 3, svc.qty)

	rec = do(t, h, http.MethodPatch, "/carts/"+cartID+"/lines/1", `{"qty":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodDelete, "/carts/"+cartID+"/lines/x", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodDelete, "/carts/"+cartID+"/lines", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetRejectsBadCartID(t *testing.T) {
	rec := do(t, router(&stubCarts{}), http.MethodGet, "/carts/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetMissingCart(t *testing.T) {
	svc := &stubCarts{err: pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")}
	rec := do(t, router(svc), http.MethodGet, "/carts/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCheckoutReturnsOrderNumber(t *testing.T) {
	svc := &stubCarts{}
	rec := do(t, router(svc), http.MethodPost, "/carts/"+uuid.NewString()+"/checkout", `{"tender":{"mode":"card"}}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var body struct {
		Data struct {
			Success     bool   `json:"success"`
			OrderNumber string `json:"orderNumber"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Data.Success)
	assert.Equal(t, "ABCDEF", body.Data.OrderNumber)
	assert.Equal(t, tender.Card{}, svc.checkout.Tender)
	require.NotNil(t, svc.checkout.OperatorID)
}

func TestCheckoutFailureKeepsOutcomeShape(t *testing.T) {
	svc := &stubCarts{err: pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")}
	rec := do(t, router(svc), http.MethodPost, "/carts/"+uuid.NewString()+"/checkout", `{"tender":{"mode":"card"}}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "cart is empty", body.Message)
}
