package controllers

import (
	"context"
	"encoding/json"
	"errors"
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
	"github.com/angelmondragon/retailpos-backend/internal/catalog"
	"github.com/angelmondragon/retailpos-backend/pkg/config"
	"github.com/angelmondragon/retailpos-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/retailpos-backend/pkg/errors"
	"github.com/angelmondragon/retailpos-backend/pkg/logger"
)

type stubCatalog struct {
	refs    []catalog.VariantRef
	created catalog.CreateProductInput
	adjust  catalog.AdjustStockInput
	err     error
}

func (s *stubCatalog) ListProducts(context.Context) ([]catalog.ProductDTO, error) {
	return []catalog.ProductDTO{{Name: "Tee"}}, s.err
}

func (s *stubCatalog) GetProduct(_ context.Context, id uuid.UUID) (*catalog.ProductDTO, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &catalog.ProductDTO{ID: id, Name: "Tee"}, nil
}

func (s *stubCatalog) LookupStock(_ context.Context, refs []catalog.VariantRef) (map[string]int, error) {
	s.refs = refs
	return map[string]int{refs[0].ProductID.String() + ":" + refs[0].Size: 4}, nil
}

func (s *stubCatalog) CreateProduct(_ context.Context, input catalog.CreateProductInput) (*catalog.ProductDTO, error) {
	s.created = input
	return &catalog.ProductDTO{ID: uuid.New(), Name: input.Name}, nil
}

func (s *stubCatalog) AdjustStock(_ context.Context, input catalog.AdjustStockInput) ([]catalog.StockAdjustmentResult, error) {
	s.adjust = input
	return []catalog.StockAdjustmentResult{{Line: 0, Previous: 3, Stock: 5}}, s.err
}

func catalogRouter(svc catalog.Service) http.Handler {
	r := chi.NewRouter()
	logg := logger.Nop()
	r.Get("/products", CatalogProducts(svc, logg))
	r.Get("/products/{productId}", CatalogProduct(svc, logg))
	r.Post("/stock/lookup", StockLookup(svc, logg))
	r.Post("/admin/products", AdminCreateProduct(svc, logg))
	r.Post("/admin/stock/adjustments", AdminAdjustStock(svc, logg))
	return r
}

func call(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req = req.WithContext(middleware.WithOperator(req.Context(), uuid.New(), enums.OperatorRoleAdmin))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCatalogProductRejectsBadID(t *testing.T) {
	h := catalogRouter(&stubCatalog{})
	assert.Equal(t, http.StatusBadRequest, call(h, http.MethodGet, "/products/abc", "").Code)
	assert.Equal(t, http.StatusOK, call(h, http.MethodGet, "/products/"+uuid.NewString(), "").Code)
}

func TestCatalogProductNotFound(t *testing.T) {
	h := catalogRouter(&stubCatalog{err: pkgerrors.New(pkgerrors.CodeNotFound, "product not found")})
	assert.Equal(t, http.StatusNotFound, call(h, http.MethodGet, "/products/"+uuid.NewString(), "").Code)
}

func TestStockLookupReturnsMap(t *testing.T) {
	svc := &stubCatalog{}
	productID := uuid.New()
	rec := call(catalogRouter(svc), http.MethodPost, "/stock/lookup", `{"refs":[{"product_id":"`+productID.String()+`","size":"L"}]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Data struct {
			Stock map[string]int `json:"stock"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 4, body.Data.Stock[productID.String()+":L"])
	require.Len(t, svc.refs, 1)
}

func TestStockLookupRequiresRefs(t *testing.T) {
	rec := call(catalogRouter(&stubCatalog{}), http.MethodPost, "/stock/lookup", `{"refs":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminCreateProductParsesPrices(t *testing.T) {
	svc := &stubCatalog{}
	body := `{"name":"Hoodie","item_code":"HD-1","variants":[{"size":"M","price":"39.99","stock":5}]}`
	rec := call(catalogRouter(svc), http.MethodPost, "/admin/products", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Len(t, svc.created.Variants, 1)
	assert.True(t, decimal.RequireFromString("39.99").Equal(svc.created.Variants[0].Price))
}

func TestAdminCreateProductRejectsThreeDecimalPrice(t *testing.T) {
	body := `{"name":"Hoodie","item_code":"HD-1","variants":[{"size":"M","price":"39.999","stock":5}]}`
	rec := call(catalogRouter(&stubCatalog{}), http.MethodPost, "/admin/products", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminAdjustStockCarriesOperator(t *testing.T) {
	svc := &stubCatalog{}
	productID := uuid.New()
	body := `{"reason":"recount","lines":[{"product_id":"` + productID.String() + `","size":"M","delta":2}]}`
	rec := call(catalogRouter(svc), http.MethodPost, "/admin/stock/adjustments", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, svc.adjust.OperatorID)
	require.Len(t, svc.adjust.Lines, 1)
	assert.Equal(t, 2, svc.adjust.Lines[0].Delta)
	assert.Equal(t, productID, svc.adjust.Lines[0].Ref.ProductID)
}

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}
	ok := HealthReady(cfg, map[string]Pinger{"db": pingFunc(func(context.Context) error { return nil })}, logger.Nop())
	rec := httptest.NewRecorder()
	ok.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test", rec.Header().Get("X-RetailPOS-Env"))

	down := HealthReady(cfg, map[string]Pinger{"redis": pingFunc(func(context.Context) error { return errors.New("refused") })}, logger.Nop())
	rec = httptest.NewRecorder()
	down.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "redis")
}

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }
