package validators

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/retailpos-backend/pkg/errors"
)

type lineBody struct {
	Qty       int    `json:"qty" validate:"min=1"`
	UnitPrice string `json:"unit_price" validate:"omitempty,money"`
}

type saleBody struct {
	Channel string     `json:"channel" validate:"required,oneof=pos online"`
	Lines   []lineBody `json:"lines" validate:"required,min=1,dive"`
}

func TestDecodeJSONBodyReportsNestedFields(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"channel":"pos","lines":[{"qty":0,"unit_price":"1.999"}]}`))
	var body saleBody
	err := DecodeJSONBody(req, &body)
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	details := typed.Details().(map[string]string)
	assert.Equal(t, "must be at least 1", details["lines[0].qty"])
	assert.Contains(t, details["lines[0].unit_price"], "at most 2 decimals")
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"channel":"pos","extra":true}`))
	var body saleBody
	err := DecodeJSONBody(req, &body)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestDecodeJSONBodyAcceptsValidPayload(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"channel":"online","lines":[{"qty":2,"unit_price":"12.50"}]}`))
	var body saleBody
	require.NoError(t, DecodeJSONBody(req, &body))
	assert.Len(t, body.Lines, 1)
}

func TestParseQueryInt(t *testing.T) {
	req := httptest.NewRequest("GET", "/?limit=500", nil)
	_, err := ParseQueryInt(req, "limit", 25, 1, 100)
	assert.Error(t, err)

	req = httptest.NewRequest("GET", "/", nil)
	v, err := ParseQueryInt(req, "limit", 25, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 25, v)
}

func TestParseUUIDParam(t *testing.T) {
	_, err := ParseUUIDParam("nope", "productId")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "Ana", SanitizeString("  Ana  ", 10))
	assert.Equal(t, "abc", SanitizeString("abcdef", 3))
	assert.Equal(t, "café", SanitizeString("café au lait", 4))
	assert.Equal(t, "ab", SanitizeString("a\x00b\t", 0))
}
