package cart

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/retailpos-backend/pkg/errors"
)

var taxRate = decimal.RequireFromString("0.0825")

func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func TestAddLineMergesMatchingLines(t *testing.T) {
	var c Cart
	tee := uuid.New()

	assert.Equal(t, 0, c.AddLine(tee, "M", "Tee", d("10.00")))
	assert.Equal(t, 0, c.AddLine(tee, "M", "Tee", d("12.00")))
	assert.Equal(t, 1, c.AddLine(tee, "L", "Tee", d("11.00")))

	require.Len(t, c.Lines, 2)
	assert.Equal(t, 2, c.Lines[0].Qty)
	assert.True(t, c.Lines[0].UnitPrice.Equal(d("10.00")))
	assert.Equal(t, 1, c.Lines[1].Qty)
}

func TestCartTotalsScenario(t *testing.T) {
	var c Cart
	a := uuid.New()
	b := uuid.New()
	c.AddLine(a, "M", "A", d("10.00"))
	c.AddLine(a, "M", "A", d("10.00"))
	c.AddLine(b, "S", "B", d("5.50"))

	totals := c.Totals(taxRate)
	assert.Equal(t, "25.50", totals.Subtotal.StringFixed(2))
	assert.Equal(t, "2.10", totals.Tax.StringFixed(2))
	assert.Equal(t, "27.60", totals.Total.StringFixed(2))
	assert.True(t, c.Tax(taxRate).Equal(totals.Tax))
	assert.True(t, c.Total(taxRate).Equal(totals.Total))
}

func TestCartMathHoldsAcrossEdits(t *testing.T) {
	var c Cart
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	prices := []string{"3.33", "19.99", "0.07"}
	for i, id := range ids {
		c.AddLine(id, "OS", "", d(prices[i]))
	}
	require.NoError(t, c.SetQuantity(0, 7))
	require.NoError(t, c.SetQuantity(2, 13))
	require.NoError(t, c.RemoveLine(1))

	expected := decimal.Zero
	for _, line := range c.Lines {
		expected = expected.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Qty))))
	}
	assert.True(t, c.Subtotal().Equal(expected.Round(2)))
	assert.True(t, c.Tax(taxRate).Equal(c.Subtotal().Mul(taxRate).Round(2)))
	assert.True(t, c.Total(taxRate).Equal(c.Subtotal().Add(c.Tax(taxRate))))
	assert.Equal(t, ids[2], c.Lines[1].ProductID)
}

func TestLineIndexErrors(t *testing.T) {
	var c Cart
	c.AddLine(uuid.New(), "M", "", d("1"))

	err := c.SetQuantity(3, 1)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	err = c.SetQuantity(0, 0)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	err = c.RemoveLine(-1)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestClearEmptiesCart(t *testing.T) {
	var c Cart
	c.AddLine(uuid.New(), "M", "", d("4.00"))
	assert.False(t, c.IsEmpty())
	c.Clear()
	assert.True(t, c.IsEmpty())
	assert.True(t, c.Subtotal().IsZero())
}
