// Package cart holds the in-memory POS cart and its money math.
package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/retailpos-backend/internal/tender"
	pkgerrors "github.com/angelmondragon/retailpos-backend/pkg/errors"
)

// Line is one selected product size with the unit price seen when it was added.
type Line struct {
	ProductID   uuid.UUID       `json:"product_id"`
	Size        string          `json:"size"`
	ProductName string          `json:"product_name,omitempty"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Qty         int             `json:"qty"`
}

// LineTotal is UnitPrice x Qty rounded to cents.
func (l Line) LineTotal() decimal.Decimal {
	return tender.Round(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Qty))))
}

func (l Line) matches(productID uuid.UUID, size string) bool {
	return l.ProductID == productID && l.Size == size
}

// Cart is an ordered list of lines. The zero value is an empty cart.
type Cart struct {
	Lines []Line `json:"lines"`
}

// Totals is the priced view of a cart.
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// AddLine bumps the quantity of a matching line by one or appends a new line.
// A matching line keeps its original price snapshot.
func (c *Cart) AddLine(productID uuid.UUID, size, productName string, unitPrice decimal.Decimal) int {
	for i := range c.Lines {
		if c.Lines[i].matches(productID, size) {
			c.Lines[i].Qty++
			return i
		}
	}
	c.Lines = append(c.Lines, Line{
		ProductID:   productID,
		Size:        size,
		ProductName: productName,
		UnitPrice:   unitPrice,
		Qty:         1,
	})
	return len(c.Lines) - 1
}

// SetQuantity overwrites the quantity of line index.
func (c *Cart) SetQuantity(index, qty int) error {
	if err := c.checkIndex(index); err != nil {
		return err
	}
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	c.Lines[index].Qty = qty
	return nil
}

// RemoveLine deletes line index, shifting later lines up.
func (c *Cart) RemoveLine(index int) error {
	if err := c.checkIndex(index); err != nil {
		return err
	}
	c.Lines = append(c.Lines[:index], c.Lines[index+1:]...)
	return nil
}

func (c *Cart) Clear() {
	c.Lines = nil
}

func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// Subtotal sums the line totals.
func (c *Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, line := range c.Lines {
		sum = sum.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Qty))))
	}
	return tender.Round(sum)
}

// Tax is the subtotal times rate, rounded to cents.
func (c *Cart) Tax(rate decimal.Decimal) decimal.Decimal {
	return tender.Round(c.Subtotal().Mul(rate))
}

func (c *Cart) Total(rate decimal.Decimal) decimal.Decimal {
	return c.Subtotal().Add(c.Tax(rate))
}

// Totals prices the cart at rate.
func (c *Cart) Totals(rate decimal.Decimal) Totals {
	return Compute(c.Lines, rate)
}

// Compute prices an arbitrary list of lines at rate.
func Compute(lines []Line, rate decimal.Decimal) Totals {
	c := Cart{Lines: lines}
	subtotal := c.Subtotal()
	tax := tender.Round(subtotal.Mul(rate))
	return Totals{Subtotal: subtotal, Tax: tax, Total: subtotal.Add(tax)}
}

func (c *Cart) checkIndex(index int) error {
	if index < 0 || index >= len(c.Lines) {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "line %d does not exist", index).
			WithDetails(map[string]any{"line": index, "lines": len(c.Lines)})
	}
	return nil
}
