package session

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartView is the priced cart returned to the terminal.
type CartView struct {
	ID        uuid.UUID  `json:"id"`
	Lines     []LineView `json:"lines"`
	Subtotal  string     `json:"subtotal"`
	Tax       string     `json:"tax"`
	Total     string     `json:"total"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type LineView struct {
	Index       int       `json:"index"`
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name,omitempty"`
	Size        string    `json:"size"`
	UnitPrice   string    `json:"unit_price"`
	Qty         int       `json:"qty"`
	LineTotal   string    `json:"line_total"`
}

func newCartView(sess *Session, rate decimal.Decimal) *CartView {
	totals := sess.Cart.Totals(rate)
	view := &CartView{
		ID:        sess.ID,
		Lines:     make([]LineView, 0, len(sess.Cart.Lines)),
		Subtotal:  totals.Subtotal.StringFixed(2),
		Tax:       totals.Tax.StringFixed(2),
		Total:     totals.Total.StringFixed(2),
		UpdatedAt: sess.UpdatedAt,
	}
	for i, line := range sess.Cart.Lines {
		view.Lines = append(view.Lines, LineView{
			Index:       i,
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Size:        line.Size,
			UnitPrice:   line.UnitPrice.StringFixed(2),
			Qty:         line.Qty,
			LineTotal:   line.LineTotal().StringFixed(2),
		})
	}
	return view
}
