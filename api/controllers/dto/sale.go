package dto

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/retailpos-backend/internal/sales"
	"github.com/angelmondragon/retailpos-backend/pkg/types"
)

// SaleLineRequest is one requested line. UnitPrice is the price shown to the customer.
type SaleLineRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Size      string    `json:"size" validate:"required,max=32"`
	Qty       int       `json:"qty" validate:"min=1"`
	UnitPrice string    `json:"unit_price,omitempty" validate:"omitempty,money"`
}

// ToLineInputs converts request lines for the sale pipeline.
func ToLineInputs(lines []SaleLineRequest) ([]sales.LineInput, error) {
	out := make([]sales.LineInput, 0, len(lines))
	for _, line := range lines {
		input := sales.LineInput{
			ProductID: line.ProductID,
			Size:      line.Size,
			Qty:       line.Qty,
		}
		if line.UnitPrice != "" {
			price, err := ParseMoney(line.UnitPrice, "lines.unit_price")
			if err != nil {
				return nil, err
			}
			input.UnitPrice = &price
		}
		out = append(out, input)
	}
	return out, nil
}

// SaleResultDTO is the order summary returned after a sale.
type SaleResultDTO struct {
	OrderID       uuid.UUID    `json:"order_id"`
	Code          string       `json:"code"`
	Channel       string       `json:"channel"`
	Subtotal      string       `json:"subtotal"`
	Tax           string       `json:"tax"`
	Total         string       `json:"total"`
	Tender        BreakdownDTO `json:"tender"`
	PaymentStatus string       `json:"payment_status"`
	PickupStatus  string       `json:"pickup_status"`
	Replayed      bool         `json:"replayed,omitempty"`
}

func NewSaleResult(r *sales.Result) SaleResultDTO {
	return SaleResultDTO{
		OrderID:       r.OrderID,
		Code:          r.Code,
		Channel:       string(r.Channel),
		Subtotal:      r.Subtotal.StringFixed(2),
		Tax:           r.Tax.StringFixed(2),
		Total:         r.Total.StringFixed(2),
		Tender:        NewBreakdown(r.Tender),
		PaymentStatus: string(r.PaymentStatus),
		PickupStatus:  string(r.PickupStatus),
		Replayed:      r.Replayed,
	}
}

// NewSaleOutcome wraps a stored sale in the terminal-facing outcome.
func NewSaleOutcome(r *sales.Result, message string) types.SaleOutcome {
	return types.SaleOutcome{
		Success:     true,
		OrderNumber: r.Code,
		Message:     message,
		Order:       NewSaleResult(r),
	}
}
