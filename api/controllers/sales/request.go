package sales

import "github.com/angelmondragon/retailpos-backend/api/controllers/dto"

// SubmitSaleRequest is a register sale.
type SubmitSaleRequest struct {
	Lines        []dto.SaleLineRequest `json:"lines" validate:"required,min=1,max=100,dive"`
	Tender       *dto.TenderRequest    `json:"tender" validate:"required"`
	CustomerName string                `json:"customer_name,omitempty" validate:"max=120"`
}

// ReservationRequest holds stock for later pickup and payment.
type ReservationRequest struct {
	Lines        []dto.SaleLineRequest `json:"lines" validate:"required,min=1,max=100,dive"`
	CustomerName string                `json:"customer_name" validate:"required,max=120"`
}

// QuoteRequest prices lines and optionally checks a tender against the total.
type QuoteRequest struct {
	Lines  []QuoteLine        `json:"lines" validate:"required,min=1,max=100,dive"`
	Tender *dto.TenderRequest `json:"tender,omitempty"`
}

type QuoteLine struct {
	UnitPrice string `json:"unit_price" validate:"required,money"`
	Qty       int    `json:"qty" validate:"min=1"`
}

// QuoteResponse reports totals, the card remainder for the cash entered so far,
// and the settled breakdown when a tender was supplied.
type QuoteResponse struct {
	Subtotal      string            `json:"subtotal"`
	Tax           string            `json:"tax"`
	Total         string            `json:"total"`
	CardRemainder string            `json:"card_remainder"`
	Tender        *dto.BreakdownDTO `json:"tender,omitempty"`
}
