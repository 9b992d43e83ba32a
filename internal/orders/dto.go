package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/retailpos-backend/pkg/db/models"
	"github.com/angelmondragon/retailpos-backend/pkg/enums"
)

// ListFilters narrows the admin order list.
type ListFilters struct {
	PickupStatus  *enums.PickupStatus
	PaymentStatus *enums.PaymentStatus
	Channel       *enums.SaleChannel
}

// OrderDTO is the admin view of an order. Amounts are fixed two-place strings.
type OrderDTO struct {
	ID            uuid.UUID           `json:"id"`
	Code          string              `json:"code"`
	Channel       enums.SaleChannel   `json:"channel"`
	CustomerName  *string             `json:"customer_name,omitempty"`
	OperatorID    *uuid.UUID          `json:"operator_id,omitempty"`
	ExternalRef   *string             `json:"external_ref,omitempty"`
	Subtotal      string              `json:"subtotal"`
	Tax           string              `json:"tax"`
	Total         string              `json:"total"`
	Tender        TenderDTO           `json:"tender"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
	PickupStatus  enums.PickupStatus  `json:"pickup_status"`
	PickedUpAt    *time.Time          `json:"picked_up_at,omitempty"`
	Lines         []LineDTO           `json:"lines"`
	CreatedAt     time.Time           `json:"created_at"`
}

type TenderDTO struct {
	Mode   enums.TenderMode `json:"mode"`
	Cash   string           `json:"cash"`
	Card   string           `json:"card"`
	Change string           `json:"change"`
}

type LineDTO struct {
	ProductID   uuid.UUID `json:"product_id"`
	VariantID   uuid.UUID `json:"variant_id"`
	ProductName string    `json:"product_name"`
	Size        string    `json:"size"`
	Qty         int       `json:"qty"`
	UnitPrice   string    `json:"unit_price"`
	LineTotal   string    `json:"line_total"`
}

// OrderList is one page of orders.
type OrderList struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// FromModel converts a persisted order into its DTO.
func FromModel(o models.Order) OrderDTO {
	dto := OrderDTO{
		ID:           o.ID,
		Code:         o.Code,
		Channel:      o.Channel,
		CustomerName: o.CustomerName,
		OperatorID:   o.OperatorID,
		ExternalRef:  o.ExternalRef,
		Subtotal:     o.Subtotal.StringFixed(2),
		Tax:          o.Tax.StringFixed(2),
		Total:        o.Total.StringFixed(2),
		Tender: TenderDTO{
			Mode:   o.TenderMode,
			Cash:   o.CashAmount.StringFixed(2),
			Card:   o.CardAmount.StringFixed(2),
			Change: o.ChangeDue.StringFixed(2),
		},
		PaymentStatus: o.PaymentStatus,
		PickupStatus:  o.PickupStatus,
		PickedUpAt:    o.PickedUpAt,
		Lines:         make([]LineDTO, 0, len(o.LineItems)),
		CreatedAt:     o.CreatedAt,
	}
	for _, li := range o.LineItems {
		dto.Lines = append(dto.Lines, LineDTO{
			ProductID:   li.ProductID,
			VariantID:   li.VariantID,
			ProductName: li.ProductName,
			Size:        li.Size,
			Qty:         li.Qty,
			UnitPrice:   li.UnitPrice.StringFixed(2),
			LineTotal:   li.LineTotal.StringFixed(2),
		})
	}
	return dto
}
