package payloads

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/retailpos-backend/pkg/enums"
)

// OrderLine is the compact line shape carried by order events.
type OrderLine struct {
	ProductID uuid.UUID `json:"product_id"`
	VariantID uuid.UUID `json:"variant_id"`
	Size      string    `json:"size"`
	Qty       int       `json:"qty"`
	UnitPrice string    `json:"unit_price"`
}

// OrderCreatedEvent is emitted once per completed sale.
type OrderCreatedEvent struct {
	OrderID       uuid.UUID           `json:"order_id"`
	Code          string              `json:"code"`
	Channel       enums.SaleChannel   `json:"channel"`
	Total         string              `json:"total"`
	TenderMode    enums.TenderMode    `json:"tender_mode"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
	PickupStatus  enums.PickupStatus  `json:"pickup_status"`
	Lines         []OrderLine         `json:"lines"`
}

// OrderPickedUpEvent is emitted when an admin completes a pickup.
type OrderPickedUpEvent struct {
	OrderID       uuid.UUID           `json:"order_id"`
	Code          string              `json:"code"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
}

// StockAdjustedEvent records an out-of-band stock change for one variant.
type StockAdjustedEvent struct {
	VariantID uuid.UUID `json:"variant_id"`
	ProductID uuid.UUID `json:"product_id"`
	Size      string    `json:"size"`
	Delta     int       `json:"delta"`
	Stock     int       `json:"stock"`
	Reason    string    `json:"reason,omitempty"`
}
