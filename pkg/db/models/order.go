package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/retailpos-backend/pkg/enums"
)

// Order is the persisted record of one completed sale.
type Order struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	Code          string              `gorm:"column:code;not null;uniqueIndex"`
	Channel       enums.SaleChannel   `gorm:"column:channel;not null"`
	CustomerName  *string             `gorm:"column:customer_name"`
	OperatorID    *uuid.UUID          `gorm:"column:operator_id;type:uuid"`
	ExternalRef   *string             `gorm:"column:external_ref;uniqueIndex"`
	Subtotal      decimal.Decimal     `gorm:"column:subtotal;type:numeric(10,2);not null"`
	Tax           decimal.Decimal     `gorm:"column:tax;type:numeric(10,2);not null"`
	Total         decimal.Decimal     `gorm:"column:total;type:numeric(10,2);not null"`
	TenderMode    enums.TenderMode    `gorm:"column:tender_mode;not null"`
	CashAmount    decimal.Decimal     `gorm:"column:cash_amount;type:numeric(10,2);not null;default:0"`
	CardAmount    decimal.Decimal     `gorm:"column:card_amount;type:numeric(10,2);not null;default:0"`
	ChangeDue     decimal.Decimal     `gorm:"column:change_due;type:numeric(10,2);not null;default:0"`
	PaymentStatus enums.PaymentStatus `gorm:"column:payment_status;not null"`
	PickupStatus  enums.PickupStatus  `gorm:"column:pickup_status;not null"`
	PickedUpAt    *time.Time          `gorm:"column:picked_up_at"`
	LineItems     []OrderLineItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
