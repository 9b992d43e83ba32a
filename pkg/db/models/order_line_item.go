package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderLineItem snapshots one sold variant at the price charged.
type OrderLineItem struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID     uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	Position    int             `gorm:"column:position;not null"`
	ProductID   uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	VariantID   uuid.UUID       `gorm:"column:variant_id;type:uuid;not null"`
	ProductName string          `gorm:"column:product_name;not null"`
	Size        string          `gorm:"column:size;not null"`
	Qty         int             `gorm:"column:qty;not null"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric(10,2);not null"`
	LineTotal   decimal.Decimal `gorm:"column:line_total;type:numeric(10,2);not null"`
}
