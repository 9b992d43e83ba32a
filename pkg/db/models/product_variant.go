package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductVariant is one size of a product with its own price and stock.
type ProductVariant struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_variant_product_size"`
	Size      string          `gorm:"column:size;not null;uniqueIndex:idx_variant_product_size"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	Stock     int             `gorm:"column:stock;not null;default:0;check:stock >= 0"`
}
