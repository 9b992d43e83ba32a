package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is the catalog listing; price and stock live on its variants.
type Product struct {
	ID         uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	Name       string           `gorm:"column:name;not null"`
	ItemCode   string           `gorm:"column:item_code;not null;uniqueIndex"`
	CategoryID *uuid.UUID       `gorm:"column:category_id;type:uuid"`
	Category   *Category        `gorm:"foreignKey:CategoryID"`
	Variants   []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
