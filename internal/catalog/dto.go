package catalog

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/retailpos-backend/pkg/db/models"
)

// ProductDTO is the catalog payload returned to clients.
type ProductDTO struct {
	ID        uuid.UUID    `json:"id"`
	Name      string       `json:"name"`
	ItemCode  string       `json:"item_code"`
	Category  *CategoryDTO `json:"category,omitempty"`
	Variants  []VariantDTO `json:"variants"`
	CreatedAt time.Time    `json:"created_at"`
}

type CategoryDTO struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
}

// VariantDTO carries price as a fixed two-place string.
type VariantDTO struct {
	ID    uuid.UUID `json:"id"`
	Size  string    `json:"size"`
	Price string    `json:"price"`
	Stock int       `json:"stock"`
}

// StockAdjustmentResult reports the stock after an adjustment line was applied.
type StockAdjustmentResult struct {
	Line      int       `json:"line"`
	VariantID uuid.UUID `json:"variant_id"`
	ProductID uuid.UUID `json:"product_id"`
	Size      string    `json:"size"`
	Previous  int       `json:"previous"`
	Stock     int       `json:"stock"`
}

func productDTOFromModel(p models.Product) ProductDTO {
	dto := ProductDTO{
		ID:        p.ID,
		Name:      p.Name,
		ItemCode:  p.ItemCode,
		Variants:  make([]VariantDTO, 0, len(p.Variants)),
		CreatedAt: p.CreatedAt,
	}
	if p.Category != nil {
		dto.Category = &CategoryDTO{ID: p.Category.ID, Name: p.Category.Name, Slug: p.Category.Slug}
	}
	for _, v := range p.Variants {
		dto.Variants = append(dto.Variants, VariantDTO{
			ID:    v.ID,
			Size:  v.Size,
			Price: v.Price.StringFixed(2),
			Stock: v.Stock,
		})
	}
	return dto
}
