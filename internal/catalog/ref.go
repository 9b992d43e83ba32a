package catalog

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// VariantRef points at one size of one product.
type VariantRef struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Size      string    `json:"size" validate:"required"`
}

// Key is the stable map key used by stock lookups: "<product_id>:<size>".
func (r VariantRef) Key() string {
	return r.ProductID.String() + ":" + r.Size
}

// ParseVariantKey reverses Key.
func ParseVariantKey(key string) (VariantRef, error) {
	idPart, size, ok := strings.Cut(key, ":")
	if !ok || size == "" {
		return VariantRef{}, fmt.Errorf("invalid variant key %q", key)
	}
	id, err := uuid.Parse(idPart)
	if err != nil {
		return VariantRef{}, fmt.Errorf("invalid variant key %q: %w", key, err)
	}
	return VariantRef{ProductID: id, Size: size}, nil
}

func normalizeSize(size string) string {
	return strings.TrimSpace(size)
}
