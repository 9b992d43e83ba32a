// Package dbtest opens throwaway SQLite databases carrying the full schema.
package dbtest

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/retailpos-backend/pkg/db"
	"github.com/angelmondragon/retailpos-backend/pkg/db/models"
	"github.com/angelmondragon/retailpos-backend/pkg/migrate"
)

// Open returns a private in-memory database migrated from the models.
func Open(t testing.TB) *db.Client {
	t.Helper()
	dsn := "file:dbtest_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	// one connection keeps the shared-cache database alive and serializes writers
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	client := db.NewFromGorm(conn)
	require.NoError(t, migrate.AutoMigrateModels(client))
	return client
}

// Variant describes one seeded size.
type Variant struct {
	Size  string
	Price string
	Stock int
}

// SeedProduct inserts a product with the given variants.
func SeedProduct(t testing.TB, client *db.Client, name, itemCode string, variants ...Variant) *models.Product {
	t.Helper()
	product := &models.Product{Name: name, ItemCode: itemCode}
	for _, v := range variants {
		product.Variants = append(product.Variants, models.ProductVariant{
			Size:  v.Size,
			Price: decimal.RequireFromString(v.Price),
			Stock: v.Stock,
		})
	}
	require.NoError(t, client.DB().Create(product).Error)
	return product
}

// Stock reads the current stock for a product size.
func Stock(t testing.TB, client *db.Client, productID uuid.UUID, size string) int {
	t.Helper()
	var variant models.ProductVariant
	require.NoError(t, client.DB().Where("product_id = ? AND size = ?", productID, size).First(&variant).Error)
	return variant.Stock
}

// VariantID resolves the variant row for a product size.
func VariantID(t testing.TB, client *db.Client, productID uuid.UUID, size string) uuid.UUID {
	t.Helper()
	var variant models.ProductVariant
	require.NoError(t, client.DB().Where("product_id = ? AND size = ?", productID, size).First(&variant).Error)
	return variant.ID
}
