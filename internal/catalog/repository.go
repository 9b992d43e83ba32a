package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/retailpos-backend/pkg/db/models"
)

// Repository reads and writes catalog rows.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) ListProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Variants", func(db *gorm.DB) *gorm.DB { return db.Order("size ASC") }).
		Order("name ASC").
		Order("id ASC").
		Find(&products).Error
	return products, err
}

func (r *Repository) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Variants", func(db *gorm.DB) *gorm.DB { return db.Order("size ASC") }).
		First(&product, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindVariant loads the variant and its product for ref.
func (r *Repository) FindVariant(ctx context.Context, ref VariantRef) (*models.ProductVariant, *models.Product, error) {
	var variant models.ProductVariant
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND size = ?", ref.ProductID, ref.Size).
		First(&variant).Error; err != nil {
		return nil, nil, err
	}
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", variant.ProductID).Error; err != nil {
		return nil, nil, err
	}
	return &variant, &product, nil
}

// ReadStock returns the current stock of one variant.
func (r *Repository) ReadStock(ctx context.Context, variantID uuid.UUID) (int, error) {
	var variant models.ProductVariant
	if err := r.db.WithContext(ctx).
		Select("stock").
		First(&variant, "id = ?", variantID).Error; err != nil {
		return 0, err
	}
	return variant.Stock, nil
}

// ListVariantsByProducts returns every variant belonging to the given products.
func (r *Repository) ListVariantsByProducts(ctx context.Context, productIDs []uuid.UUID) ([]models.ProductVariant, error) {
	var variants []models.ProductVariant
	if len(productIDs) == 0 {
		return variants, nil
	}
	err := r.db.WithContext(ctx).
		Where("product_id IN ?", productIDs).
		Find(&variants).Error
	return variants, err
}

// CompareAndSetStock writes next only while the row still holds expected.
// It reports false when another writer got there first.
func (r *Repository) CompareAndSetStock(ctx context.Context, variantID uuid.UUID, expected, next int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.ProductVariant{}).
		Where("id = ? AND stock = ?", variantID, expected).
		Update("stock", next)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// CreateProduct inserts the product together with its variants.
func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// EnsureCategory returns the category with slug, creating it on first use.
func (r *Repository) EnsureCategory(ctx context.Context, name, slug string) (*models.Category, error) {
	category := models.Category{Name: name, Slug: slug}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "slug"}}, DoNothing: true}).
		Create(&category).Error; err != nil {
		return nil, err
	}
	var stored models.Category
	if err := r.db.WithContext(ctx).First(&stored, "slug = ?", slug).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}
