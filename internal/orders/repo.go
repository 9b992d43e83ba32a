package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/retailpos-backend/pkg/db/models"
	"github.com/angelmondragon/retailpos-backend/pkg/enums"
	"github.com/angelmondragon/retailpos-backend/pkg/pagination"
)

// Repository persists orders and their line items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CodeExists(ctx context.Context, code string) (bool, error)
	Create(ctx context.Context, order *models.Order) error
	FindByCode(ctx context.Context, code string) (*models.Order, error)
	FindByExternalRef(ctx context.Context, ref string) (*models.Order, error)
	List(ctx context.Context, filters ListFilters, cursor *pagination.Cursor, limit int) ([]models.Order, error)
	MarkPickedUp(ctx context.Context, id uuid.UUID, updates map[string]any) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).Where("code = ?", code).Count(&count).Error
	return count > 0, err
}

// Create inserts the order; line items on the struct are inserted with it.
func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) FindByCode(ctx context.Context, code string) (*models.Order, error) {
	return r.findOne(ctx, "code = ?", code)
}

func (r *repository) FindByExternalRef(ctx context.Context, ref string) (*models.Order, error) {
	return r.findOne(ctx, "external_ref = ?", ref)
}

func (r *repository) findOne(ctx context.Context, query string, arg any) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("LineItems", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where(query, arg).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// List returns newest-first orders after cursor, fetching limit rows.
func (r *repository) List(ctx context.Context, filters ListFilters, cursor *pagination.Cursor, limit int) ([]models.Order, error) {
	query := r.db.WithContext(ctx).
		Preload("LineItems", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") })
	if filters.PickupStatus != nil {
		query = query.Where("pickup_status = ?", *filters.PickupStatus)
	}
	if filters.PaymentStatus != nil {
		query = query.Where("payment_status = ?", *filters.PaymentStatus)
	}
	if filters.Channel != nil {
		query = query.Where("channel = ?", *filters.Channel)
	}
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Order
	err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// MarkPickedUp applies updates only while the order is still awaiting pickup.
func (r *repository) MarkPickedUp(ctx context.Context, id uuid.UUID, updates map[string]any) (bool, error) {
	updates["pickup_status"] = enums.PickupStatusPickedUp
	updates["updated_at"] = time.Now().UTC()
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND pickup_status = ?", id, enums.PickupStatusNotPickedUp).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
