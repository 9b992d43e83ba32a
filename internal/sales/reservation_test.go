package sales

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/retailpos-backend/internal/catalog"
	"github.com/angelmondragon/retailpos-backend/pkg/db/dbtest"
	"github.com/angelmondragon/retailpos-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/retailpos-backend/pkg/errors"
)

func TestReserveStockDecrementsInOrder(t *testing.T) {
	client := dbtest.Open(t)
	tee := dbtest.SeedProduct(t, client, "Tee", "TEE-1",
		dbtest.Variant{Size: "M", Price: "10.00", Stock: 5},
		dbtest.Variant{Size: "L", Price: "10.00", Stock: 4},
	)

	var reserved []ReservedLine
	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		var err error
		reserved, err = ReserveStock(context.Background(), catalog.NewRepository(tx), []LineRequest{
			{Line: 0, ProductID: tee.ID, Size: "M", Qty: 3},
			{Line: 1, ProductID: tee.ID, Size: "L", Qty: 1},
			{Line: 2, ProductID: tee.ID, Size: "M", Qty: 2},
		}, 3)
		return err
	})
	require.NoError(t, err)
	require.Len(t, reserved, 3)
	assert.Equal(t, 5, reserved[0].Before)
	assert.Equal(t, 2, reserved[0].After)
	assert.Equal(t, 2, reserved[2].Before)
	assert.Equal(t, 0, reserved[2].After)
	assert.Equal(t, "Tee", reserved[1].ProductName)

	assert.Equal(t, 0, dbtest.Stock(t, client, tee.ID, "M"))
	assert.Equal(t, 3, dbtest.Stock(t, client, tee.ID, "L"))
}

func TestReserveStockInsufficientNamesLine(t *testing.T) {
	client := dbtest.Open(t)
	tee := dbtest.SeedProduct(t, client, "Tee", "TEE-1",
		dbtest.Variant{Size: "M", Price: "10.00", Stock: 5},
		dbtest.Variant{Size: "L", Price: "10.00", Stock: 2},
		dbtest.Variant{Size: "XL", Price: "10.00", Stock: 9},
	)

	var reserved []ReservedLine
	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		var err error
		reserved, err = ReserveStock(context.Background(), catalog.NewRepository(tx), []LineRequest{
			{Line: 0, ProductID: tee.ID, Size: "M", Qty: 1},
			{Line: 1, ProductID: tee.ID, Size: "L", Qty: 3},
			{Line: 2, ProductID: tee.ID, Size: "XL", Qty: 1},
		}, 3)
		return err
	})
	require.Error(t, err)
	assert.Len(t, reserved, 1)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeInsufficientStock, typed.Code())
	details := typed.Details().(map[string]any)
	assert.Equal(t, 1, details["line"])
	assert.Equal(t, "L", details["size"])
	assert.Equal(t, 3, details["requested"])
	assert.Equal(t, 2, details["available"])

	assert.Equal(t, 5, dbtest.Stock(t, client, tee.ID, "M"))
	assert.Equal(t, 2, dbtest.Stock(t, client, tee.ID, "L"))
	assert.Equal(t, 9, dbtest.Stock(t, client, tee.ID, "XL"))
}

func TestReserveStockUnknownVariant(t *testing.T) {
	client := dbtest.Open(t)
	tee := dbtest.SeedProduct(t, client, "Tee", "TEE-1", dbtest.Variant{Size: "M", Price: "1", Stock: 1})

	_, err := ReserveStock(context.Background(), catalog.NewRepository(client.DB()), []LineRequest{
		{Line: 0, ProductID: tee.ID, Size: "XXL", Qty: 1},
	}, 1)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
	assert.Equal(t, "XXL", typed.Details().(map[string]any)["size"])
}

type racingStore struct {
	variant  models.ProductVariant
	stock    []int
	reads    int
	casCalls int
	casErr   error
}

func (r *racingStore) FindVariant(context.Context, catalog.VariantRef) (*models.ProductVariant, *models.Product, error) {
	v := r.variant
	v.Stock = r.stock[0]
	return &v, &models.Product{Name: "Tee"}, nil
}

func (r *racingStore) ReadStock(context.Context, uuid.UUID) (int, error) {
	r.reads++
	if r.reads < len(r.stock) {
		return r.stock[r.reads], nil
	}
	return r.stock[len(r.stock)-1], nil
}

// CompareAndSetStock only succeeds once the reader has seen the final value.
func (r *racingStore) CompareAndSetStock(_ context.Context, _ uuid.UUID, expected, _ int) (bool, error) {
	r.casCalls++
	if r.casErr != nil {
		return false, r.casErr
	}
	return r.reads >= len(r.stock)-1 && expected == r.stock[len(r.stock)-1], nil
}

func TestReserveStockRetriesLostRace(t *testing.T) {
	store := &racingStore{variant: models.ProductVariant{ID: uuid.New()}, stock: []int{5, 4}}
	reserved, err := ReserveStock(context.Background(), store, []LineRequest{{ProductID: uuid.New(), Size: "M", Qty: 2}}, 3)
	require.NoError(t, err)
	require.Len(t, reserved, 1)
	assert.Equal(t, 4, reserved[0].Before)
	assert.Equal(t, 2, reserved[0].After)
	assert.Equal(t, 2, store.casCalls)
}

func TestReserveStockGivesUpAfterAttempts(t *testing.T) {
	store := &racingStore{variant: models.ProductVariant{ID: uuid.New()}, stock: []int{5, 5, 5, 4}}
	_, err := ReserveStock(context.Background(), store, []LineRequest{{ProductID: uuid.New(), Size: "M", Qty: 1}}, 2)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
	assert.Equal(t, 2, store.casCalls)
}

func TestReserveStockRaceCanRevealShortage(t *testing.T) {
	store := &racingStore{variant: models.ProductVariant{ID: uuid.New()}, stock: []int{5, 1}}
	_, err := ReserveStock(context.Background(), store, []LineRequest{{ProductID: uuid.New(), Size: "M", Qty: 2}}, 3)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock))
}

func TestReserveStockWriteError(t *testing.T) {
	store := &racingStore{variant: models.ProductVariant{ID: uuid.New()}, stock: []int{5}, casErr: errors.New("db down")}
	_, err := ReserveStock(context.Background(), store, []LineRequest{{ProductID: uuid.New(), Size: "M", Qty: 1}}, 3)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}
