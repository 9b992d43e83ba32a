package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/retailpos-backend/pkg/db"
	"github.com/angelmondragon/retailpos-backend/pkg/db/models"
	"github.com/angelmondragon/retailpos-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/retailpos-backend/pkg/errors"
	"github.com/angelmondragon/retailpos-backend/pkg/logger"
	"github.com/angelmondragon/retailpos-backend/pkg/outbox"
	"github.com/angelmondragon/retailpos-backend/pkg/outbox/payloads"
)

// MaxLookupRefs caps a single stock lookup request.
const MaxLookupRefs = 200

// Service exposes catalog reads and the admin catalog edits.
type Service interface {
	ListProducts(ctx context.Context) ([]ProductDTO, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	LookupStock(ctx context.Context, refs []VariantRef) (map[string]int, error)
	CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	AdjustStock(ctx context.Context, input AdjustStockInput) ([]StockAdjustmentResult, error)
}

// CreateProductInput is an out-of-band catalog addition.
type CreateProductInput struct {
	Name         string
	ItemCode     string
	CategoryName string
	CategorySlug string
	Variants     []VariantInput
}

type VariantInput struct {
	Size  string
	Price decimal.Decimal
	Stock int
}

// AdjustStockInput applies signed stock deltas. Every line is validated before any is written.
type AdjustStockInput struct {
	OperatorID *uuid.UUID
	Reason     string
	Lines      []StockAdjustmentLine
}

type StockAdjustmentLine struct {
	Ref   VariantRef
	Delta int
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type service struct {
	repo   *Repository
	tx     txRunner
	outbox outboxEmitter
	logg   *logger.Logger
}

// NewService constructs the catalog service.
func NewService(repo *Repository, tx txRunner, emitter outboxEmitter, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, outbox: emitter, logg: logg}, nil
}

func (s *service) ListProducts(ctx context.Context) ([]ProductDTO, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	out := make([]ProductDTO, 0, len(products))
	for _, p := range products {
		out = append(out, productDTOFromModel(p))
	}
	return out, nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	dto := productDTOFromModel(*product)
	return &dto, nil
}

// LookupStock maps each known ref key to its current stock. Unknown refs are omitted.
func (s *service) LookupStock(ctx context.Context, refs []VariantRef) (map[string]int, error) {
	if len(refs) > MaxLookupRefs {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "at most %d variants per lookup", MaxLookupRefs)
	}
	wanted := make(map[string]struct{}, len(refs))
	productIDs := make([]uuid.UUID, 0, len(refs))
	seenProducts := map[uuid.UUID]struct{}{}
	for _, ref := range refs {
		ref.Size = normalizeSize(ref.Size)
		wanted[ref.Key()] = struct{}{}
		if _, ok := seenProducts[ref.ProductID]; ok {
			continue
		}
		seenProducts[ref.ProductID] = struct{}{}
		productIDs = append(productIDs, ref.ProductID)
	}

	variants, err := s.repo.ListVariantsByProducts(ctx, productIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup stock")
	}

	out := make(map[string]int, len(refs))
	for _, v := range variants {
		key := VariantRef{ProductID: v.ProductID, Size: v.Size}.Key()
		if _, ok := wanted[key]; ok {
			out[key] = v.Stock
		}
	}
	return out, nil
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	if err := validateCreateProduct(input); err != nil {
		return nil, err
	}

	product := &models.Product{
		Name:     strings.TrimSpace(input.Name),
		ItemCode: strings.TrimSpace(input.ItemCode),
	}
	for _, v := range input.Variants {
		product.Variants = append(product.Variants, models.ProductVariant{
			Size:  normalizeSize(v.Size),
			Price: v.Price.Round(2),
			Stock: v.Stock,
		})
	}

	var category *models.Category
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if slug := strings.TrimSpace(input.CategorySlug); slug != "" {
			name := strings.TrimSpace(input.CategoryName)
			if name == "" {
				name = slug
			}
			ensured, err := repo.EnsureCategory(ctx, name, slug)
			if err != nil {
				return err
			}
			category = ensured
			product.CategoryID = &ensured.ID
		}
		return repo.CreateProduct(ctx, product)
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "item code already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"product_id": product.ID.String(),
		"item_code":  product.ItemCode,
		"variants":   len(product.Variants),
	}), "catalog.product_created")

	product.Category = category
	dto := productDTOFromModel(*product)
	return &dto, nil
}

func validateCreateProduct(input CreateProductInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if strings.TrimSpace(input.ItemCode) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "item_code is required")
	}
	if len(input.Variants) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one variant is required")
	}
	sizes := map[string]struct{}{}
	for i, v := range input.Variants {
		size := normalizeSize(v.Size)
		if size == "" {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "variant %d: size is required", i)
		}
		if _, dup := sizes[size]; dup {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "variant %d: duplicate size %q", i, size)
		}
		sizes[size] = struct{}{}
		if v.Price.IsNegative() {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "variant %d: price cannot be negative", i)
		}
		if v.Stock < 0 {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "variant %d: stock cannot be negative", i)
		}
	}
	return nil
}

type plannedAdjustment struct {
	line    int
	variant *models.ProductVariant
	delta   int
}

// AdjustStock validates every line first and only then writes, all inside one transaction.
func (s *service) AdjustStock(ctx context.Context, input AdjustStockInput) ([]StockAdjustmentResult, error) {
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one adjustment is required")
	}
	for i, line := range input.Lines {
		if line.Delta == 0 {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "line %d: delta cannot be zero", i).
				WithDetails(map[string]any{"line": i})
		}
	}

	var results []StockAdjustmentResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		planned := make([]plannedAdjustment, 0, len(input.Lines))
		pending := map[uuid.UUID]int{}
		for i, line := range input.Lines {
			ref := VariantRef{ProductID: line.Ref.ProductID, Size: normalizeSize(line.Ref.Size)}
			variant, _, err := repo.FindVariant(ctx, ref)
			if err != nil {
				if db.IsNotFound(err) {
					return pkgerrors.Newf(pkgerrors.CodeNotFound, "line %d: variant not found", i).
						WithDetails(map[string]any{"line": i, "product_id": ref.ProductID, "size": ref.Size})
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load variant")
			}
			projected := variant.Stock + pending[variant.ID] + line.Delta
			if projected < 0 {
				return pkgerrors.Newf(pkgerrors.CodeInsufficientStock, "line %d: adjustment would make stock negative", i).
					WithDetails(map[string]any{
						"line":       i,
						"product_id": ref.ProductID,
						"size":       ref.Size,
						"requested":  -line.Delta,
						"available":  variant.Stock + pending[variant.ID],
					})
			}
			pending[variant.ID] += line.Delta
			planned = append(planned, plannedAdjustment{line: i, variant: variant, delta: line.Delta})
		}

		current := map[uuid.UUID]int{}
		for _, p := range planned {
			before, ok := current[p.variant.ID]
			if !ok {
				before = p.variant.Stock
			}
			after := before + p.delta
			swapped, err := repo.CompareAndSetStock(ctx, p.variant.ID, before, after)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write stock")
			}
			if !swapped {
				return pkgerrors.Newf(pkgerrors.CodeConflict, "line %d: stock changed concurrently", p.line).
					WithDetails(map[string]any{"line": p.line})
			}
			current[p.variant.ID] = after

			if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventStockAdjusted,
				AggregateType: enums.AggregateVariant,
				AggregateID:   p.variant.ID,
				Actor:         &outbox.Actor{OperatorID: input.OperatorID, Role: enums.OperatorRoleAdmin.String()},
				Data: payloads.StockAdjustedEvent{
					VariantID: p.variant.ID,
					ProductID: p.variant.ProductID,
					Size:      p.variant.Size,
					Delta:     p.delta,
					Stock:     after,
					Reason:    input.Reason,
				},
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "queue stock event")
			}

			results = append(results, StockAdjustmentResult{
				Line:      p.line,
				VariantID: p.variant.ID,
				ProductID: p.variant.ProductID,
				Size:      p.variant.Size,
				Previous:  before,
				Stock:     after,
			})
		}
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "adjust stock")
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"lines":  len(results),
		"reason": input.Reason,
	}), "catalog.stock_adjusted")
	return results, nil
}
