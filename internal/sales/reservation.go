package sales

import (
	"context"

	"github.com/google/uuid"

	"github.com/angelmondragon/retailpos-backend/internal/catalog"
	"github.com/angelmondragon/retailpos-backend/pkg/db"
	"github.com/angelmondragon/retailpos-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/retailpos-backend/pkg/errors"
)

// LineRequest asks for Qty units of one product size. Line is the cart index.
type LineRequest struct {
	Line      int
	ProductID uuid.UUID
	Size      string
	Qty       int
}

// ReservedLine is a line whose stock has been written.
type ReservedLine struct {
	LineRequest
	VariantID   uuid.UUID
	ProductName string
	Before      int
	After       int
}

type stockStore interface {
	FindVariant(ctx context.Context, ref catalog.VariantRef) (*models.ProductVariant, *models.Product, error)
	ReadStock(ctx context.Context, variantID uuid.UUID) (int, error)
	CompareAndSetStock(ctx context.Context, variantID uuid.UUID, expected, next int) (bool, error)
}

// ReserveStock checks and decrements each line in cart order. Each write is a
// compare-and-swap against the stock it observed; a lost race re-reads and
// retries up to casAttempts times. On error the lines already written are
// returned with it.
func ReserveStock(ctx context.Context, store stockStore, lines []LineRequest, casAttempts int) ([]ReservedLine, error) {
	if casAttempts <= 0 {
		casAttempts = 1
	}
	reserved := make([]ReservedLine, 0, len(lines))
	for _, req := range lines {
		line, err := reserveLine(ctx, store, req, casAttempts)
		if err != nil {
			return reserved, err
		}
		reserved = append(reserved, line)
	}
	return reserved, nil
}

func reserveLine(ctx context.Context, store stockStore, req LineRequest, casAttempts int) (ReservedLine, error) {
	variant, product, err := store.FindVariant(ctx, catalog.VariantRef{ProductID: req.ProductID, Size: req.Size})
	if err != nil {
		if db.IsNotFound(err) {
			return ReservedLine{}, variantNotFound(req)
		}
		return ReservedLine{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load variant")
	}

	observed := variant.Stock
	for attempt := 1; ; attempt++ {
		if observed < req.Qty {
			return ReservedLine{}, insufficientStock(req, observed)
		}
		next := observed - req.Qty
		ok, err := store.CompareAndSetStock(ctx, variant.ID, observed, next)
		if err != nil {
			return ReservedLine{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write stock")
		}
		if ok {
			return ReservedLine{
				LineRequest: req,
				VariantID:   variant.ID,
				ProductName: product.Name,
				Before:      observed,
				After:       next,
			}, nil
		}
		if attempt >= casAttempts {
			return ReservedLine{}, pkgerrors.New(pkgerrors.CodeConflict, "stock changed concurrently, retry the sale").
				WithDetails(lineDetails(req))
		}
		observed, err = store.ReadStock(ctx, variant.ID)
		if err != nil {
			if db.IsNotFound(err) {
				return ReservedLine{}, variantNotFound(req)
			}
			return ReservedLine{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reread stock")
		}
	}
}

func lineDetails(req LineRequest) map[string]any {
	return map[string]any{
		"line":       req.Line,
		"product_id": req.ProductID.String(),
		"size":       req.Size,
	}
}

func variantNotFound(req LineRequest) error {
	return pkgerrors.Newf(pkgerrors.CodeNotFound, "line %d: product size not found", req.Line).
		WithDetails(lineDetails(req))
}

func insufficientStock(req LineRequest, available int) error {
	details := lineDetails(req)
	details["requested"] = req.Qty
	details["available"] = available
	return pkgerrors.Newf(pkgerrors.CodeInsufficientStock,
		"line %d: requested %d, only %d in stock", req.Line, req.Qty, available).
		WithDetails(details)
}
