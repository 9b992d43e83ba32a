package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/retailpos-backend/internal/catalog"
	"github.com/angelmondragon/retailpos-backend/internal/sales"
	"github.com/angelmondragon/retailpos-backend/internal/tender"
	"github.com/angelmondragon/retailpos-backend/pkg/db"
	"github.com/angelmondragon/retailpos-backend/pkg/db/models"
	"github.com/angelmondragon/retailpos-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/retailpos-backend/pkg/errors"
	"github.com/angelmondragon/retailpos-backend/pkg/logger"
)

// Service runs cart operations for POS terminals.
type Service interface {
	Create(ctx context.Context, operatorID *uuid.UUID) (*CartView, error)
	Get(ctx context.Context, id uuid.UUID) (*CartView, error)
	AddLine(ctx context.Context, id uuid.UUID, ref catalog.VariantRef) (*CartView, error)
	SetQuantity(ctx context.Context, id uuid.UUID, index, qty int) (*CartView, error)
	RemoveLine(ctx context.Context, id uuid.UUID, index int) (*CartView, error)
	Clear(ctx context.Context, id uuid.UUID) (*CartView, error)
	Checkout(ctx context.Context, id uuid.UUID, input CheckoutInput) (*sales.Result, error)
}

// CheckoutInput settles a cart at the register.
type CheckoutInput struct {
	Tender       tender.Tender
	CustomerName string
	OperatorID   *uuid.UUID
}

const mutateAttempts = 3

type variantFinder interface {
	FindVariant(ctx context.Context, ref catalog.VariantRef) (*models.ProductVariant, *models.Product, error)
}

type service struct {
	store   *Store
	catalog variantFinder
	sales   sales.Service
	taxRate decimal.Decimal
	logg    *logger.Logger
	now     func() time.Time
}

func NewService(store *Store, finder variantFinder, salesSvc sales.Service, taxRate decimal.Decimal, logg *logger.Logger) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("session store required")
	}
	if finder == nil {
		return nil, fmt.Errorf("variant finder required")
	}
	if salesSvc == nil {
		return nil, fmt.Errorf("sales service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		store:   store,
		catalog: finder,
		sales:   salesSvc,
		taxRate: taxRate,
		logg:    logg,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Create(ctx context.Context, operatorID *uuid.UUID) (*CartView, error) {
	now := s.now()
	sess := &Session{ID: uuid.New(), OperatorID: operatorID, CreatedAt: now, UpdatedAt: now}
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, err
	}
	return newCartView(sess, s.taxRate), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*CartView, error) {
	sess, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return newCartView(sess, s.taxRate), nil
}

// AddLine snapshots the current catalog price. The resulting quantity may not
// exceed the stock seen at this moment.
func (s *service) AddLine(ctx context.Context, id uuid.UUID, ref catalog.VariantRef) (*CartView, error) {
	ref.Size = strings.TrimSpace(ref.Size)
	if ref.ProductID == uuid.Nil || ref.Size == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_id and size are required")
	}
	return s.mutate(ctx, id, func(sess *Session) error {
		variant, product, err := s.findVariant(ctx, ref)
		if err != nil {
			return err
		}
		index := sess.Cart.AddLine(ref.ProductID, ref.Size, product.Name, variant.Price)
		return boundByStock(index, sess.Cart.Lines[index].Qty, variant.Stock)
	})
}

func (s *service) SetQuantity(ctx context.Context, id uuid.UUID, index, qty int) (*CartView, error) {
	return s.mutate(ctx, id, func(sess *Session) error {
		if err := sess.Cart.SetQuantity(index, qty); err != nil {
			return err
		}
		line := sess.Cart.Lines[index]
		variant, _, err := s.findVariant(ctx, catalog.VariantRef{ProductID: line.ProductID, Size: line.Size})
		if err != nil {
			return err
		}
		return boundByStock(index, qty, variant.Stock)
	})
}

func (s *service) RemoveLine(ctx context.Context, id uuid.UUID, index int) (*CartView, error) {
	return s.mutate(ctx, id, func(sess *Session) error {
		return sess.Cart.RemoveLine(index)
	})
}

func (s *service) Clear(ctx context.Context, id uuid.UUID) (*CartView, error) {
	return s.mutate(ctx, id, func(sess *Session) error {
		sess.Cart.Clear()
		return nil
	})
}

// Checkout submits the cart as a POS sale. The cart is deleted only when the
// sale completes; a failed sale leaves it intact for correction.
func (s *service) Checkout(ctx context.Context, id uuid.UUID, input CheckoutInput) (*sales.Result, error) {
	sess, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Cart.IsEmpty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	operatorID := input.OperatorID
	if operatorID == nil {
		operatorID = sess.OperatorID
	}
	submit := sales.SubmitInput{
		Channel:      enums.SaleChannelPOS,
		Lines:        make([]sales.LineInput, len(sess.Cart.Lines)),
		Tender:       input.Tender,
		CustomerName: input.CustomerName,
		OperatorID:   operatorID,
	}
	for i, line := range sess.Cart.Lines {
		price := line.UnitPrice
		submit.Lines[i] = sales.LineInput{
			ProductID: line.ProductID,
			Size:      line.Size,
			Qty:       line.Qty,
			UnitPrice: &price,
		}
	}

	result, err := s.sales.Submit(ctx, submit)
	if err != nil {
		return nil, err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		// the sale is already committed; a stale cart only expires later
		s.logg.Error(s.logg.WithField(ctx, "cart_id", id.String()), "cart.delete_failed", err)
	}
	return result, nil
}

// mutate applies fn to a freshly loaded cart and writes it back only if no
// other request changed the cart meanwhile; on a lost race fn runs again on
// the newer copy.
func (s *service) mutate(ctx context.Context, id uuid.UUID, fn func(sess *Session) error) (*CartView, error) {
	for attempt := 1; attempt <= mutateAttempts; attempt++ {
		sess, prev, err := s.store.load(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := fn(sess); err != nil {
			return nil, err
		}
		sess.UpdatedAt = s.now()
		swapped, err := s.store.Replace(ctx, sess, prev)
		if err != nil {
			return nil, err
		}
		if swapped {
			return newCartView(sess, s.taxRate), nil
		}
		s.logg.Debug(s.logg.WithFields(ctx, map[string]any{
			"cart_id": id.String(),
			"attempt": attempt,
		}), "cart.write_conflict")
	}
	return nil, pkgerrors.New(pkgerrors.CodeConflict, "cart is being changed by another request; retry").
		WithDetails(map[string]any{"cart_id": id.String()})
}

func (s *service) findVariant(ctx context.Context, ref catalog.VariantRef) (*models.ProductVariant, *models.Product, error) {
	variant, product, err := s.catalog.FindVariant(ctx, ref)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "product size not found").
				WithDetails(map[string]any{"product_id": ref.ProductID.String(), "size": ref.Size})
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load variant")
	}
	return variant, product, nil
}

func boundByStock(index, qty, stock int) error {
	if qty <= stock {
		return nil
	}
	return pkgerrors.Newf(pkgerrors.CodeInsufficientStock, "only %d in stock", stock).
		WithDetails(map[string]any{"line": index, "requested": qty, "available": stock})
}
