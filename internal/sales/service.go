// Package sales runs one sale attempt from validated input to a stored order.
package sales

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/retailpos-backend/internal/cart"
	"github.com/angelmondragon/retailpos-backend/internal/catalog"
	"github.com/angelmondragon/retailpos-backend/internal/orders"
	"github.com/angelmondragon/retailpos-backend/internal/tender"
	"github.com/angelmondragon/retailpos-backend/pkg/db"
	"github.com/angelmondragon/retailpos-backend/pkg/db/models"
	"github.com/angelmondragon/retailpos-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/retailpos-backend/pkg/errors"
	"github.com/angelmondragon/retailpos-backend/pkg/logger"
	"github.com/angelmondragon/retailpos-backend/pkg/metrics"
)

// Service submits sales.
type Service interface {
	Submit(ctx context.Context, input SubmitInput) (*Result, error)
}

// LineInput is one requested line. UnitPrice is the price the caller showed
// the customer; when nil the current catalog price is used.
type LineInput struct {
	ProductID uuid.UUID
	Size      string
	Qty       int
	UnitPrice *decimal.Decimal
}

// SubmitInput is one sale attempt.
type SubmitInput struct {
	Channel      enums.SaleChannel
	Lines        []LineInput
	Tender       tender.Tender
	CustomerName string
	OperatorID   *uuid.UUID
	ExternalRef  string
}

// Result describes the stored order.
type Result struct {
	OrderID       uuid.UUID
	Code          string
	Channel       enums.SaleChannel
	Subtotal      decimal.Decimal
	Tax           decimal.Decimal
	Total         decimal.Decimal
	Tender        tender.Breakdown
	PaymentStatus enums.PaymentStatus
	PickupStatus  enums.PickupStatus
	Replayed      bool
}

// Config carries the pipeline tunables.
type Config struct {
	TaxRate          decimal.Decimal
	StockCASAttempts int
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type orderWriter interface {
	Create(ctx context.Context, tx *gorm.DB, input orders.CreateInput) (*models.Order, error)
	FindByExternalRef(ctx context.Context, ref string) (*models.Order, error)
}

type service struct {
	tx      txRunner
	catalog *catalog.Repository
	orders  orderWriter
	metrics *metrics.SaleMetrics
	logg    *logger.Logger
	cfg     Config
}

// NewService wires the sale pipeline.
func NewService(tx txRunner, catalogRepo *catalog.Repository, orderSvc orderWriter, saleMetrics *metrics.SaleMetrics, logg *logger.Logger, cfg Config) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if catalogRepo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if orderSvc == nil {
		return nil, fmt.Errorf("orders service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.TaxRate.IsNegative() {
		return nil, fmt.Errorf("tax rate cannot be negative")
	}
	if cfg.StockCASAttempts <= 0 {
		cfg.StockCASAttempts = 1
	}
	return &service{
		tx:      tx,
		catalog: catalogRepo,
		orders:  orderSvc,
		metrics: saleMetrics,
		logg:    logg,
		cfg:     cfg,
	}, nil
}

// Submit runs Validating, ReservingStock and PersistingOrder. Stock writes and
// the order insert share one transaction, so any failure leaves stock as it was.
func (s *service) Submit(ctx context.Context, input SubmitInput) (*Result, error) {
	started := time.Now()
	channel := input.Channel.String()
	ctx = s.logg.WithField(ctx, "channel", channel)
	input.ExternalRef = strings.TrimSpace(input.ExternalRef)

	if input.Channel == enums.SaleChannelOnline && input.ExternalRef != "" {
		if existing, err := s.orders.FindByExternalRef(ctx, input.ExternalRef); err != nil {
			return nil, err
		} else if existing != nil {
			s.logg.Info(s.logg.WithField(ctx, "order_code", existing.Code), "sale.replayed")
			return resultFromOrder(existing, true), nil
		}
	}

	run := newAttempt(s.logg)
	result, err := s.run(ctx, run, input)
	s.metrics.ObserveDuration(channel, time.Since(started))
	if err != nil {
		s.metrics.IncFailed(channel, string(run.failedIn))
		if input.Channel == enums.SaleChannelOnline && pkgerrors.IsCode(err, pkgerrors.CodeConflict) && input.ExternalRef != "" {
			if existing, lookupErr := s.orders.FindByExternalRef(ctx, input.ExternalRef); lookupErr == nil && existing != nil {
				return resultFromOrder(existing, true), nil
			}
		}
		return nil, err
	}
	s.metrics.IncCompleted(channel)
	return result, nil
}

func (s *service) run(ctx context.Context, run *attempt, input SubmitInput) (*Result, error) {
	if err := run.advance(ctx, StateValidating); err != nil {
		return nil, err
	}
	lines, err := s.validate(ctx, input)
	if err != nil {
		run.fail(ctx, err)
		return nil, err
	}
	totals := cart.Compute(lines, s.cfg.TaxRate)
	settled, err := settle(input.Channel, totals.Total, input.Tender)
	if err != nil {
		run.fail(ctx, err)
		return nil, err
	}

	requests := make([]LineRequest, len(lines))
	for i, line := range lines {
		requests[i] = LineRequest{Line: i, ProductID: line.ProductID, Size: line.Size, Qty: line.Qty}
	}

	var (
		touched []ReservedLine
		order   *models.Order
	)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := run.advance(ctx, StateReservingStock); err != nil {
			return err
		}
		reserved, err := ReserveStock(ctx, s.catalog.WithTx(tx), requests, s.cfg.StockCASAttempts)
		touched = reserved
		if err != nil {
			return err
		}

		if err := run.advance(ctx, StatePersistingOrder); err != nil {
			return err
		}
		createInput := orders.CreateInput{
			Channel:       input.Channel,
			CustomerName:  input.CustomerName,
			OperatorID:    input.OperatorID,
			ExternalRef:   input.ExternalRef,
			Subtotal:      totals.Subtotal,
			Tax:           totals.Tax,
			Total:         totals.Total,
			Tender:        settled.tender,
			PaymentStatus: settled.payment,
			PickupStatus:  settled.pickup,
			Lines:         make([]orders.LineInput, len(reserved)),
		}
		for i, r := range reserved {
			createInput.Lines[i] = orders.LineInput{
				ProductID:   r.ProductID,
				VariantID:   r.VariantID,
				ProductName: r.ProductName,
				Size:        r.Size,
				Qty:         r.Qty,
				UnitPrice:   lines[r.Line].UnitPrice,
			}
		}
		order, err = s.orders.Create(ctx, tx, createInput)
		return err
	})
	if err != nil {
		if pkgerrors.As(err) == nil {
			err = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "commit sale")
		}
		run.fail(ctx, err)
		if len(touched) > 0 {
			s.logRollback(ctx, touched, err)
		}
		return nil, err
	}

	if err := run.advance(ctx, StateCompleted); err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"order_code": order.Code,
		"total":      order.Total.StringFixed(2),
		"lines":      len(order.LineItems),
	}), "sale.completed")
	return resultFromOrder(order, false), nil
}

// validate checks the request shape and fills in catalog prices where the
// caller did not supply one.
func (s *service) validate(ctx context.Context, input SubmitInput) ([]cart.Line, error) {
	if !input.Channel.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown sale channel %q", input.Channel)
	}
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sale must contain at least one line")
	}
	if input.Channel == enums.SaleChannelOnline && input.ExternalRef == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "online sales require an external reference")
	}

	lines := make([]cart.Line, len(input.Lines))
	for i, in := range input.Lines {
		size := strings.TrimSpace(in.Size)
		req := LineRequest{Line: i, ProductID: in.ProductID, Size: size, Qty: in.Qty}
		switch {
		case in.ProductID == uuid.Nil:
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "line %d: product id required", i).WithDetails(lineDetails(req))
		case size == "":
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "line %d: size required", i).WithDetails(lineDetails(req))
		case in.Qty <= 0:
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "line %d: quantity must be positive", i).WithDetails(lineDetails(req))
		}

		var price decimal.Decimal
		if in.UnitPrice != nil {
			price = *in.UnitPrice
		} else {
			variant, _, err := s.catalog.FindVariant(ctx, catalog.VariantRef{ProductID: in.ProductID, Size: size})
			if err != nil {
				if db.IsNotFound(err) {
					return nil, variantNotFound(req)
				}
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load catalog price")
			}
			price = variant.Price
		}
		if price.IsNegative() {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "line %d: unit price cannot be negative", i).WithDetails(lineDetails(req))
		}
		lines[i] = cart.Line{ProductID: in.ProductID, Size: size, UnitPrice: tender.Round(price), Qty: in.Qty}
	}
	return lines, nil
}

func (s *service) logRollback(ctx context.Context, touched []ReservedLine, cause error) {
	rolled := make([]map[string]any, 0, len(touched))
	for _, line := range touched {
		rolled = append(rolled, map[string]any{
			"line":       line.Line,
			"variant_id": line.VariantID.String(),
			"qty":        line.Qty,
			"restored":   line.Before,
		})
	}
	s.logg.Error(s.logg.WithField(ctx, "touched_lines", rolled), "sale.rolled_back", cause)
}

func resultFromOrder(order *models.Order, replayed bool) *Result {
	return &Result{
		OrderID:  order.ID,
		Code:     order.Code,
		Channel:  order.Channel,
		Subtotal: order.Subtotal,
		Tax:      order.Tax,
		Total:    order.Total,
		Tender: tender.Breakdown{
			Mode:   order.TenderMode,
			Cash:   order.CashAmount,
			Card:   order.CardAmount,
			Change: order.ChangeDue,
		},
		PaymentStatus: order.PaymentStatus,
		PickupStatus:  order.PickupStatus,
		Replayed:      replayed,
	}
}
