package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/retailpos-backend/internal/tender"
	"github.com/angelmondragon/retailpos-backend/pkg/db"
	"github.com/angelmondragon/retailpos-backend/pkg/db/models"
	"github.com/angelmondragon/retailpos-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/retailpos-backend/pkg/errors"
	"github.com/angelmondragon/retailpos-backend/pkg/logger"
	"github.com/angelmondragon/retailpos-backend/pkg/outbox"
	"github.com/angelmondragon/retailpos-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/retailpos-backend/pkg/pagination"
)

const maxCodeAttempts = 8

// Service persists completed sales and runs the admin order actions.
type Service interface {
	Create(ctx context.Context, tx *gorm.DB, input CreateInput) (*models.Order, error)
	FindByExternalRef(ctx context.Context, ref string) (*models.Order, error)
	GetByCode(ctx context.Context, code string) (*OrderDTO, error)
	List(ctx context.Context, filters ListFilters, params pagination.Params) (*OrderList, error)
	CompletePickup(ctx context.Context, code string, input PickupInput) (*OrderDTO, error)
}

// CreateInput is everything the sale pipeline has settled for one order.
type CreateInput struct {
	Channel       enums.SaleChannel
	CustomerName  string
	OperatorID    *uuid.UUID
	ExternalRef   string
	Subtotal      decimal.Decimal
	Tax           decimal.Decimal
	Total         decimal.Decimal
	Tender        tender.Breakdown
	PaymentStatus enums.PaymentStatus
	PickupStatus  enums.PickupStatus
	Lines         []LineInput
}

type LineInput struct {
	ProductID   uuid.UUID
	VariantID   uuid.UUID
	ProductName string
	Size        string
	Qty         int
	UnitPrice   decimal.Decimal
}

// PickupInput settles a pickup. Tender is required only for unpaid orders.
type PickupInput struct {
	OperatorID *uuid.UUID
	Tender     tender.Tender
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type codeSource interface {
	Generate() (string, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxEmitter
	codes  codeSource
	logg   *logger.Logger
	now    func() time.Time
}

// NewService wires the order service.
func NewService(repo Repository, tx txRunner, emitter outboxEmitter, codes codeSource, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if codes == nil {
		return nil, fmt.Errorf("code generator required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:   repo,
		tx:     tx,
		outbox: emitter,
		codes:  codes,
		logg:   logg,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

// Create writes the order inside tx and queues its order.created event.
func (s *service) Create(ctx context.Context, tx *gorm.DB, input CreateInput) (*models.Order, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order persistence requires a transaction")
	}
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one line")
	}
	repo := s.repo.WithTx(tx)

	code, err := s.uniqueCode(ctx, repo)
	if err != nil {
		return nil, err
	}

	now := s.now()
	order := &models.Order{
		Code:          code,
		Channel:       input.Channel,
		CustomerName:  optionalString(input.CustomerName),
		OperatorID:    input.OperatorID,
		ExternalRef:   optionalString(input.ExternalRef),
		Subtotal:      input.Subtotal,
		Tax:           input.Tax,
		Total:         input.Total,
		TenderMode:    input.Tender.Mode,
		CashAmount:    input.Tender.Cash,
		CardAmount:    input.Tender.Card,
		ChangeDue:     input.Tender.Change,
		PaymentStatus: input.PaymentStatus,
		PickupStatus:  input.PickupStatus,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if input.PickupStatus == enums.PickupStatusPickedUp {
		order.PickedUpAt = &now
	}
	for i, line := range input.Lines {
		order.LineItems = append(order.LineItems, models.OrderLineItem{
			Position:    i,
			ProductID:   line.ProductID,
			VariantID:   line.VariantID,
			ProductName: line.ProductName,
			Size:        line.Size,
			Qty:         line.Qty,
			UnitPrice:   line.UnitPrice,
			LineTotal:   tender.Round(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Qty)))),
		})
	}

	if err := repo.Create(ctx, order); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "order already recorded")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order")
	}

	if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         &outbox.Actor{OperatorID: input.OperatorID, Source: input.Channel.String()},
		Data:          orderCreatedPayload(order),
		OccurredAt:    now,
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "queue order event")
	}
	return order, nil
}

func (s *service) uniqueCode(ctx context.Context, repo Repository) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := s.codes.Generate()
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate order code")
		}
		taken, err := repo.CodeExists(ctx, code)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check order code")
		}
		if !taken {
			return code, nil
		}
		s.logg.Warn(s.logg.WithField(ctx, "order_code", code), "orders.code_collision")
	}
	return "", pkgerrors.New(pkgerrors.CodeConflict, "could not allocate a unique order code")
}

func orderCreatedPayload(order *models.Order) payloads.OrderCreatedEvent {
	event := payloads.OrderCreatedEvent{
		OrderID:       order.ID,
		Code:          order.Code,
		Channel:       order.Channel,
		Total:         order.Total.StringFixed(2),
		TenderMode:    order.TenderMode,
		PaymentStatus: order.PaymentStatus,
		PickupStatus:  order.PickupStatus,
		Lines:         make([]payloads.OrderLine, 0, len(order.LineItems)),
	}
	for _, li := range order.LineItems {
		event.Lines = append(event.Lines, payloads.OrderLine{
			ProductID: li.ProductID,
			VariantID: li.VariantID,
			Size:      li.Size,
			Qty:       li.Qty,
			UnitPrice: li.UnitPrice.StringFixed(2),
		})
	}
	return event
}

func (s *service) FindByExternalRef(ctx context.Context, ref string) (*models.Order, error) {
	order, err := s.repo.FindByExternalRef(ctx, ref)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order by external ref")
	}
	return order, nil
}

func (s *service) GetByCode(ctx context.Context, code string) (*OrderDTO, error) {
	order, err := s.repo.FindByCode(ctx, normalizeCode(code))
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	dto := FromModel(*order)
	return &dto, nil
}

func (s *service) List(ctx context.Context, filters ListFilters, params pagination.Params) (*OrderList, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, filters, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	page, next := pagination.Page(rows, params.Limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
	out := &OrderList{Orders: make([]OrderDTO, 0, len(page)), NextCursor: next}
	for _, o := range page {
		out.Orders = append(out.Orders, FromModel(o))
	}
	return out, nil
}

// CompletePickup marks an order picked up. An unpaid reservation is settled by
// the supplied tender in the same transaction.
func (s *service) CompletePickup(ctx context.Context, code string, input PickupInput) (*OrderDTO, error) {
	code = normalizeCode(code)
	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByCode(ctx, code)
		if err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.PickupStatus == enums.PickupStatusPickedUp {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order already picked up").
				WithDetails(map[string]any{"code": order.Code, "pickup_status": order.PickupStatus})
		}

		now := s.now()
		updates := map[string]any{"picked_up_at": now}
		switch {
		case order.PaymentStatus == enums.PaymentStatusUnpaid && input.Tender == nil:
			return pkgerrors.New(pkgerrors.CodeValidation, "tender is required to collect an unpaid order")
		case order.PaymentStatus == enums.PaymentStatusUnpaid:
			breakdown, err := tender.Compute(order.Total, input.Tender)
			if err != nil {
				return err
			}
			updates["payment_status"] = enums.PaymentStatusPaid
			updates["tender_mode"] = breakdown.Mode
			updates["cash_amount"] = breakdown.Cash
			updates["card_amount"] = breakdown.Card
			updates["change_due"] = breakdown.Change
		case input.Tender != nil:
			return pkgerrors.New(pkgerrors.CodeValidation, "order is already paid")
		}
		if input.OperatorID != nil && order.OperatorID == nil {
			updates["operator_id"] = *input.OperatorID
		}

		ok, err := repo.MarkPickedUp(ctx, order.ID, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark picked up")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order already picked up")
		}

		reloaded, err := repo.FindByCode(ctx, code)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}
		updated = reloaded

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPickedUp,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.Actor{OperatorID: input.OperatorID, Role: enums.OperatorRoleAdmin.String()},
			Data: payloads.OrderPickedUpEvent{
				OrderID:       order.ID,
				Code:          order.Code,
				PaymentStatus: reloaded.PaymentStatus,
			},
			OccurredAt: now,
		})
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "complete pickup")
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"order_code":     updated.Code,
		"payment_status": updated.PaymentStatus,
	}), "orders.picked_up")

	dto := FromModel(*updated)
	return &dto, nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func optionalString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
