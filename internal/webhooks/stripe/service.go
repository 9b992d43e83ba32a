package stripewebhook

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"

	"github.com/angelmondragon/retailpos-backend/internal/sales"
	"github.com/angelmondragon/retailpos-backend/internal/tender"
	"github.com/angelmondragon/retailpos-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/retailpos-backend/pkg/errors"
	"github.com/angelmondragon/retailpos-backend/pkg/logger"
)

// ItemsMetadataKey is the checkout session metadata field carrying the cart.
const ItemsMetadataKey = "items"

type saleSubmitter interface {
	Submit(ctx context.Context, input sales.SubmitInput) (*sales.Result, error)
}

// Service turns paid checkout sessions into online orders.
type Service struct {
	sales saleSubmitter
	logg  *logger.Logger
}

func NewService(salesSvc saleSubmitter, logg *logger.Logger) (*Service, error) {
	if salesSvc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "sales service required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{sales: salesSvc, logg: logg}, nil
}

// checkoutItem is one entry of the session's items metadata.
type checkoutItem struct {
	ProductID string `json:"product_id"`
	Size      string `json:"size"`
	Qty       int    `json:"qty"`
	UnitPrice string `json:"unit_price,omitempty"`
}

// HandleEvent acts on completed checkout sessions and acknowledges every
// other event type without side effects.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted, stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode checkout session")
		}
		return s.completeCheckout(ctx, &session)
	default:
		s.logg.Debug(s.logg.WithField(ctx, "event_type", string(event.Type)), "stripe.event_ignored")
		return nil
	}
}

func (s *Service) completeCheckout(ctx context.Context, session *stripe.CheckoutSession) error {
	ctx = s.logg.WithField(ctx, "checkout_session", session.ID)
	if session.ID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "checkout session id missing")
	}
	if session.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		s.logg.Info(s.logg.WithField(ctx, "payment_status", string(session.PaymentStatus)), "stripe.checkout_unpaid")
		return nil
	}

	lines, err := decodeItems(session.Metadata[ItemsMetadataKey])
	if err != nil {
		return err
	}
	customer := ""
	if session.CustomerDetails != nil {
		customer = session.CustomerDetails.Name
	}

	result, err := s.sales.Submit(ctx, sales.SubmitInput{
		Channel:      enums.SaleChannelOnline,
		Lines:        lines,
		Tender:       tender.Card{},
		CustomerName: customer,
		ExternalRef:  session.ID,
	})
	if err != nil {
		return err
	}
	s.checkAmount(ctx, session, result)
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"order_code": result.Code,
		"replayed":   result.Replayed,
	}), "stripe.checkout_recorded")
	return nil
}

// zeroDecimalCurrencies are charged in whole units rather than cents.
var zeroDecimalCurrencies = map[stripe.Currency]bool{
	"bif": true, "clp": true, "djf": true, "gnf": true, "jpy": true, "kmf": true,
	"krw": true, "mga": true, "pyg": true, "rwf": true, "ugx": true, "vnd": true,
	"vuv": true, "xaf": true, "xof": true, "xpf": true,
}

// sessionAmount converts the charged amount from minor units. ok is false
// when the session carries no amount.
func sessionAmount(session *stripe.CheckoutSession) (decimal.Decimal, bool) {
	if session.AmountTotal <= 0 {
		return decimal.Zero, false
	}
	exp := int32(-2)
	if zeroDecimalCurrencies[stripe.Currency(strings.ToLower(string(session.Currency)))] {
		exp = 0
	}
	return decimal.New(session.AmountTotal, exp), true
}

// checkAmount warns when the recomputed total differs from what the customer
// was charged. The order is kept either way.
func (s *Service) checkAmount(ctx context.Context, session *stripe.CheckoutSession, result *sales.Result) {
	charged, ok := sessionAmount(session)
	if !ok || charged.Equal(result.Total) {
		return
	}
	s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
		"order_code": result.Code,
		"charged":    charged.StringFixed(2),
		"recorded":   result.Total.StringFixed(2),
		"currency":   string(session.Currency),
	}), "stripe.amount_mismatch")
}

func decodeItems(raw string) ([]sales.LineInput, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout session has no items metadata")
	}
	var items []checkoutItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode items metadata")
	}
	lines := make([]sales.LineInput, 0, len(items))
	for i, item := range items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id in items metadata").
				WithDetails(map[string]any{"line": i})
		}
		line := sales.LineInput{ProductID: productID, Size: item.Size, Qty: item.Qty}
		if item.UnitPrice != "" {
			price, err := decimal.NewFromString(item.UnitPrice)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid unit price in items metadata").
					WithDetails(map[string]any{"line": i})
			}
			line.UnitPrice = &price
		}
		lines = append(lines, line)
	}
	return lines, nil
}
