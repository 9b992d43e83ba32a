package sales

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/retailpos-backend/api/controllers/dto"
	"github.com/angelmondragon/retailpos-backend/api/middleware"
	"github.com/angelmondragon/retailpos-backend/api/responses"
	"github.com/angelmondragon/retailpos-backend/api/validators"
	"github.com/angelmondragon/retailpos-backend/internal/cart"
	salessvc "github.com/angelmondragon/retailpos-backend/internal/sales"
	"github.com/angelmondragon/retailpos-backend/internal/tender"
	"github.com/angelmondragon/retailpos-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/retailpos-backend/pkg/errors"
	"github.com/angelmondragon/retailpos-backend/pkg/logger"
)

const customerNameMaxLen = 120

// Submit runs a register sale and answers with the sale outcome.
func Submit(svc salessvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteSaleError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sales service unavailable"))
			return
		}

		var payload SubmitSaleRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteSaleError(ctx, logg, w, err)
			return
		}
		lines, err := dto.ToLineInputs(payload.Lines)
		if err != nil {
			responses.WriteSaleError(ctx, logg, w, err)
			return
		}
		offered, err := payload.Tender.ToTender()
		if err != nil {
			responses.WriteSaleError(ctx, logg, w, err)
			return
		}

		input := salessvc.SubmitInput{
			Channel:      enums.SaleChannelPOS,
			Lines:        lines,
			Tender:       offered,
			CustomerName: validators.SanitizeString(payload.CustomerName, customerNameMaxLen),
		}
		if operatorID, ok := middleware.OperatorIDFromContext(ctx); ok {
			input.OperatorID = &operatorID
		}

		result, err := svc.Submit(ctx, input)
		if err != nil {
			responses.WriteSaleError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto.NewSaleOutcome(result, "sale completed"))
	}
}

// Reserve holds stock for a customer who pays at pickup.
func Reserve(svc salessvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteSaleError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sales service unavailable"))
			return
		}

		var payload ReservationRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteSaleError(ctx, logg, w, err)
			return
		}
		lines, err := dto.ToLineInputs(payload.Lines)
		if err != nil {
			responses.WriteSaleError(ctx, logg, w, err)
			return
		}

		result, err := svc.Submit(ctx, salessvc.SubmitInput{
			Channel:      enums.SaleChannelReservation,
			Lines:        lines,
			CustomerName: validators.SanitizeString(payload.CustomerName, customerNameMaxLen),
		})
		if err != nil {
			responses.WriteSaleError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto.NewSaleOutcome(result, "reservation created; pay at pickup"))
	}
}

// Quote prices a basket and checks a tender without touching stock.
func Quote(taxRate decimal.Decimal, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var payload QuoteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		lines := make([]cart.Line, 0, len(payload.Lines))
		for _, line := range payload.Lines {
			price, err := dto.ParseMoney(line.UnitPrice, "lines.unit_price")
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			lines = append(lines, cart.Line{UnitPrice: price, Qty: line.Qty})
		}
		totals := cart.Compute(lines, taxRate)

		resp := QuoteResponse{
			Subtotal:      totals.Subtotal.StringFixed(2),
			Tax:           totals.Tax.StringFixed(2),
			Total:         totals.Total.StringFixed(2),
			CardRemainder: totals.Total.StringFixed(2),
		}

		if payload.Tender != nil {
			offered, err := payload.Tender.ToTender()
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			if split, ok := offered.(tender.Split); ok {
				remainder := tender.SplitRemainder(totals.Total, split.Cash)
				resp.CardRemainder = remainder.StringFixed(2)
				if payload.Tender.CardAmount == "" {
					offered = tender.Split{Cash: split.Cash, Card: remainder}
				}
			}
			breakdown, err := tender.Compute(totals.Total, offered)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			settled := dto.NewBreakdown(breakdown)
			resp.Tender = &settled
			if breakdown.Mode != enums.TenderModeSplit {
				resp.CardRemainder = breakdown.Card.StringFixed(2)
			}
		}

		responses.WriteSuccess(w, resp)
	}
}
