// Package tender computes how a sale total is covered by cash, card, or both.
package tender

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/retailpos-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/retailpos-backend/pkg/errors"
)

// SplitEpsilon is how far cash plus card may drift from the total in split mode.
var SplitEpsilon = decimal.New(1, -2)

// Tender is one of Cash, Card or Split.
type Tender interface {
	Mode() enums.TenderMode
	isTender()
}

// Cash is paid entirely in cash; Received may exceed the total.
type Cash struct {
	Received decimal.Decimal
}

// Card charges exactly the total to a card.
type Card struct{}

// Split divides the total between cash and card with no change given.
type Split struct {
	Cash decimal.Decimal
	Card decimal.Decimal
}

func (Cash) Mode() enums.TenderMode  { return enums.TenderModeCash }
func (Card) Mode() enums.TenderMode  { return enums.TenderModeCard }
func (Split) Mode() enums.TenderMode { return enums.TenderModeSplit }

func (Cash) isTender()  {}
func (Card) isTender()  {}
func (Split) isTender() {}

// Breakdown is the settled tender recorded on an order.
type Breakdown struct {
	Mode   enums.TenderMode
	Cash   decimal.Decimal
	Card   decimal.Decimal
	Change decimal.Decimal
}

// None is the breakdown of an order that has not been paid yet.
func None() Breakdown {
	return Breakdown{Mode: enums.TenderModeNone}
}

// Round rounds to cents, half away from zero.
func Round(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}

// Compute validates the tender against total and derives the breakdown.
func Compute(total decimal.Decimal, t Tender) (Breakdown, error) {
	total = Round(total)
	if total.IsNegative() {
		return Breakdown{}, pkgerrors.New(pkgerrors.CodeValidation, "total cannot be negative")
	}

	switch v := t.(type) {
	case Cash:
		if v.Received.IsNegative() {
			return Breakdown{}, pkgerrors.New(pkgerrors.CodeValidation, "cash received cannot be negative")
		}
		// Coverage is judged on the amount as given, before rounding.
		if v.Received.LessThan(total) {
			return Breakdown{}, pkgerrors.Newf(pkgerrors.CodeValidation,
				"cash received %s does not cover total %s", v.Received.String(), total.StringFixed(2))
		}
		received := Round(v.Received)
		return Breakdown{
			Mode:   enums.TenderModeCash,
			Cash:   received,
			Card:   decimal.Zero,
			Change: Round(v.Received.Sub(total)),
		}, nil

	case Card:
		return Breakdown{
			Mode:   enums.TenderModeCard,
			Cash:   decimal.Zero,
			Card:   total,
			Change: decimal.Zero,
		}, nil

	case Split:
		if v.Cash.IsNegative() || v.Card.IsNegative() {
			return Breakdown{}, pkgerrors.New(pkgerrors.CodeValidation, "split amounts cannot be negative")
		}
		if v.Cash.Add(v.Card).Sub(total).Abs().GreaterThan(SplitEpsilon) {
			return Breakdown{}, pkgerrors.Newf(pkgerrors.CodeValidation,
				"cash %s plus card %s must equal total %s", v.Cash.String(), v.Card.String(), total.StringFixed(2))
		}
		cash := Round(v.Cash)
		card := Round(v.Card)
		return Breakdown{
			Mode:   enums.TenderModeSplit,
			Cash:   cash,
			Card:   card,
			Change: decimal.Zero,
		}, nil

	case nil:
		return Breakdown{}, pkgerrors.New(pkgerrors.CodeValidation, "tender is required")
	default:
		return Breakdown{}, pkgerrors.Newf(pkgerrors.CodeValidation, "unsupported tender %T", t)
	}
}

// SplitRemainder is the card portion left after cash is applied, never negative.
func SplitRemainder(total, cash decimal.Decimal) decimal.Decimal {
	remainder := Round(Round(total).Sub(Round(cash)))
	if remainder.IsNegative() {
		return decimal.Zero
	}
	return remainder
}

// Parse builds a Tender from loosely typed request fields.
func Parse(mode string, cashReceived, cardAmount decimal.Decimal) (Tender, error) {
	parsed, err := enums.ParseTenderMode(mode)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown tender mode")
	}
	switch parsed {
	case enums.TenderModeCash:
		return Cash{Received: cashReceived}, nil
	case enums.TenderModeCard:
		return Card{}, nil
	case enums.TenderModeSplit:
		return Split{Cash: cashReceived, Card: cardAmount}, nil
	default:
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "tender mode %q cannot settle a sale", parsed)
	}
}
