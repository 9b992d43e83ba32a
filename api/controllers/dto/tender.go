package dto

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/retailpos-backend/internal/tender"
	pkgerrors "github.com/angelmondragon/retailpos-backend/pkg/errors"
)

// TenderRequest is how terminals describe payment. Amounts are decimal strings.
type TenderRequest struct {
	Mode         string `json:"mode" validate:"required,oneof=cash card split"`
	CashReceived string `json:"cash_received,omitempty" validate:"omitempty,money"`
	CardAmount   string `json:"card_amount,omitempty" validate:"omitempty,money"`
}

// ToTender converts the request into a tender value. A nil request yields nil.
func (t *TenderRequest) ToTender() (tender.Tender, error) {
	if t == nil {
		return nil, nil
	}
	cash, err := ParseMoney(t.CashReceived, "tender.cash_received")
	if err != nil {
		return nil, err
	}
	card, err := ParseMoney(t.CardAmount, "tender.card_amount")
	if err != nil {
		return nil, err
	}
	return tender.Parse(t.Mode, cash, card)
}

// ParseMoney reads an optional decimal string; empty means zero.
func ParseMoney(raw, field string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid amount").
			WithDetails(map[string]any{"field": field})
	}
	return value, nil
}

// BreakdownDTO renders a settled tender.
type BreakdownDTO struct {
	Mode   string `json:"mode"`
	Cash   string `json:"cash"`
	Card   string `json:"card"`
	Change string `json:"change"`
}

func NewBreakdown(b tender.Breakdown) BreakdownDTO {
	return BreakdownDTO{
		Mode:   string(b.Mode),
		Cash:   b.Cash.StringFixed(2),
		Card:   b.Card.StringFixed(2),
		Change: b.Change.StringFixed(2),
	}
}
