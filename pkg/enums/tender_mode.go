package enums

import (
	"fmt"
	"strings"
)

// TenderMode is the payment instrument mix used to settle an order.
type TenderMode string

const (
	TenderModeNone  TenderMode = "none"
	TenderModeCash  TenderMode = "cash"
	TenderModeCard  TenderMode = "card"
	TenderModeSplit TenderMode = "split"
)

var validTenderModes = []TenderMode{
	TenderModeNone,
	TenderModeCash,
	TenderModeCard,
	TenderModeSplit,
}

// String implements fmt.Stringer.
func (m TenderMode) String() string {
	return string(m)
}

// IsValid reports whether the value is a known TenderMode.
func (m TenderMode) IsValid() bool {
	for _, candidate := range validTenderModes {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseTenderMode accepts the mode case-insensitively.
func ParseTenderMode(value string) (TenderMode, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validTenderModes {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid tender mode %q", value)
}
