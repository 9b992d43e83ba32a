package types

type SuccessEnvelope struct {
	Data any `json:"data"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// SaleOutcome is the body POS terminals read after submitting a sale.
type SaleOutcome struct {
	Success     bool   `json:"success"`
	OrderNumber string `json:"orderNumber,omitempty"`
	Message     string `json:"message,omitempty"`
	Order       any    `json:"order,omitempty"`
}

// SaleErrorEnvelope carries the coded error next to the terminal-facing outcome.
type SaleErrorEnvelope struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Error   APIError `json:"error"`
}
