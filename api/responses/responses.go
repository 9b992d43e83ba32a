package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	pkgerrors "github.com/angelmondragon/retailpos-backend/pkg/errors"
	"github.com/angelmondragon/retailpos-backend/pkg/logger"
	"github.com/angelmondragon/retailpos-backend/pkg/types"
)

func WriteSuccess(w http.ResponseWriter, data any) {
	WriteSuccessStatus(w, http.StatusOK, data)
}

func WriteSuccessStatus(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, types.SuccessEnvelope{Data: data})
}

func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	status, apiErr := resolveError(ctx, logg, err)
	writeJSON(w, status, types.ErrorEnvelope{Error: apiErr})
}

// WriteSaleError renders a failed sale with the terminal-facing success flag.
func WriteSaleError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	status, apiErr := resolveError(ctx, logg, err)
	writeJSON(w, status, types.SaleErrorEnvelope{
		Success: false,
		Message: apiErr.Message,
		Error:   apiErr,
	})
}

func resolveError(ctx context.Context, logg *logger.Logger, err error) (int, types.APIError) {
	if err == nil {
		err = errors.New("unknown error")
	}

	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}

	meta := pkgerrors.MetadataFor(typed.Code())
	msg := typed.PublicMessage()

	apiErr := types.APIError{
		Code:    string(typed.Code()),
		Message: msg,
	}
	if meta.DetailsAllowed {
		if details := typed.Details(); details != nil {
			apiErr.Details = details
		}
	}

	if logg != nil {
		fields := pkgerrors.Dump(err).LogFields()
		if d, ok := typed.Details().(map[string]any); ok {
			if line, ok := d["line"]; ok {
				fields["line"] = line
			}
		}

		ctx = logg.WithFields(ctx, fields)
		if meta.HTTPStatus >= http.StatusInternalServerError {
			logg.Error(ctx, "request.error", err)
		} else {
			logg.Warn(ctx, "request.rejected")
		}
	}

	return meta.HTTPStatus, apiErr
}

// writeJSON encodes before writing headers so an unencodable payload still
// yields a clean 500.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Int("status", status).Msg("response.encode_failed")
		status = http.StatusInternalServerError
		body = []byte(`{"error":{"code":"INTERNAL_ERROR","message":"internal server error"}}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}
