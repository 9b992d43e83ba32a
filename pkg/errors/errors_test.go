package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, publicMsg: "authentication required"},
		{code: CodeForbidden, status: http.StatusForbidden, publicMsg: "access denied"},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found", detailsOK: true},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected", retryable: true},
		{code: CodeInsufficientStock, status: http.StatusConflict, publicMsg: "insufficient stock", detailsOK: true},
		{code: CodeStateConflict, status: http.StatusUnprocessableEntity, publicMsg: "state transition disallowed", detailsOK: true},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true, detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestPublicMessageHidesServerFaults(t *testing.T) {
	if got := New(CodeNotFound, "order ABCDEF not found").PublicMessage(); got != "order ABCDEF not found" {
		t.Fatalf("expected caller message exposed, got %q", got)
	}
	if got := New(CodeValidation, "").PublicMessage(); got != "validation failed" {
		t.Fatalf("expected fallback public message, got %q", got)
	}
	if got := Wrap(CodeInternal, fmt.Errorf("pq: deadlock"), "commit sale").PublicMessage(); got != "internal server error" {
		t.Fatalf("expected internal detail hidden, got %q", got)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := Newf(CodeValidation, "line %d: qty must be positive", 2)
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "line 2: qty must be positive" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	base.WithDetails(map[string]any{"line": 2})
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeConflict, cause, "reserve stock")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Error() != "CONFLICT: reserve stock: boom" {
		t.Fatalf("unexpected error string %q", wrapped.Error())
	}
}

func TestCodeHelpersWalkTheChain(t *testing.T) {
	err := fmt.Errorf("submit: %w", New(CodeInsufficientStock, "not enough"))
	if !IsCode(err, CodeInsufficientStock) {
		t.Fatalf("IsCode should find the wrapped code")
	}
	if IsCode(err, CodeNotFound) {
		t.Fatalf("IsCode matched the wrong code")
	}
	if CodeOf(err) != CodeInsufficientStock {
		t.Fatalf("unexpected CodeOf %s", CodeOf(err))
	}
	if CodeOf(stdErrors.New("plain")) != CodeInternal {
		t.Fatalf("untyped errors should map to internal")
	}
}

func TestAsReturnsTypedError(t *testing.T) {
	err := New(CodeForbidden, "no entry")
	if got := As(err); got == nil || got.Code() != CodeForbidden {
		t.Fatalf("As failed to return typed error")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
}

func TestDumpCapturesChain(t *testing.T) {
	err := Wrap(CodeInternal, stdErrors.New("disk"), "persist order")
	d := Dump(err)
	if d.Code != CodeInternal {
		t.Fatalf("unexpected dump code %s", d.Code)
	}
	if len(d.Chain) != 2 {
		t.Fatalf("expected two chain entries, got %d", len(d.Chain))
	}
	if d.Postgres != nil {
		t.Fatalf("plain errors carry no postgres detail")
	}
	if _, ok := d.LogFields()["pg_code"]; ok {
		t.Fatalf("pg fields should be omitted without a postgres error")
	}
}

func TestDumpReadsPostgresErrors(t *testing.T) {
	err := Wrap(CodeConflict, &pgconn.PgError{Code: "23505", ConstraintName: "orders_code_key", TableName: "orders"}, "insert order")
	d := Dump(err)
	if d.Postgres == nil || d.Postgres.Code != "23505" {
		t.Fatalf("expected unique violation detail, got %+v", d.Postgres)
	}
	if got := d.LogFields()["pg_constraint"]; got != "orders_code_key" {
		t.Fatalf("unexpected constraint field %v", got)
	}

	d = Dump(fmt.Errorf("migrate: %w", &pq.Error{Code: "42P01", Table: "orders"}))
	if d.Postgres == nil || d.Postgres.Code != "42P01" || d.Postgres.Table != "orders" {
		t.Fatalf("expected lib/pq detail, got %+v", d.Postgres)
	}
}
