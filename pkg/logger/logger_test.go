package logger

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerErrorIncludesContextFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: ParseLevel("debug"), Output: buf})

	ctx := log.WithRequestID(context.Background(), "req-123")
	ctx = log.WithFields(ctx, map[string]any{"order_code": "ABCDEF"})

	log.Error(ctx, "boom", errors.New("boom"))

	out := buf.String()
	assert.Contains(t, out, `"request_id":"req-123"`)
	assert.Contains(t, out, `"order_code":"ABCDEF"`)
	assert.Contains(t, out, `"stack"`)
	assert.Contains(t, out, `"service":"test"`)
}

func TestLoggerWarnStackToggle(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: ParseLevel("debug"), Output: buf, WarnStack: true})
	log.Warn(context.Background(), "warny")
	assert.Contains(t, buf.String(), `"stack"`)

	buf.Reset()
	quiet := New(Options{ServiceName: "test", Output: buf})
	quiet.Warn(context.Background(), "warny")
	assert.NotContains(t, buf.String(), `"stack"`)
}

func TestLoggerRespectsLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: zerolog.WarnLevel, Output: buf})
	log.Info(context.Background(), "hidden")
	require.Empty(t, buf.String())
}

func TestParseLevelDefaults(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("invalid"))
	assert.Equal(t, zerolog.DebugLevel, ParseLevel(" DEBUG "))
}

func TestLoggerWithOperatorAndNestedFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Output: buf})

	ctx := log.WithOperator(context.Background(), "op-1", "cashier")
	ctx = log.WithField(ctx, "cart_id", "c-9")
	log.Info(ctx, "line added")

	out := buf.String()
	assert.Contains(t, out, `"operator_id":"op-1"`)
	assert.Contains(t, out, `"operator_role":"cashier"`)
	assert.Contains(t, out, `"cart_id":"c-9"`)

	buf.Reset()
	log.Info(context.Background(), "plain")
	assert.NotContains(t, buf.String(), "operator_id")
}

func TestNopDiscards(t *testing.T) {
	log := Nop()
	ctx := log.WithRequestID(context.Background(), "req-1")
	log.Error(ctx, "ignored", errors.New("x"))
}
