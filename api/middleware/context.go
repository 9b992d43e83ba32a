package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/angelmondragon/retailpos-backend/pkg/enums"
)

type contextKey string

const (
	ctxOperatorID contextKey = "operator_id"
	ctxRole       contextKey = "actor_role"
)

// OperatorIDFromContext returns the authenticated operator, if any.
func OperatorIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	if ctx == nil {
		return uuid.Nil, false
	}
	v, ok := ctx.Value(ctxOperatorID).(uuid.UUID)
	return v, ok && v != uuid.Nil
}

func RoleFromContext(ctx context.Context) enums.OperatorRole {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(enums.OperatorRole); ok {
		return v
	}
	return ""
}

// WithOperator injects the operator identity into the context.
func WithOperator(ctx context.Context, operatorID uuid.UUID, role enums.OperatorRole) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxOperatorID, operatorID)
	return context.WithValue(ctx, ctxRole, role)
}
