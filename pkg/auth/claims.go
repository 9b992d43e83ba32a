package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/retailpos-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	OperatorID uuid.UUID
	Role       enums.OperatorRole
	JTI        string
}

// AccessTokenClaims represents the typed JWT carried by POS terminals and admin tools.
type AccessTokenClaims struct {
	OperatorID uuid.UUID          `json:"operator_id"`
	Role       enums.OperatorRole `json:"role"`
	jwt.RegisteredClaims
}
