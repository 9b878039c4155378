// Package middleware provides HTTP middleware for the fiber app.
package middleware

import (
	"strings"

	"ledgerpay/internal/logger"
	"ledgerpay/internal/utils"
	"ledgerpay/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AuthMiddleware validates bearer tokens and stores the customer claims
// under the "claims" local.
type AuthMiddleware struct {
	secret string
	log    *zap.Logger
}

func NewAuthMiddleware(secret string, log *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{secret: secret, log: logger.OrNop(log)}
}

// Handler rejects requests without a valid HS256 token.
func (m *AuthMiddleware) Handler(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return response.Unauthorized(c, "missing authorization header")
	}

	if !strings.HasPrefix(authHeader, "Bearer ") {
		return response.Unauthorized(c, "invalid authorization format")
	}

	claims, err := utils.ParseToken(m.secret, strings.TrimPrefix(authHeader, "Bearer "))
	if err != nil {
		m.log.Debug("token rejected", zap.String("path", c.Path()), zap.Error(err))
		return response.Unauthorized(c, "invalid token")
	}

	c.Locals("claims", claims)
	c.Locals("customerID", claims.CustomerID())
	return c.Next()
}
