package handlers

import (
	ledgererrors "ledgerpay/internal/errors"
	"ledgerpay/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// statusFor maps an error kind to its HTTP status.
func statusFor(kind ledgererrors.Kind) int {
	switch {
	case kind == ledgererrors.KindAccountNotFound:
		return fiber.StatusNotFound
	case kind.IsCallerFault():
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// writeError renders err. Internal failures are logged and masked.
func writeError(c *fiber.Ctx, log *zap.Logger, err error) error {
	kind := ledgererrors.KindOf(err)
	status := statusFor(kind)
	if status == fiber.StatusInternalServerError {
		log.Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("kind", kind.String()),
			zap.Error(err))
		return response.Coded(c, status, kind.String(), "internal server error")
	}
	return response.Coded(c, status, kind.String(), err.Error())
}
