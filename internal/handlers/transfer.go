package handlers

import (
	ledgererrors "ledgerpay/internal/errors"
	"ledgerpay/internal/logger"
	"ledgerpay/internal/models"
	"ledgerpay/internal/services/transfer"
	"ledgerpay/internal/utils/response"
	"ledgerpay/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// TransferRequest is the body of POST /api/transactions/transfer.
type TransferRequest struct {
	FromUserID  string           `json:"fromUserId" validate:"required,max=64"`
	ToUserID    string           `json:"toUserId" validate:"required,max=64"`
	Amount      *decimal.Decimal `json:"amount" validate:"required"`
	Description string           `json:"description,omitempty" validate:"max=500"`
}

// TransferHandler exposes the transfer endpoint.
type TransferHandler struct {
	service transfer.Service
	log     *zap.Logger
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(s transfer.Service, log *zap.Logger) *TransferHandler {
	return &TransferHandler{service: s, log: logger.OrNop(log)}
}

// Transfer handles POST /api/transactions/transfer requests.
func (h *TransferHandler) Transfer(c *fiber.Ctx) error {
	var req TransferRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	v := validation.New()
	v.Struct(req)
	if !v.Valid() {
		return response.ValidationError(c, v.Errors)
	}

	// zero and negative amounts are rejected by the service
	if req.Amount.IsPositive() && !models.ValidAmount(*req.Amount) {
		return writeError(c, h.log, ledgererrors.ErrAmountOutOfRange)
	}

	if claims, ok := c.Locals("claims").(*models.CustomerClaims); ok && claims.CustomerID() != req.FromUserID {
		return response.Forbidden(c, "cannot transfer from another customer's account")
	}

	txID, err := h.service.Transfer(c.UserContext(), transfer.Request{
		FromCustomerID: req.FromUserID,
		ToCustomerID:   req.ToUserID,
		Amount:         *req.Amount,
		Description:    req.Description,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return response.Success(c, "Funds transferred successfully", fiber.Map{"transactionId": txID})
}
