package handlers

import (
	"fmt"
	"time"

	"ledgerpay/internal/logger"
	"ledgerpay/internal/models"
	"ledgerpay/internal/repositories/options"
	"ledgerpay/internal/services/account"
	"ledgerpay/internal/utils"
	"ledgerpay/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AccountHandler serves the account read side.
type AccountHandler struct {
	service account.Service
	log     *zap.Logger
}

func NewAccountHandler(s account.Service, log *zap.Logger) *AccountHandler {
	return &AccountHandler{service: s, log: logger.OrNop(log)}
}

// GetAccount handles GET /api/accounts/:customerId.
func (h *AccountHandler) GetAccount(c *fiber.Ctx) error {
	customerID := c.Params("customerId")
	if !ownsAccount(c, customerID) {
		return response.Forbidden(c, "cannot read another customer's account")
	}

	snap, err := h.service.Get(c.UserContext(), customerID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return response.Success(c, "Account retrieved successfully", snap)
}

// ListTransactions handles GET /api/accounts/:customerId/transactions.
func (h *AccountHandler) ListTransactions(c *fiber.Ctx) error {
	customerID := c.Params("customerId")
	if !ownsAccount(c, customerID) {
		return response.Forbidden(c, "cannot read another customer's account")
	}

	opt, page, err := historyOptions(c)
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	entries, err := h.service.History(c.UserContext(), customerID, opt)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return response.Success(c, "Transactions retrieved successfully", fiber.Map{
		"transactions": entries,
		"pagination":   page,
	})
}

func ownsAccount(c *fiber.Ctx, customerID string) bool {
	claims, ok := c.Locals("claims").(*models.CustomerClaims)
	return !ok || claims.CustomerID() == customerID
}

func historyOptions(c *fiber.Ctx) (*options.LedgerOptions, utils.Pagination, error) {
	page := utils.GetPagination(c, options.DefaultLimit)
	opt := options.NewLedgerOptions().SetPage(page.Limit, page.Offset)

	from, err := queryTime(c, "from")
	if err != nil {
		return nil, page, err
	}
	to, err := queryTime(c, "to")
	if err != nil {
		return nil, page, err
	}
	if from != nil || to != nil {
		opt.SetTimeRange(&options.TimeRange{Low: from, High: to})
	}

	low, err := queryAmount(c, "minAmount")
	if err != nil {
		return nil, page, err
	}
	high, err := queryAmount(c, "maxAmount")
	if err != nil {
		return nil, page, err
	}
	if low != nil || high != nil {
		opt.SetAmountRange(&options.DecimalRange{Low: low, High: high})
	}

	return opt, page, nil
}

func queryTime(c *fiber.Ctx, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be an RFC3339 timestamp", key)
	}
	return &t, nil
}

func queryAmount(c *fiber.Ctx, key string) (*decimal.Decimal, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || d.IsNegative() {
		return nil, fmt.Errorf("%s must be a non-negative decimal", key)
	}
	return &d, nil
}
