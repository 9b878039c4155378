package utils

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// Pagination holds the limit/offset window of a list request.
type Pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// GetPagination extracts limit and offset from the query parameters. A
// missing or malformed value falls back to its default; upper bounds are
// enforced by the store options.
func GetPagination(c *fiber.Ctx, defaultLimit int) Pagination {
	limit, err := strconv.Atoi(c.Query("limit", strconv.Itoa(defaultLimit)))
	if err != nil || limit < 1 {
		limit = defaultLimit
	}

	offset, err := strconv.Atoi(c.Query("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	return Pagination{Limit: limit, Offset: offset}
}
