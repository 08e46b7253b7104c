package server

import (
	"errors"

	"syntrabook/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+param))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// Pagination holds parsed page/limit query parameters. The feed and the
// report docket paginate by page number, not offset.
type Pagination struct {
	Page  int
	Limit int
}

const maxPaginationLimit = 100

// parsePagination extracts page and limit query parameters with the given
// default limit. Out-of-range values are clamped, never rejected.
func parsePagination(c *fiber.Ctx, defaultLimit int) Pagination {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit := c.QueryInt("limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxPaginationLimit {
		limit = maxPaginationLimit
	}
	return Pagination{Page: page, Limit: limit}
}

// offsetPagination converts page-based pagination to a limit/offset pair
// for repositories that page by offset.
func offsetPagination(c *fiber.Ctx, defaultLimit int) (limit, offset int) {
	p := parsePagination(c, defaultLimit)
	return p.Limit, (p.Page - 1) * p.Limit
}
