// Package pagination parses the page/limit query parameters shared by the
// moderation queue, audit log and connection-request listings.
package pagination

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params is a validated page request. Offset is precomputed because the
// repositories feed it straight into the query.
type Params struct {
	Page   int
	Limit  int
	Offset int
}

// Parse reads and clamps page/limit from the query string. Anything
// non-numeric, zero or negative falls back to the defaults; limit is
// capped so a single call cannot drag the whole table.
func Parse(c *gin.Context) Params {
	page, _ := strconv.Atoi(c.DefaultQuery("page", strconv.Itoa(DefaultPage)))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(DefaultLimit)))

	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	} else if limit > MaxLimit {
		limit = MaxLimit
	}

	return Params{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
}
