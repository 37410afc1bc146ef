package helpers

import (
	"fmt"
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
)

// MaxPageLimit caps a single page of list results.
const MaxPageLimit = 100

// PaginationParams holds the parsed pagination parameters. A nil Limit means
// no limit was requested; an explicit zero asks for an empty page.
type PaginationParams struct {
	Offset int
	Limit  *int
}

// ParsePaginationParams parses ?offset=&limit= from the gin context.
// Negative values are rejected; limit is capped at MaxPageLimit.
func ParsePaginationParams(c *gin.Context) (PaginationParams, error) {
	var params PaginationParams

	if offsetStr := c.Query("offset"); offsetStr != "" {
		offset, err := SafeParseInt32(offsetStr)
		if err != nil {
			return params, fmt.Errorf("invalid offset parameter: %w", err)
		}
		if offset < 0 {
			return params, fmt.Errorf("invalid offset parameter: must not be negative")
		}
		params.Offset = int(offset)
	}

	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := SafeParseInt32(limitStr)
		if err != nil {
			return params, fmt.Errorf("invalid limit parameter: %w", err)
		}
		if limit < 0 {
			return params, fmt.Errorf("invalid limit parameter: must not be negative")
		}
		n := int(limit)
		if n > MaxPageLimit {
			n = MaxPageLimit
		}
		params.Limit = &n
	}

	return params, nil
}

// SafeParseInt32 safely parses a string to int32, checking for overflow
func SafeParseInt32(s string) (int32, error) {
	val, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}

	if val > math.MaxInt32 || val < math.MinInt32 {
		return 0, fmt.Errorf("value %d overflows int32", val)
	}

	return int32(val), nil
}
