package utils

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ParseLimit reads the limit query parameter. A missing limit yields
// defaultLimit, a limit above maxLimit is capped, anything that is not a
// positive integer is an error.
func ParseLimit(c *gin.Context, defaultLimit int, maxLimit int) (int, error) {
	raw, ok := c.GetQuery("limit")
	if !ok || raw == "" {
		return defaultLimit, nil
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return 0, fmt.Errorf("limit must be a positive integer, got %q", raw)
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return limit, nil
}

// SendErrorResponse sends a standardized error response
func SendErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{"error": message})
}
