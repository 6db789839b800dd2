package middleware

import (
	"fmt"
	"log"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"catalog-api/helpers"
)

// DefaultRate allows 100 requests per client IP every 15 minutes.
const DefaultRate = "100-15M"

// NewRateLimiter builds an in-memory limiter from a formatted rate such as
// "100-15M" (requests-period).
func NewRateLimiter(formatted string) (*limiter.Limiter, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, fmt.Errorf("parse rate %q: %w", formatted, err)
	}
	return limiter.New(memory.NewStore(), rate), nil
}

// RateLimit counts requests per client IP and answers 429 once the window
// is exhausted. A failing store lets the request through.
func RateLimit(l *limiter.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		state, err := l.Get(c.Request.Context(), c.ClientIP())
		if err != nil {
			log.Println("rate limiter unavailable:", err)
			c.Next()
			return
		}
		c.Header("X-RateLimit-Limit", strconv.FormatInt(state.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(state.Remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(state.Reset, 10))
		if state.Reached {
			helpers.Fail(c, helpers.NewError(helpers.KindRateLimited, "Too many requests from this IP, please try again later."))
			return
		}
		c.Next()
	}
}
