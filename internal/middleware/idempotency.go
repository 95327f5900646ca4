package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const (
	CorrelationIDHeader = "X-Correlation-ID"
	ReplayHeader        = "X-Idempotent-Replay"
)

// IdempotencyMiddleware provides idempotency for POST/PATCH/PUT requests using X-Correlation-ID.
// If the same user repeats a correlation ID within the TTL, the stored response is returned
// without running the handler again.
func IdempotencyMiddleware(redisClient *redis.Client, ttl time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Only apply to mutating methods
		if c.Method() != fiber.MethodPost && c.Method() != fiber.MethodPatch && c.Method() != fiber.MethodPut {
			return c.Next()
		}

		correlationID := c.Get(CorrelationIDHeader)
		if correlationID == "" {
			// No correlation ID = no idempotency check
			return c.Next()
		}

		userID, _ := c.Locals(UserIDKey).(string)
		key := fmt.Sprintf("idempotency:%s:%s", userID, correlationID)
		ctx := c.UserContext()

		// Check if we have a cached response
		cached, err := redisClient.HGetAll(ctx, key).Result()
		if err == nil && cached["body"] != "" {
			status, convErr := strconv.Atoi(cached["status"])
			if convErr != nil {
				status = fiber.StatusOK
			}
			c.Set(ReplayHeader, "true")
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			return c.Status(status).SendString(cached["body"])
		}

		// Process the request
		if err := c.Next(); err != nil {
			return err
		}

		// Cache successful responses (2xx status codes)
		statusCode := c.Response().StatusCode()
		if statusCode >= 200 && statusCode < 300 {
			// fasthttp reuses the response buffer once the handler returns
			body := string(c.Response().Body())
			if body != "" {
				setCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				pipe := redisClient.TxPipeline()
				pipe.HSet(setCtx, key, "status", statusCode, "body", body)
				pipe.Expire(setCtx, key, ttl)
				_, _ = pipe.Exec(setCtx)
			}
		}

		return nil
	}
}
