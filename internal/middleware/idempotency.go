package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/13x54n/lypto-sub001/internal/interfaces"
	"github.com/13x54n/lypto-sub001/internal/payments"
)

// IdempotencyMiddleware replays the original creation response when a
// merchant retries create-payment with the same Idempotency-Key. The
// key is optional; without one every request creates a new payment.
func IdempotencyMiddleware(redisClient *redis.Client, paymentRepo interfaces.PaymentRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("Idempotency-Key")
		if key == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()

		// Check Redis cache
		if redisClient != nil {
			cached, err := redisClient.Get(ctx, fmt.Sprintf("idempotency:%s", key)).Result()
			if err == nil {
				var payment payments.Payment
				if err := json.Unmarshal([]byte(cached), &payment); err == nil {
					c.JSON(http.StatusOK, gin.H{"success": true, "paymentId": payment.ID})
					c.Abort()
					return
				}
			}
		}

		// Check the store
		payment, err := paymentRepo.GetByIdempotencyKey(ctx, key)
		if err == nil && payment != nil {
			c.JSON(http.StatusOK, gin.H{"success": true, "paymentId": payment.ID})
			c.Abort()
			return
		}

		c.Set("idempotency_key", key)
		c.Next()
	}
}
