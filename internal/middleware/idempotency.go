package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const (
	idempotencyKeyHeader = "Idempotency-Key"
	idempotencyPrefix    = "idempotency:v1:"
	inProgressMarker     = "__in_progress__"
	redisOpTimeout       = 2 * time.Second
)

type cachedResponse struct {
	Status int    `json:"status"`
	Body   string `json:"body"`
}

// Idempotency replays the stored response for repeated unsafe requests that
// carry the same Idempotency-Key, so a retried deposit or transfer is applied
// to the ledger at most once.
func Idempotency(cache *redis.Client, ttl time.Duration, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		switch strings.ToUpper(c.Method()) {
		case fiber.MethodGet, fiber.MethodHead, fiber.MethodOptions:
			return c.Next()
		}

		key := c.Get(idempotencyKeyHeader)
		if key == "" {
			return fiber.NewError(fiber.StatusBadRequest, "missing Idempotency-Key header")
		}
		cacheKey := idempotencyPrefix + key

		ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
		defer cancel()

		// Reserve with SetNX before anything else. Exactly one of any set of
		// concurrent requests sharing a key wins the reservation; the rest read
		// back whatever the winner has stored so far.
		reserved, err := cache.SetNX(ctx, cacheKey, inProgressMarker, ttl).Result()
		if err != nil {
			logger.Error("idempotency reservation failed", slog.String("key", key), slog.Any("error", err))
			return fiber.NewError(fiber.StatusInternalServerError, "idempotency store failure")
		}
		if !reserved {
			stored, err := cache.Get(ctx, cacheKey).Result()
			switch {
			case err == redis.Nil:
				// Reservation expired between the SetNX and the read.
				return fiber.NewError(fiber.StatusConflict, "duplicate request")
			case err != nil:
				logger.Error("idempotency lookup failed", slog.String("key", key), slog.Any("error", err))
				return fiber.NewError(fiber.StatusInternalServerError, "idempotency store failure")
			}
			if stored == inProgressMarker {
				return fiber.NewError(fiber.StatusConflict, "duplicate request currently processing")
			}
			var cached cachedResponse
			if err := json.Unmarshal([]byte(stored), &cached); err != nil {
				logger.Warn("undecodable idempotent response", slog.String("key", key), slog.Any("error", err))
				return fiber.NewError(fiber.StatusConflict, "duplicate request")
			}
			return c.Status(cached.Status).SendString(cached.Body)
		}

		if err := c.Next(); err != nil {
			// Failed requests may be retried; release the reservation.
			releaseCtx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
			defer cancel()
			cache.Del(releaseCtx, cacheKey)
			return err
		}

		payload, err := json.Marshal(cachedResponse{
			Status: c.Response().StatusCode(),
			Body:   string(c.Response().Body()),
		})
		if err == nil {
			persistCtx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
			defer cancel()
			err = cache.Set(persistCtx, cacheKey, payload, ttl).Err()
		}
		if err != nil {
			logger.Error("idempotency persistence failed", slog.String("key", key), slog.Any("error", err))
		}
		return nil
	}
}
