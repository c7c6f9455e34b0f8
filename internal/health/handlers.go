package health

import (
	"context"
	"runtime"
	"strconv"
	"time"

	"brix-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// DBPinger is optional for the health check. If nil, the database is
// reported as disconnected.
type DBPinger interface {
	Ping() error
}

type Handlers struct {
	Rdb *redis.Client
	DB  DBPinger
}

type depStatus struct {
	Status string      `json:"status"`
	PingMs interface{} `json:"pingMs"`
}

// JSON GET /health/json — dependency pings plus request counters.
func (h *Handlers) JSON(c *fiber.Ctx) error {
	ctx := context.Background()
	deps := map[string]depStatus{}

	dbStatus := "disconnected"
	var dbPing interface{}
	if h.DB != nil {
		start := time.Now()
		if err := h.DB.Ping(); err == nil {
			dbPing = time.Since(start).Milliseconds()
			dbStatus = "connected"
		} else {
			dbStatus = "error"
		}
	}
	deps["database"] = depStatus{Status: dbStatus, PingMs: dbPing}

	redisStatus := "disconnected"
	var redisPing interface{}
	traffic := fiber.Map{"totalRequests": 0, "failedCount": 0}
	if h.Rdb != nil {
		start := time.Now()
		if err := h.Rdb.Ping(ctx).Err(); err == nil {
			redisPing = time.Since(start).Milliseconds()
			redisStatus = "connected"
			total, _ := h.Rdb.Get(ctx, middleware.KeyReqTotal).Result()
			failed, _ := h.Rdb.Get(ctx, middleware.KeyReqErrors).Result()
			traffic = fiber.Map{
				"totalRequests": atoi(total),
				"failedCount":   atoi(failed),
			}
		} else {
			redisStatus = "error"
		}
	}
	deps["redis"] = depStatus{Status: redisStatus, PingMs: redisPing}

	status := "ok"
	if dbStatus == "error" || redisStatus == "error" {
		status = "degraded"
	}

	return c.JSON(fiber.Map{
		"status":       status,
		"goVersion":    runtime.Version(),
		"traffic":      traffic,
		"dependencies": deps,
	})
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
