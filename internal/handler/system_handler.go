package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/lms-backend/internal/config"
	"github.com/stemsi/lms-backend/internal/response"
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SystemHandler reports service health.
type SystemHandler struct {
	db        Pinger
	rdb       *redis.Client
	startTime time.Time
	log       zerolog.Logger
}

// NewSystemHandler creates a new SystemHandler.
func NewSystemHandler(db Pinger, rdb *redis.Client, log zerolog.Logger) *SystemHandler {
	return &SystemHandler{
		db:        db,
		rdb:       rdb,
		startTime: time.Now(),
		log:       log.With().Str("component", "system_handler").Logger(),
	}
}

type healthReport struct {
	Status            string            `json:"status"`
	Uptime            string            `json:"uptime"`
	Checks            map[string]string `json:"checks"`
	NotificationQueue int64             `json:"notification_queue"`
}

// Health godoc
// GET /health
// Pings Postgres and Redis and reports the notification queue depth.
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	report := healthReport{
		Status: "ok",
		Uptime: time.Since(h.startTime).Round(time.Second).String(),
		Checks: map[string]string{"postgres": "ok", "redis": "ok"},
	}

	if h.db != nil {
		if err := h.db.Ping(ctx); err != nil {
			h.log.Warn().Err(err).Msg("Postgres health check failed")
			report.Checks["postgres"] = "down"
			report.Status = "degraded"
		}
	}
	depth, err := h.rdb.LLen(ctx, config.WorkerKey.PersistNotificationsQueue).Result()
	if err != nil {
		h.log.Warn().Err(err).Msg("Redis health check failed")
		report.Checks["redis"] = "down"
		report.Status = "degraded"
	}
	report.NotificationQueue = depth

	status := http.StatusOK
	if report.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	response.Success(c, status, report)
}
