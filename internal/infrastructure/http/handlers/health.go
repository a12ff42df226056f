package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// HealthHandler handles GET /health, the liveness check.
// Returns 200 immediately; confirms the process is alive.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

func (h *HealthHandler) Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// HealthDependenciesHandler handles GET /health/ready, the readiness check.
// The directory database is required; MongoDB and Redis are reported as
// "disabled" when not configured and only degrade readiness when configured
// but unreachable.
type HealthDependenciesHandler struct {
	sql   *bun.DB
	mongo *mongo.Database
	redis *redis.Client
}

func NewHealthDependenciesHandler(sqlDB *bun.DB, db *mongo.Database, rdb *redis.Client) *HealthDependenciesHandler {
	return &HealthDependenciesHandler{
		sql:   sqlDB,
		mongo: db,
		redis: rdb,
	}
}

type dependencyStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type readinessResponse struct {
	Status       string                      `json:"status"`
	Dependencies map[string]dependencyStatus `json:"dependencies"`
}

func (h *HealthDependenciesHandler) Readiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	deps := make(map[string]dependencyStatus)
	healthy := true

	check := func(name string, ping func(context.Context) error) {
		if err := ping(ctx); err != nil {
			deps[name] = dependencyStatus{Status: "unhealthy", Error: err.Error()}
			healthy = false
			return
		}
		deps[name] = dependencyStatus{Status: "ok"}
	}

	// --- SQLite directory ---
	if h.sql == nil {
		deps["sqlite"] = dependencyStatus{Status: "unhealthy", Error: "not configured"}
		healthy = false
	} else {
		check("sqlite", h.sql.PingContext)
	}

	// --- MongoDB audit trail ---
	if h.mongo == nil {
		deps["mongodb"] = dependencyStatus{Status: "disabled"}
	} else {
		check("mongodb", func(ctx context.Context) error {
			return h.mongo.RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err()
		})
	}

	// --- Redis revocation list ---
	if h.redis == nil {
		deps["redis"] = dependencyStatus{Status: "disabled"}
	} else {
		check("redis", func(ctx context.Context) error {
			return h.redis.Ping(ctx).Err()
		})
	}

	status := "ok"
	httpStatus := http.StatusOK
	if !healthy {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	return c.JSON(httpStatus, readinessResponse{
		Status:       status,
		Dependencies: deps,
	})
}
