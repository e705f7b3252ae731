package http

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/freelancehq/freelance-manager/internal/infrastructure/http/handlers"
)

// RegisterProbes mounts the liveness and readiness probes. They sit outside
// authentication and rate limiting.
func RegisterProbes(e *echo.Echo, db *mongo.Database, rdb *redis.Client) {
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(map[string]handlers.Pinger{
		"mongodb": handlers.PingerFunc(func(ctx context.Context) error {
			return db.Client().Ping(ctx, nil)
		}),
		"redis": handlers.PingerFunc(func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}),
	})

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthDepsHandler.Readiness)
}
