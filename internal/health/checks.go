package health

import (
	"context"
	"fmt"
	"time"

	"github.com/hellofresh/health-go/v5"
	healthRedis "github.com/hellofresh/health-go/v5/checks/redis"

	"github.com/minimart/minimart/internal/config"
	"github.com/minimart/minimart/internal/storage"
)

// NewHealthHandler reports liveness of the storage file and, when rate
// limiting is enabled, the Redis instance behind it.
func NewHealthHandler(cfg *config.Config, store *storage.Store) (*health.Health, error) {

	checks := []health.Config{
		{
			Name:      "storage",
			Timeout:   3 * time.Second,
			SkipOnErr: false,
			Check: func(ctx context.Context) error {
				return store.Ping(ctx)
			},
		},
	}

	if cfg.Redis.Enabled {
		checks = append(checks, health.Config{
			Name:      "redis",
			Timeout:   3 * time.Second,
			SkipOnErr: true,
			Check: healthRedis.New(healthRedis.Config{
				DSN: fmt.Sprintf("redis://:%s@%s/%d", cfg.Redis.Password, cfg.Redis.Addr, cfg.Redis.DB),
			}),
		})
	}

	h, err := health.New(
		health.WithComponent(health.Component{
			Name:    "minimart",
			Version: "1.0.0",
		}),
		health.WithSystemInfo(),
		health.WithChecks(checks...),
	)
	if err != nil {
		return nil, fmt.Errorf("building health handler: %w", err)
	}

	return h, nil
}
