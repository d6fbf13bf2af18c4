package app

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/kindredapp/kindred-backend/internal/cache"
	"github.com/kindredapp/kindred-backend/internal/clock"
)

// AppContext holds shared dependencies (DB, Redis, Logger, Clock).
// The clock is injected so services never reach for ambient time; tests
// supply fixed instants for age and online-window assertions.
type AppContext struct {
	DB         *gorm.DB
	RedisCache *cache.RedisCache
	Logger     *slog.Logger
	Clock      clock.Clock
}

// New creates a new AppContext.
func New(db *gorm.DB, rdb *cache.RedisCache, logger *slog.Logger, clk clock.Clock) *AppContext {
	if clk == nil {
		clk = clock.System{}
	}
	return &AppContext{
		DB:         db,
		RedisCache: rdb,
		Logger:     logger,
		Clock:      clk,
	}
}
