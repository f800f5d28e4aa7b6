package handler

import (
	"context"
	"net/http"
	"time"

	"swiftaza/internal/infra"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// SQLPinger adapts a gorm handle to Pinger.
func SQLPinger(db *gorm.DB) Pinger {
	return gormPinger{db}
}

type gormPinger struct{ db *gorm.DB }

func (p gormPinger) PingContext(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Health checks DB and Redis connectivity and reports the SMTP breaker.
// It never exposes credentials or internals. An open breaker degrades mail
// but does not fail the check.
func Health(db Pinger, rdb *redis.Client, breakers ...*infra.CircuitBreaker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbStatus := "connected"
		if db.PingContext(ctx) != nil {
			dbStatus = "error"
		}

		redisStatus := "connected"
		if rdb.Ping(ctx).Err() != nil {
			redisStatus = "error"
		}

		snaps := make([]infra.BreakerSnapshot, 0, len(breakers))
		for _, b := range breakers {
			if b != nil {
				snaps = append(snaps, b.Snapshot())
			}
		}

		status := http.StatusOK
		if dbStatus != "connected" || redisStatus != "connected" {
			status = http.StatusServiceUnavailable
		}

		c.JSON(status, gin.H{
			"ok":       status == http.StatusOK,
			"db":       dbStatus,
			"redis":    redisStatus,
			"breakers": snaps,
		})
	}
}
