package database

import (
	"context"
	"time"

	"github.com/redmonkez12/accounts-api/internal/logging"
)

// Pinger is satisfied by *sql.DB and *bun.DB
type Pinger interface {
	PingContext(ctx context.Context) error
}

// WaitForDB blocks until the database answers a ping. It retries forever with
// a fixed interval and only gives up when ctx is done.
// Meant for startup orchestration, never for request paths.
func WaitForDB(ctx context.Context, db Pinger, logger *logging.Logger, interval time.Duration) error {
	logger.Info("waiting for database")

	for {
		err := db.PingContext(ctx)
		if err == nil {
			logger.Info("database available")
			return nil
		}

		logger.Warn("database unavailable, retrying", "error", err, "retry_in", interval.String())

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}
