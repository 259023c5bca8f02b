package session

import (
	"context"
	"log"
	"time"
)

// DefaultCleanupInterval is how often expired Postgres sessions are purged.
const DefaultCleanupInterval = 10 * time.Minute

// StartCleanup purges expired sessions every interval until ctx is done.
func StartCleanup(ctx context.Context, store *PostgresStore, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[session] cleanup loop stopped")
			return
		case <-ticker.C:
			n, err := store.DeleteExpired(ctx)
			if err != nil {
				log.Printf("[session] cleanup: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("[session] cleanup: removed %d expired sessions", n)
			}
		}
	}
}
