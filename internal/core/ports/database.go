// internal/core/ports/database.go
package ports

import (
	"context"
)

// Database is what the health endpoints need from the storage backend,
// abstracting away whether it is Postgres or the in-memory store.
type Database interface {
	Ping(ctx context.Context) error
	Health(ctx context.Context) map[string]interface{}
}
