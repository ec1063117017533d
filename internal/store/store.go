package store

import (
	"context"
	"fmt"
	"time"

	"keypulse-go/internal/config"
)

// Store is a credential store backend. Mutations run as a single
// exclusive-locked read-modify-write so a partial update is never visible
// to other writers, and every field the tool does not own survives the
// write untouched.
type Store interface {
	// List returns the records belonging to the given provider namespace.
	List(ctx context.Context, provider string) ([]Record, error)

	// Disable stamps a billing disablement onto the record: disabledUntil,
	// disabledReason, errorCount, failureCounts and lastFailureAt.
	// Repeated calls re-stamp and increment.
	Disable(ctx context.Context, id string, d time.Duration) error

	// Reenable clears a billing disablement. A record disabled for any
	// other reason is left untouched (no-op, no error).
	Reenable(ctx context.Context, id string) error

	Close() error
}

// New builds the backend selected by cfg.Store.Backend.
func New(cfg *config.Config) (Store, error) {
	switch cfg.Store.Backend {
	case "file":
		return NewFileStore(cfg.Store.Path), nil
	case "redis":
		return NewRedisStore(RedisOptions{
			Addr:     cfg.Store.RedisAddr,
			Password: cfg.Store.RedisPassword,
			DB:       cfg.Store.RedisDB,
			Key:      cfg.Store.RedisKey,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported store backend %q", cfg.Store.Backend)
	}
}
