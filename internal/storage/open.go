// Package storage implements the workspace session backends.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"blockshell/internal/workspace"
)

var ErrUnknownDriver = errors.New("unknown storage driver")

// Backend is a workspace adapter that may hold resources.
type Backend interface {
	workspace.Adapter
	io.Closer
}

type memoryBackend struct{ *Memory }

func (memoryBackend) Close() error { return nil }

// Open selects a backend by driver name: memory, sqlite, postgres, mysql,
// bolt or mongo.
func Open(ctx context.Context, driver, dsn string) (Backend, error) {
	switch driver {
	case "", "memory":
		return memoryBackend{NewMemory()}, nil
	case string(DialectSQLite), string(DialectPostgres), string(DialectMySQL):
		if dsn == "" {
			return nil, fmt.Errorf("storage driver %s: dsn is required", driver)
		}
		return OpenSQL(ctx, Dialect(driver), dsn)
	case "bolt":
		return OpenBolt(dsn)
	case "mongo":
		if dsn == "" {
			return nil, fmt.Errorf("storage driver %s: dsn is required", driver)
		}
		return OpenMongo(ctx, dsn)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}
