package storage

import (
	"context"
	"fmt"

	"github.com/Veraticus/kopiyka/internal/common"
	"github.com/Veraticus/kopiyka/internal/service"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open returns the storage backend for driver. For sqlite, dsn is a file path;
// for postgres it is a connection URL.
func Open(ctx context.Context, driver, dsn string) (service.Storage, error) {
	switch driver {
	case DriverSQLite, "":
		return NewSQLiteStorage(dsn)
	case DriverPostgres:
		return NewPostgresStorage(ctx, dsn)
	default:
		return nil, fmt.Errorf("%w: unknown database driver %q", common.ErrInvalidConfig, driver)
	}
}
