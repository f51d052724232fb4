package storage

import (
	"fmt"

	"github.com/songzhibin97/cryptotherapist/internal/data"
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Open returns the DataStorage for driver. An empty driver selects memory.
func Open(driver, dsn string) (data.DataStorage, error) {
	switch driver {
	case "", DriverMemory:
		return NewMemoryStorage(), nil
	case DriverPostgres:
		return NewPostgresStorage(dsn)
	case DriverSQLite:
		return NewSQLiteStorage(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", driver)
	}
}
