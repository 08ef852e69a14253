package storage

import (
	"fmt"
)

// DatabaseType selects a database backend.
type DatabaseType string

const (
	MySQL      DatabaseType = "mysql"
	PostgreSQL DatabaseType = "postgresql"
)

// DatabaseStorage is a Backend with schema initialization.
type DatabaseStorage interface {
	Backend
	InitDatabase() error
}

// NewDatabaseStorage creates the backend for the configured database type.
func NewDatabaseStorage(dbType string, dsn string) (DatabaseStorage, error) {
	switch DatabaseType(dbType) {
	case MySQL:
		return NewMySQLStorage(dsn)
	case PostgreSQL:
		return NewPostgreSQLStorage(dsn)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", dbType)
	}
}
