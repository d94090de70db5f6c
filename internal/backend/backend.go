// Package backend builds the record store and event publisher selected by
// configuration.
package backend

import (
	"context"

	"finplan/internal/services"
	"finplan/internal/store"
)

// CleanupFunc releases the resources held by a backend.
type CleanupFunc func() error

// BackendResult is a ready record store, the publisher to announce writes
// on (nil when AMQP is disabled) and a cleanup for both.
type BackendResult struct {
	Store     store.RecordStore
	Publisher services.Publisher
	Cleanup   CleanupFunc
}

// Factory creates backends based on configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

type Config struct {
	Type BackendType

	// file
	DataDirectory string
	// sqlite
	SQLiteDBPath string
	// postgres
	DatabaseURL string

	// optional change events
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

type BackendType string

const (
	MemoryBackend   BackendType = "memory"
	FileBackend     BackendType = "file"
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, FileBackend, SQLiteBackend, PostgresBackend:
		return true
	default:
		return false
	}
}
