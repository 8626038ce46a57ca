// Package repository provides durable single-key record storage for the chat history.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// DefaultKey is the record name the chat history is stored under.
const DefaultKey = "chatgpt-clone-history"

// ErrNotFound is returned by Load when no record exists under the key.
var ErrNotFound = errors.New("record not found")

// Record reads and writes whole serialised values by key.
type Record interface {
	// Load returns the stored bytes or ErrNotFound.
	Load(ctx context.Context, key string) ([]byte, error)
	// Save replaces the value stored under key.
	Save(ctx context.Context, key string, data []byte) error
	// Clear removes the value. Clearing a missing key is not an error.
	Clear(ctx context.Context, key string) error
	Close() error
}

// Store types accepted by New.
const (
	TypeFile     = "file"
	TypeBolt     = "bolt"
	TypeSQLite   = "sqlite"
	TypePostgres = "postgres"
	TypeMemory   = "memory"
)

// Config selects and locates a Record backend.
type Config struct {
	Type string
	// DSN is a directory for file, a file path for bolt and sqlite,
	// and a connection string for postgres.
	DSN string
}

// New creates the Record backend named by cfg.Type.
func New(cfg Config) (Record, error) {
	switch strings.ToLower(cfg.Type) {
	case TypeFile, "":
		return NewFileRecord(cfg.DSN)
	case TypeBolt:
		return NewBoltRecord(cfg.DSN)
	case TypeSQLite:
		return NewSQLiteRecord(cfg.DSN)
	case TypePostgres:
		return NewPostgresRecord(cfg.DSN)
	case TypeMemory:
		return NewMemoryRecord(), nil
	default:
		return nil, fmt.Errorf("unsupported store type: %s", cfg.Type)
	}
}
