// Package store persists user accounts and analysis history.
//
// MongoDB is the primary backend. When no MongoDB URI is configured, or the
// server cannot be reached, a local SQLite database is used instead.
package store

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/ppiankov/verisense/internal/model"
)

// Backend names
const (
	BackendMongo  = "mongodb"
	BackendSQLite = "sqlite"
)

var (
	// ErrNotFound is returned when a user or history record does not exist
	ErrNotFound = errors.New("not found")

	// ErrDuplicateEmail is returned when registering an email twice
	ErrDuplicateEmail = errors.New("email already registered")
)

// UserStore manages accounts
type UserStore interface {
	CreateUser(ctx context.Context, u *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	UpdateLastLogin(ctx context.Context, id string) error
}

// HistoryStore manages saved analyses. Records are always scoped to their owner.
type HistoryStore interface {
	SaveAnalysis(ctx context.Context, rec *model.HistoryRecord) error
	ListHistory(ctx context.Context, userID string, limit int) ([]model.HistoryRecord, error)
	GetAnalysis(ctx context.Context, userID, id string) (*model.HistoryRecord, error)
	DeleteAnalysis(ctx context.Context, userID, id string) error
	Ping(ctx context.Context) error
	Close() error
}

// Store is a complete persistence backend
type Store interface {
	UserStore
	HistoryStore
	Backend() string
}

// Open connects to MongoDB and falls back to SQLite
func Open(ctx context.Context, cfg model.DatabaseConfig) (Store, error) {
	if IsPlaceholderURI(cfg.URI) {
		slog.Warn("[Store] MongoDB URI not configured, using local SQLite store", "path", cfg.SQLitePath)
		return NewSQLiteStore(cfg.SQLitePath)
	}

	s, err := NewMongoStore(ctx, cfg)
	if err == nil {
		return s, nil
	}

	slog.Error("[Store] Failed to connect to MongoDB", "error", err)
	slog.Warn("[Store] Switching to local SQLite store", "path", cfg.SQLitePath)
	return NewSQLiteStore(cfg.SQLitePath)
}

// IsPlaceholderURI reports whether uri is unset or still the sample value
func IsPlaceholderURI(uri string) bool {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return true
	}
	for _, marker := range []string{"<username>", "<password>", "username:password", "your_"} {
		if strings.Contains(uri, marker) {
			return true
		}
	}
	return false
}

func normalizeLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	return limit
}

const defaultHistoryLimit = 50
