package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ppiankov/verisense/internal/model"
	"github.com/ppiankov/verisense/internal/util"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	last_login INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS news_logs (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	timestamp INTEGER NOT NULL,
	credibility_score REAL NOT NULL,
	classification TEXT NOT NULL,
	record_json TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_news_logs_user_time ON news_logs(user_id, timestamp DESC);
`

// SQLiteStore keeps users and history in a local SQLite file
type SQLiteStore struct {
	db    *sql.DB
	path  string
	limit int
}

// NewSQLiteStore opens (or creates) the database at path
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		path = "verisense.db"
	}
	path = util.ExpandPath(path)
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer keeps SQLite free of "database is locked" errors
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db, path: path, limit: defaultHistoryLimit}, nil
}

// Backend returns the backend name
func (s *SQLiteStore) Backend() string { return BackendSQLite }

// Path returns the database file path
func (s *SQLiteStore) Path() string { return s.path }

// CreateUser inserts a new account
func (s *SQLiteStore) CreateUser(ctx context.Context, u *model.User) error {
	prepareUser(u)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, password_hash, created_at, last_login) VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.CreatedAt.UnixNano(), u.LastLogin.UnixNano())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: users.email") {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetUserByEmail looks up an account by its normalized email
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.findUser(ctx, `email = ?`, email)
}

// GetUserByID looks up an account by ID
func (s *SQLiteStore) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return s.findUser(ctx, `id = ?`, id)
}

func (s *SQLiteStore) findUser(ctx context.Context, where string, arg string) (*model.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, created_at, last_login FROM users WHERE `+where, arg)

	var u model.User
	var created, lastLogin int64
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &created, &lastLogin); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	u.CreatedAt = time.Unix(0, created).UTC()
	u.LastLogin = time.Unix(0, lastLogin).UTC()
	return &u, nil
}

// UpdateLastLogin stamps the current time on the account
func (s *SQLiteStore) UpdateLastLogin(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET last_login = ? WHERE id = ?`, time.Now().UTC().UnixNano(), id)
	if err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return requireAffected(res)
}

// SaveAnalysis inserts a history record
func (s *SQLiteStore) SaveAnalysis(ctx context.Context, rec *model.HistoryRecord) error {
	prepareRecord(rec)
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO news_logs (id, user_id, timestamp, credibility_score, classification, record_json) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, rec.Timestamp.UnixNano(), rec.CredibilityScore, string(rec.Classification), string(data))
	if err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}
	return nil
}

// ListHistory returns a user's records, newest first
func (s *SQLiteStore) ListHistory(ctx context.Context, userID string, limit int) ([]model.HistoryRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT record_json FROM news_logs WHERE user_id = ? ORDER BY timestamp DESC LIMIT ?`,
		userID, normalizeLimit(limit, s.limit))
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	records := []model.HistoryRecord{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		var rec model.HistoryRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("decode history: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// GetAnalysis returns one of the user's records
func (s *SQLiteStore) GetAnalysis(ctx context.Context, userID, id string) (*model.HistoryRecord, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT record_json FROM news_logs WHERE id = ? AND user_id = ?`, id, userID).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find analysis: %w", err)
	}

	var rec model.HistoryRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("decode analysis: %w", err)
	}
	return &rec, nil
}

// DeleteAnalysis removes one of the user's records
func (s *SQLiteStore) DeleteAnalysis(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM news_logs WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete analysis: %w", err)
	}
	return requireAffected(res)
}

// Ping checks the database is usable
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
