package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"subplay/internal/services"
	"subplay/internal/subtitle"
)

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Store manages session persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Record is one persisted media session.
type Record struct {
	MediaKey     string    `json:"media_key"`
	AutoSearched bool      `json:"auto_searched"`
	DelayMs      int64     `json:"delay_ms"`
	TrackName    string    `json:"track_name,omitempty"`
	TrackID      string    `json:"track_id,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Open initializes or connects to the session database at path.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, services.Wrap(services.ErrConfiguration, "session", "open", "session database path is empty", nil)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure session directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Get returns the record for key, or nil when none exists.
func (s *Store) Get(ctx context.Context, key string) (*Record, error) {
	key, err := normalizeKey(key)
	if err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT media_key, auto_searched, delay_ms, track_name, track_id, updated_at
		FROM media_sessions WHERE media_key = ?`, key)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session %q: %w", key, err)
	}
	return record, nil
}

// List returns every record, most recently updated first.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT media_key, auto_searched, delay_ms, track_name, track_id, updated_at
		FROM media_sessions ORDER BY updated_at DESC, media_key`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		records = append(records, *record)
	}
	return records, rows.Err()
}

// Reset deletes the record for key. It reports whether a record existed.
func (s *Store) Reset(ctx context.Context, key string) (bool, error) {
	key, err := normalizeKey(key)
	if err != nil {
		return false, err
	}
	res, err := s.execWithRetry(ctx, "DELETE FROM media_sessions WHERE media_key = ?", key)
	if err != nil {
		return false, fmt.Errorf("reset session %q: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ResetAll deletes every record and returns the number removed.
func (s *Store) ResetAll(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, "DELETE FROM media_sessions")
	if err != nil {
		return 0, fmt.Errorf("reset sessions: %w", err)
	}
	return res.RowsAffected()
}

// RecordTrack stores the name and id of the track loaded for key.
func (s *Store) RecordTrack(ctx context.Context, key string, track subtitle.Track) error {
	key, err := normalizeKey(key)
	if err != nil {
		return err
	}
	return s.execWithoutResultRetry(ctx, `INSERT INTO media_sessions (media_key, track_name, track_id, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(media_key) DO UPDATE SET track_name = excluded.track_name, track_id = excluded.track_id, updated_at = excluded.updated_at`,
		key, nullableString(track.Name), nullableString(track.ID), now())
}

func (s *Store) setAutoSearched(ctx context.Context, key string) error {
	return s.execWithoutResultRetry(ctx, `INSERT INTO media_sessions (media_key, auto_searched, updated_at)
		VALUES (?, 1, ?)
		ON CONFLICT(media_key) DO UPDATE SET auto_searched = 1, updated_at = excluded.updated_at`,
		key, now())
}

func (s *Store) setDelay(ctx context.Context, key string, delayMs int64) error {
	return s.execWithoutResultRetry(ctx, `INSERT INTO media_sessions (media_key, delay_ms, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(media_key) DO UPDATE SET delay_ms = excluded.delay_ms, updated_at = excluded.updated_at`,
		key, delayMs, now())
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx = ensureContext(ctx)
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Store) execWithoutResultRetry(ctx context.Context, query string, args ...any) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query, args...)
		return err
	})
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func normalizeKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", services.Wrap(services.ErrValidation, "session", "key", "media key is empty", nil)
	}
	return key, nil
}

func scanRecord(scanner interface{ Scan(dest ...any) error }) (*Record, error) {
	var (
		record    Record
		searched  int
		trackName sql.NullString
		trackID   sql.NullString
		updated   string
	)
	if err := scanner.Scan(&record.MediaKey, &searched, &record.DelayMs, &trackName, &trackID, &updated); err != nil {
		return nil, err
	}
	record.AutoSearched = searched != 0
	record.TrackName = trackName.String
	record.TrackID = trackID.String
	if ts, err := time.Parse(time.RFC3339Nano, updated); err == nil {
		record.UpdatedAt = ts
	}
	return &record, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
