// Package store persists work diary metadata in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"workdiary/internal/models"
	"workdiary/internal/structures"

	_ "github.com/mattn/go-sqlite3" // driver "sqlite3"
	_ "modernc.org/sqlite"          // driver "sqlite"
)

type Store interface {
	Insert(ctx context.Context, entry *models.WorkDiaryEntry) (int64, error)
	List(ctx context.Context, filter models.EntryFilter) ([]models.WorkDiaryEntry, error)
	SoftDelete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
	Truncate(ctx context.Context) error
	Optimize(ctx context.Context) error
	Close() error
}

const entryColumns = `id, projectID, userID, taskID, screenshotTimeStamp, calcTimeStamp,
	keyboardJSON, mouseJSON, activeJSON, activeFlag, activeMins, deletedFlag,
	activeMemo, imageURL, thumbNailURL, createdAt, modifiedAt`

// SQLiteStore implements Store on top of database/sql.
type SQLiteStore struct {
	db     *sql.DB
	insert *sql.Stmt
}

// Open connects to the configured database and applies migrations.
func Open(driver, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite serializes writers; a single connection also keeps :memory: databases shared.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := NewMigrationRunner(db).Run(); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return db, nil
}

// NewStoreFromConfig opens the configured database and wraps it in a SQLiteStore.
func NewStoreFromConfig(conf *structures.Config) (*SQLiteStore, error) {
	db, err := Open(conf.Database.Driver, conf.Database.DSN)
	if err != nil {
		return nil, err
	}
	s, err := NewSQLiteStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLiteStore wraps an already opened and migrated database.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	insert, err := db.Prepare(`
		INSERT INTO workDiary (projectID, userID, taskID, screenshotTimeStamp, calcTimeStamp,
			keyboardJSON, mouseJSON, activeJSON, activeFlag, activeMins, deletedFlag,
			activeMemo, imageURL, thumbNailURL, createdAt, modifiedAt)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("prepare insert: %w", err)
	}
	return &SQLiteStore{db: db, insert: insert}, nil
}

// Insert writes a new row and sets entry.ID, CreatedAt and ModifiedAt.
func (s *SQLiteStore) Insert(ctx context.Context, entry *models.WorkDiaryEntry) (int64, error) {
	now := time.Now().UTC().Truncate(time.Second)
	stamp := now.Format(models.TimestampLayout)

	res, err := s.insert.ExecContext(ctx,
		entry.ProjectID, entry.UserID, entry.TaskID,
		entry.ScreenshotTimeStamp, entry.CalcTimeStamp,
		entry.KeyboardJSON, entry.MouseJSON, entry.ActiveJSON,
		entry.ActiveFlag, entry.ActiveMins, entry.DeletedFlag,
		entry.ActiveMemo, entry.ImageURL, entry.ThumbNailURL,
		stamp, stamp,
	)
	if err != nil {
		return 0, &models.StoreError{Op: "insert", Err: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, &models.StoreError{Op: "insert", Err: err}
	}

	entry.ID = id
	entry.CreatedAt = now
	entry.ModifiedAt = now
	return id, nil
}

// List returns non-deleted rows matching filter, ordered by event time.
func (s *SQLiteStore) List(ctx context.Context, filter models.EntryFilter) ([]models.WorkDiaryEntry, error) {
	clauses := []string{"deletedFlag = 0"}
	var args []interface{}

	if filter.UserID != "" {
		clauses = append(clauses, "userID = ?")
		args = append(args, filter.UserID)
	}
	if filter.From != "" {
		clauses = append(clauses, "screenshotTimeStamp >= ?")
		args = append(args, filter.From)
	}
	if filter.To != "" {
		clauses = append(clauses, "screenshotTimeStamp < ?")
		args = append(args, filter.To)
	}

	direction := "DESC"
	if filter.Order == models.OrderAsc {
		direction = "ASC"
	}

	query := "SELECT " + entryColumns + " FROM workDiary WHERE " + strings.Join(clauses, " AND ") +
		" ORDER BY screenshotTimeStamp " + direction + ", id " + direction
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	return s.scanEntries(ctx, query, args...)
}

func (s *SQLiteStore) scanEntries(ctx context.Context, query string, args ...interface{}) ([]models.WorkDiaryEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &models.StoreError{Op: "list", Err: err}
	}
	defer rows.Close()

	entries := []models.WorkDiaryEntry{}
	for rows.Next() {
		var e models.WorkDiaryEntry
		var createdAt, modifiedAt string
		if err := rows.Scan(
			&e.ID, &e.ProjectID, &e.UserID, &e.TaskID,
			&e.ScreenshotTimeStamp, &e.CalcTimeStamp,
			&e.KeyboardJSON, &e.MouseJSON, &e.ActiveJSON,
			&e.ActiveFlag, &e.ActiveMins, &e.DeletedFlag,
			&e.ActiveMemo, &e.ImageURL, &e.ThumbNailURL,
			&createdAt, &modifiedAt,
		); err != nil {
			return nil, &models.StoreError{Op: "scan", Err: err}
		}
		e.CreatedAt, _ = parseTimestamp(createdAt)
		e.ModifiedAt, _ = parseTimestamp(modifiedAt)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, &models.StoreError{Op: "list", Err: err}
	}
	return entries, nil
}

// SoftDelete marks a row deleted. Already deleted or unknown ids yield NotFoundError.
func (s *SQLiteStore) SoftDelete(ctx context.Context, id int64) error {
	stamp := time.Now().UTC().Format(models.TimestampLayout)
	res, err := s.db.ExecContext(ctx,
		"UPDATE workDiary SET deletedFlag = 1, modifiedAt = ? WHERE id = ? AND deletedFlag = 0",
		stamp, id,
	)
	if err != nil {
		return &models.StoreError{Op: "soft delete", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return &models.StoreError{Op: "soft delete", Err: err}
	}
	if n == 0 {
		return &models.NotFoundError{ID: id}
	}
	return nil
}

func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM workDiary WHERE deletedFlag = 0").Scan(&n)
	if err != nil {
		return 0, &models.StoreError{Op: "count", Err: err}
	}
	return n, nil
}

// Truncate removes every row and resets the id sequence.
func (s *SQLiteStore) Truncate(ctx context.Context) error {
	stmts := []string{
		"DELETE FROM workDiary",
		"DELETE FROM sqlite_sequence WHERE name = 'workDiary'",
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return &models.StoreError{Op: "truncate", Err: err}
		}
	}
	return nil
}

func (s *SQLiteStore) Optimize(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA optimize"); err != nil {
		return &models.StoreError{Op: "optimize", Err: err}
	}
	return nil
}

// Close releases the prepared statement and the database handle.
func (s *SQLiteStore) Close() error {
	if s.insert != nil {
		s.insert.Close()
	}
	return s.db.Close()
}

// IsStoreError reports whether err originated in the metadata store.
func IsStoreError(err error) bool {
	var se *models.StoreError
	return errors.As(err, &se)
}

func parseTimestamp(s string) (time.Time, error) {
	formats := []string{
		models.TimestampLayout,
		time.RFC3339Nano,
		time.RFC3339,
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse timestamp: %s", s)
}
