package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/sandeepkv93/salahplan/internal/model"
	"github.com/sandeepkv93/salahplan/internal/timerange"
)

const sqlTimeLayout = time.RFC3339Nano

type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

const (
	keyPrayerSettings = "prayerSettings"
	keyHealthSettings = "healthSettings"
	keyTheme          = "theme"
)

// rebind rewrites ? placeholders into $n for postgres.
func (d Dialect) rebind(query string) string {
	if d != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SQLStore keeps the snapshot in three tables: settings as JSON payloads by
// key, and tasks and notifications as rows ordered by position.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

func NewSQLStore(db *sql.DB, d Dialect) (*SQLStore, error) {
	if db == nil {
		return nil, errors.New("storage: nil db")
	}
	if d != DialectSQLite && d != DialectPostgres {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDialect, d)
	}
	return &SQLStore{db: db, dialect: d}, nil
}

func OpenSQLite(ctx context.Context, path string) (*SQLStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("storage: sqlite path is required")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	return openSQL(ctx, db, DialectSQLite)
}

func OpenPostgres(ctx context.Context, dsn string) (*SQLStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("storage: postgres dsn is required")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return openSQL(ctx, db, DialectPostgres)
}

func openSQL(ctx context.Context, db *sql.DB, d Dialect) (*SQLStore, error) {
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", d, err)
	}
	if err := MigrateUp(db, d); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewSQLStore(db, d)
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) Load(ctx context.Context) (model.SavedState, bool, error) {
	state := model.DefaultSavedState()
	settings, err := s.loadSettings(ctx)
	if err != nil {
		return model.SavedState{}, false, err
	}
	if len(settings) == 0 {
		return state, false, nil
	}
	if raw, ok := settings[keyPrayerSettings]; ok {
		if err := json.Unmarshal([]byte(raw), &state.PrayerSettings); err != nil {
			return model.SavedState{}, false, fmt.Errorf("decode prayer settings: %w", err)
		}
	}
	if raw, ok := settings[keyHealthSettings]; ok {
		if err := json.Unmarshal([]byte(raw), &state.HealthSettings); err != nil {
			return model.SavedState{}, false, fmt.Errorf("decode health settings: %w", err)
		}
	}
	if raw, ok := settings[keyTheme]; ok {
		state.Theme = model.Theme(raw)
	}
	if state.Tasks, err = s.loadTasks(ctx); err != nil {
		return model.SavedState{}, false, err
	}
	if state.Notifications, err = s.loadNotifications(ctx); err != nil {
		return model.SavedState{}, false, err
	}
	return state, true, nil
}

func (s *SQLStore) Save(ctx context.Context, state model.SavedState) error {
	prayer, err := json.Marshal(state.PrayerSettings)
	if err != nil {
		return fmt.Errorf("encode prayer settings: %w", err)
	}
	health, err := json.Marshal(state.HealthSettings)
	if err != nil {
		return fmt.Errorf("encode health settings: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(sqlTimeLayout)
	for key, payload := range map[string]string{
		keyPrayerSettings: string(prayer),
		keyHealthSettings: string(health),
		keyTheme:          string(state.Theme),
	} {
		if _, err := tx.ExecContext(ctx, s.dialect.rebind(`
			INSERT INTO settings (key, payload, updated_at) VALUES (?, ?, ?)
			ON CONFLICT (key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`),
			key, payload, now); err != nil {
			return fmt.Errorf("save %s: %w", key, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks`); err != nil {
		return err
	}
	for i, t := range state.Tasks {
		origin, _ := t.Origin.MarshalText()
		if _, err := tx.ExecContext(ctx, s.dialect.rebind(`
			INSERT INTO tasks (id, date, origin, title, category, time_text, status, reminder, recurrence, position)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
			t.ID, t.Date, string(origin), t.Title, string(t.Category), t.Time.String(),
			string(t.Status), t.Reminder, nullRecurrence(t.Recurrence), i,
		); err != nil {
			return fmt.Errorf("save task %s: %w", t.Key(), err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM notifications`); err != nil {
		return err
	}
	for i, n := range state.Notifications {
		if _, err := tx.ExecContext(ctx, s.dialect.rebind(`
			INSERT INTO notifications (id, title, body, created_ms, is_read, position)
			VALUES (?, ?, ?, ?, ?, ?)`),
			n.ID, n.Title, n.Body, n.Timestamp, boolInt(n.Read), i,
		); err != nil {
			return fmt.Errorf("save notification %s: %w", n.ID, err)
		}
	}
	return tx.Commit()
}

// TasksOn reads the tasks of one day without loading the whole snapshot.
func (s *SQLStore) TasksOn(ctx context.Context, date string) ([]model.Task, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(`
		SELECT id, date, origin, title, category, time_text, status, reminder, recurrence
		FROM tasks WHERE date = ? ORDER BY position`), date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTasks(rows)
}

func (s *SQLStore) loadSettings(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, payload FROM settings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var key, payload string
		if err := rows.Scan(&key, &payload); err != nil {
			return nil, err
		}
		out[key] = payload
	}
	return out, rows.Err()
}

func (s *SQLStore) loadTasks(ctx context.Context) ([]model.Task, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, origin, title, category, time_text, status, reminder, recurrence
		FROM tasks ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTasks(rows)
}

func (s *SQLStore) loadNotifications(ctx context.Context) ([]model.Notification, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, body, created_ms, is_read FROM notifications ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Notification, 0)
	for rows.Next() {
		var n model.Notification
		var read int
		if err := rows.Scan(&n.ID, &n.Title, &n.Body, &n.Timestamp, &read); err != nil {
			return nil, err
		}
		n.Read = read == 1
		out = append(out, n)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func collectTasks(rows *sql.Rows) ([]model.Task, error) {
	out := make([]model.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, task)
	}
	return out, rows.Err()
}

func scanTask(s scanner) (model.Task, error) {
	var out model.Task
	var origin, category, timeText, status string
	var recurrence sql.NullString
	if err := s.Scan(&out.ID, &out.Date, &origin, &out.Title, &category, &timeText, &status, &out.Reminder, &recurrence); err != nil {
		return model.Task{}, err
	}
	if err := out.Origin.UnmarshalText([]byte(origin)); err != nil {
		return model.Task{}, err
	}
	if out.Origin.Kind == "" {
		out.Origin = model.OriginFromID(out.ID)
	}
	out.Category = model.Category(category)
	out.Status = model.Status(status)
	out.Time = timerange.ParseWindow(timeText)
	if recurrence.Valid && recurrence.String != "" {
		out.Recurrence = &model.Recurrence{Frequency: model.Frequency(recurrence.String)}
	}
	return out, nil
}

func nullRecurrence(r *model.Recurrence) sql.NullString {
	if r == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(r.Frequency), Valid: true}
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
