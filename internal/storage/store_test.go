package storage

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/sandeepkv93/salahplan/internal/model"
	"github.com/sandeepkv93/salahplan/internal/timerange"
)

func sampleState() model.SavedState {
	state := model.DefaultSavedState()
	state.Theme = model.ThemeDark
	state.HealthSettings.Gym.Enabled = true
	state.HealthSettings.QuranRecitation.CompletionHistory = []string{"2026-03-09"}
	state.PrayerSettings.ManualTimes = map[string]model.PrayerTimes{
		"Monday": {Fajr: "05:10 AM", Dhuhr: "12:15 PM", Asr: "04:30 PM", Maghrib: "06:20 PM", Isha: "07:45 PM"},
	}
	state.Tasks = []model.Task{
		{
			ID: "1741600000000", Origin: model.UserOrigin(), Title: "Pay rent",
			Category: model.CategoryFinance, Time: timerange.ParseWindow("09:00 AM – 09:30 AM"),
			Status: model.StatusPending, Date: "2026-03-10", Reminder: 10,
			Recurrence: &model.Recurrence{Frequency: model.FrequencyMonthly},
		},
		{
			ID: "prayer-fajr", Origin: model.PrayerOrigin(), Title: "Fajr Prayer",
			Category: model.CategoryPersonal, Time: timerange.ParseWindow("05:10 AM – 05:40 AM"),
			Status: model.StatusDone, Date: "2026-03-10", Reminder: 15,
		},
		{
			ID: "health-gym", Origin: model.HealthOrigin(model.HabitGym), Title: "Gym Session",
			Category: model.CategoryHealth, Time: timerange.ParseWindow("07:00 PM – 08:00 PM"),
			Status: model.StatusPending, Date: "2026-03-09",
		},
	}
	state.Notifications = []model.Notification{
		{ID: "n2", Title: "Task Reminder", Body: "Pay rent is starting in 10 minutes.", Timestamp: 1741600000000},
		{ID: "n1", Title: "Prayer Time Reminder", Body: "Fajr prayer is in 15 minutes.", Timestamp: 1741500000000, Read: true},
	}
	return state
}

func setupSQLite(t *testing.T) *SQLStore {
	t.Helper()
	store, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "data", "salahplan-test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func assertRoundTrip(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	_, found, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("initial load: %v", err)
	}
	if found {
		t.Fatal("expected empty store")
	}

	want := sampleState()
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, found, err := store.Load(ctx)
	if err != nil || !found {
		t.Fatalf("load after save: found=%v err=%v", found, err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}

	want.Tasks = want.Tasks[:1]
	want.Notifications = []model.Notification{}
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("second save: %v", err)
	}
	got, _, err = store.Load(ctx)
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	if len(got.Tasks) != 1 || len(got.Notifications) != 0 {
		t.Fatalf("save should replace the snapshot, got %d tasks %d notifications", len(got.Tasks), len(got.Notifications))
	}
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	assertRoundTrip(t, setupSQLite(t))
}

func TestFileStoreRoundTrip(t *testing.T) {
	assertRoundTrip(t, NewFileStore(filepath.Join(t.TempDir(), "state", "salahplan.json")))
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	assertRoundTrip(t, store)
	if store.Saves() != 2 {
		t.Fatalf("expected 2 saves, got %d", store.Saves())
	}
}

func TestPostgresStoreRoundTrip(t *testing.T) {
	dsn := os.Getenv("SALAHPLAN_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("SALAHPLAN_TEST_POSTGRES_DSN not set")
	}
	store, err := OpenPostgres(context.Background(), dsn)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	defer store.Close()
	if err := MigrateDown(store.db, DialectPostgres); err != nil {
		t.Fatalf("reset schema: %v", err)
	}
	if err := MigrateUp(store.db, DialectPostgres); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	assertRoundTrip(t, store)
}

func TestSQLiteTasksOn(t *testing.T) {
	store := setupSQLite(t)
	ctx := context.Background()
	if err := store.Save(ctx, sampleState()); err != nil {
		t.Fatalf("save: %v", err)
	}
	tasks, err := store.TasksOn(ctx, "2026-03-10")
	if err != nil {
		t.Fatalf("tasks on: %v", err)
	}
	if len(tasks) != 2 || tasks[0].ID != "1741600000000" || tasks[1].ID != "prayer-fajr" {
		t.Fatalf("unexpected tasks: %+v", tasks)
	}
}

func TestMigrateRoundTripCompatibility(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "migrate-roundtrip.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if err := MigrateUp(db, DialectSQLite); err != nil {
		t.Fatalf("first migrate up failed: %v", err)
	}
	if err := MigrateDown(db, DialectSQLite); err != nil {
		t.Fatalf("migrate down failed: %v", err)
	}
	if err := MigrateUp(db, DialectSQLite); err != nil {
		t.Fatalf("second migrate up failed: %v", err)
	}

	store, err := NewSQLStore(db, DialectSQLite)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := store.Save(t.Context(), sampleState()); err != nil {
		t.Fatalf("save after roundtrip failed: %v", err)
	}
}

func TestRebind(t *testing.T) {
	q := `INSERT INTO t (a, b) VALUES (?, ?)`
	if got := DialectSQLite.rebind(q); got != q {
		t.Fatalf("sqlite should not rebind: %s", got)
	}
	if got := DialectPostgres.rebind(q); got != `INSERT INTO t (a, b) VALUES ($1, $2)` {
		t.Fatalf("unexpected postgres query: %s", got)
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), Options{Driver: "mongo"}); !errors.Is(err, ErrUnknownDialect) {
		t.Fatalf("expected ErrUnknownDialect, got %v", err)
	}
	if _, err := NewSQLStore(nil, DialectSQLite); err == nil {
		t.Fatal("expected error for nil db")
	}
}
