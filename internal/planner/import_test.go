package planner

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandeepkv93/salahplan/internal/model"
	"github.com/sandeepkv93/salahplan/internal/storage"
	"github.com/sandeepkv93/salahplan/internal/transfer"
)

const messyBackup = `{
  "tasks": [
    {"id": "7", "title": "Pay rent", "category": "Finance", "time": "09:00 AM", "status": "done", "date": "2026-03-10"},
    {"id": "7", "title": "Pay rent again", "category": "Finance", "time": "10:00 AM", "status": "Pending", "date": "2026-03-10"}
  ],
  "prayerSettings": {"autoFetch": false, "city": "Lahore", "country": "Pakistan"},
  "healthSettings": {},
  "theme": "dark"
}`

func TestImportedBackupSavesThroughSQLStore(t *testing.T) {
	saved, err := transfer.Import(strings.NewReader(messyBackup))
	require.NoError(t, err)

	s := fresh().Import(saved, morning)

	ctx := context.Background()
	store, err := storage.OpenSQLite(ctx, filepath.Join(t.TempDir(), "salahplan.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Save(ctx, s.Saved()))
	loaded, found, err := store.Load(ctx)
	require.NoError(t, err)
	require.True(t, found)
	var rent []model.Task
	for _, task := range loaded.Tasks {
		if task.ID == "7" {
			rent = append(rent, task)
		}
	}
	require.Len(t, rent, 1)
	assert.Equal(t, "Pay rent", rent[0].Title)
	assert.Equal(t, model.StatusPending, rent[0].Status)
}
