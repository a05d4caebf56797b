package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/inkpress/backoffice/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.LogEntry{}))
	return db
}

// seedEntry inserts a row directly with an explicit created_at, so
// retention and ordering tests can control record age.
func seedEntry(t *testing.T, db *gorm.DB, typ, action string, createdAt time.Time) models.LogEntry {
	t.Helper()
	entry := models.LogEntry{
		ID:        uuid.New(),
		Type:      typ,
		Action:    action,
		Details:   []byte(`{}`),
		CreatedAt: createdAt,
	}
	require.NoError(t, db.Create(&entry).Error)
	return entry
}

func TestStoreCreateAndRoundTrip(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	details := map[string]any{
		"book_title": "X",
		"nested":     map[string]any{"depth": 2, "list": []any{"a", 1.5, nil, true}},
	}
	raw, err := json.Marshal(details)
	require.NoError(t, err)

	entry := &models.LogEntry{
		Type:       models.LogTypeError,
		Action:     "book_creation_failed",
		Details:    raw,
		Context:    []byte(`{"ip_address":"10.0.0.1","user_agent":"test"}`),
		ActorID:    "admin@example.com",
		ActorEmail: "admin@example.com",
	}

	id, err := store.CreateEntry(ctx, entry)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)
	assert.False(t, entry.CreatedAt.IsZero(), "created_at must be server-assigned")

	got, total, err := store.ListEntries(ctx, Filter{Type: models.LogTypeError, Action: "book_creation_failed"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, id, got[0].ID)
	assert.JSONEq(t, string(raw), string(got[0].Details))
	assert.JSONEq(t, `{"ip_address":"10.0.0.1","user_agent":"test"}`, string(got[0].Context))
	assert.Equal(t, "admin@example.com", got[0].ActorEmail)
}

func TestStoreCreateOverridesClientSuppliedTimestamp(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db)

	spoofed := time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)
	entry := &models.LogEntry{
		Type:      models.LogTypeInfo,
		Action:    "spoof_attempt",
		Details:   []byte(`{}`),
		CreatedAt: spoofed,
	}

	_, err := store.CreateEntry(context.Background(), entry)
	require.NoError(t, err)
	assert.True(t, entry.CreatedAt.After(spoofed.Add(time.Hour)),
		"store must discard the caller-supplied created_at")
}

func TestStoreListFilters(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db)
	ctx := context.Background()
	now := time.Now().UTC()

	seedEntry(t, db, models.LogTypeError, "book_creation_failed", now.Add(-1*time.Hour))
	seedEntry(t, db, models.LogTypeError, "book_update_failed", now.Add(-2*time.Hour))
	seedEntry(t, db, models.LogTypeSuccess, "book_created", now.Add(-3*time.Hour))
	old := seedEntry(t, db, models.LogTypeSuccess, "contact_form_processed", now.Add(-72*time.Hour))

	withEmail := models.LogEntry{
		ID: uuid.New(), Type: models.LogTypeSuccess, Action: "logs_accessed",
		Details: []byte(`{}`), ActorEmail: "admin@inkpress.dev", CreatedAt: now,
	}
	require.NoError(t, db.Create(&withEmail).Error)

	tests := []struct {
		name   string
		filter Filter
		want   int64
	}{
		{"by type", Filter{Type: models.LogTypeError}, 2},
		{"by exact action", Filter{Action: "book_created"}, 1},
		{"by action prefix", Filter{ActionPrefix: "book_"}, 3},
		{"exact action wins over prefix", Filter{Action: "book_created", ActionPrefix: "contact_"}, 1},
		{"by actor email", Filter{UserEmail: "admin@inkpress.dev"}, 1},
		{"by date range", Filter{DateFrom: timePtr(now.Add(-4 * time.Hour)), DateTo: timePtr(now.Add(-30 * time.Minute))}, 3},
		{"no filter", Filter{}, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, total, err := store.ListEntries(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, total)
			assert.Len(t, entries, int(tt.want))
		})
	}

	t.Run("date_to is inclusive of older records only", func(t *testing.T) {
		entries, total, err := store.ListEntries(ctx, Filter{DateTo: timePtr(now.Add(-71 * time.Hour))})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, entries, 1)
		assert.Equal(t, old.ID, entries[0].ID)
	})
}

func TestStoreListOrderAndPagination(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db)
	ctx := context.Background()
	now := time.Now().UTC()

	const n = 25
	for i := 0; i < n; i++ {
		seedEntry(t, db, models.LogTypeInfo, fmt.Sprintf("event_%02d", i), now.Add(-time.Duration(i)*time.Minute))
	}

	t.Run("newest first", func(t *testing.T) {
		entries, total, err := store.ListEntries(ctx, Filter{Limit: 5})
		require.NoError(t, err)
		assert.Equal(t, int64(n), total)
		require.Len(t, entries, 5)
		for i := 1; i < len(entries); i++ {
			assert.False(t, entries[i].CreatedAt.After(entries[i-1].CreatedAt),
				"entries must be sorted newest first")
		}
	})

	t.Run("pages union to full dataset without duplicates", func(t *testing.T) {
		const limit = 10
		seen := make(map[uuid.UUID]bool)
		pages := 0
		for offset := 0; ; offset += limit {
			entries, total, err := store.ListEntries(ctx, Filter{Limit: limit, Offset: offset})
			require.NoError(t, err)
			assert.Equal(t, int64(n), total, "total must not depend on pagination")
			if len(entries) == 0 {
				break
			}
			pages++
			for _, e := range entries {
				assert.False(t, seen[e.ID], "entry %s appeared on two pages", e.ID)
				seen[e.ID] = true
			}
		}
		assert.Equal(t, 3, pages)
		assert.Len(t, seen, n)
	})

	t.Run("empty dataset", func(t *testing.T) {
		empty := NewStore(newTestDB(t))
		entries, total, err := empty.ListEntries(ctx, Filter{Limit: 10})
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, entries)
	})
}

func TestStoreDeleteOlderThan(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db)
	ctx := context.Background()
	now := time.Now().UTC()

	seedEntry(t, db, models.LogTypeInfo, "ancient", now.AddDate(0, 0, -40))
	seedEntry(t, db, models.LogTypeInfo, "ancient", now.AddDate(0, 0, -31))
	keep := seedEntry(t, db, models.LogTypeInfo, "recent", now.AddDate(0, 0, -2))

	deleted, err := store.DeleteOlderThan(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	entries, total, err := store.ListEntries(ctx, Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, entries, 1)
	assert.Equal(t, keep.ID, entries[0].ID, "records inside the window must be untouched")

	// Idempotent: a second run with the same cutoff removes nothing.
	deleted, err = store.DeleteOlderThan(ctx, 30)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestStoreStats(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db)
	ctx := context.Background()
	now := time.Now().UTC()

	for i := 0; i < 3; i++ {
		seedEntry(t, db, models.LogTypeError, "book_creation_failed", now.Add(-time.Hour))
	}
	seedEntry(t, db, models.LogTypeSuccess, "book_created", now.Add(-2*time.Hour))
	seedEntry(t, db, models.LogTypeSuccess, "book_created", now.AddDate(0, 0, -3))
	seedEntry(t, db, models.LogTypeInfo, "sweep", now.AddDate(0, 0, -10))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(6), stats.Total)
	assert.Equal(t, int64(3), stats.ByType[models.LogTypeError])
	assert.Equal(t, int64(2), stats.ByType[models.LogTypeSuccess])
	assert.Equal(t, int64(1), stats.ByType[models.LogTypeInfo])
	assert.Equal(t, int64(4), stats.Last24h)
	assert.Equal(t, int64(5), stats.Last7d)

	require.NotEmpty(t, stats.TopActions)
	assert.Equal(t, "book_creation_failed", stats.TopActions[0].Action)
	assert.Equal(t, int64(3), stats.TopActions[0].Count)
}

func timePtr(t time.Time) *time.Time { return &t }
