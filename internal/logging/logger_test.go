package logging

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/inkpress/backoffice/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockStore records created entries and lets tests fail any operation.
type mockStore struct {
	created   []*models.LogEntry
	createErr error
	listErr   error
	deleteErr error
	statsErr  error
	listCalls int
	deleted   int64
}

func (m *mockStore) CreateEntry(_ context.Context, entry *models.LogEntry) (uuid.UUID, error) {
	if m.createErr != nil {
		return uuid.Nil, m.createErr
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	m.created = append(m.created, entry)
	return entry.ID, nil
}

func (m *mockStore) ListEntries(_ context.Context, _ Filter) ([]models.LogEntry, int64, error) {
	m.listCalls++
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	out := make([]models.LogEntry, 0, len(m.created))
	for _, e := range m.created {
		out = append(out, *e)
	}
	return out, int64(len(out)), nil
}

func (m *mockStore) Stats(_ context.Context) (*Stats, error) {
	if m.statsErr != nil {
		return nil, m.statsErr
	}
	return &Stats{Total: int64(len(m.created)), ByType: map[string]int64{}}, nil
}

func (m *mockStore) DeleteOlderThan(_ context.Context, _ int) (int64, error) {
	if m.deleteErr != nil {
		return 0, m.deleteErr
	}
	return m.deleted, nil
}

func newTestLogger(store EntryStore) *Logger {
	fallback := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := NewMetrics(prometheus.NewRegistry())
	return NewLogger(store, fallback, metrics, nil)
}

func detailsOf(t *testing.T, entry *models.LogEntry) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(entry.Details, &out))
	return out
}

func TestLogErrorEnrichment(t *testing.T) {
	store := &mockStore{}
	l := newTestLogger(store)

	actor := &Actor{ID: "admin@example.com", Email: "admin@example.com"}
	req := &RequestMeta{IP: "203.0.113.9", UserAgent: "curl/8"}

	l.LogError(context.Background(), "book_creation_failed", errors.New("dup title"),
		map[string]any{"book_title": "X"}, actor, req)

	require.Len(t, store.created, 1)
	entry := store.created[0]

	assert.Equal(t, models.LogTypeError, entry.Type)
	assert.Equal(t, "book_creation_failed", entry.Action)
	assert.Equal(t, "admin@example.com", entry.ActorEmail)

	details := detailsOf(t, entry)
	assert.Equal(t, "X", details["book_title"], "caller details must survive enrichment")
	errDetail, ok := details["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "dup title", errDetail["message"])

	var ctxMap map[string]string
	require.NoError(t, json.Unmarshal(entry.Context, &ctxMap))
	assert.Equal(t, "203.0.113.9", ctxMap["ip_address"])
	assert.Equal(t, "curl/8", ctxMap["user_agent"])
}

func TestLogWritersNeverFail(t *testing.T) {
	t.Run("store unavailable", func(t *testing.T) {
		store := &mockStore{createErr: &StorageError{Op: "create", Err: errors.New("connection refused")}}
		l := newTestLogger(store)

		assert.NotPanics(t, func() {
			l.LogError(context.Background(), "anything", errors.New("boom"), nil, nil, nil)
			l.LogSuccess(context.Background(), "anything", nil, nil, nil)
			l.LogInfo(context.Background(), "anything", nil, nil, nil)
		})
	})

	t.Run("invalid entry is dropped, not raised", func(t *testing.T) {
		store := &mockStore{}
		l := newTestLogger(store)

		assert.NotPanics(t, func() {
			l.LogSuccess(context.Background(), "", nil, nil, nil)
		})
		assert.Empty(t, store.created, "entry without an action must never reach the store")
	})

	t.Run("unserializable details are dropped, not raised", func(t *testing.T) {
		store := &mockStore{}
		l := newTestLogger(store)

		assert.NotPanics(t, func() {
			l.LogSuccess(context.Background(), "bad_payload", map[string]any{"ch": make(chan int)}, nil, nil)
		})
		assert.Empty(t, store.created)
	})
}

func TestEnrichmentPreservesCallerKeys(t *testing.T) {
	store := &mockStore{}
	l := newTestLogger(store)

	l.LogError(context.Background(), "odd_caller", errors.New("real failure"),
		map[string]any{"message": "caller text"}, nil, nil)

	require.Len(t, store.created, 1)
	details := detailsOf(t, store.created[0])
	assert.Equal(t, "caller text", details["message"])
}

func TestDomainHelpersShapeDetails(t *testing.T) {
	t.Run("file upload", func(t *testing.T) {
		store := &mockStore{}
		l := newTestLogger(store)

		l.LogFileUpload(context.Background(), "cover.png", 2048, "image/png", "admin_media", nil, nil, nil)

		require.Len(t, store.created, 1)
		assert.Equal(t, "file_upload_completed", store.created[0].Action)
		details := detailsOf(t, store.created[0])
		assert.Equal(t, "cover.png", details["file_name"])
		assert.Equal(t, float64(2048), details["file_size"])
		assert.Equal(t, "image/png", details["file_type"])
		assert.Equal(t, "admin_media", details["upload_context"])
	})

	t.Run("book operation failure", func(t *testing.T) {
		store := &mockStore{}
		l := newTestLogger(store)
		id := uuid.New()

		l.LogBookOperation(context.Background(), "create", id, "X", errors.New("dup title"), nil, nil)

		require.Len(t, store.created, 1)
		entry := store.created[0]
		assert.Equal(t, models.LogTypeError, entry.Type)
		assert.Equal(t, "book_creation_failed", entry.Action)
		details := detailsOf(t, entry)
		assert.Equal(t, id.String(), details["book_id"])
		assert.Equal(t, "X", details["book_title"])
	})

	t.Run("contact form success", func(t *testing.T) {
		store := &mockStore{}
		l := newTestLogger(store)

		l.LogContactFormSubmission(context.Background(), "Reader", "reader@example.com", "Hi", nil, nil)

		require.Len(t, store.created, 1)
		assert.Equal(t, "contact_form_processed", store.created[0].Action)
	})
}

func TestGetLogsAuditsAccessOnce(t *testing.T) {
	store := &mockStore{}
	l := newTestLogger(store)

	l.LogSuccess(context.Background(), "seed_event", nil, nil, nil)

	entries, total, err := l.GetLogs(context.Background(), Filter{Limit: 10},
		&Actor{ID: "admin", Email: "admin@inkpress.dev"}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, entries, 1)

	// One seed plus exactly one logs_accessed entry: the audit of the
	// read must not audit itself.
	require.Len(t, store.created, 2)
	assert.Equal(t, "logs_accessed", store.created[1].Action)
	assert.Equal(t, "admin@inkpress.dev", store.created[1].ActorEmail)
	assert.Equal(t, 1, store.listCalls)
}

func TestGetLogsPropagatesStorageError(t *testing.T) {
	store := &mockStore{listErr: &StorageError{Op: "list", Err: errors.New("down")}}
	l := newTestLogger(store)

	_, _, err := l.GetLogs(context.Background(), Filter{}, nil, nil)
	var serr *StorageError
	require.ErrorAs(t, err, &serr)
	assert.Empty(t, store.created, "a failed read must not be audited as a success")
}

func TestDeleteLogsGuardrail(t *testing.T) {
	store := &mockStore{deleted: 12}
	l := newTestLogger(store)

	for _, days := range []int{0, 1, 6, -3} {
		deleted, err := l.DeleteLogs(context.Background(), days, nil, nil)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr, "days=%d must be rejected", days)
		assert.Zero(t, deleted)
	}
	assert.Empty(t, store.created, "rejected deletes must not touch the store")

	deleted, err := l.DeleteLogs(context.Background(), 7, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(12), deleted)

	require.Len(t, store.created, 1)
	assert.Equal(t, "logs_deleted", store.created[0].Action)
	details := detailsOf(t, store.created[0])
	assert.Equal(t, float64(7), details["older_than_days"])
	assert.Equal(t, float64(12), details["deleted_count"])
}

func TestGetStatsAuditsAccess(t *testing.T) {
	store := &mockStore{}
	l := newTestLogger(store)

	stats, err := l.GetStats(context.Background(), nil, nil)
	require.NoError(t, err)
	require.NotNil(t, stats)

	require.Len(t, store.created, 1)
	assert.Equal(t, "stats_accessed", store.created[0].Action)
}

func TestLogClientEvent(t *testing.T) {
	t.Run("tags source and applies server metadata", func(t *testing.T) {
		store := &mockStore{}
		l := newTestLogger(store)

		id, err := l.LogClientEvent(context.Background(), models.LogTypeError, "react_error_boundary",
			map[string]any{"component_stack": "...", "source": "totally_trustworthy"},
			&RequestMeta{IP: "198.51.100.7", UserAgent: "Mozilla/5.0"})
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, id)

		require.Len(t, store.created, 1)
		details := detailsOf(t, store.created[0])
		assert.Equal(t, "client_side", details["source"], "source tag must be forced")
		assert.Equal(t, "...", details["component_stack"])

		var ctxMap map[string]string
		require.NoError(t, json.Unmarshal(store.created[0].Context, &ctxMap))
		assert.Equal(t, "198.51.100.7", ctxMap["ip_address"])
	})

	t.Run("rejects missing or unknown fields", func(t *testing.T) {
		store := &mockStore{}
		l := newTestLogger(store)

		var verr *ValidationError
		_, err := l.LogClientEvent(context.Background(), models.LogTypeError, "", nil, nil)
		require.ErrorAs(t, err, &verr)

		_, err = l.LogClientEvent(context.Background(), "", "some_action", nil, nil)
		require.ErrorAs(t, err, &verr)

		_, err = l.LogClientEvent(context.Background(), "debug", "some_action", nil, nil)
		require.ErrorAs(t, err, &verr)

		assert.Empty(t, store.created)
	})

	t.Run("propagates storage failure", func(t *testing.T) {
		store := &mockStore{createErr: &StorageError{Op: "create", Err: errors.New("down")}}
		l := newTestLogger(store)

		var serr *StorageError
		_, err := l.LogClientEvent(context.Background(), models.LogTypeInfo, "noop", nil, nil)
		require.ErrorAs(t, err, &serr)
	})
}
