package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/inkpress/backoffice/internal/models"
)

// MinRetentionDays is the guardrail for bulk deletion: entries younger
// than this are never purged, regardless of what an operator asks for.
const MinRetentionDays = 7

// Actor is the identity attributed to a logged event, when known.
// Anonymous and system events pass nil.
type Actor struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// RequestMeta carries the server-observed request metadata attached to
// an entry's context. Never populate it from client-claimed values.
type RequestMeta struct {
	IP        string
	UserAgent string
}

// EntryStore is the persistence contract the facade writes through.
type EntryStore interface {
	CreateEntry(ctx context.Context, entry *models.LogEntry) (uuid.UUID, error)
	ListEntries(ctx context.Context, f Filter) ([]models.LogEntry, int64, error)
	Stats(ctx context.Context) (*Stats, error)
	DeleteOlderThan(ctx context.Context, days int) (int64, error)
}

// Logger is the single entry point all application code uses to emit or
// query audit logs. The Log* writers are fail-safe: they never return an
// error and never panic, degrading to the fallback slog channel when the
// store is unavailable. Query and delete operations do propagate
// failures, since those are explicit admin actions.
//
// Construct one Logger in main and inject it into every handler.
type Logger struct {
	store    EntryStore
	fallback *slog.Logger
	metrics  *Metrics
	cache    *StatsCache // optional
}

func NewLogger(store EntryStore, fallback *slog.Logger, metrics *Metrics, cache *StatsCache) *Logger {
	return &Logger{store: store, fallback: fallback, metrics: metrics, cache: cache}
}

// LogError records a failed operation. The error's message and type are
// layered into details under the "error" key.
func (l *Logger) LogError(ctx context.Context, action string, cause error, details map[string]any, actor *Actor, req *RequestMeta) {
	l.emit(ctx, models.LogTypeError, action, withErrorDetail(details, cause), actor, req)
}

// LogSuccess records a completed operation.
func (l *Logger) LogSuccess(ctx context.Context, action string, details map[string]any, actor *Actor, req *RequestMeta) {
	l.emit(ctx, models.LogTypeSuccess, action, details, actor, req)
}

// LogInfo records a neutral event.
func (l *Logger) LogInfo(ctx context.Context, action string, details map[string]any, actor *Actor, req *RequestMeta) {
	l.emit(ctx, models.LogTypeInfo, action, details, actor, req)
}

// LogContactFormSubmission records the outcome of a contact form
// submission with the fixed sub-schema for that action family.
func (l *Logger) LogContactFormSubmission(ctx context.Context, name, email, subject string, cause error, req *RequestMeta) {
	details := map[string]any{
		"name":    name,
		"email":   email,
		"subject": subject,
	}
	if cause != nil {
		l.LogError(ctx, "contact_form_failed", cause, details, nil, req)
		return
	}
	l.LogSuccess(ctx, "contact_form_processed", details, nil, req)
}

// LogFileUpload records a media upload attempt. File uploads always
// carry file_name, file_size, file_type and upload_context.
func (l *Logger) LogFileUpload(ctx context.Context, fileName string, fileSize int64, fileType, uploadContext string, cause error, actor *Actor, req *RequestMeta) {
	details := map[string]any{
		"file_name":      fileName,
		"file_size":      fileSize,
		"file_type":      fileType,
		"upload_context": uploadContext,
	}
	if cause != nil {
		l.LogError(ctx, "file_upload_failed", cause, details, actor, req)
		return
	}
	l.LogSuccess(ctx, "file_upload_completed", details, actor, req)
}

// Book operation verbs accepted by LogBookOperation.
var bookActions = map[string][2]string{
	"create": {"book_created", "book_creation_failed"},
	"update": {"book_updated", "book_update_failed"},
	"delete": {"book_deleted", "book_deletion_failed"},
}

// LogBookOperation records a catalog mutation. op is one of create,
// update, delete; anything else falls back to a generic action name.
func (l *Logger) LogBookOperation(ctx context.Context, op string, bookID uuid.UUID, title string, cause error, actor *Actor, req *RequestMeta) {
	actions, ok := bookActions[op]
	if !ok {
		actions = [2]string{"book_" + op, "book_" + op + "_failed"}
	}
	details := map[string]any{
		"operation":  op,
		"book_id":    bookID.String(),
		"book_title": title,
	}
	if cause != nil {
		l.LogError(ctx, actions[1], cause, details, actor, req)
		return
	}
	l.LogSuccess(ctx, actions[0], details, actor, req)
}

// LogAdminAuth records an admin login attempt.
func (l *Logger) LogAdminAuth(ctx context.Context, email string, cause error, req *RequestMeta) {
	details := map[string]any{"email": email}
	if cause != nil {
		l.LogError(ctx, "admin_login_failed", cause, details, nil, req)
		return
	}
	l.LogSuccess(ctx, "admin_login", details, nil, req)
}

// LogClientEvent persists an entry relayed from an untrusted browser
// context. Unlike the Log* writers it validates and propagates errors,
// because the relay endpoint reports the outcome to its caller. The
// source tag is always overwritten and ip/user-agent always come from
// the server-observed request.
func (l *Logger) LogClientEvent(ctx context.Context, typ, action string, details map[string]any, req *RequestMeta) (uuid.UUID, error) {
	if action == "" {
		return uuid.Nil, &ValidationError{Field: "action", Message: "is required"}
	}
	if !models.ValidLogType(typ) {
		return uuid.Nil, &ValidationError{Field: "type", Message: "must be one of error, success, info"}
	}

	tagged := copyDetails(details)
	tagged["source"] = "client_side"

	id, err := l.persist(ctx, typ, action, tagged, nil, req)
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// GetLogs lists entries through the store and audits the access itself.
// The audit hop goes through the plain write path, which never reads,
// so it cannot recurse.
func (l *Logger) GetLogs(ctx context.Context, f Filter, actor *Actor, req *RequestMeta) ([]models.LogEntry, int64, error) {
	entries, total, err := l.store.ListEntries(ctx, f)
	if err != nil {
		return nil, 0, err
	}

	l.LogSuccess(ctx, "logs_accessed", map[string]any{
		"filter":   describeFilter(f),
		"returned": len(entries),
		"total":    total,
	}, actor, req)

	return entries, total, nil
}

// GetStats returns the aggregate view, served from the optional cache
// when fresh, and audits the access.
func (l *Logger) GetStats(ctx context.Context, actor *Actor, req *RequestMeta) (*Stats, error) {
	if stats, ok := l.cache.Get(ctx); ok {
		l.LogSuccess(ctx, "stats_accessed", map[string]any{"cached": true}, actor, req)
		return stats, nil
	}

	stats, err := l.store.Stats(ctx)
	if err != nil {
		return nil, err
	}
	l.cache.Set(ctx, stats)

	l.LogSuccess(ctx, "stats_accessed", map[string]any{"cached": false}, actor, req)
	return stats, nil
}

// DeleteLogs purges entries older than days and audits the purge.
// Anything below MinRetentionDays is rejected outright, protecting
// recent diagnostic history from operator error.
func (l *Logger) DeleteLogs(ctx context.Context, days int, actor *Actor, req *RequestMeta) (int64, error) {
	if days < MinRetentionDays {
		return 0, &ValidationError{
			Field:   "older_than_days",
			Message: fmt.Sprintf("must be at least %d", MinRetentionDays),
		}
	}

	deleted, err := l.store.DeleteOlderThan(ctx, days)
	if err != nil {
		return 0, err
	}

	l.LogSuccess(ctx, "logs_deleted", map[string]any{
		"older_than_days": days,
		"deleted_count":   deleted,
	}, actor, req)

	return deleted, nil
}

// emit is the fail-safe write path behind every Log* method. A store
// failure, a rejected entry, or even a panic degrades to the fallback
// channel; the caller's control flow is never disturbed.
func (l *Logger) emit(ctx context.Context, typ, action string, details map[string]any, actor *Actor, req *RequestMeta) {
	defer func() {
		if r := recover(); r != nil {
			l.metrics.EntriesDropped.Inc()
			l.fallback.Error("audit write panicked", "action", action, "panic", r)
		}
	}()

	if _, err := l.persist(ctx, typ, action, details, actor, req); err != nil {
		l.metrics.EntriesDropped.Inc()
		l.fallback.Error("audit write failed", "type", typ, "action", action, "error", err)
	}
}

func (l *Logger) persist(ctx context.Context, typ, action string, details map[string]any, actor *Actor, req *RequestMeta) (uuid.UUID, error) {
	entry, err := newEntry(typ, action, details, actor, req)
	if err != nil {
		return uuid.Nil, err
	}

	id, err := l.store.CreateEntry(ctx, entry)
	if err != nil {
		return uuid.Nil, err
	}
	l.metrics.EntriesWritten.WithLabelValues(typ).Inc()
	return id, nil
}

func newEntry(typ, action string, details map[string]any, actor *Actor, req *RequestMeta) (*models.LogEntry, error) {
	if action == "" {
		return nil, &ValidationError{Field: "action", Message: "is required"}
	}
	if !models.ValidLogType(typ) {
		return nil, &ValidationError{Field: "type", Message: "must be one of error, success, info"}
	}

	if details == nil {
		details = map[string]any{}
	}
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return nil, &ValidationError{Field: "details", Message: "not JSON-serializable: " + err.Error()}
	}

	entry := &models.LogEntry{
		Type:    typ,
		Action:  action,
		Details: detailsJSON,
	}

	if req != nil {
		ctxJSON, err := json.Marshal(map[string]string{
			"ip_address": req.IP,
			"user_agent": req.UserAgent,
		})
		if err != nil {
			return nil, &ValidationError{Field: "context", Message: err.Error()}
		}
		entry.Context = ctxJSON
	}
	if actor != nil {
		entry.ActorID = actor.ID
		entry.ActorEmail = actor.Email
	}

	return entry, nil
}

// withErrorDetail layers the failure cause into details without
// clobbering any other caller-supplied key.
func withErrorDetail(details map[string]any, cause error) map[string]any {
	out := copyDetails(details)
	if cause != nil {
		out["error"] = map[string]any{
			"message": cause.Error(),
			"type":    fmt.Sprintf("%T", cause),
		}
	}
	return out
}

func copyDetails(details map[string]any) map[string]any {
	out := make(map[string]any, len(details)+1)
	for k, v := range details {
		out[k] = v
	}
	return out
}

func describeFilter(f Filter) map[string]any {
	desc := map[string]any{}
	if f.Type != "" {
		desc["type"] = f.Type
	}
	if f.Action != "" {
		desc["action"] = f.Action
	}
	if f.ActionPrefix != "" {
		desc["action_prefix"] = f.ActionPrefix
	}
	if f.UserEmail != "" {
		desc["user_email"] = f.UserEmail
	}
	if f.DateFrom != nil {
		desc["date_from"] = f.DateFrom
	}
	if f.DateTo != nil {
		desc["date_to"] = f.DateTo
	}
	if f.Limit > 0 {
		desc["limit"] = f.Limit
		desc["offset"] = f.Offset
	}
	return desc
}
