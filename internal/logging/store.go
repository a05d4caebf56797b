package logging

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/inkpress/backoffice/internal/models"
	"gorm.io/gorm"
)

// Filter narrows a log listing. Zero values mean "no constraint".
type Filter struct {
	Type         string     // exact match on entry type
	Action       string     // exact match on action
	ActionPrefix string     // prefix match on action; ignored when Action is set
	UserEmail    string     // exact match on actor email
	DateFrom     *time.Time // inclusive lower bound on created_at
	DateTo       *time.Time // inclusive upper bound on created_at
	Limit        int        // page size; <= 0 returns all matches
	Offset       int
}

// ActionCount is one row of the per-action aggregate.
type ActionCount struct {
	Action string `json:"action"`
	Count  int64  `json:"count"`
}

// Stats is the aggregate view over the whole log table.
type Stats struct {
	Total      int64            `json:"total"`
	ByType     map[string]int64 `json:"by_type"`
	TopActions []ActionCount    `json:"top_actions"`
	Last24h    int64            `json:"last_24h"`
	Last7d     int64            `json:"last_7d"`
}

// Store is the persistence layer for log entries. It owns the record
// layout and the raw query shapes; everything above it goes through the
// Logger facade. It never retries a failed write.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// CreateEntry inserts one entry and returns its ID. The entry's
// created_at is always assigned here from server time; whatever the
// caller put there is discarded.
func (s *Store) CreateEntry(ctx context.Context, entry *models.LogEntry) (uuid.UUID, error) {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.CreatedAt = time.Now().UTC()

	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return uuid.Nil, storageErr("create", err)
	}
	return entry.ID, nil
}

// ListEntries returns one page of matching entries, newest first, plus
// the total match count ignoring pagination.
func (s *Store) ListEntries(ctx context.Context, f Filter) ([]models.LogEntry, int64, error) {
	query := s.filtered(ctx, f)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, storageErr("count", err)
	}

	page := query.Order("created_at DESC, id DESC")
	if f.Limit > 0 {
		page = page.Offset(f.Offset).Limit(f.Limit)
	}

	var entries []models.LogEntry
	if err := page.Find(&entries).Error; err != nil {
		return nil, 0, storageErr("list", err)
	}
	return entries, total, nil
}

// Stats aggregates the log table: totals by type, the busiest actions,
// and recent-activity windows. The grouping is an extension point, not
// a fixed contract.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	base := s.db.WithContext(ctx).Model(&models.LogEntry{})

	stats := &Stats{ByType: make(map[string]int64)}
	if err := base.Count(&stats.Total).Error; err != nil {
		return nil, storageErr("stats total", err)
	}

	var byType []struct {
		Type  string
		Count int64
	}
	if err := s.db.WithContext(ctx).Model(&models.LogEntry{}).
		Select("type, count(*) as count").
		Group("type").
		Scan(&byType).Error; err != nil {
		return nil, storageErr("stats by type", err)
	}
	for _, row := range byType {
		stats.ByType[row.Type] = row.Count
	}

	if err := s.db.WithContext(ctx).Model(&models.LogEntry{}).
		Select("action, count(*) as count").
		Group("action").
		Order("count DESC").
		Limit(10).
		Scan(&stats.TopActions).Error; err != nil {
		return nil, storageErr("stats top actions", err)
	}

	now := time.Now().UTC()
	if err := s.db.WithContext(ctx).Model(&models.LogEntry{}).
		Where("created_at >= ?", now.Add(-24*time.Hour)).
		Count(&stats.Last24h).Error; err != nil {
		return nil, storageErr("stats 24h window", err)
	}
	if err := s.db.WithContext(ctx).Model(&models.LogEntry{}).
		Where("created_at >= ?", now.AddDate(0, 0, -7)).
		Count(&stats.Last7d).Error; err != nil {
		return nil, storageErr("stats 7d window", err)
	}

	return stats, nil
}

// DeleteOlderThan removes every entry whose created_at is older than
// now minus days, and returns the number removed. Re-running with the
// same cutoff after completion removes nothing further. The 7-day
// guardrail is enforced by the facade, not here.
func (s *Store) DeleteOlderThan(ctx context.Context, days int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -days)

	res := s.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.LogEntry{})
	if res.Error != nil {
		return 0, storageErr("delete", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *Store) filtered(ctx context.Context, f Filter) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&models.LogEntry{})

	if f.Type != "" {
		query = query.Where("type = ?", f.Type)
	}
	if f.Action != "" {
		query = query.Where("action = ?", f.Action)
	} else if f.ActionPrefix != "" {
		query = query.Where("action LIKE ?", f.ActionPrefix+"%")
	}
	if f.UserEmail != "" {
		query = query.Where("actor_email = ?", f.UserEmail)
	}
	if f.DateFrom != nil {
		query = query.Where("created_at >= ?", *f.DateFrom)
	}
	if f.DateTo != nil {
		query = query.Where("created_at <= ?", *f.DateTo)
	}
	return query
}
