package history

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"partymatch/internal/models"
)

// MatchRecord archives one formed match group.
type MatchRecord struct {
	ID        uint   `gorm:"primaryKey"`
	MatchID   string `gorm:"uniqueIndex"`
	Mode      string
	PlayerIDs string // comma-joined
	Quality   float64
	FormedAt  time.Time
}

// SessionRecord archives a session status transition.
type SessionRecord struct {
	ID          uint   `gorm:"primaryKey"`
	SessionID   string `gorm:"index"`
	Mode        string
	Status      string
	PlayerCount int
	RecordedAt  time.Time
}

// Store persists match and session history. A nil *Store is a valid
// no-op sink so callers don't have to branch when the database is down.
type Store struct {
	db *gorm.DB
}

// Open connects to postgres when databaseURL is set, otherwise to the
// sqlite file at sqlitePath.
func Open(databaseURL, sqlitePath string) (*Store, error) {
	var dialector gorm.Dialector
	if databaseURL != "" {
		dialector = postgres.Open(databaseURL)
	} else {
		dialector = sqlite.Open(sqlitePath)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to history database: %w", err)
	}
	return NewStore(db)
}

func NewStore(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&MatchRecord{}, &SessionRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate history tables: %w", err)
	}
	return &Store{db: db}, nil
}

// RecordMatch stores a formed group.
func (s *Store) RecordMatch(ctx context.Context, matchID, mode string, players []string, quality float64) error {
	if s == nil {
		return nil
	}
	record := &MatchRecord{
		MatchID:   matchID,
		Mode:      mode,
		PlayerIDs: strings.Join(players, ","),
		Quality:   quality,
		FormedAt:  time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to record match: %w", err)
	}
	return nil
}

// RecordSession stores a session's current status.
func (s *Store) RecordSession(ctx context.Context, session *models.GameSession) error {
	if s == nil {
		return nil
	}
	record := &SessionRecord{
		SessionID:   session.ID,
		Mode:        session.Mode,
		Status:      session.Status,
		PlayerCount: len(session.Players),
		RecordedAt:  time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to record session: %w", err)
	}
	return nil
}

// RecentMatches returns the newest formed groups, most recent first.
func (s *Store) RecentMatches(ctx context.Context, limit int) ([]MatchRecord, error) {
	if s == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	var records []MatchRecord
	err := s.db.WithContext(ctx).
		Order("formed_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load recent matches: %w", err)
	}
	return records, nil
}

// Players splits the stored comma-joined id list.
func (r *MatchRecord) Players() []string {
	if r.PlayerIDs == "" {
		return nil
	}
	return strings.Split(r.PlayerIDs, ",")
}
