// Package data is the persistence boundary for the cartography run.
package data

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/PobleteFerreira/cartografia-streaming-argentino-FULL/src/cartografo/types"
	"gorm.io/gorm"
)

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates the schema.
func (s *Store) Migrate() error {
	return s.db.AutoMigrate(
		&types.Streamer{},
		&types.SearchCursor{},
		&types.SearchLog{},
		&types.DailyStat{},
		&types.Setting{},
	)
}

// ExistingIDs returns every persisted channel ID, fetched once at startup to
// seed the deduplicator.
func (s *Store) ExistingIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&types.Streamer{}).Pluck("channel_id", &ids).Error
	return ids, err
}

// UpsertStreamer creates the record, or refreshes an existing one only when
// the new classification is at least as confident. Subscriber counts are
// always refreshed. Returns whether a new row was created.
func (s *Store) UpsertStreamer(ctx context.Context, rec *types.Streamer) (bool, error) {
	created := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing types.Streamer
		err := tx.First(&existing, "channel_id = ?", rec.ChannelID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			created = true
			return tx.Create(rec).Error
		}
		if err != nil {
			return err
		}

		if rec.Certainty >= existing.Certainty {
			return tx.Model(&existing).Updates(map[string]interface{}{
				"name":            rec.Name,
				"category":        rec.Category,
				"province":        rec.Province,
				"province_others": rec.ProvinceOthers,
				"subscribers":     rec.Subscribers,
				"certainty":       rec.Certainty,
				"method":          rec.Method,
				"indicators":      rec.Indicators,
				"description":     rec.Description,
			}).Error
		}
		return tx.Model(&existing).Update("subscribers", rec.Subscribers).Error
	})
	return created, err
}

func (s *Store) RefreshSubscribers(ctx context.Context, channelID string, subs int64) error {
	return s.db.WithContext(ctx).
		Model(&types.Streamer{}).
		Where("channel_id = ?", channelID).
		Update("subscribers", subs).Error
}

// LoadCursor returns the saved pagination state for a term, or nil when the
// term has never been searched.
func (s *Store) LoadCursor(ctx context.Context, term string) (*types.SearchCursor, error) {
	var cursor types.SearchCursor
	err := s.db.WithContext(ctx).First(&cursor, "term = ?", term).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cursor, nil
}

func (s *Store) SaveCursor(ctx context.Context, cursor *types.SearchCursor) error {
	cursor.UpdatedAt = time.Now()
	if cursor.ID != 0 {
		return s.db.WithContext(ctx).Save(cursor).Error
	}

	var existing types.SearchCursor
	err := s.db.WithContext(ctx).First(&existing, "term = ?", cursor.Term).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.db.WithContext(ctx).Create(cursor).Error
	}
	if err != nil {
		return err
	}
	cursor.ID = existing.ID
	return s.db.WithContext(ctx).Save(cursor).Error
}

func (s *Store) LogSearch(ctx context.Context, entry *types.SearchLog) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

// RollupDaily accumulates the run's numbers into today's stat row.
func (s *Store) RollupDaily(ctx context.Context, analyzed, found, apiCalls int, byProvince map[string]int) error {
	date := time.Now().Format("2006-01-02")

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stat types.DailyStat
		err := tx.First(&stat, "date = ?", date).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			stat = types.DailyStat{Date: date}
		} else if err != nil {
			return err
		}

		merged := make(map[string]int)
		if stat.ProvinceBreakdown != "" {
			_ = json.Unmarshal([]byte(stat.ProvinceBreakdown), &merged)
		}
		for p, n := range byProvince {
			merged[p] += n
		}
		breakdown, _ := json.Marshal(merged)

		stat.ChannelsAnalyzed += analyzed
		stat.StreamersFound += found
		stat.APICalls += apiCalls
		stat.ProvinceBreakdown = string(breakdown)

		return tx.Save(&stat).Error
	})
}
