package types

import "time"

// Streamer is a confirmed (or manually added) Argentine streaming channel.
// ChannelID is the YouTube channel ID and the only identity we trust;
// everything else may be refreshed on re-sighting.
type Streamer struct {
	ChannelID      string `gorm:"primaryKey;size:64"`
	Name           string `gorm:"size:255;not null"`
	Category       string `gorm:"size:64"`
	Province       string `gorm:"size:64;index"`
	ProvinceOthers string `gorm:"size:255"` // ambiguous candidates, comma separated
	Subscribers    int64
	Certainty      int    `gorm:"index"`
	Method         string `gorm:"size:32"`
	Indicators     string `gorm:"type:text"`
	URL            string `gorm:"size:255"`
	Description    string `gorm:"type:text"`
	DiscoveredVia  string `gorm:"size:255"`
	FirstSeenPhase string `gorm:"size:32"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SearchCursor tracks pagination progress for one search term so an
// interrupted run resumes instead of restarting the plan.
type SearchCursor struct {
	ID           uint64 `gorm:"primaryKey;autoIncrement"`
	Term         string `gorm:"size:255;uniqueIndex;not null"`
	Phase        string `gorm:"size:32"`
	PagesFetched int
	PageToken    string `gorm:"size:255"`
	Exhausted    bool
	UpdatedAt    time.Time
}

// SearchLog records one completed term search within a run.
type SearchLog struct {
	ID            uint64 `gorm:"primaryKey;autoIncrement"`
	RunID         string `gorm:"size:36;index"`
	Term          string `gorm:"size:255"`
	Phase         string `gorm:"size:32"`
	PagesExplored int
	ChannelsFound int
	CreatedAt     time.Time
}

// DailyStat is the per-day rollup, keyed by date (YYYY-MM-DD).
type DailyStat struct {
	Date              string `gorm:"primaryKey;size:10"`
	ChannelsAnalyzed  int
	StreamersFound    int
	APICalls          int
	ProvinceBreakdown string `gorm:"type:text"` // JSON map province -> count
}

type Setting struct {
	ID     uint8  `gorm:"primaryKey"`
	Name   string `gorm:"size:32;not null"`
	Value  string `gorm:"type:text;not null"`
	Active uint8  `gorm:"not null"`
}
