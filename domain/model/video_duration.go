package model

import (
	"time"
)

// ConfidenceTier ranks how trustworthy a resolved duration is.
type ConfidenceTier string

const (
	TierKnownOverride     ConfidenceTier = "known_override"
	TierAPI               ConfidenceTier = "api"
	TierScrape            ConfidenceTier = "scrape"
	TierTitleTimecode     ConfidenceTier = "title_timecode"
	TierHashFallback      ConfidenceTier = "hash_fallback"
	TierCategoryHeuristic ConfidenceTier = "category_heuristic"
)

var tierRanks = map[ConfidenceTier]int{
	TierKnownOverride:     6,
	TierAPI:               5,
	TierScrape:            4,
	TierTitleTimecode:     3,
	TierHashFallback:      2,
	TierCategoryHeuristic: 1,
}

// Rank returns 0 for unknown tiers.
func (t ConfidenceTier) Rank() int {
	return tierRanks[t]
}

func (t ConfidenceTier) HigherThan(other ConfidenceTier) bool {
	return t.Rank() > other.Rank()
}

func (t ConfidenceTier) IsHeuristic() bool {
	return t == TierTitleTimecode || t == TierHashFallback || t == TierCategoryHeuristic
}

func (t ConfidenceTier) Valid() bool {
	_, ok := tierRanks[t]
	return ok
}

// VideoDescriptor is the normalized view of a content descriptor. It is derived
// on every resolution and never stored.
type VideoDescriptor struct {
	RawContent      string `json:"rawContent"`
	ExternalID      string `json:"externalId,omitempty"`
	URL             string `json:"url,omitempty"`
	Title           string `json:"title,omitempty"`
	Author          string `json:"author,omitempty"`
	Category        string `json:"category,omitempty"`
	DeclaredSeconds int    `json:"declaredSeconds,omitempty"`
	ExistsConfirmed bool   `json:"-"`
	// NetworkAttempts counts strategy calls that reached a remote service.
	NetworkAttempts int    `json:"-"`
}

// HasExternalID reports whether the descriptor names a hosted video.
func (d *VideoDescriptor) HasExternalID() bool {
	return d != nil && d.ExternalID != ""
}

// HintText joins the free text hints used by the keyword heuristics.
func (d *VideoDescriptor) HintText() string {
	text := d.Category
	for _, s := range []string{d.Title, d.Author} {
		if s == "" {
			continue
		}
		if text != "" {
			text += " "
		}
		text += s
	}
	if text == "" && d.ExternalID == "" && d.URL == "" {
		text = d.RawContent
	}
	return text
}

type DurationResult struct {
	Seconds        int            `json:"seconds"`
	Source         ConfidenceTier `json:"source"`
	ResolvedAt     time.Time      `json:"resolvedAt"`
	FromCache      bool           `json:"-"`
	NetworkTouched bool           `json:"-"`
}

// CacheEntry is the cached value for one external ID. Source keeps the tier of
// the resolution that produced it.
type CacheEntry struct {
	Key       string         `json:"key"`
	Seconds   int            `json:"seconds"`
	Source    ConfidenceTier `json:"source"`
	ExpiresAt time.Time      `json:"expiresAt"`
}

// KnownOverride is a human verified duration for one external ID.
type KnownOverride struct {
	VideoID string `json:"videoId" mapstructure:"videoId"`
	Seconds int    `json:"seconds" mapstructure:"seconds"`
}

type LightMetadata struct {
	Title  string `json:"title"`
	Author string `json:"author_name"`
}

// VideoContent is a stored content item whose duration the batch maintains.
type VideoContent struct {
	ID              string         `json:"id" gorm:"column:id;primaryKey;size:64"`
	Content         string         `json:"content" gorm:"column:content"`
	DurationSeconds *int           `json:"durationSeconds,omitempty" gorm:"column:duration_seconds"`
	DurationSource  ConfidenceTier `json:"durationSource,omitempty" gorm:"column:duration_source;size:32"`
	UpdatedAt       time.Time      `json:"updatedAt" gorm:"column:updated_at;autoUpdateTime"`
}

func (VideoContent) TableName() string {
	return "video_content"
}

type RecalculationMode string

const (
	RecalculateOnlyMissing RecalculationMode = "only_missing"
	RecalculateForceAll    RecalculationMode = "force_all"
)

type RecalculationFailure struct {
	VideoContentID string `json:"videoContentId" bson:"videoContentId"`
	Error          string `json:"error" bson:"error"`
}

type RecalculationSummary struct {
	RunID            string                 `json:"runId" bson:"runId"`
	Mode             RecalculationMode      `json:"mode" bson:"mode"`
	Total            int                    `json:"total" bson:"total"`
	Updated          int                    `json:"updated" bson:"updated"`
	Unchanged        int                    `json:"unchanged" bson:"unchanged"`
	SkippedProtected int                    `json:"skippedProtected" bson:"skippedProtected"`
	Errors           int                    `json:"errors" bson:"errors"`
	Failures         []RecalculationFailure `json:"failures,omitempty" bson:"failures,omitempty"`
	Cancelled        bool                   `json:"cancelled" bson:"cancelled"`
	StartedAt        time.Time              `json:"startedAt" bson:"startedAt"`
	FinishedAt       time.Time              `json:"finishedAt" bson:"finishedAt"`
}

// DurationChangedEvent is published after a recalculated duration is committed.
type DurationChangedEvent struct {
	VideoContentID string         `json:"videoContentId"`
	ExternalID     string         `json:"externalId,omitempty"`
	OldSeconds     int            `json:"oldSeconds"`
	NewSeconds     int            `json:"newSeconds"`
	Source         ConfidenceTier `json:"source"`
	RunID          string         `json:"runId"`
	ChangedAt      time.Time      `json:"changedAt"`
}
