package repository

import (
	"context"

	"github.com/kvn3toj/beforenostr-sub004/domain/model"
)

// IVideoContent is the store of content items whose durations are maintained.
type IVideoContent interface {
	ListVideoContents(ctx context.Context) ([]model.VideoContent, error)
	GetVideoContent(ctx context.Context, id string) (*model.VideoContent, error)
	UpdateDuration(ctx context.Context, id string, seconds int, source model.ConfidenceTier) error
}

type IDurationEventPublisher interface {
	PublishDurationChanged(ctx context.Context, event model.DurationChangedEvent) error
}

// IRecalculationAudit keeps the summaries of past batch runs.
type IRecalculationAudit interface {
	SaveRun(ctx context.Context, summary *model.RecalculationSummary) error
	ListRuns(ctx context.Context, limit int) ([]model.RecalculationSummary, error)
}
