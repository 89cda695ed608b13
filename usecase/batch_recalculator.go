package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/kvn3toj/beforenostr-sub004/domain/model"
	"github.com/kvn3toj/beforenostr-sub004/domain/repository"
	"github.com/kvn3toj/beforenostr-sub004/infrastructure/logger"
	"github.com/kvn3toj/beforenostr-sub004/infrastructure/metrics"
	"github.com/kvn3toj/beforenostr-sub004/infrastructure/utils"
)

const (
	DefaultBatchWorkers = 1
	DefaultBatchPacing  = 1500 * time.Millisecond

	outcomeUpdated   = "updated"
	outcomeUnchanged = "unchanged"
	outcomeSkipped   = "skipped_protected"
	outcomeError     = "error"
	outcomeCancelled = "cancelled"
)

type BatchConfig struct {
	Workers int
	// Pacing is the minimum delay a worker leaves between two items that
	// reached the network.
	Pacing time.Duration
}

type IBatchRecalculator interface {
	Run(ctx context.Context, mode model.RecalculationMode) (*model.RecalculationSummary, error)
}

type BatchRecalculator struct {
	cfg       BatchConfig
	store     repository.IVideoContent
	resolver  IDurationResolver
	extractor IMetadataExtractor
	policy    IProtectionPolicy
	publisher repository.IDurationEventPublisher
	audit     repository.IRecalculationAudit
}

// NewBatchRecalculator accepts nil publisher and audit; both are optional.
func NewBatchRecalculator(
	cfg BatchConfig,
	store repository.IVideoContent,
	resolver IDurationResolver,
	extractor IMetadataExtractor,
	policy IProtectionPolicy,
	publisher repository.IDurationEventPublisher,
	audit repository.IRecalculationAudit,
) IBatchRecalculator {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultBatchWorkers
	}
	if cfg.Pacing < 0 {
		cfg.Pacing = DefaultBatchPacing
	}
	if extractor == nil {
		extractor = NewMetadataExtractor()
	}
	return &BatchRecalculator{
		cfg:       cfg,
		store:     store,
		resolver:  resolver,
		extractor: extractor,
		policy:    policy,
		publisher: publisher,
		audit:     audit,
	}
}

type runState struct {
	mu      sync.Mutex
	summary *model.RecalculationSummary
}

func (s *runState) record(mode model.RecalculationMode, outcome string, item string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch outcome {
	case outcomeUpdated:
		s.summary.Updated++
	case outcomeUnchanged:
		s.summary.Unchanged++
	case outcomeSkipped:
		s.summary.SkippedProtected++
	case outcomeError:
		s.summary.Errors++
		s.summary.Failures = append(s.summary.Failures, model.RecalculationFailure{
			VideoContentID: item,
			Error:          err.Error(),
		})
	}
	metrics.RecordBatchItem(string(mode), outcome)
}

func (b *BatchRecalculator) Run(ctx context.Context, mode model.RecalculationMode) (*model.RecalculationSummary, error) {
	if mode != model.RecalculateOnlyMissing && mode != model.RecalculateForceAll {
		return nil, fmt.Errorf("unknown recalculation mode %q", mode)
	}

	log := logger.GetLogger().WithField("mode", mode)

	items, err := b.store.ListVideoContents(ctx)
	if err != nil {
		log.WithField("error", err.Error()).Error("Error listing video contents")
		return nil, fmt.Errorf("list video contents: %w", err)
	}

	selected := make([]model.VideoContent, 0, len(items))
	for _, item := range items {
		if mode == model.RecalculateOnlyMissing && item.DurationSeconds != nil && *item.DurationSeconds > 0 {
			continue
		}
		selected = append(selected, item)
	}

	state := &runState{summary: &model.RecalculationSummary{
		RunID:     uuid.NewString(),
		Mode:      mode,
		Total:     len(selected),
		StartedAt: utils.GetCurrentTime(),
	}}
	log = log.WithField("runId", state.summary.RunID)
	log.WithField("total", len(selected)).Info("Recalculation started")

	jobs := make(chan model.VideoContent, len(selected))
	for _, item := range selected {
		jobs <- item
	}
	close(jobs)

	var g errgroup.Group
	g.SetLimit(b.cfg.Workers)
	for w := 0; w < b.cfg.Workers; w++ {
		g.Go(func() error {
			b.work(ctx, mode, state, jobs)
			return nil
		})
	}
	_ = g.Wait()

	summary := state.summary
	summary.Cancelled = ctx.Err() != nil
	summary.FinishedAt = utils.GetCurrentTime()
	metrics.RecordBatchRun(string(mode), summary.Cancelled)

	if b.audit != nil {
		if err := b.audit.SaveRun(context.WithoutCancel(ctx), summary); err != nil {
			log.WithField("error", err.Error()).Warn("Error saving recalculation run")
		}
	}

	log.WithFields(map[string]interface{}{
		"updated":          summary.Updated,
		"unchanged":        summary.Unchanged,
		"skippedProtected": summary.SkippedProtected,
		"errors":           summary.Errors,
		"cancelled":        summary.Cancelled,
	}).Info("Recalculation finished")
	return summary, nil
}

func (b *BatchRecalculator) work(ctx context.Context, mode model.RecalculationMode, state *runState, jobs <-chan model.VideoContent) {
	limit := rate.Inf
	if b.cfg.Pacing > 0 {
		limit = rate.Every(b.cfg.Pacing)
	}
	limiter := rate.NewLimiter(limit, 1)
	// The first item goes out immediately; the token is spent up front so the
	// next network-touching item waits a full interval.
	limiter.Allow()

	pace := false
	for item := range jobs {
		if ctx.Err() != nil {
			return
		}
		if pace {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
		}
		touched := b.recalculate(ctx, mode, state, item)
		pace = touched
	}
}

// recalculate handles one item and reports whether it reached the network.
func (b *BatchRecalculator) recalculate(ctx context.Context, mode model.RecalculationMode, state *runState, item model.VideoContent) bool {
	log := logger.GetLogger().WithField("videoContentId", item.ID)

	descriptor, err := b.extractor.Extract(item.Content)
	if err != nil {
		state.record(mode, outcomeError, item.ID, err)
		return false
	}

	result, err := b.resolver.ResolveDescriptor(ctx, descriptor, ResolveOptions{
		BypassCache: mode == model.RecalculateForceAll,
	})
	if err != nil {
		state.record(mode, outcomeError, item.ID, err)
		return descriptor.NetworkAttempts > 0
	}
	touched := result.NetworkTouched

	// The declared duration is only reported as the previous value; the
	// policy judges what was actually stored.
	storedSeconds := 0
	oldSeconds := descriptor.DeclaredSeconds
	if item.DurationSeconds != nil {
		storedSeconds = *item.DurationSeconds
		oldSeconds = storedSeconds
	}
	if item.DurationSeconds != nil && storedSeconds == result.Seconds && item.DurationSource == result.Source {
		state.record(mode, outcomeUnchanged, item.ID, nil)
		return touched
	}

	// only_missing fills gaps; overwriting existing values is what needs guarding.
	if mode == model.RecalculateForceAll && b.policy != nil {
		decision := b.policy.ShouldApply(item.ID, storedSeconds, result.Seconds, result.Source, item.DurationSource, func(id string) bool {
			return b.policy.IsProtected(id) || (descriptor.ExternalID != "" && b.policy.IsProtected(descriptor.ExternalID))
		})
		if !decision.Apply {
			log.WithFields(map[string]interface{}{
				"old":    storedSeconds,
				"new":    result.Seconds,
				"reason": decision.Reason,
			}).Info("Duration change rejected")
			state.record(mode, outcomeSkipped, item.ID, nil)
			return touched
		}
	}

	// An item still in flight when the run is cancelled is not committed.
	if ctx.Err() != nil {
		metrics.RecordBatchItem(string(mode), outcomeCancelled)
		return touched
	}

	if err := b.store.UpdateDuration(ctx, item.ID, result.Seconds, result.Source); err != nil {
		log.WithField("error", err.Error()).Error("Error updating duration")
		state.record(mode, outcomeError, item.ID, err)
		return touched
	}
	state.record(mode, outcomeUpdated, item.ID, nil)

	if b.publisher != nil {
		event := model.DurationChangedEvent{
			VideoContentID: item.ID,
			ExternalID:     descriptor.ExternalID,
			OldSeconds:     oldSeconds,
			NewSeconds:     result.Seconds,
			Source:         result.Source,
			RunID:          state.summary.RunID,
			ChangedAt:      utils.GetCurrentTime(),
		}
		if err := b.publisher.PublishDurationChanged(ctx, event); err != nil {
			log.WithField("error", err.Error()).Warn("Error publishing duration change")
		}
	}
	return touched
}
