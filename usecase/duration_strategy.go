package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/kvn3toj/beforenostr-sub004/domain/model"
	"github.com/kvn3toj/beforenostr-sub004/domain/repository"
	"github.com/kvn3toj/beforenostr-sub004/infrastructure/logger"
	"github.com/kvn3toj/beforenostr-sub004/infrastructure/utils"
)

const (
	StrategyAPI           = "api"
	StrategyScrape        = "scrape"
	StrategyLightMetadata = "light_metadata"
	StrategyHeuristic     = "heuristic"
)

// DurationStrategy is one link of the resolution chain. A miss is reported
// as ok == false; strategies never return errors.
type DurationStrategy interface {
	Name() string
	AttemptResolve(ctx context.Context, descriptor *model.VideoDescriptor) (*model.DurationResult, bool)
}

// availability is implemented by sources that can tell up front that they
// will not make a call.
type availability interface {
	Available() bool
}

func newResult(seconds int, tier model.ConfidenceTier) *model.DurationResult {
	return &model.DurationResult{
		Seconds:    seconds,
		Source:     tier,
		ResolvedAt: utils.GetCurrentTime(),
	}
}

func logMiss(strategy, externalID string, err error) {
	entry := logger.GetLogger().WithFields(map[string]interface{}{
		"strategy": strategy,
		"videoId":  externalID,
		"error":    err.Error(),
	})
	switch {
	case errors.Is(err, model.ErrProviderUnavailable):
		entry.Debug("Duration strategy unavailable")
	case errors.Is(err, model.ErrNetworkFailure), errors.Is(err, context.DeadlineExceeded):
		entry.Warn("Duration strategy network failure")
	default:
		entry.Info("Duration strategy miss")
	}
}

type sourceStrategy struct {
	name   string
	tier   model.ConfidenceTier
	source repository.IDurationSource
}

// NewAPIStrategy resolves through the authoritative platform API.
func NewAPIStrategy(source repository.IDurationSource) DurationStrategy {
	return &sourceStrategy{name: StrategyAPI, tier: model.TierAPI, source: source}
}

// NewScrapeStrategy resolves by mining the public watch page.
func NewScrapeStrategy(source repository.IDurationSource) DurationStrategy {
	return &sourceStrategy{name: StrategyScrape, tier: model.TierScrape, source: source}
}

func (s *sourceStrategy) Name() string {
	return s.name
}

func (s *sourceStrategy) AttemptResolve(ctx context.Context, d *model.VideoDescriptor) (*model.DurationResult, bool) {
	if s.source == nil || !d.HasExternalID() {
		return nil, false
	}
	if a, ok := s.source.(availability); ok && !a.Available() {
		return nil, false
	}

	d.NetworkAttempts++
	seconds, err := s.source.FetchDuration(ctx, d.ExternalID)
	if err != nil {
		logMiss(s.name, d.ExternalID, err)
		return nil, false
	}
	if seconds <= 0 {
		return nil, false
	}
	// A successful authoritative answer proves existence.
	d.ExistsConfirmed = true
	return newResult(seconds, s.tier), true
}

type lightMetadataStrategy struct {
	metadata repository.ILightMetadata
}

// NewLightMetadataStrategy fetches title and author and accepts only a strict
// timecode in the title. The fetched fields enrich the descriptor for the
// heuristic step.
func NewLightMetadataStrategy(metadata repository.ILightMetadata) DurationStrategy {
	return &lightMetadataStrategy{metadata: metadata}
}

func (s *lightMetadataStrategy) Name() string {
	return StrategyLightMetadata
}

func (s *lightMetadataStrategy) AttemptResolve(ctx context.Context, d *model.VideoDescriptor) (*model.DurationResult, bool) {
	if s.metadata == nil || !d.HasExternalID() {
		return nil, false
	}

	d.NetworkAttempts++
	meta, err := s.metadata.FetchMetadata(ctx, d.ExternalID)
	if err != nil {
		logMiss(StrategyLightMetadata, d.ExternalID, err)
		return nil, false
	}

	d.ExistsConfirmed = true
	if d.Title == "" {
		d.Title = meta.Title
	}
	if d.Author == "" {
		d.Author = meta.Author
	}
	if seconds, ok := utils.ParseTitleTimecode(meta.Title); ok {
		return newResult(seconds, model.TierTitleTimecode), true
	}
	return nil, false
}

type heuristicStrategy struct {
	estimator    IHeuristicEstimator
	probe        repository.IExistenceProbe
	probeTimeout time.Duration
}

// NewHeuristicStrategy always produces a value: title timecode, then keyword
// band, then hash fallback for IDs not known to be missing, then the default.
func NewHeuristicStrategy(estimator IHeuristicEstimator, probe repository.IExistenceProbe) DurationStrategy {
	return &heuristicStrategy{estimator: estimator, probe: probe, probeTimeout: 5 * time.Second}
}

func (s *heuristicStrategy) Name() string {
	return StrategyHeuristic
}

func (s *heuristicStrategy) AttemptResolve(ctx context.Context, d *model.VideoDescriptor) (*model.DurationResult, bool) {
	if seconds, ok := utils.ParseTitleTimecode(d.Title); ok {
		return newResult(seconds, model.TierTitleTimecode), true
	}
	if seconds, ok := s.estimator.MatchCategory(d.HintText()); ok {
		return newResult(seconds, model.TierCategoryHeuristic), true
	}
	if d.HasExternalID() && s.exists(ctx, d) {
		return newResult(s.estimator.EstimateFromHash(d.ExternalID), model.TierHashFallback), true
	}
	return newResult(s.estimator.DefaultSeconds(), model.TierCategoryHeuristic), true
}

// exists is false only when the probe positively reports a missing video.
// Probe errors leave the pattern-matched ID in the benefit of the doubt.
func (s *heuristicStrategy) exists(ctx context.Context, d *model.VideoDescriptor) bool {
	if d.ExistsConfirmed || s.probe == nil {
		return true
	}

	ctx, cancel := context.WithTimeout(ctx, s.probeTimeout)
	defer cancel()

	d.NetworkAttempts++
	ok, err := s.probe.Exists(ctx, d.ExternalID)
	if err != nil {
		logMiss("existence_probe", d.ExternalID, err)
		return true
	}
	d.ExistsConfirmed = ok
	return ok
}
