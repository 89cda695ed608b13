package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kvn3toj/beforenostr-sub004/domain/model"
	"github.com/kvn3toj/beforenostr-sub004/domain/repository"
	"github.com/kvn3toj/beforenostr-sub004/infrastructure/logger"
	"github.com/kvn3toj/beforenostr-sub004/infrastructure/metrics"
	"github.com/kvn3toj/beforenostr-sub004/infrastructure/utils"
)

const (
	DefaultCachePrefix = "coomunity"
	DefaultLongTTL     = 7 * 24 * time.Hour
	DefaultShortTTL    = 24 * time.Hour
)

type ResolveOptions struct {
	// BypassCache skips the cache read. The result is still written back.
	BypassCache bool
}

// IDurationResolver produces a best effort duration for a content descriptor.
type IDurationResolver interface {
	Resolve(ctx context.Context, rawContent string) (*model.DurationResult, error)
	ResolveDescriptor(ctx context.Context, descriptor *model.VideoDescriptor, opts ResolveOptions) (*model.DurationResult, error)
	CacheKey(externalID string) string
	TTLFor(tier model.ConfidenceTier) time.Duration
}

type ResolverConfig struct {
	CachePrefix    string
	LongTTL        time.Duration
	ShortTTL       time.Duration
	KnownOverrides []model.KnownOverride
}

type DurationResolver struct {
	extractor  IMetadataExtractor
	cache      repository.IDurationCache
	strategies []DurationStrategy
	heuristic  DurationStrategy
	overrides  map[string]int
	prefix     string
	longTTL    time.Duration
	shortTTL   time.Duration
}

// NewDurationResolver wires the chain. strategies are tried in the given order
// and must end with the heuristic strategy; a nil cache selects the null cache.
func NewDurationResolver(
	cfg ResolverConfig,
	extractor IMetadataExtractor,
	cache repository.IDurationCache,
	strategies []DurationStrategy,
) IDurationResolver {
	if cache == nil {
		cache = repository.NewNoopDurationCache()
	}
	if extractor == nil {
		extractor = NewMetadataExtractor()
	}
	r := &DurationResolver{
		extractor:  extractor,
		cache:      cache,
		strategies: strategies,
		overrides:  make(map[string]int, len(cfg.KnownOverrides)),
		prefix:     cfg.CachePrefix,
		longTTL:    cfg.LongTTL,
		shortTTL:   cfg.ShortTTL,
	}
	if r.prefix == "" {
		r.prefix = DefaultCachePrefix
	}
	if r.longTTL <= 0 {
		r.longTTL = DefaultLongTTL
	}
	if r.shortTTL <= 0 {
		r.shortTTL = DefaultShortTTL
	}
	for _, o := range cfg.KnownOverrides {
		if o.VideoID != "" && o.Seconds > 0 {
			r.overrides[o.VideoID] = o.Seconds
		}
	}
	for _, s := range strategies {
		if s.Name() == StrategyHeuristic {
			r.heuristic = s
		}
	}
	if r.heuristic == nil {
		r.heuristic = NewHeuristicStrategy(NewHeuristicEstimator(DefaultHeuristicConfig()), nil)
		r.strategies = append(r.strategies, r.heuristic)
	}
	return r
}

// NewDefaultStrategies builds the chain in its fixed order, leaving out
// sources that are not configured.
func NewDefaultStrategies(
	api repository.IDurationSource,
	scraper repository.IDurationSource,
	metadata repository.ILightMetadata,
	probe repository.IExistenceProbe,
	estimator IHeuristicEstimator,
) []DurationStrategy {
	var strategies []DurationStrategy
	if api != nil {
		strategies = append(strategies, NewAPIStrategy(api))
	}
	if scraper != nil {
		strategies = append(strategies, NewScrapeStrategy(scraper))
	}
	if metadata != nil {
		strategies = append(strategies, NewLightMetadataStrategy(metadata))
	}
	return append(strategies, NewHeuristicStrategy(estimator, probe))
}

func (r *DurationResolver) Resolve(ctx context.Context, rawContent string) (*model.DurationResult, error) {
	descriptor, err := r.extractor.Extract(rawContent)
	if err != nil {
		return nil, err
	}
	return r.ResolveDescriptor(ctx, descriptor, ResolveOptions{})
}

func (r *DurationResolver) ResolveDescriptor(ctx context.Context, d *model.VideoDescriptor, opts ResolveOptions) (*model.DurationResult, error) {
	if !hasSignal(d) {
		return nil, model.ErrExtractionFailure
	}

	log := logger.GetLogger().WithField("videoId", d.ExternalID)

	// Without an external ID there is nothing to fetch or cache.
	if !d.HasExternalID() {
		result, _ := r.heuristic.AttemptResolve(ctx, d)
		r.finish(d, result)
		log.WithFields(map[string]interface{}{"seconds": result.Seconds, "source": result.Source}).Debug("Duration resolved from text heuristics")
		return result, nil
	}

	if seconds, ok := r.overrides[d.ExternalID]; ok {
		result := newResult(seconds, model.TierKnownOverride)
		r.finish(d, result)
		return result, nil
	}

	key := r.CacheKey(d.ExternalID)
	if !opts.BypassCache {
		entry, hit := r.cache.Get(ctx, key)
		metrics.RecordCacheLookup(hit)
		if hit {
			result := &model.DurationResult{
				Seconds:    entry.Seconds,
				Source:     entry.Source,
				ResolvedAt: utils.GetCurrentTime(),
				FromCache:  true,
			}
			metrics.RecordResolution(string(result.Source), true)
			return result, nil
		}
	}

	var result *model.DurationResult
	for _, strategy := range r.strategies {
		res, ok := strategy.AttemptResolve(ctx, d)
		if ok {
			result = res
			break
		}
		metrics.RecordStrategyMiss(strategy.Name())
	}
	if result == nil {
		result, _ = r.heuristic.AttemptResolve(ctx, d)
	}
	r.finish(d, result)

	if ttl := r.TTLFor(result.Source); ttl > 0 {
		r.cache.Set(ctx, key, result.Seconds, result.Source, ttl)
	}
	log.WithFields(map[string]interface{}{
		"seconds": result.Seconds,
		"source":  result.Source,
		"network": result.NetworkTouched,
	}).Info("Duration resolved")
	return result, nil
}

func (r *DurationResolver) finish(d *model.VideoDescriptor, result *model.DurationResult) {
	result.NetworkTouched = d.NetworkAttempts > 0
	metrics.RecordResolution(string(result.Source), false)
}

func (r *DurationResolver) CacheKey(externalID string) string {
	return fmt.Sprintf("%s:video:duration:%s", r.prefix, externalID)
}

// TTLFor returns 0 for known overrides, which are never cached.
func (r *DurationResolver) TTLFor(tier model.ConfidenceTier) time.Duration {
	switch tier {
	case model.TierKnownOverride:
		return 0
	case model.TierAPI, model.TierScrape:
		return r.longTTL
	default:
		return r.shortTTL
	}
}

func hasSignal(d *model.VideoDescriptor) bool {
	if d == nil {
		return false
	}
	return d.HasExternalID() || strings.TrimSpace(d.RawContent) != "" ||
		d.URL != "" || d.Title != "" || d.Category != "" || d.Author != ""
}
