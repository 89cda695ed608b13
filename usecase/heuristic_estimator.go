package usecase

import (
	"sort"
	"strings"
	"unicode"

	"github.com/kvn3toj/beforenostr-sub004/domain/model"
	"github.com/kvn3toj/beforenostr-sub004/infrastructure/utils"
)

// DurationBand maps content keywords to a typical duration.
type DurationBand struct {
	Name     string
	Keywords []string
	Seconds  int
}

type HeuristicConfig struct {
	// Bands are matched in order.
	Bands          []DurationBand
	DefaultSeconds int
	HashMinSeconds int
	HashMaxSeconds int
}

// DefaultDurationBands covers English and Spanish keywords.
func DefaultDurationBands() []DurationBand {
	return []DurationBand{
		{Name: "feature_length", Seconds: 100 * 60, Keywords: []string{
			"movie", "film", "documentary", "full movie", "feature film",
			"película", "pelicula", "documental", "largometraje",
		}},
		{Name: "lecture", Seconds: 40 * 60, Keywords: []string{
			"lecture", "class", "course", "webinar", "seminar", "masterclass",
			"clase", "curso", "cátedra", "catedra", "seminario",
		}},
		{Name: "podcast", Seconds: 40 * 60, Keywords: []string{
			"podcast", "interview", "episode",
			"entrevista", "episodio",
		}},
		{Name: "talk", Seconds: 18 * 60, Keywords: []string{
			"talk", "keynote", "conference", "ted", "tedx",
			"charla", "conferencia", "ponencia",
		}},
		{Name: "tutorial", Seconds: 10 * 60, Keywords: []string{
			"tutorial", "how to", "guide", "walkthrough",
			"guía", "guia", "cómo", "paso a paso", "aprende",
		}},
		{Name: "music", Seconds: 4 * 60, Keywords: []string{
			"music", "song", "lyrics", "official video", "official audio",
			"música", "musica", "canción", "cancion", "letra",
		}},
		{Name: "short_clip", Seconds: 3 * 60, Keywords: []string{
			"short", "shorts", "clip", "trailer", "teaser",
			"tráiler", "avance", "corto",
		}},
	}
}

func DefaultHeuristicConfig() HeuristicConfig {
	return HeuristicConfig{
		Bands:          DefaultDurationBands(),
		DefaultSeconds: 8 * 60,
		HashMinSeconds: 5 * 60,
		HashMaxSeconds: 20 * 60,
	}
}

type IHeuristicEstimator interface {
	// EstimateFromTitle accepts a strict timecode in the title, otherwise
	// falls back to keyword bands.
	EstimateFromTitle(title, author string) (int, model.ConfidenceTier)
	EstimateFromHash(externalID string) int
	EstimateFromCategory(text string) int
	MatchCategory(text string) (int, bool)
	DefaultSeconds() int
	// FallbackValues lists every generic value the estimator can produce
	// without looking at an external ID.
	FallbackValues() []int
}

type HeuristicEstimator struct {
	cfg HeuristicConfig
}

func NewHeuristicEstimator(cfg HeuristicConfig) IHeuristicEstimator {
	def := DefaultHeuristicConfig()
	if len(cfg.Bands) == 0 {
		cfg.Bands = def.Bands
	}
	if cfg.DefaultSeconds <= 0 {
		cfg.DefaultSeconds = def.DefaultSeconds
	}
	if cfg.HashMinSeconds <= 0 {
		cfg.HashMinSeconds = def.HashMinSeconds
	}
	if cfg.HashMaxSeconds < cfg.HashMinSeconds {
		cfg.HashMaxSeconds = def.HashMaxSeconds
	}
	if cfg.HashMaxSeconds < cfg.HashMinSeconds {
		cfg.HashMaxSeconds = cfg.HashMinSeconds
	}
	return &HeuristicEstimator{cfg: cfg}
}

func (h *HeuristicEstimator) EstimateFromTitle(title, author string) (int, model.ConfidenceTier) {
	if seconds, ok := utils.ParseTitleTimecode(title); ok {
		return seconds, model.TierTitleTimecode
	}
	return h.EstimateFromCategory(strings.TrimSpace(title + " " + author)), model.TierCategoryHeuristic
}

// EstimateFromHash maps the ID onto the hash band with h = h*31 + b.
func (h *HeuristicEstimator) EstimateFromHash(externalID string) int {
	var hash uint32
	for i := 0; i < len(externalID); i++ {
		hash = hash*31 + uint32(externalID[i])
	}
	span := uint32(h.cfg.HashMaxSeconds - h.cfg.HashMinSeconds + 1)
	return h.cfg.HashMinSeconds + int(hash%span)
}

func (h *HeuristicEstimator) EstimateFromCategory(text string) int {
	if seconds, ok := h.MatchCategory(text); ok {
		return seconds
	}
	return h.cfg.DefaultSeconds
}

func (h *HeuristicEstimator) MatchCategory(text string) (int, bool) {
	normalized := " " + normalizeWords(text) + " "
	if strings.TrimSpace(normalized) == "" {
		return 0, false
	}
	for _, band := range h.cfg.Bands {
		for _, keyword := range band.Keywords {
			if strings.Contains(normalized, " "+normalizeWords(keyword)+" ") {
				return band.Seconds, true
			}
		}
	}
	return 0, false
}

func (h *HeuristicEstimator) DefaultSeconds() int {
	return h.cfg.DefaultSeconds
}

func (h *HeuristicEstimator) FallbackValues() []int {
	seen := map[int]struct{}{h.cfg.DefaultSeconds: {}}
	for _, band := range h.cfg.Bands {
		seen[band.Seconds] = struct{}{}
	}
	values := make([]int, 0, len(seen))
	for v := range seen {
		values = append(values, v)
	}
	sort.Ints(values)
	return values
}

// normalizeWords lower-cases text and collapses everything that is not a
// letter or digit into single spaces.
func normalizeWords(text string) string {
	return strings.Join(strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}), " ")
}
