package usecase_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kvn3toj/beforenostr-sub004/domain/model"
	"github.com/kvn3toj/beforenostr-sub004/usecase"
)

func TestHeuristicEstimator_Hash(t *testing.T) {
	estimator := usecase.NewHeuristicEstimator(usecase.DefaultHeuristicConfig())

	for _, id := range []string{"dQw4w9WgXcQ", "aaaaaaaaaaa", "_-_-_-_-_-_", "ZZZZZZZZZZZ"} {
		first := estimator.EstimateFromHash(id)
		assert.Equal(t, first, estimator.EstimateFromHash(id), id)
		assert.GreaterOrEqual(t, first, 300, id)
		assert.LessOrEqual(t, first, 1200, id)
	}
}

func TestHeuristicEstimator_HashCustomBand(t *testing.T) {
	estimator := usecase.NewHeuristicEstimator(usecase.HeuristicConfig{HashMinSeconds: 60, HashMaxSeconds: 60})
	assert.Equal(t, 60, estimator.EstimateFromHash("dQw4w9WgXcQ"))
}

func TestHeuristicEstimator_Category(t *testing.T) {
	estimator := usecase.NewHeuristicEstimator(usecase.DefaultHeuristicConfig())

	tests := []struct {
		text string
		want int
		ok   bool
	}{
		{"Full Movie HD", 6000, true},
		{"Curso de permacultura", 2400, true},
		{"Charla TEDx", 1080, true},
		{"How to plant trees", 600, true},
		{"Official Video", 240, true},
		{"Trailer", 180, true},
		{"classroom vibes", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := estimator.MatchCategory(tt.text)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, 480, estimator.EstimateFromCategory("something unrelated"))
}

func TestHeuristicEstimator_Title(t *testing.T) {
	estimator := usecase.NewHeuristicEstimator(usecase.DefaultHeuristicConfig())

	seconds, tier := estimator.EstimateFromTitle("Meditación guiada [12:09]", "")
	assert.Equal(t, 729, seconds)
	assert.Equal(t, model.TierTitleTimecode, tier)

	seconds, tier = estimator.EstimateFromTitle("5 minute guide", "")
	assert.Equal(t, 600, seconds)
	assert.Equal(t, model.TierCategoryHeuristic, tier)
}

func TestHeuristicEstimator_FallbackValues(t *testing.T) {
	estimator := usecase.NewHeuristicEstimator(usecase.DefaultHeuristicConfig())
	assert.Equal(t, []int{180, 240, 480, 600, 1080, 2400, 6000}, estimator.FallbackValues())
}
