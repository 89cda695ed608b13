package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kvn3toj/beforenostr-sub004/domain/model"
	"github.com/kvn3toj/beforenostr-sub004/infrastructure/configuration"
)

const watchPageAllRules = `<!DOCTYPE html><html><head>
<title>Never Gonna Give You Up [3:33] - YouTube</title>
<meta property="og:title" content="Never Gonna Give You Up">
<meta property="og:video:duration" content="212">
</head><body>
<div itemscope itemtype="http://schema.org/VideoObject">
<meta itemprop="duration" content="PT3M31S">
</div>
<script>var ytInitialPlayerResponse = {"videoDetails":{"videoId":"dQw4w9WgXcQ","lengthSeconds":"210"}};var meta = {};</script>
</body></html>`

func TestParsePage(t *testing.T) {
	page := ParsePage([]byte(watchPageAllRules))

	assert.Equal(t, "Never Gonna Give You Up [3:33] - YouTube", page.Title)
	assert.Equal(t, "212", page.Meta["og:video:duration"])
	assert.Equal(t, "Never Gonna Give You Up", page.Meta["og:title"])
	assert.Equal(t, "PT3M31S", page.ItemProps["duration"])
}

func TestRules_Individually(t *testing.T) {
	page := ParsePage([]byte(watchPageAllRules))

	tests := []struct {
		name    string
		extract func(*Page) (int, bool)
		want    int
	}{
		{"open graph", OpenGraphDuration, 212},
		{"itemprop", ItemPropDuration, 211},
		{"player response", PlayerResponseLength, 210},
		{"title timecode", TitleTimecode, 213},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.extract(page)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPlayerResponseLength_DirectFieldFallback(t *testing.T) {
	// Not decodable as a full object, the narrow match still applies.
	body := `<script>ytInitialPlayerResponse = {"videoDetails":{"lengthSeconds":"729", broken};</script>`
	got, ok := PlayerResponseLength(ParsePage([]byte(body)))
	require.True(t, ok)
	assert.Equal(t, 729, got)
}

func TestRules_NoMatch(t *testing.T) {
	page := ParsePage([]byte(`<html><head><title>5 minute guide</title></head><body></body></html>`))
	for _, rule := range DefaultRules() {
		_, ok := rule.Extract(page)
		assert.False(t, ok, rule.Name)
	}
}

func newScraper(t *testing.T, handler http.HandlerFunc) *PageScraper {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewPageScraper(Config{
		BaseURL:    srv.URL,
		Delay:      0,
		Timeout:    2 * time.Second,
		Header:     configuration.Header{UserAgent: "Mozilla/5.0 test", AcceptLanguage: "es-ES"},
		HTTPClient: srv.Client(),
	})
}

func TestFetchDuration_PriorityOrder(t *testing.T) {
	s := newScraper(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/watch", r.URL.Path)
		assert.Equal(t, "dQw4w9WgXcQ", r.URL.Query().Get("v"))
		assert.Equal(t, "Mozilla/5.0 test", r.Header.Get("User-Agent"))
		assert.Equal(t, "es-ES", r.Header.Get("Accept-Language"))
		_, _ = w.Write([]byte(watchPageAllRules))
	})

	seconds, err := s.FetchDuration(context.Background(), "dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, 212, seconds)
}

func TestFetchDuration_FallsThroughRules(t *testing.T) {
	s := newScraper(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><head><title>Clase completa (1:02:03)</title></head></html>`))
	})

	seconds, err := s.FetchDuration(context.Background(), "dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, 3723, seconds)
}

func TestFetchDuration_NothingFound(t *testing.T) {
	s := newScraper(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><head><title>Video</title></head></html>`))
	})

	_, err := s.FetchDuration(context.Background(), "dQw4w9WgXcQ")
	assert.ErrorIs(t, err, model.ErrParseFailure)
}

func TestFetchDuration_NonSuccessStatus(t *testing.T) {
	s := newScraper(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := s.FetchDuration(context.Background(), "dQw4w9WgXcQ")
	assert.ErrorIs(t, err, model.ErrNetworkFailure)
}

func TestFetchDuration_CancelledDuringDelay(t *testing.T) {
	s := NewPageScraper(Config{BaseURL: "http://127.0.0.1:1", Delay: time.Minute})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.FetchDuration(ctx, "dQw4w9WgXcQ")
	assert.ErrorIs(t, err, model.ErrNetworkFailure)
}
