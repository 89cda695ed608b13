package realtime_test

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kvn3toj/beforenostr-sub004/domain/model"
	"github.com/kvn3toj/beforenostr-sub004/infrastructure/realtime"
)

func newHubServer(t *testing.T, hub *realtime.Hub, userID string) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/events", func(c *gin.Context) {
		if userID != "" {
			c.Set("user_id", userID)
		}
		hub.Serve(c)
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func openStream(t *testing.T, url string) (*bufio.Reader, func()) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	require.NoError(t, err)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "text/event-stream", res.Header.Get("Content-Type"))

	reader := bufio.NewReader(res.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, ":ok\n", line)
	_, _ = reader.ReadString('\n')

	return reader, func() {
		cancel()
		_ = res.Body.Close()
	}
}

func readEvent(t *testing.T, reader *bufio.Reader) (string, model.DurationChangedEvent) {
	t.Helper()
	var name string
	var event model.DurationChangedEvent
	for {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimSuffix(line, "\n")
		switch {
		case strings.HasPrefix(line, "event: "):
			name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &event))
		case line == "":
			return name, event
		}
	}
}

func TestHub_StreamsDurationChanges(t *testing.T) {
	hub := realtime.NewDurationHub()
	srv := newHubServer(t, hub, "operator")

	reader, closeStream := openStream(t, srv.URL+"/events")
	defer closeStream()
	require.Equal(t, 1, hub.Subscribers())

	require.NoError(t, hub.PublishDurationChanged(context.Background(), model.DurationChangedEvent{
		VideoContentID: "vc-1",
		NewSeconds:     212,
		Source:         model.TierAPI,
		RunID:          "run-1",
	}))

	name, event := readEvent(t, reader)
	assert.Equal(t, "duration_changed", name)
	assert.Equal(t, "vc-1", event.VideoContentID)
	assert.Equal(t, 212, event.NewSeconds)
	assert.Equal(t, model.TierAPI, event.Source)
}

func TestHub_FiltersByRunID(t *testing.T) {
	hub := realtime.NewDurationHub()
	srv := newHubServer(t, hub, "operator")

	reader, closeStream := openStream(t, srv.URL+"/events?runId=run-2")
	defer closeStream()

	ctx := context.Background()
	require.NoError(t, hub.PublishDurationChanged(ctx, model.DurationChangedEvent{VideoContentID: "vc-1", RunID: "run-1"}))
	require.NoError(t, hub.PublishDurationChanged(ctx, model.DurationChangedEvent{VideoContentID: "vc-2", RunID: "run-2"}))

	_, event := readEvent(t, reader)
	assert.Equal(t, "vc-2", event.VideoContentID)
}

func TestHub_RequiresUser(t *testing.T) {
	hub := realtime.NewDurationHub()
	srv := newHubServer(t, hub, "")

	res, err := http.Get(srv.URL + "/events")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.Equal(t, 0, hub.Subscribers())
}

func TestHub_PublishWithoutSubscribers(t *testing.T) {
	hub := realtime.NewDurationHub()
	assert.NoError(t, hub.PublishDurationChanged(context.Background(), model.DurationChangedEvent{RunID: "run-1"}))
}
