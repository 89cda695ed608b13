package oembed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kvn3toj/beforenostr-sub004/domain/model"
	"github.com/kvn3toj/beforenostr-sub004/domain/repository"
	"github.com/kvn3toj/beforenostr-sub004/infrastructure/configuration"

	"github.com/google/go-querystring/query"
)

const (
	defaultEndpoint     = "https://www.youtube.com/oembed"
	defaultThumbnailURL = "https://i.ytimg.com/vi"
	defaultWatchBaseURL = "https://www.youtube.com"
	defaultTimeout      = 8 * time.Second
	maxBodyBytes        = 64 << 10
)

type Config struct {
	Endpoint         string
	ThumbnailBaseURL string
	WatchBaseURL     string
	Timeout          time.Duration
	HTTPClient       *http.Client
}

type oembedQuery struct {
	URL    string `url:"url"`
	Format string `url:"format"`
}

// Client talks to the unauthenticated oEmbed endpoint and the thumbnail host.
type Client struct {
	client       *http.Client
	endpoint     string
	thumbnailURL string
	watchBaseURL string
	timeout      time.Duration
}

func NewClient(cfg Config) *Client {
	c := &Client{
		client:       cfg.HTTPClient,
		endpoint:     cfg.Endpoint,
		thumbnailURL: strings.TrimRight(cfg.ThumbnailBaseURL, "/"),
		watchBaseURL: strings.TrimRight(cfg.WatchBaseURL, "/"),
		timeout:      cfg.Timeout,
	}
	if c.client == nil {
		c.client = &http.Client{}
	}
	if c.endpoint == "" {
		c.endpoint = defaultEndpoint
	}
	if c.thumbnailURL == "" {
		c.thumbnailURL = defaultThumbnailURL
	}
	if c.watchBaseURL == "" {
		c.watchBaseURL = defaultWatchBaseURL
	}
	if c.timeout <= 0 {
		c.timeout = defaultTimeout
	}
	return c
}

func NewClientFromConfig(cfg configuration.OEmbed) *Client {
	return NewClient(Config{
		Endpoint:         cfg.Endpoint,
		ThumbnailBaseURL: cfg.ThumbnailBaseURL,
		Timeout:          cfg.Timeout,
	})
}

// FetchMetadata returns title and author of the video.
func (c *Client) FetchMetadata(ctx context.Context, externalID string) (*model.LightMetadata, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	q, err := query.Values(oembedQuery{
		URL:    c.watchBaseURL + "/watch?v=" + externalID,
		Format: "json",
	})
	if err != nil {
		return nil, fmt.Errorf("%w: build oembed query: %v", model.ErrParseFailure, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build oembed request: %v", model.ErrNetworkFailure, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: oembed: %v", model.ErrNetworkFailure, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusUnauthorized:
		// 401 is returned for private or embedding-disabled videos
		return nil, fmt.Errorf("%w: oembed status %d for %s", model.ErrNotFound, resp.StatusCode, externalID)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: oembed status %d", model.ErrNetworkFailure, resp.StatusCode)
	}

	var meta model.LightMetadata
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&meta); err != nil {
		return nil, fmt.Errorf("%w: decode oembed: %v", model.ErrParseFailure, err)
	}
	return &meta, nil
}

// Exists probes the thumbnail of the video with a HEAD request.
func (c *Client) Exists(ctx context.Context, externalID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, fmt.Sprintf("%s/%s/hqdefault.jpg", c.thumbnailURL, externalID), nil)
	if err != nil {
		return false, fmt.Errorf("%w: build thumbnail request: %v", model.ErrNetworkFailure, err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: thumbnail probe: %v", model.ErrNetworkFailure, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return true, nil
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("%w: thumbnail status %d", model.ErrNetworkFailure, resp.StatusCode)
	}
}

var (
	_ repository.ILightMetadata   = (*Client)(nil)
	_ repository.IExistenceProbe = (*Client)(nil)
)
