package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/kvn3toj/beforenostr-sub004/domain/model"
	"github.com/kvn3toj/beforenostr-sub004/domain/repository"
	"github.com/kvn3toj/beforenostr-sub004/infrastructure/logger"
	"github.com/kvn3toj/beforenostr-sub004/infrastructure/utils"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

const defaultTimeout = 10 * time.Second

// Client resolves durations through the YouTube Data API v3.
type Client struct {
	service *youtube.Service
	timeout time.Duration
}

// Config represents YouTube API configuration
type Config struct {
	ClientID     string        `json:"client_id"`
	ClientSecret string        `json:"client_secret"`
	RedirectURL  string        `json:"redirect_url"`
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	APIKey       string        `json:"api_key"`
	Endpoint     string        `json:"endpoint"`
	Timeout      time.Duration `json:"timeout"`
	// HTTPClient replaces credential based transports when set.
	HTTPClient *http.Client `json:"-"`
}

func (c *Config) hasCredential() bool {
	return c != nil && (c.APIKey != "" || (c.AccessToken != "" && c.RefreshToken != ""))
}

// NewYouTubeClient creates a duration source backed by the Data API. Without a
// credential the returned client reports model.ErrProviderUnavailable and
// makes no calls.
func NewYouTubeClient(ctx context.Context, config *Config) (*Client, error) {
	timeout := defaultTimeout
	if config != nil && config.Timeout > 0 {
		timeout = config.Timeout
	}
	if !config.hasCredential() {
		return &Client{timeout: timeout}, nil
	}

	var opts []option.ClientOption
	if config.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(config.Endpoint))
	}

	switch {
	case config.HTTPClient != nil:
		opts = append(opts, option.WithHTTPClient(config.HTTPClient))
	case config.AccessToken == "" || config.RefreshToken == "":
		// API key only mode (read-only)
		opts = append(opts, option.WithAPIKey(config.APIKey))
	default:
		oauth2Config := &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			RedirectURL:  config.RedirectURL,
			Scopes:       []string{youtube.YoutubeReadonlyScope},
			Endpoint:     google.Endpoint,
		}
		token := &oauth2.Token{
			AccessToken:  config.AccessToken,
			RefreshToken: config.RefreshToken,
			TokenType:    "Bearer",
			Expiry:       time.Now().Add(-1 * time.Minute), // Force refresh on first use
		}
		opts = append(opts, option.WithHTTPClient(oauth2Config.Client(ctx, token)))
	}

	service, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}
	return &Client{service: service, timeout: timeout}, nil
}

// Available reports whether a credential was configured.
func (c *Client) Available() bool {
	return c != nil && c.service != nil
}

// FetchDuration returns the contentDetails.duration of the video in seconds.
func (c *Client) FetchDuration(ctx context.Context, externalID string) (int, error) {
	if !c.Available() {
		return 0, model.ErrProviderUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	response, err := c.service.Videos.List([]string{"contentDetails"}).
		Id(externalID).
		Context(ctx).
		Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			return 0, fmt.Errorf("%w: youtube api status %d: %s", model.ErrNetworkFailure, apiErr.Code, apiErr.Message)
		}
		return 0, fmt.Errorf("%w: youtube api: %v", model.ErrNetworkFailure, err)
	}

	if len(response.Items) == 0 || response.Items[0].ContentDetails == nil {
		return 0, fmt.Errorf("%w: video not found: %s", model.ErrNotFound, externalID)
	}

	raw := response.Items[0].ContentDetails.Duration
	seconds, ok := utils.ParseISODuration(raw)
	if !ok {
		return 0, fmt.Errorf("%w: unexpected duration %q", model.ErrParseFailure, raw)
	}
	logger.GetLogger().WithFields(map[string]interface{}{
		"videoId":  externalID,
		"duration": raw,
		"seconds":  seconds,
	}).Debug("YouTube API duration resolved")
	return seconds, nil
}

var _ repository.IDurationSource = (*Client)(nil)
