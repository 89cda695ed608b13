package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kvn3toj/beforenostr-sub004/domain/model"
	"github.com/kvn3toj/beforenostr-sub004/domain/repository"
	"github.com/kvn3toj/beforenostr-sub004/infrastructure/configuration"
	"github.com/kvn3toj/beforenostr-sub004/infrastructure/logger"

	"github.com/google/go-querystring/query"
)

const (
	defaultBaseURL  = "https://www.youtube.com"
	defaultDelay    = 750 * time.Millisecond
	defaultTimeout  = 12 * time.Second
	defaultMaxBytes = 4 << 20
)

type Config struct {
	BaseURL      string
	Delay        time.Duration
	Timeout      time.Duration
	MaxBodyBytes int64
	Header       configuration.Header
	Rules        []Rule
	HTTPClient   *http.Client
}

type watchQuery struct {
	V string `url:"v"`
}

// PageScraper mines the duration out of the public watch page.
type PageScraper struct {
	client   *http.Client
	baseURL  string
	delay    time.Duration
	timeout  time.Duration
	maxBytes int64
	header   configuration.Header
	rules    []Rule
}

func NewPageScraper(cfg Config) *PageScraper {
	s := &PageScraper{
		client:   cfg.HTTPClient,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		delay:    cfg.Delay,
		timeout:  cfg.Timeout,
		maxBytes: cfg.MaxBodyBytes,
		header:   cfg.Header,
		rules:    cfg.Rules,
	}
	if s.baseURL == "" {
		s.baseURL = defaultBaseURL
	}
	if s.delay < 0 {
		s.delay = 0
	}
	if s.timeout <= 0 {
		s.timeout = defaultTimeout
	}
	if s.maxBytes <= 0 {
		s.maxBytes = defaultMaxBytes
	}
	if len(s.rules) == 0 {
		s.rules = DefaultRules()
	}
	if s.client == nil {
		s.client = &http.Client{}
	}
	return s
}

// NewPageScraperFromConfig builds a scraper from the Scraper config section.
func NewPageScraperFromConfig(cfg configuration.Scraper) *PageScraper {
	delay := cfg.Delay
	if delay == 0 {
		delay = defaultDelay
	}
	return NewPageScraper(Config{
		BaseURL:      cfg.BaseURL,
		Delay:        delay,
		Timeout:      cfg.Timeout,
		MaxBodyBytes: cfg.MaxBodyBytes,
		Header:       cfg.Header,
	})
}

func (s *PageScraper) FetchDuration(ctx context.Context, externalID string) (int, error) {
	if err := s.wait(ctx); err != nil {
		return 0, fmt.Errorf("%w: scrape delay: %v", model.ErrNetworkFailure, err)
	}

	body, err := s.fetch(ctx, externalID)
	if err != nil {
		return 0, err
	}

	page := ParsePage(body)
	for _, rule := range s.rules {
		if seconds, ok := rule.Extract(page); ok {
			logger.GetLogger().WithFields(map[string]interface{}{
				"videoId": externalID,
				"rule":    rule.Name,
				"version": rule.Version,
				"seconds": seconds,
			}).Debug("Scraped duration")
			return seconds, nil
		}
	}
	return 0, fmt.Errorf("%w: no extraction rule matched for %s", model.ErrParseFailure, externalID)
}

func (s *PageScraper) wait(ctx context.Context) error {
	if s.delay == 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *PageScraper) fetch(ctx context.Context, externalID string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	q, err := query.Values(watchQuery{V: externalID})
	if err != nil {
		return nil, fmt.Errorf("%w: build watch query: %v", model.ErrParseFailure, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/watch?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", model.ErrNetworkFailure, err)
	}
	s.setHeaders(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch watch page: %v", model.ErrNetworkFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: watch page status %d", model.ErrNetworkFailure, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read watch page: %v", model.ErrNetworkFailure, err)
	}
	return body, nil
}

func (s *PageScraper) setHeaders(req *http.Request) {
	h := s.header
	for key, value := range map[string]string{
		"Accept":             h.Accept,
		"Accept-Language":    h.AcceptLanguage,
		"Connection":         h.Connection,
		"Cookie":             h.Cookie,
		"Referer":            h.Referer,
		"Sec-Fetch-Dest":     h.SecFetchDest,
		"Sec-Fetch-Mode":     h.SecFetchMode,
		"Sec-Fetch-Site":     h.SecFetchSite,
		"User-Agent":         h.UserAgent,
		"Sec-Ch-Ua":          h.SecChUa,
		"Sec-Ch-Ua-Mobile":   h.SecChUaMobile,
		"Sec-Ch-Ua-Platform": h.SecChUaPlatform,
	} {
		if value != "" {
			req.Header.Set(key, value)
		}
	}
}

var _ repository.IDurationSource = (*PageScraper)(nil)
