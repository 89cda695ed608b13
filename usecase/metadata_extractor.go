package usecase

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/kvn3toj/beforenostr-sub004/domain/model"
	"github.com/kvn3toj/beforenostr-sub004/infrastructure/utils"
)

// IMetadataExtractor turns a raw content descriptor into a VideoDescriptor.
type IMetadataExtractor interface {
	Extract(rawContent string) (*model.VideoDescriptor, error)
}

const idChars = `[A-Za-z0-9_-]{11}`

// External ID patterns in priority order. The first match wins.
var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:youtube\.com|youtube-nocookie\.com)/watch\?(?:[^\s"'<>#]*&)?v=(` + idChars + `)(?:[^A-Za-z0-9_-]|$)`),
	regexp.MustCompile(`(?i)youtu\.be/(` + idChars + `)(?:[^A-Za-z0-9_-]|$)`),
	regexp.MustCompile(`(?i)(?:youtube\.com|youtube-nocookie\.com)/(?:embed|v|shorts|live)/(` + idChars + `)(?:[^A-Za-z0-9_-]|$)`),
}

var (
	bareIDPattern = regexp.MustCompile(`^` + idChars + `$`)
	urlPattern    = regexp.MustCompile(`https?://[^\s"'<>\\]+`)
	// Used to salvage string fields from JSON that does not decode.
	looseFieldPattern = regexp.MustCompile(`"(title|category|author)"\s*:\s*"((?:[^"\\]|\\.)*)"`)
)

type contentPayload struct {
	VideoID  string          `json:"videoId"`
	URL      string          `json:"url"`
	Title    string          `json:"title"`
	Category string          `json:"category"`
	Author   string          `json:"author"`
	Duration json.RawMessage `json:"duration"`
}

type MetadataExtractor struct{}

func NewMetadataExtractor() IMetadataExtractor {
	return &MetadataExtractor{}
}

// Extract never fails for non-empty input. Empty input, or a JSON object with
// no usable field, returns model.ErrExtractionFailure.
func (e *MetadataExtractor) Extract(rawContent string) (*model.VideoDescriptor, error) {
	trimmed := strings.TrimSpace(rawContent)
	if trimmed == "" || trimmed == "null" {
		return nil, model.ErrExtractionFailure
	}

	descriptor := &model.VideoDescriptor{RawContent: rawContent}

	if strings.HasPrefix(trimmed, "{") {
		var payload contentPayload
		if err := json.Unmarshal([]byte(trimmed), &payload); err == nil {
			return fromPayload(descriptor, &payload)
		}
	}

	normalized := normalizeText(trimmed)
	descriptor.ExternalID = FindExternalID(normalized)
	if u := urlPattern.FindString(normalized); u != "" {
		descriptor.URL = u
	}

	if strings.HasPrefix(trimmed, "{") {
		salvageFields(descriptor, trimmed)
	} else if descriptor.URL == "" && descriptor.ExternalID == "" {
		descriptor.Title = trimmed
	}
	return descriptor, nil
}

func fromPayload(d *model.VideoDescriptor, p *contentPayload) (*model.VideoDescriptor, error) {
	d.Title = strings.TrimSpace(p.Title)
	d.Category = strings.TrimSpace(p.Category)
	d.Author = strings.TrimSpace(p.Author)
	d.URL = strings.TrimSpace(p.URL)
	d.DeclaredSeconds = declaredSeconds(p.Duration)

	// videoId may hold a full URL
	for _, candidate := range []string{p.VideoID, p.URL} {
		if id := FindExternalID(normalizeText(strings.TrimSpace(candidate))); id != "" {
			d.ExternalID = id
			break
		}
	}
	if d.ExternalID == "" {
		d.ExternalID = findPatternID(normalizeText(d.RawContent))
	}

	if d.ExternalID == "" && d.URL == "" && d.Title == "" && d.Category == "" && d.Author == "" {
		return nil, model.ErrExtractionFailure
	}
	return d, nil
}

// FindExternalID applies the URL patterns in order, then accepts a bare
// identifier only when it is the whole candidate string.
func FindExternalID(text string) string {
	if id := findPatternID(text); id != "" {
		return id
	}
	if bareIDPattern.MatchString(text) {
		return text
	}
	return ""
}

func findPatternID(text string) string {
	for _, pattern := range videoIDPatterns {
		if m := pattern.FindStringSubmatch(text); m != nil {
			return m[1]
		}
	}
	return ""
}

func normalizeText(s string) string {
	return strings.NewReplacer(`\/`, "/", `\u0026`, "&", "&amp;", "&").Replace(s)
}

func salvageFields(d *model.VideoDescriptor, raw string) {
	for _, m := range looseFieldPattern.FindAllStringSubmatch(raw, -1) {
		value, err := strconv.Unquote(`"` + m[2] + `"`)
		if err != nil {
			value = m[2]
		}
		value = strings.TrimSpace(value)
		switch m[1] {
		case "title":
			if d.Title == "" {
				d.Title = value
			}
		case "category":
			if d.Category == "" {
				d.Category = value
			}
		case "author":
			if d.Author == "" {
				d.Author = value
			}
		}
	}
}

// declaredSeconds accepts a number, an ISO duration or a timecode.
func declaredSeconds(raw json.RawMessage) int {
	if len(raw) == 0 || string(raw) == "null" {
		return 0
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil && n > 0 {
		return int(n + 0.5)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if seconds, ok := utils.ParseSeconds(s); ok {
			return seconds
		}
	}
	return 0
}
