package scraper

import (
	"encoding/json"
	"regexp"
	"strconv"

	"github.com/kvn3toj/beforenostr-sub004/infrastructure/utils"
)

// Rule extracts a duration in seconds from a parsed watch page. Rules are
// versioned so a markup change replaces one rule without touching the others.
type Rule struct {
	Name    string
	Version int
	Extract func(page *Page) (int, bool)
}

var (
	playerResponsePattern = regexp.MustCompile(`(?s)ytInitialPlayerResponse\s*=\s*(\{.+?\})\s*;\s*(?:var\s|</script>|if\s*\()`)
	lengthSecondsPattern  = regexp.MustCompile(`"lengthSeconds"\s*:\s*"(\d+)"`)
)

// DefaultRules returns the extraction rules in priority order.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "open_graph_duration", Version: 1, Extract: OpenGraphDuration},
		{Name: "itemprop_duration", Version: 1, Extract: ItemPropDuration},
		{Name: "player_response_length", Version: 2, Extract: PlayerResponseLength},
		{Name: "title_timecode", Version: 1, Extract: TitleTimecode},
	}
}

// OpenGraphDuration reads og:video:duration or video:duration as integer seconds.
func OpenGraphDuration(page *Page) (int, bool) {
	for _, key := range []string{"og:video:duration", "video:duration"} {
		if v, ok := page.Meta[key]; ok {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				return n, true
			}
		}
	}
	return 0, false
}

// ItemPropDuration reads the schema.org duration, an ISO 8601 string.
func ItemPropDuration(page *Page) (int, bool) {
	v, ok := page.ItemProps["duration"]
	if !ok {
		return 0, false
	}
	n, ok := utils.ParseISODuration(v)
	return n, ok && n > 0
}

// PlayerResponseLength reads videoDetails.lengthSeconds from the embedded
// player state. The full object is decoded first, then a direct field match
// covers blobs that do not decode cleanly.
func PlayerResponseLength(page *Page) (int, bool) {
	if m := playerResponsePattern.FindSubmatch(page.Raw); m != nil {
		var state struct {
			VideoDetails struct {
				LengthSeconds string `json:"lengthSeconds"`
			} `json:"videoDetails"`
		}
		if err := json.Unmarshal(m[1], &state); err == nil {
			if n, err := strconv.Atoi(state.VideoDetails.LengthSeconds); err == nil && n > 0 {
				return n, true
			}
		}
	}
	if m := lengthSecondsPattern.FindSubmatch(page.Raw); m != nil {
		if n, err := strconv.Atoi(string(m[1])); err == nil && n > 0 {
			return n, true
		}
	}
	return 0, false
}

// TitleTimecode accepts only a strict timecode in the page title.
func TitleTimecode(page *Page) (int, bool) {
	return utils.ParseTitleTimecode(page.Title)
}
