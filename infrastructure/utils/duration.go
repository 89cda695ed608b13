package utils

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	isoDurationPattern = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)(?:\.\d+)?S)?)?$`)
	// A timecode is not allowed to touch other digits or colons, so dates,
	// clock ranges and version numbers do not match.
	hmsPattern = regexp.MustCompile(`(?:^|[^\d:])(\d{1,2}):([0-5]\d):([0-5]\d)(?:[^\d:]|$)`)
	msPattern  = regexp.MustCompile(`(?:^|[^\d:])(\d{1,3}):([0-5]\d)(?:[^\d:]|$)`)
	// Whole string forms accepted for declared durations.
	clockPattern = regexp.MustCompile(`^[\[(]?(?:(\d{1,2}):)?(\d{1,3}):([0-5]\d)[\])]?$`)
)

// ParseISODuration converts an ISO 8601 duration of the PT#H#M#S family into
// seconds. Absent components count as zero, so "PT" is 0. The boolean is false
// when s does not have the expected shape.
func ParseISODuration(s string) (int, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" || s == "P" {
		return 0, false
	}
	m := isoDurationPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	return atoi(m[1])*86400 + atoi(m[2])*3600 + atoi(m[3])*60 + atoi(m[4]), true
}

// ParseTitleTimecode finds a strict H:MM:SS or MM:SS timecode in free text,
// optionally bracketed, and returns it in seconds. Loose phrases such as
// "5 minute guide" never match.
func ParseTitleTimecode(title string) (int, bool) {
	if m := hmsPattern.FindStringSubmatch(title); m != nil {
		seconds := atoi(m[1])*3600 + atoi(m[2])*60 + atoi(m[3])
		return seconds, seconds > 0
	}
	if m := msPattern.FindStringSubmatch(title); m != nil {
		seconds := atoi(m[1])*60 + atoi(m[2])
		return seconds, seconds > 0
	}
	return 0, false
}

// ParseClock parses a string that is entirely a timecode.
func ParseClock(s string) (int, bool) {
	m := clockPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, false
	}
	return atoi(m[1])*3600 + atoi(m[2])*60 + atoi(m[3]), true
}

// ParseSeconds accepts integer seconds, an ISO duration or a timecode.
func ParseSeconds(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, n >= 0
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f >= 0 {
		return int(f + 0.5), true
	}
	if n, ok := ParseISODuration(s); ok {
		return n, true
	}
	return ParseClock(s)
}

func atoi(s string) int {
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
