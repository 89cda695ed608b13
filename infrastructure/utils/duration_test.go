package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseISODuration(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		matched bool
	}{
		{"PT12M9S", 729, true},
		{"PT1H2M3S", 3723, true},
		{"PT", 0, true},
		{"PT45S", 45, true},
		{"PT2H", 7200, true},
		{"P1DT1S", 86401, true},
		{"pt4m", 240, true},
		{"PT3.5S", 3, true},
		{"P", 0, false},
		{"", 0, false},
		{"garbage", 0, false},
		{"12:09", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseISODuration(tt.in)
			assert.Equal(t, tt.matched, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTitleTimecode(t *testing.T) {
	tests := []struct {
		title   string
		want    int
		matched bool
	}{
		{"Full lecture [1:02:03]", 3723, true},
		{"Meditation guiada (12:09)", 729, true},
		{"Song - 3:45", 225, true},
		{"12:09 relaxing rain", 729, true},
		{"5 minute guide to Go", 0, false},
		{"Recorded 2024-01-01 10:30:00:12", 0, false},
		{"v1.2.3 release notes", 0, false},
		{"0:00", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			got, ok := ParseTitleTimecode(tt.title)
			assert.Equal(t, tt.matched, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSeconds(t *testing.T) {
	n, ok := ParseSeconds("729")
	assert.True(t, ok)
	assert.Equal(t, 729, n)

	n, ok = ParseSeconds("PT12M9S")
	assert.True(t, ok)
	assert.Equal(t, 729, n)

	n, ok = ParseSeconds("12:09")
	assert.True(t, ok)
	assert.Equal(t, 729, n)

	_, ok = ParseSeconds("about ten minutes")
	assert.False(t, ok)
}
