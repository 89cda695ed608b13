package filecsv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/kvn3toj/beforenostr-sub004/domain/model"
	"github.com/kvn3toj/beforenostr-sub004/infrastructure/logger"
)

func NewFile(path string) (*os.File, error) {
	file, err := os.Open(path)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while open file")
		return nil, err
	}

	return file, nil
}

// LoadKnownOverrides reads "video_id,seconds" rows from path. A header row,
// blank lines and lines starting with # are skipped.
func LoadKnownOverrides(path string) ([]model.KnownOverride, error) {
	file, err := NewFile(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return ReadKnownOverrides(file)
}

func ReadKnownOverrides(r io.Reader) ([]model.KnownOverride, error) {
	reader := csv.NewReader(r)
	reader.Comment = '#'
	reader.FieldsPerRecord = 2
	reader.TrimLeadingSpace = true

	var overrides []model.KnownOverride
	for n := 1; ; n++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read overrides: %w", err)
		}

		videoID := strings.TrimSpace(record[0])
		seconds, err := strconv.Atoi(strings.TrimSpace(record[1]))
		if err != nil {
			if n == 1 {
				continue // header
			}
			return nil, fmt.Errorf("overrides record %d: invalid seconds %q", n, record[1])
		}
		if videoID == "" || seconds <= 0 {
			return nil, fmt.Errorf("overrides record %d: video id and positive seconds required", n)
		}
		overrides = append(overrides, model.KnownOverride{VideoID: videoID, Seconds: seconds})
	}

	return overrides, nil
}
