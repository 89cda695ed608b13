package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kvn3toj/beforenostr-sub004/domain/model"
	"github.com/kvn3toj/beforenostr-sub004/domain/repository"
	"github.com/kvn3toj/beforenostr-sub004/infrastructure/logger"
	"github.com/kvn3toj/beforenostr-sub004/infrastructure/utils"
)

// EnsureVideoContentSchema creates the content table on PostgreSQL if not exists
func EnsureVideoContentSchema(db *sql.DB) error {
	ddl := `CREATE TABLE IF NOT EXISTS video_content (
        id TEXT PRIMARY KEY,
        content TEXT NOT NULL,
        duration_seconds INTEGER NULL,
        duration_source TEXT NULL,
        updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`
	if _, err := db.Exec(ddl); err != nil {
		return fmt.Errorf("create video_content table: %w", err)
	}

	// Speeds up the only_missing scan
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_video_content_missing_duration ON video_content(id) WHERE duration_seconds IS NULL`); err != nil {
		logger.GetLogger().WithField("error", err).Warn("failed creating idx_video_content_missing_duration")
	}
	return nil
}

type VideoContentRepository struct {
	db *sql.DB
}

func NewVideoContentRepository(db *sql.DB) repository.IVideoContent {
	return &VideoContentRepository{db: db}
}

func (r *VideoContentRepository) ListVideoContents(ctx context.Context) ([]model.VideoContent, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, content, duration_seconds, duration_source, updated_at FROM video_content ORDER BY id`)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while querying video contents")
		return nil, err
	}
	defer rows.Close()
	return scanVideoContents(rows)
}

func (r *VideoContentRepository) GetVideoContent(ctx context.Context, id string) (*model.VideoContent, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, content, duration_seconds, duration_source, updated_at FROM video_content WHERE id=$1`, id)
	item, err := scanVideoContent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("video content %s: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (r *VideoContentRepository) UpdateDuration(ctx context.Context, id string, seconds int, source model.ConfidenceTier) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE video_content SET duration_seconds=$1, duration_source=$2, updated_at=$3 WHERE id=$4`,
		seconds, string(source), utils.GetCurrentTime(), id)
	if err != nil {
		logger.GetLogger().WithField("error", err).WithField("id", id).Error("Error while updating duration")
		return err
	}
	return checkAffected(res, id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVideoContent(row rowScanner) (*model.VideoContent, error) {
	var (
		item    model.VideoContent
		seconds sql.NullInt64
		source  sql.NullString
	)
	if err := row.Scan(&item.ID, &item.Content, &seconds, &source, &item.UpdatedAt); err != nil {
		return nil, err
	}
	if seconds.Valid {
		n := int(seconds.Int64)
		item.DurationSeconds = &n
	}
	item.DurationSource = model.ConfidenceTier(source.String)
	return &item, nil
}

func scanVideoContents(rows *sql.Rows) ([]model.VideoContent, error) {
	var items []model.VideoContent
	for rows.Next() {
		item, err := scanVideoContent(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func checkAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("video content %s: %w", id, model.ErrNotFound)
	}
	return nil
}
