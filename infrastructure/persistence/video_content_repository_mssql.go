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

// EnsureVideoContentSchemaMSSQL creates the content table on MSSQL if not exists
func EnsureVideoContentSchemaMSSQL(db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("db is nil")
	}
	ddl := `IF NOT EXISTS (SELECT * FROM sys.objects WHERE object_id = OBJECT_ID(N'dbo.video_content') AND type in (N'U'))
BEGIN
    CREATE TABLE dbo.video_content (
        id NVARCHAR(64) NOT NULL PRIMARY KEY,
        content NVARCHAR(MAX) NOT NULL,
        duration_seconds INT NULL,
        duration_source NVARCHAR(32) NULL,
        updated_at DATETIMEOFFSET NOT NULL DEFAULT SYSDATETIMEOFFSET()
    );
END`
	if _, err := db.Exec(ddl); err != nil {
		return fmt.Errorf("create video_content table (mssql): %w", err)
	}
	return nil
}

// VideoContentRepositoryMSSQL implements IVideoContent on MSSQL
type VideoContentRepositoryMSSQL struct {
	db *sql.DB
}

func NewVideoContentRepositoryMSSQL(db *sql.DB) repository.IVideoContent {
	return &VideoContentRepositoryMSSQL{db: db}
}

func (r *VideoContentRepositoryMSSQL) ListVideoContents(ctx context.Context) ([]model.VideoContent, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, content, duration_seconds, duration_source, updated_at FROM dbo.video_content ORDER BY id`)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while querying video contents (mssql)")
		return nil, err
	}
	defer rows.Close()
	return scanVideoContents(rows)
}

func (r *VideoContentRepositoryMSSQL) GetVideoContent(ctx context.Context, id string) (*model.VideoContent, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, content, duration_seconds, duration_source, updated_at FROM dbo.video_content WHERE id=@p1`, id)
	item, err := scanVideoContent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("video content %s: %w", id, model.ErrNotFound)
	}
	return item, err
}

func (r *VideoContentRepositoryMSSQL) UpdateDuration(ctx context.Context, id string, seconds int, source model.ConfidenceTier) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE dbo.video_content SET duration_seconds=@p1, duration_source=@p2, updated_at=@p3 WHERE id=@p4`,
		seconds, string(source), utils.GetCurrentTime(), id)
	if err != nil {
		logger.GetLogger().WithField("error", err).WithField("id", id).Error("Error while updating duration (mssql)")
		return err
	}
	return checkAffected(res, id)
}
