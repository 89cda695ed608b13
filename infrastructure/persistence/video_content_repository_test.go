package persistence

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kvn3toj/beforenostr-sub004/domain/model"
)

var videoContentColumns = []string{"id", "content", "duration_seconds", "duration_source", "updated_at"}

func TestVideoContentRepository_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	updatedAt := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, content, duration_seconds, duration_source, updated_at FROM video_content ORDER BY id`)).
		WillReturnRows(sqlmock.NewRows(videoContentColumns).
			AddRow("vc-1", `{"videoId":"dQw4w9WgXcQ"}`, 212, "api", updatedAt).
			AddRow("vc-2", "https://youtu.be/aaaaaaaaaaa", nil, nil, updatedAt))

	items, err := NewVideoContentRepository(db).ListVideoContents(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)

	require.NotNil(t, items[0].DurationSeconds)
	assert.Equal(t, 212, *items[0].DurationSeconds)
	assert.Equal(t, model.TierAPI, items[0].DurationSource)
	assert.Equal(t, updatedAt, items[0].UpdatedAt)
	assert.Nil(t, items[1].DurationSeconds)
	assert.Empty(t, items[1].DurationSource)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVideoContentRepository_GetNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM video_content WHERE id=$1`)).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(videoContentColumns))

	_, err = NewVideoContentRepository(db).GetVideoContent(context.Background(), "missing")
	assert.True(t, errors.Is(err, model.ErrNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVideoContentRepository_UpdateDuration(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewVideoContentRepository(db)
	query := regexp.QuoteMeta(`UPDATE video_content SET duration_seconds=$1, duration_source=$2, updated_at=$3 WHERE id=$4`)

	mock.ExpectExec(query).
		WithArgs(729, "api", sqlmock.AnyArg(), "vc-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdateDuration(context.Background(), "vc-1", 729, model.TierAPI))

	mock.ExpectExec(query).
		WithArgs(300, "hash_fallback", sqlmock.AnyArg(), "vc-404").
		WillReturnResult(sqlmock.NewResult(0, 0))
	err = repo.UpdateDuration(context.Background(), "vc-404", 300, model.TierHashFallback)
	assert.ErrorIs(t, err, model.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVideoContentRepositoryMSSQL_UpdateDuration(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE dbo.video_content SET duration_seconds=@p1, duration_source=@p2, updated_at=@p3 WHERE id=@p4`)).
		WithArgs(613, "scrape", sqlmock.AnyArg(), "vc-7").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = NewVideoContentRepositoryMSSQL(db).UpdateDuration(context.Background(), "vc-7", 613, model.TierScrape)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVideoContentRepositoryMSSQL_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM dbo.video_content ORDER BY id`)).
		WillReturnRows(sqlmock.NewRows(videoContentColumns).
			AddRow("vc-1", "dQw4w9WgXcQ", 480, "category_heuristic", time.Now()))

	items, err := NewVideoContentRepositoryMSSQL(db).ListVideoContents(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, model.TierCategoryHeuristic, items[0].DurationSource)
}

func newGormMock(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	return gormDB, mock
}

func TestVideoContentRepositoryGorm_List(t *testing.T) {
	gormDB, mock := newGormMock(t)

	mock.ExpectQuery("SELECT \\* FROM `video_content` ORDER BY id").
		WillReturnRows(sqlmock.NewRows(videoContentColumns).
			AddRow("vc-1", "dQw4w9WgXcQ", 212, "api", time.Now()).
			AddRow("vc-2", "aaaaaaaaaaa", nil, "", time.Now()))

	items, err := NewVideoContentRepositoryGorm(gormDB).ListVideoContents(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.NotNil(t, items[0].DurationSeconds)
	assert.Equal(t, 212, *items[0].DurationSeconds)
	assert.Nil(t, items[1].DurationSeconds)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVideoContentRepositoryGorm_GetNotFound(t *testing.T) {
	gormDB, mock := newGormMock(t)

	mock.ExpectQuery("SELECT \\* FROM `video_content` WHERE id = \\?").
		WillReturnRows(sqlmock.NewRows(videoContentColumns))

	_, err := NewVideoContentRepositoryGorm(gormDB).GetVideoContent(context.Background(), "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestVideoContentRepositoryGorm_UpdateDuration(t *testing.T) {
	gormDB, mock := newGormMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `video_content` SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := NewVideoContentRepositoryGorm(gormDB).UpdateDuration(context.Background(), "vc-1", 729, model.TierAPI)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
