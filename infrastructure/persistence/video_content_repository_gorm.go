package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/kvn3toj/beforenostr-sub004/domain/model"
	"github.com/kvn3toj/beforenostr-sub004/domain/repository"
	"github.com/kvn3toj/beforenostr-sub004/infrastructure/utils"

	"gorm.io/gorm"
)

// VideoContentRepositoryGorm serves the MySQL deployment.
type VideoContentRepositoryGorm struct {
	db *gorm.DB
}

func NewVideoContentRepositoryGorm(db *gorm.DB) repository.IVideoContent {
	return &VideoContentRepositoryGorm{db: db}
}

func (r *VideoContentRepositoryGorm) ListVideoContents(ctx context.Context) ([]model.VideoContent, error) {
	var items []model.VideoContent
	if err := r.db.WithContext(ctx).Order("id").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *VideoContentRepositoryGorm) GetVideoContent(ctx context.Context, id string) (*model.VideoContent, error) {
	var item model.VideoContent
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("video content %s: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *VideoContentRepositoryGorm) UpdateDuration(ctx context.Context, id string, seconds int, source model.ConfidenceTier) error {
	res := r.db.WithContext(ctx).Model(&model.VideoContent{}).Where("id = ?", id).Updates(map[string]interface{}{
		"duration_seconds": seconds,
		"duration_source":  string(source),
		"updated_at":       utils.GetCurrentTime(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("video content %s: %w", id, model.ErrNotFound)
	}
	return nil
}
