package repository

import (
	"context"
	"errors"

	"avengerhq/internal/model"

	"gorm.io/gorm"
)

var (
	ErrFeedbackNotFound = errors.New("反馈不存在")
)

type FeedbackRepository struct {
	db *gorm.DB
}

func NewFeedbackRepository(db *gorm.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

func (r *FeedbackRepository) Create(ctx context.Context, feedback *model.Feedback) error {
	return r.db.WithContext(ctx).Create(feedback).Error
}

func (r *FeedbackRepository) List(ctx context.Context) ([]*model.Feedback, error) {
	var items []*model.Feedback
	err := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Find(&items).Error
	return items, err
}

func (r *FeedbackRepository) MarkRead(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).
		Model(&model.Feedback{}).
		Where("id = ?", id).
		Update("is_read", true)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrFeedbackNotFound
	}
	return nil
}

func (r *FeedbackRepository) CountUnread(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Feedback{}).
		Where("is_read = ?", false).
		Count(&count).Error
	return count, err
}
