package repository

import (
	"context"
	"errors"

	"avengerhq/internal/model"

	"gorm.io/gorm"
)

var (
	ErrMissionNotFound      = errors.New("任务不存在")
	ErrMissionStatusInvalid = errors.New("任务状态不允许该操作")
)

type MissionRepository struct {
	db *gorm.DB
}

func NewMissionRepository(db *gorm.DB) *MissionRepository {
	return &MissionRepository{db: db}
}

func (r *MissionRepository) Create(ctx context.Context, mission *model.Mission) error {
	return r.db.WithContext(ctx).Create(mission).Error
}

func (r *MissionRepository) GetByID(ctx context.Context, id int64) (*model.Mission, error) {
	var mission model.Mission
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&mission).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMissionNotFound
		}
		return nil, err
	}
	return &mission, nil
}

func (r *MissionRepository) List(ctx context.Context) ([]*model.Mission, error) {
	var missions []*model.Mission
	err := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Find(&missions).Error
	return missions, err
}

// UpdateStatus 条件更新状态，带当前状态校验，状态机流转只发生一次
func (r *MissionRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, id int64, from, to string) error {
	if tx == nil {
		tx = r.db
	}
	result := tx.WithContext(ctx).
		Model(&model.Mission{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrMissionStatusInvalid
	}
	return nil
}

func (r *MissionRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Mission{}).
		Where("status = ?", status).
		Count(&count).Error
	return count, err
}
