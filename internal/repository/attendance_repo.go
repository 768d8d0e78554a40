package repository

import (
	"context"
	"errors"
	"time"

	"avengerhq/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrMarkExists = errors.New("本场次已打过卡")
)

type AttendanceRepository struct {
	db *gorm.DB
}

func NewAttendanceRepository(db *gorm.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

func (r *AttendanceRepository) CreateSession(ctx context.Context, session *model.AttendanceSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

// GetActive 返回当前活跃场次，没有则返回 nil
func (r *AttendanceRepository) GetActive(ctx context.Context) (*model.AttendanceSession, error) {
	var session model.AttendanceSession
	err := r.db.WithContext(ctx).Where("is_active = ?", true).First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

// Deactivate 把场次翻转为过期态
// 条件带 is_active=1，重复调用只有第一次生效，Active→Expired 只发生一次
func (r *AttendanceRepository) Deactivate(ctx context.Context, sessionID int64) error {
	return r.db.WithContext(ctx).
		Model(&model.AttendanceSession{}).
		Where("id = ? AND is_active = ?", sessionID, true).
		Update("is_active", false).Error
}

// ExpireOverdue 批量翻转所有已超时的活跃场次，返回影响行数
func (r *AttendanceRepository) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.AttendanceSession{}).
		Where("is_active = ? AND end_time <= ?", true, now).
		Update("is_active", false)
	return result.RowsAffected, result.Error
}

// CreateMark 原子插入打卡记录
//
// (session_id, member_id) 唯一索引 + OnConflict DoNothing，
// "查重+写入"合并为一条语句，并发重复提交只有一个赢家，
// 影响行数为 0 说明记录已存在
func (r *AttendanceRepository) CreateMark(ctx context.Context, tx *gorm.DB, mark *model.AttendanceMark) error {
	if tx == nil {
		tx = r.db
	}
	result := tx.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}, {Name: "member_id"}},
			DoNothing: true,
		}).
		Create(mark)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrMarkExists
	}
	return nil
}

// ListMarks 全部打卡记录，最新在前
func (r *AttendanceRepository) ListMarks(ctx context.Context) ([]*model.AttendanceMark, error) {
	var marks []*model.AttendanceMark
	err := r.db.WithContext(ctx).
		Order("marked_at DESC, id DESC").
		Find(&marks).Error
	return marks, err
}

func (r *AttendanceRepository) CountMarksBySession(ctx context.Context, sessionID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.AttendanceMark{}).
		Where("session_id = ?", sessionID).
		Count(&count).Error
	return count, err
}
