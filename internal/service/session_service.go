package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"avengerhq/internal/config"
	"avengerhq/internal/infrastructure/lock"
	"avengerhq/internal/model"
	"avengerhq/internal/repository"
	"avengerhq/pkg/idgen"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

var (
	ErrSessionAlreadyActive = errors.New("已有进行中的考勤场次")
)

// SessionService 管理全局唯一的活跃考勤场次
type SessionService struct {
	db             *gorm.DB
	redisClient    *redis.Client
	cfg            *config.Config
	attendanceRepo *repository.AttendanceRepository
}

func NewSessionService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *SessionService {
	return &SessionService{
		db:             db,
		redisClient:    redisClient,
		cfg:            cfg,
		attendanceRepo: repository.NewAttendanceRepository(db),
	}
}

// Start 开启新考勤场次，生成 6 位考勤码
//
// 策略：已有活跃场次时拒绝（落败方确定性收到冲突），新场次只能等上一场过期。
// 开场锁保证并发 Start 只有一个赢家；锁内先惰性过期再查活跃，
// 避免"查-改"两步之间被别的请求插入
func (s *SessionService) Start(ctx context.Context, adminID int64) (*model.AttendanceSession, error) {
	startLock := lock.NewSessionStartLock(s.redisClient)
	if err := startLock.Lock(ctx, 50*time.Millisecond, 20); err != nil {
		return nil, fmt.Errorf("系统繁忙，请稍后重试: %w", err)
	}
	defer startLock.Unlock(ctx)

	now := time.Now()

	if _, err := s.attendanceRepo.ExpireOverdue(ctx, now); err != nil {
		return nil, fmt.Errorf("清理过期场次失败: %w", err)
	}

	active, err := s.attendanceRepo.GetActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("查询活跃场次失败: %w", err)
	}
	if active != nil {
		return nil, ErrSessionAlreadyActive
	}

	window := time.Duration(s.cfg.Business.AttendanceWindowSeconds) * time.Second
	session := &model.AttendanceSession{
		Code:      idgen.GenerateAttendanceCode(),
		AdminID:   adminID,
		StartTime: now,
		EndTime:   now.Add(window),
		IsActive:  true,
	}

	if err := s.attendanceRepo.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("创建考勤场次失败: %w", err)
	}

	log.Printf("考勤场次开启: sessionID=%d, code=%s, 有效期至 %s",
		session.ID, session.Code, session.EndTime.Format(time.RFC3339))

	return session, nil
}

// Current 返回当前有效场次，过期则惰性翻转并返回 nil
// 有效性始终按 end_time 重新推导，不存在"客户端倒计时"一说
func (s *SessionService) Current(ctx context.Context) (*model.AttendanceSession, error) {
	active, err := s.attendanceRepo.GetActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("查询活跃场次失败: %w", err)
	}
	if active == nil {
		return nil, nil
	}

	if active.Expired(time.Now()) {
		if err := s.attendanceRepo.Deactivate(ctx, active.ID); err != nil {
			return nil, fmt.Errorf("翻转过期场次失败: %w", err)
		}
		return nil, nil
	}

	return active, nil
}
