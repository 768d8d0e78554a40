package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"avengerhq/internal/config"
	"avengerhq/internal/model"
	"avengerhq/internal/repository"

	"gorm.io/gorm"
)

var (
	ErrAttendanceExpired = errors.New("考勤码已过期")
	ErrAttendanceInvalid = errors.New("考勤码不正确")
)

// AttendanceService 打卡协调：每人每场次至多一条记录
type AttendanceService struct {
	db             *gorm.DB
	cfg            *config.Config
	sessions       *SessionService
	attendanceRepo *repository.AttendanceRepository
	outboxRepo     *repository.OutboxRepository
}

func NewAttendanceService(db *gorm.DB, cfg *config.Config, sessions *SessionService) *AttendanceService {
	return &AttendanceService{
		db:             db,
		cfg:            cfg,
		sessions:       sessions,
		attendanceRepo: repository.NewAttendanceRepository(db),
		outboxRepo:     repository.NewOutboxRepository(db),
	}
}

// Mark 打卡
//
// 1. 无有效场次（含从未开场、已过期）→ ErrAttendanceExpired
// 2. 码不匹配 → ErrAttendanceInvalid
// 3. 原子插入打卡记录，重复 → repository.ErrMarkExists
//
// 失败都是确定性业务结果，不自动重试；新码要等下一次开场
func (s *AttendanceService) Mark(ctx context.Context, memberID int64, code string) (*model.AttendanceMark, error) {
	current, err := s.sessions.Current(ctx)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrAttendanceExpired
	}
	if current.Code != code {
		return nil, ErrAttendanceInvalid
	}

	mark := &model.AttendanceMark{
		SessionID: current.ID,
		MemberID:  memberID,
		MarkedAt:  time.Now(),
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.attendanceRepo.CreateMark(ctx, tx, mark); err != nil {
			return err
		}

		payloadBytes, _ := json.Marshal(map[string]interface{}{
			"session_id": current.ID,
			"member_id":  memberID,
			"code":       current.Code,
			"marked_at":  mark.MarkedAt.Format(time.RFC3339),
		})
		outboxMsg := &model.OutboxMessage{
			MessageKey: fmt.Sprintf("%d:%d", current.ID, memberID),
			Topic:      s.cfg.Kafka.Topic.AttendanceEvent,
			Payload:    string(payloadBytes),
			Status:     model.OutboxStatusPending,
		}
		return s.outboxRepo.Create(ctx, tx, outboxMsg)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("打卡成功: sessionID=%d, memberID=%d", current.ID, memberID)
	return mark, nil
}

// Records 全部打卡记录（指挥官视图）
func (s *AttendanceService) Records(ctx context.Context) ([]*model.AttendanceMark, error) {
	return s.attendanceRepo.ListMarks(ctx)
}

// SessionMarkCount 某场次打卡人数
func (s *AttendanceService) SessionMarkCount(ctx context.Context, sessionID int64) (int64, error) {
	return s.attendanceRepo.CountMarksBySession(ctx, sessionID)
}
