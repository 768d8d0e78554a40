package service

import (
	"context"
	"fmt"
	"time"

	"avengerhq/internal/model"
	"avengerhq/internal/repository"

	"gorm.io/gorm"
)

// DashboardStats 指挥官仪表盘统计
type DashboardStats struct {
	TotalAvengers   int64 `json:"total_avengers"`
	ActiveMissions  int64 `json:"active_missions"`
	PendingFeedback int64 `json:"pending_feedback"`
	SalaryThisMonth int64 `json:"salary_this_month"`
}

// StatsService 只读聚合，不产生任何写入
// 与并发写之间是最终一致：转账是单事务，快照只会看到转账前或转账后，不会看到半截
type StatsService struct {
	memberRepo      *repository.MemberRepository
	missionRepo     *repository.MissionRepository
	feedbackRepo    *repository.FeedbackRepository
	transactionRepo *repository.TransactionRepository
}

func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{
		memberRepo:      repository.NewMemberRepository(db),
		missionRepo:     repository.NewMissionRepository(db),
		feedbackRepo:    repository.NewFeedbackRepository(db),
		transactionRepo: repository.NewTransactionRepository(db),
	}
}

// Snapshot 拉取仪表盘快照
func (s *StatsService) Snapshot(ctx context.Context) (*DashboardStats, error) {
	totalAvengers, err := s.memberRepo.CountByRole(ctx, model.RoleAvenger)
	if err != nil {
		return nil, fmt.Errorf("统计成员数失败: %w", err)
	}

	activeMissions, err := s.missionRepo.CountByStatus(ctx, model.MissionStatusOngoing)
	if err != nil {
		return nil, fmt.Errorf("统计进行中任务失败: %w", err)
	}

	pendingFeedback, err := s.feedbackRepo.CountUnread(ctx)
	if err != nil {
		return nil, fmt.Errorf("统计未读反馈失败: %w", err)
	}

	now := time.Now()
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	startOfNextMonth := startOfMonth.AddDate(0, 1, 0)

	salaryThisMonth, err := s.transactionRepo.SumByTypeBetween(ctx, model.TransactionTypeSalary, startOfMonth, startOfNextMonth)
	if err != nil {
		return nil, fmt.Errorf("统计本月工资发放失败: %w", err)
	}

	return &DashboardStats{
		TotalAvengers:   totalAvengers,
		ActiveMissions:  activeMissions,
		PendingFeedback: pendingFeedback,
		SalaryThisMonth: salaryThisMonth,
	}, nil
}
