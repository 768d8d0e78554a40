package service

import (
	"context"
	"fmt"
	"log"

	"avengerhq/internal/model"
	"avengerhq/internal/repository"

	"gorm.io/gorm"
)

type MissionService struct {
	missionRepo *repository.MissionRepository
	ledger      *LedgerService
}

func NewMissionService(db *gorm.DB, ledger *LedgerService) *MissionService {
	return &MissionService{
		missionRepo: repository.NewMissionRepository(db),
		ledger:      ledger,
	}
}

type CreateMissionRequest struct {
	Title       string
	Description string
	Reward      int64
	AssigneeID  *int64
}

func (s *MissionService) Create(ctx context.Context, adminID int64, req *CreateMissionRequest) (*model.Mission, error) {
	mission := &model.Mission{
		Title:       req.Title,
		Description: req.Description,
		Status:      model.MissionStatusOngoing,
		Reward:      req.Reward,
		AssigneeID:  req.AssigneeID,
		CreatedBy:   adminID,
	}
	if err := s.missionRepo.Create(ctx, mission); err != nil {
		return nil, fmt.Errorf("创建任务失败: %w", err)
	}
	return mission, nil
}

func (s *MissionService) List(ctx context.Context) ([]*model.Mission, error) {
	return s.missionRepo.List(ctx)
}

// Complete 完成任务并发放奖励
//
// 先翻转状态再发奖：状态条件更新保证并发 Complete 只有一个赢家，奖励至多发放一次。
// 发放失败时任务保持已完成，流水缺口由对账发现后人工补发
func (s *MissionService) Complete(ctx context.Context, missionID int64) (*model.Mission, error) {
	mission, err := s.missionRepo.GetByID(ctx, missionID)
	if err != nil {
		return nil, err
	}
	if !model.CanTransitionMission(mission.Status, model.MissionStatusCompleted) {
		return nil, repository.ErrMissionStatusInvalid
	}

	if err := s.missionRepo.UpdateStatus(ctx, nil, missionID, model.MissionStatusOngoing, model.MissionStatusCompleted); err != nil {
		return nil, err
	}
	mission.Status = model.MissionStatusCompleted

	if mission.AssigneeID != nil && mission.Reward > 0 {
		_, err := s.ledger.Transfer(ctx, &TransferRequest{
			SenderID:    nil, // 系统发放
			ReceiverID:  *mission.AssigneeID,
			Amount:      mission.Reward,
			Type:        model.TransactionTypeMissionReward,
			Description: fmt.Sprintf("任务奖励-%s", mission.Title),
		})
		if err != nil {
			log.Printf("任务奖励发放失败: missionID=%d, assigneeID=%d, err=%v",
				missionID, *mission.AssigneeID, err)
			return nil, fmt.Errorf("任务已完成，奖励发放失败: %w", err)
		}
	}

	return mission, nil
}

// Fail 标记任务失败，不发放奖励
func (s *MissionService) Fail(ctx context.Context, missionID int64) error {
	return s.missionRepo.UpdateStatus(ctx, nil, missionID, model.MissionStatusOngoing, model.MissionStatusFailed)
}
