package service

import (
	"context"
	"testing"

	"avengerhq/internal/model"
	"avengerhq/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompleteMissionPaysReward(t *testing.T) {
	db, rdb, cfg := newTestEnv(t)
	ledger := NewLedgerService(db, rdb, cfg)
	svc := NewMissionService(db, ledger)

	admin := newMember(t, db, "fury", model.RoleAdmin)
	assignee := newMember(t, db, "steve", model.RoleAvenger)
	newAccount(t, db, assignee.ID, 0)

	mission, err := svc.Create(context.Background(), admin.ID, &CreateMissionRequest{
		Title:      "budapest",
		Reward:     2000,
		AssigneeID: &assignee.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, model.MissionStatusOngoing, mission.Status)

	completed, err := svc.Complete(context.Background(), mission.ID)
	require.NoError(t, err)
	assert.Equal(t, model.MissionStatusCompleted, completed.Status)
	assert.EqualValues(t, 2000, accountBalance(t, db, assignee.ID))

	var rows []model.Transaction
	require.NoError(t, db.Where("type = ?", model.TransactionTypeMissionReward).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].SenderID)

	// 重复完成确定性失败，奖励不会二次发放
	_, err = svc.Complete(context.Background(), mission.ID)
	assert.ErrorIs(t, err, repository.ErrMissionStatusInvalid)
	assert.EqualValues(t, 2000, accountBalance(t, db, assignee.ID))
}

func TestCompleteMissionWithoutReward(t *testing.T) {
	db, rdb, cfg := newTestEnv(t)
	ledger := NewLedgerService(db, rdb, cfg)
	svc := NewMissionService(db, ledger)

	admin := newMember(t, db, "fury", model.RoleAdmin)

	mission, err := svc.Create(context.Background(), admin.ID, &CreateMissionRequest{Title: "recon"})
	require.NoError(t, err)

	completed, err := svc.Complete(context.Background(), mission.ID)
	require.NoError(t, err)
	assert.Equal(t, model.MissionStatusCompleted, completed.Status)

	var count int64
	require.NoError(t, db.Model(&model.Transaction{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestFailMission(t *testing.T) {
	db, rdb, cfg := newTestEnv(t)
	ledger := NewLedgerService(db, rdb, cfg)
	svc := NewMissionService(db, ledger)

	admin := newMember(t, db, "fury", model.RoleAdmin)

	mission, err := svc.Create(context.Background(), admin.ID, &CreateMissionRequest{Title: "recon"})
	require.NoError(t, err)

	require.NoError(t, svc.Fail(context.Background(), mission.ID))

	// 失败的任务不能再完成
	_, err = svc.Complete(context.Background(), mission.ID)
	assert.ErrorIs(t, err, repository.ErrMissionStatusInvalid)
}
