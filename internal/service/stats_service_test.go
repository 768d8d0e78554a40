package service

import (
	"context"
	"testing"

	"avengerhq/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot(t *testing.T) {
	db, rdb, cfg := newTestEnv(t)
	ledger := NewLedgerService(db, rdb, cfg)
	svc := NewStatsService(db)

	admin := newMember(t, db, "fury", model.RoleAdmin)

	var avengers []*model.Member
	for _, name := range []string{"tony", "steve", "nat"} {
		avengers = append(avengers, newMember(t, db, name, model.RoleAvenger))
	}
	newAccount(t, db, avengers[0].ID, 0)

	// 2 个进行中任务 + 1 个已完成
	require.NoError(t, db.Create(&model.Mission{Title: "m1", Status: model.MissionStatusOngoing, CreatedBy: admin.ID}).Error)
	require.NoError(t, db.Create(&model.Mission{Title: "m2", Status: model.MissionStatusOngoing, CreatedBy: admin.ID}).Error)
	require.NoError(t, db.Create(&model.Mission{Title: "m3", Status: model.MissionStatusCompleted, CreatedBy: admin.ID}).Error)

	// 2 条未读反馈 + 1 条已读
	require.NoError(t, db.Create(&model.Feedback{MemberID: avengers[0].ID, Content: "f1"}).Error)
	require.NoError(t, db.Create(&model.Feedback{MemberID: avengers[1].ID, Content: "f2"}).Error)
	require.NoError(t, db.Create(&model.Feedback{MemberID: avengers[2].ID, Content: "f3", IsRead: true}).Error)

	// 本月工资 5000，奖金不计入工资口径
	_, err := ledger.Transfer(context.Background(), &TransferRequest{
		ReceiverID: avengers[0].ID, Amount: 5000, Type: model.TransactionTypeSalary,
	})
	require.NoError(t, err)
	_, err = ledger.Transfer(context.Background(), &TransferRequest{
		ReceiverID: avengers[0].ID, Amount: 100, Type: model.TransactionTypeBonus,
	})
	require.NoError(t, err)

	stats, err := svc.Snapshot(context.Background())
	require.NoError(t, err)

	assert.EqualValues(t, 3, stats.TotalAvengers)
	assert.EqualValues(t, 2, stats.ActiveMissions)
	assert.EqualValues(t, 2, stats.PendingFeedback)
	assert.EqualValues(t, 5000, stats.SalaryThisMonth)
}

func TestSnapshotEmpty(t *testing.T) {
	db, _, _ := newTestEnv(t)
	svc := NewStatsService(db)

	stats, err := svc.Snapshot(context.Background())
	require.NoError(t, err)

	assert.EqualValues(t, 0, stats.TotalAvengers)
	assert.EqualValues(t, 0, stats.ActiveMissions)
	assert.EqualValues(t, 0, stats.PendingFeedback)
	assert.EqualValues(t, 0, stats.SalaryThisMonth)
}
