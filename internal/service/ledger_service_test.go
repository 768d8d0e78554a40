package service

import (
	"context"
	"sync"
	"testing"

	"avengerhq/internal/model"
	"avengerhq/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransferInvalidAmount(t *testing.T) {
	db, rdb, cfg := newTestEnv(t)
	svc := NewLedgerService(db, rdb, cfg)

	receiver := newMember(t, db, "steve", model.RoleAvenger)
	newAccount(t, db, receiver.ID, 100)

	for _, amount := range []int64{0, -1, -500} {
		_, err := svc.Transfer(context.Background(), &TransferRequest{
			ReceiverID: receiver.ID,
			Amount:     amount,
			Type:       model.TransactionTypeSalary,
		})
		assert.ErrorIs(t, err, ErrInvalidAmount)
	}

	assert.EqualValues(t, 100, accountBalance(t, db, receiver.ID))
}

func TestTransferUnknownRecipient(t *testing.T) {
	db, rdb, cfg := newTestEnv(t)
	svc := NewLedgerService(db, rdb, cfg)

	ghost := newMember(t, db, "ghost", model.RoleAvenger) // 没有账户

	_, err := svc.Transfer(context.Background(), &TransferRequest{
		ReceiverID: ghost.ID,
		Amount:     100,
		Type:       model.TransactionTypeSalary,
	})
	assert.ErrorIs(t, err, ErrUnknownRecipient)
}

func TestTransferInsufficientBalance(t *testing.T) {
	db, rdb, cfg := newTestEnv(t)
	svc := NewLedgerService(db, rdb, cfg)

	sender := newMember(t, db, "tony", model.RoleAvenger)
	receiver := newMember(t, db, "steve", model.RoleAvenger)
	newAccount(t, db, sender.ID, 100)
	newAccount(t, db, receiver.ID, 0)

	_, err := svc.Transfer(context.Background(), &TransferRequest{
		SenderID:   &sender.ID,
		ReceiverID: receiver.ID,
		Amount:     150,
		Type:       model.TransactionTypeSendMoney,
	})
	assert.ErrorIs(t, err, repository.ErrBalanceNotEnough)

	// 双方余额原封不动，流水为空
	assert.EqualValues(t, 100, accountBalance(t, db, sender.ID))
	assert.EqualValues(t, 0, accountBalance(t, db, receiver.ID))

	var count int64
	require.NoError(t, db.Model(&model.Transaction{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestTransferSelf(t *testing.T) {
	db, rdb, cfg := newTestEnv(t)
	svc := NewLedgerService(db, rdb, cfg)

	sender := newMember(t, db, "tony", model.RoleAvenger)
	newAccount(t, db, sender.ID, 100)

	_, err := svc.Transfer(context.Background(), &TransferRequest{
		SenderID:   &sender.ID,
		ReceiverID: sender.ID,
		Amount:     50,
		Type:       model.TransactionTypeSendMoney,
	})
	assert.ErrorIs(t, err, ErrSelfTransfer)
}

func TestSystemSalaryTransfer(t *testing.T) {
	db, rdb, cfg := newTestEnv(t)
	svc := NewLedgerService(db, rdb, cfg)

	receiver := newMember(t, db, "steve", model.RoleAvenger)
	newAccount(t, db, receiver.ID, 0)

	trans, err := svc.Transfer(context.Background(), &TransferRequest{
		SenderID:    nil, // 系统发放
		ReceiverID:  receiver.ID,
		Amount:      5000,
		Type:        model.TransactionTypeSalary,
		Description: "monthly pay",
	})
	require.NoError(t, err)

	assert.Nil(t, trans.SenderID)
	assert.EqualValues(t, 5000, accountBalance(t, db, receiver.ID))

	var rows []model.Transaction
	require.NoError(t, db.Where("type = ?", model.TransactionTypeSalary).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.EqualValues(t, 5000, rows[0].Amount)
	assert.Equal(t, "monthly pay", rows[0].Description)

	// 事件随事务一起落库
	var outboxCount int64
	require.NoError(t, db.Model(&model.OutboxMessage{}).
		Where("topic = ?", cfg.Kafka.Topic.LedgerEvent).Count(&outboxCount).Error)
	assert.EqualValues(t, 1, outboxCount)
}

func TestPeerTransfer(t *testing.T) {
	db, rdb, cfg := newTestEnv(t)
	svc := NewLedgerService(db, rdb, cfg)

	sender := newMember(t, db, "tony", model.RoleAvenger)
	receiver := newMember(t, db, "steve", model.RoleAvenger)
	newAccount(t, db, sender.ID, 1000)
	newAccount(t, db, receiver.ID, 0)

	trans, err := svc.Transfer(context.Background(), &TransferRequest{
		SenderID:    &sender.ID,
		ReceiverID:  receiver.ID,
		Amount:      300,
		Type:        model.TransactionTypeSendMoney,
		Description: "shawarma",
	})
	require.NoError(t, err)

	require.NotNil(t, trans.SenderID)
	assert.Equal(t, sender.ID, *trans.SenderID)
	assert.NotEmpty(t, trans.TransactionNo)
	assert.EqualValues(t, 700, accountBalance(t, db, sender.ID))
	assert.EqualValues(t, 300, accountBalance(t, db, receiver.ID))
}

func TestConcurrentTransfersNoLostUpdates(t *testing.T) {
	db, rdb, cfg := newTestEnv(t)
	svc := NewLedgerService(db, rdb, cfg)

	sender := newMember(t, db, "tony", model.RoleAvenger)
	receiver := newMember(t, db, "steve", model.RoleAvenger)
	newAccount(t, db, sender.ID, 1000)
	newAccount(t, db, receiver.ID, 0)

	// 初始余额足够覆盖全部 N 笔，任何一笔都不允许丢失
	const n = 10
	const amount = 50

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Transfer(context.Background(), &TransferRequest{
				SenderID:   &sender.ID,
				ReceiverID: receiver.ID,
				Amount:     amount,
				Type:       model.TransactionTypeSendMoney,
			})
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "第 %d 笔转账失败", i)
	}

	assert.EqualValues(t, 1000-n*amount, accountBalance(t, db, sender.ID))
	assert.EqualValues(t, n*amount, accountBalance(t, db, receiver.ID))

	var count int64
	require.NoError(t, db.Model(&model.Transaction{}).Count(&count).Error)
	assert.EqualValues(t, n, count)
}

func TestHistoryOrderingAndScope(t *testing.T) {
	db, rdb, cfg := newTestEnv(t)
	svc := NewLedgerService(db, rdb, cfg)

	a := newMember(t, db, "tony", model.RoleAvenger)
	b := newMember(t, db, "steve", model.RoleAvenger)
	c := newMember(t, db, "nat", model.RoleAvenger)
	newAccount(t, db, a.ID, 1000)
	newAccount(t, db, b.ID, 0)
	newAccount(t, db, c.ID, 0)

	for _, req := range []*TransferRequest{
		{SenderID: nil, ReceiverID: a.ID, Amount: 100, Type: model.TransactionTypeSalary},
		{SenderID: &a.ID, ReceiverID: b.ID, Amount: 200, Type: model.TransactionTypeSendMoney},
		{SenderID: nil, ReceiverID: c.ID, Amount: 300, Type: model.TransactionTypeBonus},
	} {
		_, err := svc.Transfer(context.Background(), req)
		require.NoError(t, err)
	}

	// 全量视图：最新在前
	all, total, err := svc.History(context.Background(), nil, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, all, 3)
	assert.EqualValues(t, 300, all[0].Amount)
	assert.EqualValues(t, 200, all[1].Amount)
	assert.EqualValues(t, 100, all[2].Amount)

	// 个人视图只含收支双向涉及自己的流水
	mine, total, err := svc.History(context.Background(), &b.ID, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, mine, 1)
	assert.EqualValues(t, 200, mine[0].Amount)
}

func TestVerifyBalance(t *testing.T) {
	db, rdb, cfg := newTestEnv(t)
	svc := NewLedgerService(db, rdb, cfg)

	sender := newMember(t, db, "tony", model.RoleAvenger)
	receiver := newMember(t, db, "steve", model.RoleAvenger)
	newAccount(t, db, sender.ID, 0)
	newAccount(t, db, receiver.ID, 0)

	_, err := svc.Transfer(context.Background(), &TransferRequest{
		ReceiverID: sender.ID, Amount: 1000, Type: model.TransactionTypeSalary,
	})
	require.NoError(t, err)
	_, err = svc.Transfer(context.Background(), &TransferRequest{
		SenderID: &sender.ID, ReceiverID: receiver.ID, Amount: 400, Type: model.TransactionTypeSendMoney,
	})
	require.NoError(t, err)

	// 余额 = 流水有向和
	recomputed, err := svc.VerifyBalance(context.Background(), sender.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 600, recomputed)

	recomputed, err = svc.VerifyBalance(context.Background(), receiver.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 400, recomputed)

	// 人为篡改余额后对账必须报警
	require.NoError(t, db.Model(&model.Account{}).
		Where("member_id = ?", sender.ID).
		Update("balance", 999).Error)

	_, err = svc.VerifyBalance(context.Background(), sender.ID)
	assert.ErrorIs(t, err, ErrLedgerMismatch)
}

func TestGetBalanceMissingAccount(t *testing.T) {
	db, rdb, cfg := newTestEnv(t)
	svc := NewLedgerService(db, rdb, cfg)

	balance, err := svc.GetBalance(context.Background(), 12345)
	require.NoError(t, err)
	assert.EqualValues(t, 0, balance)
}
