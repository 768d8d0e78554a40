package service

import (
	"context"
	"encoding/json"
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
	ErrInvalidAmount    = errors.New("金额必须大于0")
	ErrUnknownRecipient = errors.New("收款账户不存在")
	ErrSelfTransfer     = errors.New("不能给自己转账")
	ErrLedgerMismatch   = errors.New("余额与流水不一致")
)

// LedgerService 账本服务，账户余额唯一的修改入口
type LedgerService struct {
	db              *gorm.DB
	redisClient     *redis.Client
	cfg             *config.Config
	accountRepo     *repository.AccountRepository
	transactionRepo *repository.TransactionRepository
	outboxRepo      *repository.OutboxRepository
}

func NewLedgerService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *LedgerService {
	return &LedgerService{
		db:              db,
		redisClient:     redisClient,
		cfg:             cfg,
		accountRepo:     repository.NewAccountRepository(db),
		transactionRepo: repository.NewTransactionRepository(db),
		outboxRepo:      repository.NewOutboxRepository(db),
	}
}

type TransferRequest struct {
	SenderID    *int64 // 为空 = 系统发放（工资、任务奖励）
	ReceiverID  int64
	Amount      int64
	Type        string
	Description string
}

// Transfer 执行转账
//
// 扣款、入账、追加流水在一个数据库事务内，要么全部生效要么全不生效。
// 成员转账按付款人加分布式锁 + 版本号 CAS，并发扣款不会丢更新；
// 余额不足时事务整体回滚，双方余额保持原状。
// 本方法保证单次调用的原子性，不对重复调用去重，调用方重试前必须先确认上一次结果
func (s *LedgerService) Transfer(ctx context.Context, req *TransferRequest) (*model.Transaction, error) {
	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}

	if _, err := s.accountRepo.GetByMemberID(ctx, req.ReceiverID); err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrUnknownRecipient
		}
		return nil, fmt.Errorf("查询收款账户失败: %w", err)
	}

	if req.SenderID == nil {
		return s.systemTransfer(ctx, req)
	}
	return s.peerTransfer(ctx, req)
}

// systemTransfer 系统发放：跳过余额校验，入账和流水仍是一个事务
func (s *LedgerService) systemTransfer(ctx context.Context, req *TransferRequest) (*model.Transaction, error) {
	trans := s.buildTransaction(req)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.accountRepo.Increase(ctx, tx, req.ReceiverID, req.Amount); err != nil {
			return fmt.Errorf("入账失败: %w", err)
		}
		if err := s.transactionRepo.Create(ctx, tx, trans); err != nil {
			return fmt.Errorf("记录流水失败: %w", err)
		}
		return s.appendOutbox(ctx, tx, trans)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("系统发放成功: transactionNo=%s, receiverID=%d, amount=%d, type=%s",
		trans.TransactionNo, req.ReceiverID, req.Amount, req.Type)
	return trans, nil
}

// peerTransfer 成员转账：付款人锁 + 版本号 CAS，只在版本冲突时重试
func (s *LedgerService) peerTransfer(ctx context.Context, req *TransferRequest) (*model.Transaction, error) {
	senderID := *req.SenderID
	if senderID == req.ReceiverID {
		return nil, ErrSelfTransfer
	}

	transferLock := lock.NewTransferLock(s.redisClient, senderID)
	if err := transferLock.Lock(ctx, 100*time.Millisecond, 30); err != nil {
		return nil, fmt.Errorf("系统繁忙，请稍后重试: %w", err)
	}
	defer transferLock.Unlock(ctx)

	for attempt := 0; attempt < s.cfg.Business.TransferMaxRetry; attempt++ {
		sender, err := s.accountRepo.GetByMemberID(ctx, senderID)
		if err != nil {
			return nil, fmt.Errorf("查询付款账户失败: %w", err)
		}
		if sender.Balance < req.Amount {
			return nil, repository.ErrBalanceNotEnough
		}

		trans := s.buildTransaction(req)

		err = s.db.Transaction(func(tx *gorm.DB) error {
			if err := s.accountRepo.Deduct(ctx, tx, senderID, req.Amount, sender.Version); err != nil {
				return err
			}
			if err := s.accountRepo.Increase(ctx, tx, req.ReceiverID, req.Amount); err != nil {
				return fmt.Errorf("入账失败: %w", err)
			}
			if err := s.transactionRepo.Create(ctx, tx, trans); err != nil {
				return fmt.Errorf("记录流水失败: %w", err)
			}
			return s.appendOutbox(ctx, tx, trans)
		})
		if errors.Is(err, repository.ErrOptimisticLock) {
			continue
		}
		if err != nil {
			return nil, err
		}

		log.Printf("转账成功: transactionNo=%s, senderID=%d, receiverID=%d, amount=%d",
			trans.TransactionNo, senderID, req.ReceiverID, req.Amount)
		return trans, nil
	}

	return nil, repository.ErrOptimisticLock
}

func (s *LedgerService) buildTransaction(req *TransferRequest) *model.Transaction {
	return &model.Transaction{
		TransactionNo: idgen.GenerateTransactionNo(),
		SenderID:      req.SenderID,
		ReceiverID:    req.ReceiverID,
		Amount:        req.Amount,
		Type:          req.Type,
		Description:   req.Description,
	}
}

func (s *LedgerService) appendOutbox(ctx context.Context, tx *gorm.DB, trans *model.Transaction) error {
	payloadBytes, _ := json.Marshal(map[string]interface{}{
		"transaction_no": trans.TransactionNo,
		"sender_id":      trans.SenderID,
		"receiver_id":    trans.ReceiverID,
		"amount":         trans.Amount,
		"type":           trans.Type,
		"description":    trans.Description,
	})
	outboxMsg := &model.OutboxMessage{
		MessageKey: trans.TransactionNo,
		Topic:      s.cfg.Kafka.Topic.LedgerEvent,
		Payload:    string(payloadBytes),
		Status:     model.OutboxStatusPending,
	}
	if err := s.outboxRepo.Create(ctx, tx, outboxMsg); err != nil {
		return fmt.Errorf("写入消息失败: %w", err)
	}
	return nil
}

// History 流水查询，最新在前；memberID 为空时返回全量（指挥官视图）
func (s *LedgerService) History(ctx context.Context, memberID *int64, page, pageSize int) ([]*model.Transaction, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 10
	}
	if memberID == nil {
		return s.transactionRepo.ListAll(ctx, page, pageSize)
	}
	return s.transactionRepo.ListByMemberID(ctx, *memberID, page, pageSize)
}

// GetBalance 查询余额，账户不存在时按 0 处理
func (s *LedgerService) GetBalance(ctx context.Context, memberID int64) (int64, error) {
	account, err := s.accountRepo.GetByMemberID(ctx, memberID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return account.Balance, nil
}

// VerifyBalance 对账：按流水重算余额并与账户比对
func (s *LedgerService) VerifyBalance(ctx context.Context, memberID int64) (int64, error) {
	account, err := s.accountRepo.GetByMemberID(ctx, memberID)
	if err != nil {
		return 0, err
	}

	recomputed, err := s.transactionRepo.SignedSumByMemberID(ctx, memberID)
	if err != nil {
		return 0, err
	}

	if recomputed != account.Balance {
		log.Printf("对账不一致: memberID=%d, balance=%d, 流水重算=%d", memberID, account.Balance, recomputed)
		return recomputed, ErrLedgerMismatch
	}
	return recomputed, nil
}
