package repository

import (
	"context"
	"time"

	"avengerhq/internal/model"

	"gorm.io/gorm"
)

type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Create 追加一条流水，只在事务内调用
func (r *TransactionRepository) Create(ctx context.Context, tx *gorm.DB, trans *model.Transaction) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(trans).Error
}

func (r *TransactionRepository) GetByTransactionNo(ctx context.Context, transactionNo string) (*model.Transaction, error) {
	var trans model.Transaction
	err := r.db.WithContext(ctx).Where("transaction_no = ?", transactionNo).First(&trans).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &trans, nil
}

// ListByMemberID 某账户的流水（收支双向），最新在前
func (r *TransactionRepository) ListByMemberID(ctx context.Context, memberID int64, page, pageSize int) ([]*model.Transaction, int64, error) {
	var transactions []*model.Transaction
	var total int64

	query := r.db.WithContext(ctx).
		Model(&model.Transaction{}).
		Where("sender_id = ? OR receiver_id = ?", memberID, memberID)

	err := query.Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	err = query.
		Order("created_at DESC, id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&transactions).Error

	return transactions, total, err
}

// ListAll 全量流水，最新在前
func (r *TransactionRepository) ListAll(ctx context.Context, page, pageSize int) ([]*model.Transaction, int64, error) {
	var transactions []*model.Transaction
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Transaction{})

	err := query.Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	err = query.
		Order("created_at DESC, id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&transactions).Error

	return transactions, total, err
}

// SumByTypeBetween 某类型在时间区间内的发放总额（仪表盘月度统计用）
func (r *TransactionRepository) SumByTypeBetween(ctx context.Context, transactionType string, start, end time.Time) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&model.Transaction{}).
		Where("type = ? AND created_at >= ? AND created_at < ?", transactionType, start, end).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}

// SignedSumByMemberID 按流水重算账户余额：收款为正、付款为负
// 对账依据：任何时刻该值必须等于 account.balance
func (r *TransactionRepository) SignedSumByMemberID(ctx context.Context, memberID int64) (int64, error) {
	var credit, debit int64

	err := r.db.WithContext(ctx).
		Model(&model.Transaction{}).
		Where("receiver_id = ?", memberID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&credit).Error
	if err != nil {
		return 0, err
	}

	err = r.db.WithContext(ctx).
		Model(&model.Transaction{}).
		Where("sender_id = ?", memberID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&debit).Error
	if err != nil {
		return 0, err
	}

	return credit - debit, nil
}
