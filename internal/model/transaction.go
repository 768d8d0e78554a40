package model

import (
	"time"
)

const (
	TransactionTypeSalary        = "SALARY"         // 工资（系统发放）
	TransactionTypeSendMoney     = "SEND_MONEY"     // 成员间转账
	TransactionTypeMissionReward = "MISSION_REWARD" // 任务奖励（系统发放）
	TransactionTypeBonus         = "BONUS"          // 奖金（系统发放）
)

// SystemIssued 系统发放类交易不需要扣款方
func SystemIssued(transactionType string) bool {
	switch transactionType {
	case TransactionTypeSalary, TransactionTypeMissionReward, TransactionTypeBonus:
		return true
	}
	return false
}

// Transaction 交易流水表
//
// 流水表设计原则：
// 1. 只追加，不修改，不删除 —— 账户余额必须能从流水重算出来
// 2. SenderID 为空表示系统发放（工资、任务奖励）
// 3. Amount 恒为正数，方向由 sender/receiver 表达
type Transaction struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	TransactionNo string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"transaction_no"`
	SenderID      *int64    `gorm:"index" json:"sender_id"` // 为空 = 系统发放
	ReceiverID    int64     `gorm:"index;not null" json:"receiver_id"`
	Amount        int64     `gorm:"not null" json:"amount"` // 恒为正
	Type          string    `gorm:"type:varchar(20);not null" json:"type"`
	Description   string    `gorm:"type:varchar(256)" json:"description"`
	CreatedAt     time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (Transaction) TableName() string {
	return "transaction"
}
