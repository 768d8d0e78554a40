package model

import (
	"time"
)

// Account 成员账户表
// 余额只允许 LedgerService 通过转账协议修改，其他模块只读
type Account struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	MemberID  int64     `gorm:"uniqueIndex;not null" json:"member_id"`
	Balance   int64     `gorm:"not null;default:0" json:"balance"` // 可用余额（最小货币单位）
	Version   int       `gorm:"not null;default:0" json:"version"` // 乐观锁版本号
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Account) TableName() string {
	return "account"
}
