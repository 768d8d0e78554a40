package model

import (
	"time"
)

const (
	RoleAdmin   = "ADMIN"   // 指挥官：发起考勤、发放报酬
	RoleAvenger = "AVENGER" // 队员：打卡、收款、互相转账
)

// Member 成员表
// 身份认证由外部签发，这里只保存花名册信息和权威角色
type Member struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Username  string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"username"`
	Email     string    `gorm:"type:varchar(128)" json:"email"`
	Role      string    `gorm:"type:varchar(20);index;not null" json:"role"`
	Alive     bool      `gorm:"not null;default:true" json:"alive"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Member) TableName() string {
	return "member"
}
