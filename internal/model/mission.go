package model

import (
	"time"
)

const (
	MissionStatusOngoing   = "ONGOING"
	MissionStatusCompleted = "COMPLETED"
	MissionStatusFailed    = "FAILED"
)

var validMissionTransitions = map[string][]string{
	MissionStatusOngoing: {MissionStatusCompleted, MissionStatusFailed},
}

func CanTransitionMission(current, target string) bool {
	for _, s := range validMissionTransitions[current] {
		if s == target {
			return true
		}
	}
	return false
}

// Mission 任务表
// 任务完成时通过 LedgerService 以 MISSION_REWARD 发放奖励
type Mission struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Title       string    `gorm:"type:varchar(128);not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Status      string    `gorm:"type:varchar(20);index;not null" json:"status"`
	Reward      int64     `gorm:"not null;default:0" json:"reward"` // 完成奖励（最小货币单位）
	AssigneeID  *int64    `gorm:"index" json:"assignee_id"`
	CreatedBy   int64     `gorm:"not null" json:"created_by"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Mission) TableName() string {
	return "mission"
}
