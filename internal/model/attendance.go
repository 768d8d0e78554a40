package model

import (
	"time"
)

// AttendanceSession 考勤场次表
//
// 不变式：任意时刻最多一行 is_active=1
// 过期只发生一次：要么访问时惰性翻转，要么由后台任务翻转，永不复活
type AttendanceSession struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Code      string    `gorm:"type:varchar(6);index;not null" json:"code"` // 6 位数字考勤码
	AdminID   int64     `gorm:"index;not null" json:"admin_id"`
	StartTime time.Time `gorm:"not null" json:"start_time"`
	EndTime   time.Time `gorm:"not null" json:"end_time"`
	IsActive  bool      `gorm:"index;not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (AttendanceSession) TableName() string {
	return "attendance_session"
}

// Expired 过期判断始终以 end_time 为准，不信任客户端倒计时
func (s *AttendanceSession) Expired(now time.Time) bool {
	return !now.Before(s.EndTime)
}

// AttendanceMark 打卡记录表
// (session_id, member_id) 唯一索引保证同一场次每人至多打卡一次，写入后不可变
type AttendanceMark struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID int64     `gorm:"uniqueIndex:uk_session_member;not null" json:"session_id"`
	MemberID  int64     `gorm:"uniqueIndex:uk_session_member;not null" json:"member_id"`
	MarkedAt  time.Time `gorm:"not null" json:"marked_at"`
}

func (AttendanceMark) TableName() string {
	return "attendance_mark"
}
