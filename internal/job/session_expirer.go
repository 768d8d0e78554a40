package job

import (
	"context"
	"log"
	"time"

	"avengerhq/internal/config"
	"avengerhq/internal/repository"

	"gorm.io/gorm"
)

// SessionExpirerJob 定时翻转已超时的考勤场次
// 正确性不依赖本任务：访问路径上会按 end_time 惰性过期，这里只是兜底清理
type SessionExpirerJob struct {
	db             *gorm.DB
	attendanceRepo *repository.AttendanceRepository
	cfg            *config.Config
	stopCh         chan struct{}
	interval       time.Duration
}

func NewSessionExpirerJob(db *gorm.DB, cfg *config.Config) *SessionExpirerJob {
	return &SessionExpirerJob{
		db:             db,
		attendanceRepo: repository.NewAttendanceRepository(db),
		cfg:            cfg,
		stopCh:         make(chan struct{}),
		interval:       5 * time.Second,
	}
}

func (j *SessionExpirerJob) Start(ctx context.Context) {
	log.Println("[SessionExpirer] 考勤过期任务启动")

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[SessionExpirer] 收到停止信号，任务退出")
			return
		case <-j.stopCh:
			log.Println("[SessionExpirer] 任务停止")
			return
		case <-ticker.C:
			j.expireOverdueSessions(ctx)
		}
	}
}

func (j *SessionExpirerJob) Stop() {
	close(j.stopCh)
}

func (j *SessionExpirerJob) expireOverdueSessions(ctx context.Context) {
	affected, err := j.attendanceRepo.ExpireOverdue(ctx, time.Now())
	if err != nil {
		log.Printf("[SessionExpirer] 翻转过期场次失败: %v", err)
		return
	}
	if affected > 0 {
		log.Printf("[SessionExpirer] 已翻转 %d 个过期场次", affected)
	}
}
