package service

import (
	"testing"
	"time"

	"avengerhq/internal/config"
	"avengerhq/internal/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestEnv 内存 sqlite + miniredis，跑真实的 gorm 事务和分布式锁路径
func newTestEnv(t *testing.T) (*gorm.DB, *redis.Client, *config.Config) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// sqlite 单连接，写入在数据库层串行化
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&model.Member{},
		&model.Account{},
		&model.Transaction{},
		&model.AttendanceSession{},
		&model.AttendanceMark{},
		&model.Mission{},
		&model.Feedback{},
		&model.Announcement{},
		&model.OutboxMessage{},
	))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	cfg := &config.Config{
		Kafka: config.KafkaConfig{
			Topic: config.KafkaTopicConfig{
				LedgerEvent:     "ledger.transaction",
				AttendanceEvent: "attendance.event",
			},
		},
		Business: config.BusinessConfig{
			AttendanceWindowSeconds: 60,
			TransferMaxRetry:        3,
			MaxRetryCount:           3,
		},
	}

	return db, rdb, cfg
}

func newMember(t *testing.T, db *gorm.DB, username, role string) *model.Member {
	t.Helper()
	member := &model.Member{
		Username: username,
		Email:    username + "@hq.local",
		Role:     role,
		Alive:    true,
	}
	require.NoError(t, db.Create(member).Error)
	return member
}

func newAccount(t *testing.T, db *gorm.DB, memberID, balance int64) *model.Account {
	t.Helper()
	account := &model.Account{
		MemberID: memberID,
		Balance:  balance,
	}
	require.NoError(t, db.Create(account).Error)
	return account
}

func accountBalance(t *testing.T, db *gorm.DB, memberID int64) int64 {
	t.Helper()
	var account model.Account
	require.NoError(t, db.Where("member_id = ?", memberID).First(&account).Error)
	return account.Balance
}

// forceExpireSession 把场次有效期改到过去，模拟时间走过 end_time
func forceExpireSession(t *testing.T, db *gorm.DB, sessionID int64) {
	t.Helper()
	require.NoError(t, db.Model(&model.AttendanceSession{}).
		Where("id = ?", sessionID).
		Update("end_time", time.Now().Add(-time.Second)).Error)
}
