package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

var (
	ErrLockFailed = errors.New("获取分布式锁失败")
)

// DistributedLock 基于 Redis 的分布式锁
//
// 加锁：SET key value NX EX timeout（value 标识持有者，释放时验证）
// 释放：Lua 脚本保证"检查+删除"原子执行，避免误删他人持有的锁
type DistributedLock struct {
	client     *redis.Client
	key        string
	value      string
	expiration time.Duration
}

func NewDistributedLock(client *redis.Client, key, value string, expiration time.Duration) *DistributedLock {
	return &DistributedLock{
		client:     client,
		key:        key,
		value:      value,
		expiration: expiration,
	}
}

// TryLock 尝试获取锁（非阻塞）
// SetNX 保证同一时刻只有一个客户端持有 key
func (l *DistributedLock) TryLock(ctx context.Context) (bool, error) {
	success, err := l.client.SetNX(ctx, l.key, l.value, l.expiration).Result()
	if err != nil {
		return false, err
	}
	return success, nil
}

// Lock 阻塞式获取锁（带重试）
func (l *DistributedLock) Lock(ctx context.Context, retryInterval time.Duration, maxRetries int) error {
	for i := 0; i < maxRetries; i++ {
		success, err := l.TryLock(ctx)
		if err != nil {
			return err
		}
		if success {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryInterval):
		}
	}
	return ErrLockFailed
}

// Unlock 释放锁，只删除自己持有的 key
func (l *DistributedLock) Unlock(ctx context.Context) error {
	script := `
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("DEL", KEYS[1])
		else
			return 0
		end
	`
	_, err := l.client.Eval(ctx, script, []string{l.key}, l.value).Result()
	return err
}

// NewTransferLock 转账锁，按付款账户维度
//
// 同一付款人串行扣款，不同付款人互不影响；
// 系统发放（无付款人）走原子增额，不需要锁
func NewTransferLock(client *redis.Client, senderID int64) *DistributedLock {
	key := fmt.Sprintf("ledger:lock:sender:%d", senderID)
	return NewDistributedLock(client, key, uuid.NewString(), 30*time.Second)
}

// NewSessionStartLock 考勤开场锁
// "当前活跃场次"是全局单写状态，创建必须互斥，落败方确定性收到冲突
func NewSessionStartLock(client *redis.Client) *DistributedLock {
	return NewDistributedLock(client, "attendance:lock:start", uuid.NewString(), 10*time.Second)
}
