package service

import (
	"context"
	"testing"
	"time"

	"avengerhq/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartSessionGeneratesCode(t *testing.T) {
	db, rdb, cfg := newTestEnv(t)
	svc := NewSessionService(db, rdb, cfg)
	admin := newMember(t, db, "fury", model.RoleAdmin)

	session, err := svc.Start(context.Background(), admin.ID)
	require.NoError(t, err)

	assert.Len(t, session.Code, 6)
	for _, r := range session.Code {
		assert.True(t, r >= '0' && r <= '9', "考勤码必须是纯数字: %s", session.Code)
	}
	assert.True(t, session.IsActive)
	assert.Equal(t, admin.ID, session.AdminID)
	assert.Equal(t, 60*time.Second, session.EndTime.Sub(session.StartTime))
}

func TestStartSessionRejectsWhileActive(t *testing.T) {
	db, rdb, cfg := newTestEnv(t)
	svc := NewSessionService(db, rdb, cfg)
	admin := newMember(t, db, "fury", model.RoleAdmin)

	_, err := svc.Start(context.Background(), admin.ID)
	require.NoError(t, err)

	_, err = svc.Start(context.Background(), admin.ID)
	assert.ErrorIs(t, err, ErrSessionAlreadyActive)
}

func TestStartSessionAfterExpiry(t *testing.T) {
	db, rdb, cfg := newTestEnv(t)
	svc := NewSessionService(db, rdb, cfg)
	admin := newMember(t, db, "fury", model.RoleAdmin)

	first, err := svc.Start(context.Background(), admin.ID)
	require.NoError(t, err)

	forceExpireSession(t, db, first.ID)

	second, err := svc.Start(context.Background(), admin.ID)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	// 老场次已被翻转，不会复活
	var old model.AttendanceSession
	require.NoError(t, db.Where("id = ?", first.ID).First(&old).Error)
	assert.False(t, old.IsActive)
}

func TestCurrentWithoutSession(t *testing.T) {
	db, rdb, cfg := newTestEnv(t)
	svc := NewSessionService(db, rdb, cfg)

	current, err := svc.Current(context.Background())
	require.NoError(t, err)
	assert.Nil(t, current)
}

func TestCurrentFlipsExpiredLazily(t *testing.T) {
	db, rdb, cfg := newTestEnv(t)
	svc := NewSessionService(db, rdb, cfg)
	admin := newMember(t, db, "fury", model.RoleAdmin)

	session, err := svc.Start(context.Background(), admin.ID)
	require.NoError(t, err)

	current, err := svc.Current(context.Background())
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, session.ID, current.ID)

	forceExpireSession(t, db, session.ID)

	// 过期按 end_time 现场推导，访问即翻转
	current, err = svc.Current(context.Background())
	require.NoError(t, err)
	assert.Nil(t, current)

	var stored model.AttendanceSession
	require.NoError(t, db.Where("id = ?", session.ID).First(&stored).Error)
	assert.False(t, stored.IsActive)

	// 再次访问幂等
	current, err = svc.Current(context.Background())
	require.NoError(t, err)
	assert.Nil(t, current)
}
