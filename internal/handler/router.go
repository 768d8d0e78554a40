package handler

import (
	"avengerhq/internal/config"
	"avengerhq/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// SetupRouter 配置路由
func SetupRouter(db *gorm.DB, rdb *redis.Client, cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(RecoveryMiddleware())
	r.Use(LoggerMiddleware())
	r.Use(CORSMiddleware())

	h := NewHandler(db, rdb, cfg)

	api := r.Group("/api")
	api.Use(JWTAuthMiddleware(db, cfg.JWT.Secret))
	{
		// 通用
		api.GET("/user/details", h.GetUserDetails)

		// 指挥官
		admin := api.Group("/admin")
		admin.Use(RequireRole(model.RoleAdmin))
		{
			admin.GET("/avengers", h.ListAvengers)
			admin.GET("/dashboard-stats", h.DashboardStats)

			admin.POST("/attendance/start", h.StartAttendance)
			admin.GET("/attendance/records", h.AttendanceRecords)

			admin.POST("/payments/send", h.SendPayment)
			admin.GET("/payments/history", h.PaymentHistory)
			admin.GET("/ledger/verify", h.VerifyBalance)

			admin.POST("/missions", h.CreateMission)
			admin.GET("/missions", h.ListMissions)
			admin.POST("/missions/:id/complete", h.CompleteMission)
			admin.POST("/missions/:id/fail", h.FailMission)

			admin.GET("/feedback", h.ListFeedback)
			admin.PUT("/feedback/:id/read", h.MarkFeedbackRead)

			admin.POST("/announcements", h.CreateAnnouncement)
			admin.GET("/announcements", h.ListAnnouncements)
		}

		// 队员
		avenger := api.Group("/avenger")
		avenger.Use(RequireRole(model.RoleAvenger))
		{
			avenger.POST("/attendance/mark", h.MarkAttendance)

			avenger.POST("/payments/send", h.SendMoney)
			avenger.GET("/payments/history", h.MyPaymentHistory)

			avenger.GET("/missions", h.ListMissions)
			avenger.POST("/feedback", h.SubmitFeedback)
			avenger.GET("/announcements", h.ListAnnouncements)
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
