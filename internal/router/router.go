package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/lms-backend/internal/config"
	"github.com/stemsi/lms-backend/internal/handler"
	"github.com/stemsi/lms-backend/internal/logger"
	"github.com/stemsi/lms-backend/internal/middleware"
	"github.com/stemsi/lms-backend/internal/model"
	"github.com/stemsi/lms-backend/internal/response"
	"github.com/stemsi/lms-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth          *handler.AuthHandler
	User          *handler.UserHandler
	Exam          *handler.ExamHandler
	StudentPortal *handler.StudentPortalHandler
	Notification  *handler.NotificationHandler
	Announcement  *handler.AnnouncementHandler
	WS            *handler.WSHandler
	System        *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// The returned limiter must be closed on shutdown.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
	log zerolog.Logger,
) (*gin.Engine, *middleware.RateLimiter) {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", response.HeaderRequestID}
	corsConfig.ExposeHeaders = []string{response.HeaderRequestID, "Retry-After"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(
		response.RequestIDMiddleware(),
		logger.GinMiddleware(log),
		response.ExposeErrorDetail(cfg.IsDevelopment()),
		middleware.Brotli(),
	)

	router.GET("/health", handlers.System.Health)

	authed := []gin.HandlerFunc{
		middleware.RequireAuth(authService),
		middleware.CheckSession(authService),
	}

	// ─── 1. Auth (login is public and rate limited) ────────────────────
	loginLimiter := middleware.NewRateLimiter(cfg.LoginRateLimit, time.Minute)
	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/login", loginLimiter.Middleware(), handlers.Auth.Login)
		auth.POST("/logout", append(authed, handlers.Auth.Logout)...)
		auth.GET("/me", append(authed, handlers.Auth.Me)...)
	}

	api := router.Group("/api/v1")
	api.Use(authed...)

	// ─── 2. Users ──────────────────────────────────────────────────────
	users := api.Group("/users", middleware.RequireCapability(model.CapUsersManage))
	{
		users.POST("", handlers.User.CreateUser)
		users.GET("", handlers.User.ListUsers)
	}

	// ─── 3. Exams ──────────────────────────────────────────────────────
	exams := api.Group("/exams")
	{
		// Staff
		exams.POST("", middleware.RequireCapability(model.CapExamsCreate), handlers.Exam.CreateExam)
		exams.GET("", middleware.RequireCapability(model.CapExamsRead), handlers.Exam.ListExams)
		exams.GET("/:exam_id", middleware.RequireCapability(model.CapExamsRead), handlers.Exam.GetExam)
		exams.GET("/:exam_id/participants", middleware.RequireCapability(model.CapExamsRead), handlers.Exam.ListParticipants)
		exams.PUT("/:exam_id/lock", middleware.RequireCapability(model.CapExamsLock), handlers.Exam.LockExam)
		exams.PUT("/:exam_id/unlock", middleware.RequireCapability(model.CapExamsLock), handlers.Exam.UnlockExam)
		exams.PUT("/:exam_id/status", middleware.RequireCapability(model.CapExamsManage), handlers.Exam.UpdateStatus)
		exams.PUT("/:exam_id/questions", middleware.RequireCapability(model.CapExamsManage), handlers.Exam.ReplaceQuestions)
		exams.DELETE("/:exam_id", middleware.RequireCapability(model.CapExamsManage), handlers.Exam.DeleteExam)
		exams.POST("/:exam_id/publish-results", middleware.RequireCapability(model.CapExamsPublish), handlers.Exam.PublishResults)

		// Students
		take := middleware.RequireCapability(model.CapExamsTake)
		exams.GET("/available", take, handlers.StudentPortal.ListAvailable)
		exams.POST("/:exam_id/join", take, handlers.StudentPortal.JoinExam)
		exams.GET("/:exam_id/take-exam", take, middleware.NoStore(), handlers.StudentPortal.TakeExam)
		exams.POST("/:exam_id/submit", take, handlers.StudentPortal.SubmitExam)
		exams.GET("/:exam_id/my-result", take, middleware.NoStore(), handlers.StudentPortal.MyResult)
	}

	// ─── 4. Notifications ──────────────────────────────────────────────
	notifications := api.Group("/notifications", middleware.RequireCapability(model.CapNotificationsRead))
	{
		notifications.GET("", handlers.Notification.ListNotifications)
		notifications.PUT("/:id/read", handlers.Notification.MarkRead)
	}

	// ─── 5. Announcements ──────────────────────────────────────────────
	announcements := api.Group("/announcements")
	{
		announcements.GET("", handlers.Announcement.ListAnnouncements)
		announcements.POST("", middleware.RequireCapability(model.CapAnnouncementsWrite), handlers.Announcement.CreateAnnouncement)
		announcements.DELETE("/:id", middleware.RequireCapability(model.CapAnnouncementsWrite), handlers.Announcement.DeleteAnnouncement)
	}

	// ─── 6. WebSocket (token in query) ─────────────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireWSAuth(authService), middleware.CheckSession(authService))
	{
		ws.GET("/notifications", handlers.WS.NotificationStream)
	}

	return router, loginLimiter
}
