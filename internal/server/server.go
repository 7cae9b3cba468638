package server

import (
	"context"
	"net/http"
	"time"

	"anoa.com/akademika/internal/config"
	"anoa.com/akademika/internal/middleware"
	"anoa.com/akademika/internal/policy"
	"anoa.com/akademika/internal/ratelimit"
	"anoa.com/akademika/internal/session"
	"anoa.com/akademika/pkg/mailer"
	"anoa.com/akademika/pkg/response"
	"anoa.com/akademika/pkg/search"
	"anoa.com/akademika/pkg/storage"

	adminHttp "anoa.com/akademika/internal/modules/admin/delivery/http"

	aiHttp "anoa.com/akademika/internal/modules/ai/delivery/http"
	aiProvider "anoa.com/akademika/internal/modules/ai/provider"
	aiRepo "anoa.com/akademika/internal/modules/ai/repository"
	aiService "anoa.com/akademika/internal/modules/ai/service"

	assignmentHttp "anoa.com/akademika/internal/modules/assignment/delivery/http"
	assignmentRepo "anoa.com/akademika/internal/modules/assignment/repository"
	assignmentService "anoa.com/akademika/internal/modules/assignment/service"

	courseHttp "anoa.com/akademika/internal/modules/course/delivery/http"
	courseRepo "anoa.com/akademika/internal/modules/course/repository"
	courseService "anoa.com/akademika/internal/modules/course/service"

	dashboardHttp "anoa.com/akademika/internal/modules/dashboard/delivery/http"
	dashboardRepo "anoa.com/akademika/internal/modules/dashboard/repository"
	dashboardService "anoa.com/akademika/internal/modules/dashboard/service"

	enrollmentHttp "anoa.com/akademika/internal/modules/enrollment/delivery/http"
	enrollmentRepo "anoa.com/akademika/internal/modules/enrollment/repository"
	enrollmentService "anoa.com/akademika/internal/modules/enrollment/service"

	notiHttp "anoa.com/akademika/internal/modules/notification/delivery/http"
	notifRepo "anoa.com/akademika/internal/modules/notification/repository"
	notifService "anoa.com/akademika/internal/modules/notification/service"

	submissionHttp "anoa.com/akademika/internal/modules/submission/delivery/http"
	submissionRepo "anoa.com/akademika/internal/modules/submission/repository"
	submissionService "anoa.com/akademika/internal/modules/submission/service"

	userHttp "anoa.com/akademika/internal/modules/user/delivery/http"
	userRepo "anoa.com/akademika/internal/modules/user/repository"
	userService "anoa.com/akademika/internal/modules/user/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps are the shared handles built once in main. Everything except DB and Sessions may be nil.
type Deps struct {
	Config      *config.Config
	DB          *gorm.DB
	Redis       *redis.Client
	Sessions    *session.Manager
	Mailer      mailer.Mailer
	CourseIndex search.CourseIndex
	Storage     storage.FileStorage
	LLM         aiProvider.Provider
}

type Server struct {
	engine     *gin.Engine
	httpServer *http.Server

	// AuthService is exposed for scheduled maintenance jobs.
	AuthService userService.AuthService
}

func NewServer(deps Deps) *Server {
	cfg := deps.Config
	db := deps.DB
	redisClient := deps.Redis

	mail := deps.Mailer
	if mail == nil {
		mail = mailer.NewLogMailer()
	}
	limiter := ratelimit.NewCooldown(redisClient)

	userRepository := userRepo.NewUserRepository(db)
	authSvc := userService.NewAuthService(userRepository, deps.Sessions, mail, limiter, userService.Options{
		ResetTTL:         cfg.PasswordResetTTL,
		ResetCooldown:    cfg.PasswordResetCooldown,
		ExposeResetToken: cfg.ExposeResetToken,
	})
	userSvc := userService.NewUserService(userRepository)
	authHandler := userHttp.NewAuthHandler(authSvc)

	// Notification Module
	notificationRepository := notifRepo.NewNotificationRepository(db)
	notificationSvc := notifService.NewNotificationService(notificationRepository, redisClient)
	notificationHandler := notiHttp.NewNotificationHandler(notificationSvc, redisClient, cfg.AllowedOrigins)

	courseRepository := courseRepo.NewCourseRepository(db)
	courseSvc := courseService.NewCourseService(courseRepository, userRepository, deps.CourseIndex, deps.Storage)
	courseHandler := courseHttp.NewCourseHandler(courseSvc)

	enrollmentRepository := enrollmentRepo.NewEnrollmentRepository(db)
	enrollmentSvc := enrollmentService.NewEnrollmentService(enrollmentRepository, courseRepository, notificationSvc)
	enrollmentHandler := enrollmentHttp.NewEnrollmentHandler(enrollmentSvc)

	assignmentRepository := assignmentRepo.NewAssignmentRepository(db)
	assignmentSvc := assignmentService.NewAssignmentService(assignmentRepository, courseRepository)
	assignmentHandler := assignmentHttp.NewAssignmentHandler(assignmentSvc)

	submissionRepository := submissionRepo.NewSubmissionRepository(db)
	submissionSvc := submissionService.NewSubmissionService(submissionRepository, assignmentRepository, enrollmentRepository, deps.Storage, notificationSvc)
	submissionHandler := submissionHttp.NewSubmissionHandler(submissionSvc)

	aiSvc := aiService.NewAIService(aiRepo.NewAIRepository(db), deps.LLM, limiter, cfg.AICooldown)
	aiHandler := aiHttp.NewAIHandler(aiSvc)

	dashboardSvc := dashboardService.NewDashboardService(dashboardService.Sources{
		Users:       userRepository,
		Courses:     courseRepository,
		Enrollments: enrollmentRepository,
		Assignments: assignmentRepository,
		Submissions: submissionRepository,
		Stats:       dashboardRepo.NewStatsRepository(db),
	})
	dashboardHandler := dashboardHttp.NewDashboardHandler(dashboardSvc)

	adminHandler := adminHttp.NewAdminHandler(authSvc, userSvc, enrollmentSvc)

	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	setupCORS(router, cfg.AllowedOrigins)

	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/api/health"},
	}))

	authMiddleware := middleware.NewAuthMiddleware(deps.Sessions)

	api := router.Group("/api")

	api.GET("/health", healthCheck(db, redisClient))

	// Public routes (no auth required)
	auth := api.Group("/auth")
	{
		auth.POST("/register", authMiddleware.OptionalAuth(), authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/password/forgot", authHandler.ForgotPassword)
		auth.POST("/password/reset", authHandler.ResetPassword)
	}
	api.GET("/navigation", authMiddleware.OptionalAuth(), navigation)
	api.GET("/courses", courseHandler.GetAllCourses)
	api.GET("/courses/:id", courseHandler.GetCourse)

	// Protected routes (apply auth middleware explicitly)
	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		protected.POST("/auth/logout", authHandler.Logout)
		protected.GET("/auth/me", authHandler.Me)
		protected.GET("/dashboard", dashboardHandler.GetDashboard)

		// Course routes
		protected.POST("/courses", middleware.RequirePermission(policy.ActionCourseCreate), courseHandler.CreateCourse)
		protected.PUT("/courses/:id", middleware.RequirePermission(policy.ActionCourseUpdate), courseHandler.UpdateCourse)
		protected.DELETE("/courses/:id", middleware.RequirePermission(policy.ActionCourseDeactivate), courseHandler.DeactivateCourse)
		protected.POST("/courses/:id/syllabus", middleware.RequirePermission(policy.ActionCourseUpdate), courseHandler.UploadSyllabus)
		protected.GET("/courses/:id/stats", middleware.RequirePermission(policy.ActionCourseStats), dashboardHandler.GetCourseStats)
		protected.GET("/courses/:id/enrollments", middleware.RequirePermission(policy.ActionCourseStats), enrollmentHandler.GetCourseEnrollments)
		protected.GET("/courses/:id/assignments", assignmentHandler.GetCourseAssignments)
		protected.POST("/courses/:id/assignments", middleware.RequirePermission(policy.ActionAssignmentCreate), assignmentHandler.CreateAssignment)

		// Enrollment routes
		protected.POST("/enrollments", middleware.RequirePermission(policy.ActionEnrollmentCreate), enrollmentHandler.RequestEnrollment)
		protected.GET("/enrollments/me", enrollmentHandler.GetMyEnrollments)
		protected.PUT("/enrollments/:id/status", middleware.RequirePermission(policy.ActionEnrollmentDecide), enrollmentHandler.DecideEnrollment)

		// Assignment and submission routes
		protected.GET("/assignments/:id", assignmentHandler.GetAssignment)
		protected.PUT("/assignments/:id", middleware.RequirePermission(policy.ActionAssignmentUpdate), assignmentHandler.UpdateAssignment)
		protected.GET("/assignments/:id/submissions", middleware.RequirePermission(policy.ActionSubmissionGrade), submissionHandler.GetAssignmentSubmissions)
		protected.POST("/assignments/:id/submissions", middleware.RequirePermission(policy.ActionSubmissionCreate), submissionHandler.SubmitAssignment)
		protected.GET("/submissions/me", submissionHandler.GetMySubmissions)
		protected.GET("/submissions/:id", submissionHandler.GetSubmission)
		protected.PUT("/submissions/:id/grade", middleware.RequirePermission(policy.ActionSubmissionGrade), submissionHandler.GradeSubmission)

		// AI routes
		protected.GET("/ai/recommendations", aiHandler.GetRecommendations)
		protected.POST("/ai/recommendations", middleware.RequirePermission(policy.ActionAIRecommend), aiHandler.Recommend)
		protected.GET("/ai/syllabus", middleware.RequirePermission(policy.ActionAISyllabus), aiHandler.GetSyllabi)
		protected.POST("/ai/syllabus", middleware.RequirePermission(policy.ActionAISyllabus), aiHandler.GenerateSyllabus)

		// Notification routes
		protected.GET("/notifications", notificationHandler.GetNotifications)
		protected.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		protected.PUT("/notifications/:id/read", notificationHandler.MarkAsRead)
		protected.PUT("/notifications/read-all", notificationHandler.MarkAllAsRead)
		protected.GET("/notifications/ws", notificationHandler.HandleWebSocket)

		// Admin routes
		adminGroup := protected.Group("/admin")
		adminGroup.Use(middleware.RequirePermission(policy.ActionUserManage))
		{
			adminGroup.GET("/users", adminHandler.GetAllUsers)
			adminGroup.POST("/users", adminHandler.CreateUser)
			adminGroup.GET("/users/:id", adminHandler.GetUser)
			adminGroup.GET("/enrollments", adminHandler.GetPendingEnrollments)
		}
	}

	return &Server{
		engine:      router,
		AuthService: authSvc,
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context, addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

func navigation(c *gin.Context) {
	role := policy.Anonymous
	if actor := response.OptionalActor(c); actor != nil {
		role = actor.Role
	}
	c.JSON(http.StatusOK, gin.H{"role": role, "items": policy.VisibleNavigation(role)})
}

func healthCheck(db *gorm.DB, redisClient *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := gin.H{"database": "ok"}
		code := http.StatusOK

		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			status["database"] = "down"
			code = http.StatusServiceUnavailable
		}
		if redisClient != nil {
			status["redis"] = "ok"
			if err := redisClient.Ping(ctx).Err(); err != nil {
				status["redis"] = "down"
				code = http.StatusServiceUnavailable
			}
		}

		c.JSON(code, status)
	}
}

func setupCORS(router *gin.Engine, origins []string) {
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
