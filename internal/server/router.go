package server

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/openlearnhq/openlearn-backend/internal/handlers"
	"github.com/openlearnhq/openlearn-backend/internal/middleware"
	"github.com/openlearnhq/openlearn-backend/internal/platform/logger"
	"github.com/openlearnhq/openlearn-backend/internal/services"
	"github.com/openlearnhq/openlearn-backend/internal/utils"
)

type Handlers struct {
	Auth        *handlers.AuthHandler
	Course      *handlers.CourseHandler
	Lecture     *handlers.LectureHandler
	Quiz        *handlers.QuizHandler
	LiveSession *handlers.LiveSessionHandler
	Room        *handlers.RoomHandler
	Chatbot     *handlers.ChatbotHandler
	Dashboard   *handlers.DashboardHandler
	Health      *handlers.HealthHandler
}

func NewRouter(h Handlers, auth services.AuthService, log *logger.Logger) *gin.Engine {
	if utils.GetEnv("GIN_MODE", "debug", log) == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{utils.GetEnv("CORS_ORIGIN", "http://localhost:3000", log)},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/healthz", h.Health.Check)

	api := router.Group("/api/v1")

	// Public catalog and auth surface.
	api.POST("/auth/register", h.Auth.Register)
	api.POST("/auth/login", h.Auth.Login)
	api.POST("/auth/refresh", h.Auth.Refresh)
	api.GET("/courses", h.Course.List)
	api.GET("/courses/:courseId/ratings", h.Course.Ratings)
	api.GET("/sessions/upcoming", h.LiveSession.ListUpcoming)
	api.POST("/chatbot/message", h.Chatbot.Message)
	api.GET("/chatbot/topics", h.Chatbot.Topics)

	authed := api.Group("")
	authed.Use(middleware.RequireAuth(auth, log))
	{
		authed.POST("/auth/logout", h.Auth.Logout)
		authed.GET("/auth/me", h.Auth.Me)
		authed.PATCH("/auth/me", h.Auth.UpdateProfile)

		authed.GET("/courses/:courseId", h.Course.Get)
		authed.POST("/courses/:courseId/enroll", h.Course.Enroll)
		authed.POST("/courses/:courseId/rating", h.Course.Rate)

		authed.GET("/courses/:courseId/quizzes", h.Quiz.ListByCourse)
		authed.GET("/quizzes/:quizId", h.Quiz.GetForTaking)
		authed.POST("/quizzes/:quizId/submit", h.Quiz.Submit)
		authed.GET("/quizzes/:quizId/attempts", h.Quiz.ListAttempts)

		authed.GET("/lectures/:lectureId", h.Lecture.Get)
		authed.POST("/lectures/:lectureId/view", h.Lecture.RecordView)
		authed.POST("/courses/:courseId/lectures/:lectureId/complete", h.Lecture.MarkComplete)
		authed.GET("/lectures/:lectureId/comments", h.Lecture.Comments)
		authed.POST("/lectures/:lectureId/comments", h.Lecture.AddComment)
		authed.POST("/comments/:commentId/replies", h.Lecture.AddReply)

		authed.GET("/sessions", h.LiveSession.List)
		authed.GET("/sessions/:sessionId", h.LiveSession.Get)
		authed.POST("/sessions/:sessionId/join", h.LiveSession.Join)
		authed.POST("/sessions/:sessionId/leave", h.LiveSession.Leave)
		authed.POST("/sessions/:sessionId/chat", h.LiveSession.SendChat)
		authed.GET("/sessions/:sessionId/chat", h.LiveSession.ChatHistory)
		authed.GET("/sessions/:sessionId/superchats", h.LiveSession.Superchats)
		authed.GET("/sessions/:sessionId/participants", h.LiveSession.Participants)
		authed.GET("/rooms/:roomId/stream", h.Room.Stream)

		authed.GET("/dashboard", h.Dashboard.Overview)
		authed.GET("/notifications", h.Dashboard.Notifications)
		authed.POST("/notifications/:notificationId/read", h.Dashboard.MarkNotificationRead)
		authed.POST("/notifications/read-all", h.Dashboard.MarkAllNotificationsRead)
	}

	instructor := api.Group("")
	instructor.Use(middleware.RequireAuth(auth, log), middleware.RequireInstructor())
	{
		instructor.POST("/courses", h.Course.Create)
		instructor.PATCH("/courses/:courseId", h.Course.Update)
		instructor.DELETE("/courses/:courseId", h.Course.Delete)
		instructor.POST("/courses/:courseId/sections", h.Course.AddSection)
		instructor.PATCH("/sections/:sectionId", h.Course.UpdateSection)
		instructor.DELETE("/sections/:sectionId", h.Course.DeleteSection)
		instructor.POST("/courses/:courseId/lectures", h.Lecture.Create)
		instructor.DELETE("/lectures/:lectureId", h.Lecture.Delete)

		instructor.POST("/courses/:courseId/quizzes", h.Quiz.Create)
		instructor.GET("/quizzes/:quizId/full", h.Quiz.GetFull)
		instructor.PUT("/quizzes/:quizId", h.Quiz.Update)
		instructor.DELETE("/quizzes/:quizId", h.Quiz.Delete)

		instructor.POST("/sessions", h.LiveSession.Schedule)
		instructor.PATCH("/sessions/:sessionId", h.LiveSession.Reschedule)
		instructor.POST("/sessions/:sessionId/start", h.LiveSession.Start)
		instructor.POST("/sessions/:sessionId/end", h.LiveSession.End)
		instructor.POST("/sessions/:sessionId/cancel", h.LiveSession.Cancel)
		instructor.DELETE("/sessions/:sessionId", h.LiveSession.Delete)
	}

	return router
}
