package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/openlearnhq/openlearn-backend/internal/clients/redis"
	catalogrepo "github.com/openlearnhq/openlearn-backend/internal/data/repos/catalog"
	liverepo "github.com/openlearnhq/openlearn-backend/internal/data/repos/live"
	userrepo "github.com/openlearnhq/openlearn-backend/internal/data/repos/user"
	"github.com/openlearnhq/openlearn-backend/internal/db"
	"github.com/openlearnhq/openlearn-backend/internal/handlers"
	"github.com/openlearnhq/openlearn-backend/internal/platform/logger"
	"github.com/openlearnhq/openlearn-backend/internal/realtime"
	"github.com/openlearnhq/openlearn-backend/internal/server"
	"github.com/openlearnhq/openlearn-backend/internal/services"
	"github.com/openlearnhq/openlearn-backend/internal/utils"
)

func main() {
	_ = godotenv.Load()

	log, err := logger.New(os.Getenv("APP_ENV"))
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	postgres, err := db.NewPostgresService(log)
	if err != nil {
		log.Fatal("Failed to initialize postgres", "error", err)
	}
	if err := postgres.AutoMigrateAll(); err != nil {
		log.Fatal("Failed to migrate postgres tables", "error", err)
	}
	gormDB := postgres.DB()

	redisClient, err := redis.NewClient(ctx, log)
	if err != nil {
		log.Fatal("Failed to initialize redis", "error", err)
	}
	defer redisClient.Close()

	// Repos.
	userRepo := userrepo.NewUserRepo(gormDB, log)
	tokenRepo := userrepo.NewUserTokenRepo(gormDB, log)
	enrollmentRepo := userrepo.NewEnrollmentRepo(gormDB, log)
	quizResultRepo := userrepo.NewQuizResultRepo(gormDB, log)
	notificationRepo := userrepo.NewNotificationRepo(gormDB, log)
	courseRepo := catalogrepo.NewCourseRepo(gormDB, log)
	sectionRepo := catalogrepo.NewSectionRepo(gormDB, log)
	lectureRepo := catalogrepo.NewLectureRepo(gormDB, log)
	commentRepo := catalogrepo.NewCommentRepo(gormDB, log)
	ratingRepo := catalogrepo.NewRatingRepo(gormDB, log)
	quizRepo := catalogrepo.NewQuizRepo(gormDB, log)
	attemptRepo := catalogrepo.NewQuizAttemptRepo(gormDB, log)
	sessionRepo := liverepo.NewSessionRepo(gormDB, log)
	participantRepo := liverepo.NewParticipantRepo(gormDB, log)
	chatRepo := liverepo.NewChatMessageRepo(gormDB, log)
	reminderRepo := liverepo.NewReminderRepo(gormDB, log)

	// Realtime fan-out: local hub fed by the redis bus.
	hub := realtime.NewRoomHub(log)
	roomBus := redis.NewRoomBus(redisClient, log)
	go roomBus.Forward(ctx, hub)

	// Services.
	authService := services.NewAuthService(gormDB, userRepo, tokenRepo, log)
	notifierService := services.NewNotifierService(gormDB, notificationRepo, enrollmentRepo, log)
	progressService := services.NewProgressService(gormDB, enrollmentRepo, quizResultRepo, courseRepo, lectureRepo, ratingRepo, log)
	courseService := services.NewCourseService(gormDB, courseRepo, sectionRepo, lectureRepo, ratingRepo, log)
	lectureService := services.NewLectureService(gormDB, courseRepo, sectionRepo, lectureRepo, commentRepo, enrollmentRepo, progressService, log)
	quizService := services.NewQuizService(gormDB, quizRepo, attemptRepo, courseRepo, enrollmentRepo, progressService, log)
	liveSessionService := services.NewLiveSessionService(gormDB, sessionRepo, participantRepo, chatRepo, reminderRepo, enrollmentRepo, notifierService, roomBus, log)

	chatbotPath := utils.GetEnv("CHATBOT_RULES_PATH", "configs/chatbot.yaml", log)
	chatbotService, err := services.NewChatbotService(chatbotPath, log)
	if err != nil {
		log.Fatal("Failed to load chatbot rules", "path", chatbotPath, "error", err)
	}

	sweeper := services.NewReminderSweeper(gormDB, reminderRepo, notifierService, log)
	go sweeper.Start(ctx)

	router := server.NewRouter(server.Handlers{
		Auth:        handlers.NewAuthHandler(authService, log),
		Course:      handlers.NewCourseHandler(courseService, progressService, log),
		Lecture:     handlers.NewLectureHandler(lectureService, progressService, log),
		Quiz:        handlers.NewQuizHandler(quizService, log),
		LiveSession: handlers.NewLiveSessionHandler(liveSessionService, log),
		Room:        handlers.NewRoomHandler(hub, liveSessionService, log),
		Chatbot:     handlers.NewChatbotHandler(chatbotService, log),
		Dashboard:   handlers.NewDashboardHandler(progressService, liveSessionService, notificationRepo, log),
		Health:      handlers.NewHealthHandler(gormDB),
	}, authService, log)

	addr := ":" + utils.GetEnv("PORT", "8080", log)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", "error", err)
	}
}
