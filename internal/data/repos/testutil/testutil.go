package testutil

import (
	"os"
	"sync"
	"testing"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/openlearnhq/openlearn-backend/internal/domain"
	"github.com/openlearnhq/openlearn-backend/internal/platform/logger"
)

var (
	openOnce sync.Once
	sharedDB *gorm.DB
	openErr  error
)

// DB returns a shared connection to the database named by TEST_POSTGRES_DSN,
// migrated once per process. Tests that need Postgres are skipped when the
// variable is unset so the suite stays runnable on a bare machine.
func DB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set; skipping database test")
	}

	openOnce.Do(func() {
		sharedDB, openErr = gorm.Open(postgres.Open(dsn), &gorm.Config{
			DisableForeignKeyConstraintWhenMigrating: true,
		})
		if openErr != nil {
			return
		}
		if err := sharedDB.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
			openErr = err
			return
		}
		openErr = sharedDB.AutoMigrate(
			&domain.User{},
			&domain.UserToken{},
			&domain.Notification{},
			&domain.Course{},
			&domain.CourseSection{},
			&domain.CourseRating{},
			&domain.Lecture{},
			&domain.LectureComment{},
			&domain.CommentReply{},
			&domain.Quiz{},
			&domain.QuizQuestion{},
			&domain.QuizAttempt{},
			&domain.Enrollment{},
			&domain.LectureCompletion{},
			&domain.QuizResult{},
			&domain.LiveSession{},
			&domain.SessionParticipant{},
			&domain.ChatMessage{},
			&domain.SessionReminder{},
		)
	})
	if openErr != nil {
		t.Fatalf("open test database: %v", openErr)
	}
	return sharedDB
}

// Tx hands the test a transaction that is rolled back on cleanup, so tests
// never leak rows into each other.
func Tx(t *testing.T) *gorm.DB {
	t.Helper()

	tx := DB(t).Begin()
	if tx.Error != nil {
		t.Fatalf("begin test transaction: %v", tx.Error)
	}
	t.Cleanup(func() {
		tx.Rollback()
	})
	return tx
}

func Logger(t *testing.T) *logger.Logger {
	t.Helper()

	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("create test logger: %v", err)
	}
	return log
}
