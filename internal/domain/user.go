package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleStudent    = "student"
	RoleInstructor = "instructor"
	RoleAdmin      = "admin"
)

type User struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Email      string    `gorm:"uniqueIndex;not null;column:email" json:"email"`
	Password   string    `gorm:"not null;column:password" json:"-"`
	Name       string    `gorm:"not null;column:name" json:"name"`
	Role       string    `gorm:"not null;default:'student';column:role" json:"role"`
	AvatarURL  string    `gorm:"column:avatar_url" json:"avatar_url"`
	Bio        string    `gorm:"column:bio" json:"bio,omitempty"`
	LastActive time.Time `gorm:"column:last_active" json:"last_active"`
	CreatedAt  time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (User) TableName() string { return "user" }

func (u *User) IsInstructor() bool { return u.Role == RoleInstructor || u.Role == RoleAdmin }
func (u *User) IsAdmin() bool      { return u.Role == RoleAdmin }

type UserToken struct {
	ID           uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID       uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	User         *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	AccessToken  string    `gorm:"uniqueIndex;not null;column:access_token" json:"access_token"`
	RefreshToken string    `gorm:"uniqueIndex;not null;column:refresh_token" json:"refresh_token"`
	ExpiresAt    time.Time `gorm:"column:expires_at" json:"expires_at"`
	CreatedAt    time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (UserToken) TableName() string { return "user_token" }

const (
	NotificationTypeCourse       = "course"
	NotificationTypeQuiz         = "quiz"
	NotificationTypeAnnouncement = "announcement"
	NotificationTypeOther        = "other"
)

type Notification struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	User      *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	Message   string    `gorm:"not null;column:message" json:"message"`
	Type      string    `gorm:"not null;default:'other';column:type" json:"type"`
	Read      bool      `gorm:"not null;default:false;column:read" json:"read"`
	CreatedAt time.Time `gorm:"not null;default:now();index" json:"created_at"`
}

func (Notification) TableName() string { return "notification" }
