package domain

import (
	"time"

	"github.com/google/uuid"
)

type Lecture struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	CourseID  uuid.UUID      `gorm:"type:uuid;not null;index" json:"course_id"`
	Course    *Course        `gorm:"constraint:OnDelete:CASCADE;foreignKey:CourseID;references:ID" json:"-"`
	SectionID uuid.UUID      `gorm:"type:uuid;not null;index" json:"section_id"`
	Section   *CourseSection `gorm:"constraint:OnDelete:CASCADE;foreignKey:SectionID;references:ID" json:"-"`

	Position    int    `gorm:"not null;column:position" json:"position"`
	Title       string `gorm:"not null;column:title" json:"title"`
	Description string `gorm:"type:text;column:description" json:"description,omitempty"`
	VideoURL    string `gorm:"not null;column:video_url" json:"video_url"`

	DurationSeconds int    `gorm:"not null;default:0;column:duration_seconds" json:"duration_seconds"`
	IsPreview       bool   `gorm:"not null;default:false;column:is_preview" json:"is_preview"`
	Transcript      string `gorm:"type:text;column:transcript" json:"transcript,omitempty"`
	WatchCount      int    `gorm:"not null;default:0;column:watch_count" json:"watch_count"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Lecture) TableName() string { return "lecture" }

type LectureComment struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	LectureID uuid.UUID `gorm:"type:uuid;not null;index" json:"lecture_id"`
	Lecture   *Lecture  `gorm:"constraint:OnDelete:CASCADE;foreignKey:LectureID;references:ID" json:"-"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User      *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	Text      string    `gorm:"not null;type:text;column:text" json:"text"`

	Replies []*CommentReply `gorm:"foreignKey:CommentID;references:ID" json:"replies,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now();index" json:"created_at"`
}

func (LectureComment) TableName() string { return "lecture_comment" }

type CommentReply struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	CommentID uuid.UUID       `gorm:"type:uuid;not null;index" json:"comment_id"`
	Comment   *LectureComment `gorm:"constraint:OnDelete:CASCADE;foreignKey:CommentID;references:ID" json:"-"`
	UserID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	User      *User           `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	Text      string          `gorm:"not null;type:text;column:text" json:"text"`

	CreatedAt time.Time `gorm:"not null;default:now();index" json:"created_at"`
}

func (CommentReply) TableName() string { return "comment_reply" }
