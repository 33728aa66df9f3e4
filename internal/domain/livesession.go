package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	SessionStatusScheduled = "scheduled"
	SessionStatusLive      = "live"
	SessionStatusCompleted = "completed"
	SessionStatusCancelled = "cancelled"
)

const (
	ReminderOffset24h   = "24h"
	ReminderOffset1h    = "1h"
	ReminderOffset15min = "15min"
)

type LiveSession struct {
	ID           uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	CourseID     *uuid.UUID `gorm:"type:uuid;index" json:"course_id,omitempty"`
	Course       *Course    `gorm:"constraint:OnDelete:SET NULL;foreignKey:CourseID;references:ID" json:"course,omitempty"`
	InstructorID uuid.UUID  `gorm:"type:uuid;not null;index" json:"instructor_id"`
	Instructor   *User      `gorm:"constraint:OnDelete:CASCADE;foreignKey:InstructorID;references:ID" json:"instructor,omitempty"`

	Title       string `gorm:"not null;column:title" json:"title"`
	Description string `gorm:"type:text;column:description" json:"description,omitempty"`

	StartTime time.Time `gorm:"not null;index;column:start_time" json:"start_time"`
	EndTime   time.Time `gorm:"not null;column:end_time" json:"end_time"`

	RoomID       string `gorm:"uniqueIndex;not null;column:room_id" json:"room_id"`
	Status       string `gorm:"not null;default:'scheduled';index;column:status" json:"status"`
	RecordingURL string `gorm:"column:recording_url" json:"recording_url,omitempty"`

	NotifyStudents bool `gorm:"not null;default:true;column:notify_students" json:"notify_students"`

	// ChatSeq backs the server-assigned monotonic ordering of chat messages.
	ChatSeq int64 `gorm:"not null;default:0;column:chat_seq" json:"-"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (LiveSession) TableName() string { return "live_session" }

// CanTransition encodes the status machine: scheduled -> live -> completed,
// plus scheduled -> cancelled. Completed and cancelled are terminal.
func (s *LiveSession) CanTransition(to string) bool {
	switch s.Status {
	case SessionStatusScheduled:
		return to == SessionStatusLive || to == SessionStatusCancelled
	case SessionStatusLive:
		return to == SessionStatusCompleted
	default:
		return false
	}
}

func (s *LiveSession) IsTerminal() bool {
	return s.Status == SessionStatusCompleted || s.Status == SessionStatusCancelled
}

type SessionParticipant struct {
	ID        uuid.UUID    `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SessionID uuid.UUID    `gorm:"type:uuid;not null;index:idx_participant_session_user,unique" json:"session_id"`
	Session   *LiveSession `gorm:"constraint:OnDelete:CASCADE;foreignKey:SessionID;references:ID" json:"-"`
	UserID    uuid.UUID    `gorm:"type:uuid;not null;index:idx_participant_session_user,unique" json:"user_id"`
	User      *User        `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`

	JoinedAt time.Time  `gorm:"not null;column:joined_at" json:"joined_at"`
	LeftAt   *time.Time `gorm:"column:left_at" json:"left_at,omitempty"`
}

func (SessionParticipant) TableName() string { return "session_participant" }

type ChatMessage struct {
	ID        uuid.UUID    `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SessionID uuid.UUID    `gorm:"type:uuid;not null;index:idx_chat_session_seq,unique" json:"session_id"`
	Session   *LiveSession `gorm:"constraint:OnDelete:CASCADE;foreignKey:SessionID;references:ID" json:"-"`
	Seq       int64        `gorm:"not null;index:idx_chat_session_seq,unique" json:"seq"`
	UserID    uuid.UUID    `gorm:"type:uuid;not null;index" json:"user_id"`
	User      *User        `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`

	Message     string  `gorm:"not null;type:text;column:message" json:"message"`
	IsSuperchat bool    `gorm:"not null;default:false;column:is_superchat" json:"is_superchat"`
	Amount      float64 `gorm:"not null;default:0;column:amount" json:"amount,omitempty"`

	SentAt time.Time `gorm:"not null;default:now();column:sent_at" json:"sent_at"`
}

func (ChatMessage) TableName() string { return "chat_message" }

type SessionReminder struct {
	ID        uuid.UUID    `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SessionID uuid.UUID    `gorm:"type:uuid;not null;index" json:"session_id"`
	Session   *LiveSession `gorm:"constraint:OnDelete:CASCADE;foreignKey:SessionID;references:ID" json:"-"`

	Offset   string    `gorm:"not null;column:reminder_offset" json:"offset"`
	RemindAt time.Time `gorm:"not null;index;column:remind_at" json:"remind_at"`
	Sent     bool      `gorm:"not null;default:false;index;column:sent" json:"sent"`
}

func (SessionReminder) TableName() string { return "session_reminder" }

// ReminderTimes computes the fixed reminder schedule for a session start.
// A reschedule regenerates the full set; nothing is carried over.
func ReminderTimes(start time.Time) map[string]time.Time {
	return map[string]time.Time{
		ReminderOffset24h:   start.Add(-24 * time.Hour),
		ReminderOffset1h:    start.Add(-1 * time.Hour),
		ReminderOffset15min: start.Add(-15 * time.Minute),
	}
}
