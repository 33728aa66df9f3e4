package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	LevelBeginner     = "beginner"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"
	LevelAll          = "all-levels"
)

type Course struct {
	ID           uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Title        string    `gorm:"not null;column:title" json:"title"`
	Slug         string    `gorm:"uniqueIndex;not null;column:slug" json:"slug"`
	Description  string    `gorm:"type:text;column:description" json:"description"`
	Thumbnail    string    `gorm:"column:thumbnail" json:"thumbnail"`
	InstructorID uuid.UUID `gorm:"type:uuid;not null;index" json:"instructor_id"`
	Instructor   *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:InstructorID;references:ID" json:"instructor,omitempty"`

	Price    float64 `gorm:"not null;default:0;column:price" json:"price"`
	Discount float64 `gorm:"not null;default:0;column:discount" json:"discount"`
	Category string  `gorm:"not null;index;column:category" json:"category"`
	Level    string  `gorm:"not null;default:'all-levels';index;column:level" json:"level"`
	Language string  `gorm:"not null;default:'English';column:language" json:"language"`

	Tags             datatypes.JSON `gorm:"type:jsonb;column:tags" json:"tags"`
	Requirements     datatypes.JSON `gorm:"type:jsonb;column:requirements" json:"requirements"`
	WhatYouWillLearn datatypes.JSON `gorm:"type:jsonb;column:what_you_will_learn" json:"what_you_will_learn"`

	Published bool `gorm:"not null;default:false;index;column:published" json:"published"`
	Featured  bool `gorm:"not null;default:false;column:featured" json:"featured"`

	// Denormalized aggregates. AverageRating is recomputed from the full
	// rating list, TotalLectures and DurationMinutes from the lecture rows;
	// TotalStudents is bumped atomically on enroll. None are edited directly.
	AverageRating   float64 `gorm:"not null;default:0;column:average_rating" json:"average_rating"`
	TotalStudents   int     `gorm:"not null;default:0;column:total_students" json:"total_students"`
	TotalLectures   int     `gorm:"not null;default:0;column:total_lectures" json:"total_lectures"`
	DurationMinutes float64 `gorm:"not null;default:0;column:duration_minutes" json:"duration_minutes"`

	Sections []*CourseSection `gorm:"foreignKey:CourseID;references:ID" json:"sections,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Course) TableName() string { return "course" }

type CourseSection struct {
	ID       uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	CourseID uuid.UUID `gorm:"type:uuid;not null;index" json:"course_id"`
	Course   *Course   `gorm:"constraint:OnDelete:CASCADE;foreignKey:CourseID;references:ID" json:"-"`
	Title    string    `gorm:"not null;column:title" json:"title"`
	Position int       `gorm:"not null;column:position" json:"position"`

	Lectures []*Lecture `gorm:"foreignKey:SectionID;references:ID" json:"lectures,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (CourseSection) TableName() string { return "course_section" }

type CourseRating struct {
	ID       uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	CourseID uuid.UUID `gorm:"type:uuid;not null;index:idx_rating_course_user,unique" json:"course_id"`
	Course   *Course   `gorm:"constraint:OnDelete:CASCADE;foreignKey:CourseID;references:ID" json:"-"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;index:idx_rating_course_user,unique" json:"user_id"`
	User     *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	Rating   int       `gorm:"not null;column:rating" json:"rating"`
	Review   string    `gorm:"type:text;column:review" json:"review,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (CourseRating) TableName() string { return "course_rating" }
