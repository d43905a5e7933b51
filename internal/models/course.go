package models

import (
	"time"

	"gorm.io/gorm"
)

type CourseStatus string

const (
	CourseDraft     CourseStatus = "draft"
	CoursePublished CourseStatus = "published"
	CourseArchived  CourseStatus = "archived"
)

type LessonType string

const (
	LessonVideo   LessonType = "video"
	LessonReading LessonType = "reading"
	LessonQuiz    LessonType = "quiz"
)

type Course struct {
	ID          uint         `json:"id" gorm:"primaryKey"`
	PracticeID  uint         `json:"practice_id" gorm:"not null;index"`
	Title       string       `json:"title" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Description *string      `json:"description" gorm:"type:text" validate:"omitempty,max=2000"`
	Status      CourseStatus `json:"status" gorm:"default:draft;index" validate:"omitempty,oneof=draft published archived"`

	// Roles this course is targeted at. Empty set = open to all roles.
	AssignedRoles RoleSet `json:"assigned_roles" gorm:"type:text"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Practice      Practice       `json:"-" gorm:"foreignKey:PracticeID"`
	Modules       []Module       `json:"modules,omitempty" gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE"`
	Questionnaire *Questionnaire `json:"questionnaire,omitempty" gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE"`

	// Computed fields (not stored)
	Progress    int  `json:"progress" gorm:"-"`
	LessonCount int  `json:"lesson_count" gorm:"-"`
	Assigned    bool `json:"assigned" gorm:"-"`
}

// Module groups lessons within a course. Position defines display order,
// unique within the course; ties break by insertion order.
type Module struct {
	ID       uint    `json:"id" gorm:"primaryKey"`
	CourseID uint    `json:"course_id" gorm:"not null;index"`
	Title    string  `json:"title" gorm:"not null;size:200" validate:"required,min=1,max=200"`
	Position int     `json:"position" gorm:"not null;default:0"`
	Lessons  []Lesson `json:"lessons,omitempty" gorm:"foreignKey:ModuleID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Lesson is the unit completion is tracked against.
type Lesson struct {
	ID       uint       `json:"id" gorm:"primaryKey"`
	ModuleID uint       `json:"module_id" gorm:"not null;index"`
	Title    string     `json:"title" gorm:"not null;size:200" validate:"required,min=1,max=200"`
	Type     LessonType `json:"type" gorm:"not null;default:reading" validate:"omitempty,oneof=video reading quiz"`
	Content  *string    `json:"content" gorm:"type:text"`
	Position int        `json:"position" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Computed (not stored)
	Completed bool `json:"completed" gorm:"-"`
}

func (Course) TableName() string {
	return "courses"
}

func (Module) TableName() string {
	return "modules"
}

func (Lesson) TableName() string {
	return "lessons"
}
