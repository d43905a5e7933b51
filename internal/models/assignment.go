package models

import (
	"time"
)

// CourseAssignment is a direct user-to-course grant, independent of roles.
// Unique per (user, course); assigning twice is idempotent.
type CourseAssignment struct {
	ID       uint `json:"id" gorm:"primaryKey"`
	UserID   uint `json:"user_id" gorm:"not null;uniqueIndex:idx_user_course"`
	CourseID uint `json:"course_id" gorm:"not null;uniqueIndex:idx_user_course;index"`

	AssignedBy *uint     `json:"assigned_by"`
	CreatedAt  time.Time `json:"created_at"`

	// Relations
	User   User   `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Course Course `json:"course,omitempty" gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE"`
}

// LessonProgress records completion of a lesson by a user. Unique per
// (user, lesson); the only states are "no record" and completed true/false.
type LessonProgress struct {
	ID       uint `json:"id" gorm:"primaryKey"`
	UserID   uint `json:"user_id" gorm:"not null;uniqueIndex:idx_user_lesson"`
	LessonID uint `json:"lesson_id" gorm:"not null;uniqueIndex:idx_user_lesson;index"`

	Completed   bool       `json:"completed" gorm:"not null;default:false"`
	CompletedAt *time.Time `json:"completed_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	User   User   `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Lesson Lesson `json:"-" gorm:"foreignKey:LessonID;constraint:OnDelete:CASCADE"`
}

func (CourseAssignment) TableName() string {
	return "course_assignments"
}

func (LessonProgress) TableName() string {
	return "lesson_progress"
}
