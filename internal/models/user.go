package models

import (
	"time"

	"gorm.io/gorm"
)

type UserStatus string

const (
	UserInvited  UserStatus = "invited"
	UserActive   UserStatus = "active"
	UserInactive UserStatus = "inactive"
)

type User struct {
	ID         uint       `json:"id" gorm:"primaryKey"`
	PracticeID uint       `json:"practice_id" gorm:"not null;index"`
	FullName   string     `json:"full_name" gorm:"not null;size:100" validate:"required,min=1,max=100"`
	Email      string     `json:"email" gorm:"uniqueIndex;not null;size:255" validate:"required,email"`
	Status     UserStatus `json:"status" gorm:"default:invited;index" validate:"omitempty,oneof=invited active inactive"`

	// Role tags, stored comma-joined. Visibility matching is exact and
	// case-sensitive on the trimmed tags.
	Roles RoleSet `json:"roles" gorm:"type:text"`

	// Invite flow metadata
	InviteToken *string    `json:"-" gorm:"size:64;index"`
	InvitedAt   *time.Time `json:"invited_at"`
	ActivatedAt *time.Time `json:"activated_at"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Practice    Practice           `json:"-" gorm:"foreignKey:PracticeID"`
	Assignments []CourseAssignment `json:"assignments,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Progress    []LessonProgress   `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (User) TableName() string {
	return "users"
}
