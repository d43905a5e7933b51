package models

import (
	"time"

	"gorm.io/gorm"
)

// Practice is the tenant unit: a single dental office under which users,
// courses and knowledge docs are scoped.
type Practice struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`

	// Custom role vocabulary for this practice, beyond the built-in tags.
	// Tags are free-form; only exact duplicates are rejected at creation.
	CustomRoles RoleSet `json:"custom_roles" gorm:"type:text"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Users   []User   `json:"users,omitempty" gorm:"foreignKey:PracticeID"`
	Courses []Course `json:"courses,omitempty" gorm:"foreignKey:PracticeID"`
}

func (Practice) TableName() string {
	return "practices"
}
