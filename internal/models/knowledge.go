package models

import (
	"time"

	"gorm.io/gorm"
)

// KnowledgeDoc is a practice-scoped reference document with a small tag set,
// stored comma-joined like role tags.
type KnowledgeDoc struct {
	ID         uint    `json:"id" gorm:"primaryKey"`
	PracticeID uint    `json:"practice_id" gorm:"not null;index"`
	Title      string  `json:"title" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Content    string  `json:"content" gorm:"type:text;not null" validate:"required"`
	Tags       RoleSet `json:"tags" gorm:"type:text"`

	CreatedBy *uint `json:"created_by"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Practice Practice `json:"-" gorm:"foreignKey:PracticeID"`
}

func (KnowledgeDoc) TableName() string {
	return "knowledge_docs"
}
