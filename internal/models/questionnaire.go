package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DefaultPassingScore applies when a questionnaire has no explicit threshold.
const DefaultPassingScore = 70

type OptionLabel string

const (
	OptionA OptionLabel = "A"
	OptionB OptionLabel = "B"
	OptionC OptionLabel = "C"
	OptionD OptionLabel = "D"
)

// Questionnaire is the quiz attached to a course.
type Questionnaire struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	CourseID uint   `json:"course_id" gorm:"not null;uniqueIndex"`
	Title    string `json:"title" gorm:"not null;size:200" validate:"required,min=1,max=200"`

	// Minimum percentage to pass. Defaults to 70 when unset.
	PassingScore int `json:"passing_score" gorm:"not null;default:70" validate:"min=0,max=100"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Questions []Question              `json:"questions,omitempty" gorm:"foreignKey:QuestionnaireID;constraint:OnDelete:CASCADE"`
	Responses []QuestionnaireResponse `json:"-" gorm:"foreignKey:QuestionnaireID;constraint:OnDelete:CASCADE"`
}

// Question holds exactly four labeled options and one correct label. The
// correct option and explanation are only ever exposed in grading results,
// never in the pre-submission attempt view.
type Question struct {
	ID              uint   `json:"id" gorm:"primaryKey"`
	QuestionnaireID uint   `json:"questionnaire_id" gorm:"not null;index"`
	Text            string `json:"text" gorm:"type:text;not null" validate:"required"`
	Position        int    `json:"position" gorm:"not null;default:0"`

	OptionA string `json:"option_a" gorm:"not null;size:500" validate:"required"`
	OptionB string `json:"option_b" gorm:"not null;size:500" validate:"required"`
	OptionC string `json:"option_c" gorm:"not null;size:500" validate:"required"`
	OptionD string `json:"option_d" gorm:"not null;size:500" validate:"required"`

	CorrectOption OptionLabel `json:"correct_option" gorm:"not null;size:1" validate:"required,oneof=A B C D"`
	Explanation   *string     `json:"explanation" gorm:"type:text" validate:"omitempty,max=1000"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// QuestionnaireResponse is one graded attempt. Immutable once created:
// retakes insert new rows, never update old ones.
type QuestionnaireResponse struct {
	ID              uint `json:"id" gorm:"primaryKey"`
	QuestionnaireID uint `json:"questionnaire_id" gorm:"not null;index"`
	UserID          uint `json:"user_id" gorm:"not null;index"`

	// Submitted answer map, question id -> option label, serialized as JSONB.
	Answers datatypes.JSON `json:"answers" gorm:"type:jsonb"`

	Score  int  `json:"score" gorm:"not null"`
	Passed bool `json:"passed" gorm:"not null"`

	CreatedAt time.Time `json:"created_at"`

	// Relations
	Questionnaire Questionnaire `json:"-" gorm:"foreignKey:QuestionnaireID"`
	User          User          `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (Questionnaire) TableName() string {
	return "questionnaires"
}

func (Question) TableName() string {
	return "questions"
}

func (QuestionnaireResponse) TableName() string {
	return "questionnaire_responses"
}
