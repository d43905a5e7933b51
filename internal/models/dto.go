package models

import (
	"time"
)

// ===== PAGINATION & FILTERING =====

type ListCoursesParams struct {
	Page       int          `json:"page" validate:"min=0"`
	Size       int          `json:"size" validate:"min=1,max=100"`
	Status     CourseStatus `json:"status"`
	Search     string       `json:"search"`
	PracticeID uint         `json:"practice_id"`
	SortBy     string       `json:"sort_by"`
	SortDir    string       `json:"sort_dir" validate:"omitempty,oneof=asc desc"`
}

type ListUsersParams struct {
	Page       int        `json:"page" validate:"min=0"`
	Size       int        `json:"size" validate:"min=1,max=100"`
	Status     UserStatus `json:"status"`
	Role       string     `json:"role"`
	Search     string     `json:"search"`
	PracticeID uint       `json:"practice_id"`
}

type PaginatedResponse struct {
	Content       interface{} `json:"content"`
	TotalElements int64       `json:"total_elements"`
	TotalPages    int         `json:"total_pages"`
	Size          int         `json:"size"`
	Page          int         `json:"page"`
}

// ===== DASHBOARD DTOs =====

// AssignmentProgress is one row of the management progress matrix: one
// user x course pair with the same rounded percentage learners see.
type AssignmentProgress struct {
	UserID      uint      `json:"user_id"`
	UserName    string    `json:"user_name"`
	UserEmail   string    `json:"user_email"`
	CourseID    uint      `json:"course_id"`
	CourseTitle string    `json:"course_title"`
	Completed   int       `json:"completed_lessons"`
	Total       int       `json:"total_lessons"`
	Progress    int       `json:"progress"`
	AssignedAt  time.Time `json:"assigned_at"`
}

type PracticeStats struct {
	TotalUsers       int     `json:"total_users"`
	ActiveUsers      int     `json:"active_users"`
	PublishedCourses int     `json:"published_courses"`
	TotalAssignments int     `json:"total_assignments"`
	AvgProgress      float64 `json:"avg_progress"`
	QuizPassRate     float64 `json:"quiz_pass_rate"`
}

// ===== ERROR RESPONSES =====

type ErrorResponse struct {
	Error     string      `json:"error,omitempty"`
	Message   string      `json:"message"`
	Code      string      `json:"code,omitempty"`
	Details   interface{} `json:"details,omitempty"`
	Timestamp time.Time   `json:"timestamp,omitempty"`
}

type SuccessResponse struct {
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}
