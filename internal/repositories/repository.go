package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Repository aggregates every repository interface behind one entry point.
type Repository interface {
	Practice() PracticeRepository
	User() UserRepository
	Course() CourseRepository
	Assignment() AssignmentRepository
	Progress() ProgressRepository
	Questionnaire() QuestionnaireRepository
	Response() ResponseRepository
	Knowledge() KnowledgeRepository
	Dashboard() DashboardRepository

	// Transaction support
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager handles repository lifecycle.
type RepositoryManager interface {
	Initialize() error
	GetRepository() Repository
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// IsNotFoundError reports whether the error is a missing-record condition
// from the persistence layer.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
