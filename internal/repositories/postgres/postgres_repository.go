package postgres

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/smileworks/practice-portal/internal/repositories"
)

// PostgreSQLRepository wires the individual PostgreSQL repositories behind
// the aggregate Repository interface.
type PostgreSQLRepository struct {
	db          *gorm.DB
	redisClient *redis.Client

	practice      repositories.PracticeRepository
	user          repositories.UserRepository
	course        repositories.CourseRepository
	assignment    repositories.AssignmentRepository
	progress      repositories.ProgressRepository
	questionnaire repositories.QuestionnaireRepository
	response      repositories.ResponseRepository
	knowledge     repositories.KnowledgeRepository
	dashboard     repositories.DashboardRepository
}

func NewPostgreSQLRepository(db *gorm.DB, redisClient *redis.Client) repositories.Repository {
	return &PostgreSQLRepository{
		db:            db,
		redisClient:   redisClient,
		practice:      NewPracticePostgreSQL(db),
		user:          NewUserPostgreSQL(db),
		course:        NewCoursePostgreSQL(db, redisClient),
		assignment:    NewAssignmentPostgreSQL(db),
		progress:      NewProgressPostgreSQL(db),
		questionnaire: NewQuestionnairePostgreSQL(db, redisClient),
		response:      NewResponsePostgreSQL(db),
		knowledge:     NewKnowledgePostgreSQL(db),
		dashboard:     NewDashboardPostgreSQL(db, redisClient),
	}
}

func (r *PostgreSQLRepository) Practice() repositories.PracticeRepository { return r.practice }
func (r *PostgreSQLRepository) User() repositories.UserRepository         { return r.user }
func (r *PostgreSQLRepository) Course() repositories.CourseRepository     { return r.course }
func (r *PostgreSQLRepository) Assignment() repositories.AssignmentRepository {
	return r.assignment
}
func (r *PostgreSQLRepository) Progress() repositories.ProgressRepository { return r.progress }
func (r *PostgreSQLRepository) Questionnaire() repositories.QuestionnaireRepository {
	return r.questionnaire
}
func (r *PostgreSQLRepository) Response() repositories.ResponseRepository   { return r.response }
func (r *PostgreSQLRepository) Knowledge() repositories.KnowledgeRepository { return r.knowledge }
func (r *PostgreSQLRepository) Dashboard() repositories.DashboardRepository { return r.dashboard }

// WithTransaction runs fn inside a database transaction. The Repository
// handed to fn is bound to the transaction, so nested calls share it.
func (r *PostgreSQLRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := NewPostgreSQLRepository(tx, r.redisClient)
		return fn(txRepo)
	})
}

func (r *PostgreSQLRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

func (r *PostgreSQLRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// Manager implements the repository lifecycle around a PostgreSQLRepository.
type Manager struct {
	db          *gorm.DB
	redisClient *redis.Client
	repository  repositories.Repository
}

func NewManager(db *gorm.DB, redisClient *redis.Client) repositories.RepositoryManager {
	return &Manager{db: db, redisClient: redisClient}
}

func (m *Manager) Initialize() error {
	if m.db == nil {
		return fmt.Errorf("database connection is required")
	}
	m.repository = NewPostgreSQLRepository(m.db, m.redisClient)
	return nil
}

func (m *Manager) GetRepository() repositories.Repository {
	return m.repository
}

func (m *Manager) HealthCheck(ctx context.Context) error {
	if m.repository == nil {
		return fmt.Errorf("repository not initialized")
	}
	return m.repository.Ping(ctx)
}

func (m *Manager) Shutdown(ctx context.Context) error {
	if m.repository == nil {
		return nil
	}
	return m.repository.Close()
}
