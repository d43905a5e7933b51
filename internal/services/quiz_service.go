package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/smileworks/practice-portal/internal/events"
	"github.com/smileworks/practice-portal/internal/models"
	"github.com/smileworks/practice-portal/internal/repositories"
	"github.com/smileworks/practice-portal/internal/validator"
)

type quizService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
}

func NewQuizService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher) QuizService {
	return &quizService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		publisher: publisher,
	}
}

// ===== QUESTIONNAIRE CRUD =====

func (s *quizService) CreateQuestionnaire(ctx context.Context, courseID uint, req *CreateQuestionnaireRequest) (*models.Questionnaire, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, NewValidationError(errs[0].Field, errs[0].Message, errs[0].Value)
	}

	if _, err := s.repo.Course().GetByID(ctx, nil, courseID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to verify course: %w", err)
	}

	if existing, err := s.repo.Questionnaire().GetByCourse(ctx, nil, courseID); err == nil && existing != nil {
		return nil, NewConflictError("questionnaire", fmt.Sprintf("course %d already has a questionnaire", courseID))
	}

	questionnaire := &models.Questionnaire{
		CourseID:     courseID,
		Title:        req.Title,
		PassingScore: models.DefaultPassingScore,
	}
	if req.PassingScore != nil {
		questionnaire.PassingScore = *req.PassingScore
	}

	if err := s.repo.Questionnaire().Create(ctx, nil, questionnaire); err != nil {
		return nil, fmt.Errorf("failed to create questionnaire: %w", err)
	}

	s.logger.Info("questionnaire created", "questionnaire_id", questionnaire.ID, "course_id", courseID)
	return questionnaire, nil
}

func (s *quizService) GetQuestionnaire(ctx context.Context, id uint) (*models.Questionnaire, error) {
	questionnaire, err := s.repo.Questionnaire().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionnaireNotFound
		}
		return nil, fmt.Errorf("failed to get questionnaire: %w", err)
	}
	return questionnaire, nil
}

func (s *quizService) UpdateQuestionnaire(ctx context.Context, id uint, req *UpdateQuestionnaireRequest) (*models.Questionnaire, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, NewValidationError(errs[0].Field, errs[0].Message, errs[0].Value)
	}

	questionnaire, err := s.GetQuestionnaire(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		questionnaire.Title = *req.Title
	}
	if req.PassingScore != nil {
		questionnaire.PassingScore = *req.PassingScore
	}

	if err := s.repo.Questionnaire().Update(ctx, nil, questionnaire); err != nil {
		return nil, fmt.Errorf("failed to update questionnaire: %w", err)
	}
	return questionnaire, nil
}

func (s *quizService) DeleteQuestionnaire(ctx context.Context, id uint) error {
	if err := s.repo.Questionnaire().Delete(ctx, nil, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrQuestionnaireNotFound
		}
		return fmt.Errorf("failed to delete questionnaire: %w", err)
	}
	return nil
}

// ===== QUESTIONS =====

func (s *quizService) AddQuestion(ctx context.Context, questionnaireID uint, req *QuestionRequest) (*models.Question, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, NewValidationError(errs[0].Field, errs[0].Message, errs[0].Value)
	}

	if _, err := s.GetQuestionnaire(ctx, questionnaireID); err != nil {
		return nil, err
	}

	question := &models.Question{
		QuestionnaireID: questionnaireID,
		Text:            req.Text,
		OptionA:         req.OptionA,
		OptionB:         req.OptionB,
		OptionC:         req.OptionC,
		OptionD:         req.OptionD,
		CorrectOption:   models.OptionLabel(req.CorrectOption),
		Explanation:     req.Explanation,
		Position:        req.Position,
	}
	if err := s.repo.Questionnaire().AddQuestion(ctx, nil, question); err != nil {
		return nil, fmt.Errorf("failed to add question: %w", err)
	}
	return question, nil
}

func (s *quizService) UpdateQuestion(ctx context.Context, questionID uint, req *QuestionRequest) (*models.Question, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, NewValidationError(errs[0].Field, errs[0].Message, errs[0].Value)
	}

	question, err := s.findQuestion(ctx, questionID)
	if err != nil {
		return nil, err
	}

	question.Text = req.Text
	question.OptionA = req.OptionA
	question.OptionB = req.OptionB
	question.OptionC = req.OptionC
	question.OptionD = req.OptionD
	question.CorrectOption = models.OptionLabel(req.CorrectOption)
	question.Explanation = req.Explanation
	question.Position = req.Position

	if err := s.repo.Questionnaire().UpdateQuestion(ctx, nil, question); err != nil {
		return nil, fmt.Errorf("failed to update question: %w", err)
	}
	return question, nil
}

func (s *quizService) DeleteQuestion(ctx context.Context, questionID uint) error {
	if err := s.repo.Questionnaire().DeleteQuestion(ctx, nil, questionID); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrQuestionNotFound
		}
		return fmt.Errorf("failed to delete question: %w", err)
	}
	return nil
}

func (s *quizService) findQuestion(ctx context.Context, questionID uint) (*models.Question, error) {
	question, err := s.repo.Questionnaire().GetQuestion(ctx, nil, questionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	return question, nil
}

// ===== ATTEMPT VIEW =====

// FetchForAttempt returns the course's questionnaire mapped onto the
// attempt view types, which carry no correct-option or explanation fields.
func (s *quizService) FetchForAttempt(ctx context.Context, courseID uint) (*QuestionnaireAttemptView, error) {
	if courseID == 0 {
		return nil, NewValidationError("course_id", "is required", courseID)
	}

	questionnaire, err := s.repo.Questionnaire().GetByCourse(ctx, nil, courseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionnaireNotFound
		}
		return nil, fmt.Errorf("failed to get questionnaire: %w", err)
	}

	return sanitizeForAttempt(questionnaire), nil
}

func sanitizeForAttempt(questionnaire *models.Questionnaire) *QuestionnaireAttemptView {
	view := &QuestionnaireAttemptView{
		ID:           questionnaire.ID,
		CourseID:     questionnaire.CourseID,
		Title:        questionnaire.Title,
		PassingScore: effectivePassingScore(questionnaire),
		Questions:    make([]AttemptQuestion, 0, len(questionnaire.Questions)),
	}
	for _, q := range questionnaire.Questions {
		view.Questions = append(view.Questions, AttemptQuestion{
			ID:       q.ID,
			Text:     q.Text,
			Position: q.Position,
			OptionA:  q.OptionA,
			OptionB:  q.OptionB,
			OptionC:  q.OptionC,
			OptionD:  q.OptionD,
		})
	}
	return view
}

// ===== GRADING =====

func (s *quizService) Grade(ctx context.Context, questionnaireID uint, req *GradeRequest) (*GradingResult, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, NewValidationError(errs[0].Field, errs[0].Message, errs[0].Value)
	}

	questionnaire, err := s.GetQuestionnaire(ctx, questionnaireID)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.User().GetByID(ctx, nil, req.UserID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to verify user: %w", err)
	}
	if user.Status == models.UserInactive {
		return nil, NewPermissionError(req.UserID, questionnaireID, "questionnaire", "grade", "user is deactivated")
	}

	result := gradeAnswers(questionnaire, req.Answers)

	answersJSON, err := json.Marshal(req.Answers)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize answers: %w", err)
	}

	// Each submission is a brand-new immutable row; retakes never rewrite
	// earlier attempts.
	response := &models.QuestionnaireResponse{
		QuestionnaireID: questionnaireID,
		UserID:          req.UserID,
		Answers:         datatypes.JSON(answersJSON),
		Score:           result.Score,
		Passed:          result.Passed,
	}
	if err := s.repo.Response().Create(ctx, nil, response); err != nil {
		return nil, fmt.Errorf("failed to persist response: %w", err)
	}
	result.ResponseID = response.ID
	result.GradedAt = response.CreatedAt

	if s.publisher != nil {
		event := events.NewEvent(events.TypeQuestionnaireGraded, map[string]interface{}{
			"questionnaire_id": questionnaireID,
			"user_id":          req.UserID,
			"response_id":      response.ID,
			"score":            result.Score,
			"passed":           result.Passed,
		})
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Warn("failed to publish event", "event_type", event.Type, "error", err)
		}
	}

	s.logger.Info("questionnaire graded",
		"questionnaire_id", questionnaireID,
		"user_id", req.UserID,
		"score", result.Score,
		"passed", result.Passed)
	return result, nil
}

// gradeAnswers scores the answer map against the stored question list.
// Grading iterates the questionnaire's own questions, so answer-map entries
// for foreign question ids are ignored, and a question with no submitted
// answer is never correct.
func gradeAnswers(questionnaire *models.Questionnaire, answers map[string]string) *GradingResult {
	result := &GradingResult{
		PassingScore: effectivePassingScore(questionnaire),
		TotalCount:   len(questionnaire.Questions),
		Questions:    make([]QuestionResult, 0, len(questionnaire.Questions)),
		GradedAt:     time.Now(),
	}

	for _, question := range questionnaire.Questions {
		key := strconv.FormatUint(uint64(question.ID), 10)

		qr := QuestionResult{
			QuestionID:    question.ID,
			Text:          question.Text,
			CorrectOption: string(question.CorrectOption),
			Explanation:   question.Explanation,
		}
		if submitted, ok := answers[key]; ok {
			qr.YourAnswer = &submitted
			qr.IsCorrect = submitted == string(question.CorrectOption)
		}
		if qr.IsCorrect {
			result.CorrectCount++
		}
		result.Questions = append(result.Questions, qr)
	}

	result.Score = roundPercent(result.CorrectCount, result.TotalCount)
	result.Passed = result.Score >= result.PassingScore
	return result
}

func effectivePassingScore(questionnaire *models.Questionnaire) int {
	if questionnaire.PassingScore <= 0 {
		return models.DefaultPassingScore
	}
	return questionnaire.PassingScore
}

// ===== RESPONSES =====

func (s *quizService) ListResponses(ctx context.Context, questionnaireID uint, filters repositories.ResponseFilters) (*ResponseListResponse, error) {
	if _, err := s.GetQuestionnaire(ctx, questionnaireID); err != nil {
		return nil, err
	}

	responses, total, err := s.repo.Response().ListByQuestionnaire(ctx, nil, questionnaireID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}

	stats, err := s.repo.Response().GetStats(ctx, nil, questionnaireID)
	if err != nil {
		return nil, fmt.Errorf("failed to get response stats: %w", err)
	}

	return &ResponseListResponse{
		Responses: responses,
		Total:     total,
		Stats:     stats,
	}, nil
}
