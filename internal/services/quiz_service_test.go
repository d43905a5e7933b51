package services

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/smileworks/practice-portal/internal/events"
	"github.com/smileworks/practice-portal/internal/models"
	"github.com/smileworks/practice-portal/internal/validator"
)

func buildQuestionnaire(passingScore int, correct ...models.OptionLabel) *models.Questionnaire {
	questionnaire := &models.Questionnaire{
		ID:           1,
		CourseID:     1,
		Title:        "Sterilization basics",
		PassingScore: passingScore,
	}
	for i, label := range correct {
		questionnaire.Questions = append(questionnaire.Questions, models.Question{
			ID:              uint(i + 1),
			QuestionnaireID: 1,
			Text:            "question",
			Position:        i,
			OptionA:         "a",
			OptionB:         "b",
			OptionC:         "c",
			OptionD:         "d",
			CorrectOption:   label,
		})
	}
	return questionnaire
}

func TestGradeAnswers(t *testing.T) {
	tests := []struct {
		name         string
		passingScore int
		correct      []models.OptionLabel
		answers      map[string]string
		wantScore    int
		wantPassed   bool
		wantCorrect  int
	}{
		{
			name:         "three of four passes at the default threshold",
			correct:      []models.OptionLabel{models.OptionA, models.OptionB, models.OptionC, models.OptionD},
			answers:      map[string]string{"1": "A", "2": "B", "3": "C", "4": "A"},
			wantScore:    75,
			wantPassed:   true,
			wantCorrect:  3,
		},
		{
			name:        "empty answer map scores zero",
			correct:     []models.OptionLabel{models.OptionA, models.OptionB},
			answers:     map[string]string{},
			wantScore:   0,
			wantPassed:  false,
			wantCorrect: 0,
		},
		{
			name:        "answers for foreign question ids are ignored",
			correct:     []models.OptionLabel{models.OptionA},
			answers:     map[string]string{"1": "A", "999": "A", "banana": "A"},
			wantScore:   100,
			wantPassed:  true,
			wantCorrect: 1,
		},
		{
			name:        "bogus option label grades incorrect",
			correct:     []models.OptionLabel{models.OptionA, models.OptionB},
			answers:     map[string]string{"1": "Z", "2": "B"},
			wantScore:   50,
			wantPassed:  false,
			wantCorrect: 1,
		},
		{
			name:         "score equal to the threshold passes",
			passingScore: 67,
			correct:      []models.OptionLabel{models.OptionA, models.OptionB, models.OptionC},
			answers:      map[string]string{"1": "A", "2": "B"},
			wantScore:    67,
			wantPassed:   true,
			wantCorrect:  2,
		},
		{
			name:        "one of three rounds to 33 and fails",
			correct:     []models.OptionLabel{models.OptionA, models.OptionB, models.OptionC},
			answers:     map[string]string{"1": "A"},
			wantScore:   33,
			wantPassed:  false,
			wantCorrect: 1,
		},
		{
			name:        "questionnaire without questions scores zero",
			correct:     nil,
			answers:     map[string]string{"1": "A"},
			wantScore:   0,
			wantPassed:  false,
			wantCorrect: 0,
		},
		{
			name:        "full marks always passes",
			correct:     []models.OptionLabel{models.OptionD, models.OptionD},
			answers:     map[string]string{"1": "D", "2": "D"},
			wantScore:   100,
			wantPassed:  true,
			wantCorrect: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			questionnaire := buildQuestionnaire(tt.passingScore, tt.correct...)
			result := gradeAnswers(questionnaire, tt.answers)

			if result.Score != tt.wantScore {
				t.Errorf("expected score %d, got %d", tt.wantScore, result.Score)
			}
			if result.Passed != tt.wantPassed {
				t.Errorf("expected passed=%v, got %v", tt.wantPassed, result.Passed)
			}
			if result.CorrectCount != tt.wantCorrect {
				t.Errorf("expected %d correct, got %d", tt.wantCorrect, result.CorrectCount)
			}
			if result.TotalCount != len(tt.correct) {
				t.Errorf("expected total %d, got %d", len(tt.correct), result.TotalCount)
			}
			if len(result.Questions) != len(tt.correct) {
				t.Errorf("expected %d question results, got %d", len(tt.correct), len(result.Questions))
			}
		})
	}
}

func TestGradeAnswers_UnansweredQuestionResult(t *testing.T) {
	questionnaire := buildQuestionnaire(0, models.OptionA, models.OptionB)
	result := gradeAnswers(questionnaire, map[string]string{"1": "A"})

	if result.Questions[0].YourAnswer == nil || *result.Questions[0].YourAnswer != "A" {
		t.Error("answered question should echo the submitted answer")
	}
	if result.Questions[1].YourAnswer != nil {
		t.Error("unanswered question should have no submitted answer")
	}
	if result.Questions[1].IsCorrect {
		t.Error("unanswered question is never correct")
	}
}

func TestEffectivePassingScore(t *testing.T) {
	tests := []struct {
		name  string
		score int
		want  int
	}{
		{"zero falls back to the default", 0, models.DefaultPassingScore},
		{"negative falls back to the default", -10, models.DefaultPassingScore},
		{"explicit threshold wins", 85, 85},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			questionnaire := &models.Questionnaire{PassingScore: tt.score}
			if got := effectivePassingScore(questionnaire); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestSanitizeForAttempt(t *testing.T) {
	explanation := "because autoclaves need 134 degrees"
	questionnaire := buildQuestionnaire(80, models.OptionB, models.OptionC)
	questionnaire.Questions[0].Explanation = &explanation

	view := sanitizeForAttempt(questionnaire)

	if view.ID != questionnaire.ID || view.CourseID != questionnaire.CourseID {
		t.Error("view should carry questionnaire identity")
	}
	if view.PassingScore != 80 {
		t.Errorf("expected passing score 80, got %d", view.PassingScore)
	}
	if len(view.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(view.Questions))
	}

	// The serialized attempt view must never leak answers or explanations.
	payload, err := json.Marshal(view)
	if err != nil {
		t.Fatalf("failed to marshal view: %v", err)
	}
	body := string(payload)
	for _, leak := range []string{"correct_option", "explanation", explanation} {
		if strings.Contains(body, leak) {
			t.Errorf("attempt view leaks %q: %s", leak, body)
		}
	}
}

func TestQuizService_Grade(t *testing.T) {
	repo := newFakeRepository()
	publisher := events.NewMockEventPublisher()
	svc := NewQuizService(repo, nil, slog.Default(), validator.New(), publisher)
	ctx := context.Background()

	questionnaire := buildQuestionnaire(0, models.OptionA, models.OptionB, models.OptionC, models.OptionD)
	repo.questionnaires[1] = questionnaire
	repo.users[7] = &models.User{ID: 7, PracticeID: 5}

	result, err := svc.Grade(ctx, 1, &GradeRequest{
		UserID:  7,
		Answers: map[string]string{"1": "A", "2": "B", "3": "C", "4": "A"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Score != 75 || !result.Passed {
		t.Errorf("expected 75/passed, got %d/%v", result.Score, result.Passed)
	}
	if result.ResponseID == 0 {
		t.Error("expected a persisted response id")
	}
	if result.GradedAt.IsZero() {
		t.Error("expected graded timestamp from the stored row")
	}

	// Retake with full marks: a second immutable row, never an update.
	retake, err := svc.Grade(ctx, 1, &GradeRequest{
		UserID:  7,
		Answers: map[string]string{"1": "A", "2": "B", "3": "C", "4": "D"},
	})
	if err != nil {
		t.Fatalf("unexpected error on retake: %v", err)
	}
	if retake.Score != 100 || !retake.Passed {
		t.Errorf("expected 100/passed on retake, got %d/%v", retake.Score, retake.Passed)
	}
	if retake.ResponseID == result.ResponseID {
		t.Error("retake must create a new response row")
	}
	if len(repo.responses) != 2 {
		t.Fatalf("expected 2 stored responses, got %d", len(repo.responses))
	}
	if repo.responses[0].Score != 75 {
		t.Errorf("first attempt row must stay untouched, got score %d", repo.responses[0].Score)
	}

	published := publisher.GetPublishedEvents()
	if len(published) != 2 {
		t.Fatalf("expected 2 graded events, got %d", len(published))
	}
	if published[0].Type != events.TypeQuestionnaireGraded {
		t.Errorf("expected %s event, got %s", events.TypeQuestionnaireGraded, published[0].Type)
	}
}

func TestQuizService_Grade_UnknownUser(t *testing.T) {
	repo := newFakeRepository()
	svc := NewQuizService(repo, nil, slog.Default(), validator.New(), events.NewMockEventPublisher())

	repo.questionnaires[1] = buildQuestionnaire(0, models.OptionA)

	_, err := svc.Grade(context.Background(), 1, &GradeRequest{UserID: 42, Answers: map[string]string{}})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected not-found error, got %v", err)
	}
}

func TestQuizService_Grade_DeactivatedUser(t *testing.T) {
	repo := newFakeRepository()
	svc := NewQuizService(repo, nil, slog.Default(), validator.New(), events.NewMockEventPublisher())

	repo.questionnaires[1] = buildQuestionnaire(0, models.OptionA)
	repo.users[7] = &models.User{ID: 7, PracticeID: 5, Status: models.UserInactive}

	_, err := svc.Grade(context.Background(), 1, &GradeRequest{UserID: 7, Answers: map[string]string{"1": "A"}})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden error for deactivated user, got %v", err)
	}
	if len(repo.responses) != 0 {
		t.Error("no response row may be stored for a deactivated user")
	}
}

func TestQuizService_UpdateQuestion(t *testing.T) {
	repo := newFakeRepository()
	svc := NewQuizService(repo, nil, slog.Default(), validator.New(), nil)
	ctx := context.Background()

	repo.questionnaires[1] = buildQuestionnaire(0, models.OptionA, models.OptionB)

	updated, err := svc.UpdateQuestion(ctx, 2, &QuestionRequest{
		Text:          "Which cycle sterilizes handpieces?",
		OptionA:       "dry heat",
		OptionB:       "autoclave",
		OptionC:       "cold soak",
		OptionD:       "uv light",
		CorrectOption: "B",
		Position:      1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.ID != 2 || updated.CorrectOption != models.OptionB {
		t.Errorf("expected question 2 with correct option B, got %d/%s", updated.ID, updated.CorrectOption)
	}

	stored := repo.questionnaires[1].Questions[1]
	if stored.Text != "Which cycle sterilizes handpieces?" {
		t.Errorf("expected updated text persisted, got %q", stored.Text)
	}

	_, err = svc.UpdateQuestion(ctx, 99, &QuestionRequest{
		Text:          "x",
		OptionA:       "a",
		OptionB:       "b",
		OptionC:       "c",
		OptionD:       "d",
		CorrectOption: "A",
	})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected not-found for unknown question, got %v", err)
	}
}

func TestQuizService_FetchForAttempt_Missing(t *testing.T) {
	repo := newFakeRepository()
	svc := NewQuizService(repo, nil, slog.Default(), validator.New(), nil)

	_, err := svc.FetchForAttempt(context.Background(), 99)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected not-found error, got %v", err)
	}

	_, err = svc.FetchForAttempt(context.Background(), 0)
	if !errors.Is(err, ErrValidationFailed) {
		t.Errorf("expected validation error for missing course id, got %v", err)
	}
}
