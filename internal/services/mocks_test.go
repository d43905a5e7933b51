package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/smileworks/practice-portal/internal/models"
	"github.com/smileworks/practice-portal/internal/repositories"
)

// fakeRepository is an in-memory repositories.Repository for service tests.
type fakeRepository struct {
	practices      map[uint]*models.Practice
	users          map[uint]*models.User
	courses        map[uint]*models.Course
	assignments    map[uint][]uint // user id -> assigned course ids
	completed      map[uint]map[uint]bool
	questionnaires map[uint]*models.Questionnaire
	responses      []*models.QuestionnaireResponse
	docs           map[uint]*models.KnowledgeDoc
	stats          *models.PracticeStats

	nextResponseID uint
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		practices:      map[uint]*models.Practice{},
		users:          map[uint]*models.User{},
		courses:        map[uint]*models.Course{},
		assignments:    map[uint][]uint{},
		completed:      map[uint]map[uint]bool{},
		questionnaires: map[uint]*models.Questionnaire{},
		docs:           map[uint]*models.KnowledgeDoc{},
		stats:          &models.PracticeStats{},
	}
}

func (f *fakeRepository) Practice() repositories.PracticeRepository         { return &fakePracticeRepo{f} }
func (f *fakeRepository) User() repositories.UserRepository                 { return &fakeUserRepo{f} }
func (f *fakeRepository) Course() repositories.CourseRepository             { return &fakeCourseRepo{f} }
func (f *fakeRepository) Assignment() repositories.AssignmentRepository     { return &fakeAssignmentRepo{f} }
func (f *fakeRepository) Progress() repositories.ProgressRepository         { return &fakeProgressRepo{f} }
func (f *fakeRepository) Questionnaire() repositories.QuestionnaireRepository {
	return &fakeQuestionnaireRepo{f}
}
func (f *fakeRepository) Response() repositories.ResponseRepository   { return &fakeResponseRepo{f} }
func (f *fakeRepository) Knowledge() repositories.KnowledgeRepository { return &fakeKnowledgeRepo{f} }
func (f *fakeRepository) Dashboard() repositories.DashboardRepository { return &fakeDashboardRepo{f} }

func (f *fakeRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(f)
}
func (f *fakeRepository) Ping(ctx context.Context) error { return nil }
func (f *fakeRepository) Close() error                   { return nil }

func notFound(what string, id uint) error {
	return fmt.Errorf("%s %d: %w", what, id, gorm.ErrRecordNotFound)
}

// window applies repository-style LIMIT/OFFSET to an already filtered slice.
func window[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// cloneCourse mimics a fresh query result so computed fields set by one call
// never leak into the next.
func cloneCourse(course *models.Course) *models.Course {
	clone := *course
	clone.Progress = 0
	clone.LessonCount = 0
	clone.Assigned = false
	clone.Modules = make([]models.Module, len(course.Modules))
	for i, module := range course.Modules {
		clone.Modules[i] = module
		clone.Modules[i].Lessons = make([]models.Lesson, len(module.Lessons))
		for j, lesson := range module.Lessons {
			lesson.Completed = false
			clone.Modules[i].Lessons[j] = lesson
		}
	}
	return &clone
}

// ===== PRACTICES =====

type fakePracticeRepo struct{ f *fakeRepository }

func (r *fakePracticeRepo) Create(ctx context.Context, tx *gorm.DB, practice *models.Practice) error {
	r.f.practices[practice.ID] = practice
	return nil
}

func (r *fakePracticeRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Practice, error) {
	practice, ok := r.f.practices[id]
	if !ok {
		return nil, notFound("practice", id)
	}
	return practice, nil
}

func (r *fakePracticeRepo) Update(ctx context.Context, tx *gorm.DB, practice *models.Practice) error {
	r.f.practices[practice.ID] = practice
	return nil
}

func (r *fakePracticeRepo) List(ctx context.Context, tx *gorm.DB) ([]*models.Practice, error) {
	return nil, nil
}

// ===== USERS =====

type fakeUserRepo struct{ f *fakeRepository }

func (r *fakeUserRepo) Create(ctx context.Context, tx *gorm.DB, user *models.User) error {
	if user.ID == 0 {
		user.ID = uint(len(r.f.users) + 1)
	}
	r.f.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.User, error) {
	user, ok := r.f.users[id]
	if !ok {
		return nil, notFound("user", id)
	}
	return user, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.User, error) {
	for _, user := range r.f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", email, gorm.ErrRecordNotFound)
}

func (r *fakeUserRepo) GetByInviteToken(ctx context.Context, tx *gorm.DB, token string) (*models.User, error) {
	for _, user := range r.f.users {
		if user.InviteToken != nil && *user.InviteToken == token {
			return user, nil
		}
	}
	return nil, fmt.Errorf("invite token: %w", gorm.ErrRecordNotFound)
}

func (r *fakeUserRepo) Update(ctx context.Context, tx *gorm.DB, user *models.User) error {
	r.f.users[user.ID] = user
	return nil
}

// List mirrors the real repository: the role filter is a loose substring
// prefilter over the encoded roles, and LIMIT/OFFSET apply after counting.
func (r *fakeUserRepo) List(ctx context.Context, tx *gorm.DB, practiceID uint, filters repositories.UserFilters) ([]*models.User, int64, error) {
	var users []*models.User
	for _, user := range r.f.users {
		if user.PracticeID != practiceID {
			continue
		}
		if filters.Role != nil && *filters.Role != "" &&
			!strings.Contains(strings.Join(user.Roles.Tags(), ","), *filters.Role) {
			continue
		}
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })

	total := int64(len(users))
	return window(users, filters.Limit, filters.Offset), total, nil
}

// ===== COURSES =====

type fakeCourseRepo struct{ f *fakeRepository }

func (r *fakeCourseRepo) Create(ctx context.Context, tx *gorm.DB, course *models.Course) error {
	r.f.courses[course.ID] = course
	return nil
}

func (r *fakeCourseRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error) {
	course, ok := r.f.courses[id]
	if !ok {
		return nil, notFound("course", id)
	}
	return cloneCourse(course), nil
}

func (r *fakeCourseRepo) GetByIDWithContent(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error) {
	return r.GetByID(ctx, tx, id)
}

func (r *fakeCourseRepo) Update(ctx context.Context, tx *gorm.DB, course *models.Course) error {
	r.f.courses[course.ID] = course
	return nil
}

func (r *fakeCourseRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	delete(r.f.courses, id)
	return nil
}

func (r *fakeCourseRepo) List(ctx context.Context, tx *gorm.DB, practiceID uint, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	return nil, 0, nil
}

func (r *fakeCourseRepo) ListPublishedWithContent(ctx context.Context, tx *gorm.DB, practiceID uint) ([]*models.Course, error) {
	var courses []*models.Course
	for _, course := range r.f.courses {
		if course.PracticeID == practiceID && course.Status == models.CoursePublished {
			courses = append(courses, cloneCourse(course))
		}
	}
	return courses, nil
}

func (r *fakeCourseRepo) CreateModule(ctx context.Context, tx *gorm.DB, module *models.Module) error {
	return nil
}
func (r *fakeCourseRepo) UpdateModule(ctx context.Context, tx *gorm.DB, module *models.Module) error {
	return nil
}
func (r *fakeCourseRepo) DeleteModule(ctx context.Context, tx *gorm.DB, id uint) error { return nil }
func (r *fakeCourseRepo) GetModule(ctx context.Context, tx *gorm.DB, id uint) (*models.Module, error) {
	return nil, notFound("module", id)
}

func (r *fakeCourseRepo) CreateLesson(ctx context.Context, tx *gorm.DB, lesson *models.Lesson) error {
	return nil
}
func (r *fakeCourseRepo) UpdateLesson(ctx context.Context, tx *gorm.DB, lesson *models.Lesson) error {
	return nil
}
func (r *fakeCourseRepo) DeleteLesson(ctx context.Context, tx *gorm.DB, id uint) error { return nil }
func (r *fakeCourseRepo) GetLesson(ctx context.Context, tx *gorm.DB, id uint) (*models.Lesson, error) {
	for _, course := range r.f.courses {
		for _, module := range course.Modules {
			for _, lesson := range module.Lessons {
				if lesson.ID == id {
					found := lesson
					return &found, nil
				}
			}
		}
	}
	return nil, notFound("lesson", id)
}

// ===== ASSIGNMENTS =====

type fakeAssignmentRepo struct{ f *fakeRepository }

func (r *fakeAssignmentRepo) Assign(ctx context.Context, tx *gorm.DB, assignment *models.CourseAssignment) error {
	for _, id := range r.f.assignments[assignment.UserID] {
		if id == assignment.CourseID {
			return nil
		}
	}
	r.f.assignments[assignment.UserID] = append(r.f.assignments[assignment.UserID], assignment.CourseID)
	return nil
}

func (r *fakeAssignmentRepo) Unassign(ctx context.Context, tx *gorm.DB, userID, courseID uint) error {
	ids := r.f.assignments[userID]
	for i, id := range ids {
		if id == courseID {
			r.f.assignments[userID] = append(ids[:i], ids[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *fakeAssignmentRepo) CourseIDsForUser(ctx context.Context, tx *gorm.DB, userID uint) ([]uint, error) {
	return r.f.assignments[userID], nil
}

func (r *fakeAssignmentRepo) ListByPractice(ctx context.Context, tx *gorm.DB, practiceID uint) ([]*models.CourseAssignment, error) {
	var out []*models.CourseAssignment
	for userID, courseIDs := range r.f.assignments {
		user, ok := r.f.users[userID]
		if !ok || user.PracticeID != practiceID {
			continue
		}
		for _, courseID := range courseIDs {
			assignment := &models.CourseAssignment{
				UserID:    userID,
				CourseID:  courseID,
				CreatedAt: time.Now(),
				User:      *user,
			}
			if course, ok := r.f.courses[courseID]; ok {
				assignment.Course = *course
			}
			out = append(out, assignment)
		}
	}
	return out, nil
}

// ===== PROGRESS =====

type fakeProgressRepo struct{ f *fakeRepository }

func (r *fakeProgressRepo) Upsert(ctx context.Context, tx *gorm.DB, progress *models.LessonProgress) error {
	set := r.f.completed[progress.UserID]
	if set == nil {
		set = map[uint]bool{}
		r.f.completed[progress.UserID] = set
	}
	if progress.Completed {
		set[progress.LessonID] = true
	} else {
		delete(set, progress.LessonID)
	}
	return nil
}

func (r *fakeProgressRepo) CompletedLessonIDs(ctx context.Context, tx *gorm.DB, userID uint) (map[uint]bool, error) {
	out := map[uint]bool{}
	for id := range r.f.completed[userID] {
		out[id] = true
	}
	return out, nil
}

func (r *fakeProgressRepo) CompletedLessonIDsByUsers(ctx context.Context, tx *gorm.DB, userIDs []uint) (map[uint]map[uint]bool, error) {
	out := map[uint]map[uint]bool{}
	for _, userID := range userIDs {
		set, err := r.CompletedLessonIDs(ctx, tx, userID)
		if err != nil {
			return nil, err
		}
		out[userID] = set
	}
	return out, nil
}

// ===== QUESTIONNAIRES =====

type fakeQuestionnaireRepo struct{ f *fakeRepository }

func (r *fakeQuestionnaireRepo) Create(ctx context.Context, tx *gorm.DB, questionnaire *models.Questionnaire) error {
	if questionnaire.ID == 0 {
		questionnaire.ID = uint(len(r.f.questionnaires) + 1)
	}
	r.f.questionnaires[questionnaire.ID] = questionnaire
	return nil
}

func (r *fakeQuestionnaireRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Questionnaire, error) {
	questionnaire, ok := r.f.questionnaires[id]
	if !ok {
		return nil, notFound("questionnaire", id)
	}
	return questionnaire, nil
}

func (r *fakeQuestionnaireRepo) GetByCourse(ctx context.Context, tx *gorm.DB, courseID uint) (*models.Questionnaire, error) {
	for _, questionnaire := range r.f.questionnaires {
		if questionnaire.CourseID == courseID {
			return questionnaire, nil
		}
	}
	return nil, notFound("questionnaire for course", courseID)
}

func (r *fakeQuestionnaireRepo) Update(ctx context.Context, tx *gorm.DB, questionnaire *models.Questionnaire) error {
	r.f.questionnaires[questionnaire.ID] = questionnaire
	return nil
}

func (r *fakeQuestionnaireRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	delete(r.f.questionnaires, id)
	return nil
}

func (r *fakeQuestionnaireRepo) AddQuestion(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	return nil
}

func (r *fakeQuestionnaireRepo) GetQuestion(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	for _, questionnaire := range r.f.questionnaires {
		for _, question := range questionnaire.Questions {
			if question.ID == id {
				found := question
				return &found, nil
			}
		}
	}
	return nil, notFound("question", id)
}

func (r *fakeQuestionnaireRepo) UpdateQuestion(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	for _, questionnaire := range r.f.questionnaires {
		for i := range questionnaire.Questions {
			if questionnaire.Questions[i].ID == question.ID {
				questionnaire.Questions[i] = *question
				return nil
			}
		}
	}
	return notFound("question", question.ID)
}
func (r *fakeQuestionnaireRepo) DeleteQuestion(ctx context.Context, tx *gorm.DB, id uint) error {
	return nil
}

// ===== RESPONSES =====

type fakeResponseRepo struct{ f *fakeRepository }

func (r *fakeResponseRepo) Create(ctx context.Context, tx *gorm.DB, response *models.QuestionnaireResponse) error {
	r.f.nextResponseID++
	response.ID = r.f.nextResponseID
	response.CreatedAt = time.Now()
	r.f.responses = append(r.f.responses, response)
	return nil
}

func (r *fakeResponseRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.QuestionnaireResponse, error) {
	for _, response := range r.f.responses {
		if response.ID == id {
			return response, nil
		}
	}
	return nil, notFound("response", id)
}

func (r *fakeResponseRepo) ListByQuestionnaire(ctx context.Context, tx *gorm.DB, questionnaireID uint, filters repositories.ResponseFilters) ([]*models.QuestionnaireResponse, int64, error) {
	var out []*models.QuestionnaireResponse
	for _, response := range r.f.responses {
		if response.QuestionnaireID == questionnaireID {
			out = append(out, response)
		}
	}
	return out, int64(len(out)), nil
}

// ===== KNOWLEDGE DOCS =====

// fakeKnowledgeRepo applies only a loose substring tag prefilter, acting as
// the SQL LIKE prefilter the real repository is. Exact tag matching is the
// service's job and the tests rely on that split.
type fakeKnowledgeRepo struct{ f *fakeRepository }

func (r *fakeKnowledgeRepo) Create(ctx context.Context, tx *gorm.DB, doc *models.KnowledgeDoc) error {
	if doc.ID == 0 {
		doc.ID = uint(len(r.f.docs) + 1)
	}
	r.f.docs[doc.ID] = doc
	return nil
}

func (r *fakeKnowledgeRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.KnowledgeDoc, error) {
	doc, ok := r.f.docs[id]
	if !ok {
		return nil, notFound("knowledge doc", id)
	}
	return doc, nil
}

func (r *fakeKnowledgeRepo) Update(ctx context.Context, tx *gorm.DB, doc *models.KnowledgeDoc) error {
	r.f.docs[doc.ID] = doc
	return nil
}

func (r *fakeKnowledgeRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	if _, ok := r.f.docs[id]; !ok {
		return notFound("knowledge doc", id)
	}
	delete(r.f.docs, id)
	return nil
}

func (r *fakeKnowledgeRepo) List(ctx context.Context, tx *gorm.DB, practiceID uint, filters repositories.DocFilters) ([]*models.KnowledgeDoc, int64, error) {
	var docs []*models.KnowledgeDoc
	for _, doc := range r.f.docs {
		if doc.PracticeID != practiceID {
			continue
		}
		if filters.Tag != nil && *filters.Tag != "" &&
			!strings.Contains(strings.Join(doc.Tags.Tags(), ","), *filters.Tag) {
			continue
		}
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })

	total := int64(len(docs))
	return window(docs, filters.Limit, filters.Offset), total, nil
}

// ===== DASHBOARD =====

type fakeDashboardRepo struct{ f *fakeRepository }

func (r *fakeDashboardRepo) GetPracticeStats(ctx context.Context, practiceID uint) (*models.PracticeStats, error) {
	stats := *r.f.stats
	return &stats, nil
}

func (r *fakeResponseRepo) GetStats(ctx context.Context, tx *gorm.DB, questionnaireID uint) (*repositories.QuizStats, error) {
	stats := &repositories.QuizStats{}
	for _, response := range r.f.responses {
		if response.QuestionnaireID != questionnaireID {
			continue
		}
		stats.TotalResponses++
		if response.Passed {
			stats.PassedCount++
		}
		stats.AverageScore += float64(response.Score)
	}
	if stats.TotalResponses > 0 {
		stats.AverageScore /= float64(stats.TotalResponses)
		stats.PassRate = float64(stats.PassedCount) / float64(stats.TotalResponses) * 100
	}
	return stats, nil
}
