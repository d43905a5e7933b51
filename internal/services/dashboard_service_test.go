package services

import (
	"context"
	"log/slog"
	"testing"

	"github.com/smileworks/practice-portal/internal/models"
)

func TestProgressMatrix(t *testing.T) {
	repo := newFakeRepository()
	svc := NewDashboardService(repo, nil, slog.Default())
	ctx := context.Background()

	course := buildCourseWithLessons(1, 10, 11, 12, 13)
	course.PracticeID = 5
	course.Title = "Infection control"
	repo.courses[1] = course

	repo.users[7] = &models.User{ID: 7, PracticeID: 5, FullName: "Ada Dental", Email: "ada@example.com"}
	repo.assignments[7] = []uint{1}
	repo.completed[7] = map[uint]bool{10: true, 11: true, 12: true}

	rows, err := svc.ProgressMatrix(ctx, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}

	row := rows[0]
	if row.UserName != "Ada Dental" || row.CourseTitle != "Infection control" {
		t.Errorf("unexpected row identity: %+v", row)
	}
	if row.Completed != 3 || row.Total != 4 {
		t.Errorf("expected 3/4, got %d/%d", row.Completed, row.Total)
	}
	if row.Progress != 75 {
		t.Errorf("expected 75%%, got %d", row.Progress)
	}
}

func TestProgressMatrix_SkipsVanishedCourses(t *testing.T) {
	repo := newFakeRepository()
	svc := NewDashboardService(repo, nil, slog.Default())

	course := buildCourseWithLessons(1, 10, 11)
	course.PracticeID = 5
	repo.courses[1] = course
	repo.users[7] = &models.User{ID: 7, PracticeID: 5}

	// The second assignment points at a course that no longer exists.
	repo.assignments[7] = []uint{1, 99}
	repo.completed[7] = map[uint]bool{10: true}

	rows, err := svc.ProgressMatrix(context.Background(), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected the vanished course row to be skipped, got %d rows", len(rows))
	}
	if rows[0].CourseID != 1 {
		t.Errorf("expected row for course 1, got %d", rows[0].CourseID)
	}
}

func TestProgressMatrix_IgnoresForeignCompletions(t *testing.T) {
	repo := newFakeRepository()
	svc := NewDashboardService(repo, nil, slog.Default())

	course := buildCourseWithLessons(1, 10, 11)
	course.PracticeID = 5
	repo.courses[1] = course
	repo.users[7] = &models.User{ID: 7, PracticeID: 5}
	repo.assignments[7] = []uint{1}

	// Completion records for lessons outside the assigned course.
	repo.completed[7] = map[uint]bool{10: true, 500: true, 501: true}

	rows, err := svc.ProgressMatrix(context.Background(), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rows[0].Completed != 1 {
		t.Errorf("expected 1 counted completion, got %d", rows[0].Completed)
	}
	if rows[0].Progress != 50 {
		t.Errorf("expected 50%%, got %d", rows[0].Progress)
	}
}

func TestPracticeStats_AverageFromMatrix(t *testing.T) {
	repo := newFakeRepository()
	svc := NewDashboardService(repo, nil, slog.Default())
	repo.stats = &models.PracticeStats{TotalUsers: 2, ActiveUsers: 2, PublishedCourses: 1}

	course := buildCourseWithLessons(1, 10, 11)
	course.PracticeID = 5
	repo.courses[1] = course
	repo.users[7] = &models.User{ID: 7, PracticeID: 5}
	repo.users[8] = &models.User{ID: 8, PracticeID: 5}
	repo.assignments[7] = []uint{1}
	repo.assignments[8] = []uint{1}
	repo.completed[7] = map[uint]bool{10: true, 11: true}

	stats, err := svc.PracticeStats(context.Background(), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.TotalUsers != 2 {
		t.Errorf("expected repo stats carried through, got %+v", stats)
	}
	// One user at 100, one at 0.
	if stats.AvgProgress != 50 {
		t.Errorf("expected average progress 50, got %v", stats.AvgProgress)
	}
}

func TestExportProgressReport_UnknownPractice(t *testing.T) {
	repo := newFakeRepository()
	svc := NewDashboardService(repo, nil, slog.Default())

	_, err := svc.ExportProgressReport(context.Background(), 404)
	if err == nil {
		t.Fatal("expected error for unknown practice")
	}
}
