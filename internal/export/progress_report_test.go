package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/smileworks/practice-portal/internal/models"
)

func TestProgressReport(t *testing.T) {
	rows := []*models.AssignmentProgress{
		{
			UserName:    "Ada Dental",
			UserEmail:   "ada@example.com",
			CourseTitle: "Infection control",
			Completed:   6,
			Total:       8,
			Progress:    75,
			AssignedAt:  time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		},
		{
			UserName:    "Bo Hygienist",
			UserEmail:   "bo@example.com",
			CourseTitle: "Radiation safety",
			Completed:   0,
			Total:       5,
			Progress:    0,
			AssignedAt:  time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		},
	}

	data, err := ProgressReport("Bright Smiles", rows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected a non-empty workbook")
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("workbook does not open: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 1 || sheets[0] != "Progress" {
		t.Fatalf("expected a single Progress sheet, got %v", sheets)
	}

	header, err := f.GetCellValue("Progress", "A3")
	if err != nil {
		t.Fatalf("failed to read header: %v", err)
	}
	if header != "Staff Member" {
		t.Errorf("expected header row at A3, got %q", header)
	}

	name, _ := f.GetCellValue("Progress", "A4")
	if name != "Ada Dental" {
		t.Errorf("expected first data row at A4, got %q", name)
	}
	progress, _ := f.GetCellValue("Progress", "F4")
	if progress != "75" {
		t.Errorf("expected progress 75 in F4, got %q", progress)
	}
	assigned, _ := f.GetCellValue("Progress", "G5")
	if assigned != "2026-03-02" {
		t.Errorf("expected assigned date in G5, got %q", assigned)
	}
}

func TestProgressReport_EmptyMatrix(t *testing.T) {
	data, err := ProgressReport("Bright Smiles", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("workbook does not open: %v", err)
	}
	defer f.Close()

	// Header row still present, no data rows.
	value, _ := f.GetCellValue("Progress", "A4")
	if value != "" {
		t.Errorf("expected no data rows, got %q", value)
	}
}
