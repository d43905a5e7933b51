package services

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/smileworks/practice-portal/internal/models"
	"github.com/smileworks/practice-portal/internal/repositories"
	"github.com/smileworks/practice-portal/internal/validator"
)

func TestKnowledgeList_TagFilterIsExact(t *testing.T) {
	repo := newFakeRepository()
	svc := NewKnowledgeService(repo, nil, slog.Default(), validator.New())
	ctx := context.Background()

	repo.docs[1] = &models.KnowledgeDoc{ID: 1, PracticeID: 5, Title: "Autoclave SOP", Tags: models.NewRoleSet("sterilization")}
	repo.docs[2] = &models.KnowledgeDoc{ID: 2, PracticeID: 5, Title: "Front desk scripts", Tags: models.NewRoleSet("front_desk")}
	repo.docs[3] = &models.KnowledgeDoc{ID: 3, PracticeID: 5, Title: "Steri room map", Tags: models.NewRoleSet("sterilization_room")}

	tag := "sterilization"
	resp, err := svc.List(ctx, 5, repositories.DocFilters{Tag: &tag, Limit: 20})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Total != 1 || len(resp.Docs) != 1 {
		t.Fatalf("expected exactly one match, got %d", len(resp.Docs))
	}
	if resp.Docs[0].ID != 1 {
		t.Errorf("expected doc 1, got %d", resp.Docs[0].ID)
	}

	// No tag filter returns everything in the practice.
	resp, err = svc.List(ctx, 5, repositories.DocFilters{Limit: 20})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Total != 3 {
		t.Errorf("expected 3 docs, got %d", resp.Total)
	}
}

func TestKnowledgeList_TagMatchBeforePagination(t *testing.T) {
	repo := newFakeRepository()
	svc := NewKnowledgeService(repo, nil, slog.Default(), validator.New())
	ctx := context.Background()

	// Doc 1 only substring-matches the filter; it must not consume the page
	// slot of the exact match that sorts after it.
	repo.docs[1] = &models.KnowledgeDoc{ID: 1, PracticeID: 5, Title: "Lead duties", Tags: models.NewRoleSet("hygiene_lead")}
	repo.docs[2] = &models.KnowledgeDoc{ID: 2, PracticeID: 5, Title: "Scaling guide", Tags: models.NewRoleSet("hygiene")}

	tag := "hygiene"
	resp, err := svc.List(ctx, 5, repositories.DocFilters{Tag: &tag, Limit: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Total != 1 {
		t.Errorf("expected total 1, got %d", resp.Total)
	}
	if len(resp.Docs) != 1 || resp.Docs[0].ID != 2 {
		t.Fatalf("expected doc 2 on the page, got %+v", resp.Docs)
	}
}

func TestKnowledgeCRUD(t *testing.T) {
	repo := newFakeRepository()
	svc := NewKnowledgeService(repo, nil, slog.Default(), validator.New())
	ctx := context.Background()

	repo.practices[5] = &models.Practice{ID: 5, Name: "Bright Smiles"}

	doc, err := svc.Create(ctx, 5, &KnowledgeDocRequest{
		Title:   "Radiation safety",
		Content: "Lead aprons are mandatory for all x-ray exposures.",
		Tags:    []string{"xray", "safety"},
	}, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.ID == 0 {
		t.Fatal("expected a stored doc id")
	}
	if !doc.Tags.Contains("xray") || !doc.Tags.Contains("safety") {
		t.Errorf("expected tags stored, got %v", doc.Tags.Tags())
	}

	updated, err := svc.Update(ctx, doc.ID, &KnowledgeDocRequest{
		Title:   "Radiation safety v2",
		Content: doc.Content,
		Tags:    []string{"xray"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Title != "Radiation safety v2" {
		t.Errorf("expected updated title, got %s", updated.Title)
	}
	if updated.Tags.Contains("safety") {
		t.Error("expected dropped tag removed")
	}

	if err := svc.Delete(ctx, doc.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.Delete(ctx, doc.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected not-found on double delete, got %v", err)
	}

	if _, err := svc.Create(ctx, 5, &KnowledgeDocRequest{Title: "", Content: "x"}, 1); !errors.Is(err, ErrValidationFailed) {
		t.Errorf("expected validation error for empty title, got %v", err)
	}
}
