package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/smileworks/practice-portal/internal/models"
	"github.com/smileworks/practice-portal/internal/repositories"
	"github.com/smileworks/practice-portal/internal/validator"
)

type knowledgeService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewKnowledgeService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator) KnowledgeService {
	return &knowledgeService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
	}
}

func (s *knowledgeService) Create(ctx context.Context, practiceID uint, req *KnowledgeDocRequest, createdBy uint) (*models.KnowledgeDoc, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, NewValidationError(errs[0].Field, errs[0].Message, errs[0].Value)
	}

	if _, err := s.repo.Practice().GetByID(ctx, nil, practiceID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrPracticeNotFound
		}
		return nil, fmt.Errorf("failed to verify practice: %w", err)
	}

	doc := &models.KnowledgeDoc{
		PracticeID: practiceID,
		Title:      req.Title,
		Content:    req.Content,
		Tags:       models.NewRoleSet(req.Tags...),
		CreatedBy:  &createdBy,
	}
	if err := s.repo.Knowledge().Create(ctx, nil, doc); err != nil {
		return nil, fmt.Errorf("failed to create knowledge doc: %w", err)
	}

	s.logger.Info("knowledge doc created", "doc_id", doc.ID, "practice_id", practiceID)
	return doc, nil
}

func (s *knowledgeService) GetByID(ctx context.Context, id uint) (*models.KnowledgeDoc, error) {
	doc, err := s.repo.Knowledge().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrDocNotFound
		}
		return nil, fmt.Errorf("failed to get knowledge doc: %w", err)
	}
	return doc, nil
}

func (s *knowledgeService) Update(ctx context.Context, id uint, req *KnowledgeDocRequest) (*models.KnowledgeDoc, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, NewValidationError(errs[0].Field, errs[0].Message, errs[0].Value)
	}

	doc, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	doc.Title = req.Title
	doc.Content = req.Content
	doc.Tags = models.NewRoleSet(req.Tags...)

	if err := s.repo.Knowledge().Update(ctx, nil, doc); err != nil {
		return nil, fmt.Errorf("failed to update knowledge doc: %w", err)
	}
	return doc, nil
}

func (s *knowledgeService) Delete(ctx context.Context, id uint) error {
	if err := s.repo.Knowledge().Delete(ctx, nil, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrDocNotFound
		}
		return fmt.Errorf("failed to delete knowledge doc: %w", err)
	}
	s.logger.Info("knowledge doc deleted", "doc_id", id)
	return nil
}

func (s *knowledgeService) List(ctx context.Context, practiceID uint, filters repositories.DocFilters) (*KnowledgeDocListResponse, error) {
	tagged := filters.Tag != nil && *filters.Tag != ""
	limit, offset := filters.Limit, filters.Offset
	if tagged {
		// The SQL tag filter is only a substring prefilter over the encoded
		// column, so fetch the full candidate set and paginate after the
		// exact match below.
		filters.Limit = 0
		filters.Offset = 0
	}

	docs, total, err := s.repo.Knowledge().List(ctx, nil, practiceID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list knowledge docs: %w", err)
	}

	// The authoritative exact-tag match happens on the decoded set.
	if tagged {
		matched := docs[:0]
		for _, doc := range docs {
			if doc.Tags.Contains(*filters.Tag) {
				matched = append(matched, doc)
			}
		}
		total = int64(len(matched))
		docs = pageWindow(matched, offset, limit)
	}

	return &KnowledgeDocListResponse{Docs: docs, Total: total}, nil
}
