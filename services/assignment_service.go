package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"

	"github.com/sahilchouksey/educa-api/model"
	"github.com/sahilchouksey/educa-api/services/storage"
	"github.com/sahilchouksey/educa-api/utils/pdfvalidation"
	"github.com/sahilchouksey/educa-api/utils/validation"
	"gorm.io/gorm"
)

// AssignmentService keeps the standalone assignment upload records
type AssignmentService struct {
	db        *gorm.DB
	storage   storage.FileStorage
	validator *validation.Validator
}

// NewAssignmentService creates a new assignment service
func NewAssignmentService(db *gorm.DB, fileStorage storage.FileStorage) *AssignmentService {
	return &AssignmentService{
		db:        db,
		storage:   fileStorage,
		validator: validation.NewValidator(),
	}
}

// AssignmentInput is the submitted assignment form
type AssignmentInput struct {
	Title          string  `json:"title" form:"title" validate:"required,max=250"`
	AssignmentName string  `json:"assignment_name" form:"assignment_name" validate:"required,max=250"`
	Assignment     *Upload `json:"-" form:"-"`
}

func (in *AssignmentInput) values() map[string]interface{} {
	values := map[string]interface{}{
		"title":           in.Title,
		"assignment_name": in.AssignmentName,
	}
	if in.Assignment != nil {
		values["assignment"] = in.Assignment.Filename
	}
	return values
}

// List returns every assignment, newest first
func (s *AssignmentService) List(ctx context.Context) ([]model.Assignment, error) {
	var assignments []model.Assignment
	if err := s.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&assignments).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch assignments: %w", err)
	}
	return assignments, nil
}

// Get returns one assignment
func (s *AssignmentService) Get(ctx context.Context, id uint) (*model.Assignment, error) {
	var assignment model.Assignment
	if err := s.db.WithContext(ctx).First(&assignment, id).Error; err != nil {
		return nil, notFoundOr(err, "failed to fetch assignment")
	}
	return &assignment, nil
}

// Create stores the uploaded file under assignments/ and records it
func (s *AssignmentService) Create(ctx context.Context, input AssignmentInput) (*model.Assignment, error) {
	input.Title = validation.SanitizeString(input.Title)
	input.AssignmentName = validation.SanitizeString(input.AssignmentName)

	fe := NewFormError(input.values())
	if err := s.validator.ValidateStruct(&input); err != nil {
		for field, msg := range validation.FormatValidationErrors(err) {
			fe.Add(field, msg)
		}
	}
	upload := input.Assignment
	if upload == nil || len(upload.Data) == 0 {
		fe.Add("assignment", "assignment is required")
	}
	if fe.HasErrors() {
		return nil, fe
	}

	pageCount := 0
	if pdfvalidation.IsPDF(upload.Filename, upload.Data) {
		result, err := pdfvalidation.ValidatePDFBytes(upload.Data, pdfvalidation.AssignmentLimits)
		if err != nil {
			return nil, err
		}
		if !result.Valid {
			fe.Add("assignment", result.Error)
			return nil, fe
		}
		pageCount = result.PageCount
	}

	contentType := upload.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = storage.GetContentType(upload.Filename)
	}

	key := storage.GenerateKey("assignments", upload.Filename)
	fileURL, err := s.storage.Save(ctx, key, bytes.NewReader(upload.Data), contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to store assignment: %w", err)
	}

	assignment := &model.Assignment{
		Title:          input.Title,
		AssignmentName: input.AssignmentName,
		FileKey:        key,
		FileURL:        fileURL,
		Filename:       filepath.Base(upload.Filename),
		FileSize:       int64(len(upload.Data)),
		PageCount:      pageCount,
	}
	if err := s.db.WithContext(ctx).Create(assignment).Error; err != nil {
		if delErr := s.storage.Delete(ctx, key); delErr != nil {
			log.Printf("Warning: failed to delete orphaned assignment %s: %v", key, delErr)
		}
		return nil, fmt.Errorf("failed to create assignment: %w", err)
	}
	return assignment, nil
}

// Delete removes the stored file, then the record
func (s *AssignmentService) Delete(ctx context.Context, id uint) error {
	assignment, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.storage.Delete(ctx, assignment.FileKey); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
		log.Printf("Warning: failed to delete assignment file %s: %v", assignment.FileKey, err)
	}

	if err := s.db.WithContext(ctx).Delete(assignment).Error; err != nil {
		return fmt.Errorf("failed to delete assignment: %w", err)
	}
	return nil
}
