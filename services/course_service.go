package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/sahilchouksey/educa-api/model"
	"github.com/sahilchouksey/educa-api/utils/validation"
	"gorm.io/gorm"
)

// CourseService manages the courses and modules of their owner
type CourseService struct {
	db        *gorm.DB
	gate      *OwnershipGate
	catalog   *CatalogService
	validator *validation.Validator
}

// NewCourseService creates a new course service. catalog may be nil.
func NewCourseService(db *gorm.DB, catalog *CatalogService) *CourseService {
	return &CourseService{
		db:        db,
		gate:      NewOwnershipGate(db),
		catalog:   catalog,
		validator: validation.NewValidator(),
	}
}

// CourseInput is the editable part of a course
type CourseInput struct {
	SubjectID uint   `json:"subject_id" form:"subject_id" validate:"required"`
	Title     string `json:"title" form:"title" validate:"required,max=200"`
	Slug      string `json:"slug" form:"slug" validate:"omitempty,max=200"`
	Overview  string `json:"overview" form:"overview"`
}

func (in *CourseInput) values() map[string]interface{} {
	return map[string]interface{}{
		"subject_id": in.SubjectID,
		"title":      in.Title,
		"slug":       in.Slug,
		"overview":   in.Overview,
	}
}

// ModuleRow is one row of the module formset. Rows without an id are new;
// rows with Delete set are removed.
type ModuleRow struct {
	ID          uint   `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Delete      bool   `json:"delete"`
}

// ListOwned returns the courses of ownerID, newest first
func (s *CourseService) ListOwned(ctx context.Context, ownerID uint) ([]model.Course, error) {
	var courses []model.Course
	err := s.db.WithContext(ctx).
		Preload("Subject").
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&courses).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch courses: %w", err)
	}
	return courses, nil
}

// Get returns a course owned by ownerID
func (s *CourseService) Get(ctx context.Context, ownerID, courseID uint) (*model.Course, error) {
	course, err := s.gate.OwnedCourse(ctx, ownerID, courseID)
	if err != nil {
		return nil, err
	}
	course.Subject = &model.Subject{}
	if err := s.db.WithContext(ctx).First(course.Subject, course.SubjectID).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch subject: %w", err)
	}
	return course, nil
}

// Create stores a course owned by owner. Only instructors and admins may
// author courses.
func (s *CourseService) Create(ctx context.Context, owner *model.User, input CourseInput) (*model.Course, error) {
	if !owner.CanAuthor() {
		return nil, ErrPermissionDenied
	}

	if err := s.validateCourse(ctx, &input, 0); err != nil {
		return nil, err
	}

	course := &model.Course{
		OwnerID:   owner.ID,
		SubjectID: input.SubjectID,
		Title:     input.Title,
		Slug:      input.Slug,
		Overview:  input.Overview,
	}
	if err := s.db.WithContext(ctx).Create(course).Error; err != nil {
		return nil, fmt.Errorf("failed to create course: %w", err)
	}

	s.invalidateCatalog(ctx)
	return course, nil
}

// Update edits a course owned by ownerID
func (s *CourseService) Update(ctx context.Context, ownerID, courseID uint, input CourseInput) (*model.Course, error) {
	course, err := s.gate.OwnedCourse(ctx, ownerID, courseID)
	if err != nil {
		return nil, err
	}

	if err := s.validateCourse(ctx, &input, course.ID); err != nil {
		return nil, err
	}

	course.SubjectID = input.SubjectID
	course.Title = input.Title
	course.Slug = input.Slug
	course.Overview = input.Overview
	if err := s.db.WithContext(ctx).Save(course).Error; err != nil {
		return nil, fmt.Errorf("failed to update course: %w", err)
	}

	s.invalidateCatalog(ctx)
	return course, nil
}

// Delete soft deletes a course owned by ownerID
func (s *CourseService) Delete(ctx context.Context, ownerID, courseID uint) error {
	course, err := s.gate.OwnedCourse(ctx, ownerID, courseID)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(course).Error; err != nil {
		return fmt.Errorf("failed to delete course: %w", err)
	}

	s.invalidateCatalog(ctx)
	return nil
}

// Modules returns an owned course with its modules in order
func (s *CourseService) Modules(ctx context.Context, ownerID, courseID uint) (*model.Course, error) {
	course, err := s.gate.OwnedCourse(ctx, ownerID, courseID)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).
		Where("course_id = ?", course.ID).
		Order("sort_order ASC, id ASC").
		Find(&course.Modules).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch modules: %w", err)
	}
	return course, nil
}

// SaveModules applies the module formset of an owned course in one
// transaction. New modules are appended after the current last one.
func (s *CourseService) SaveModules(ctx context.Context, ownerID, courseID uint, rows []ModuleRow) (*model.Course, error) {
	course, err := s.gate.OwnedCourse(ctx, ownerID, courseID)
	if err != nil {
		return nil, err
	}

	if fe := s.validateModules(rows); fe != nil {
		return nil, fe
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, row := range rows {
			if row.ID == 0 {
				if row.Delete {
					continue
				}
				order, err := nextOrder(tx, &model.Module{}, "course_id", course.ID)
				if err != nil {
					return err
				}
				module := model.Module{
					CourseID:    course.ID,
					Title:       validation.SanitizeString(row.Title),
					Description: row.Description,
					Order:       order,
				}
				if err := tx.Create(&module).Error; err != nil {
					return fmt.Errorf("failed to create module: %w", err)
				}
				continue
			}

			var module model.Module
			if err := tx.Where("id = ? AND course_id = ?", row.ID, course.ID).First(&module).Error; err != nil {
				if err == gorm.ErrRecordNotFound {
					fe := NewFormError(nil)
					fe.Add(fmt.Sprintf("modules[%d].id", i), "Select a valid choice. That choice is not one of the available choices.")
					return fe
				}
				return fmt.Errorf("failed to fetch module: %w", err)
			}

			if row.Delete {
				if err := tx.Where("module_id = ?", module.ID).Delete(&model.Content{}).Error; err != nil {
					return fmt.Errorf("failed to delete module contents: %w", err)
				}
				if err := tx.Delete(&module).Error; err != nil {
					return fmt.Errorf("failed to delete module: %w", err)
				}
				continue
			}

			module.Title = validation.SanitizeString(row.Title)
			module.Description = row.Description
			if err := tx.Save(&module).Error; err != nil {
				return fmt.Errorf("failed to update module: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateCatalog(ctx)
	return s.Modules(ctx, ownerID, courseID)
}

func (s *CourseService) validateCourse(ctx context.Context, input *CourseInput, courseID uint) error {
	input.Title = validation.SanitizeString(input.Title)
	input.Slug = strings.ToLower(validation.SanitizeString(input.Slug))
	if input.Slug == "" {
		input.Slug = Slugify(input.Title)
	}

	fe := NewFormError(input.values())
	if err := s.validator.ValidateStruct(input); err != nil {
		for field, msg := range validation.FormatValidationErrors(err) {
			fe.Add(field, msg)
		}
	}
	if input.Slug != "" && !slugPattern.MatchString(input.Slug) {
		fe.Add("slug", "Enter a valid slug consisting of letters, numbers, underscores or hyphens.")
	}
	if fe.HasErrors() {
		return fe
	}

	db := s.db.WithContext(ctx)

	var subjects int64
	if err := db.Model(&model.Subject{}).Where("id = ?", input.SubjectID).Count(&subjects).Error; err != nil {
		return fmt.Errorf("failed to verify subject: %w", err)
	}
	if subjects == 0 {
		fe.Add("subject_id", "Select a valid choice. That choice is not one of the available choices.")
	}

	var taken int64
	err := db.Unscoped().Model(&model.Course{}).
		Where("slug = ? AND id <> ?", input.Slug, courseID).
		Count(&taken).Error
	if err != nil {
		return fmt.Errorf("failed to verify slug: %w", err)
	}
	if taken > 0 {
		fe.Add("slug", "Course with this Slug already exists.")
	}

	if fe.HasErrors() {
		return fe
	}
	return nil
}

func (s *CourseService) validateModules(rows []ModuleRow) *FormError {
	fe := NewFormError(nil)
	for i, row := range rows {
		if row.Delete {
			continue
		}
		title := strings.TrimSpace(row.Title)
		if err := s.validator.ValidateVar(title, "required,max=200"); err != nil {
			fe.Add(fmt.Sprintf("modules[%d].title", i), validation.FirstMessage("title", err))
		}
	}
	if fe.HasErrors() {
		fe.Values = map[string]interface{}{"modules": rows}
		return fe
	}
	return nil
}

func (s *CourseService) invalidateCatalog(ctx context.Context) {
	if s.catalog != nil {
		s.catalog.Invalidate(ctx)
	}
}

var (
	slugPattern  = regexp.MustCompile(`^[a-z0-9_-]+$`)
	nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)
)

// Slugify lowercases s and joins its alphanumeric runs with hyphens
func Slugify(s string) string {
	return strings.Trim(nonSlugChars.ReplaceAllString(strings.ToLower(s), "-"), "-")
}
