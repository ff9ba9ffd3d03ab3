package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/sahilchouksey/educa-api/model"
	"gorm.io/gorm"
)

// EnrollmentService joins students to courses and serves their course views
type EnrollmentService struct {
	db    *gorm.DB
	email *EmailService
}

// NewEnrollmentService creates a new enrollment service. email may be nil.
func NewEnrollmentService(db *gorm.DB, email *EmailService) *EnrollmentService {
	return &EnrollmentService{
		db:    db,
		email: email,
	}
}

// StudentCourseView is a course as seen by an enrolled student, with one
// module opened
type StudentCourseView struct {
	Course *model.Course `json:"course"`
	Module *model.Module `json:"module,omitempty"`
}

// Enroll adds user to a course and sends a confirmation mail
func (s *EnrollmentService) Enroll(ctx context.Context, user *model.User, courseID uint) (*model.Enrollment, error) {
	db := s.db.WithContext(ctx)

	var course model.Course
	if err := db.First(&course, courseID).Error; err != nil {
		return nil, notFoundOr(err, "failed to fetch course")
	}

	var existing int64
	if err := db.Model(&model.Enrollment{}).
		Where("user_id = ? AND course_id = ?", user.ID, course.ID).
		Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("failed to check enrollment: %w", err)
	}
	if existing > 0 {
		return nil, ErrAlreadyEnrolled
	}

	enrollment := &model.Enrollment{
		UserID:   user.ID,
		CourseID: course.ID,
	}
	if err := db.Create(enrollment).Error; err != nil {
		return nil, fmt.Errorf("failed to enroll: %w", err)
	}
	enrollment.Course = &course

	if s.email != nil {
		recipient := *user
		go func() {
			mailCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := s.email.SendEnrollmentConfirmation(mailCtx, &recipient, &course); err != nil {
				log.Printf("Warning: failed to send enrollment mail to %s: %v", recipient.Email, err)
			}
		}()
	}

	return enrollment, nil
}

// ListCourses returns the courses userID is enrolled in, most recent first
func (s *EnrollmentService) ListCourses(ctx context.Context, userID uint) ([]model.Course, error) {
	var courses []model.Course
	err := s.db.WithContext(ctx).
		Preload("Subject").
		Joins("JOIN enrollments ON enrollments.course_id = courses.id").
		Where("enrollments.user_id = ?", userID).
		Order("enrollments.enrolled_at DESC, courses.id DESC").
		Find(&courses).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch enrolled courses: %w", err)
	}
	return courses, nil
}

// CourseView returns an enrolled course with its modules and the contents
// of one module: moduleID, or the first module when moduleID is 0
func (s *EnrollmentService) CourseView(ctx context.Context, userID, courseID, moduleID uint) (*StudentCourseView, error) {
	db := s.db.WithContext(ctx)

	var course model.Course
	err := db.
		Preload("Subject").
		Preload("Modules", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, id ASC")
		}).
		Joins("JOIN enrollments ON enrollments.course_id = courses.id AND enrollments.user_id = ?", userID).
		Where("courses.id = ?", courseID).
		First(&course).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotEnrolled
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch course: %w", err)
	}

	view := &StudentCourseView{Course: &course}

	var module *model.Module
	for i := range course.Modules {
		if moduleID == 0 || course.Modules[i].ID == moduleID {
			module = &model.Module{}
			*module = course.Modules[i]
			break
		}
	}
	if module == nil {
		if moduleID != 0 {
			return nil, ErrNotFound
		}
		return view, nil
	}

	contents, err := loadModuleContents(ctx, s.db, module.ID)
	if err != nil {
		return nil, err
	}
	module.Contents = contents
	view.Module = module
	return view, nil
}

// IsEnrolled reports whether userID joined courseID
func (s *EnrollmentService) IsEnrolled(ctx context.Context, userID, courseID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Enrollment{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check enrollment: %w", err)
	}
	return count > 0, nil
}
