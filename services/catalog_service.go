package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/sahilchouksey/educa-api/model"
	"gorm.io/gorm"
)

const subjectsCacheKey = "catalog:subjects"

// JSONCache is the subset of the Redis cache used by the catalog
type JSONCache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// CatalogService serves the public subject and course listings
type CatalogService struct {
	db    *gorm.DB
	cache JSONCache
	ttl   time.Duration
}

// NewCatalogService creates a new catalog service. cache may be nil.
func NewCatalogService(db *gorm.DB, cache JSONCache, ttl time.Duration) *CatalogService {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &CatalogService{
		db:    db,
		cache: cache,
		ttl:   ttl,
	}
}

// CourseListing is a page of the public course list, optionally narrowed to
// one subject
type CourseListing struct {
	Subject  *model.Subject                 `json:"subject,omitempty"`
	Subjects []model.SubjectWithCourseCount `json:"subjects"`
	Courses  []model.CourseWithModuleCount  `json:"courses"`
}

type countRow struct {
	ID    uint
	Total int64
}

// ListSubjects returns every subject with its number of courses, ordered by
// title
func (s *CatalogService) ListSubjects(ctx context.Context) ([]model.SubjectWithCourseCount, error) {
	if s.cache != nil {
		var cached []model.SubjectWithCourseCount
		if err := s.cache.GetJSON(ctx, subjectsCacheKey, &cached); err == nil {
			return cached, nil
		}
	}

	subjects, err := s.loadSubjects(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, subjectsCacheKey, subjects, s.ttl); err != nil {
			log.Printf("Warning: failed to cache subjects: %v", err)
		}
	}
	return subjects, nil
}

// Warm reloads the cached subject list
func (s *CatalogService) Warm(ctx context.Context) (int, error) {
	subjects, err := s.loadSubjects(ctx)
	if err != nil {
		return 0, err
	}
	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, subjectsCacheKey, subjects, s.ttl); err != nil {
			return 0, fmt.Errorf("failed to cache subjects: %w", err)
		}
	}
	return len(subjects), nil
}

// Invalidate drops the cached subject list
func (s *CatalogService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, subjectsCacheKey); err != nil {
		log.Printf("Warning: failed to invalidate catalog cache: %v", err)
	}
}

// ListCourses returns courses with their module totals, newest first. An
// empty subjectSlug lists every subject; an unknown one is ErrNotFound.
func (s *CatalogService) ListCourses(ctx context.Context, subjectSlug string) (*CourseListing, error) {
	subjects, err := s.ListSubjects(ctx)
	if err != nil {
		return nil, err
	}

	listing := &CourseListing{Subjects: subjects}
	query := s.db.WithContext(ctx).Preload("Subject").Preload("Owner").Order("created_at DESC")

	if subjectSlug != "" {
		var subject model.Subject
		if err := s.db.WithContext(ctx).Where("slug = ?", subjectSlug).First(&subject).Error; err != nil {
			return nil, notFoundOr(err, "failed to fetch subject")
		}
		listing.Subject = &subject
		query = query.Where("subject_id = ?", subject.ID)
	}

	var courses []model.Course
	if err := query.Find(&courses).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch courses: %w", err)
	}

	ids := make([]uint, len(courses))
	for i, course := range courses {
		ids[i] = course.ID
	}
	totals, err := s.countBy(ctx, &model.Module{}, "course_id", ids)
	if err != nil {
		return nil, err
	}

	listing.Courses = make([]model.CourseWithModuleCount, len(courses))
	for i, course := range courses {
		listing.Courses[i] = model.CourseWithModuleCount{
			Course:       course,
			TotalModules: totals[course.ID],
		}
	}
	return listing, nil
}

// CourseDetail returns a public course by slug with its modules in order
func (s *CatalogService) CourseDetail(ctx context.Context, slug string) (*model.Course, error) {
	var course model.Course
	err := s.db.WithContext(ctx).
		Preload("Subject").
		Preload("Owner").
		Preload("Modules", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, id ASC")
		}).
		Where("slug = ?", slug).
		First(&course).Error
	if err != nil {
		return nil, notFoundOr(err, "failed to fetch course")
	}
	return &course, nil
}

func (s *CatalogService) loadSubjects(ctx context.Context) ([]model.SubjectWithCourseCount, error) {
	var subjects []model.Subject
	if err := s.db.WithContext(ctx).Order("title ASC").Find(&subjects).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch subjects: %w", err)
	}

	ids := make([]uint, len(subjects))
	for i, subject := range subjects {
		ids[i] = subject.ID
	}
	totals, err := s.countBy(ctx, &model.Course{}, "subject_id", ids)
	if err != nil {
		return nil, err
	}

	result := make([]model.SubjectWithCourseCount, len(subjects))
	for i, subject := range subjects {
		result[i] = model.SubjectWithCourseCount{
			Subject:      subject,
			TotalCourses: totals[subject.ID],
		}
	}
	return result, nil
}

// countBy counts rows of value grouped by column, for the given parent ids
func (s *CatalogService) countBy(ctx context.Context, value interface{}, column string, ids []uint) (map[uint]int64, error) {
	totals := make(map[uint]int64, len(ids))
	if len(ids) == 0 {
		return totals, nil
	}

	var rows []countRow
	err := s.db.WithContext(ctx).
		Model(value).
		Select(column+" AS id, COUNT(*) AS total").
		Where(column+" IN ?", ids).
		Group(column).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count by %s: %w", column, err)
	}

	for _, row := range rows {
		totals[row.ID] = row.Total
	}
	return totals, nil
}
