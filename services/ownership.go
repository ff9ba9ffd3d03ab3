package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sahilchouksey/educa-api/model"
	"gorm.io/gorm"
)

// OwnershipGate resolves owned resources by walking Content -> Module ->
// Course -> owner. A foreign resource is reported exactly like a missing one.
type OwnershipGate struct {
	db *gorm.DB
}

// NewOwnershipGate creates a new ownership gate
func NewOwnershipGate(db *gorm.DB) *OwnershipGate {
	return &OwnershipGate{db: db}
}

// OwnedCourse loads a course owned by ownerID
func (g *OwnershipGate) OwnedCourse(ctx context.Context, ownerID, courseID uint) (*model.Course, error) {
	var course model.Course
	err := g.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", courseID, ownerID).
		First(&course).Error
	if err != nil {
		return nil, notFoundOr(err, "failed to fetch course")
	}
	return &course, nil
}

// OwnedModule loads a module whose course is owned by ownerID
func (g *OwnershipGate) OwnedModule(ctx context.Context, ownerID, moduleID uint) (*model.Module, error) {
	var module model.Module
	err := g.db.WithContext(ctx).
		Joins("JOIN courses ON courses.id = modules.course_id AND courses.deleted_at IS NULL").
		Where("modules.id = ? AND courses.owner_id = ?", moduleID, ownerID).
		First(&module).Error
	if err != nil {
		return nil, notFoundOr(err, "failed to fetch module")
	}
	return &module, nil
}

// OwnedContent loads a content wrapper whose module's course is owned by ownerID
func (g *OwnershipGate) OwnedContent(ctx context.Context, ownerID, contentID uint) (*model.Content, error) {
	var content model.Content
	err := g.db.WithContext(ctx).
		Joins("JOIN modules ON modules.id = contents.module_id").
		Joins("JOIN courses ON courses.id = modules.course_id AND courses.deleted_at IS NULL").
		Where("contents.id = ? AND courses.owner_id = ?", contentID, ownerID).
		First(&content).Error
	if err != nil {
		return nil, notFoundOr(err, "failed to fetch content")
	}
	return &content, nil
}

// OwnedItem loads an item of the given kind owned by ownerID
func (g *OwnershipGate) OwnedItem(ctx context.Context, ownerID uint, kind model.ContentKind, itemID uint) (model.Item, error) {
	item := model.NewItem(kind)
	if item == nil {
		return nil, ErrUnknownKind
	}

	err := g.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", itemID, ownerID).
		First(item).Error
	if err != nil {
		return nil, notFoundOr(err, "failed to fetch item")
	}
	return item, nil
}

// ownedCourseIDs is a subquery over the ids of courses owned by ownerID
func (g *OwnershipGate) ownedCourseIDs(ownerID uint) *gorm.DB {
	return g.db.Model(&model.Course{}).Select("id").Where("owner_id = ?", ownerID)
}

// ownedModuleIDs is a subquery over the ids of modules owned by ownerID
func (g *OwnershipGate) ownedModuleIDs(ownerID uint) *gorm.DB {
	return g.db.Model(&model.Module{}).Select("id").Where("course_id IN (?)", g.ownedCourseIDs(ownerID))
}

// StampOwner records the acting principal as owner of a new item
func StampOwner(item model.Item, ownerID uint) {
	item.SetOwnerID(ownerID)
}

func notFoundOr(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", msg, err)
}
