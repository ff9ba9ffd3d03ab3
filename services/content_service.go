package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/sahilchouksey/educa-api/model"
	"github.com/sahilchouksey/educa-api/services/storage"
	"github.com/sahilchouksey/educa-api/utils/validation"
	"gorm.io/gorm"
)

// ContentService creates, edits and deletes the polymorphic items of a module
type ContentService struct {
	db        *gorm.DB
	gate      *OwnershipGate
	storage   storage.FileStorage
	binder    *payloadBinder
	validator *validation.Validator
}

// NewContentService creates a new content service
func NewContentService(db *gorm.DB, fileStorage storage.FileStorage) *ContentService {
	return &ContentService{
		db:      db,
		gate:    NewOwnershipGate(db),
		storage: fileStorage,
		binder: &payloadBinder{
			storage: fileStorage,
			media:   NewMediaProcessor(),
		},
		validator: validation.NewValidator(),
	}
}

// ContentFormView is the editable form of one item kind, bound to an
// existing item when editing
type ContentFormView struct {
	Kind   model.ContentKind `json:"kind"`
	Module *model.Module     `json:"module"`
	Fields []FormField       `json:"fields"`
	Item   model.Item        `json:"item,omitempty"`
}

// Form returns the create form (itemID 0) or the edit form of an item
func (s *ContentService) Form(ctx context.Context, ownerID, moduleID uint, kindName string, itemID uint) (*ContentFormView, error) {
	kind, spec, err := resolveKind(kindName)
	if err != nil {
		return nil, err
	}

	module, err := s.gate.OwnedModule(ctx, ownerID, moduleID)
	if err != nil {
		return nil, err
	}

	view := &ContentFormView{
		Kind:   kind,
		Module: module,
		Fields: spec.fields,
	}
	if itemID != 0 {
		item, err := s.gate.OwnedItem(ctx, ownerID, kind, itemID)
		if err != nil {
			return nil, err
		}
		view.Item = item
	}
	return view, nil
}

// Create stores a new item owned by ownerID and appends exactly one content
// wrapper for it to the end of the module
func (s *ContentService) Create(ctx context.Context, ownerID, moduleID uint, kindName string, form *ContentForm) (*model.Content, error) {
	kind, spec, err := resolveKind(kindName)
	if err != nil {
		return nil, err
	}

	module, err := s.gate.OwnedModule(ctx, ownerID, moduleID)
	if err != nil {
		return nil, err
	}

	if fe := s.validate(spec, form, nil); fe != nil {
		return nil, fe
	}

	item := model.NewItem(kind)
	StampOwner(item, ownerID)
	item.Base().Title = validation.SanitizeString(form.Title)

	stored, _, err := spec.bind(ctx, s.binder, item, form)
	if err != nil {
		s.discard(ctx, stored)
		return nil, err
	}

	content := &model.Content{
		ModuleID: module.ID,
		ItemKind: kind,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(item).Error; err != nil {
			return fmt.Errorf("failed to create %s item: %w", kind, err)
		}

		order, err := nextOrder(tx, &model.Content{}, "module_id", module.ID)
		if err != nil {
			return err
		}

		content.ItemID = item.GetID()
		content.Order = order
		if err := tx.Create(content).Error; err != nil {
			return fmt.Errorf("failed to create content: %w", err)
		}
		return nil
	})
	if err != nil {
		s.discard(ctx, stored)
		return nil, err
	}

	content.Item = item
	return content, nil
}

// Update edits an item owned by ownerID. No content wrapper is created.
func (s *ContentService) Update(ctx context.Context, ownerID, moduleID uint, kindName string, itemID uint, form *ContentForm) (model.Item, error) {
	kind, spec, err := resolveKind(kindName)
	if err != nil {
		return nil, err
	}

	if _, err := s.gate.OwnedModule(ctx, ownerID, moduleID); err != nil {
		return nil, err
	}

	item, err := s.gate.OwnedItem(ctx, ownerID, kind, itemID)
	if err != nil {
		return nil, err
	}

	if fe := s.validate(spec, form, item); fe != nil {
		return nil, fe
	}

	item.Base().Title = validation.SanitizeString(form.Title)
	stored, replaced, err := spec.bind(ctx, s.binder, item, form)
	if err != nil {
		s.discard(ctx, stored)
		return nil, err
	}

	if err := s.db.WithContext(ctx).Save(item).Error; err != nil {
		s.discard(ctx, stored)
		return nil, fmt.Errorf("failed to update %s item: %w", kind, err)
	}

	s.discard(ctx, replaced)
	return item, nil
}

// Delete removes a content wrapper owned by ownerID. The item's stored
// payload goes first, then the item row, then the wrapper row.
func (s *ContentService) Delete(ctx context.Context, ownerID, contentID uint) error {
	content, err := s.gate.OwnedContent(ctx, ownerID, contentID)
	if err != nil {
		return err
	}

	db := s.db.WithContext(ctx)

	item, err := s.loadItem(ctx, content.ItemKind, content.ItemID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	if item != nil {
		s.discard(ctx, item.PayloadKeys())
		if err := db.Delete(item).Error; err != nil {
			return fmt.Errorf("failed to delete %s item: %w", content.ItemKind, err)
		}
	}

	if err := db.Delete(content).Error; err != nil {
		return fmt.Errorf("failed to delete content: %w", err)
	}
	return nil
}

// ListModuleContents returns an owned module with its contents in order and
// their items resolved
func (s *ContentService) ListModuleContents(ctx context.Context, ownerID, moduleID uint) (*model.Module, error) {
	module, err := s.gate.OwnedModule(ctx, ownerID, moduleID)
	if err != nil {
		return nil, err
	}

	contents, err := loadModuleContents(ctx, s.db, module.ID)
	if err != nil {
		return nil, err
	}
	module.Contents = contents
	return module, nil
}

func (s *ContentService) validate(spec kindSpec, form *ContentForm, existing model.Item) *FormError {
	fe := NewFormError(form.Values())

	title := strings.TrimSpace(form.Title)
	if err := s.validator.ValidateVar(title, fmt.Sprintf("required,max=%d", titleMaxLength)); err != nil {
		fe.Add("title", validation.FirstMessage("title", err))
	}
	spec.validate(s.validator, form, existing, fe)

	if fe.HasErrors() {
		return fe
	}
	return nil
}

func (s *ContentService) loadItem(ctx context.Context, kind model.ContentKind, itemID uint) (model.Item, error) {
	item := model.NewItem(kind)
	if item == nil {
		return nil, ErrUnknownKind
	}
	if err := s.db.WithContext(ctx).First(item, itemID).Error; err != nil {
		return nil, notFoundOr(err, "failed to fetch item")
	}
	return item, nil
}

// discard deletes stored payloads, logging failures
func (s *ContentService) discard(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := s.storage.Delete(ctx, key); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
			log.Printf("Warning: failed to delete payload %s: %v", key, err)
		}
	}
}

// loadModuleContents fetches the contents of a module in order with items
func loadModuleContents(ctx context.Context, db *gorm.DB, moduleID uint) ([]model.Content, error) {
	var contents []model.Content
	err := db.WithContext(ctx).
		Where("module_id = ?", moduleID).
		Order("sort_order ASC, id ASC").
		Find(&contents).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch contents: %w", err)
	}

	if err := resolveItems(ctx, db, contents); err != nil {
		return nil, err
	}
	return contents, nil
}

// resolveItems fills Content.Item, one query per kind present
func resolveItems(ctx context.Context, db *gorm.DB, contents []model.Content) error {
	ids := make(map[model.ContentKind][]uint)
	for _, content := range contents {
		ids[content.ItemKind] = append(ids[content.ItemKind], content.ItemID)
	}

	loaded := make(map[model.ContentKind]map[uint]model.Item, len(ids))
	for kind, kindIDs := range ids {
		spec, ok := contentKinds[kind]
		if !ok {
			continue
		}
		items, err := spec.load(db.WithContext(ctx), kindIDs)
		if err != nil {
			return fmt.Errorf("failed to fetch %s items: %w", kind, err)
		}
		loaded[kind] = items
	}

	for i := range contents {
		if item, ok := loaded[contents[i].ItemKind][contents[i].ItemID]; ok {
			contents[i].Item = item
		}
	}
	return nil
}
