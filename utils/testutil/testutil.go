// Package testutil holds the sqlite database, storage fake and fixtures
// shared by package tests.
package testutil

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/sahilchouksey/educa-api/database"
	"github.com/sahilchouksey/educa-api/model"
	"github.com/sahilchouksey/educa-api/services/storage"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB opens a private in-memory sqlite database with every model
// migrated. It is closed when the test ends.
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// one connection keeps the shared in-memory database alive and serializes access
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.NewGORMStore(db).Init())
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// MemoryStorage is an in-memory storage.FileStorage that records calls
type MemoryStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	Deleted []string
	// OnDelete, when set, runs before each delete
	OnDelete func(key string)
	// FailSave makes every Save fail
	FailSave error
}

var _ storage.FileStorage = (*MemoryStorage)(nil)

// NewMemoryStorage creates an empty fake store
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{objects: make(map[string][]byte)}
}

func (m *MemoryStorage) Save(_ context.Context, key string, data io.Reader, _ string) (string, error) {
	if m.FailSave != nil {
		return "", m.FailSave
	}
	b, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	m.objects[key] = b
	m.mu.Unlock()
	return m.URL(key), nil
}

func (m *MemoryStorage) Delete(_ context.Context, key string) error {
	if m.OnDelete != nil {
		m.OnDelete(key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Deleted = append(m.Deleted, key)
	if _, ok := m.objects[key]; !ok {
		return storage.ErrObjectNotFound
	}
	delete(m.objects, key)
	return nil
}

func (m *MemoryStorage) URL(key string) string {
	return "/media/" + key
}

// Has reports whether key is currently stored
func (m *MemoryStorage) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok
}

// Len returns the number of stored objects
func (m *MemoryStorage) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

// CreateUser inserts a user with the given role. The password hash is not a
// real bcrypt hash.
func CreateUser(t testing.TB, db *gorm.DB, email, role string) *model.User {
	t.Helper()
	user := &model.User{
		Email:        email,
		PasswordHash: "x",
		Name:         email,
		Role:         role,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateSubject inserts a subject
func CreateSubject(t testing.TB, db *gorm.DB, title, slug string) *model.Subject {
	t.Helper()
	subject := &model.Subject{Title: title, Slug: slug}
	require.NoError(t, db.Create(subject).Error)
	return subject
}

// CreateCourse inserts a course owned by owner
func CreateCourse(t testing.TB, db *gorm.DB, owner *model.User, subject *model.Subject, slug string) *model.Course {
	t.Helper()
	course := &model.Course{
		OwnerID:   owner.ID,
		SubjectID: subject.ID,
		Title:     slug,
		Slug:      slug,
	}
	require.NoError(t, db.Create(course).Error)
	return course
}

// CreateModule inserts a module at the given order
func CreateModule(t testing.TB, db *gorm.DB, course *model.Course, title string, order int) *model.Module {
	t.Helper()
	module := &model.Module{CourseID: course.ID, Title: title, Order: order}
	require.NoError(t, db.Create(module).Error)
	return module
}

// CreateTextContent inserts a text item owned by ownerID and its wrapper
func CreateTextContent(t testing.TB, db *gorm.DB, ownerID uint, module *model.Module, title string, order int) *model.Content {
	t.Helper()
	item := &model.TextItem{Content: "<p>" + title + "</p>"}
	item.OwnerID = ownerID
	item.Title = title
	require.NoError(t, db.Create(item).Error)

	content := &model.Content{
		ModuleID: module.ID,
		Order:    order,
		ItemKind: model.ContentKindText,
		ItemID:   item.ID,
	}
	require.NoError(t, db.Create(content).Error)
	return content
}

// PNG returns an encoded w x h image
func PNG(t testing.TB, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
