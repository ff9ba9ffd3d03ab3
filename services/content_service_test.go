package services

import (
	"context"
	"testing"

	"github.com/sahilchouksey/educa-api/model"
	"github.com/sahilchouksey/educa-api/utils/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type contentFixture struct {
	db      *gorm.DB
	store   *testutil.MemoryStorage
	svc     *ContentService
	owner   *model.User
	other   *model.User
	module  *model.Module
	foreign *model.Module
}

func newContentFixture(t *testing.T) *contentFixture {
	t.Helper()
	db := testutil.NewTestDB(t)
	store := testutil.NewMemoryStorage()
	owner := testutil.CreateUser(t, db, "owner@example.com", model.RoleInstructor)
	other := testutil.CreateUser(t, db, "other@example.com", model.RoleInstructor)
	subject := testutil.CreateSubject(t, db, "Programming", "programming")

	return &contentFixture{
		db:      db,
		store:   store,
		svc:     NewContentService(db, store),
		owner:   owner,
		other:   other,
		module:  testutil.CreateModule(t, db, testutil.CreateCourse(t, db, owner, subject, "go-basics"), "Syntax", 0),
		foreign: testutil.CreateModule(t, db, testutil.CreateCourse(t, db, other, subject, "rust-basics"), "Ownership", 0),
	}
}

func (f *contentFixture) count(t *testing.T, value interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(value).Count(&n).Error)
	return n
}

func TestCreateTextAppendsOneWrapper(t *testing.T) {
	f := newContentFixture(t)
	ctx := context.Background()

	first, err := f.svc.Create(ctx, f.owner.ID, f.module.ID, "text", &ContentForm{
		Title:   "Variables",
		Content: "<p>Declare with <b>var</b></p><script>alert(1)</script>",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, first.Order)
	assert.Equal(t, model.ContentKindText, first.ItemKind)

	text, ok := first.Item.(*model.TextItem)
	require.True(t, ok)
	assert.Equal(t, f.owner.ID, text.OwnerID)
	assert.Equal(t, "Declare with var", text.Excerpt)

	second, err := f.svc.Create(ctx, f.owner.ID, f.module.ID, "text", &ContentForm{Title: "Loops", Content: "for"})
	require.NoError(t, err)
	assert.Equal(t, 1, second.Order)
	assert.Equal(t, int64(2), f.count(t, &model.Content{}))
}

func TestCreateUnknownKind(t *testing.T) {
	f := newContentFixture(t)

	_, err := f.svc.Create(context.Background(), f.owner.ID, f.module.ID, "audio", &ContentForm{Title: "Song"})
	assert.ErrorIs(t, err, ErrUnknownKind)
	assert.Zero(t, f.count(t, &model.Content{}))

	_, err = f.svc.Form(context.Background(), f.owner.ID, f.module.ID, "audio", 0)
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestCreateInvalidFormPersistsNothing(t *testing.T) {
	f := newContentFixture(t)

	_, err := f.svc.Create(context.Background(), f.owner.ID, f.module.ID, "video", &ContentForm{URL: "not a url"})
	formErr, ok := AsFormError(err)
	require.True(t, ok)
	assert.Contains(t, formErr.Fields, "title")
	assert.Contains(t, formErr.Fields, "url")
	assert.Equal(t, "not a url", formErr.Values["url"])

	assert.Zero(t, f.count(t, &model.Content{}))
	assert.Zero(t, f.count(t, &model.VideoItem{}))
}

func TestCreateInForeignModule(t *testing.T) {
	f := newContentFixture(t)

	_, err := f.svc.Create(context.Background(), f.owner.ID, f.foreign.ID, "text", &ContentForm{Title: "x", Content: "y"})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, f.count(t, &model.TextItem{}))
}

func TestCreateVideoRecordsProvider(t *testing.T) {
	f := newContentFixture(t)

	content, err := f.svc.Create(context.Background(), f.owner.ID, f.module.ID, "video", &ContentForm{
		Title: "Tour",
		URL:   "https://www.youtube.com/watch?v=abc123",
	})
	require.NoError(t, err)

	var video model.VideoItem
	require.NoError(t, f.db.First(&video, content.ItemID).Error)
	assert.Equal(t, "youtube", video.Metadata["provider"])
	assert.Equal(t, "abc123", video.Metadata["video_id"])
}

func TestUpdateDoesNotCreateWrapper(t *testing.T) {
	f := newContentFixture(t)
	ctx := context.Background()

	content, err := f.svc.Create(ctx, f.owner.ID, f.module.ID, "text", &ContentForm{Title: "Old", Content: "body"})
	require.NoError(t, err)

	item, err := f.svc.Update(ctx, f.owner.ID, f.module.ID, "text", content.ItemID, &ContentForm{Title: "New", Content: "changed"})
	require.NoError(t, err)
	assert.Equal(t, "New", item.Base().Title)
	assert.Equal(t, int64(1), f.count(t, &model.Content{}))

	var text model.TextItem
	require.NoError(t, f.db.First(&text, content.ItemID).Error)
	assert.Equal(t, "changed", text.Content)
}

func TestUpdateForeignItemIsNotFound(t *testing.T) {
	f := newContentFixture(t)
	ctx := context.Background()

	content, err := f.svc.Create(ctx, f.owner.ID, f.module.ID, "text", &ContentForm{Title: "Mine", Content: "body"})
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, f.other.ID, f.foreign.ID, "text", content.ItemID, &ContentForm{Title: "Stolen", Content: "x"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.Update(ctx, f.owner.ID, f.module.ID, "audio", content.ItemID, &ContentForm{Title: "x"})
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestImageUploadAndReplace(t *testing.T) {
	f := newContentFixture(t)
	ctx := context.Background()

	content, err := f.svc.Create(ctx, f.owner.ID, f.module.ID, "image", &ContentForm{
		Title: "Diagram",
		File:  &Upload{Filename: "diagram.png", ContentType: "image/png", Data: testutil.PNG(t, 640, 480)},
	})
	require.NoError(t, err)

	img := content.Item.(*model.ImageItem)
	assert.Equal(t, 640, img.Width)
	assert.Equal(t, 480, img.Height)
	assert.True(t, f.store.Has(img.FileKey))
	assert.True(t, f.store.Has(img.ThumbnailKey))
	oldKeys := img.PayloadKeys()

	// title-only edit keeps the stored image
	item, err := f.svc.Update(ctx, f.owner.ID, f.module.ID, "image", img.ID, &ContentForm{Title: "Renamed"})
	require.NoError(t, err)
	assert.Equal(t, img.FileKey, item.(*model.ImageItem).FileKey)

	item, err = f.svc.Update(ctx, f.owner.ID, f.module.ID, "image", img.ID, &ContentForm{
		Title: "Renamed",
		File:  &Upload{Filename: "v2.png", Data: testutil.PNG(t, 100, 50)},
	})
	require.NoError(t, err)
	updated := item.(*model.ImageItem)
	assert.Equal(t, 100, updated.Width)
	for _, k := range oldKeys {
		assert.False(t, f.store.Has(k), k)
	}
	assert.Equal(t, 2, f.store.Len())
}

func TestImageRejectsNonImage(t *testing.T) {
	f := newContentFixture(t)

	_, err := f.svc.Create(context.Background(), f.owner.ID, f.module.ID, "image", &ContentForm{
		Title: "Broken",
		File:  &Upload{Filename: "x.png", Data: []byte("definitely not a png")},
	})
	formErr, ok := AsFormError(err)
	require.True(t, ok)
	assert.Contains(t, formErr.Fields, "file")
	assert.Zero(t, f.store.Len())
	assert.Zero(t, f.count(t, &model.ImageItem{}))
}

func TestFileRequiresUploadOnCreate(t *testing.T) {
	f := newContentFixture(t)

	_, err := f.svc.Create(context.Background(), f.owner.ID, f.module.ID, "file", &ContentForm{Title: "Notes"})
	formErr, ok := AsFormError(err)
	require.True(t, ok)
	assert.Contains(t, formErr.Fields, "file")

	content, err := f.svc.Create(context.Background(), f.owner.ID, f.module.ID, "file", &ContentForm{
		Title: "Notes",
		File:  &Upload{Filename: "notes.txt", Data: []byte("hello")},
	})
	require.NoError(t, err)
	file := content.Item.(*model.FileItem)
	assert.Equal(t, "notes.txt", file.Filename)
	assert.Equal(t, int64(5), file.FileSize)
	assert.True(t, f.store.Has(file.FileKey))
}

func TestDeleteRemovesPayloadBeforeRows(t *testing.T) {
	f := newContentFixture(t)
	ctx := context.Background()

	content, err := f.svc.Create(ctx, f.owner.ID, f.module.ID, "image", &ContentForm{
		Title: "Diagram",
		File:  &Upload{Filename: "diagram.png", Data: testutil.PNG(t, 32, 32)},
	})
	require.NoError(t, err)

	var rowsAtDelete []int64
	f.store.OnDelete = func(string) {
		rowsAtDelete = append(rowsAtDelete, f.count(t, &model.Content{}))
	}

	// a foreign principal cannot delete it
	assert.ErrorIs(t, f.svc.Delete(ctx, f.other.ID, content.ID), ErrNotFound)
	assert.Empty(t, rowsAtDelete)

	require.NoError(t, f.svc.Delete(ctx, f.owner.ID, content.ID))
	assert.Equal(t, []int64{1, 1}, rowsAtDelete)
	assert.Zero(t, f.count(t, &model.Content{}))
	assert.Zero(t, f.count(t, &model.ImageItem{}))
	assert.Zero(t, f.store.Len())
}

func TestFormListsEditableFields(t *testing.T) {
	f := newContentFixture(t)
	ctx := context.Background()

	view, err := f.svc.Form(ctx, f.owner.ID, f.module.ID, "video", 0)
	require.NoError(t, err)
	names := make([]string, len(view.Fields))
	for i, field := range view.Fields {
		names[i] = field.Name
	}
	assert.Equal(t, []string{"title", "url"}, names)
	assert.Nil(t, view.Item)

	content, err := f.svc.Create(ctx, f.owner.ID, f.module.ID, "text", &ContentForm{Title: "Intro", Content: "hi"})
	require.NoError(t, err)
	view, err = f.svc.Form(ctx, f.owner.ID, f.module.ID, "text", content.ItemID)
	require.NoError(t, err)
	require.NotNil(t, view.Item)
	assert.Equal(t, "Intro", view.Item.Base().Title)
}

func TestListModuleContentsResolvesItems(t *testing.T) {
	f := newContentFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.owner.ID, f.module.ID, "text", &ContentForm{Title: "One", Content: "1"})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, f.owner.ID, f.module.ID, "video", &ContentForm{Title: "Two", URL: "https://vimeo.com/42"})
	require.NoError(t, err)

	module, err := f.svc.ListModuleContents(ctx, f.owner.ID, f.module.ID)
	require.NoError(t, err)
	require.Len(t, module.Contents, 2)
	assert.Equal(t, "One", module.Contents[0].Item.Base().Title)
	assert.Equal(t, model.ContentKindVideo, module.Contents[1].Item.Kind())

	_, err = f.svc.ListModuleContents(ctx, f.other.ID, f.module.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
