package services

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sahilchouksey/educa-api/model"
	"github.com/sahilchouksey/educa-api/services/storage"
	"github.com/sahilchouksey/educa-api/utils/pdfvalidation"
	"github.com/sahilchouksey/educa-api/utils/validation"
	"gorm.io/gorm"
)

const (
	titleMaxLength   = 250
	excerptMaxLength = 300
)

// Upload is a file received from the client
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ContentForm is the submitted payload for any item kind. Fields the kind
// does not use are ignored.
type ContentForm struct {
	Title   string  `json:"title" form:"title"`
	Content string  `json:"content" form:"content"`
	URL     string  `json:"url" form:"url"`
	File    *Upload `json:"-" form:"-"`
}

// Values returns the submitted values for redisplay
func (f *ContentForm) Values() map[string]interface{} {
	values := map[string]interface{}{
		"title":   f.Title,
		"content": f.Content,
		"url":     f.URL,
	}
	if f.File != nil {
		values["file"] = f.File.Filename
	}
	return values
}

// FormField describes one editable field of an item kind
type FormField struct {
	Name      string `json:"name"`
	Type      string `json:"type"` // text, textarea, url, file
	Required  bool   `json:"required"`
	MaxLength int    `json:"max_length,omitempty"`
}

var titleField = FormField{Name: "title", Type: "text", Required: true, MaxLength: titleMaxLength}

// kindSpec is the static description of one item kind
type kindSpec struct {
	fields []FormField
	// validate checks kind specific fields; existing is nil when creating
	validate func(v *validation.Validator, form *ContentForm, existing model.Item, fe *FormError)
	// bind copies the form onto item. It returns the storage keys it wrote and
	// the keys of payloads it replaced.
	bind func(ctx context.Context, b *payloadBinder, item model.Item, form *ContentForm) (stored, replaced []string, err error)
	// load fetches items of this kind by id
	load func(db *gorm.DB, ids []uint) (map[uint]model.Item, error)
}

var contentKinds = map[model.ContentKind]kindSpec{
	model.ContentKindText: {
		fields: []FormField{
			titleField,
			{Name: "content", Type: "textarea", Required: true},
		},
		validate: func(v *validation.Validator, form *ContentForm, _ model.Item, fe *FormError) {
			if err := v.ValidateVar(strings.TrimSpace(form.Content), "required"); err != nil {
				fe.Add("content", validation.FirstMessage("content", err))
			}
		},
		bind: func(_ context.Context, _ *payloadBinder, item model.Item, form *ContentForm) ([]string, []string, error) {
			text := item.(*model.TextItem)
			text.Content = form.Content
			text.Excerpt = PlainTextExcerpt(form.Content, excerptMaxLength)
			return nil, nil, nil
		},
		load: fetchItems[model.TextItem],
	},
	model.ContentKindVideo: {
		fields: []FormField{
			titleField,
			{Name: "url", Type: "url", Required: true, MaxLength: 500},
		},
		validate: func(v *validation.Validator, form *ContentForm, _ model.Item, fe *FormError) {
			if err := v.ValidateVar(form.URL, "required,url,max=500"); err != nil {
				fe.Add("url", validation.FirstMessage("url", err))
			}
		},
		bind: func(_ context.Context, _ *payloadBinder, item model.Item, form *ContentForm) ([]string, []string, error) {
			video := item.(*model.VideoItem)
			video.URL = form.URL
			video.Metadata = VideoMetadata(form.URL)
			return nil, nil, nil
		},
		load: fetchItems[model.VideoItem],
	},
	model.ContentKindImage: {
		fields: []FormField{
			titleField,
			{Name: "file", Type: "file", Required: true},
		},
		validate: validateUpload,
		bind: func(ctx context.Context, b *payloadBinder, item model.Item, form *ContentForm) ([]string, []string, error) {
			return b.bindImage(ctx, item.(*model.ImageItem), form)
		},
		load: fetchItems[model.ImageItem],
	},
	model.ContentKindFile: {
		fields: []FormField{
			titleField,
			{Name: "file", Type: "file", Required: true},
		},
		validate: validateUpload,
		bind: func(ctx context.Context, b *payloadBinder, item model.Item, form *ContentForm) ([]string, []string, error) {
			return b.bindFile(ctx, item.(*model.FileItem), form)
		},
		load: fetchItems[model.FileItem],
	},
}

// resolveKind maps a client supplied kind name onto its table entry
func resolveKind(name string) (model.ContentKind, kindSpec, error) {
	kind, ok := model.ParseContentKind(name)
	if !ok {
		return "", kindSpec{}, ErrUnknownKind
	}
	spec, ok := contentKinds[kind]
	if !ok {
		return "", kindSpec{}, ErrUnknownKind
	}
	return kind, spec, nil
}

// validateUpload requires a file on create; updates may keep the stored one
func validateUpload(_ *validation.Validator, form *ContentForm, existing model.Item, fe *FormError) {
	if form.File == nil || len(form.File.Data) == 0 {
		if existing == nil {
			fe.Add("file", "file is required")
		}
		return
	}
	if form.File.Filename == "" {
		fe.Add("file", "file name is required")
	}
}

func fetchItems[T any, PT interface {
	*T
	model.Item
}](db *gorm.DB, ids []uint) (map[uint]model.Item, error) {
	var rows []T
	if err := db.Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}

	items := make(map[uint]model.Item, len(rows))
	for i := range rows {
		item := PT(&rows[i])
		items[item.GetID()] = item
	}
	return items, nil
}

// payloadBinder turns uploads into stored payloads
type payloadBinder struct {
	storage storage.FileStorage
	media   *MediaProcessor
}

func (b *payloadBinder) save(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	url, err := b.storage.Save(ctx, key, bytes.NewReader(data), contentType)
	if err != nil {
		return "", fmt.Errorf("failed to store %s: %w", key, err)
	}
	return url, nil
}

func (b *payloadBinder) bindImage(ctx context.Context, img *model.ImageItem, form *ContentForm) ([]string, []string, error) {
	if form.File == nil || len(form.File.Data) == 0 {
		return nil, nil, nil
	}

	processed, err := b.media.Process(form.File.Data)
	if err != nil {
		fe := NewFormError(form.Values())
		fe.Add("file", "Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
		return nil, nil, fe
	}

	contentType := form.File.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = storage.GetContentType(form.File.Filename)
	}

	var stored []string
	key := storage.GenerateKey("images", form.File.Filename)
	fileURL, err := b.save(ctx, key, form.File.Data, contentType)
	if err != nil {
		return stored, nil, err
	}
	stored = append(stored, key)

	base := strings.TrimSuffix(filepath.Base(form.File.Filename), filepath.Ext(form.File.Filename))
	thumbKey := storage.GenerateKey("images/thumbs", base+".jpg")
	thumbURL, err := b.save(ctx, thumbKey, processed.Thumbnail, "image/jpeg")
	if err != nil {
		return stored, nil, err
	}
	stored = append(stored, thumbKey)

	replaced := img.PayloadKeys()
	img.FileKey = key
	img.FileURL = fileURL
	img.ThumbnailKey = thumbKey
	img.ThumbnailURL = thumbURL
	img.Width = processed.Width
	img.Height = processed.Height
	return stored, replaced, nil
}

func (b *payloadBinder) bindFile(ctx context.Context, file *model.FileItem, form *ContentForm) ([]string, []string, error) {
	if form.File == nil || len(form.File.Data) == 0 {
		return nil, nil, nil
	}

	upload := form.File
	contentType := upload.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = storage.GetContentType(upload.Filename)
	}

	pageCount := 0
	if pdfvalidation.IsPDF(upload.Filename, upload.Data) {
		result, err := pdfvalidation.ValidatePDFBytes(upload.Data, pdfvalidation.FileItemLimits)
		if err != nil {
			return nil, nil, err
		}
		if !result.Valid {
			fe := NewFormError(form.Values())
			fe.Add("file", result.Error)
			return nil, nil, fe
		}
		pageCount = result.PageCount
		contentType = "application/pdf"
	}

	key := storage.GenerateKey("files", upload.Filename)
	fileURL, err := b.save(ctx, key, upload.Data, contentType)
	if err != nil {
		return nil, nil, err
	}

	replaced := file.PayloadKeys()
	file.FileKey = key
	file.FileURL = fileURL
	file.Filename = filepath.Base(upload.Filename)
	file.FileSize = int64(len(upload.Data))
	file.ContentType = contentType
	file.PageCount = pageCount
	return []string{key}, replaced, nil
}
