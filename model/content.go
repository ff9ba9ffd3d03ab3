package model

import (
	"time"

	"gorm.io/datatypes"
)

// ContentKind is the discriminant of the item a Content wrapper points to
type ContentKind string

const (
	ContentKindText  ContentKind = "text"
	ContentKindVideo ContentKind = "video"
	ContentKindImage ContentKind = "image"
	ContentKindFile  ContentKind = "file"
)

// ContentKinds lists the closed set of item kinds
var ContentKinds = []ContentKind{
	ContentKindText,
	ContentKindVideo,
	ContentKindImage,
	ContentKindFile,
}

// ParseContentKind resolves a client supplied kind name. Names outside the
// closed set resolve to no kind.
func ParseContentKind(name string) (ContentKind, bool) {
	switch ContentKind(name) {
	case ContentKindText, ContentKindVideo, ContentKindImage, ContentKindFile:
		return ContentKind(name), true
	}
	return "", false
}

// Content links a module to exactly one item. ItemKind + ItemID form the
// tagged reference; Item is resolved by the content service.
type Content struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
	ModuleID  uint        `gorm:"not null;index" json:"module_id"`
	Order     int         `gorm:"column:sort_order;not null;default:0" json:"order"`
	ItemKind  ContentKind `gorm:"type:varchar(10);not null;index:idx_contents_item" json:"kind"`
	ItemID    uint        `gorm:"not null;index:idx_contents_item" json:"item_id"`

	// Relationships
	Module *Module `gorm:"foreignKey:ModuleID;constraint:OnDelete:CASCADE" json:"-"`
	Item   Item    `gorm:"-" json:"item,omitempty"`
}

// Item is the sum type over the concrete content item kinds. The unexported
// method seals it to this package.
type Item interface {
	Kind() ContentKind
	Base() *ItemBase
	GetID() uint
	GetOwnerID() uint
	SetOwnerID(id uint)
	// PayloadKeys lists storage keys owned by the item
	PayloadKeys() []string
	isItem()
}

// ItemBase holds the fields shared by every item kind
type ItemBase struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OwnerID   uint      `gorm:"not null;index" json:"owner_id"`
	Title     string    `gorm:"type:varchar(250);not null" json:"title"`
	CreatedAt time.Time `json:"created"`
	UpdatedAt time.Time `json:"updated"`
}

func (b *ItemBase) Base() *ItemBase { return b }
func (b *ItemBase) GetID() uint { return b.ID }
func (b *ItemBase) GetOwnerID() uint { return b.OwnerID }
func (b *ItemBase) SetOwnerID(id uint) { b.OwnerID = id }

// TextItem is a rich-text body
type TextItem struct {
	ItemBase
	Content string `gorm:"type:text;not null" json:"content"`
	Excerpt string `gorm:"type:varchar(300)" json:"excerpt"`
}

func (TextItem) TableName() string { return "text_items" }
func (*TextItem) Kind() ContentKind { return ContentKindText }
func (*TextItem) PayloadKeys() []string { return nil }
func (*TextItem) isItem() {}

// VideoItem points at an externally hosted video
type VideoItem struct {
	ItemBase
	URL      string            `gorm:"type:varchar(500);not null" json:"url"`
	Metadata datatypes.JSONMap `json:"metadata,omitempty"` // provider, video_id
}

func (VideoItem) TableName() string { return "video_items" }
func (*VideoItem) Kind() ContentKind { return ContentKindVideo }
func (*VideoItem) PayloadKeys() []string { return nil }
func (*VideoItem) isItem() {}

// ImageItem is an uploaded image plus a generated thumbnail
type ImageItem struct {
	ItemBase
	FileKey      string `gorm:"type:varchar(500);not null" json:"file_key"`
	FileURL      string `gorm:"type:text" json:"file_url"`
	ThumbnailKey string `gorm:"type:varchar(500)" json:"thumbnail_key,omitempty"`
	ThumbnailURL string `gorm:"type:text" json:"thumbnail_url,omitempty"`
	Width        int    `gorm:"default:0" json:"width"`
	Height       int    `gorm:"default:0" json:"height"`
}

func (ImageItem) TableName() string { return "image_items" }
func (*ImageItem) Kind() ContentKind { return ContentKindImage }
func (i *ImageItem) PayloadKeys() []string {
	return nonEmpty(i.FileKey, i.ThumbnailKey)
}
func (*ImageItem) isItem() {}

// FileItem is an arbitrary uploaded file
type FileItem struct {
	ItemBase
	FileKey     string `gorm:"type:varchar(500);not null" json:"file_key"`
	FileURL     string `gorm:"type:text" json:"file_url"`
	Filename    string `gorm:"type:varchar(255)" json:"filename"`
	FileSize    int64  `gorm:"default:0" json:"file_size"`
	ContentType string `gorm:"type:varchar(150)" json:"content_type"`
	PageCount   int    `gorm:"default:0" json:"page_count"` // PDFs only
}

func (FileItem) TableName() string { return "file_items" }
func (*FileItem) Kind() ContentKind { return ContentKindFile }
func (f *FileItem) PayloadKeys() []string {
	return nonEmpty(f.FileKey)
}
func (*FileItem) isItem() {}

// NewItem returns an empty item of the given kind
func NewItem(kind ContentKind) Item {
	switch kind {
	case ContentKindText:
		return &TextItem{}
	case ContentKindVideo:
		return &VideoItem{}
	case ContentKindImage:
		return &ImageItem{}
	case ContentKindFile:
		return &FileItem{}
	}
	return nil
}

func nonEmpty(keys ...string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if k != "" {
			out = append(out, k)
		}
	}
	return out
}
