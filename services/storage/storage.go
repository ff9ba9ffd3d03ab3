package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sahilchouksey/educa-api/config"
)

// ErrObjectNotFound is returned when a key has no stored object
var ErrObjectNotFound = errors.New("object not found")

// FileStorage stores upload payloads (content files, images, assignments)
type FileStorage interface {
	// Save stores data under key and returns its public URL
	Save(ctx context.Context, key string, data io.Reader, contentType string) (string, error)
	// Delete removes the object stored under key
	Delete(ctx context.Context, key string) error
	// URL returns the public URL of key
	URL(key string) string
}

// New picks the backend configured by STORAGE_DRIVER. An s3 backend that
// cannot be configured falls back to local disk.
func New(env *config.EnviornmentVariable) (FileStorage, error) {
	if env.STORAGE_DRIVER == "s3" {
		s3Storage, err := NewS3Storage(S3Config{
			AccessKey: env.S3_ACCESS_KEY,
			SecretKey: env.S3_SECRET_KEY,
			Bucket:    env.S3_BUCKET,
			Region:    env.S3_REGION,
			Endpoint:  env.S3_ENDPOINT,
			CDNURL:    env.S3_CDN_URL,
		})
		if err == nil {
			return s3Storage, nil
		}
		log.Printf("Warning: S3 storage unavailable: %v. Falling back to local storage.", err)
	}

	return NewLocalStorage(env.MEDIA_ROOT, env.MEDIA_URL)
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9.\-_]+`)

// GenerateKey builds a unique object key under prefix, e.g.
// "images/20260102-<uuid>-photo.png"
func GenerateKey(prefix, filename string) string {
	base := filepath.Base(filename)
	safe := strings.Trim(unsafeChars.ReplaceAllString(base, "_"), "_")
	if safe == "" || safe == "." {
		safe = "upload"
	}
	return fmt.Sprintf("%s/%s-%s-%s", prefix, time.Now().Format("20060102"), uuid.New().String(), safe)
}

// GetContentType returns the content type for a filename
func GetContentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "application/pdf"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".doc":
		return "application/msword"
	case ".txt":
		return "text/plain"
	case ".md":
		return "text/markdown"
	case ".csv":
		return "text/csv"
	case ".pptx":
		return "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	case ".zip":
		return "application/zip"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	default:
		return "application/octet-stream"
	}
}
