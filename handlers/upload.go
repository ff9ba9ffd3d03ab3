package handlers

import (
	"fmt"
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/educa-api/services"
)

// MaxUploadSize caps any single multipart file read into memory
const MaxUploadSize = 100 << 20

// ReadUpload reads the multipart file under field. It returns nil when the
// request carries no such file.
func ReadUpload(c *fiber.Ctx, field string) (*services.Upload, error) {
	header, err := c.FormFile(field)
	if err != nil {
		// not multipart, or no file under field
		return nil, nil
	}
	if header.Size > MaxUploadSize {
		return nil, fmt.Errorf("%s exceeds %d MB", header.Filename, MaxUploadSize>>20)
	}

	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}

	return &services.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
