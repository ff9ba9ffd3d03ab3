package pdfvalidation

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePDFBytesRejectsMissingHeader(t *testing.T) {
	result, err := ValidatePDFBytes([]byte("plain text"), AssignmentLimits)
	require.NoError(t, err)

	assert.False(t, result.Valid)
	assert.Equal(t, "Invalid PDF file: missing PDF header", result.Error)
	assert.Equal(t, int64(10), result.FileSize)
}

func TestValidatePDFBytesRejectsOversizedFiles(t *testing.T) {
	limits := PDFLimits{MaxFileSizeMB: 1, MaxPages: 10, DocumentTypeName: "test"}
	content := append([]byte("%PDF-1.4\n"), bytes.Repeat([]byte("a"), 1024*1024)...)

	result, err := ValidatePDFBytes(content, limits)
	require.NoError(t, err)

	assert.False(t, result.Valid)
	assert.Contains(t, result.Error, "exceeds maximum allowed size of 1MB")
}

func TestValidatePDFBytesRejectsCorruptBody(t *testing.T) {
	result, err := ValidatePDFBytes([]byte("%PDF-1.4\ngarbage"), FileItemLimits)
	require.NoError(t, err)

	assert.False(t, result.Valid)
	assert.Contains(t, result.Error, "Failed to read PDF")
}

func TestSanitizePDFDropsTrailingBytes(t *testing.T) {
	content := []byte("%PDF-1.4\nbody\n%%EOF\r\ntrailing junk")
	assert.Equal(t, []byte("%PDF-1.4\nbody\n%%EOF\r\n"), sanitizePDF(content))
}

func TestIsPDF(t *testing.T) {
	assert.True(t, IsPDF("notes.PDF", nil))
	assert.True(t, IsPDF("upload", []byte("%PDF-1.7")))
	assert.False(t, IsPDF("notes.txt", []byte("hello")))
}
