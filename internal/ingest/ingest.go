// Package ingest turns uploaded documents into plain text.
package ingest

import (
	"fmt"
	"strings"

	"github.com/ckwokli/pws/internal/errs"
	"github.com/ckwokli/pws/internal/model"
)

// File is one uploaded document
type File struct {
	Name      string
	MediaType string
	Data      []byte
}

// Size returns the payload length in bytes
func (f File) Size() int64 {
	return int64(len(f.Data))
}

// Decoder extracts text from one kind of document
type Decoder interface {
	// Name returns the decoder name
	Name() string

	// CanHandle reports whether the decoder accepts the file
	CanHandle(f File) bool

	// Decode returns best-effort text. It does not fail; unreadable input
	// yields an empty string.
	Decode(f File) string
}

// Registry picks the first decoder that accepts a file
type Registry struct {
	decoders []Decoder
}

// NewRegistry returns the PDF, DOCX and plain text decoders in that order
func NewRegistry() *Registry {
	return &Registry{
		decoders: []Decoder{
			&PDFDecoder{},
			&DOCXDecoder{},
			&TextDecoder{},
		},
	}
}

// Decode returns the text of f
func (r *Registry) Decode(f File) string {
	for _, d := range r.decoders {
		if d.CanHandle(f) {
			return d.Decode(f)
		}
	}
	return ""
}

// Text decodes every file and joins the results with blank lines
func (r *Registry) Text(files []File) string {
	parts := make([]string, 0, len(files))
	for _, f := range files {
		if text := r.Decode(f); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n")
}

// CheckUploads enforces the file count, per-file and total size caps
func CheckUploads(files []File, limits model.LimitsConfig) error {
	if limits.MaxFiles > 0 && len(files) > limits.MaxFiles {
		return errs.New(errs.KindPayloadTooLarge, "too many files (%d > %d)", len(files), limits.MaxFiles)
	}

	var total int64
	for _, f := range files {
		size := f.Size()
		if limits.MaxFileBytes > 0 && size > limits.MaxFileBytes {
			return errs.New(errs.KindPayloadTooLarge, "file too large: %s (%s > %s)", displayName(f), megabytes(size), megabytes(limits.MaxFileBytes))
		}
		total += size
		if limits.MaxTotalBytes > 0 && total > limits.MaxTotalBytes {
			return errs.New(errs.KindPayloadTooLarge, "total upload size exceeds limit (%s > %s)", megabytes(total), megabytes(limits.MaxTotalBytes))
		}
	}
	return nil
}

func displayName(f File) string {
	if f.Name == "" {
		return "file"
	}
	return f.Name
}

func megabytes(n int64) string {
	return fmt.Sprintf("%dMB", (n+512*1024)/(1024*1024))
}

func hasSuffixFold(s, suffix string) bool {
	return strings.HasSuffix(strings.ToLower(strings.TrimSpace(s)), suffix)
}
