package ingest

import "strings"

// TextDecoder reads anything else as UTF-8
type TextDecoder struct{}

// Name returns the decoder name
func (d *TextDecoder) Name() string {
	return "text"
}

// CanHandle accepts every file
func (d *TextDecoder) CanHandle(File) bool {
	return true
}

// Decode returns the payload with invalid UTF-8 sequences replaced by U+FFFD
func (d *TextDecoder) Decode(f File) string {
	return strings.ToValidUTF8(string(f.Data), "�")
}
