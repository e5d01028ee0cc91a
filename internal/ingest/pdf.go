package ingest

import (
	"bytes"
	"fmt"
	"log"
	"regexp"
	"strings"

	"rsc.io/pdf"
)

const minParsedPDFChars = 20

var (
	// PDF syntax that leaks into extracted lines
	pdfTokenRe    = regexp.MustCompile(`(?i)^(%PDF-|\d+\s+\d+\s+obj\b|endobj\b|stream\b|endstream\b|xref\b|trailer\b|startxref\b|%%EOF|<<?\s*/|BT\b|ET\b)`)
	pdfRawTokenRe = regexp.MustCompile(`(?i)^(%PDF-|\d+\s+\d+\s+obj\b|endobj\b|stream\b|endstream\b|xref\b|trailer\b|startxref\b|%%EOF|\s*<<?\s*/|\s*\[|\s*\]|\s*BT\b|\s*ET\b)`)
	wordRe        = regexp.MustCompile(`[A-Za-z]{3,}`)
	lineBreakRe   = regexp.MustCompile(`\r?\n`)
)

// PDFDecoder reads text objects with rsc.io/pdf. When parsing fails or
// yields too little, printable runs are recovered from the raw bytes.
type PDFDecoder struct{}

// Name returns the decoder name
func (d *PDFDecoder) Name() string {
	return "pdf"
}

// CanHandle matches a pdf media type or a .pdf file name
func (d *PDFDecoder) CanHandle(f File) bool {
	return hasSuffixFold(f.MediaType, "pdf") || hasSuffixFold(f.Name, ".pdf")
}

// Decode returns the cleaned document text
func (d *PDFDecoder) Decode(f File) string {
	parsed, err := parsePDF(f.Data)
	if err != nil {
		log.Printf("ingest: pdf parse failed, using raw fallback: file=%s err=%v", displayName(f), err)
		return CleanPDFFallback(f.Data)
	}

	cleaned := CleanPDFParsedText(parsed)
	if len(strings.TrimSpace(cleaned)) < minParsedPDFChars {
		return CleanPDFFallback(f.Data)
	}
	return cleaned
}

// parsePDF extracts page text. rsc.io/pdf panics on some malformed files,
// so panics are turned into errors.
func parsePDF(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		var line strings.Builder
		lastY := -1.0
		for _, item := range page.Content().Text {
			if lastY >= 0 && item.Y != lastY {
				b.WriteString(line.String())
				b.WriteByte('\n')
				line.Reset()
			}
			line.WriteString(item.S)
			lastY = item.Y
		}
		if line.Len() > 0 {
			b.WriteString(line.String())
			b.WriteByte('\n')
		}
	}
	return b.String(), nil
}

// CleanPDFParsedText drops short, letterless and PDF-syntax lines from
// parser output
func CleanPDFParsedText(text string) string {
	var keep []string
	for _, line := range lineBreakRe.Split(text, -1) {
		line = strings.TrimSpace(line)
		n := len(line)
		if n < 3 || n > 1000 || !wordRe.MatchString(line) || pdfTokenRe.MatchString(line) {
			continue
		}
		keep = append(keep, line)
	}
	return strings.Join(keep, "\n")
}

// CleanPDFFallback recovers readable lines from raw PDF bytes. Bytes are
// read as Latin-1 and anything outside printable ASCII becomes a space.
func CleanPDFFallback(data []byte) string {
	ascii := make([]byte, len(data))
	for i, c := range data {
		switch {
		case c == '\t' || c == '\n' || c == '\r':
			ascii[i] = c
		case c >= 0x20 && c <= 0x7e:
			ascii[i] = c
		default:
			ascii[i] = ' '
		}
	}

	var keep []string
	for _, line := range lineBreakRe.Split(string(ascii), -1) {
		line = strings.TrimSpace(line)
		n := len(line)
		if n < 3 || n > 800 || !wordRe.MatchString(line) || pdfRawTokenRe.MatchString(line) {
			continue
		}
		keep = append(keep, line)
		if len(keep) == 2000 {
			break
		}
	}
	return strings.Join(keep, "\n")
}
