package ingest

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"log"
	"strings"
)

const (
	docxBodyPath    = "word/document.xml"
	maxDocumentXML  = 50 * 1024 * 1024
	wordprocessingM = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
)

// DOCXDecoder reads the paragraphs of word/document.xml
type DOCXDecoder struct{}

// Name returns the decoder name
func (d *DOCXDecoder) Name() string {
	return "docx"
}

// CanHandle matches the wordprocessingml media type or a .docx file name
func (d *DOCXDecoder) CanHandle(f File) bool {
	mediaType := strings.ToLower(f.MediaType)
	return strings.Contains(mediaType, "officedocument.wordprocessingml.document") ||
		hasSuffixFold(mediaType, "docx") ||
		hasSuffixFold(f.Name, ".docx")
}

// Decode returns one line per non-empty paragraph, paragraphs separated by
// blank lines
func (d *DOCXDecoder) Decode(f File) string {
	text, err := docxText(f.Data)
	if err != nil {
		log.Printf("ingest: docx decode failed: file=%s err=%v", displayName(f), err)
		return ""
	}
	return text
}

func docxText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open zip: %w", err)
	}

	var body *zip.File
	for _, zf := range zr.File {
		if zf.Name == docxBodyPath {
			body = zf
			break
		}
	}
	if body == nil {
		return "", fmt.Errorf("missing %s", docxBodyPath)
	}

	rc, err := body.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", docxBodyPath, err)
	}
	defer func() {
		_ = rc.Close()
	}()

	return paragraphs(io.LimitReader(rc, maxDocumentXML))
}

// paragraphs walks w:p elements collecting w:t text, w:tab and w:br
func paragraphs(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)

	var (
		out     []string
		current strings.Builder
		inText  bool
	)
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse %s: %w", docxBodyPath, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if !isWordElement(t.Name) {
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				current.WriteByte('\t')
			case "br", "cr":
				current.WriteByte('\n')
			}
		case xml.EndElement:
			if !isWordElement(t.Name) {
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if p := strings.TrimSpace(current.String()); p != "" {
					out = append(out, p)
				}
				current.Reset()
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		}
	}
	if p := strings.TrimSpace(current.String()); p != "" {
		out = append(out, p)
	}
	return strings.Join(out, "\n\n"), nil
}

func isWordElement(name xml.Name) bool {
	return name.Space == wordprocessingM || name.Space == ""
}
