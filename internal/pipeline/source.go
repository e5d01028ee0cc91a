package pipeline

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/ckwokli/pws/internal/errs"
	"github.com/ckwokli/pws/internal/ingest"
	"github.com/ckwokli/pws/internal/model"
)

// LoadFile reads a local document for upload. Files above maxBytes are
// rejected before they are read.
func LoadFile(path string, maxBytes int64) (ingest.File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return ingest.File{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		return ingest.File{}, errs.New(errs.KindPayloadTooLarge, "file too large: %s (%d bytes > %d)", info.Name(), info.Size(), maxBytes)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return ingest.File{}, fmt.Errorf("read %s: %w", path, err)
	}

	return ingest.File{
		Name:      filepath.Base(path),
		MediaType: mime.TypeByExtension(strings.ToLower(filepath.Ext(path))),
		Data:      data,
	}, nil
}

// SourceVerifier verifies batch sources: https links are scraped, anything
// else is read as a local file
type SourceVerifier struct {
	Pipeline     *Pipeline
	Mode         string
	OutputSchema string
}

// VerifySource runs the pipeline for one source
func (v *SourceVerifier) VerifySource(ctx context.Context, source string) (*model.Response, error) {
	in := Input{Mode: v.Mode, OutputSchema: v.OutputSchema}

	if strings.HasPrefix(strings.ToLower(source), "https://") {
		in.Link = source
	} else {
		file, err := LoadFile(source, v.Pipeline.config.Limits.MaxFileBytes)
		if err != nil {
			return nil, err
		}
		in.Files = []ingest.File{file}
	}

	return v.Pipeline.Verify(ctx, in)
}
