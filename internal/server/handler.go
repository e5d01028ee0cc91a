package server

import (
	"errors"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/ckwokli/pws/internal/errs"
	"github.com/ckwokli/pws/internal/ingest"
	"github.com/ckwokli/pws/internal/model"
	"github.com/ckwokli/pws/internal/pipeline"
)

// formOverheadBytes is allowed on top of the upload cap for form fields and
// multipart framing
const formOverheadBytes = 1 << 20

// Handler serves the API
type Handler struct {
	cfg      *model.Config
	verifier Verifier
}

// NewHandler creates a Handler
func NewHandler(cfg *model.Config, v Verifier) Handler {
	return Handler{cfg: cfg, verifier: v}
}

// Healthz reports liveness
func (h Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Verify handles POST /v1/verify. Fields: files (repeated), link, mode,
// output_schema, text.
func (h Handler) Verify(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.Limits.MaxTotalBytes+formOverheadBytes)

	in, err := h.readInput(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	resp, err := h.verifier.Verify(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h Handler) readInput(r *http.Request) (pipeline.Input, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		if err := r.ParseMultipartForm(8 << 20); err != nil {
			return pipeline.Input{}, formError(err)
		}
		if r.MultipartForm != nil {
			defer func() { _ = r.MultipartForm.RemoveAll() }()
		}
	} else if err := r.ParseForm(); err != nil {
		return pipeline.Input{}, formError(err)
	}

	in := pipeline.Input{
		Text:         r.FormValue("text"),
		Link:         r.FormValue("link"),
		Mode:         r.FormValue("mode"),
		OutputSchema: r.FormValue("output_schema"),
	}

	if r.MultipartForm == nil {
		return in, nil
	}

	headers := r.MultipartForm.File["files"]
	if limit := h.cfg.Limits.MaxFiles; limit > 0 && len(headers) > limit {
		return in, errs.New(errs.KindPayloadTooLarge, "too many files (%d max)", limit)
	}

	for _, header := range headers {
		file, err := h.readFile(header)
		if err != nil {
			return in, err
		}
		in.Files = append(in.Files, file)
	}
	return in, nil
}

func (h Handler) readFile(header *multipart.FileHeader) (ingest.File, error) {
	name := filepath.Base(header.Filename)
	maxBytes := h.cfg.Limits.MaxFileBytes
	if maxBytes > 0 && header.Size > maxBytes {
		return ingest.File{}, errs.New(errs.KindPayloadTooLarge, "file too large: %s", name)
	}

	f, err := header.Open()
	if err != nil {
		return ingest.File{}, errs.Wrap(errs.KindInvalidInput, err, "failed to read uploaded file")
	}
	defer func() { _ = f.Close() }()

	var reader io.Reader = f
	if maxBytes > 0 {
		reader = io.LimitReader(f, maxBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return ingest.File{}, errs.Wrap(errs.KindInvalidInput, err, "failed to read uploaded file")
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return ingest.File{}, errs.New(errs.KindPayloadTooLarge, "file too large: %s", name)
	}

	return ingest.File{
		Name:      name,
		MediaType: header.Header.Get("Content-Type"),
		Data:      data,
	}, nil
}

func formError(err error) error {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return errs.New(errs.KindPayloadTooLarge, "total upload too large")
	}
	return errs.Wrap(errs.KindInvalidInput, err, "request must be multipart/form-data")
}

func (h Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := errs.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Printf("server: verify failed: request_id=%s status=%d err=%v", chimw.GetReqID(r.Context()), status, err)
	}
	writeError(w, status, string(errs.KindOf(err)), errs.PublicMessage(err))
}
