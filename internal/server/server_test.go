package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ckwokli/pws/internal/errs"
	"github.com/ckwokli/pws/internal/model"
	"github.com/ckwokli/pws/internal/pipeline"
)

type stubVerifier struct {
	got   pipeline.Input
	calls int
	resp  *model.Response
	err   error
}

func (s *stubVerifier) Verify(_ context.Context, in pipeline.Input) (*model.Response, error) {
	s.calls++
	s.got = in
	if s.err != nil {
		return nil, s.err
	}
	if s.resp != nil {
		return s.resp, nil
	}
	return &model.Response{Mode: model.ModeSearch, Source: model.Source{Text: in.Text}}, nil
}

func testConfig() *model.Config {
	cfg := model.DefaultConfig()
	cfg.Limits.MaxFiles = 2
	cfg.Limits.MaxFileBytes = 1024
	cfg.Limits.MaxTotalBytes = 2048
	return cfg
}

type upload struct {
	name string
	data []byte
}

func multipartRequest(t *testing.T, fields map[string]string, files []upload) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	for _, f := range files {
		part, err := mw.CreateFormFile("files", f.name)
		if err != nil {
			t.Fatalf("create file: %v", err)
		}
		_, _ = part.Write(f.data)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/verify", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var out errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode error body: %v (%s)", err, rec.Body.String())
	}
	return out.Error
}

func TestHealthz(t *testing.T) {
	router := NewRouter(testConfig(), &stubVerifier{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestVerifyPassesFormFields(t *testing.T) {
	v := &stubVerifier{}
	router := NewRouter(testConfig(), v)

	req := multipartRequest(t, map[string]string{
		"text":          "The Eiffel Tower was completed in 1889.",
		"link":          "https://example.org/a",
		"mode":          "task",
		"output_schema": `{"type":"object"}`,
	}, []upload{{name: "notes.txt", data: []byte("hello")}})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if v.got.Text != "The Eiffel Tower was completed in 1889." || v.got.Link != "https://example.org/a" {
		t.Errorf("unexpected input: %+v", v.got)
	}
	if v.got.Mode != "task" || v.got.OutputSchema != `{"type":"object"}` {
		t.Errorf("mode/schema not passed: %+v", v.got)
	}
	if len(v.got.Files) != 1 || v.got.Files[0].Name != "notes.txt" || string(v.got.Files[0].Data) != "hello" {
		t.Errorf("unexpected files: %+v", v.got.Files)
	}

	var resp model.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Source.Text != v.got.Text {
		t.Errorf("expected source text echoed, got %q", resp.Source.Text)
	}
}

func TestVerifyAcceptsURLEncodedForm(t *testing.T) {
	v := &stubVerifier{}
	router := NewRouter(testConfig(), v)

	req := httptest.NewRequest(http.MethodPost, "/v1/verify", strings.NewReader("text=hello+world&mode=search"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if v.got.Text != "hello world" || len(v.got.Files) != 0 {
		t.Errorf("unexpected input: %+v", v.got)
	}
}

func TestVerifyRejectsUploads(t *testing.T) {
	tests := []struct {
		name  string
		files []upload
	}{
		{
			name: "too many files",
			files: []upload{
				{name: "a.txt", data: []byte("a")},
				{name: "b.txt", data: []byte("b")},
				{name: "c.txt", data: []byte("c")},
			},
		},
		{
			name:  "file too large",
			files: []upload{{name: "big.txt", data: bytes.Repeat([]byte("x"), 1500)}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &stubVerifier{}
			router := NewRouter(testConfig(), v)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, multipartRequest(t, nil, tt.files))

			if rec.Code != http.StatusRequestEntityTooLarge {
				t.Fatalf("expected 413, got %d (%s)", rec.Code, rec.Body.String())
			}
			if body := decodeError(t, rec); body.Code != string(errs.KindPayloadTooLarge) {
				t.Errorf("unexpected error code %q", body.Code)
			}
			if v.calls != 0 {
				t.Errorf("verifier should not run, ran %d times", v.calls)
			}
		})
	}
}

func TestVerifyMapsErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{
			name:       "invalid input",
			err:        errs.New(errs.KindInvalidInput, "no content to verify"),
			wantStatus: http.StatusBadRequest,
			wantCode:   "invalid_input",
			wantMsg:    "no content to verify",
		},
		{
			name:       "upstream",
			err:        errs.Upstream(http.StatusServiceUnavailable, []byte("busy")),
			wantStatus: http.StatusBadGateway,
			wantCode:   "upstream_error",
			wantMsg:    "remote service error (status 503)",
		},
		{
			name:       "timeout",
			err:        context.DeadlineExceeded,
			wantStatus: http.StatusGatewayTimeout,
			wantCode:   "timeout",
			wantMsg:    "request timed out",
		},
		{
			name:       "internal hides cause",
			err:        errs.Wrap(errs.KindInternal, errs.ErrMissingAPIKey, "secret detail"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "internal",
			wantMsg:    "internal error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := NewRouter(testConfig(), &stubVerifier{err: tt.err})

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, multipartRequest(t, map[string]string{"text": "claim"}, nil))

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
			body := decodeError(t, rec)
			if body.Code != tt.wantCode || body.Message != tt.wantMsg {
				t.Errorf("got %+v, want code=%s message=%s", body, tt.wantCode, tt.wantMsg)
			}
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	cfg := testConfig()
	cfg.Server.AllowedOrigins = []string{"https://app.example.org"}
	router := NewRouter(cfg, &stubVerifier{})

	req := httptest.NewRequest(http.MethodOptions, "/v1/verify", nil)
	req.Header.Set("Origin", "https://app.example.org")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.org" {
		t.Errorf("expected allowed origin header, got %q", got)
	}
}
