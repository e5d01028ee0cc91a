package httpclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ckwokli/pws/internal/errs"
)

type countingBody struct {
	reads int
}

func (b *countingBody) Read(p []byte) (int, error) {
	b.reads++
	for i := range p {
		p[i] = 'x'
	}
	return len(p), nil
}

func (b *countingBody) Close() error { return nil }

type stubTransport struct {
	resp *http.Response
}

func (s *stubTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	s.resp.Request = req
	return s.resp, nil
}

func TestSend_DeclaredLengthRejectedBeforeRead(t *testing.T) {
	body := &countingBody{}
	transport := &stubTransport{resp: &http.Response{
		StatusCode:    200,
		Header:        http.Header{},
		ContentLength: 10_000,
		Body:          body,
	}}
	client := NewWithClient(&http.Client{Transport: transport}, "test")

	req, _ := http.NewRequest(http.MethodGet, "https://example.com/big", nil)
	_, err := client.Send(context.Background(), req, Limits{MaxBytes: 1000})

	if !errs.Is(err, errs.KindPayloadTooLarge) {
		t.Fatalf("expected payload_too_large, got %v", err)
	}
	if body.reads != 0 {
		t.Errorf("body was read %d times before rejection", body.reads)
	}
}

func TestSend_UndeclaredLengthCapped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		for i := 0; i < 10; i++ {
			_, _ = w.Write([]byte(strings.Repeat("a", 500)))
			flusher.Flush()
		}
	}))
	defer server.Close()

	client := NewWithClient(server.Client(), "test")
	req, _ := http.NewRequest(http.MethodGet, server.URL, nil)
	_, err := client.Send(context.Background(), req, Limits{MaxBytes: 1000})

	if !errs.Is(err, errs.KindPayloadTooLarge) {
		t.Fatalf("expected payload_too_large, got %v", err)
	}
}

func TestSend_WithinLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "pws-test" {
			t.Errorf("User-Agent = %q", r.Header.Get("User-Agent"))
		}
		w.WriteHeader(http.StatusTeapot)
		_, _ = io.WriteString(w, `{"ok":true}`)
	}))
	defer server.Close()

	client := NewWithClient(server.Client(), "pws-test")
	req, _ := http.NewRequest(http.MethodGet, server.URL, nil)
	resp, err := client.Send(context.Background(), req, Limits{Timeout: time.Second, MaxBytes: 1000})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if resp.StatusCode != http.StatusTeapot {
		t.Errorf("StatusCode = %d, non-2xx statuses must pass through", resp.StatusCode)
	}
	if resp.OK() {
		t.Errorf("OK() = true for 418")
	}
	if string(resp.Body) != `{"ok":true}` {
		t.Errorf("Body = %q", resp.Body)
	}
}

func TestSend_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(500 * time.Millisecond):
		}
	}))
	defer server.Close()

	client := NewWithClient(server.Client(), "test")
	req, _ := http.NewRequest(http.MethodGet, server.URL, nil)

	start := time.Now()
	_, err := client.Send(context.Background(), req, Limits{Timeout: 50 * time.Millisecond})

	if !errs.Is(err, errs.KindTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 400*time.Millisecond {
		t.Errorf("Send() took %v, timeout not enforced", elapsed)
	}
}

func TestSend_NetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewWithClient(&http.Client{}, "test")
	req, _ := http.NewRequest(http.MethodGet, url, nil)
	_, err := client.Send(context.Background(), req, Limits{Timeout: time.Second})

	if !errs.Is(err, errs.KindUpstream) {
		t.Fatalf("expected upstream_error, got %v", err)
	}
	if errs.StatusOf(err) != 0 {
		t.Errorf("StatusOf() = %d, want 0 for network failure", errs.StatusOf(err))
	}
}
