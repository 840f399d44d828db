package web

import (
	"bytes"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/conorfennell/wordhash/internal/deck"
	"github.com/conorfennell/wordhash/internal/domain"
	"github.com/conorfennell/wordhash/internal/srs"
	"github.com/conorfennell/wordhash/internal/storage"
	"github.com/conorfennell/wordhash/internal/sync"
	"github.com/conorfennell/wordhash/internal/wordkey"
)

func newTestServer(t *testing.T) (*Server, *deck.Service) {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "web.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	d := deck.New(db, deck.WithLogger(logger))
	syncer := &sync.Syncer{DB: db, Deck: d, ReposDir: t.TempDir()}
	s, err := NewServer(db, d, syncer, logger)
	if err != nil {
		t.Fatalf("NewServer() returned an unexpected error: %v", err)
	}
	return s, d
}

func do(t *testing.T, s *Server, method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func uploadBody(t *testing.T, name, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := io.WriteString(fw, content); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func TestUploadAndReview(t *testing.T) {
	s, d := newTestServer(t)

	body, ct := uploadBody(t, "words.json", `[{"word":"Ephemeral","definition":"Lasting for a very short time."}]`)
	rec := do(t, s, http.MethodPost, "/upload", body, ct)
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /upload = %d: %s", rec.Code, rec.Body)
	}
	if !strings.Contains(rec.Body.String(), "1 new") {
		t.Errorf("Expected upload summary, got %s", rec.Body)
	}

	rec = do(t, s, http.MethodGet, "/review/next", nil, "")
	if !strings.Contains(rec.Body.String(), "Ephemeral") {
		t.Errorf("Expected due word on the card front, got %s", rec.Body)
	}

	hash := wordkey.Hash(domain.Entry{Word: "Ephemeral"})
	rec = do(t, s, http.MethodGet, "/review/answer/"+hash, nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /review/answer = %d", rec.Code)
	}
	for _, label := range []string{"Lasting for a very short time.", "1m", "6m", "10m", "4d"} {
		if !strings.Contains(rec.Body.String(), label) {
			t.Errorf("Expected %q on the card back, got %s", label, rec.Body)
		}
	}

	form := url.Values{"grade": {"Easy"}}
	rec = do(t, s, http.MethodPost, "/review/"+hash, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /review = %d: %s", rec.Code, rec.Body)
	}
	if !strings.Contains(rec.Body.String(), "0 due now") {
		t.Errorf("Expected the deck view once nothing is due, got %s", rec.Body)
	}

	review, err := d.Options(hash)
	if err != nil {
		t.Fatal(err)
	}
	if review.Word.State.Status != srs.Reviewing {
		t.Errorf("Expected graded word to be reviewing, got %v", review.Word.State.Status)
	}

	rec = do(t, s, http.MethodGet, "/words", nil, "")
	if !strings.Contains(rec.Body.String(), "reviewing") || !strings.Contains(rec.Body.String(), "4d") {
		t.Errorf("Expected words view to show status and interval, got %s", rec.Body)
	}
}

func TestUploadMarkdown(t *testing.T) {
	s, d := newTestServer(t)
	body, ct := uploadBody(t, "gre.md", "W: Laconic\nD: Using few words.\n")
	rec := do(t, s, http.MethodPost, "/upload", body, ct)
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /upload = %d: %s", rec.Code, rec.Body)
	}
	all, err := d.All()
	if err != nil || len(all) != 1 {
		t.Errorf("Expected one imported word, got %d, %v", len(all), err)
	}
}

func TestUploadInvalidJSON(t *testing.T) {
	s, _ := newTestServer(t)
	body, ct := uploadBody(t, "bad.json", `[{"word":"","definition":"x"}]`)
	rec := do(t, s, http.MethodPost, "/upload", body, ct)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("POST /upload with invalid list = %d, want 400", rec.Code)
	}
}

func TestReviewErrors(t *testing.T) {
	s, _ := newTestServer(t)

	form := url.Values{"grade": {"Perfect"}}
	rec := do(t, s, http.MethodPost, "/review/abc", strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid grade = %d, want 400", rec.Code)
	}

	form = url.Values{"grade": {"Good"}}
	rec = do(t, s, http.MethodPost, "/review/abc", strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown word = %d, want 404", rec.Code)
	}

	rec = do(t, s, http.MethodGet, "/review/answer/abc", nil, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown answer = %d, want 404", rec.Code)
	}

	rec = do(t, s, http.MethodGet, "/review/abc", nil, "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /review = %d, want 405", rec.Code)
	}
}

func TestSourcesAndReset(t *testing.T) {
	s, d := newTestServer(t)
	dir := t.TempDir()

	form := url.Values{"path": {dir}}
	rec := do(t, s, http.MethodPost, "/sources", strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), dir) {
		t.Fatalf("POST /sources = %d: %s", rec.Code, rec.Body)
	}

	rec = do(t, s, http.MethodPost, "/sync", nil, "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Sync complete") {
		t.Errorf("POST /sync = %d: %s", rec.Code, rec.Body)
	}

	rec = do(t, s, http.MethodDelete, "/sources/1", nil, "")
	if rec.Code != http.StatusOK || strings.Contains(rec.Body.String(), dir) {
		t.Errorf("DELETE /sources/1 = %d: %s", rec.Code, rec.Body)
	}

	if _, err := d.Import([]domain.Word{domain.NewWord(domain.Entry{Word: "a", Definition: "b", Hash: "h"}, d.Now())}, storage.NoSource); err != nil {
		t.Fatal(err)
	}
	rec = do(t, s, http.MethodPost, "/reset", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /reset = %d", rec.Code)
	}
	all, _ := d.All()
	if len(all) != 0 {
		t.Errorf("Expected empty deck after reset, got %d words", len(all))
	}
}

func TestIndexIsServed(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/", nil, "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "wordhash") {
		t.Errorf("GET / = %d", rec.Code)
	}
}
