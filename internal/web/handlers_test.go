package web

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/catalogkit/importer/internal/config"
	"github.com/catalogkit/importer/internal/importer"
	"github.com/catalogkit/importer/internal/jobs"
)

// stubQueue records enqueued paths and serves canned lookups.
type stubQueue struct {
	enqueued []string
	remove   []bool
	nextID   uuid.UUID
	jobs     map[uuid.UUID]jobs.Job
}

func (q *stubQueue) Enqueue(ctx context.Context, path string, removeWhenDone bool) uuid.UUID {
	q.enqueued = append(q.enqueued, path)
	q.remove = append(q.remove, removeWhenDone)
	return q.nextID
}

func (q *stubQueue) Lookup(id uuid.UUID) (jobs.Job, bool) {
	job, ok := q.jobs[id]
	return job, ok
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.RequestTimeout = 30 * time.Second
	cfg.Import.MaxFileSize = 1 << 20
	cfg.Import.TempDir = ""
	return cfg
}

func newTestServer(t *testing.T, q *stubQueue) *Server {
	t.Helper()
	if q.nextID == uuid.Nil {
		q.nextID = uuid.New()
	}
	return NewServer(q, testConfig())
}

// multipartBody builds a multipart form with one file field.
func multipartBody(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func TestCreateImport(t *testing.T) {
	q := &stubQueue{nextID: uuid.New()}
	srv := newTestServer(t, q)

	csv := "Handle,Title,Vendor,Variant SKU,Variant Inventory Qty,Variant Price,Variant Barcode\n" +
		"mug,Mug,Acme,MUG-1,25,9.99,12345\n"
	body, contentType := multipartBody(t, "file", "catalog.csv", csv)

	req := httptest.NewRequest(http.MethodPost, "/api/imports", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusAccepted, rec.Body)
	}

	var resp CreateImportResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.JobID != q.nextID {
		t.Errorf("job id = %s, want %s", resp.JobID, q.nextID)
	}
	if resp.Status != "queued" {
		t.Errorf("status = %q, want queued", resp.Status)
	}
	if want := "/api/imports/" + q.nextID.String(); resp.StatusURL != want {
		t.Errorf("status url = %q, want %q", resp.StatusURL, want)
	}

	if len(q.enqueued) != 1 {
		t.Fatalf("enqueued %d jobs, want 1", len(q.enqueued))
	}
	if !q.remove[0] {
		t.Error("spooled file not marked for removal")
	}

	// The upload is spooled verbatim before the job runs.
	data, err := os.ReadFile(q.enqueued[0])
	if err != nil {
		t.Fatalf("reading spooled file: %v", err)
	}
	defer os.Remove(q.enqueued[0])
	if string(data) != csv {
		t.Errorf("spooled content = %q, want original upload", data)
	}
}

func TestCreateImportMissingFile(t *testing.T) {
	q := &stubQueue{}
	srv := newTestServer(t, q)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("name", "catalog")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/imports", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if len(q.enqueued) != 0 {
		t.Errorf("enqueued %d jobs, want 0", len(q.enqueued))
	}
}

func TestCreateImportNotMultipart(t *testing.T) {
	srv := newTestServer(t, &stubQueue{})

	req := httptest.NewRequest(http.MethodPost, "/api/imports", strings.NewReader("plain text"))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestGetImport(t *testing.T) {
	id := uuid.New()
	q := &stubQueue{
		jobs: map[uuid.UUID]jobs.Job{
			id: {
				ID:     id,
				Status: jobs.StatusSucceeded,
				Stats: importer.Stats{
					CorruptedRows:    2,
					ProductsImported: 5,
					VariantsImported: 9,
				},
			},
		},
	}
	srv := newTestServer(t, q)

	req := httptest.NewRequest(http.MethodGet, "/api/imports/"+id.String(), nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body)
	}

	var job jobs.Job
	if err := json.NewDecoder(rec.Body).Decode(&job); err != nil {
		t.Fatal(err)
	}
	if job.Status != jobs.StatusSucceeded {
		t.Errorf("status = %q, want succeeded", job.Status)
	}
	if job.Stats.VariantsImported != 9 {
		t.Errorf("variants imported = %d, want 9", job.Stats.VariantsImported)
	}
}

func TestGetImportNotFound(t *testing.T) {
	srv := newTestServer(t, &stubQueue{jobs: map[uuid.UUID]jobs.Job{}})

	req := httptest.NewRequest(http.MethodGet, "/api/imports/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestGetImportInvalidID(t *testing.T) {
	srv := newTestServer(t, &stubQueue{})

	req := httptest.NewRequest(http.MethodGet, "/api/imports/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, &stubQueue{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("content type = %q, want application/json", got)
	}
}
