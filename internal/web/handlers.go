package web

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/catalogkit/importer/internal/logging"
)

// CreateImportResponse is returned when an upload has been accepted.
// The job runs in the background; clients poll the status URL for the outcome.
type CreateImportResponse struct {
	JobID     uuid.UUID `json:"job_id"`
	Status    string    `json:"status"`
	StatusURL string    `json:"status_url"`
}

// handleCreateImport accepts a multipart catalog upload, spools it to a
// temporary file, and queues it for import. Spooling keeps memory usage
// independent of file size and lets the request return before the import runs.
func (s *Server) handleCreateImport(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Import.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondError(w, r, http.StatusRequestEntityTooLarge, "file too large", nil)
			return
		}
		respondError(w, r, http.StatusBadRequest, "invalid multipart form", err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "no file provided", nil)
		return
	}
	defer file.Close()

	path, err := s.spool(file)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "failed to store upload", err)
		return
	}

	// The job outlives this request, so detach it from the request context
	// while keeping request-scoped values for logging.
	jobID := s.queue.Enqueue(context.WithoutCancel(r.Context()), path, true)

	logging.FromContext(r.Context()).Info("upload accepted",
		"job_id", jobID,
		"filename", header.Filename,
		"size", header.Size,
	)

	respondJSON(w, r, http.StatusAccepted, CreateImportResponse{
		JobID:     jobID,
		Status:    "queued",
		StatusURL: "/api/imports/" + jobID.String(),
	})
}

// handleGetImport returns the current state of a queued import.
func (s *Server) handleGetImport(w http.ResponseWriter, r *http.Request) {
	jobID, err := uuid.Parse(chi.URLParam(r, "jobID"))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid job id", nil)
		return
	}

	job, ok := s.queue.Lookup(jobID)
	if !ok {
		respondError(w, r, http.StatusNotFound, "job not found", nil)
		return
	}

	respondJSON(w, r, http.StatusOK, job)
}

// handleHealth reports process liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// spool copies an uploaded file to a temporary file and returns its path.
// The caller owns the file; the job runner removes it after the import.
func (s *Server) spool(src io.Reader) (string, error) {
	tmp, err := os.CreateTemp(s.cfg.Import.TempDir, "catalog-*.csv")
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}
