package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dgallion1/dxfnet/internal/convert"
	"github.com/dgallion1/dxfnet/internal/loader"
	"github.com/dgallion1/dxfnet/internal/network"
	"github.com/dgallion1/dxfnet/internal/pipeline"
	"github.com/go-chi/chi/v5"
)

// upload is one validated multipart file plus its conversion options.
type upload struct {
	filename  string
	data      []byte
	precision int
}

// readUpload parses the multipart form and returns the first file found
// under one of fields. On failure it has already written the response.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request, fields ...string) (*upload, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return nil, false
	}
	defer r.MultipartForm.RemoveAll()

	var field string
	for _, f := range fields {
		if len(r.MultipartForm.File[f]) > 0 {
			field = f
			break
		}
	}
	if field == "" {
		jsonError(w, fmt.Sprintf("%s is required", fields[0]), http.StatusBadRequest)
		return nil, false
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		jsonError(w, "invalid upload: "+err.Error(), http.StatusBadRequest)
		return nil, false
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !loader.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return nil, false
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return nil, false
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return nil, false
	}
	if len(data) == 0 {
		jsonError(w, "uploaded file is empty", http.StatusBadRequest)
		return nil, false
	}

	precision := s.orchestrator.Converter().Options().Precision
	if v := r.FormValue("precision"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > network.MaxPrecision {
			jsonError(w, fmt.Sprintf("precision must be an integer in [0, %d]", network.MaxPrecision), http.StatusBadRequest)
			return nil, false
		}
		precision = n
	}

	return &upload{filename: filename, data: data, precision: precision}, true
}

// handleProcess converts an upload synchronously and returns download
// links for its artifacts.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	up, ok := s.readUpload(w, r, "dxfFile")
	if !ok {
		return
	}

	job := pipeline.NewJob(up.filename, up.data, up.precision)
	res, err := s.orchestrator.Run(r.Context(), job)
	if err != nil {
		jsonError(w, err.Error(), errorStatus(err))
		return
	}

	body := map[string]any{
		"job_id":   job.ID,
		"stats":    res.Stats,
		"branches": len(res.Branches),
	}
	for name, url := range downloadURLs(job.ID, res) {
		body[name] = url
	}
	writeJSON(w, http.StatusOK, body)
}

// handleConvert queues an upload for asynchronous conversion.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	up, ok := s.readUpload(w, r, "file", "dxfFile")
	if !ok {
		return
	}

	job := pipeline.NewJob(up.filename, up.data, up.precision)
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":   job.ID,
		"status":   pipeline.StatusQueued,
		"poll_url": fmt.Sprintf("/api/convert/%s/status", job.ID),
	})
}

func (s *Server) handleConvertStatus(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

func (s *Server) handleConvertResult(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}

	res, err := job.Result()
	switch {
	case err != nil:
		jsonError(w, err.Error(), errorStatus(err))
		return
	case res == nil:
		snap := job.Snapshot()
		writeJSON(w, http.StatusConflict, map[string]any{
			"job_id": snap.ID,
			"status": snap.Status,
			"error":  "job not finished",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"job_id":    job.ID,
		"source":    res.Source,
		"segments":  res.Segments,
		"nodes":     res.Nodes,
		"branches":  res.Branches,
		"stats":     res.Stats,
		"downloads": downloadURLs(job.ID, res),
	})
}

// handleDownload serves one artifact of a finished job.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil || !convert.IsArtifact(name) {
		jsonError(w, "file not found", http.StatusNotFound)
		return
	}
	res, _ := job.Result()
	if res == nil {
		jsonError(w, "file not found", http.StatusNotFound)
		return
	}
	data, ok := res.Artifacts[name]
	if !ok {
		jsonError(w, "file not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", convert.ContentType(name))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}

// downloadURLs maps response keys such as "csv_url" to the job's artifact
// download paths.
func downloadURLs(jobID string, res *convert.Result) map[string]string {
	urls := make(map[string]string, len(res.Artifacts))
	for _, name := range res.ArtifactNames() {
		key := strings.TrimPrefix(filepath.Ext(name), ".") + "_url"
		urls[key] = fmt.Sprintf("/download/%s/%s", jobID, name)
	}
	return urls
}

// errorStatus maps a conversion error to an HTTP status.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, network.ErrInput):
		return http.StatusUnprocessableEntity
	case errors.Is(err, pipeline.ErrQueueFull), errors.Is(err, pipeline.ErrStopped):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}
