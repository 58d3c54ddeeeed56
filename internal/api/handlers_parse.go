package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dgallion1/docgraph/internal/chunker"
	"github.com/dgallion1/docgraph/internal/descriptor"
	"github.com/dgallion1/docgraph/internal/doctree"
	"github.com/dgallion1/docgraph/internal/parser"
	"github.com/dgallion1/docgraph/internal/pipeline"
	"github.com/dgallion1/docgraph/internal/query"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	d, name, status, err := s.descriptorFromForm(r)
	if err != nil {
		jsonError(w, err.Error(), status)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !parser.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	job := pipeline.NewJob(filename, data, d)
	job.Descriptor = name
	if docID := r.FormValue("doc_id"); docID != "" {
		job.DocID = sanitizeFilename(docID)
	}
	if cfg, ok := s.chunkConfigFromForm(r); ok {
		job.SetChunkConfig(cfg)
	}

	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":   job.ID,
		"doc_id":   job.DocID,
		"status":   job.Status,
		"poll_url": fmt.Sprintf("/api/parse/%s/status", job.ID),
	})
}

func (s *Server) handleBatchParse(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes*10+10*1024*1024)

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	d, name, status, err := s.descriptorFromForm(r)
	if err != nil {
		jsonError(w, err.Error(), status)
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		jsonError(w, "at least one file is required", http.StatusBadRequest)
		return
	}
	chunkCfg, overrideChunks := s.chunkConfigFromForm(r)

	var results []map[string]any
	for _, fh := range files {
		filename := sanitizeFilename(fh.Filename)
		if !parser.IsSupportedExtension(filename) {
			results = append(results, map[string]any{
				"filename": filename,
				"error":    fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)),
			})
			continue
		}

		data, err := s.readPart(fh)
		if err != nil {
			results = append(results, map[string]any{
				"filename": filename,
				"error":    err.Error(),
			})
			continue
		}

		job := pipeline.NewJob(filename, data, d)
		job.Descriptor = name
		if overrideChunks {
			job.SetChunkConfig(chunkCfg)
		}
		if err := s.orchestrator.Submit(job); err != nil {
			results = append(results, map[string]any{
				"filename": filename,
				"error":    err.Error(),
			})
			continue
		}

		results = append(results, map[string]any{
			"filename": filename,
			"job_id":   job.ID,
			"doc_id":   job.DocID,
			"status":   job.Status,
			"poll_url": fmt.Sprintf("/api/parse/%s/status", job.ID),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{"jobs": results})
}

func (s *Server) readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, errors.New("failed to open file")
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, s.cfg.MaxUploadBytes+1))
	if err != nil || int64(len(data)) > s.cfg.MaxUploadBytes {
		return nil, errors.New("file too large or read error")
	}
	return data, nil
}

func (s *Server) handleParseStatus(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(job.Snapshot())
}

// handleParseDocument returns the built document. With ?query= the jq
// results over its serialized form are returned instead; ?format=outline
// answers with the plain-text outline.
func (s *Server) handleParseDocument(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.finishedDocument(w, r)
	if !ok {
		return
	}

	if expr := r.URL.Query().Get("query"); expr != "" {
		results, err := query.Run(r.Context(), expr, doc)
		if err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"results": results})
		return
	}

	switch r.URL.Query().Get("format") {
	case "", "json":
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(doc)
	case "outline":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		io.WriteString(w, doc.String())
	default:
		jsonError(w, "format must be json or outline", http.StatusBadRequest)
	}
}

func (s *Server) handleParseChunks(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.finishedDocument(w, r); !ok {
		return
	}
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	chunks := job.Chunks()
	if chunks == nil {
		chunks = []doctree.Chunk{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"job_id": job.ID,
		"total":  len(chunks),
		"chunks": chunks,
	})
}

// finishedDocument writes the error response and reports false unless the
// job exists and has a built document.
func (s *Server) finishedDocument(w http.ResponseWriter, r *http.Request) (*doctree.Document, bool) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return nil, false
	}
	doc := job.Document()
	if doc != nil {
		return doc, true
	}
	snap := job.Snapshot()
	if snap.Status == pipeline.StatusFailed {
		jsonError(w, "job failed: "+strings.Join(snap.Progress.Errors, "; "), http.StatusUnprocessableEntity)
		return nil, false
	}
	jsonError(w, fmt.Sprintf("document not ready (status %s)", snap.Status), http.StatusConflict)
	return nil, false
}

// descriptorFromForm resolves the descriptor of a parse request: inline
// YAML/JSON in "descriptor", or a file stem from DESCRIPTOR_DIR in
// "descriptor_name". It returns the normalized descriptor and the name
// recorded on the job.
func (s *Server) descriptorFromForm(r *http.Request) (*descriptor.Descriptor, string, int, error) {
	var (
		spec descriptor.Spec
		name string
		err  error
	)
	switch inline, named := r.FormValue("descriptor"), r.FormValue("descriptor_name"); {
	case inline != "" && named != "":
		return nil, "", http.StatusBadRequest, errors.New("descriptor and descriptor_name are mutually exclusive")
	case inline != "":
		name = "inline"
		spec, err = descriptor.Decode(strings.NewReader(inline))
	case named != "":
		name = named
		spec, err = descriptor.LoadNamed(s.cfg.DescriptorDir, named)
		if errors.Is(err, descriptor.ErrUnknownDescriptor) {
			return nil, "", http.StatusNotFound, err
		}
	default:
		return nil, "", http.StatusBadRequest, errors.New("descriptor or descriptor_name is required")
	}
	if err != nil {
		return nil, "", http.StatusBadRequest, err
	}

	d, err := descriptor.Normalize(spec)
	if err != nil {
		return nil, "", http.StatusBadRequest, err
	}
	return d, name, http.StatusOK, nil
}

// chunkConfigFromForm reads optional chunk_size/overlap/min_chunk
// overrides on top of the server defaults.
func (s *Server) chunkConfigFromForm(r *http.Request) (chunker.Config, bool) {
	cfg := chunker.Config{
		ChunkSize:    s.cfg.DefaultChunkSize,
		ChunkOverlap: s.cfg.DefaultChunkOverlap,
		MinChunk:     100,
	}
	set := false
	for field, dst := range map[string]*int{
		"chunk_size": &cfg.ChunkSize,
		"overlap":    &cfg.ChunkOverlap,
		"min_chunk":  &cfg.MinChunk,
	} {
		if v := r.FormValue(field); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				*dst = n
				set = true
			}
		}
	}
	return cfg, set
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	// Remove any path separators that might have survived.
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
