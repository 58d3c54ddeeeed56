package api

import (
	"encoding/json"
	"net/http"

	"github.com/dgallion1/docgraph/internal/descriptor"
	"github.com/dgallion1/docgraph/internal/pathstore"
	"github.com/go-chi/chi/v5"
)

// handleListDescriptors lists the named descriptors in DESCRIPTOR_DIR.
func (s *Server) handleListDescriptors(w http.ResponseWriter, r *http.Request) {
	names, err := descriptor.ListNamed(s.cfg.DescriptorDir)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"descriptors": names})
}

// handleListDocuments lists published documents from their meta nodes.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	ps := s.orchestrator.PathstoreClient()
	if ps == nil {
		jsonError(w, "publishing is disabled", http.StatusServiceUnavailable)
		return
	}

	children, err := ps.ListChildren(r.Context(), pathstore.MetaPrefix(), 200)
	if err != nil {
		jsonError(w, "failed to list documents: "+err.Error(), http.StatusInternalServerError)
		return
	}

	docs := make([]map[string]any, 0, len(children))
	for _, child := range children {
		docs = append(docs, map[string]any{
			"key":   child.Key,
			"value": child.Value,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"documents": docs})
}

// handleDeleteDocument deletes a published document: its node subtree
// first, then its meta node.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	ps := s.orchestrator.PathstoreClient()
	if ps == nil {
		jsonError(w, "publishing is disabled", http.StatusServiceUnavailable)
		return
	}

	ctx := r.Context()
	docID := chi.URLParam(r, "docID")

	meta, err := ps.GetNode(ctx, pathstore.MetaKey(docID))
	if err != nil {
		jsonError(w, "failed to read document: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if meta == nil {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}

	if err := ps.DeleteNode(ctx, pathstore.DocumentKey(docID), true); err != nil {
		jsonError(w, "failed to delete nodes: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if err := ps.DeleteNode(ctx, pathstore.MetaKey(docID), false); err != nil {
		jsonError(w, "failed to delete meta: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"doc_id":  docID,
		"deleted": true,
	})
}
