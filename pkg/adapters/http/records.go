package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aretw0/facet/pkg/domain"
	"github.com/aretw0/facet/pkg/model"
)

func decodeObject(r *http.Request) (map[string]any, error) {
	body := map[string]any{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		return nil, &requestError{fmt.Errorf("invalid request body: %w", err)}
	}
	// The id comes from the URL or from storage, never from the body.
	delete(body, domain.IDAttribute)
	return body, nil
}

// ListRecords handles GET /records.
func (s *Server) ListRecords(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Manager.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"ids": ids})
}

// CreateRecord handles POST /records.
func (s *Server) CreateRecord(w http.ResponseWriter, r *http.Request) {
	body, err := decodeObject(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rec, err := s.Manager.Create(r.Context(), body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("record created", "id", rec.ID())
	s.writeJSON(w, http.StatusCreated, rec.ToJSON())
}

// GetRecord handles GET /records/{id}.
func (s *Server) GetRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := s.Manager.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rec.ToJSON())
}

// PatchRecord handles PATCH /records/{id}: the body is applied in one batch,
// validated and saved. Subscribers of the record receive the diff.
func (s *Server) PatchRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	patch, err := decodeObject(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var before domain.Document
	rec, err := s.Manager.Update(r.Context(), id, func(m *model.Model) error {
		before = domain.Document(m.ToJSON())
		if err := m.SetAll(patch); err != nil {
			return &requestError{err}
		}
		return nil
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	after := domain.Document(rec.ToJSON())
	if diff := domain.Diff(id, before, after); !diff.IsEmpty() {
		if bytes, err := json.Marshal(diff); err == nil {
			s.Streams.Broadcast(id, string(bytes))
		}
	}
	s.writeJSON(w, http.StatusOK, after)
}

// DeleteRecord handles DELETE /records/{id}.
func (s *Server) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.Manager.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("record deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

// previewResponse is returned by POST /records/{id}/preview.
type previewResponse struct {
	Record  map[string]any `json:"record"`
	Changes []string       `json:"changes"`
}

// PreviewRecord handles POST /records/{id}/preview: the patch is applied and
// recalculated but never saved.
func (s *Server) PreviewRecord(w http.ResponseWriter, r *http.Request) {
	patch, err := decodeObject(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rec, changes, err := s.Manager.Preview(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		if !model.IsNotFound(err) {
			err = &requestError{err}
		}
		s.writeError(w, r, err)
		return
	}
	if changes == nil {
		changes = []string{}
	}
	s.writeJSON(w, http.StatusOK, previewResponse{Record: rec.ToJSON(), Changes: changes})
}

// GetChanges handles GET /records/{id}/changes?branch=. It lists the
// attributes of the stored record that differ from branch. A freshly loaded
// record is clean against the default branch.
func (s *Server) GetChanges(w http.ResponseWriter, r *http.Request) {
	rec, err := s.Manager.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	branch := domain.BranchOrDefault(r.URL.Query().Get("branch"))
	changes := rec.Changes(branch)
	if changes == nil {
		changes = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"branch": branch, "changes": changes})
}
