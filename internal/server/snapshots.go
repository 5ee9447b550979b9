package server

import (
	"net/http"
	"strconv"

	"github.com/matzehuels/linkatlas/pkg/session"
	"github.com/matzehuels/linkatlas/pkg/storage"
	"github.com/matzehuels/linkatlas/pkg/view"
)

// defaultListLimit caps snapshot listings without ?limit=.
const defaultListLimit = 50

type createSnapshotRequest struct {
	Name    string `json:"name"`
	Session string `json:"session,omitempty"` // take mode and pins from this session
	Mode    string `json:"mode,omitempty"`
	Engine  string `json:"engine,omitempty"`
}

// handleCreateSnapshot computes a layout and stores it under a name.
func (s *Server) handleCreateSnapshot(w http.ResponseWriter, r *http.Request) {
	var req createSnapshotRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	var sess *session.Session
	if req.Session != "" {
		got, err := s.opts.Sessions.Get(r.Context(), req.Session)
		if err != nil {
			writeError(w, err)
			return
		}
		sess = got
	} else {
		mode := req.Mode
		if mode == "" {
			mode = s.opts.Mode
		}
		m, err := view.ParseMode(mode)
		if err != nil {
			writeError(w, err)
			return
		}
		sess = &session.Session{State: view.NewState(m)}
	}

	l, err := s.sessionLayout(r, sess, req.Engine)
	if err != nil {
		writeError(w, err)
		return
	}
	_, hash := s.Dataset()
	snap, err := storage.NewSnapshot(req.Name, hash, l)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.opts.Snapshots.Save(r.Context(), snap); err != nil {
		writeError(w, err)
		return
	}
	s.logger.Info("snapshot saved", "id", snap.ID, "name", snap.Name, "mode", l.Mode)
	writeJSON(w, http.StatusCreated, snap.Summary())
}

func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, badRequest("invalid limit %q", v))
			return
		}
		limit = n
	}
	list, err := s.opts.Snapshots.List(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if list == nil {
		list = []storage.Summary{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.opts.Snapshots.Get(r.Context(), pathParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleDeleteSnapshot(w http.ResponseWriter, r *http.Request) {
	if err := s.opts.Snapshots.Delete(r.Context(), pathParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
