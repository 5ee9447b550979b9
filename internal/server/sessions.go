package server

import (
	"net/http"

	"github.com/matzehuels/linkatlas/pkg/errors"
	"github.com/matzehuels/linkatlas/pkg/graph"
	"github.com/matzehuels/linkatlas/pkg/session"
	"github.com/matzehuels/linkatlas/pkg/view"
)

type createSessionRequest struct {
	Mode string                    `json:"mode"`
	Pins map[string]graph.Position `json:"pins"`
}

type pinRequest struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Mode == "" {
		req.Mode = s.opts.Mode
	}
	m, err := view.ParseMode(req.Mode)
	if err != nil {
		writeError(w, err)
		return
	}

	sess := session.New(m, s.opts.SessionTTL)
	for key, p := range req.Pins {
		if err := sess.Pin(key, p.X, p.Y); err != nil {
			writeError(w, err)
			return
		}
	}
	if err := s.opts.Sessions.Set(r.Context(), sess); err != nil {
		writeError(w, err)
		return
	}
	s.logger.Debug("session created", "id", sess.ID, "mode", m, "pins", len(sess.Pins))
	writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.opts.Sessions.Get(r.Context(), pathParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.opts.Sessions.Delete(r.Context(), pathParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleToggle flips the session's mode and returns the graph of the new mode.
func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	sess, err := s.opts.Sessions.Update(r.Context(), pathParam(r, "id"), func(sess *session.Session) error {
		sess.Toggle()
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}

	a, hash := s.Dataset()
	g, err := s.runner.Build(r.Context(), a, hash, s.layoutOptions(sess.Mode.String(), ""))
	if err != nil {
		writeError(w, err)
		return
	}
	writeGraph(w, http.StatusOK, g)
}

func (s *Server) handlePin(w http.ResponseWriter, r *http.Request) {
	var req pinRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.X == nil || req.Y == nil {
		writeError(w, badRequest("pin needs x and y"))
		return
	}

	key := pathParam(r, "key")
	sess, err := s.opts.Sessions.Update(r.Context(), pathParam(r, "id"), func(sess *session.Session) error {
		return sess.Pin(key, *req.X, *req.Y)
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleRelease(w http.ResponseWriter, r *http.Request) {
	key := pathParam(r, "key")
	_, err := s.opts.Sessions.Update(r.Context(), pathParam(r, "id"), func(sess *session.Session) error {
		if !sess.Release(key) {
			return errors.New(errors.ErrCodeNotFound, "node %s is not pinned", key)
		}
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSessionLayout lays out the session's current graph with its pins.
func (s *Server) handleSessionLayout(w http.ResponseWriter, r *http.Request) {
	sess, err := s.opts.Sessions.Get(r.Context(), pathParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	l, err := s.sessionLayout(r, sess, r.URL.Query().Get("engine"))
	if err != nil {
		writeError(w, err)
		return
	}
	data, err := graph.MarshalLayout(l)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func (s *Server) sessionLayout(r *http.Request, sess *session.Session, engine string) (graph.Layout, error) {
	a, hash := s.Dataset()
	opts := s.layoutOptions(sess.Mode.String(), engine)
	g, err := s.runner.Build(r.Context(), a, hash, opts)
	if err != nil {
		return graph.Layout{}, err
	}
	opts.Pins = sess.ActivePins(g)
	return s.runner.Layout(r.Context(), g, opts)
}
