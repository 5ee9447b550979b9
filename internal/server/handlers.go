package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/matzehuels/linkatlas/pkg/buildinfo"
	"github.com/matzehuels/linkatlas/pkg/graph"
	"github.com/matzehuels/linkatlas/pkg/pipeline"
	"github.com/matzehuels/linkatlas/pkg/view"
)

var contentTypes = map[string]string{
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatPNG:  "image/png",
	pipeline.FormatPDF:  "application/pdf",
	pipeline.FormatDOT:  "text/vnd.graphviz; charset=utf-8",
	pipeline.FormatJSON: "application/json",
	pipeline.FormatHTML: "text/html; charset=utf-8",
}

// handleIndex serves the interactive page, wired to this server's API.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	a, hash := s.Dataset()
	opts := s.layoutOptions(r.URL.Query().Get("mode"), "")
	opts.Formats = []string{pipeline.FormatHTML}
	opts.API = origin(r)

	res, err := s.runner.ExecuteAtlas(r.Context(), a, hash, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeArtifact(w, pipeline.FormatHTML, res.Artifacts[pipeline.FormatHTML], res.CacheInfo.RenderHit)
}

type healthResponse struct {
	Status  string         `json:"status"`
	Version buildinfo.Info `json:"version"`
	Uptime  string         `json:"uptime"`
	Dataset datasetHealth  `json:"dataset"`
}

type datasetHealth struct {
	Fingerprint string    `json:"fingerprint"`
	Artifacts   int       `json:"artifacts"`
	Links       int       `json:"links"`
	LoadedAt    time.Time `json:"loaded_at"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	d := s.data.Load()
	st := d.atlas.Stats()
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Version: buildinfo.Get(),
		Uptime:  time.Since(s.started).Round(time.Second).String(),
		Dataset: datasetHealth{
			Fingerprint: d.hash,
			Artifacts:   st.Artifacts,
			Links:       st.Majors + st.Minors,
			LoadedAt:    d.loadedAt,
		},
	})
}

// handleGraph returns the view graph for ?mode=.
func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	a, hash := s.Dataset()
	opts := s.layoutOptions(r.URL.Query().Get("mode"), "")
	g, err := s.runner.Build(r.Context(), a, hash, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeGraph(w, http.StatusOK, g)
}

// handleNode returns the inspect info of one node.
func (s *Server) handleNode(w http.ResponseWriter, r *http.Request) {
	a, _ := s.Dataset()
	info, err := view.Describe(a, pathParam(r, "key"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// handleRender renders the graph in the format named by the path. A
// ?session= id draws that viewer's mode and pins.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	format := pathParam(r, "format")
	if err := pipeline.ValidateFormat(format); err != nil {
		writeError(w, err)
		return
	}

	q := r.URL.Query()
	a, hash := s.Dataset()
	opts := s.layoutOptions(q.Get("mode"), q.Get("engine"))
	opts.Formats = []string{format}
	if format == pipeline.FormatHTML {
		opts.API = origin(r)
	}
	if v := q.Get("scale"); v != "" {
		scale, err := strconv.ParseFloat(v, 64)
		if err != nil || scale <= 0 || scale > 8 {
			writeError(w, badRequest("invalid scale %q", v))
			return
		}
		opts.Scale = scale
	}
	if id := q.Get("session"); id != "" {
		sess, err := s.opts.Sessions.Get(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		opts.Mode = sess.Mode.String()
		opts.Pins = sess.Pins
	}

	res, err := s.runner.ExecuteAtlas(r.Context(), a, hash, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeArtifact(w, format, res.Artifacts[format], res.CacheInfo.RenderHit)
}

func writeGraph(w http.ResponseWriter, status int, g graph.Graph) {
	data, err := graph.MarshalGraph(g)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeArtifact(w http.ResponseWriter, format string, data []byte, cached bool) {
	w.Header().Set("Content-Type", contentTypes[format])
	if cached {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// origin returns the scheme and host the client used to reach the server.
func origin(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if p := r.Header.Get("X-Forwarded-Proto"); p == "http" || p == "https" {
		scheme = p
	}
	return scheme + "://" + r.Host
}
