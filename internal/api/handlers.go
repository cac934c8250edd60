package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/graphscope/pkg/buildinfo"
	"github.com/matzehuels/graphscope/pkg/errors"
	"github.com/matzehuels/graphscope/pkg/facts"
	"github.com/matzehuels/graphscope/pkg/graph/cycles"
	"github.com/matzehuels/graphscope/pkg/graph/traverse"
	"github.com/matzehuels/graphscope/pkg/pipeline"
	"github.com/matzehuels/graphscope/pkg/render"
	"github.com/matzehuels/graphscope/pkg/session"
)

// AnalyzeRequest is the body of POST /v1/analyze.
type AnalyzeRequest struct {
	Files []facts.File `json:"files"`
	// Options replaces the server defaults when present.
	Options *pipeline.Options `json:"options,omitempty"`
}

// SessionInfo describes a stored session.
type SessionInfo struct {
	ID          string              `json:"id"`
	CreatedAt   time.Time           `json:"created_at"`
	ExpiresAt   time.Time           `json:"expires_at"`
	Functions   int                 `json:"functions"`
	Calls       int                 `json:"calls"`
	Modules     int                 `json:"modules"`
	Imports     int                 `json:"imports"`
	Resolutions []cycles.Suggestion `json:"resolutions,omitempty"`
}

// PathsResponse is the body of GET /v1/sessions/{id}/paths.
type PathsResponse struct {
	Kind  session.Kind `json:"kind"`
	From  string       `json:"from"`
	To    string       `json:"to"`
	Paths [][]string   `json:"paths"`
}

// TraverseResponse is the body of GET /v1/sessions/{id}/traverse.
type TraverseResponse struct {
	Kind   session.Kind     `json:"kind"`
	Start  string           `json:"start"`
	Mode   string           `json:"mode"`
	Visits []traverse.Visit `json:"visits"`
}

// BlastRadiusResponse is the body of GET /v1/sessions/{id}/blast-radius.
type BlastRadiusResponse struct {
	Kind     session.Kind `json:"kind"`
	Changed  []string     `json:"changed"`
	Affected []string     `json:"affected"`
}

// ResolveRequest is the body of POST /v1/sessions/{id}/resolve.
type ResolveRequest struct {
	Kind     session.Kind    `json:"kind"`
	Cycle    []string        `json:"cycle"`
	Strategy cycles.Strategy `json:"strategy"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, map[string]string{"status": "ok", "version": buildinfo.Version}, http.StatusOK)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	body := http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		decodeError(w, err)
		return
	}
	if len(req.Files) == 0 {
		badRequest(w, "files must not be empty")
		return
	}

	opts := s.opts.Defaults
	if req.Options != nil {
		opts = *req.Options
	}
	opts.Logger = s.logger

	sess, report, err := s.runner.ExecuteDocs(r.Context(), req.Files, opts)
	if err != nil {
		s.logger.Warn("analyze failed", "err", err)
		WriteError(w, err)
		return
	}
	if err := s.store.Set(r.Context(), sess); err != nil {
		s.logger.Error("store session", "id", sess.ID, "err", err)
		WriteError(w, err)
		return
	}
	WriteJSON(w, report, http.StatusOK)
}

// loadSession fetches the session named by the {id} parameter, writing the
// error response itself on failure.
func (s *Server) loadSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, err)
		return nil, false
	}
	return sess, true
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	calls, deps := sess.Calls(), sess.Deps()
	WriteJSON(w, SessionInfo{
		ID:          sess.ID,
		CreatedAt:   sess.CreatedAt,
		ExpiresAt:   sess.ExpiresAt,
		Functions:   calls.NodeCount(),
		Calls:       calls.EdgeCount(),
		Modules:     deps.NodeCount(),
		Imports:     deps.EdgeCount(),
		Resolutions: sess.Resolutions(),
	}, http.StatusOK)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

var contentTypes = map[string]string{
	render.FormatJSON: "application/json",
	render.FormatDOT:  "text/vnd.graphviz; charset=utf-8",
	render.FormatSVG:  "image/svg+xml",
	render.FormatTree: "text/plain; charset=utf-8",
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	kind, err := session.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		WriteError(w, err)
		return
	}
	maxDepth, err := intParam(q.Get("max_depth"), 0)
	if err != nil {
		WriteError(w, err)
		return
	}
	opts := pipeline.RenderOptions{
		Kind:      kind,
		Format:    q.Get("format"),
		Reduce:    boolParam(q.Get("reduce")),
		Highlight: boolParam(q.Get("highlight")),
		Cluster:   boolParam(q.Get("cluster")),
		MaxDepth:  maxDepth,
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		WriteError(w, err)
		return
	}
	data, err := s.runner.Render(r.Context(), sess, opts)
	if err != nil {
		WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", contentTypes[opts.Format])
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handlePaths(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	kind, err := kindParam(q.Get("kind"))
	if err != nil {
		WriteError(w, err)
		return
	}
	from, to := q.Get("from"), q.Get("to")
	if from == "" || to == "" {
		badRequest(w, "from and to are required")
		return
	}
	g, err := sess.Graph(kind)
	if err != nil {
		WriteError(w, err)
		return
	}

	resp := PathsResponse{Kind: kind, From: from, To: to, Paths: [][]string{}}
	if !boolParam(q.Get("all")) {
		path, err := traverse.ShortestPath(g, from, to)
		if err != nil {
			WriteError(w, err)
			return
		}
		if path != nil {
			resp.Paths = append(resp.Paths, path)
		}
		WriteJSON(w, resp, http.StatusOK)
		return
	}

	maxPaths, err := intParam(q.Get("max_paths"), DefaultMaxPaths)
	if err != nil {
		WriteError(w, err)
		return
	}
	maxLength, err := intParam(q.Get("max_length"), 0)
	if err != nil {
		WriteError(w, err)
		return
	}
	if maxPaths <= 0 {
		maxPaths = DefaultMaxPaths
	}
	paths, err := traverse.FindAllPaths(g, from, to,
		traverse.WithMaxPaths(maxPaths),
		traverse.WithMaxLength(maxLength))
	if err != nil {
		WriteError(w, err)
		return
	}
	if paths != nil {
		resp.Paths = paths
	}
	WriteJSON(w, resp, http.StatusOK)
}

func (s *Server) handleTraverse(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	kind, err := kindParam(q.Get("kind"))
	if err != nil {
		WriteError(w, err)
		return
	}
	mode, err := traverse.ParseMode(q.Get("mode"))
	if err != nil {
		WriteError(w, err)
		return
	}
	depth, err := intParam(q.Get("max_depth"), traverse.Unbounded)
	if err != nil {
		WriteError(w, err)
		return
	}
	dir := traverse.Forward
	switch q.Get("direction") {
	case "", "forward":
	case "backward":
		dir = traverse.Backward
	default:
		badRequest(w, "direction must be forward or backward")
		return
	}
	start := q.Get("start")
	if start == "" {
		badRequest(w, "start is required")
		return
	}

	g, err := sess.Graph(kind)
	if err != nil {
		WriteError(w, err)
		return
	}
	visits, err := traverse.Traverse(g, start, mode, traverse.WithMaxDepth(depth), traverse.WithDirection(dir))
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, TraverseResponse{Kind: kind, Start: start, Mode: mode.String(), Visits: visits}, http.StatusOK)
}

func (s *Server) handleBlastRadius(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	kind, err := kindParam(q.Get("kind"))
	if err != nil {
		WriteError(w, err)
		return
	}
	var changed []string
	for _, v := range q["node"] {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				changed = append(changed, id)
			}
		}
	}
	if len(changed) == 0 {
		badRequest(w, "at least one node is required")
		return
	}
	g, err := sess.Graph(kind)
	if err != nil {
		WriteError(w, err)
		return
	}
	affected, err := traverse.BlastRadius(g, changed...)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, BlastRadiusResponse{Kind: kind, Changed: changed, Affected: affected}, http.StatusOK)
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	var req ResolveRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)).Decode(&req); err != nil {
		decodeError(w, err)
		return
	}
	kind, err := kindParam(string(req.Kind))
	if err != nil {
		WriteError(w, err)
		return
	}
	if req.Strategy == 0 {
		req.Strategy = pipeline.DefaultStrategy
	}

	sug, err := sess.ApplyResolution(kind, req.Cycle, req.Strategy)
	if err != nil {
		WriteError(w, err)
		return
	}
	if err := s.store.Set(r.Context(), sess); err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, sug, http.StatusOK)
}

func kindParam(v string) (session.Kind, error) {
	if v == "" {
		return session.KindCalls, nil
	}
	return session.ParseKind(v)
}

func intParam(v string, def int) (int, error) {
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.New(errors.ErrCodeInvalidInput, "invalid integer %q", v)
	}
	return n, nil
}

func boolParam(v string) bool {
	b, _ := strconv.ParseBool(v)
	return b
}
