package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/quangtn/github-session-gateway/internal/errors"
	"github.com/quangtn/github-session-gateway/internal/utils"
)

// statusForKind maps the error taxonomy onto HTTP statuses. Remote failures
// surface as gateway-side statuses so callers can tell them from local ones.
func statusForKind(kind errors.Kind) int {
	switch kind {
	case errors.KindInvalidLocator, errors.KindInvalidTokenFormat:
		return http.StatusBadRequest
	case errors.KindSessionNotFound, errors.KindNotFound:
		return http.StatusNotFound
	case errors.KindAuthFailed:
		return http.StatusUnauthorized
	case errors.KindCloneTimeout:
		return http.StatusGatewayTimeout
	case errors.KindRemoteAPIError, errors.KindCloneFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeJSONError(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, errorResponse{Error: kind, Message: message})
}

// writeError renders a taxonomy error. Messages come from the error values,
// which never carry tokens.
func writeError(w http.ResponseWriter, err error) {
	kind := errors.KindOf(err)
	if kind == "" {
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	writeJSONError(w, statusForKind(kind), string(kind), err.Error())
}

type createSessionRequest struct {
	RepositoryURL string `json:"repository_url"`
	Token         string `json:"token"`
}

// CreateSessionHandler validates the credentials, probes the repository and
// returns the new session. The token appears in the request body only.
func (s *Server) CreateSessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createSessionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid_request", "request body is not valid JSON")
			return
		}

		info, err := s.gateway.CreateSession(r.Context(), req.RepositoryURL, req.Token)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, info)
	}
}

func (s *Server) ListSessionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"sessions": s.gateway.ListSessions(),
		})
	}
}

func (s *Server) DeleteSessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.gateway.DeleteSession(r.PathValue("id")) {
			writeJSONError(w, http.StatusNotFound, string(errors.KindSessionNotFound),
				"session does not exist or has expired")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// SweepSessionsHandler triggers an immediate expiry sweep in addition to the
// background one.
func (s *Server) SweepSessionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		removed := s.gateway.SweepExpired(s.config.GetMaxSessionAge())
		writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
	}
}

func (s *Server) RepositoryInfoHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		repo, err := s.gateway.GetRepositoryInfo(r.Context(), r.PathValue("id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, repo)
	}
}

func (s *Server) ListContentHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		entries, err := s.gateway.ListContent(r.Context(), r.PathValue("id"), q.Get("path"), q.Get("ref"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
	}
}

func (s *Server) FileContentHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		path := q.Get("path")
		if path == "" {
			writeJSONError(w, http.StatusBadRequest, "invalid_request", "path query parameter is required")
			return
		}
		content, err := s.gateway.GetFileContent(r.Context(), r.PathValue("id"), path, q.Get("ref"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, content)
	}
}

func (s *Server) SearchCodeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("q")
		if query == "" {
			writeJSONError(w, http.StatusBadRequest, "invalid_request", "q query parameter is required")
			return
		}
		result, err := s.gateway.SearchCode(r.Context(), r.PathValue("id"), query)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func (s *Server) ListBranchesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		branches, err := s.gateway.ListBranches(r.Context(), r.PathValue("id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"branches": branches})
	}
}

func (s *Server) ListCommitsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		commits, err := s.gateway.ListCommits(r.Context(), r.PathValue("id"),
			q.Get("sha"), q.Get("path"), intParam(q.Get("per_page")))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"commits": commits})
	}
}

func (s *Server) GetCommitHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		commit, err := s.gateway.GetCommit(r.Context(), r.PathValue("id"), r.PathValue("sha"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, commit)
	}
}

func (s *Server) ListPullRequestsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		pulls, err := s.gateway.ListPullRequests(r.Context(), r.PathValue("id"),
			q.Get("state"), intParam(q.Get("per_page")))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"pull_requests": pulls})
	}
}

func (s *Server) GetPullRequestHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		number, ok := numberParam(w, r)
		if !ok {
			return
		}
		pull, err := s.gateway.GetPullRequest(r.Context(), r.PathValue("id"), number)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, pull)
	}
}

// PullRequestDiffHandler is the one text endpoint: the combined header+diff
// report renders as plain text.
func (s *Server) PullRequestDiffHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		number, ok := numberParam(w, r)
		if !ok {
			return
		}
		report, err := s.gateway.GetPullRequestDiff(r.Context(), r.PathValue("id"), number)
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(report))
	}
}

func (s *Server) ListIssuesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		issues, err := s.gateway.ListIssues(r.Context(), r.PathValue("id"),
			q.Get("state"), intParam(q.Get("per_page")))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"issues": issues})
	}
}

func (s *Server) GetIssueHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		number, ok := numberParam(w, r)
		if !ok {
			return
		}
		issue, err := s.gateway.GetIssue(r.Context(), r.PathValue("id"), number)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, issue)
	}
}

type cloneRequest struct {
	Destination *string `json:"destination"`
}

func (s *Server) CloneHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req cloneRequest
		if r.Body != nil && r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeJSONError(w, http.StatusBadRequest, "invalid_request", "request body is not valid JSON")
				return
			}
		}

		path, err := s.gateway.CloneRepository(r.Context(), r.PathValue("id"), utils.Value(req.Destination))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"path": path})
	}
}

func (s *Server) HealthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// intParam parses an optional positive integer query value; anything else
// means "unset".
func intParam(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// numberParam parses the {number} path segment, rendering the 400 itself.
func numberParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	n, err := strconv.Atoi(r.PathValue("number"))
	if err != nil || n < 1 {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "number path segment must be a positive integer")
		return 0, false
	}
	return n, true
}
