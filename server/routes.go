package server

import "net/http"

const (
	RouteSessions      = "/v1/sessions"
	RouteSession       = "/v1/sessions/{id}"
	RouteSessionsSweep = "/v1/sessions/sweep"

	RouteSessionRepo     = "/v1/sessions/{id}/repo"
	RouteSessionContents = "/v1/sessions/{id}/contents"
	RouteSessionFile     = "/v1/sessions/{id}/file"
	RouteSessionSearch   = "/v1/sessions/{id}/search"
	RouteSessionBranches = "/v1/sessions/{id}/branches"
	RouteSessionCommits  = "/v1/sessions/{id}/commits"
	RouteSessionCommit   = "/v1/sessions/{id}/commits/{sha}"
	RouteSessionPulls    = "/v1/sessions/{id}/pulls"
	RouteSessionPull     = "/v1/sessions/{id}/pulls/{number}"
	RouteSessionPullDiff = "/v1/sessions/{id}/pulls/{number}/diff"
	RouteSessionIssues   = "/v1/sessions/{id}/issues"
	RouteSessionIssue    = "/v1/sessions/{id}/issues/{number}"
	RouteSessionClone    = "/v1/sessions/{id}/clone"

	RouteHealthz = "/healthz"
	RouteMetrics = "/metrics"
)

func (s *Server) initRoutes() {
	api := s.APIMiddleware()

	// Preflight requests never reach the method-specific patterns, so CORS
	// answers them from a catch-all.
	s.RegisterRouteFunc("OPTIONS /v1/", ChainMiddleware(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}, s.CorsMiddleware))

	// Session lifecycle
	s.RegisterRouteFunc("POST "+RouteSessions, ChainMiddleware(s.CreateSessionHandler(), api...))
	s.RegisterRouteFunc("GET "+RouteSessions, ChainMiddleware(s.ListSessionsHandler(), api...))
	s.RegisterRouteFunc("DELETE "+RouteSession, ChainMiddleware(s.DeleteSessionHandler(), api...))
	s.RegisterRouteFunc("POST "+RouteSessionsSweep, ChainMiddleware(s.SweepSessionsHandler(), api...))

	// Session-scoped repository reads
	s.RegisterRouteFunc("GET "+RouteSessionRepo, ChainMiddleware(s.RepositoryInfoHandler(), api...))
	s.RegisterRouteFunc("GET "+RouteSessionContents, ChainMiddleware(s.ListContentHandler(), api...))
	s.RegisterRouteFunc("GET "+RouteSessionFile, ChainMiddleware(s.FileContentHandler(), api...))
	s.RegisterRouteFunc("GET "+RouteSessionSearch, ChainMiddleware(s.SearchCodeHandler(), api...))
	s.RegisterRouteFunc("GET "+RouteSessionBranches, ChainMiddleware(s.ListBranchesHandler(), api...))
	s.RegisterRouteFunc("GET "+RouteSessionCommits, ChainMiddleware(s.ListCommitsHandler(), api...))
	s.RegisterRouteFunc("GET "+RouteSessionCommit, ChainMiddleware(s.GetCommitHandler(), api...))
	s.RegisterRouteFunc("GET "+RouteSessionPulls, ChainMiddleware(s.ListPullRequestsHandler(), api...))
	s.RegisterRouteFunc("GET "+RouteSessionPull, ChainMiddleware(s.GetPullRequestHandler(), api...))
	s.RegisterRouteFunc("GET "+RouteSessionPullDiff, ChainMiddleware(s.PullRequestDiffHandler(), api...))
	s.RegisterRouteFunc("GET "+RouteSessionIssues, ChainMiddleware(s.ListIssuesHandler(), api...))
	s.RegisterRouteFunc("GET "+RouteSessionIssue, ChainMiddleware(s.GetIssueHandler(), api...))
	s.RegisterRouteFunc("POST "+RouteSessionClone, ChainMiddleware(s.CloneHandler(), api...))

	// Operational endpoints, unchained
	s.RegisterRouteFunc("GET "+RouteHealthz, s.HealthzHandler())
	if s.metrics != nil {
		s.RegisterRouteHandler("GET "+RouteMetrics, s.metrics.Handler())
	}
}
