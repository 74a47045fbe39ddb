// Package server exposes the gateway over HTTP. All payloads are JSON; the
// only non-JSON responses are the pull request diff report and the metrics
// endpoint.
package server

import (
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/quangtn/github-session-gateway/gateway"
	"github.com/quangtn/github-session-gateway/internal/config"
	"github.com/quangtn/github-session-gateway/internal/metrics"
)

type Server struct {
	env     string // Environment (e.g., "DEV", "PROD")
	mux     *http.ServeMux
	routes  []string
	config  config.Config
	gateway *gateway.Gateway
	metrics *metrics.Collector

	sweepStop chan struct{}
	sweepDone chan struct{}
}

func New(config config.Config, gw *gateway.Gateway, collector *metrics.Collector) (*Server, error) {
	if gw == nil {
		return nil, fmt.Errorf("[Server New] gateway is required")
	}

	s := &Server{
		mux:     http.NewServeMux(),
		config:  config,
		gateway: gw,
		metrics: collector,
	}
	s.env = config.GetEnv()

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// StartSweeper launches the background expiry sweep. Call StopSweeper during
// shutdown; starting twice is a programming error.
func (s *Server) StartSweeper() {
	if s.sweepStop != nil {
		return
	}
	s.sweepStop = make(chan struct{})
	s.sweepDone = make(chan struct{})

	interval := s.config.GetSweepInterval()
	maxAge := s.config.GetMaxSessionAge()

	go func() {
		defer close(s.sweepDone)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				removed := s.gateway.SweepExpired(maxAge)
				if removed > 0 {
					log.Printf("Session sweep removed %d expired session(s)\n", removed)
				}
			case <-s.sweepStop:
				return
			}
		}
	}()
}

// StopSweeper stops the background sweep and waits for it to exit.
func (s *Server) StopSweeper() {
	if s.sweepStop == nil {
		return
	}
	close(s.sweepStop)
	<-s.sweepDone
	s.sweepStop = nil
	s.sweepDone = nil
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	log.Printf("[%-19s] %s\n", displayMethod, path)
}
