package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const checkTimeout = 5 * time.Second

type healthResponse struct {
	Status       string            `json:"status"`
	Timestamp    time.Time         `json:"timestamp"`
	Service      string            `json:"service"`
	Version      string            `json:"version"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

func (s *Server) health() healthResponse {
	return healthResponse{
		Status:    "healthy",
		Timestamp: s.now().UTC(),
		Service:   ServiceName,
		Version:   Version,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.health())
}

// handleHealthDetailed runs every registered check concurrently. A
// failing check degrades the service but does not change the HTTP
// status, so load balancers keep routing to it.
func (s *Server) handleHealthDetailed(w http.ResponseWriter, r *http.Request) {
	resp := s.health()
	resp.Dependencies = make(map[string]string, len(s.deps.Checks))

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	for name, check := range s.deps.Checks {
		g.Go(func() error {
			ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
			defer cancel()
			status := checkStatus(check(ctx))

			mu.Lock()
			defer mu.Unlock()
			resp.Dependencies[name] = status
			if status != "healthy" && status != "disabled" {
				resp.Status = "degraded"
			}
			return nil
		})
	}
	_ = g.Wait()

	writeJSON(w, http.StatusOK, resp)
}

func checkStatus(err error) string {
	switch {
	case err == nil:
		return "healthy"
	case errors.Is(err, ErrNotConfigured):
		return "disabled"
	default:
		return "unhealthy: " + err.Error()
	}
}
