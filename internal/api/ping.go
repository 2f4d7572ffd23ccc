package api

import (
	"errors"
	"net/http"

	"github.com/Zaaim-Halim/Humano-sub001/pkg/logger"
	"github.com/Zaaim-Halim/Humano-sub001/pkg/tenant"
)

type pingResponse struct {
	Tenant   string `json:"tenant"`
	Target   string `json:"target"`
	Pool     string `json:"pool"`
	Database string `json:"database"`
}

// ping runs a query through the router and reports where it landed.
func (s *Server) ping(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	target, err := s.router.Resolve(ctx)
	if err != nil {
		writeError(w, err)
		return
	}

	var database string
	if err := target.Pool.QueryRow(ctx, "SELECT current_database()").Scan(&database); err != nil {
		s.log.ErrorContext(ctx, "ping query failed", logger.Pool(target.Pool.Name()), logger.Error(err))
		writeError(w, errors.Join(tenant.ErrProvisioningFailed, err))
		return
	}

	writeJSON(w, http.StatusOK, pingResponse{
		Tenant:   target.Key,
		Target:   target.Kind.String(),
		Pool:     target.Pool.Name(),
		Database: database,
	})
}

// currentPool returns the statistics of the pool serving the current tenant.
func (s *Server) currentPool(w http.ResponseWriter, r *http.Request) {
	pool, err := s.router.Pool(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	stats, err := pool.Stats()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
