package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Zaaim-Halim/Humano-sub001/pkg/logger"
	"github.com/Zaaim-Halim/Humano-sub001/pkg/tenant"
	"github.com/Zaaim-Halim/Humano-sub001/pkg/tenantdb"
)

type poolsResponse struct {
	Count    int               `json:"count"`
	Pools    []tenantdb.Stats  `json:"pools"`
	Counters tenantdb.Counters `json:"counters"`
}

type healthCheckResponse struct {
	Evicted   []string `json:"evicted"`
	Remaining int      `json:"remaining"`
}

type provisionResponse struct {
	Tenant  string `json:"tenant"`
	Evicted bool   `json:"evicted"`
}

func (s *Server) listPools(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, poolsResponse{
		Count:    s.registry.Count(),
		Pools:    s.registry.StatsAll(),
		Counters: s.registry.Counters(),
	})
}

func (s *Server) getPool(w http.ResponseWriter, r *http.Request) {
	stats, err := s.registry.StatsFor(chi.URLParam(r, "tenant"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) evictPool(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "tenant")
	if !s.registry.Evict(id) {
		writeError(w, tenantdb.ErrPoolNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// refreshPool drops cached configuration and replaces the pool so it picks up
// new credentials or limits.
func (s *Server) refreshPool(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := tenant.Normalize(chi.URLParam(r, "tenant"))

	if s.sources != nil {
		if err := s.sources.Invalidate(ctx, id); err != nil {
			s.log.WarnContext(ctx, "failed to invalidate tenant config cache", logger.TenantID(id), logger.Error(err))
		}
	}

	pool, err := s.registry.Refresh(ctx, id)
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

func (s *Server) checkPools(w http.ResponseWriter, r *http.Request) {
	var evicted []string
	if s.monitor != nil {
		evicted = s.monitor.CheckNow(r.Context())
	} else {
		evicted = s.registry.HealthCheck(r.Context())
	}
	if evicted == nil {
		evicted = []string{}
	}
	writeJSON(w, http.StatusOK, healthCheckResponse{Evicted: evicted, Remaining: s.registry.Count()})
}

// provisionTenant stores the connection record of a tenant. A live pool is
// evicted so the next request connects with the new record.
func (s *Server) provisionTenant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if s.sources == nil {
		writeError(w, errProvisioningDisabled)
		return
	}

	id := tenant.Normalize(chi.URLParam(r, "tenant"))
	if err := tenant.ValidateID(id); err != nil {
		writeError(w, err)
		return
	}

	var conn tenantdb.ConnectionConfig
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&conn); err != nil {
		writeError(w, errors.Join(errBadRequest, err))
		return
	}
	conn = conn.WithDefaults()
	if err := conn.Validate(); err != nil {
		writeError(w, err)
		return
	}

	if err := s.sources.Provision(ctx, id, conn); err != nil {
		s.log.ErrorContext(ctx, "failed to provision tenant", logger.TenantID(id), logger.Error(err))
		writeError(w, err)
		return
	}

	evicted := s.registry.Evict(id)
	s.log.InfoContext(ctx, "tenant provisioned",
		logger.TenantID(id),
		logger.Pool(tenantdb.PoolName(id)))

	writeJSON(w, http.StatusOK, provisionResponse{Tenant: id, Evicted: evicted})
}
