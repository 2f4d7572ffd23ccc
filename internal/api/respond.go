package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Zaaim-Halim/Humano-sub001/pkg/tenant"
	"github.com/Zaaim-Halim/Humano-sub001/pkg/tenantdb"
	"github.com/Zaaim-Halim/Humano-sub001/pkg/tenantsource"
)

// Response is the envelope of every JSON body.
type Response struct {
	Data  any          `json:"data,omitempty"`
	Error *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

var errBadRequest = errors.New("malformed request body")

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Response{Data: data})
}

func writeError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Response{Error: &ErrorDetail{Code: code, Message: message(status, err)}})
}

// tenantErrorHandler renders boundary filter failures in the JSON envelope.
func tenantErrorHandler(w http.ResponseWriter, _ *http.Request, err error) {
	writeError(w, err)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, tenant.ErrInvalidIdentifier):
		return http.StatusBadRequest, "invalid_tenant"
	case errors.Is(err, tenant.ErrNoTenantInContext):
		return http.StatusBadRequest, "tenant_required"
	case errors.Is(err, tenant.ErrTenantNotFound):
		return http.StatusNotFound, "tenant_not_found"
	case errors.Is(err, tenantdb.ErrPoolNotFound):
		return http.StatusNotFound, "pool_not_found"
	case errors.Is(err, tenantdb.ErrInvalidConnectionConfig):
		return http.StatusUnprocessableEntity, "invalid_connection_config"
	case errors.Is(err, errProvisioningDisabled), errors.Is(err, tenantsource.ErrReadOnly):
		return http.StatusNotImplemented, "provisioning_disabled"
	case errors.Is(err, tenant.ErrProvisioningFailed),
		errors.Is(err, tenantdb.ErrRegistryClosed),
		errors.Is(err, tenantsource.ErrLoadFailed),
		errors.Is(err, tenantsource.ErrDecryptFailed):
		return http.StatusServiceUnavailable, "tenant_database_unavailable"
	}
	return http.StatusInternalServerError, "internal_error"
}

// message hides internals of server errors; client errors carry their text.
func message(status int, err error) string {
	if status >= http.StatusInternalServerError {
		return http.StatusText(status)
	}
	return err.Error()
}
