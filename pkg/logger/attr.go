package logger

import "log/slog"

// Error records err under the key "error". A nil err yields an empty Attr,
// which slog drops.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// TenantID records the tenant identifier under the key "tenant_id".
func TenantID(id string) slog.Attr {
	return slog.String("tenant_id", id)
}

// Pool records a connection pool name under the key "pool".
func Pool(name string) slog.Attr {
	return slog.String("pool", name)
}

// Reason records why something happened, e.g. why a pool was evicted.
func Reason(reason string) slog.Attr {
	return slog.String("reason", reason)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// RequestID records the request identifier under the key "request_id".
func RequestID(id string) slog.Attr {
	return slog.String("request_id", id)
}
