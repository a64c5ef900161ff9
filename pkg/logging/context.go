package logging

import "context"

// Context keys for common log fields.
type contextKey string

const (
	// RequestIDKey is the context key for request IDs.
	RequestIDKey contextKey = "request_id"

	// OrganizationKey is the context key for the resolved tenant.
	OrganizationKey contextKey = "organization"

	// ServiceKey is the context key for the classified service kind.
	ServiceKey contextKey = "service"
)

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// WithOrganization adds the resolved tenant to the context.
func WithOrganization(ctx context.Context, org string) context.Context {
	return context.WithValue(ctx, OrganizationKey, org)
}

// GetOrganization retrieves the resolved tenant from the context.
func GetOrganization(ctx context.Context) string {
	if org, ok := ctx.Value(OrganizationKey).(string); ok {
		return org
	}
	return ""
}

// WithService adds the classified service kind to the context.
func WithService(ctx context.Context, service string) context.Context {
	return context.WithValue(ctx, ServiceKey, service)
}

// GetService retrieves the classified service kind from the context.
func GetService(ctx context.Context) string {
	if service, ok := ctx.Value(ServiceKey).(string); ok {
		return service
	}
	return ""
}

// extractContextFields pulls the known fields out of the context as slog
// key-value args. Absent fields produce nothing.
func extractContextFields(ctx context.Context) []any {
	if ctx == nil {
		return nil
	}
	var fields []any
	if v := GetRequestID(ctx); v != "" {
		fields = append(fields, "request_id", v)
	}
	if v := GetOrganization(ctx); v != "" {
		fields = append(fields, "organization", v)
	}
	if v := GetService(ctx); v != "" {
		fields = append(fields, "service", v)
	}
	return fields
}
