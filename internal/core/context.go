package core

import "context"

type contextKey string

const ctxKeyIPAddress contextKey = "client_ip"

// ContextWithIPAddress records the client address so build reports can
// say who triggered an import or refresh.
func ContextWithIPAddress(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ctxKeyIPAddress, ip)
}

// GetIPAddressFromContext extracts the client address, or "".
func GetIPAddressFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyIPAddress).(string); ok {
		return v
	}
	return ""
}
