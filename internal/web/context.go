package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/catalog/internal/core"
	mw "github.com/JonMunkholm/catalog/internal/web/middleware"
)

// withRequestMetadata copies the client IP into ctx for build reports.
func withRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	return core.ContextWithIPAddress(ctx, mw.ClientIP(r))
}
