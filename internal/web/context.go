package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/soccerstat/internal/core"
	mw "github.com/JonMunkholm/soccerstat/internal/web/middleware"
)

// WithRequestMetadata adds the client IP and User-Agent to ctx for the run
// record.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ctx = core.ContextWithIPAddress(ctx, mw.ClientIP(r))
	ctx = core.ContextWithUserAgent(ctx, r.UserAgent())
	return ctx
}
