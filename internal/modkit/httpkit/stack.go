package httpkit

import (
	"compress/flate"
	"net/http"
	"time"

	"stackscout/internal/platform/net/middleware"
)

// RequestTimeout bounds every API request
// POST /analysis/sweeps answers before the sweep runs so this stays short
const RequestTimeout = 30 * time.Second

// CommonStack is the middleware every /api/v1 request passes through, outermost first
func CommonStack() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		middleware.RequestID(),
		middleware.RealIP(),
		middleware.RecoverJSON,
		middleware.AccessLog(middleware.AccessLogOptions{Slow: 500 * time.Millisecond}),
		middleware.NoCache(),
		middleware.CORS(middleware.CORSOptions{}),
		middleware.Compress(flate.BestSpeed),
		middleware.StripSlashes(),
		middleware.Timeout(RequestTimeout),
	}
}
