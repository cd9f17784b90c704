package httputils

import (
	"log/slog"
	"net/http"

	"bookgate/internal/observability/logging"

	"github.com/rs/cors"
	"golang.org/x/exp/slices"
)

// corsMethods are the methods the API serves to browsers
var corsMethods = []string{
	http.MethodGet,
	http.MethodHead,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
}

// CORS allows credentialed browser requests from the given origins. A "*"
// entry accepts any origin; the request origin is echoed back since browsers
// refuse a wildcard together with credentials.
func CORS(allowedOrigins []string, logger *logging.Logger) func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   corsMethods,
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"X-Trace-ID"},
		AllowCredentials: true,
		MaxAge:           600,
	}
	if slices.Contains(allowedOrigins, "*") {
		opts.AllowedOrigins = nil
		opts.AllowOriginFunc = func(string) bool { return true }
	}
	if logger != nil {
		opts.Logger = slog.NewLogLogger(logger.WithModule("cors").Handler(), slog.LevelDebug)
	}
	return cors.New(opts).Handler
}
