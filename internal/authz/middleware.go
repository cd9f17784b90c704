package authz

import (
	"net/http"

	"bookgate/internal/auth"
	"bookgate/internal/httputils"
	"bookgate/internal/observability/logging"
	"bookgate/internal/observability/metrics"
)

// Middleware gates next on the decision of authorize for object and actions.
// Authorizer implementations share it so that every decision maps to the
// same status codes.
func Middleware(authorize func(*Request) *Response, object string, actions []string, logger *logging.Logger, metrics *metrics.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			logger := logging.FromContext(ctx, logger)

			response := authorize(&Request{
				Identity: auth.IdentityFromContext(ctx),
				Object:   object,
				Actions:  actions,
				Context:  ctx,
			})
			metrics.RecordAuthorization(object, response.Decision.String())

			switch response.Decision {
			case Allow:
				logger.Debug("Authorization successful", "object", object, "actions", actions)
				next.ServeHTTP(w, r)
			case Deny:
				logger.Info("Authorization failed: permission denied",
					"object", object,
					"actions", actions,
					"reason", response.Reason,
				)
				httputils.WriteForbidden(w)
			case Unauthorized:
				logger.Info("Authorization failed: unauthorized", "reason", response.Reason)
				httputils.WriteUnauthorized(w)
			default:
				logger.Error("Authorization failed: error", logging.Err(response.Error))
				httputils.WriteError(w, http.StatusServiceUnavailable, "Authorization service unavailable")
			}
		})
	}
}
