package auth

import (
	"net/http"

	"bookgate/internal/httputils"
)

// ProfileHandler answers with the identity of the caller, or 401 when the
// request carries none
func ProfileHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := Authenticated(r.Context())
		if !ok {
			httputils.WriteUnauthorized(w)
			return
		}
		_ = httputils.WriteJSON(w, http.StatusOK, identity)
	})
}
