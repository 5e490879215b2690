package middlewares

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/jcmexdev/storefront-cart/internal/pkg/interceptors"
	"github.com/jcmexdev/storefront-cart/internal/pkg/interceptors/constants"
)

// AttachRequestMetadata copies chi's request id into the context key the
// logger reads, and echoes it back in the X-Request-Id response header.
// It must run after middleware.RequestID.
func AttachRequestMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := middleware.GetReqID(r.Context())
		if requestID == "" {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set(constants.HeaderXRequestId, requestID)
		ctx := interceptors.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
