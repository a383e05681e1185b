// Package httpkit composes the platform HTTP stack for API modules
package httpkit

import (
	"net/http"
	"time"

	perr "cleanse/internal/platform/errors"
	"cleanse/internal/platform/logger"
	phttp "cleanse/internal/platform/net/http"
	pstrings "cleanse/internal/platform/strings"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Router aliases the platform router so modules import one package
type Router = phttp.Router

// CommonStack returns the baseline per-module middleware slice
func CommonStack() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		chimw.RequestID,
		chimw.RealIP,
		RequestContext,
		RecoverJSON,
		chimw.NoCache,
		AccessLog,
		cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			MaxAge:         300,
		}),
		chimw.Compress(5),
		chimw.StripSlashes,
		chimw.Timeout(30 * time.Second),
	}
}

// RequestContext seeds logger context fields from the request id so
// logger.C(ctx) lines correlate with the response envelope
func RequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logger.WithRequest(r.Context(), chimw.GetReqID(r.Context()), "")
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RecoverJSON turns handler panics into a JSON 500 envelope
func RecoverJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.C(r.Context()).Error().Any("panic", rec).Msg("handler panicked")
				phttp.RespondError(w, r, perr.PanicErrf("internal error"))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// AccessLog emits one structured line per request
func AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logger.C(r.Context()).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("http request")
	})
}

// MountAPI mounts a subrouter under /api/{version} with per-scope middleware
func MountAPI(r Router, version string, mw []func(http.Handler) http.Handler, mount func(Router)) {
	ver := pstrings.MustPrefix(version)
	r.Route(pstrings.MustPrefix("api"+ver), func(api Router) {
		if len(mw) > 0 {
			api.Use(mw...)
		}
		mount(api)
	})
}

// MountAPIV1 is a convenience for MountAPI with version v1
func MountAPIV1(r Router, mw []func(http.Handler) http.Handler, mount func(Router)) {
	MountAPI(r, "v1", mw, mount)
}
