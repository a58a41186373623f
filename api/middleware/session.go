package middleware

import (
	"context"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/dvelichkov/storefront/api/web"
)

// Session adapts the scs load/commit cycle to our handler signature. The
// cart lives inside the session blob, so every route runs under it.
func Session(sm *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			var err error
			wrapped := sm.LoadAndSave(http.HandlerFunc(func(ww http.ResponseWriter, rr *http.Request) {
				err = handler(rr.Context(), ww, rr)
			}))
			wrapped.ServeHTTP(w, r)

			return err
		}
		return h
	}
	return m
}
