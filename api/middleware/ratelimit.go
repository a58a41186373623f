package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/dvelichkov/storefront/api/web"
	"github.com/dvelichkov/storefront/api/weberr"
	"github.com/dvelichkov/storefront/rate"
)

// RateLimit throttles a route per browser session. Sessions without a
// token yet fall back to the remote address.
func RateLimit(l *rate.Limiter, sm *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			key := sm.Token(ctx)
			if key == "" {
				key = r.RemoteAddr
			}

			if !l.Allow(key) {
				err := errors.New("rate limit exceeded")
				return weberr.NewError(err, "too many requests, slow down", http.StatusTooManyRequests)
			}

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}
