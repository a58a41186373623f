package middleware

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/dvelichkov/storefront/api/web"
	"github.com/dvelichkov/storefront/api/weberr"
)

// Admin gates back-office routes on a pre-shared bearer token. The real
// authentication system sits in front of this service and injects it.
func Admin(token string) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			if token == "" {
				return weberr.NotAuthorized(errors.New("admin access is not configured"))
			}

			got := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				return weberr.NotAuthorized(errors.New("invalid admin token"))
			}

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}
