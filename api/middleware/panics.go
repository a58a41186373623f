package middleware

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/dvelichkov/storefront/api/web"
	"github.com/dvelichkov/storefront/api/weberr"
)

func Panics() web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) (err error) {

			defer func() {
				if rec := recover(); rec != nil {
					trace := debug.Stack()
					err = weberr.InternalError(fmt.Errorf("PANIC [%v] TRACE[%s]", rec, string(trace)))
				}
			}()

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}
