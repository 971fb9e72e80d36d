package middleware

import (
	"log/slog"
	"net/http"
)

// Middleware is a function that wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

// Chain combines middleware so that Chain(mw1, mw2)(h) == mw1(mw2(h)).
func Chain(mws ...Middleware) Middleware {
	return func(final http.Handler) http.Handler {
		for i := len(mws) - 1; i >= 0; i-- {
			final = mws[i](final)
		}
		return final
	}
}

// Standard is the stack every local listener runs behind: request id,
// access log, panic recovery.
func Standard(logger *slog.Logger) Middleware {
	return Chain(RequestID(), Logger(logger), Recovery(logger))
}
