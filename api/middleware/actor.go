package middleware

import (
	"context"
	"net/http"
	"strconv"

	"github.com/minsukang/dalligo-backend/pkg/logger"
)

// actorHeader identifies the acting user. Authentication itself happens
// upstream at the gateway; this service trusts the header it forwards.
const actorHeader = "X-User-Id"

type contextKey string

const ctxActorID contextKey = "actor_id"

// Actor extracts the acting user id from the request header into the
// context. Requests without the header proceed as anonymous (actor id 0);
// handlers that need an actor reject those themselves.
func Actor(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			raw := r.Header.Get(actorHeader)
			if raw != "" {
				if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
					ctx = context.WithValue(ctx, ctxActorID, id)
					if logg != nil {
						ctx = logg.WithUserID(ctx, id)
					}
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ActorIDFromContext returns the acting user id, or 0 when anonymous.
func ActorIDFromContext(ctx context.Context) int64 {
	if ctx == nil {
		return 0
	}
	if v, ok := ctx.Value(ctxActorID).(int64); ok {
		return v
	}
	return 0
}
