package controllers

import (
	"net/http"

	"github.com/minsukang/dalligo-backend/api/responses"
	"github.com/minsukang/dalligo-backend/pkg/db"
	pkgerrors "github.com/minsukang/dalligo-backend/pkg/errors"
	"github.com/minsukang/dalligo-backend/pkg/logger"
	"github.com/minsukang/dalligo-backend/pkg/redis"
)

// Healthz verifies the datasources are reachable.
func Healthz(database db.Pinger, cache redis.Pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if database != nil {
			if err := database.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unreachable"))
				return
			}
		}
		if cache != nil {
			if err := cache.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis unreachable"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ok"})
	}
}
