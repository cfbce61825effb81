package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/minsukang/dalligo-backend/api/middleware"
	"github.com/minsukang/dalligo-backend/api/validators"
	"github.com/minsukang/dalligo-backend/pkg/enums"
	pkgerrors "github.com/minsukang/dalligo-backend/pkg/errors"
)

// requireActor returns the acting user from the request context, or a
// validation error when the X-User-Id header was absent.
func requireActor(r *http.Request) (int64, error) {
	actorID := middleware.ActorIDFromContext(r.Context())
	if actorID <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "acting user header is required")
	}
	return actorID, nil
}

// pathRole parses the {role} URL parameter. Lowercase path segments are
// accepted ("shopper", "runner").
func pathRole(r *http.Request) (enums.PostingRole, error) {
	raw := strings.ToUpper(chi.URLParam(r, "role"))
	role, err := enums.ParsePostingRole(raw)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid posting role")
	}
	return role, nil
}

func pathID(r *http.Request, name string) (int64, error) {
	return validators.ParsePathID(chi.URLParam(r, name))
}
