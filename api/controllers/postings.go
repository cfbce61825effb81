package controllers

import (
	"net/http"
	"strings"

	"github.com/minsukang/dalligo-backend/api/middleware"
	"github.com/minsukang/dalligo-backend/api/responses"
	"github.com/minsukang/dalligo-backend/api/validators"
	"github.com/minsukang/dalligo-backend/internal/matching"
	"github.com/minsukang/dalligo-backend/internal/postings"
	"github.com/minsukang/dalligo-backend/pkg/enums"
	pkgerrors "github.com/minsukang/dalligo-backend/pkg/errors"
	"github.com/minsukang/dalligo-backend/pkg/logger"
	"github.com/minsukang/dalligo-backend/pkg/pagination"
)

// CreatePosting opens a new posting for the acting user on the role's side
// of the marketplace.
func CreatePosting(svc *postings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role, err := pathRole(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actorID, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if role == enums.PostingRoleShopper {
			var input postings.CreateShopperPostingInput
			if err := validators.DecodeJSONBody(r, &input); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			posting, err := svc.CreateShopperPosting(r.Context(), actorID, input)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccessStatus(w, http.StatusCreated, posting)
			return
		}

		var input postings.CreateRunnerPostingInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		posting, err := svc.CreateRunnerPosting(r.Context(), actorID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, posting)
	}
}

// GetPosting returns one posting and counts the view.
func GetPosting(svc *postings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role, err := pathRole(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := pathID(r, "postingID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		viewerID := middleware.ActorIDFromContext(r.Context())

		if role == enums.PostingRoleShopper {
			posting, err := svc.GetShopperPosting(r.Context(), id, viewerID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, posting)
			return
		}

		posting, err := svc.GetRunnerPosting(r.Context(), id, viewerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, posting)
	}
}

// ListPostings returns a cursor page of postings for the role.
func ListPostings(svc *postings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role, err := pathRole(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		if role == enums.PostingRoleRunner {
			list, err := svc.ListRunnerPostings(r.Context(), params)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, list)
			return
		}

		filters := postings.ShopperPostingFilters{}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseMatchStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			filters.Status = &status
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("priority")); raw != "" {
			priority, err := enums.ParsePostingPriority(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid priority filter"))
				return
			}
			filters.Priority = &priority
		}

		list, err := svc.ListShopperPostings(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// DeletePosting soft-deletes the acting user's posting and its children.
func DeletePosting(svc *postings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role, err := pathRole(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := pathID(r, "postingID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actorID, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if role == enums.PostingRoleShopper {
			err = svc.DeleteShopperPosting(r.Context(), id, actorID)
		} else {
			err = svc.DeleteRunnerPosting(r.Context(), id, actorID)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"deleted": true})
	}
}

// ClosePosting fails an unmatched posting and all of its open bids.
func ClosePosting(engine *matching.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role, err := pathRole(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := pathID(r, "postingID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actorID, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := engine.ClosePosting(r.Context(), role, id, actorID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"closed": true})
	}
}

// GetMatchState returns the posting's status with its active request.
func GetMatchState(engine *matching.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role, err := pathRole(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := pathID(r, "postingID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		state, err := engine.PostingWithActiveRequest(r.Context(), role, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, state)
	}
}
