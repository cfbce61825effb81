package controllers

import (
	"net/http"

	"github.com/minsukang/dalligo-backend/api/responses"
	"github.com/minsukang/dalligo-backend/api/validators"
	"github.com/minsukang/dalligo-backend/internal/matching"
	"github.com/minsukang/dalligo-backend/pkg/enums"
	pkgerrors "github.com/minsukang/dalligo-backend/pkg/errors"
	"github.com/minsukang/dalligo-backend/pkg/logger"
)

type createRequestBody struct {
	PostingID        int64  `json:"postingId" validate:"required,gt=0"`
	ShopperPostingID *int64 `json:"shopperPostingId" validate:"omitempty,gt=0"`
}

// CreateRequest places the acting user's bid on an open posting.
func CreateRequest(engine *matching.Engine, logg *logger.Logger) http.HandlerFunc {
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
		var body createRequestBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if body.ShopperPostingID != nil && role != enums.PostingRoleRunner {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "shopperPostingId only applies to runner postings"))
			return
		}

		requestID, err := engine.CreateRequest(r.Context(), role, body.PostingID, actorID, body.ShopperPostingID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{"requestId": requestID})
	}
}

// AcceptRequest matches a bid and invalidates its siblings.
func AcceptRequest(engine *matching.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role, requestID, actorID, err := requestActionParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := engine.AcceptRequest(r.Context(), role, requestID, actorID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": enums.MatchStatusMatched})
	}
}

// RejectRequest invalidates a single open bid.
func RejectRequest(engine *matching.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role, requestID, actorID, err := requestActionParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := engine.RejectRequest(r.Context(), role, requestID, actorID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": enums.MatchStatusMatchFail})
	}
}

type advanceDeliveryBody struct {
	Target string `json:"target" validate:"required,oneof=DELIVERED_REQUEST DELIVERED REVIEW_REQUEST"`
}

// AdvanceDelivery moves a matched request one step along the delivery flow.
func AdvanceDelivery(engine *matching.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role, requestID, actorID, err := requestActionParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body advanceDeliveryBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		target, err := enums.ParseMatchStatus(body.Target)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid target status"))
			return
		}

		if err := engine.AdvanceDelivery(r.Context(), role, requestID, actorID, target); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": target})
	}
}

type submitReviewBody struct {
	Rating   int    `json:"rating" validate:"required,gte=1,lte=5"`
	Contents string `json:"contents" validate:"required,max=2000"`
}

// SubmitReview finishes a match: the review is recorded and the request
// reaches REVIEWED.
func SubmitReview(engine *matching.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role, requestID, actorID, err := requestActionParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body submitReviewBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := engine.SubmitReview(r.Context(), role, requestID, actorID, body.Rating, body.Contents); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": enums.MatchStatusReviewed})
	}
}

func requestActionParams(r *http.Request) (enums.PostingRole, int64, int64, error) {
	role, err := pathRole(r)
	if err != nil {
		return "", 0, 0, err
	}
	requestID, err := pathID(r, "requestID")
	if err != nil {
		return "", 0, 0, err
	}
	actorID, err := requireActor(r)
	if err != nil {
		return "", 0, 0, err
	}
	return role, requestID, actorID, nil
}
