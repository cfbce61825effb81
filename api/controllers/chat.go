package controllers

import (
	"net/http"

	"github.com/minsukang/dalligo-backend/api/responses"
	"github.com/minsukang/dalligo-backend/api/validators"
	"github.com/minsukang/dalligo-backend/internal/chat"
	pkgerrors "github.com/minsukang/dalligo-backend/pkg/errors"
	"github.com/minsukang/dalligo-backend/pkg/logger"
)

type openRoomBody struct {
	MemberIDs []int64 `json:"memberIds" validate:"required,min=2,dive,gt=0"`
}

// OpenChatRoom returns the room for a member set, creating it on first use.
// The acting user must be one of the members.
func OpenChatRoom(svc *chat.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body openRoomBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		isMember := false
		for _, id := range body.MemberIDs {
			if id == actorID {
				isMember = true
				break
			}
		}
		if !isMember {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeNotOwner, "acting user must be a room member"))
			return
		}

		room, err := svc.OpenRoom(r.Context(), body.MemberIDs)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, room)
	}
}

// ListChatRooms returns the acting user's rooms.
func ListChatRooms(svc *chat.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rooms, err := svc.ListRoomsForUser(r.Context(), actorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rooms)
	}
}

type sendMessageBody struct {
	Contents string `json:"contents" validate:"required,max=4000"`
	Type     string `json:"type" validate:"omitempty,oneof=TEXT IMAGE"`
}

// SendChatMessage appends a message to a room the acting user belongs to.
func SendChatMessage(svc *chat.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		roomID, err := pathID(r, "roomID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body sendMessageBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		msg, err := svc.SendMessage(r.Context(), roomID, actorID, body.Contents, body.Type)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, msg)
	}
}

// ListChatMessages returns a room's messages for the acting user.
func ListChatMessages(svc *chat.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		roomID, err := pathID(r, "roomID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, 200)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		msgs, err := svc.ListMessages(r.Context(), roomID, actorID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, msgs)
	}
}
