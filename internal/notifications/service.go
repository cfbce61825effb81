package notifications

import (
	"context"

	"github.com/minsukang/dalligo-backend/internal/matching"
	"github.com/minsukang/dalligo-backend/pkg/db/models"
	pkgerrors "github.com/minsukang/dalligo-backend/pkg/errors"
	"github.com/minsukang/dalligo-backend/pkg/logger"
)

// Service stores matching transition events as notification rows and serves
// them back to their recipients. It implements matching.Hook.
type Service struct {
	repo Repository
	log  *logger.Logger
}

// NewService wires the notifications service.
func NewService(repo Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Notify persists one notification for the event's recipient. Events arrive
// after commit; a write failure here is logged and dropped rather than
// bubbled back into the finished operation.
func (s *Service) Notify(ctx context.Context, event matching.TransitionEvent) {
	if event.RecipientID <= 0 {
		return
	}
	row := &models.Notification{
		RecipientID: event.RecipientID,
		Kind:        event.Kind,
		Role:        event.Role,
		RequestID:   event.RequestID,
		PostingID:   event.PostingID,
		FromStatus:  event.From,
		ToStatus:    event.To,
		ActorID:     event.ActorID,
	}
	if err := s.repo.Create(ctx, row); err != nil && s.log != nil {
		s.log.Error(ctx, "persisting notification", err)
	}
}

func (s *Service) List(ctx context.Context, recipientID int64, unreadOnly bool, limit int) ([]models.Notification, error) {
	if recipientID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "recipient id is required")
	}
	return s.repo.ListForRecipient(ctx, recipientID, unreadOnly, limit)
}

func (s *Service) CountUnread(ctx context.Context, recipientID int64) (int64, error) {
	return s.repo.CountUnread(ctx, recipientID)
}

// MarkRead marks one notification as read. Marking someone else's
// notification, or one that does not exist, reports not found.
func (s *Service) MarkRead(ctx context.Context, recipientID, notificationID int64) error {
	affected, err := s.repo.MarkRead(ctx, recipientID, notificationID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found or already read")
	}
	return nil
}

func (s *Service) MarkAllRead(ctx context.Context, recipientID int64) (int64, error) {
	return s.repo.MarkAllRead(ctx, recipientID)
}
