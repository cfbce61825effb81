package postings

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/minsukang/dalligo-backend/internal/requests"
	"github.com/minsukang/dalligo-backend/pkg/db/models"
	"github.com/minsukang/dalligo-backend/pkg/enums"
	pkgerrors "github.com/minsukang/dalligo-backend/pkg/errors"
	"github.com/minsukang/dalligo-backend/pkg/logger"
	"github.com/minsukang/dalligo-backend/pkg/pagination"
)

// ViewMarker deduplicates posting views per viewer. Satisfied by the redis
// client; nil disables dedupe and counts every view.
type ViewMarker interface {
	ViewDedupeKey(role string, postingID, viewerID int64) string
	MarkViewed(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// Service exposes posting CRUD on top of the repository. Status changes are
// not part of this surface; those belong to the matching engine.
type Service struct {
	repo     Repository
	requests requests.Repository
	views    ViewMarker
	viewTTL  time.Duration
	log      *logger.Logger
	validate *validator.Validate
}

// NewService wires the postings service. views may be nil.
func NewService(repo Repository, requestRepo requests.Repository, views ViewMarker, viewTTL time.Duration, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		requests: requestRepo,
		views:    views,
		viewTTL:  viewTTL,
		log:      log,
		validate: validator.New(),
	}
}

func (s *Service) CreateShopperPosting(ctx context.Context, shopperID int64, input CreateShopperPostingInput) (*models.ShopperPosting, error) {
	if shopperID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shopper id is required")
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid posting payload")
	}

	priority := enums.PostingPriorityNormal
	if input.Priority != "" {
		parsed, err := enums.ParsePostingPriority(input.Priority)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid priority")
		}
		priority = parsed
	}

	posting := &models.ShopperPosting{
		ShopperID:         shopperID,
		Title:             input.Title,
		Contents:          input.Contents,
		Priority:          priority,
		Status:            enums.MatchStatusMatching,
		StartReceiveTime:  input.StartReceiveTime,
		EndReceiveTime:    input.EndReceiveTime,
		ReceiveDate:       input.ReceiveDate,
		ReceiveAddress:    input.ReceiveAddress,
		AdditionalMessage: input.AdditionalMessage,
		EstimatedPrice:    input.EstimatedPrice,
		RunnerTip:         input.RunnerTip,
	}
	for _, item := range input.Items {
		posting.Items = append(posting.Items, models.PostingItem{
			Name:  item.Name,
			Count: item.Count,
			Price: item.Price,
		})
	}
	for _, image := range input.Images {
		posting.Images = append(posting.Images, models.PostingImage{
			FileName: image.FileName,
			FileSize: image.FileSize,
			URL:      image.URL,
		})
	}
	return s.repo.CreateShopperPosting(ctx, posting)
}

func (s *Service) CreateRunnerPosting(ctx context.Context, runnerID int64, input CreateRunnerPostingInput) (*models.RunnerPosting, error) {
	if runnerID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "runner id is required")
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid posting payload")
	}
	radius, err := enums.ParseServiceRadius(input.Radius)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid service radius")
	}

	posting := &models.RunnerPosting{
		RunnerID:             runnerID,
		Message:              input.Message,
		EstimatedSchedule:    input.EstimatedSchedule,
		Introduce:            input.Introduce,
		Radius:               radius,
		Address:              input.Address,
		StartContactableTime: input.StartContactableTime,
		EndContactableTime:   input.EndContactableTime,
		Payments:             input.Payments,
	}
	return s.repo.CreateRunnerPosting(ctx, posting)
}

// GetShopperPosting loads a posting and counts the view. A viewer only bumps
// the counter once per dedupe window, and owners never bump their own.
func (s *Service) GetShopperPosting(ctx context.Context, id, viewerID int64) (*models.ShopperPosting, error) {
	posting, err := s.repo.FindShopperPosting(ctx, id, false)
	if err != nil {
		return nil, mapNotFound(err)
	}
	s.countView(ctx, enums.PostingRoleShopper, id, viewerID, posting.ShopperID)
	return posting, nil
}

func (s *Service) GetRunnerPosting(ctx context.Context, id, viewerID int64) (*models.RunnerPosting, error) {
	posting, err := s.repo.FindRunnerPosting(ctx, id, false)
	if err != nil {
		return nil, mapNotFound(err)
	}
	s.countView(ctx, enums.PostingRoleRunner, id, viewerID, posting.RunnerID)
	return posting, nil
}

func (s *Service) countView(ctx context.Context, role enums.PostingRole, postingID, viewerID, ownerID int64) {
	if viewerID <= 0 || viewerID == ownerID {
		return
	}
	if s.views != nil {
		key := s.views.ViewDedupeKey(role.String(), postingID, viewerID)
		first, err := s.views.MarkViewed(ctx, key, s.viewTTL)
		if err != nil {
			if s.log != nil {
				s.log.Warn(s.log.WithField(ctx, "posting_id", postingID), "view dedupe unavailable, counting raw view")
			}
		} else if !first {
			return
		}
	}

	var err error
	if role == enums.PostingRoleShopper {
		err = s.repo.IncrementShopperViewCount(ctx, postingID)
	} else {
		err = s.repo.IncrementRunnerViewCount(ctx, postingID)
	}
	if err != nil && s.log != nil {
		s.log.Error(ctx, "incrementing view count", err)
	}
}

func (s *Service) ListShopperPostings(ctx context.Context, params pagination.Params, filters ShopperPostingFilters) (*ShopperPostingList, error) {
	return s.repo.ListShopperPostings(ctx, params, filters)
}

func (s *Service) ListRunnerPostings(ctx context.Context, params pagination.Params) (*RunnerPostingList, error) {
	return s.repo.ListRunnerPostings(ctx, params)
}

// DeleteShopperPosting soft-deletes the posting and its children. Postings in
// the middle of a delivery cannot be removed.
func (s *Service) DeleteShopperPosting(ctx context.Context, id, actorID int64) error {
	posting, err := s.repo.FindShopperPosting(ctx, id, false)
	if err != nil {
		return mapNotFound(err)
	}
	if posting.ShopperID != actorID {
		return pkgerrors.New(pkgerrors.CodeNotOwner, "only the posting owner may delete it")
	}
	if inFlight(posting.Status) {
		return pkgerrors.New(pkgerrors.CodeInvalidTransition, "posting has an active match")
	}
	return s.repo.SoftDeleteShopperPosting(ctx, id)
}

func (s *Service) DeleteRunnerPosting(ctx context.Context, id, actorID int64) error {
	posting, err := s.repo.FindRunnerPosting(ctx, id, false)
	if err != nil {
		return mapNotFound(err)
	}
	if posting.RunnerID != actorID {
		return pkgerrors.New(pkgerrors.CodeNotOwner, "only the posting owner may delete it")
	}
	if posting.ClaimedShopperID != nil {
		active, err := s.requests.FindActiveRunnerRequest(ctx, id)
		if err == nil && inFlight(active.Status) {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition, "posting has an active match")
		}
		if err != nil && !stderrors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
	}
	return s.repo.SoftDeleteRunnerPosting(ctx, id)
}

// inFlight reports whether a match is underway but not finished.
func inFlight(status enums.MatchStatus) bool {
	switch status {
	case enums.MatchStatusMatched, enums.MatchStatusDeliveredRequest,
		enums.MatchStatusDelivered, enums.MatchStatusReviewRequest:
		return true
	}
	return false
}

func mapNotFound(err error) error {
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "posting not found")
	}
	return err
}
