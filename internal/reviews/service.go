package reviews

import (
	"context"
	stderrors "errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/minsukang/dalligo-backend/internal/matching"
	"github.com/minsukang/dalligo-backend/pkg/db/models"
	"github.com/minsukang/dalligo-backend/pkg/enums"
	pkgerrors "github.com/minsukang/dalligo-backend/pkg/errors"
	"github.com/minsukang/dalligo-backend/pkg/logger"
)

// Service persists reviews and maintains the target user's running rating
// and grade. It implements matching.ReviewRecorder, so the review write and
// the REVIEWED transition share one transaction.
type Service struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewService wires the reviews service.
func NewService(db *gorm.DB, log *logger.Logger) *Service {
	return &Service{db: db, log: log}
}

// Record inserts the review and folds its rating into the target's average
// inside the caller's transaction.
func (s *Service) Record(ctx context.Context, tx *gorm.DB, input matching.ReviewInput) error {
	conn := tx
	if conn == nil {
		conn = s.db
	}
	conn = conn.WithContext(ctx)

	review := &models.UserReview{
		TargetUserID: input.TargetID,
		WriterID:     input.WriterID,
		Contents:     input.Contents,
		Rating:       input.Rating,
	}
	if err := conn.Create(review).Error; err != nil {
		return err
	}
	return s.applyRating(ctx, conn, input.TargetID, input.WriterID, input.Rating)
}

// applyRating recomputes the target's average incrementally:
// new = (old*received + rating) / (received+1). Decimal arithmetic keeps the
// stored score stable across many small updates.
func (s *Service) applyRating(ctx context.Context, conn *gorm.DB, targetID, writerID int64, rating int) error {
	var target models.User
	if err := conn.Where("id = ?", targetID).First(&target).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			// Review targets may predate user sync; keep the review, skip the
			// counters.
			if s.log != nil {
				s.log.Warn(ctx, "review target has no user row, skipping rating update")
			}
			return nil
		}
		return err
	}

	received := decimal.NewFromInt(int64(target.ReviewsReceived))
	oldScore := decimal.NewFromFloat(target.RatingScore)
	newScore := oldScore.Mul(received).
		Add(decimal.NewFromInt(int64(rating))).
		Div(received.Add(decimal.NewFromInt(1))).
		Round(2)

	updates := map[string]any{
		"reviews_received": gorm.Expr("reviews_received + 1"),
		"rating_score":     newScore.InexactFloat64(),
		"runner_grade":     gradeFor(target.ReviewsReceived+1, newScore),
	}
	if err := conn.Model(&models.User{}).Where("id = ?", targetID).Updates(updates).Error; err != nil {
		return err
	}

	return conn.Model(&models.User{}).
		Where("id = ?", writerID).
		UpdateColumn("reviews_written", gorm.Expr("reviews_written + 1")).Error
}

// gradeFor maps review volume and score onto a runner grade tier.
func gradeFor(received int, score decimal.Decimal) enums.RunnerGrade {
	switch {
	case received >= 50 && score.GreaterThanOrEqual(decimal.NewFromFloat(4.5)):
		return enums.RunnerGradeBest
	case received >= 20 && score.GreaterThanOrEqual(decimal.NewFromFloat(4.0)):
		return enums.RunnerGradeExcellence
	case received >= 5:
		return enums.RunnerGradeEffort
	default:
		return enums.RunnerGradeNew
	}
}

// ListForUser returns the reviews written about a user, newest first.
func (s *Service) ListForUser(ctx context.Context, targetID int64, limit int) ([]models.UserReview, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var rows []models.UserReview
	err := s.db.WithContext(ctx).
		Preload("Comments").
		Where("target_user_id = ?", targetID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// AddComment attaches a follow-up comment to a review. Only the review's
// writer or its target may comment.
func (s *Service) AddComment(ctx context.Context, reviewID, writerID int64, contents string) (*models.UserReviewComment, error) {
	if contents == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "comment contents are required")
	}

	var review models.UserReview
	if err := s.db.WithContext(ctx).Where("id = ?", reviewID).First(&review).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "review not found")
		}
		return nil, err
	}
	if writerID != review.WriterID && writerID != review.TargetUserID {
		return nil, pkgerrors.New(pkgerrors.CodeNotOwner, "only the review parties may comment")
	}

	comment := &models.UserReviewComment{
		ReviewID: reviewID,
		WriterID: writerID,
		Contents: contents,
	}
	if err := s.db.WithContext(ctx).Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}
