package requests

import (
	"context"

	"gorm.io/gorm"

	"github.com/minsukang/dalligo-backend/pkg/db/models"
	"github.com/minsukang/dalligo-backend/pkg/enums"
	pkgerrors "github.com/minsukang/dalligo-backend/pkg/errors"
)

// Repository defines persistence operations for both request kinds. As with
// postings, status writes go through the versioned methods only.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateShopperRequest(ctx context.Context, req *models.ShopperRequest) (*models.ShopperRequest, error)
	CreateRunnerRequest(ctx context.Context, req *models.RunnerRequest) (*models.RunnerRequest, error)
	FindShopperRequest(ctx context.Context, id int64, includeDeleted bool) (*models.ShopperRequest, error)
	FindRunnerRequest(ctx context.Context, id int64, includeDeleted bool) (*models.RunnerRequest, error)
	ListShopperRequestsForPosting(ctx context.Context, postingID int64) ([]models.ShopperRequest, error)
	ListRunnerRequestsForPosting(ctx context.Context, postingID int64) ([]models.RunnerRequest, error)
	FindOpenShopperRequest(ctx context.Context, postingID, runnerID int64) (*models.ShopperRequest, error)
	FindOpenRunnerRequest(ctx context.Context, postingID, shopperID int64) (*models.RunnerRequest, error)
	FindActiveShopperRequest(ctx context.Context, postingID int64) (*models.ShopperRequest, error)
	FindActiveRunnerRequest(ctx context.Context, postingID int64) (*models.RunnerRequest, error)
	UpdateShopperRequestStatus(ctx context.Context, id, expectedVersion int64, status enums.MatchStatus) error
	UpdateRunnerRequestStatus(ctx context.Context, id, expectedVersion int64, status enums.MatchStatus) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a requests repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) scoped(ctx context.Context, includeDeleted bool) *gorm.DB {
	q := r.db.WithContext(ctx)
	if includeDeleted {
		q = q.Unscoped()
	}
	return q
}

func (r *repository) CreateShopperRequest(ctx context.Context, req *models.ShopperRequest) (*models.ShopperRequest, error) {
	if err := r.db.WithContext(ctx).Create(req).Error; err != nil {
		return nil, err
	}
	return req, nil
}

func (r *repository) CreateRunnerRequest(ctx context.Context, req *models.RunnerRequest) (*models.RunnerRequest, error) {
	if err := r.db.WithContext(ctx).Create(req).Error; err != nil {
		return nil, err
	}
	return req, nil
}

func (r *repository) FindShopperRequest(ctx context.Context, id int64, includeDeleted bool) (*models.ShopperRequest, error) {
	var req models.ShopperRequest
	if err := r.scoped(ctx, includeDeleted).Where("id = ?", id).First(&req).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *repository) FindRunnerRequest(ctx context.Context, id int64, includeDeleted bool) (*models.RunnerRequest, error) {
	var req models.RunnerRequest
	if err := r.scoped(ctx, includeDeleted).Where("id = ?", id).First(&req).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *repository) ListShopperRequestsForPosting(ctx context.Context, postingID int64) ([]models.ShopperRequest, error) {
	var rows []models.ShopperRequest
	err := r.db.WithContext(ctx).
		Where("posting_id = ?", postingID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListRunnerRequestsForPosting(ctx context.Context, postingID int64) ([]models.RunnerRequest, error) {
	var rows []models.RunnerRequest
	err := r.db.WithContext(ctx).
		Where("posting_id = ?", postingID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// FindOpenShopperRequest returns the runner's live bid on the posting, if
// any. Used to stop duplicate bids from the same runner.
func (r *repository) FindOpenShopperRequest(ctx context.Context, postingID, runnerID int64) (*models.ShopperRequest, error) {
	var req models.ShopperRequest
	err := r.db.WithContext(ctx).
		Where("posting_id = ? AND runner_id = ? AND status <> ?", postingID, runnerID, enums.MatchStatusMatchFail).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *repository) FindOpenRunnerRequest(ctx context.Context, postingID, shopperID int64) (*models.RunnerRequest, error) {
	var req models.RunnerRequest
	err := r.db.WithContext(ctx).
		Where("posting_id = ? AND shopper_id = ? AND status <> ?", postingID, shopperID, enums.MatchStatusMatchFail).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// FindActiveShopperRequest returns the request that carries the posting's
// ongoing match, i.e. the one past REQUESTING that has not failed.
func (r *repository) FindActiveShopperRequest(ctx context.Context, postingID int64) (*models.ShopperRequest, error) {
	var req models.ShopperRequest
	err := r.db.WithContext(ctx).
		Where("posting_id = ? AND status NOT IN ?", postingID,
			[]enums.MatchStatus{enums.MatchStatusRequesting, enums.MatchStatusMatchFail}).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *repository) FindActiveRunnerRequest(ctx context.Context, postingID int64) (*models.RunnerRequest, error) {
	var req models.RunnerRequest
	err := r.db.WithContext(ctx).
		Where("posting_id = ? AND status NOT IN ?", postingID,
			[]enums.MatchStatus{enums.MatchStatusRequesting, enums.MatchStatusMatchFail}).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *repository) UpdateShopperRequestStatus(ctx context.Context, id, expectedVersion int64, status enums.MatchStatus) error {
	res := r.db.WithContext(ctx).
		Model(&models.ShopperRequest{}).
		Where("id = ? AND lock_version = ?", id, expectedVersion).
		Updates(map[string]any{
			"status":       status,
			"lock_version": gorm.Expr("lock_version + 1"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return r.disambiguateMiss(ctx, &models.ShopperRequest{}, id)
	}
	return nil
}

func (r *repository) UpdateRunnerRequestStatus(ctx context.Context, id, expectedVersion int64, status enums.MatchStatus) error {
	res := r.db.WithContext(ctx).
		Model(&models.RunnerRequest{}).
		Where("id = ? AND lock_version = ?", id, expectedVersion).
		Updates(map[string]any{
			"status":       status,
			"lock_version": gorm.Expr("lock_version + 1"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return r.disambiguateMiss(ctx, &models.RunnerRequest{}, id)
	}
	return nil
}

func (r *repository) disambiguateMiss(ctx context.Context, model any, id int64) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "request not found")
	}
	return pkgerrors.New(pkgerrors.CodeVersionConflict, "request modified concurrently")
}
