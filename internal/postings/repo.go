package postings

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/minsukang/dalligo-backend/pkg/db/models"
	"github.com/minsukang/dalligo-backend/pkg/enums"
	pkgerrors "github.com/minsukang/dalligo-backend/pkg/errors"
	"github.com/minsukang/dalligo-backend/pkg/pagination"
)

// Repository defines persistence operations for the two posting kinds.
// Status columns are written only through the versioned update methods; the
// matching engine is the sole caller of those.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateShopperPosting(ctx context.Context, posting *models.ShopperPosting) (*models.ShopperPosting, error)
	CreateRunnerPosting(ctx context.Context, posting *models.RunnerPosting) (*models.RunnerPosting, error)
	FindShopperPosting(ctx context.Context, id int64, includeDeleted bool) (*models.ShopperPosting, error)
	FindRunnerPosting(ctx context.Context, id int64, includeDeleted bool) (*models.RunnerPosting, error)
	ListShopperPostings(ctx context.Context, params pagination.Params, filters ShopperPostingFilters) (*ShopperPostingList, error)
	ListRunnerPostings(ctx context.Context, params pagination.Params) (*RunnerPostingList, error)
	UpdateShopperPostingStatus(ctx context.Context, id, expectedVersion int64, status enums.MatchStatus) error
	ClaimRunnerPosting(ctx context.Context, id, expectedVersion, shopperID int64) error
	IncrementShopperViewCount(ctx context.Context, id int64) error
	IncrementRunnerViewCount(ctx context.Context, id int64) error
	SoftDeleteShopperPosting(ctx context.Context, id int64) error
	SoftDeleteRunnerPosting(ctx context.Context, id int64) error
	FindExpiredOpenShopperPostings(ctx context.Context, cutoff time.Time, limit int) ([]models.ShopperPosting, error)
}

// ShopperPostingFilters narrows shopper posting listings.
type ShopperPostingFilters struct {
	Status   *enums.MatchStatus
	Priority *enums.PostingPriority
	Shopper  *int64
}

// ShopperPostingList wraps a page of shopper postings.
type ShopperPostingList struct {
	Items  []models.ShopperPosting
	Cursor string
}

// RunnerPostingList wraps a page of runner postings.
type RunnerPostingList struct {
	Items  []models.RunnerPosting
	Cursor string
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a postings repository bound to the provided DB.
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

func (r *repository) CreateShopperPosting(ctx context.Context, posting *models.ShopperPosting) (*models.ShopperPosting, error) {
	if err := r.db.WithContext(ctx).Create(posting).Error; err != nil {
		return nil, err
	}
	return posting, nil
}

func (r *repository) CreateRunnerPosting(ctx context.Context, posting *models.RunnerPosting) (*models.RunnerPosting, error) {
	if err := r.db.WithContext(ctx).Create(posting).Error; err != nil {
		return nil, err
	}
	return posting, nil
}

func (r *repository) FindShopperPosting(ctx context.Context, id int64, includeDeleted bool) (*models.ShopperPosting, error) {
	var posting models.ShopperPosting
	err := r.scoped(ctx, includeDeleted).
		Preload("Items").
		Preload("Images").
		Where("id = ?", id).
		First(&posting).Error
	if err != nil {
		return nil, err
	}
	return &posting, nil
}

func (r *repository) FindRunnerPosting(ctx context.Context, id int64, includeDeleted bool) (*models.RunnerPosting, error) {
	var posting models.RunnerPosting
	err := r.scoped(ctx, includeDeleted).
		Where("id = ?", id).
		First(&posting).Error
	if err != nil {
		return nil, err
	}
	return &posting, nil
}

func (r *repository) ListShopperPostings(ctx context.Context, params pagination.Params, filters ShopperPostingFilters) (*ShopperPostingList, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	q := r.db.WithContext(ctx).Model(&models.ShopperPosting{})

	if filters.Status != nil {
		q = q.Where("status = ?", *filters.Status)
	}
	if filters.Priority != nil {
		q = q.Where("priority = ?", *filters.Priority)
	}
	if filters.Shopper != nil {
		q = q.Where("shopper_id = ?", *filters.Shopper)
	}
	if cursor, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, err
	} else if cursor != nil {
		q = q.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.ShopperPosting
	if err := q.Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}

	list := &ShopperPostingList{}
	pageSize := pagination.NormalizeLimit(params.Limit)
	if len(rows) > pageSize {
		rows = rows[:pageSize]
		last := rows[len(rows)-1]
		list.Cursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	list.Items = rows
	return list, nil
}

func (r *repository) ListRunnerPostings(ctx context.Context, params pagination.Params) (*RunnerPostingList, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	q := r.db.WithContext(ctx).Model(&models.RunnerPosting{})

	if cursor, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, err
	} else if cursor != nil {
		q = q.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.RunnerPosting
	if err := q.Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}

	list := &RunnerPostingList{}
	pageSize := pagination.NormalizeLimit(params.Limit)
	if len(rows) > pageSize {
		rows = rows[:pageSize]
		last := rows[len(rows)-1]
		list.Cursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	list.Items = rows
	return list, nil
}

// UpdateShopperPostingStatus applies a versioned status write. A stale
// expectedVersion yields CodeVersionConflict; a missing row yields
// CodeNotFound.
func (r *repository) UpdateShopperPostingStatus(ctx context.Context, id, expectedVersion int64, status enums.MatchStatus) error {
	res := r.db.WithContext(ctx).
		Model(&models.ShopperPosting{}).
		Where("id = ? AND lock_version = ?", id, expectedVersion).
		Updates(map[string]any{
			"status":       status,
			"lock_version": gorm.Expr("lock_version + 1"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return r.disambiguateMiss(ctx, &models.ShopperPosting{}, id)
	}
	return nil
}

// ClaimRunnerPosting marks the runner posting as claimed by the matched
// shopper. Runner postings carry no status column, so this claim is the
// posting-level record of a match.
func (r *repository) ClaimRunnerPosting(ctx context.Context, id, expectedVersion, shopperID int64) error {
	res := r.db.WithContext(ctx).
		Model(&models.RunnerPosting{}).
		Where("id = ? AND lock_version = ?", id, expectedVersion).
		Updates(map[string]any{
			"claimed_shopper_id": shopperID,
			"lock_version":       gorm.Expr("lock_version + 1"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return r.disambiguateMiss(ctx, &models.RunnerPosting{}, id)
	}
	return nil
}

func (r *repository) disambiguateMiss(ctx context.Context, model any, id int64) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "posting not found")
	}
	return pkgerrors.New(pkgerrors.CodeVersionConflict, "posting modified concurrently")
}

func (r *repository) IncrementShopperViewCount(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).
		Model(&models.ShopperPosting{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
}

func (r *repository) IncrementRunnerViewCount(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).
		Model(&models.RunnerPosting{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
}

// SoftDeleteShopperPosting removes the posting together with its child
// records. The request cleanup is deliberately explicit rather than left to
// foreign-key behavior, so the cascade is observable and testable.
func (r *repository) SoftDeleteShopperPosting(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&models.ShopperPosting{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := tx.Where("posting_id = ?", id).Delete(&models.ShopperRequest{}).Error; err != nil {
			return err
		}
		if err := tx.Where("posting_id = ?", id).Delete(&models.PostingItem{}).Error; err != nil {
			return err
		}
		return tx.Where("posting_id = ?", id).Delete(&models.PostingImage{}).Error
	})
}

// SoftDeleteRunnerPosting removes the posting and its requests.
func (r *repository) SoftDeleteRunnerPosting(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&models.RunnerPosting{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("posting_id = ?", id).Delete(&models.RunnerRequest{}).Error
	})
}

// FindExpiredOpenShopperPostings returns open postings whose receive window
// closed before the cutoff. Used by the expiry worker.
func (r *repository) FindExpiredOpenShopperPostings(ctx context.Context, cutoff time.Time, limit int) ([]models.ShopperPosting, error) {
	var rows []models.ShopperPosting
	err := r.db.WithContext(ctx).
		Where("status IN ?", []enums.MatchStatus{enums.MatchStatusMatching, enums.MatchStatusRequesting}).
		Where("receive_date IS NOT NULL AND receive_date < ?", cutoff).
		Order("receive_date ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// IsNotFound reports whether err is the store-level missing-record error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound) || pkgerrors.HasCode(err, pkgerrors.CodeNotFound)
}
