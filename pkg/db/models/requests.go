package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/minsukang/dalligo-backend/pkg/enums"
)

// ShopperRequest is a runner's bid against a shopper posting. Its status
// mirrors the posting's status once the bid is accepted.
type ShopperRequest struct {
	ID          int64             `gorm:"column:id;primaryKey;autoIncrement"`
	PostingID   int64             `gorm:"column:posting_id;not null;index"`
	RunnerID    int64             `gorm:"column:runner_id;not null;index"`
	Status      enums.MatchStatus `gorm:"column:status;type:text;not null;default:'REQUESTING'"`
	LockVersion int64             `gorm:"column:lock_version;not null;default:0"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt   gorm.DeletedAt    `gorm:"column:deleted_at;index"`
}

// RunnerRequest is a shopper's bid against a runner posting. It may
// optionally reference the shopper's own open posting; the link is recorded
// but does not drive the shopper posting's lifecycle.
type RunnerRequest struct {
	ID               int64             `gorm:"column:id;primaryKey;autoIncrement"`
	PostingID        int64             `gorm:"column:posting_id;not null;index"`
	ShopperID        int64             `gorm:"column:shopper_id;not null;index"`
	ShopperPostingID *int64            `gorm:"column:shopper_posting_id"`
	Status           enums.MatchStatus `gorm:"column:status;type:text;not null;default:'REQUESTING'"`
	LockVersion      int64             `gorm:"column:lock_version;not null;default:0"`
	CreatedAt        time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time         `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt        gorm.DeletedAt    `gorm:"column:deleted_at;index"`
}

func (ShopperRequest) TableName() string { return "shopper_requests" }
func (RunnerRequest) TableName() string  { return "runner_requests" }
