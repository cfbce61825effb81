package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/minsukang/dalligo-backend/pkg/enums"
)

// RunnerPosting is a delivery slot a runner offers; shoppers bid on it
// through RunnerRequest rows. The posting itself carries no status column:
// the runner-side lifecycle lives entirely on its requests, and a match is
// visible here only through ClaimedShopperID.
type RunnerPosting struct {
	ID                   int64               `gorm:"column:id;primaryKey;autoIncrement"`
	RunnerID             int64               `gorm:"column:runner_id;not null;index"`
	ClaimedShopperID     *int64              `gorm:"column:claimed_shopper_id"`
	Message              string              `gorm:"column:message;type:text;not null"`
	EstimatedSchedule    string              `gorm:"column:estimated_schedule;type:text;not null"`
	Introduce            *string             `gorm:"column:introduce;type:text"`
	Radius               enums.ServiceRadius `gorm:"column:radius;type:text;not null"`
	Address              string              `gorm:"column:address;type:text;not null"`
	StartContactableTime string              `gorm:"column:start_contactable_time;type:text;not null"`
	EndContactableTime   string              `gorm:"column:end_contactable_time;type:text;not null"`
	Payments             string              `gorm:"column:payments;type:text;not null"`
	ViewCount            int                 `gorm:"column:view_count;not null;default:0"`
	LockVersion          int64               `gorm:"column:lock_version;not null;default:0"`
	Requests             []RunnerRequest     `gorm:"foreignKey:PostingID;constraint:OnDelete:CASCADE"`
	CreatedAt            time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time           `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt            gorm.DeletedAt      `gorm:"column:deleted_at;index"`
}

func (RunnerPosting) TableName() string { return "runner_postings" }
