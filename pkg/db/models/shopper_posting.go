package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/minsukang/dalligo-backend/pkg/enums"
)

// ShopperPosting is an order a shopper wants fulfilled; runners bid on it
// through ShopperRequest rows. Status is owned exclusively by the matching
// engine.
type ShopperPosting struct {
	ID                int64                 `gorm:"column:id;primaryKey;autoIncrement"`
	ShopperID         int64                 `gorm:"column:shopper_id;not null;index"`
	Title             string                `gorm:"column:title;type:text;not null"`
	Contents          string                `gorm:"column:contents;type:text;not null"`
	Priority          enums.PostingPriority `gorm:"column:priority;type:text;not null;default:'NORMAL'"`
	Status            enums.MatchStatus     `gorm:"column:status;type:text;not null;default:'MATCHING'"`
	StartReceiveTime  string                `gorm:"column:start_receive_time;type:text;not null"`
	EndReceiveTime    string                `gorm:"column:end_receive_time;type:text;not null"`
	ReceiveDate       *time.Time            `gorm:"column:receive_date"`
	ReceiveAddress    string                `gorm:"column:receive_address;type:text;not null"`
	AdditionalMessage *string               `gorm:"column:additional_message;type:text"`
	EstimatedPrice    int                   `gorm:"column:estimated_price;not null;default:0"`
	TotalPrice        *int                  `gorm:"column:total_price"`
	RunnerTip         int                   `gorm:"column:runner_tip;not null;default:0"`
	ViewCount         int                   `gorm:"column:view_count;not null;default:0"`
	LockVersion       int64                 `gorm:"column:lock_version;not null;default:0"`
	Items             []PostingItem         `gorm:"foreignKey:PostingID;constraint:OnDelete:CASCADE"`
	Images            []PostingImage        `gorm:"foreignKey:PostingID;constraint:OnDelete:CASCADE"`
	Requests          []ShopperRequest      `gorm:"foreignKey:PostingID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time             `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt         gorm.DeletedAt        `gorm:"column:deleted_at;index"`
}

// PostingItem is a line entry on a shopper posting. Inert child record;
// cleaned up with the posting.
type PostingItem struct {
	ID        int64          `gorm:"column:id;primaryKey;autoIncrement"`
	PostingID int64          `gorm:"column:posting_id;not null;index"`
	Name      string         `gorm:"column:name;type:text;not null"`
	Count     int            `gorm:"column:count;not null;default:1"`
	Price     int            `gorm:"column:price;not null;default:0"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

// PostingImage is an attached image on a shopper posting. Inert child record.
type PostingImage struct {
	ID        int64          `gorm:"column:id;primaryKey;autoIncrement"`
	PostingID int64          `gorm:"column:posting_id;not null;index"`
	FileName  string         `gorm:"column:file_name;type:text;not null"`
	FileSize  int            `gorm:"column:file_size;not null;default:0"`
	URL       string         `gorm:"column:url;type:text;not null"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (ShopperPosting) TableName() string { return "shopper_postings" }
func (PostingItem) TableName() string    { return "posting_items" }
func (PostingImage) TableName() string   { return "posting_images" }
