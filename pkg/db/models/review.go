package models

import (
	"time"

	"gorm.io/gorm"
)

// UserReview is the review a shopper leaves for a runner (or vice versa)
// when a matched order reaches its REVIEWED state.
type UserReview struct {
	ID           int64               `gorm:"column:id;primaryKey;autoIncrement"`
	TargetUserID int64               `gorm:"column:target_user_id;not null;index"`
	WriterID     int64               `gorm:"column:writer_id;not null;index"`
	Contents     string              `gorm:"column:contents;type:text;not null"`
	Rating       int                 `gorm:"column:rating;not null"`
	Comments     []UserReviewComment `gorm:"foreignKey:ReviewID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time           `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt    gorm.DeletedAt      `gorm:"column:deleted_at;index"`
}

// UserReviewComment is a follow-up comment attached to a review.
type UserReviewComment struct {
	ID        int64          `gorm:"column:id;primaryKey;autoIncrement"`
	ReviewID  int64          `gorm:"column:review_id;not null;index"`
	WriterID  int64          `gorm:"column:writer_id;not null"`
	Contents  string         `gorm:"column:contents;type:text;not null"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (UserReview) TableName() string        { return "user_reviews" }
func (UserReviewComment) TableName() string { return "user_review_comments" }
