package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/minsukang/dalligo-backend/pkg/enums"
)

// User is the shared account record for shoppers and runners. Only the
// review counters and rating fields are written by this system; the rest is
// owned by the upstream identity service.
type User struct {
	ID                  int64             `gorm:"column:id;primaryKey;autoIncrement"`
	Email               string            `gorm:"column:email;type:text;not null;uniqueIndex"`
	Nickname            *string           `gorm:"column:nickname;type:text"`
	FirstName           *string           `gorm:"column:first_name;type:text"`
	LastName            *string           `gorm:"column:last_name;type:text"`
	Gender              *string           `gorm:"column:gender;type:text"`
	IsRunner            bool              `gorm:"column:is_runner;not null;default:false"`
	ProfileImageURL     *string           `gorm:"column:profile_image_url;type:text"`
	ReviewsReceived     int               `gorm:"column:reviews_received;not null;default:0"`
	ReviewsWritten      int               `gorm:"column:reviews_written;not null;default:0"`
	ActivityRadius      *string           `gorm:"column:activity_radius;type:text"`
	ContactableTime     *string           `gorm:"column:contactable_time;type:text"`
	RatingScore         float64           `gorm:"column:rating_score;not null;default:0"`
	RunnerGrade         enums.RunnerGrade `gorm:"column:runner_grade;type:text;not null;default:'NEW'"`
	Payments            *string           `gorm:"column:payments;type:text"`
	Role                enums.UserRole    `gorm:"column:role;type:text;not null;default:'NORMAL'"`
	Phone               *string           `gorm:"column:phone;type:text"`
	CreatedAt           time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time         `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt           gorm.DeletedAt    `gorm:"column:deleted_at;index"`
}

func (User) TableName() string { return "users" }
