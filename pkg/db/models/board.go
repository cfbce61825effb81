package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/minsukang/dalligo-backend/pkg/enums"
)

// Board is a flat notice/information post. Pure plumbing.
type Board struct {
	ID        int64               `gorm:"column:id;primaryKey;autoIncrement"`
	Email     string              `gorm:"column:email;type:text;not null"`
	Contents  string              `gorm:"column:contents;type:text;not null"`
	Category  enums.BoardCategory `gorm:"column:category;type:text;not null;default:'information'"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time           `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt gorm.DeletedAt      `gorm:"column:deleted_at;index"`
}

func (Board) TableName() string { return "boards" }
