package models

import (
	"time"

	"github.com/minsukang/dalligo-backend/pkg/enums"
)

// Notification is the persisted form of a matching transition event,
// addressed to the counterpart user of the action.
type Notification struct {
	ID          int64                  `gorm:"column:id;primaryKey;autoIncrement"`
	RecipientID int64                  `gorm:"column:recipient_id;not null;index"`
	Kind        enums.NotificationKind `gorm:"column:kind;type:text;not null"`
	Role        enums.PostingRole      `gorm:"column:role;type:text;not null"`
	RequestID   int64                  `gorm:"column:request_id;not null"`
	PostingID   int64                  `gorm:"column:posting_id;not null"`
	FromStatus  enums.MatchStatus      `gorm:"column:from_status;type:text"`
	ToStatus    enums.MatchStatus      `gorm:"column:to_status;type:text;not null"`
	ActorID     int64                  `gorm:"column:actor_id;not null"`
	ReadAt      *time.Time             `gorm:"column:read_at"`
	CreatedAt   time.Time              `gorm:"column:created_at;autoCreateTime"`
}

func (Notification) TableName() string { return "notifications" }
