package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/minsukang/dalligo-backend/pkg/enums"
)

// ChatRoom groups users for messaging. MemberKey is the sorted member ids
// joined with "-" (e.g. "1-2"), which keeps personal rooms unique.
type ChatRoom struct {
	ID        int64              `gorm:"column:id;primaryKey;autoIncrement"`
	MemberKey string             `gorm:"column:member_key;type:text;not null;uniqueIndex"`
	Type      enums.ChatRoomType `gorm:"column:type;type:text;not null;default:'PERSONAL'"`
	Messages  []ChatMessage      `gorm:"foreignKey:RoomID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time          `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt gorm.DeletedAt     `gorm:"column:deleted_at;index"`
}

// ChatMessage is a single message in a room. Delivery is out of scope; this
// is the durable record only.
type ChatMessage struct {
	ID        int64                 `gorm:"column:id;primaryKey;autoIncrement"`
	RoomID    int64                 `gorm:"column:room_id;not null;index"`
	SenderID  int64                 `gorm:"column:sender_id;not null"`
	Contents  string                `gorm:"column:contents;type:text;not null"`
	Type      enums.ChatMessageType `gorm:"column:type;type:text;not null;default:'TEXT'"`
	CreatedAt time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time             `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt gorm.DeletedAt        `gorm:"column:deleted_at;index"`
}

func (ChatRoom) TableName() string    { return "chat_rooms" }
func (ChatMessage) TableName() string { return "chat_messages" }
