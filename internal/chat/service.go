package chat

import (
	"context"
	stderrors "errors"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/minsukang/dalligo-backend/pkg/db/models"
	"github.com/minsukang/dalligo-backend/pkg/enums"
	pkgerrors "github.com/minsukang/dalligo-backend/pkg/errors"
)

// Service is the durable chat record: rooms keyed by their members and the
// messages inside them. Real-time delivery is out of scope.
type Service struct {
	db *gorm.DB
}

// NewService wires the chat service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// memberKey builds the canonical room key from member ids, sorted so the
// same pair always maps to the same room.
func memberKey(memberIDs []int64) string {
	ids := append([]int64(nil), memberIDs...)
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			if ids[j] < ids[i] {
				ids[i], ids[j] = ids[j], ids[i]
			}
		}
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, "-")
}

// OpenRoom returns the room for the given members, creating it on first use.
func (s *Service) OpenRoom(ctx context.Context, memberIDs []int64) (*models.ChatRoom, error) {
	if len(memberIDs) < 2 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a room needs at least two members")
	}
	seen := map[int64]bool{}
	for _, id := range memberIDs {
		if id <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "member ids must be positive")
		}
		if seen[id] {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("duplicate member %d", id))
		}
		seen[id] = true
	}

	key := memberKey(memberIDs)
	roomType := enums.ChatRoomTypePersonal
	if len(memberIDs) > 2 {
		roomType = enums.ChatRoomTypeGroup
	}

	var room models.ChatRoom
	err := s.db.WithContext(ctx).Where("member_key = ?", key).First(&room).Error
	if err == nil {
		return &room, nil
	}
	if !stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	room = models.ChatRoom{MemberKey: key, Type: roomType}
	if err := s.db.WithContext(ctx).Create(&room).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

// SendMessage appends a message to a room the sender belongs to.
func (s *Service) SendMessage(ctx context.Context, roomID, senderID int64, contents, messageType string) (*models.ChatMessage, error) {
	if contents == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message contents are required")
	}
	msgType := enums.ChatMessageTypeText
	if messageType != "" {
		parsed, err := enums.ParseChatMessageType(messageType)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid message type")
		}
		msgType = parsed
	}

	room, err := s.findRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !roomHasMember(room.MemberKey, senderID) {
		return nil, pkgerrors.New(pkgerrors.CodeNotOwner, "sender is not a room member")
	}

	msg := &models.ChatMessage{
		RoomID:   roomID,
		SenderID: senderID,
		Contents: contents,
		Type:     msgType,
	}
	if err := s.db.WithContext(ctx).Create(msg).Error; err != nil {
		return nil, err
	}
	return msg, nil
}

// ListMessages returns a room's messages, oldest first, for a member.
func (s *Service) ListMessages(ctx context.Context, roomID, memberID int64, limit int) ([]models.ChatMessage, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	room, err := s.findRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !roomHasMember(room.MemberKey, memberID) {
		return nil, pkgerrors.New(pkgerrors.CodeNotOwner, "not a room member")
	}

	var rows []models.ChatMessage
	err = s.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListRoomsForUser returns the rooms a user belongs to, most recent first.
func (s *Service) ListRoomsForUser(ctx context.Context, userID int64) ([]models.ChatRoom, error) {
	key := strconv.FormatInt(userID, 10)
	var rows []models.ChatRoom
	err := s.db.WithContext(ctx).
		Where("member_key = ? OR member_key LIKE ? OR member_key LIKE ? OR member_key LIKE ?",
			key, key+"-%", "%-"+key, "%-"+key+"-%").
		Order("updated_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Service) findRoom(ctx context.Context, roomID int64) (*models.ChatRoom, error) {
	var room models.ChatRoom
	if err := s.db.WithContext(ctx).Where("id = ?", roomID).First(&room).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "chat room not found")
		}
		return nil, err
	}
	return &room, nil
}

func roomHasMember(key string, userID int64) bool {
	id := strconv.FormatInt(userID, 10)
	for _, member := range strings.Split(key, "-") {
		if member == id {
			return true
		}
	}
	return false
}
