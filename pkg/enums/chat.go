package enums

import "fmt"

// ChatRoomType distinguishes one-to-one rooms from group rooms.
type ChatRoomType string

const (
	ChatRoomTypePersonal ChatRoomType = "PERSONAL"
	ChatRoomTypeGroup    ChatRoomType = "GROUP"
)

var validChatRoomTypes = []ChatRoomType{
	ChatRoomTypePersonal,
	ChatRoomTypeGroup,
}

// String implements fmt.Stringer.
func (c ChatRoomType) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ChatRoomType.
func (c ChatRoomType) IsValid() bool {
	for _, candidate := range validChatRoomTypes {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseChatRoomType converts raw input into a ChatRoomType.
func ParseChatRoomType(value string) (ChatRoomType, error) {
	for _, candidate := range validChatRoomTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid chat room type %q", value)
}

// ChatMessageType is the payload kind carried by a chat message.
type ChatMessageType string

const (
	ChatMessageTypeText  ChatMessageType = "TEXT"
	ChatMessageTypeImage ChatMessageType = "IMAGE"
)

var validChatMessageTypes = []ChatMessageType{
	ChatMessageTypeText,
	ChatMessageTypeImage,
}

// String implements fmt.Stringer.
func (c ChatMessageType) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ChatMessageType.
func (c ChatMessageType) IsValid() bool {
	for _, candidate := range validChatMessageTypes {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseChatMessageType converts raw input into a ChatMessageType.
func ParseChatMessageType(value string) (ChatMessageType, error) {
	for _, candidate := range validChatMessageTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid chat message type %q", value)
}
