package chat

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/minsukang/dalligo-backend/pkg/db/models"
	"github.com/minsukang/dalligo-backend/pkg/enums"
	pkgerrors "github.com/minsukang/dalligo-backend/pkg/errors"
)

func setupService(t *testing.T) *Service {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	silent := gormlogger.New(log.New(io.Discard, "", log.LstdFlags), gormlogger.Config{LogLevel: gormlogger.Silent})
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: silent, SkipDefaultTransaction: true})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.ChatRoom{}, &models.ChatMessage{}))

	return NewService(conn)
}

func TestOpenRoomIsIdempotentPerMemberSet(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	room, err := svc.OpenRoom(ctx, []int64{2, 1})
	require.NoError(t, err)
	assert.Equal(t, "1-2", room.MemberKey)
	assert.Equal(t, enums.ChatRoomTypePersonal, room.Type)

	// Member order does not matter; the same pair lands in the same room.
	same, err := svc.OpenRoom(ctx, []int64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, room.ID, same.ID)

	group, err := svc.OpenRoom(ctx, []int64{3, 1, 2})
	require.NoError(t, err)
	assert.Equal(t, "1-2-3", group.MemberKey)
	assert.Equal(t, enums.ChatRoomTypeGroup, group.Type)

	t.Run("single member", func(t *testing.T) {
		_, err := svc.OpenRoom(ctx, []int64{1})
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
	})
}

func TestSendAndListMessages(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	room, err := svc.OpenRoom(ctx, []int64{1, 2})
	require.NoError(t, err)

	_, err = svc.SendMessage(ctx, room.ID, 1, "is the posting still open?", "")
	require.NoError(t, err)
	_, err = svc.SendMessage(ctx, room.ID, 2, "yes, go ahead", "TEXT")
	require.NoError(t, err)

	msgs, err := svc.ListMessages(ctx, room.ID, 1, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.EqualValues(t, 1, msgs[0].SenderID)
	assert.Equal(t, enums.ChatMessageTypeText, msgs[0].Type)

	t.Run("non-member cannot send", func(t *testing.T) {
		_, err := svc.SendMessage(ctx, room.ID, 9, "let me in", "")
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotOwner))
	})

	t.Run("non-member cannot read", func(t *testing.T) {
		_, err := svc.ListMessages(ctx, room.ID, 9, 0)
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotOwner))
	})

	t.Run("missing room", func(t *testing.T) {
		_, err := svc.SendMessage(ctx, 9999, 1, "hello?", "")
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
	})
}

func TestListRoomsForUser(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	_, err := svc.OpenRoom(ctx, []int64{1, 2})
	require.NoError(t, err)
	_, err = svc.OpenRoom(ctx, []int64{1, 3})
	require.NoError(t, err)
	_, err = svc.OpenRoom(ctx, []int64{2, 3})
	require.NoError(t, err)

	rooms, err := svc.ListRoomsForUser(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, rooms, 2)

	// Member 12 must not match rooms containing member 1 or 2.
	rooms, err = svc.ListRoomsForUser(ctx, 12)
	require.NoError(t, err)
	assert.Empty(t, rooms)
}
