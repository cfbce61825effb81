package notifications

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

	"github.com/minsukang/dalligo-backend/internal/matching"
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
	require.NoError(t, conn.AutoMigrate(&models.Notification{}))

	return NewService(NewRepository(conn), nil)
}

func event(recipient int64, kind enums.NotificationKind) matching.TransitionEvent {
	return matching.TransitionEvent{
		Role:        enums.PostingRoleShopper,
		Kind:        kind,
		PostingID:   1,
		RequestID:   2,
		RecipientID: recipient,
		ActorID:     3,
		From:        enums.MatchStatusRequesting,
		To:          enums.MatchStatusMatched,
	}
}

func TestNotifyAndList(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	svc.Notify(ctx, event(10, enums.NotificationKindRequestAccepted))
	svc.Notify(ctx, event(10, enums.NotificationKindDeliveryRequested))
	svc.Notify(ctx, event(11, enums.NotificationKindRequestRejected))

	rows, err := svc.List(ctx, 10, false, 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, enums.NotificationKindRequestAccepted, rows[len(rows)-1].Kind)

	unread, err := svc.CountUnread(ctx, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, unread)
}

func TestMarkRead(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	svc.Notify(ctx, event(10, enums.NotificationKindRequestAccepted))
	rows, err := svc.List(ctx, 10, true, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	require.NoError(t, svc.MarkRead(ctx, 10, rows[0].ID))

	t.Run("second read is not found", func(t *testing.T) {
		err := svc.MarkRead(ctx, 10, rows[0].ID)
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
	})

	t.Run("other user cannot read it", func(t *testing.T) {
		svc.Notify(ctx, event(10, enums.NotificationKindReviewSubmitted))
		fresh, err := svc.List(ctx, 10, true, 0)
		require.NoError(t, err)
		require.Len(t, fresh, 1)

		err = svc.MarkRead(ctx, 11, fresh[0].ID)
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
	})
}

func TestMarkAllRead(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		svc.Notify(ctx, event(10, enums.NotificationKindRequestReceived))
	}

	affected, err := svc.MarkAllRead(ctx, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 3, affected)

	unread, err := svc.CountUnread(ctx, 10)
	require.NoError(t, err)
	assert.Zero(t, unread)
}

func TestNotifySkipsSystemRecipient(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	svc.Notify(ctx, event(0, enums.NotificationKindRequestReceived))

	rows, err := svc.List(ctx, 10, false, 0)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
