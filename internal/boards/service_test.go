package boards

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
	require.NoError(t, conn.AutoMigrate(&models.Board{}))

	return NewService(conn)
}

func TestBoardCRUD(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateInput{
		Email:    "ops@example.com",
		Contents: "service window this weekend",
		Category: "notice",
	})
	require.NoError(t, err)
	assert.Equal(t, enums.BoardCategoryNotice, created.Category)

	_, err = svc.Create(ctx, CreateInput{
		Email:    "user@example.com",
		Contents: "how do runner tips work?",
	})
	require.NoError(t, err)

	notice := enums.BoardCategoryNotice
	rows, err := svc.List(ctx, &notice, 0)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	rows, err = svc.List(ctx, nil, 0)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Contents, got.Contents)

	require.NoError(t, svc.Delete(ctx, created.ID))
	_, err = svc.Get(ctx, created.ID)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))

	t.Run("invalid category", func(t *testing.T) {
		_, err := svc.Create(ctx, CreateInput{Email: "a@b.c", Contents: "x", Category: "rant"})
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
	})
}
