package reviews

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

func setupService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	silent := gormlogger.New(log.New(io.Discard, "", log.LstdFlags), gormlogger.Config{LogLevel: gormlogger.Silent})
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: silent, SkipDefaultTransaction: true})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.User{}, &models.UserReview{}, &models.UserReviewComment{}))

	return NewService(conn, nil), conn
}

func seedUser(t *testing.T, conn *gorm.DB, email string) *models.User {
	t.Helper()
	user := &models.User{Email: email, RunnerGrade: enums.RunnerGradeNew}
	require.NoError(t, conn.Create(user).Error)
	return user
}

func record(t *testing.T, svc *Service, writer, target int64, rating int) {
	t.Helper()
	err := svc.Record(context.Background(), nil, matching.ReviewInput{
		Role:     enums.PostingRoleShopper,
		WriterID: writer,
		TargetID: target,
		Rating:   rating,
		Contents: "test review",
	})
	require.NoError(t, err)
}

func TestRecordUpdatesRatingAverage(t *testing.T) {
	svc, conn := setupService(t)

	writer := seedUser(t, conn, "shopper@example.com")
	target := seedUser(t, conn, "runner@example.com")

	record(t, svc, writer.ID, target.ID, 5)
	record(t, svc, writer.ID, target.ID, 4)
	record(t, svc, writer.ID, target.ID, 4)

	var got models.User
	require.NoError(t, conn.First(&got, target.ID).Error)
	assert.Equal(t, 3, got.ReviewsReceived)
	assert.InDelta(t, 4.33, got.RatingScore, 0.01)

	var gotWriter models.User
	require.NoError(t, conn.First(&gotWriter, writer.ID).Error)
	assert.Equal(t, 3, gotWriter.ReviewsWritten)
}

func TestRecordPromotesGrade(t *testing.T) {
	svc, conn := setupService(t)

	writer := seedUser(t, conn, "shopper@example.com")
	target := seedUser(t, conn, "runner@example.com")

	for i := 0; i < 5; i++ {
		record(t, svc, writer.ID, target.ID, 5)
	}

	var got models.User
	require.NoError(t, conn.First(&got, target.ID).Error)
	assert.Equal(t, enums.RunnerGradeEffort, got.RunnerGrade)
	assert.InDelta(t, 5.0, got.RatingScore, 0.001)
}

func TestRecordWithoutUserRowKeepsReview(t *testing.T) {
	svc, conn := setupService(t)

	err := svc.Record(context.Background(), nil, matching.ReviewInput{
		WriterID: 100, TargetID: 200, Rating: 4, Contents: "orphan",
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, conn.Model(&models.UserReview{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestAddComment(t *testing.T) {
	svc, conn := setupService(t)

	writer := seedUser(t, conn, "shopper@example.com")
	target := seedUser(t, conn, "runner@example.com")
	record(t, svc, writer.ID, target.ID, 5)

	reviews, err := svc.ListForUser(context.Background(), target.ID, 0)
	require.NoError(t, err)
	require.Len(t, reviews, 1)

	comment, err := svc.AddComment(context.Background(), reviews[0].ID, target.ID, "thanks!")
	require.NoError(t, err)
	assert.Equal(t, target.ID, comment.WriterID)

	t.Run("stranger cannot comment", func(t *testing.T) {
		stranger := seedUser(t, conn, "stranger@example.com")
		_, err := svc.AddComment(context.Background(), reviews[0].ID, stranger.ID, "me too")
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotOwner))
	})

	t.Run("missing review", func(t *testing.T) {
		_, err := svc.AddComment(context.Background(), 9999, writer.ID, "hello")
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
	})

	reviews, err = svc.ListForUser(context.Background(), target.ID, 0)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Len(t, reviews[0].Comments, 1)
}
