package postings

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/minsukang/dalligo-backend/pkg/db/models"
	"github.com/minsukang/dalligo-backend/pkg/enums"
	pkgerrors "github.com/minsukang/dalligo-backend/pkg/errors"
	"github.com/minsukang/dalligo-backend/pkg/pagination"
)

func setupRepo(t *testing.T) (Repository, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	silent := gormlogger.New(log.New(io.Discard, "", log.LstdFlags), gormlogger.Config{LogLevel: gormlogger.Silent})
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: silent, SkipDefaultTransaction: true})
	require.NoError(t, err)

	require.NoError(t, conn.AutoMigrate(
		&models.ShopperPosting{},
		&models.PostingItem{},
		&models.PostingImage{},
		&models.RunnerPosting{},
		&models.ShopperRequest{},
		&models.RunnerRequest{},
	))
	return NewRepository(conn), conn
}

func newPosting(shopperID int64) *models.ShopperPosting {
	return &models.ShopperPosting{
		ShopperID:        shopperID,
		Title:            "pharmacy run",
		Contents:         "cold medicine",
		Priority:         enums.PostingPriorityUrgent,
		Status:           enums.MatchStatusMatching,
		StartReceiveTime: "09:00",
		EndReceiveTime:   "11:00",
		ReceiveAddress:   "4 Oak Ave",
	}
}

func TestUpdateShopperPostingStatusVersioning(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	posting, err := repo.CreateShopperPosting(ctx, newPosting(1))
	require.NoError(t, err)
	require.EqualValues(t, 0, posting.LockVersion)

	require.NoError(t, repo.UpdateShopperPostingStatus(ctx, posting.ID, 0, enums.MatchStatusRequesting))

	got, err := repo.FindShopperPosting(ctx, posting.ID, false)
	require.NoError(t, err)
	assert.Equal(t, enums.MatchStatusRequesting, got.Status)
	assert.EqualValues(t, 1, got.LockVersion)

	t.Run("stale version", func(t *testing.T) {
		err := repo.UpdateShopperPostingStatus(ctx, posting.ID, 0, enums.MatchStatusMatched)
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeVersionConflict))
	})

	t.Run("missing row", func(t *testing.T) {
		err := repo.UpdateShopperPostingStatus(ctx, 9999, 0, enums.MatchStatusMatched)
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
	})
}

func TestClaimRunnerPosting(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	posting, err := repo.CreateRunnerPosting(ctx, &models.RunnerPosting{
		RunnerID:             7,
		Message:              "morning route",
		EstimatedSchedule:    "before noon",
		Radius:               enums.ServiceRadius5KM,
		Address:              "north side",
		StartContactableTime: "08:00",
		EndContactableTime:   "12:00",
		Payments:             "transfer",
	})
	require.NoError(t, err)

	require.NoError(t, repo.ClaimRunnerPosting(ctx, posting.ID, 0, 42))

	got, err := repo.FindRunnerPosting(ctx, posting.ID, false)
	require.NoError(t, err)
	require.NotNil(t, got.ClaimedShopperID)
	assert.EqualValues(t, 42, *got.ClaimedShopperID)
	assert.EqualValues(t, 1, got.LockVersion)

	// Reclaiming with the consumed version is a conflict.
	err = repo.ClaimRunnerPosting(ctx, posting.ID, 0, 43)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeVersionConflict))
}

func TestSoftDeleteShopperPostingCascades(t *testing.T) {
	repo, conn := setupRepo(t)
	ctx := context.Background()

	posting, err := repo.CreateShopperPosting(ctx, newPosting(1))
	require.NoError(t, err)
	require.NoError(t, conn.Create(&models.PostingItem{PostingID: posting.ID, Name: "aspirin", Count: 1, Price: 4}).Error)
	require.NoError(t, conn.Create(&models.ShopperRequest{PostingID: posting.ID, RunnerID: 2, Status: enums.MatchStatusRequesting}).Error)

	require.NoError(t, repo.SoftDeleteShopperPosting(ctx, posting.ID))

	_, err = repo.FindShopperPosting(ctx, posting.ID, false)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// The deleted row stays reachable when the caller asks for it.
	got, err := repo.FindShopperPosting(ctx, posting.ID, true)
	require.NoError(t, err)
	assert.True(t, got.DeletedAt.Valid)

	var liveRequests, liveItems int64
	require.NoError(t, conn.Model(&models.ShopperRequest{}).Where("posting_id = ?", posting.ID).Count(&liveRequests).Error)
	require.NoError(t, conn.Model(&models.PostingItem{}).Where("posting_id = ?", posting.ID).Count(&liveItems).Error)
	assert.Zero(t, liveRequests)
	assert.Zero(t, liveItems)

	t.Run("delete twice", func(t *testing.T) {
		err := repo.SoftDeleteShopperPosting(ctx, posting.ID)
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})
}

func TestListShopperPostingsFiltersAndCursor(t *testing.T) {
	repo, conn := setupRepo(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		p := newPosting(1)
		if i%2 == 0 {
			p.Priority = enums.PostingPriorityNormal
		}
		require.NoError(t, conn.Create(p).Error)
		// Spread creation times so cursor ordering is deterministic.
		require.NoError(t, conn.Model(p).UpdateColumn("created_at", base.Add(time.Duration(i)*time.Minute)).Error)
	}

	urgent := enums.PostingPriorityUrgent
	list, err := repo.ListShopperPostings(ctx, pagination.Params{}, ShopperPostingFilters{Priority: &urgent})
	require.NoError(t, err)
	assert.Len(t, list.Items, 2)

	page, err := repo.ListShopperPostings(ctx, pagination.Params{Limit: 2}, ShopperPostingFilters{})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	require.NotEmpty(t, page.Cursor)

	rest, err := repo.ListShopperPostings(ctx, pagination.Params{Limit: 10, Cursor: page.Cursor}, ShopperPostingFilters{})
	require.NoError(t, err)
	assert.Len(t, rest.Items, 3)
	assert.Empty(t, rest.Cursor)
}

func TestFindExpiredOpenShopperPostings(t *testing.T) {
	repo, conn := setupRepo(t)
	ctx := context.Background()

	past := time.Now().Add(-2 * time.Hour)
	future := time.Now().Add(2 * time.Hour)

	expired := newPosting(1)
	expired.ReceiveDate = &past
	require.NoError(t, conn.Create(expired).Error)

	upcoming := newPosting(1)
	upcoming.ReceiveDate = &future
	require.NoError(t, conn.Create(upcoming).Error)

	matched := newPosting(1)
	matched.ReceiveDate = &past
	matched.Status = enums.MatchStatusMatched
	require.NoError(t, conn.Create(matched).Error)

	rows, err := repo.FindExpiredOpenShopperPostings(ctx, time.Now(), 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, expired.ID, rows[0].ID)
}

func TestIncrementViewCount(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	posting, err := repo.CreateShopperPosting(ctx, newPosting(1))
	require.NoError(t, err)

	require.NoError(t, repo.IncrementShopperViewCount(ctx, posting.ID))
	require.NoError(t, repo.IncrementShopperViewCount(ctx, posting.ID))

	got, err := repo.FindShopperPosting(ctx, posting.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 2, got.ViewCount)
	// View bumps do not touch the optimistic lock.
	assert.EqualValues(t, 0, got.LockVersion)
}
