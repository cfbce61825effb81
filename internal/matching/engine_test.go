package matching

import (
	"context"
	"fmt"
	"io"
	"log"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/minsukang/dalligo-backend/internal/postings"
	"github.com/minsukang/dalligo-backend/internal/requests"
	"github.com/minsukang/dalligo-backend/pkg/db"
	"github.com/minsukang/dalligo-backend/pkg/db/models"
	"github.com/minsukang/dalligo-backend/pkg/enums"
	pkgerrors "github.com/minsukang/dalligo-backend/pkg/errors"
)

type captureHook struct {
	events []TransitionEvent
}

func (h *captureHook) Notify(_ context.Context, event TransitionEvent) {
	h.events = append(h.events, event)
}

func (h *captureHook) kinds() []enums.NotificationKind {
	out := make([]enums.NotificationKind, 0, len(h.events))
	for _, ev := range h.events {
		out = append(out, ev.Kind)
	}
	return out
}

type stubRecorder struct {
	recorded []ReviewInput
	err      error
}

func (r *stubRecorder) Record(_ context.Context, _ *gorm.DB, input ReviewInput) error {
	if r.err != nil {
		return r.err
	}
	r.recorded = append(r.recorded, input)
	return nil
}

type engineFixture struct {
	engine   *Engine
	conn     *gorm.DB
	postings postings.Repository
	requests requests.Repository
	hook     *captureHook
	recorder *stubRecorder
}

func setupEngine(t *testing.T) *engineFixture {
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

	postingRepo := postings.NewRepository(conn)
	requestRepo := requests.NewRepository(conn)
	hook := &captureHook{}
	recorder := &stubRecorder{}
	engine := NewEngine(db.NewFromGorm(conn), postingRepo, requestRepo, recorder, hook, nil, nil)

	return &engineFixture{
		engine:   engine,
		conn:     conn,
		postings: postingRepo,
		requests: requestRepo,
		hook:     hook,
		recorder: recorder,
	}
}

func (f *engineFixture) seedShopperPosting(t *testing.T, shopperID int64) *models.ShopperPosting {
	t.Helper()
	posting := &models.ShopperPosting{
		ShopperID:        shopperID,
		Title:            "weekly groceries",
		Contents:         "milk, eggs, bread",
		Priority:         enums.PostingPriorityNormal,
		Status:           enums.MatchStatusMatching,
		StartReceiveTime: "18:00",
		EndReceiveTime:   "20:00",
		ReceiveAddress:   "12 Elm St",
	}
	require.NoError(t, f.conn.Create(posting).Error)
	return posting
}

func (f *engineFixture) seedRunnerPosting(t *testing.T, runnerID int64) *models.RunnerPosting {
	t.Helper()
	posting := &models.RunnerPosting{
		RunnerID:             runnerID,
		Message:              "evening runs downtown",
		EstimatedSchedule:    "weekdays after 6pm",
		Radius:               enums.ServiceRadius1KM,
		Address:              "downtown",
		StartContactableTime: "17:00",
		EndContactableTime:   "22:00",
		Payments:             "cash,transfer",
	}
	require.NoError(t, f.conn.Create(posting).Error)
	return posting
}

func (f *engineFixture) shopperPosting(t *testing.T, id int64) *models.ShopperPosting {
	t.Helper()
	p, err := f.postings.FindShopperPosting(context.Background(), id, false)
	require.NoError(t, err)
	return p
}

func (f *engineFixture) shopperRequest(t *testing.T, id int64) *models.ShopperRequest {
	t.Helper()
	r, err := f.requests.FindShopperRequest(context.Background(), id, false)
	require.NoError(t, err)
	return r
}

func TestEngineShopperHappyPath(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()

	const (
		shopperID = int64(1)
		runnerA   = int64(2)
		runnerB   = int64(3)
	)
	posting := f.seedShopperPosting(t, shopperID)

	reqA, err := f.engine.CreateRequest(ctx, enums.PostingRoleShopper, posting.ID, runnerA, nil)
	require.NoError(t, err)
	reqB, err := f.engine.CreateRequest(ctx, enums.PostingRoleShopper, posting.ID, runnerB, nil)
	require.NoError(t, err)

	// First bid moved the posting out of MATCHING.
	assert.Equal(t, enums.MatchStatusRequesting, f.shopperPosting(t, posting.ID).Status)

	require.NoError(t, f.engine.AcceptRequest(ctx, enums.PostingRoleShopper, reqA, shopperID))

	assert.Equal(t, enums.MatchStatusMatched, f.shopperPosting(t, posting.ID).Status)
	assert.Equal(t, enums.MatchStatusMatched, f.shopperRequest(t, reqA).Status)
	assert.Equal(t, enums.MatchStatusMatchFail, f.shopperRequest(t, reqB).Status)

	// Runner reports delivery, shopper confirms, runner asks for a review.
	require.NoError(t, f.engine.AdvanceDelivery(ctx, enums.PostingRoleShopper, reqA, runnerA, enums.MatchStatusDeliveredRequest))
	require.NoError(t, f.engine.AdvanceDelivery(ctx, enums.PostingRoleShopper, reqA, shopperID, enums.MatchStatusDelivered))
	require.NoError(t, f.engine.AdvanceDelivery(ctx, enums.PostingRoleShopper, reqA, runnerA, enums.MatchStatusReviewRequest))
	require.NoError(t, f.engine.SubmitReview(ctx, enums.PostingRoleShopper, reqA, shopperID, 5, "fast and friendly"))

	assert.Equal(t, enums.MatchStatusReviewed, f.shopperPosting(t, posting.ID).Status)
	assert.Equal(t, enums.MatchStatusReviewed, f.shopperRequest(t, reqA).Status)

	require.Len(t, f.recorder.recorded, 1)
	assert.Equal(t, runnerA, f.recorder.recorded[0].TargetID)
	assert.Equal(t, shopperID, f.recorder.recorded[0].WriterID)
	assert.Equal(t, 5, f.recorder.recorded[0].Rating)

	// One notification per transition, plus the sibling rejection.
	assert.Equal(t, []enums.NotificationKind{
		enums.NotificationKindRequestReceived,
		enums.NotificationKindRequestReceived,
		enums.NotificationKindRequestRejected,
		enums.NotificationKindRequestAccepted,
		enums.NotificationKindDeliveryRequested,
		enums.NotificationKindDeliveryConfirmed,
		enums.NotificationKindReviewRequested,
		enums.NotificationKindReviewSubmitted,
	}, f.hook.kinds())

	rejected := f.hook.events[2]
	assert.Equal(t, runnerB, rejected.RecipientID)
	accepted := f.hook.events[3]
	assert.Equal(t, runnerA, accepted.RecipientID)
}

func TestEngineRunnerHappyPath(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()

	const (
		runnerID = int64(10)
		shopper  = int64(11)
	)
	posting := f.seedRunnerPosting(t, runnerID)
	linked := f.seedShopperPosting(t, shopper)

	reqID, err := f.engine.CreateRequest(ctx, enums.PostingRoleRunner, posting.ID, shopper, &linked.ID)
	require.NoError(t, err)

	require.NoError(t, f.engine.AcceptRequest(ctx, enums.PostingRoleRunner, reqID, runnerID))

	got, err := f.postings.FindRunnerPosting(ctx, posting.ID, false)
	require.NoError(t, err)
	require.NotNil(t, got.ClaimedShopperID)
	assert.Equal(t, shopper, *got.ClaimedShopperID)

	req, err := f.requests.FindRunnerRequest(ctx, reqID, false)
	require.NoError(t, err)
	assert.Equal(t, enums.MatchStatusMatched, req.Status)
	require.NotNil(t, req.ShopperPostingID)
	assert.Equal(t, linked.ID, *req.ShopperPostingID)

	// The cross-link is informational; the linked shopper posting is untouched.
	assert.Equal(t, enums.MatchStatusMatching, f.shopperPosting(t, linked.ID).Status)

	// Runner posting is claimed now, so further bids are refused.
	_, err = f.engine.CreateRequest(ctx, enums.PostingRoleRunner, posting.ID, int64(12), nil)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodePostingClosed))

	require.NoError(t, f.engine.AdvanceDelivery(ctx, enums.PostingRoleRunner, reqID, runnerID, enums.MatchStatusDeliveredRequest))
	require.NoError(t, f.engine.AdvanceDelivery(ctx, enums.PostingRoleRunner, reqID, shopper, enums.MatchStatusDelivered))
	require.NoError(t, f.engine.AdvanceDelivery(ctx, enums.PostingRoleRunner, reqID, runnerID, enums.MatchStatusReviewRequest))
	require.NoError(t, f.engine.SubmitReview(ctx, enums.PostingRoleRunner, reqID, shopper, 4, "solid run"))

	req, err = f.requests.FindRunnerRequest(ctx, reqID, false)
	require.NoError(t, err)
	assert.Equal(t, enums.MatchStatusReviewed, req.Status)
	require.Len(t, f.recorder.recorded, 1)
	assert.Equal(t, runnerID, f.recorder.recorded[0].TargetID)
}

func TestEngineCreateRequestGuards(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()

	posting := f.seedShopperPosting(t, 1)

	t.Run("own posting", func(t *testing.T) {
		_, err := f.engine.CreateRequest(ctx, enums.PostingRoleShopper, posting.ID, 1, nil)
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
	})

	t.Run("duplicate open bid", func(t *testing.T) {
		_, err := f.engine.CreateRequest(ctx, enums.PostingRoleShopper, posting.ID, 2, nil)
		require.NoError(t, err)
		_, err = f.engine.CreateRequest(ctx, enums.PostingRoleShopper, posting.ID, 2, nil)
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict))
	})

	t.Run("missing posting", func(t *testing.T) {
		_, err := f.engine.CreateRequest(ctx, enums.PostingRoleShopper, 9999, 2, nil)
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
	})

	t.Run("closed posting", func(t *testing.T) {
		closed := f.seedShopperPosting(t, 1)
		require.NoError(t, f.engine.ClosePosting(ctx, enums.PostingRoleShopper, closed.ID, 1))
		_, err := f.engine.CreateRequest(ctx, enums.PostingRoleShopper, closed.ID, 2, nil)
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodePostingClosed))
	})

	t.Run("matched posting", func(t *testing.T) {
		matched := f.seedShopperPosting(t, 1)
		reqID, err := f.engine.CreateRequest(ctx, enums.PostingRoleShopper, matched.ID, 2, nil)
		require.NoError(t, err)
		require.NoError(t, f.engine.AcceptRequest(ctx, enums.PostingRoleShopper, reqID, 1))
		_, err = f.engine.CreateRequest(ctx, enums.PostingRoleShopper, matched.ID, 3, nil)
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodePostingClosed))
	})
}

func TestEngineAcceptGuards(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()

	const shopperID = int64(1)
	posting := f.seedShopperPosting(t, shopperID)
	reqA, err := f.engine.CreateRequest(ctx, enums.PostingRoleShopper, posting.ID, 2, nil)
	require.NoError(t, err)
	reqB, err := f.engine.CreateRequest(ctx, enums.PostingRoleShopper, posting.ID, 3, nil)
	require.NoError(t, err)

	t.Run("non-owner", func(t *testing.T) {
		err := f.engine.AcceptRequest(ctx, enums.PostingRoleShopper, reqA, 99)
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotOwner))
	})

	t.Run("first accept wins", func(t *testing.T) {
		require.NoError(t, f.engine.AcceptRequest(ctx, enums.PostingRoleShopper, reqA, shopperID))
	})

	t.Run("second accept loses", func(t *testing.T) {
		// The posting is already MATCHED, which is reported before the
		// invalidated sibling's own status.
		err := f.engine.AcceptRequest(ctx, enums.PostingRoleShopper, reqB, shopperID)
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeAlreadyMatched))
	})

	t.Run("accept on matched posting", func(t *testing.T) {
		other := f.seedShopperPosting(t, shopperID)
		otherReq, err := f.engine.CreateRequest(ctx, enums.PostingRoleShopper, other.ID, 4, nil)
		require.NoError(t, err)
		require.NoError(t, f.engine.AcceptRequest(ctx, enums.PostingRoleShopper, otherReq, shopperID))
		err = f.engine.AcceptRequest(ctx, enums.PostingRoleShopper, otherReq, shopperID)
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeAlreadyMatched))
	})
}

func TestEngineDeliveryGuards(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()

	const (
		shopperID = int64(1)
		runnerID  = int64(2)
	)
	posting := f.seedShopperPosting(t, shopperID)
	reqID, err := f.engine.CreateRequest(ctx, enums.PostingRoleShopper, posting.ID, runnerID, nil)
	require.NoError(t, err)
	require.NoError(t, f.engine.AcceptRequest(ctx, enums.PostingRoleShopper, reqID, shopperID))

	t.Run("skip a step", func(t *testing.T) {
		err := f.engine.AdvanceDelivery(ctx, enums.PostingRoleShopper, reqID, runnerID, enums.MatchStatusDelivered)
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInvalidTransition))
	})

	t.Run("wrong actor", func(t *testing.T) {
		// DELIVERED_REQUEST belongs to the runner.
		err := f.engine.AdvanceDelivery(ctx, enums.PostingRoleShopper, reqID, shopperID, enums.MatchStatusDeliveredRequest)
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotOwner))
	})

	t.Run("review before review request", func(t *testing.T) {
		err := f.engine.SubmitReview(ctx, enums.PostingRoleShopper, reqID, shopperID, 5, "early")
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInvalidTransition))
	})

	t.Run("terminal request is stale", func(t *testing.T) {
		require.NoError(t, f.engine.AdvanceDelivery(ctx, enums.PostingRoleShopper, reqID, runnerID, enums.MatchStatusDeliveredRequest))
		require.NoError(t, f.engine.AdvanceDelivery(ctx, enums.PostingRoleShopper, reqID, shopperID, enums.MatchStatusDelivered))
		require.NoError(t, f.engine.AdvanceDelivery(ctx, enums.PostingRoleShopper, reqID, runnerID, enums.MatchStatusReviewRequest))
		require.NoError(t, f.engine.SubmitReview(ctx, enums.PostingRoleShopper, reqID, shopperID, 3, "ok"))

		err := f.engine.AdvanceDelivery(ctx, enums.PostingRoleShopper, reqID, runnerID, enums.MatchStatusDeliveredRequest)
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStaleState))
	})

	t.Run("rating bounds", func(t *testing.T) {
		err := f.engine.SubmitReview(ctx, enums.PostingRoleShopper, reqID, shopperID, 6, "too high")
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
	})
}

func TestEngineRejectRequest(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()

	const shopperID = int64(1)
	posting := f.seedShopperPosting(t, shopperID)
	reqID, err := f.engine.CreateRequest(ctx, enums.PostingRoleShopper, posting.ID, 2, nil)
	require.NoError(t, err)

	require.NoError(t, f.engine.RejectRequest(ctx, enums.PostingRoleShopper, reqID, shopperID))
	assert.Equal(t, enums.MatchStatusMatchFail, f.shopperRequest(t, reqID).Status)

	// Posting stays open for other bids after a reject.
	assert.Equal(t, enums.MatchStatusRequesting, f.shopperPosting(t, posting.ID).Status)

	t.Run("double reject is stale", func(t *testing.T) {
		err := f.engine.RejectRequest(ctx, enums.PostingRoleShopper, reqID, shopperID)
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStaleState))
	})

	t.Run("system actor may reject", func(t *testing.T) {
		otherReq, err := f.engine.CreateRequest(ctx, enums.PostingRoleShopper, posting.ID, 3, nil)
		require.NoError(t, err)
		require.NoError(t, f.engine.RejectRequest(ctx, enums.PostingRoleShopper, otherReq, SystemActorID))
	})
}

func TestEngineClosePosting(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()

	const shopperID = int64(1)
	posting := f.seedShopperPosting(t, shopperID)
	reqA, err := f.engine.CreateRequest(ctx, enums.PostingRoleShopper, posting.ID, 2, nil)
	require.NoError(t, err)
	reqB, err := f.engine.CreateRequest(ctx, enums.PostingRoleShopper, posting.ID, 3, nil)
	require.NoError(t, err)

	f.hook.events = nil
	require.NoError(t, f.engine.ClosePosting(ctx, enums.PostingRoleShopper, posting.ID, SystemActorID))

	assert.Equal(t, enums.MatchStatusMatchFail, f.shopperPosting(t, posting.ID).Status)
	assert.Equal(t, enums.MatchStatusMatchFail, f.shopperRequest(t, reqA).Status)
	assert.Equal(t, enums.MatchStatusMatchFail, f.shopperRequest(t, reqB).Status)
	assert.Len(t, f.hook.events, 2)

	t.Run("second close is stale", func(t *testing.T) {
		err := f.engine.ClosePosting(ctx, enums.PostingRoleShopper, posting.ID, SystemActorID)
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStaleState))
	})

	t.Run("cannot close matched posting", func(t *testing.T) {
		other := f.seedShopperPosting(t, shopperID)
		reqID, err := f.engine.CreateRequest(ctx, enums.PostingRoleShopper, other.ID, 2, nil)
		require.NoError(t, err)
		require.NoError(t, f.engine.AcceptRequest(ctx, enums.PostingRoleShopper, reqID, shopperID))
		err = f.engine.ClosePosting(ctx, enums.PostingRoleShopper, other.ID, shopperID)
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInvalidTransition))
	})

	t.Run("accept after close is stale", func(t *testing.T) {
		other := f.seedShopperPosting(t, shopperID)
		reqID, err := f.engine.CreateRequest(ctx, enums.PostingRoleShopper, other.ID, 4, nil)
		require.NoError(t, err)
		require.NoError(t, f.engine.ClosePosting(ctx, enums.PostingRoleShopper, other.ID, shopperID))
		err = f.engine.AcceptRequest(ctx, enums.PostingRoleShopper, reqID, shopperID)
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStaleState))
	})

	t.Run("runner close with no open bids is stale", func(t *testing.T) {
		const runnerID = int64(7)
		posting := f.seedRunnerPosting(t, runnerID)
		_, err := f.engine.CreateRequest(ctx, enums.PostingRoleRunner, posting.ID, 8, nil)
		require.NoError(t, err)
		require.NoError(t, f.engine.ClosePosting(ctx, enums.PostingRoleRunner, posting.ID, runnerID))
		err = f.engine.ClosePosting(ctx, enums.PostingRoleRunner, posting.ID, runnerID)
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStaleState))
	})
}

func TestEnginePostingWithActiveRequest(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()

	const shopperID = int64(1)
	posting := f.seedShopperPosting(t, shopperID)

	state, err := f.engine.PostingWithActiveRequest(ctx, enums.PostingRoleShopper, posting.ID)
	require.NoError(t, err)
	assert.Nil(t, state.Request)
	assert.Equal(t, enums.MatchStatusMatching, state.PostingStatus)

	reqID, err := f.engine.CreateRequest(ctx, enums.PostingRoleShopper, posting.ID, 2, nil)
	require.NoError(t, err)

	// An open bid is not yet a match.
	state, err = f.engine.PostingWithActiveRequest(ctx, enums.PostingRoleShopper, posting.ID)
	require.NoError(t, err)
	assert.Nil(t, state.Request)

	require.NoError(t, f.engine.AcceptRequest(ctx, enums.PostingRoleShopper, reqID, shopperID))

	state, err = f.engine.PostingWithActiveRequest(ctx, enums.PostingRoleShopper, posting.ID)
	require.NoError(t, err)
	require.NotNil(t, state.Request)
	assert.Equal(t, reqID, state.Request.ID)
	assert.Equal(t, enums.MatchStatusMatched, state.Request.Status)
}

func TestEngineRollbackOnFailure(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()

	const (
		shopperID = int64(1)
		runnerID  = int64(2)
	)
	posting := f.seedShopperPosting(t, shopperID)
	reqID, err := f.engine.CreateRequest(ctx, enums.PostingRoleShopper, posting.ID, runnerID, nil)
	require.NoError(t, err)
	require.NoError(t, f.engine.AcceptRequest(ctx, enums.PostingRoleShopper, reqID, shopperID))
	require.NoError(t, f.engine.AdvanceDelivery(ctx, enums.PostingRoleShopper, reqID, runnerID, enums.MatchStatusDeliveredRequest))
	require.NoError(t, f.engine.AdvanceDelivery(ctx, enums.PostingRoleShopper, reqID, shopperID, enums.MatchStatusDelivered))
	require.NoError(t, f.engine.AdvanceDelivery(ctx, enums.PostingRoleShopper, reqID, runnerID, enums.MatchStatusReviewRequest))

	f.recorder.err = fmt.Errorf("reviews table unavailable")
	f.hook.events = nil

	err = f.engine.SubmitReview(ctx, enums.PostingRoleShopper, reqID, shopperID, 5, "great")
	require.Error(t, err)

	// The status writes rolled back with the failed review insert, and no
	// event leaked out.
	assert.Equal(t, enums.MatchStatusReviewRequest, f.shopperRequest(t, reqID).Status)
	assert.Equal(t, enums.MatchStatusReviewRequest, f.shopperPosting(t, posting.ID).Status)
	assert.Empty(t, f.hook.events)
}

func TestEngineInvariantUnderRandomizedActions(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()

	const shopperID = int64(1)
	bidders := []int64{2, 3, 4, 5, 6}
	posting := f.seedShopperPosting(t, shopperID)

	rng := rand.New(rand.NewSource(42))
	var requestIDs []int64

	checkInvariants := func() {
		reqs, err := f.requests.ListShopperRequestsForPosting(ctx, posting.ID)
		require.NoError(t, err)

		matched := 0
		open := 0
		var activeStatus enums.MatchStatus
		for _, req := range reqs {
			switch req.Status {
			case enums.MatchStatusRequesting:
				open++
			case enums.MatchStatusMatchFail:
			default:
				matched++
				activeStatus = req.Status
			}
		}
		require.LessOrEqual(t, matched, 1, "more than one accepted request on posting")

		p := f.shopperPosting(t, posting.ID)
		if matched == 1 {
			require.Zero(t, open, "accepted posting still has a REQUESTING sibling")
			require.Equal(t, activeStatus, p.Status, "posting status out of sync with its accepted request")
		}
	}

	deliverySteps := []enums.MatchStatus{
		enums.MatchStatusDeliveredRequest,
		enums.MatchStatusDelivered,
		enums.MatchStatusReviewRequest,
	}

	for i := 0; i < 300; i++ {
		switch action := rng.Intn(5); {
		case action == 0:
			bidder := bidders[rng.Intn(len(bidders))]
			if id, err := f.engine.CreateRequest(ctx, enums.PostingRoleShopper, posting.ID, bidder, nil); err == nil {
				requestIDs = append(requestIDs, id)
			}
		case len(requestIDs) == 0:
			// nothing to act on yet
		case action == 1:
			id := requestIDs[rng.Intn(len(requestIDs))]
			_ = f.engine.AcceptRequest(ctx, enums.PostingRoleShopper, id, shopperID)
		case action == 2:
			id := requestIDs[rng.Intn(len(requestIDs))]
			_ = f.engine.RejectRequest(ctx, enums.PostingRoleShopper, id, shopperID)
		case action == 3:
			id := requestIDs[rng.Intn(len(requestIDs))]
			req, err := f.requests.FindShopperRequest(ctx, id, false)
			require.NoError(t, err)
			target := deliverySteps[rng.Intn(len(deliverySteps))]
			actor := req.RunnerID
			if target == enums.MatchStatusDelivered {
				actor = shopperID
			}
			_ = f.engine.AdvanceDelivery(ctx, enums.PostingRoleShopper, id, actor, target)
		default:
			id := requestIDs[rng.Intn(len(requestIDs))]
			_ = f.engine.SubmitReview(ctx, enums.PostingRoleShopper, id, shopperID, 1+rng.Intn(5), "randomized run")
		}
		checkInvariants()
	}
}

// racingPostingRepo lands a competing accept between the engine's read of the
// posting and its conditional status write, forcing the version check to miss.
type racingPostingRepo struct {
	postings.Repository
	tx      *gorm.DB
	tripped *bool
}

func (r *racingPostingRepo) WithTx(tx *gorm.DB) postings.Repository {
	return &racingPostingRepo{Repository: r.Repository.WithTx(tx), tx: tx, tripped: r.tripped}
}

func (r *racingPostingRepo) UpdateShopperPostingStatus(ctx context.Context, id, expectedVersion int64, status enums.MatchStatus) error {
	if !*r.tripped {
		*r.tripped = true
		err := r.tx.Exec(
			"UPDATE shopper_postings SET status = ?, lock_version = lock_version + 1 WHERE id = ?",
			enums.MatchStatusMatched, id,
		).Error
		if err != nil {
			return err
		}
	}
	return r.Repository.UpdateShopperPostingStatus(ctx, id, expectedVersion, status)
}

func TestEngineAcceptRaceDisambiguation(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()

	const shopperID = int64(1)
	posting := f.seedShopperPosting(t, shopperID)
	reqID, err := f.engine.CreateRequest(ctx, enums.PostingRoleShopper, posting.ID, 2, nil)
	require.NoError(t, err)

	tripped := false
	racing := NewEngine(db.NewFromGorm(f.conn), &racingPostingRepo{Repository: f.postings, tripped: &tripped}, f.requests, f.recorder, f.hook, nil, nil)

	f.hook.events = nil
	err = racing.AcceptRequest(ctx, enums.PostingRoleShopper, reqID, shopperID)

	// The version miss is re-read and surfaced as the race outcome.
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeAlreadyMatched))
	assert.True(t, tripped)

	// The losing transaction rolled back whole: the request is still open and
	// no event escaped.
	assert.Equal(t, enums.MatchStatusRequesting, f.shopperRequest(t, reqID).Status)
	assert.Empty(t, f.hook.events)
}
