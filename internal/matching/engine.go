package matching

import (
	"context"
	stderrors "errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/minsukang/dalligo-backend/internal/postings"
	"github.com/minsukang/dalligo-backend/internal/requests"
	"github.com/minsukang/dalligo-backend/pkg/db"
	"github.com/minsukang/dalligo-backend/pkg/enums"
	pkgerrors "github.com/minsukang/dalligo-backend/pkg/errors"
	"github.com/minsukang/dalligo-backend/pkg/logger"
	"github.com/minsukang/dalligo-backend/pkg/metrics"
)

// ReviewInput carries the review payload recorded when a match reaches
// REVIEWED.
type ReviewInput struct {
	Role      enums.PostingRole
	RequestID int64
	WriterID  int64
	TargetID  int64
	Rating    int
	Contents  string
}

// ReviewRecorder persists a review inside the caller's transaction.
type ReviewRecorder interface {
	Record(ctx context.Context, tx *gorm.DB, input ReviewInput) error
}

// RequestSummary is the request half of a match state lookup.
type RequestSummary struct {
	ID       int64
	BidderID int64
	Status   enums.MatchStatus
}

// MatchState is the combined posting/request view returned by
// PostingWithActiveRequest.
type MatchState struct {
	Role          enums.PostingRole
	PostingID     int64
	OwnerID       int64
	PostingStatus enums.MatchStatus
	Request       *RequestSummary
}

// Engine drives the posting/request lifecycle for both marketplace roles.
// Every mutation runs in a single transaction; the posting row, the touched
// request row, and any invalidated sibling rows commit or roll back together.
type Engine struct {
	db       *db.Client
	postings postings.Repository
	requests requests.Repository
	reviews  ReviewRecorder
	hook     Hook
	metrics  *metrics.MatchingMetrics
	log      *logger.Logger
}

// NewEngine wires the matching engine. Hook and metrics may be nil.
func NewEngine(
	client *db.Client,
	postingRepo postings.Repository,
	requestRepo requests.Repository,
	reviews ReviewRecorder,
	hook Hook,
	matchingMetrics *metrics.MatchingMetrics,
	log *logger.Logger,
) *Engine {
	if hook == nil {
		hook = NopHook{}
	}
	return &Engine{
		db:       client,
		postings: postingRepo,
		requests: requestRepo,
		reviews:  reviews,
		hook:     hook,
		metrics:  matchingMetrics,
		log:      log,
	}
}

// postingState is a role-normalized posting snapshot. Runner postings have no
// status column, so their status is derived from the claim marker.
type postingState struct {
	id          int64
	ownerID     int64
	status      enums.MatchStatus
	lockVersion int64
}

// requestState is a role-normalized request snapshot.
type requestState struct {
	id          int64
	postingID   int64
	bidderID    int64
	status      enums.MatchStatus
	lockVersion int64
}

func (e *Engine) loadPosting(ctx context.Context, tx *gorm.DB, role enums.PostingRole, id int64) (postingState, error) {
	repo := e.postings.WithTx(tx)
	switch role {
	case enums.PostingRoleShopper:
		p, err := repo.FindShopperPosting(ctx, id, false)
		if err != nil {
			return postingState{}, mapFindErr(err, "posting")
		}
		return postingState{id: p.ID, ownerID: p.ShopperID, status: p.Status, lockVersion: p.LockVersion}, nil
	case enums.PostingRoleRunner:
		p, err := repo.FindRunnerPosting(ctx, id, false)
		if err != nil {
			return postingState{}, mapFindErr(err, "posting")
		}
		status := enums.MatchStatusMatching
		if p.ClaimedShopperID != nil {
			status = enums.MatchStatusMatched
		}
		return postingState{id: p.ID, ownerID: p.RunnerID, status: status, lockVersion: p.LockVersion}, nil
	default:
		return postingState{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown posting role %q", role))
	}
}

func (e *Engine) loadRequest(ctx context.Context, tx *gorm.DB, role enums.PostingRole, id int64) (requestState, error) {
	repo := e.requests.WithTx(tx)
	switch role {
	case enums.PostingRoleShopper:
		r, err := repo.FindShopperRequest(ctx, id, false)
		if err != nil {
			return requestState{}, mapFindErr(err, "request")
		}
		return requestState{id: r.ID, postingID: r.PostingID, bidderID: r.RunnerID, status: r.Status, lockVersion: r.LockVersion}, nil
	case enums.PostingRoleRunner:
		r, err := repo.FindRunnerRequest(ctx, id, false)
		if err != nil {
			return requestState{}, mapFindErr(err, "request")
		}
		return requestState{id: r.ID, postingID: r.PostingID, bidderID: r.ShopperID, status: r.Status, lockVersion: r.LockVersion}, nil
	default:
		return requestState{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown posting role %q", role))
	}
}

func (e *Engine) listRequests(ctx context.Context, tx *gorm.DB, role enums.PostingRole, postingID int64) ([]requestState, error) {
	repo := e.requests.WithTx(tx)
	var states []requestState
	if role == enums.PostingRoleShopper {
		rows, err := repo.ListShopperRequestsForPosting(ctx, postingID)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			states = append(states, requestState{id: r.ID, postingID: r.PostingID, bidderID: r.RunnerID, status: r.Status, lockVersion: r.LockVersion})
		}
		return states, nil
	}
	rows, err := repo.ListRunnerRequestsForPosting(ctx, postingID)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		states = append(states, requestState{id: r.ID, postingID: r.PostingID, bidderID: r.ShopperID, status: r.Status, lockVersion: r.LockVersion})
	}
	return states, nil
}

func (e *Engine) setRequestStatus(ctx context.Context, tx *gorm.DB, role enums.PostingRole, req requestState, to enums.MatchStatus) error {
	repo := e.requests.WithTx(tx)
	if role == enums.PostingRoleShopper {
		return repo.UpdateShopperRequestStatus(ctx, req.id, req.lockVersion, to)
	}
	return repo.UpdateRunnerRequestStatus(ctx, req.id, req.lockVersion, to)
}

// mirrorPostingStatus pushes a request transition onto the posting row. For
// shopper postings the status column tracks the active request directly; for
// runner postings only the MATCHED transition is visible, as the claim.
func (e *Engine) mirrorPostingStatus(ctx context.Context, tx *gorm.DB, role enums.PostingRole, posting postingState, to enums.MatchStatus, matchedShopperID int64) error {
	repo := e.postings.WithTx(tx)
	if role == enums.PostingRoleShopper {
		return repo.UpdateShopperPostingStatus(ctx, posting.id, posting.lockVersion, to)
	}
	if to == enums.MatchStatusMatched {
		return repo.ClaimRunnerPosting(ctx, posting.id, posting.lockVersion, matchedShopperID)
	}
	return nil
}

func mapFindErr(err error, what string) error {
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, what+" not found")
	}
	return err
}

// postingOpen reports whether a posting still accepts bids.
func postingOpen(status enums.MatchStatus) bool {
	return status == enums.MatchStatusMatching || status == enums.MatchStatusRequesting
}

func (e *Engine) emit(ctx context.Context, events []TransitionEvent) {
	for _, ev := range events {
		e.hook.Notify(ctx, ev)
		if e.metrics != nil {
			e.metrics.IncTransition(ev.Role.String(), ev.From.String(), ev.To.String())
		}
	}
}

// CreateRequest places a bid on an open posting. The first bid moves a
// shopper posting from MATCHING to REQUESTING; later bids leave it there.
func (e *Engine) CreateRequest(ctx context.Context, role enums.PostingRole, postingID, bidderID int64, linkedShopperPostingID *int64) (int64, error) {
	if !role.IsValid() {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown posting role %q", role))
	}
	if bidderID <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "bidder id is required")
	}

	var (
		requestID int64
		events    []TransitionEvent
	)
	err := e.db.WithTx(ctx, func(tx *gorm.DB) error {
		posting, err := e.loadPosting(ctx, tx, role, postingID)
		if err != nil {
			return err
		}
		if posting.ownerID == bidderID {
			return pkgerrors.New(pkgerrors.CodeValidation, "cannot bid on own posting")
		}
		if !postingOpen(posting.status) {
			if posting.status == enums.MatchStatusMatchFail {
				return pkgerrors.New(pkgerrors.CodePostingClosed, "posting is closed")
			}
			return pkgerrors.New(pkgerrors.CodePostingClosed, "posting is already matched")
		}
		if err := e.ensureNoOpenBid(ctx, tx, role, postingID, bidderID); err != nil {
			return err
		}

		requestID, err = e.insertRequest(ctx, tx, role, postingID, bidderID, linkedShopperPostingID)
		if err != nil {
			return err
		}

		if role == enums.PostingRoleShopper && posting.status == enums.MatchStatusMatching {
			if err := e.mirrorPostingStatus(ctx, tx, role, posting, enums.MatchStatusRequesting, 0); err != nil {
				return err
			}
		}

		events = append(events, TransitionEvent{
			Role:        role,
			Kind:        enums.NotificationKindRequestReceived,
			PostingID:   postingID,
			RequestID:   requestID,
			RecipientID: posting.ownerID,
			ActorID:     bidderID,
			To:          enums.MatchStatusRequesting,
		})
		return nil
	})
	if err != nil {
		e.noteConflict(role, "create_request", err)
		return 0, err
	}
	e.emit(ctx, events)
	return requestID, nil
}

func (e *Engine) ensureNoOpenBid(ctx context.Context, tx *gorm.DB, role enums.PostingRole, postingID, bidderID int64) error {
	repo := e.requests.WithTx(tx)
	var err error
	if role == enums.PostingRoleShopper {
		_, err = repo.FindOpenShopperRequest(ctx, postingID, bidderID)
	} else {
		_, err = repo.FindOpenRunnerRequest(ctx, postingID, bidderID)
	}
	if err == nil {
		return pkgerrors.New(pkgerrors.CodeConflict, "an open bid on this posting already exists")
	}
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}

func (e *Engine) insertRequest(ctx context.Context, tx *gorm.DB, role enums.PostingRole, postingID, bidderID int64, linkedShopperPostingID *int64) (int64, error) {
	repo := e.requests.WithTx(tx)
	if role == enums.PostingRoleShopper {
		created, err := repo.CreateShopperRequest(ctx, newShopperRequest(postingID, bidderID))
		if err != nil {
			return 0, err
		}
		return created.ID, nil
	}
	created, err := repo.CreateRunnerRequest(ctx, newRunnerRequest(postingID, bidderID, linkedShopperPostingID))
	if err != nil {
		return 0, err
	}
	return created.ID, nil
}

// AcceptRequest matches a bid. The accepted request and the posting both move
// to MATCHED, and every other open bid on the posting is invalidated to
// MATCH_FAIL in the same transaction, so no observer sees a matched posting
// with live siblings.
func (e *Engine) AcceptRequest(ctx context.Context, role enums.PostingRole, requestID, actorID int64) error {
	var events []TransitionEvent
	err := e.db.WithTx(ctx, func(tx *gorm.DB) error {
		req, err := e.loadRequest(ctx, tx, role, requestID)
		if err != nil {
			return err
		}
		posting, err := e.loadPosting(ctx, tx, role, req.postingID)
		if err != nil {
			return err
		}
		if posting.ownerID != actorID {
			return pkgerrors.New(pkgerrors.CodeNotOwner, "only the posting owner may accept a request")
		}
		if !postingOpen(posting.status) {
			if posting.status == enums.MatchStatusMatchFail {
				return pkgerrors.New(pkgerrors.CodeStaleState, "posting was closed without a match")
			}
			return pkgerrors.New(pkgerrors.CodeAlreadyMatched, "posting is already matched")
		}
		switch req.status {
		case enums.MatchStatusRequesting:
		case enums.MatchStatusMatchFail:
			return pkgerrors.New(pkgerrors.CodeStaleState, "request was already invalidated")
		default:
			return pkgerrors.New(pkgerrors.CodeInvalidTransition,
				fmt.Sprintf("cannot accept a request in status %s", req.status))
		}

		if err := e.setRequestStatus(ctx, tx, role, req, enums.MatchStatusMatched); err != nil {
			return err
		}
		if err := e.mirrorPostingStatus(ctx, tx, role, posting, enums.MatchStatusMatched, req.bidderID); err != nil {
			return e.disambiguateAccept(ctx, tx, role, posting, err)
		}

		siblings, err := e.listRequests(ctx, tx, role, req.postingID)
		if err != nil {
			return err
		}
		for _, sib := range siblings {
			if sib.id == req.id || sib.status != enums.MatchStatusRequesting {
				continue
			}
			if err := e.setRequestStatus(ctx, tx, role, sib, enums.MatchStatusMatchFail); err != nil {
				return err
			}
			events = append(events, TransitionEvent{
				Role:        role,
				Kind:        enums.NotificationKindRequestRejected,
				PostingID:   req.postingID,
				RequestID:   sib.id,
				RecipientID: sib.bidderID,
				ActorID:     actorID,
				From:        enums.MatchStatusRequesting,
				To:          enums.MatchStatusMatchFail,
			})
		}

		events = append(events, TransitionEvent{
			Role:        role,
			Kind:        enums.NotificationKindRequestAccepted,
			PostingID:   req.postingID,
			RequestID:   req.id,
			RecipientID: req.bidderID,
			ActorID:     actorID,
			From:        enums.MatchStatusRequesting,
			To:          enums.MatchStatusMatched,
		})
		return nil
	})
	if err != nil {
		e.noteConflict(role, "accept_request", err)
		return err
	}
	e.emit(ctx, events)
	return nil
}

// disambiguateAccept turns a version miss on the posting row into the error
// the caller can act on: AlreadyMatched when a concurrent accept won the
// race, VersionConflict for any other interleaved write.
func (e *Engine) disambiguateAccept(ctx context.Context, tx *gorm.DB, role enums.PostingRole, posting postingState, cause error) error {
	if !pkgerrors.HasCode(cause, pkgerrors.CodeVersionConflict) {
		return cause
	}
	current, err := e.loadPosting(ctx, tx, role, posting.id)
	if err != nil {
		return cause
	}
	if current.status == enums.MatchStatusMatched {
		return pkgerrors.Wrap(pkgerrors.CodeAlreadyMatched, cause, "posting was matched concurrently")
	}
	return cause
}

// RejectRequest invalidates a single open bid. The posting owner or the
// system actor may reject; the posting itself is left open.
func (e *Engine) RejectRequest(ctx context.Context, role enums.PostingRole, requestID, actorID int64) error {
	var events []TransitionEvent
	err := e.db.WithTx(ctx, func(tx *gorm.DB) error {
		req, err := e.loadRequest(ctx, tx, role, requestID)
		if err != nil {
			return err
		}
		posting, err := e.loadPosting(ctx, tx, role, req.postingID)
		if err != nil {
			return err
		}
		if actorID != SystemActorID && posting.ownerID != actorID {
			return pkgerrors.New(pkgerrors.CodeNotOwner, "only the posting owner may reject a request")
		}
		switch req.status {
		case enums.MatchStatusRequesting:
		case enums.MatchStatusMatchFail:
			return pkgerrors.New(pkgerrors.CodeStaleState, "request was already invalidated")
		default:
			return pkgerrors.New(pkgerrors.CodeInvalidTransition,
				fmt.Sprintf("cannot reject a request in status %s", req.status))
		}

		if err := e.setRequestStatus(ctx, tx, role, req, enums.MatchStatusMatchFail); err != nil {
			return err
		}
		events = append(events, TransitionEvent{
			Role:        role,
			Kind:        enums.NotificationKindRequestRejected,
			PostingID:   req.postingID,
			RequestID:   req.id,
			RecipientID: req.bidderID,
			ActorID:     actorID,
			From:        enums.MatchStatusRequesting,
			To:          enums.MatchStatusMatchFail,
		})
		return nil
	})
	if err != nil {
		e.noteConflict(role, "reject_request", err)
		return err
	}
	e.emit(ctx, events)
	return nil
}

// AdvanceDelivery moves a matched request one step along the delivery flow.
// The required actor alternates between runner and shopper per step.
func (e *Engine) AdvanceDelivery(ctx context.Context, role enums.PostingRole, requestID, actorID int64, target enums.MatchStatus) error {
	var events []TransitionEvent
	err := e.db.WithTx(ctx, func(tx *gorm.DB) error {
		req, err := e.loadRequest(ctx, tx, role, requestID)
		if err != nil {
			return err
		}
		posting, err := e.loadPosting(ctx, tx, role, req.postingID)
		if err != nil {
			return err
		}

		edge, ok := deliveryEdges[req.status]
		if !ok || edge.to != target {
			if req.status.IsTerminal() {
				return pkgerrors.New(pkgerrors.CodeStaleState,
					fmt.Sprintf("request already finished in status %s", req.status))
			}
			return pkgerrors.New(pkgerrors.CodeInvalidTransition,
				fmt.Sprintf("cannot move request from %s to %s", req.status, target))
		}
		if err := requireSide(role, posting, req, edge.actor, actorID); err != nil {
			return err
		}

		if err := e.setRequestStatus(ctx, tx, role, req, target); err != nil {
			return err
		}
		if err := e.mirrorPostingStatus(ctx, tx, role, posting, target, 0); err != nil {
			return err
		}

		recipient := posting.ownerID
		if actorID == posting.ownerID {
			recipient = req.bidderID
		}
		events = append(events, TransitionEvent{
			Role:        role,
			Kind:        edge.kind,
			PostingID:   req.postingID,
			RequestID:   req.id,
			RecipientID: recipient,
			ActorID:     actorID,
			From:        req.status,
			To:          target,
		})
		return nil
	})
	if err != nil {
		e.noteConflict(role, "advance_delivery", err)
		return err
	}
	e.emit(ctx, events)
	return nil
}

// SubmitReview completes a match. The shopper's review is recorded and the
// request (and shopper posting) move to REVIEWED in one transaction.
func (e *Engine) SubmitReview(ctx context.Context, role enums.PostingRole, requestID, actorID int64, rating int, contents string) error {
	if rating < 1 || rating > 5 {
		return pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}

	var events []TransitionEvent
	err := e.db.WithTx(ctx, func(tx *gorm.DB) error {
		req, err := e.loadRequest(ctx, tx, role, requestID)
		if err != nil {
			return err
		}
		posting, err := e.loadPosting(ctx, tx, role, req.postingID)
		if err != nil {
			return err
		}
		if req.status != enums.MatchStatusReviewRequest {
			if req.status.IsTerminal() {
				return pkgerrors.New(pkgerrors.CodeStaleState,
					fmt.Sprintf("request already finished in status %s", req.status))
			}
			return pkgerrors.New(pkgerrors.CodeInvalidTransition,
				fmt.Sprintf("cannot review a request in status %s", req.status))
		}
		if err := requireSide(role, posting, req, sideShopper, actorID); err != nil {
			return err
		}

		if err := e.setRequestStatus(ctx, tx, role, req, enums.MatchStatusReviewed); err != nil {
			return err
		}
		if err := e.mirrorPostingStatus(ctx, tx, role, posting, enums.MatchStatusReviewed, 0); err != nil {
			return err
		}

		runnerID := runnerUser(role, posting, req)
		if e.reviews != nil {
			err := e.reviews.Record(ctx, tx, ReviewInput{
				Role:      role,
				RequestID: req.id,
				WriterID:  actorID,
				TargetID:  runnerID,
				Rating:    rating,
				Contents:  contents,
			})
			if err != nil {
				return err
			}
		}

		events = append(events, TransitionEvent{
			Role:        role,
			Kind:        enums.NotificationKindReviewSubmitted,
			PostingID:   req.postingID,
			RequestID:   req.id,
			RecipientID: runnerID,
			ActorID:     actorID,
			From:        enums.MatchStatusReviewRequest,
			To:          enums.MatchStatusReviewed,
		})
		return nil
	})
	if err != nil {
		e.noteConflict(role, "submit_review", err)
		return err
	}
	e.emit(ctx, events)
	return nil
}

// ClosePosting fails an unmatched posting together with all of its open
// bids. The owner or the system actor may close; closing after a match is an
// invalid transition and closing twice is stale.
func (e *Engine) ClosePosting(ctx context.Context, role enums.PostingRole, postingID, actorID int64) error {
	var events []TransitionEvent
	err := e.db.WithTx(ctx, func(tx *gorm.DB) error {
		posting, err := e.loadPosting(ctx, tx, role, postingID)
		if err != nil {
			return err
		}
		if actorID != SystemActorID && posting.ownerID != actorID {
			return pkgerrors.New(pkgerrors.CodeNotOwner, "only the posting owner may close a posting")
		}
		switch {
		case postingOpen(posting.status):
		case posting.status == enums.MatchStatusMatchFail:
			return pkgerrors.New(pkgerrors.CodeStaleState, "posting is already closed")
		default:
			return pkgerrors.New(pkgerrors.CodeInvalidTransition,
				fmt.Sprintf("cannot close a posting in status %s", posting.status))
		}

		if role == enums.PostingRoleShopper {
			if err := e.mirrorPostingStatus(ctx, tx, role, posting, enums.MatchStatusMatchFail, 0); err != nil {
				return err
			}
		}

		reqs, err := e.listRequests(ctx, tx, role, postingID)
		if err != nil {
			return err
		}
		open := reqs[:0]
		for _, req := range reqs {
			if req.status == enums.MatchStatusRequesting {
				open = append(open, req)
			}
		}
		// Runner postings record closure only on their bids, so no open bid
		// means there is nothing left to close.
		if role == enums.PostingRoleRunner && len(open) == 0 {
			return pkgerrors.New(pkgerrors.CodeStaleState, "posting has no open bids to close")
		}
		for _, req := range open {
			if err := e.setRequestStatus(ctx, tx, role, req, enums.MatchStatusMatchFail); err != nil {
				return err
			}
			events = append(events, TransitionEvent{
				Role:        role,
				Kind:        enums.NotificationKindRequestRejected,
				PostingID:   postingID,
				RequestID:   req.id,
				RecipientID: req.bidderID,
				ActorID:     actorID,
				From:        enums.MatchStatusRequesting,
				To:          enums.MatchStatusMatchFail,
			})
		}
		return nil
	})
	if err != nil {
		e.noteConflict(role, "close_posting", err)
		return err
	}
	e.emit(ctx, events)
	return nil
}

// PostingWithActiveRequest returns the posting's current status together with
// the request carrying the match, if one exists.
func (e *Engine) PostingWithActiveRequest(ctx context.Context, role enums.PostingRole, postingID int64) (*MatchState, error) {
	posting, err := e.loadPosting(ctx, nil, role, postingID)
	if err != nil {
		return nil, err
	}

	state := &MatchState{
		Role:          role,
		PostingID:     posting.id,
		OwnerID:       posting.ownerID,
		PostingStatus: posting.status,
	}

	if role == enums.PostingRoleShopper {
		req, err := e.requests.FindActiveShopperRequest(ctx, postingID)
		if err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return state, nil
			}
			return nil, err
		}
		state.Request = &RequestSummary{ID: req.ID, BidderID: req.RunnerID, Status: req.Status}
		return state, nil
	}

	req, err := e.requests.FindActiveRunnerRequest(ctx, postingID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return state, nil
		}
		return nil, err
	}
	state.Request = &RequestSummary{ID: req.ID, BidderID: req.ShopperID, Status: req.Status}
	return state, nil
}

// requireSide checks that the actor is the party a transition belongs to.
func requireSide(role enums.PostingRole, posting postingState, req requestState, want side, actorID int64) error {
	var allowed int64
	if want == sideRunner {
		allowed = runnerUser(role, posting, req)
	} else {
		allowed = shopperUser(role, posting, req)
	}
	if actorID != allowed {
		return pkgerrors.New(pkgerrors.CodeNotOwner, "actor may not perform this transition")
	}
	return nil
}

// runnerUser resolves which user is the runner in a match. On a shopper
// posting the bidder runs; on a runner posting the owner does.
func runnerUser(role enums.PostingRole, posting postingState, req requestState) int64 {
	if role == enums.PostingRoleShopper {
		return req.bidderID
	}
	return posting.ownerID
}

func shopperUser(role enums.PostingRole, posting postingState, req requestState) int64 {
	if role == enums.PostingRoleShopper {
		return posting.ownerID
	}
	return req.bidderID
}

func (e *Engine) noteConflict(role enums.PostingRole, operation string, err error) {
	if e.metrics == nil {
		return
	}
	if pkgerrors.HasCode(err, pkgerrors.CodeVersionConflict) || pkgerrors.HasCode(err, pkgerrors.CodeAlreadyMatched) {
		e.metrics.IncConflict(role.String(), operation)
	}
}
