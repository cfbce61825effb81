package matching

import "github.com/minsukang/dalligo-backend/pkg/enums"

// SystemActorID marks transitions performed by background jobs rather than a
// user, such as the posting expiry sweep.
const SystemActorID int64 = 0

// side identifies which marketplace party is allowed to drive a transition.
type side int

const (
	sideShopper side = iota
	sideRunner
)

// deliveryEdge captures one allowed post-match transition together with the
// party that may perform it. The runner reports progress, the shopper
// confirms it.
type deliveryEdge struct {
	to    enums.MatchStatus
	actor side
	kind  enums.NotificationKind
}

// deliveryEdges is keyed by the current request status. REVIEWED is absent on
// purpose: the final transition is only reachable through SubmitReview, which
// must record the review in the same transaction.
var deliveryEdges = map[enums.MatchStatus]deliveryEdge{
	enums.MatchStatusMatched: {
		to:    enums.MatchStatusDeliveredRequest,
		actor: sideRunner,
		kind:  enums.NotificationKindDeliveryRequested,
	},
	enums.MatchStatusDeliveredRequest: {
		to:    enums.MatchStatusDelivered,
		actor: sideShopper,
		kind:  enums.NotificationKindDeliveryConfirmed,
	},
	enums.MatchStatusDelivered: {
		to:    enums.MatchStatusReviewRequest,
		actor: sideRunner,
		kind:  enums.NotificationKindReviewRequested,
	},
}
