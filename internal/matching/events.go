package matching

import (
	"context"

	"github.com/minsukang/dalligo-backend/pkg/enums"
)

// TransitionEvent describes a committed lifecycle transition. Events are
// emitted only after the surrounding transaction has committed, so a hook
// never observes a transition that later rolled back.
type TransitionEvent struct {
	Role        enums.PostingRole
	Kind        enums.NotificationKind
	PostingID   int64
	RequestID   int64
	RecipientID int64
	ActorID     int64
	From        enums.MatchStatus
	To          enums.MatchStatus
}

// Hook receives transition events. Implementations must not block the
// caller for long; delivery is best-effort and failures are logged, not
// propagated.
type Hook interface {
	Notify(ctx context.Context, event TransitionEvent)
}

// NopHook discards all events.
type NopHook struct{}

func (NopHook) Notify(context.Context, TransitionEvent) {}
