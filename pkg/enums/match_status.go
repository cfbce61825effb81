package enums

import "fmt"

// MatchStatus is the shared lifecycle vocabulary for postings and the
// requests bid against them.
type MatchStatus string

const (
	// MatchStatusMatching marks a shopper posting actively open for bids.
	MatchStatusMatching MatchStatus = "MATCHING"
	// MatchStatusRequesting marks a request that has been placed and is
	// awaiting the poster's decision.
	MatchStatusRequesting       MatchStatus = "REQUESTING"
	MatchStatusMatched          MatchStatus = "MATCHED"
	MatchStatusMatchFail        MatchStatus = "MATCH_FAIL"
	MatchStatusDeliveredRequest MatchStatus = "DELIVERED_REQUEST"
	MatchStatusDelivered        MatchStatus = "DELIVERED"
	MatchStatusReviewRequest    MatchStatus = "REVIEW_REQUEST"
	MatchStatusReviewed         MatchStatus = "REVIEWED"
)

var validMatchStatuses = []MatchStatus{
	MatchStatusMatching,
	MatchStatusRequesting,
	MatchStatusMatched,
	MatchStatusMatchFail,
	MatchStatusDeliveredRequest,
	MatchStatusDelivered,
	MatchStatusReviewRequest,
	MatchStatusReviewed,
}

// String implements fmt.Stringer.
func (m MatchStatus) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MatchStatus.
func (m MatchStatus) IsValid() bool {
	for _, candidate := range validMatchStatuses {
		if candidate == m {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition may leave this status.
func (m MatchStatus) IsTerminal() bool {
	return m == MatchStatusMatchFail || m == MatchStatusReviewed
}

// ParseMatchStatus converts raw input into a MatchStatus.
func ParseMatchStatus(value string) (MatchStatus, error) {
	for _, candidate := range validMatchStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid match status %q", value)
}
