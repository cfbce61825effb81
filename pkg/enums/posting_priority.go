package enums

import "fmt"

// PostingPriority is the urgency tier a shopper assigns to their posting.
type PostingPriority string

const (
	PostingPriorityFree   PostingPriority = "FREE"
	PostingPriorityNormal PostingPriority = "NORMAL"
	PostingPriorityUrgent PostingPriority = "URGENT"
)

var validPostingPriorities = []PostingPriority{
	PostingPriorityFree,
	PostingPriorityNormal,
	PostingPriorityUrgent,
}

// String implements fmt.Stringer.
func (p PostingPriority) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PostingPriority.
func (p PostingPriority) IsValid() bool {
	for _, candidate := range validPostingPriorities {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePostingPriority converts raw input into a PostingPriority.
func ParsePostingPriority(value string) (PostingPriority, error) {
	for _, candidate := range validPostingPriorities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid posting priority %q", value)
}
