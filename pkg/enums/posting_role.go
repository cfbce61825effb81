package enums

import "fmt"

// PostingRole identifies which side of the marketplace created a posting.
// Shopper postings collect runner bids; runner postings collect shopper bids.
type PostingRole string

const (
	PostingRoleShopper PostingRole = "SHOPPER"
	PostingRoleRunner  PostingRole = "RUNNER"
)

var validPostingRoles = []PostingRole{
	PostingRoleShopper,
	PostingRoleRunner,
}

// String implements fmt.Stringer.
func (p PostingRole) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PostingRole.
func (p PostingRole) IsValid() bool {
	for _, candidate := range validPostingRoles {
		if candidate == p {
			return true
		}
	}
	return false
}

// Counterpart returns the opposite side of the marketplace.
func (p PostingRole) Counterpart() PostingRole {
	if p == PostingRoleShopper {
		return PostingRoleRunner
	}
	return PostingRoleShopper
}

// ParsePostingRole converts raw input into a PostingRole.
func ParsePostingRole(value string) (PostingRole, error) {
	for _, candidate := range validPostingRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid posting role %q", value)
}
