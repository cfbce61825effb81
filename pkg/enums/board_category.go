package enums

import "fmt"

// BoardCategory distinguishes the two board post kinds.
type BoardCategory string

const (
	BoardCategoryInformation BoardCategory = "information"
	BoardCategoryNotice      BoardCategory = "notice"
)

var validBoardCategories = []BoardCategory{
	BoardCategoryInformation,
	BoardCategoryNotice,
}

// String implements fmt.Stringer.
func (b BoardCategory) String() string {
	return string(b)
}

// IsValid reports whether the value is a known BoardCategory.
func (b BoardCategory) IsValid() bool {
	for _, candidate := range validBoardCategories {
		if candidate == b {
			return true
		}
	}
	return false
}

// ParseBoardCategory converts raw input into a BoardCategory.
func ParseBoardCategory(value string) (BoardCategory, error) {
	for _, candidate := range validBoardCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid board category %q", value)
}
