package enums

import "fmt"

// ServiceRadius is the distance tier a runner offers to cover.
type ServiceRadius string

const (
	ServiceRadius100M ServiceRadius = "100M"
	ServiceRadius250M ServiceRadius = "250M"
	ServiceRadius500M ServiceRadius = "500M"
	ServiceRadius1KM  ServiceRadius = "1KM"
	ServiceRadius1_5K ServiceRadius = "1.5KM"
	ServiceRadius2_5K ServiceRadius = "2.5KM"
	ServiceRadius5KM  ServiceRadius = "5KM"
	ServiceRadius10KM ServiceRadius = "10KM"
)

var validServiceRadii = []ServiceRadius{
	ServiceRadius100M,
	ServiceRadius250M,
	ServiceRadius500M,
	ServiceRadius1KM,
	ServiceRadius1_5K,
	ServiceRadius2_5K,
	ServiceRadius5KM,
	ServiceRadius10KM,
}

// String implements fmt.Stringer.
func (s ServiceRadius) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ServiceRadius.
func (s ServiceRadius) IsValid() bool {
	for _, candidate := range validServiceRadii {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseServiceRadius converts raw input into a ServiceRadius.
func ParseServiceRadius(value string) (ServiceRadius, error) {
	for _, candidate := range validServiceRadii {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid service radius %q", value)
}
