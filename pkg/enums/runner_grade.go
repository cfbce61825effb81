package enums

import "fmt"

// RunnerGrade is the service tier a runner has earned from completed orders.
type RunnerGrade string

const (
	RunnerGradeNew        RunnerGrade = "NEW"
	RunnerGradeEffort     RunnerGrade = "EFFORT"
	RunnerGradeExcellence RunnerGrade = "EXCELLENCE"
	RunnerGradeBest       RunnerGrade = "BEST"
)

var validRunnerGrades = []RunnerGrade{
	RunnerGradeNew,
	RunnerGradeEffort,
	RunnerGradeExcellence,
	RunnerGradeBest,
}

// String implements fmt.Stringer.
func (r RunnerGrade) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RunnerGrade.
func (r RunnerGrade) IsValid() bool {
	for _, candidate := range validRunnerGrades {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRunnerGrade converts raw input into a RunnerGrade.
func ParseRunnerGrade(value string) (RunnerGrade, error) {
	for _, candidate := range validRunnerGrades {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid runner grade %q", value)
}
