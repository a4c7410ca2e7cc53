package analysis

import "fmt"

// InsufficientDataError marks a section whose precondition is not met. It is
// never fatal: the section degrades to a "not applicable" notice.
type InsufficientDataError struct {
	Section string
	Reason  string
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s: not applicable (%s)", e.Section, e.Reason)
}
