package viz

import (
	"fmt"
	"strings"
)

// SelectionRequiredError is returned when several columns could back a chart
// and none was picked.
type SelectionRequiredError struct {
	Kind    Kind
	Options []string
}

func (e *SelectionRequiredError) Error() string {
	return fmt.Sprintf("%s: select a column (one of %s)", e.Kind, strings.Join(e.Options, ", "))
}
