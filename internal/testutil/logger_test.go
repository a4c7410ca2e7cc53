package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingTB struct {
	testing.TB
	lines []string
}

func (r *recordingTB) Helper() {}

func (r *recordingTB) Log(args ...any) {
	for _, a := range args {
		r.lines = append(r.lines, a.(string))
	}
}

func TestNewLogger_WritesThroughTestLog(t *testing.T) {
	rec := &recordingTB{TB: t}
	NewLogger(rec).Debug("rendered", "chart", "box-0-age")
	if assert.Len(t, rec.lines, 1) {
		assert.Contains(t, rec.lines[0], "level=DEBUG")
		assert.Contains(t, rec.lines[0], "chart=box-0-age")
	}
}
