package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sensorable/yoloconv"
)

func TestRenderSkipTable(t *testing.T) {
	out := renderSkipTable([]yoloconv.KindCount{
		{Kind: yoloconv.ErrMissingField, Count: 12},
		{Kind: yoloconv.ErrInvalidGeometry, Count: 3},
		{Count: 1},
	})

	lines := strings.Split(out, "\n")
	assert.Contains(t, out, "missing label field")
	assert.Contains(t, out, "invalid geometry")
	assert.Contains(t, out, "unknown")

	// Counts are right aligned, so rows of different widths end in the same column.
	var rows []string
	for _, l := range lines {
		if strings.Contains(l, "missing label field") || strings.Contains(l, "invalid geometry") {
			rows = append(rows, l)
		}
	}
	if assert.Len(t, rows, 2) {
		assert.True(t, strings.HasSuffix(rows[0], " 12 │"), rows[0])
		assert.True(t, strings.HasSuffix(rows[1], "  3 │"), rows[1])
	}
	assert.Regexp(t, `(?i)total\s+│\s+16 │`, out)
}
