package osc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableBuild(t *testing.T) {
	tests := []struct {
		kind   Kind
		checks map[int]float64
	}{
		{Sine, map[int]float64{0: 0, 64: 1, 128: 0, 192: -1}},
		{Square, map[int]float64{0: 1, 127: 1, 128: -1, 255: -1}},
		{Sawtooth, map[int]float64{0: -1, 128: 0, 192: 0.5}},
		{Triangle, map[int]float64{0: 0, 32: 0.5, 64: 1, 128: 0, 192: -1}},
		{BoolSquare, map[int]float64{0: 1, 128: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			var tbl table
			tbl.build(tt.kind)
			for i, want := range tt.checks {
				assert.InDelta(t, want, tbl.values[i], 1e-9, "index %d", i)
				assert.Equal(t, tbl.values[i] > 0, tbl.bools[i], "boolean projection at %d", i)
			}
		})
	}
}

func TestBoolSquareTable(t *testing.T) {
	var tbl table
	tbl.build(BoolSquare)
	for i := range TableSize {
		assert.Equal(t, i < TableSize/2, tbl.bools[i], "index %d", i)
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range []Kind{Sine, Square, Sawtooth, Triangle, BoolSquare} {
		got, err := ParseKind(k.String())
		assert.NoError(t, err)
		assert.Equal(t, k, got)
	}

	got, err := ParseKind("  Square ")
	assert.NoError(t, err)
	assert.Equal(t, Square, got)

	_, err = ParseKind("noise")
	assert.ErrorIs(t, err, ErrInvalidKind)
	assert.Equal(t, "unknown", Kind(99).String())
}
