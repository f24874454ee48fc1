package bkz

import (
	"fmt"
	"math"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chenjinhua1993/fplll/basis"
	"github.com/chenjinhua1993/fplll/bignumber"
	"github.com/chenjinhua1993/fplll/gso"
)

func TestMain(m *testing.M) {
	err := bignumber.Init(1000)
	if err != nil {
		fmt.Printf("Invalid input to Init: %q", err.Error())
		return
	}
	code := m.Run()
	os.Exit(code)
}

func TestCurrentSlope(t *testing.T) {
	// diagonal entries 8, 4, 2, 1 give log r[i] = (6 - 2i) log 2, an exact
	// line of slope -2 log 2
	b, err := basis.NewFromInt64Array([]int64{
		8, 0, 0, 0,
		0, 4, 0, 0,
		0, 0, 2, 0,
		0, 0, 0, 1,
	}, 4, 4)
	assert.NoError(t, err)
	m := gso.NewMat(b)

	slope, err := CurrentSlope(m, 0, 4)
	assert.NoError(t, err)
	assert.InDelta(t, -2*math.Ln2, slope, 1.0e-9)

	// a sub-range of the same profile has the same slope
	slope, err = CurrentSlope(m, 1, 3)
	assert.NoError(t, err)
	assert.InDelta(t, -2*math.Ln2, slope, 1.0e-9)
}

func TestCurrentSlopeFlat(t *testing.T) {
	b, err := basis.NewFromInt64Array([]int64{3, 0, 0, 3}, 2, 2)
	assert.NoError(t, err)
	slope, err := CurrentSlope(gso.NewMat(b), 0, 2)
	assert.NoError(t, err)
	assert.InDelta(t, 0.0, slope, 1.0e-9)
}

func TestAutoAbortStall(t *testing.T) {
	// a slope that never improves trips the abort after maxNoDec stalled
	// checks beyond the first
	abort := &autoAbort{slope: func() (float64, error) { return -1.0, nil }}
	abort.oldSlope = math.Inf(1)
	abort.noDec = -1

	for call := 0; call < 5; call++ {
		stalled, err := abort.test(DefaultAutoAbortScale, 5)
		assert.NoError(t, err)
		assert.False(t, stalled, "call %d", call)
	}
	stalled, err := abort.test(DefaultAutoAbortScale, 5)
	assert.NoError(t, err)
	assert.True(t, stalled)
}

func TestAutoAbortImprovement(t *testing.T) {
	// a profile that keeps flattening resets the stall counter every time
	slopes := []float64{-8, -4, -2, -1, -0.5, -0.25, -0.125}
	next := 0
	abort := &autoAbort{
		slope: func() (float64, error) {
			slope := slopes[next]
			next++
			return slope, nil
		},
		oldSlope: math.Inf(1),
		noDec:    -1,
	}
	for call := range slopes {
		stalled, err := abort.test(DefaultAutoAbortScale, 2)
		assert.NoError(t, err)
		assert.False(t, stalled, "call %d", call)
	}
}

func TestAutoAbortScale(t *testing.T) {
	// with scale 0.5, an improvement below a factor of two counts as a
	// stall
	slopes := []float64{-4, -3, -2.5, -2.2}
	next := 0
	abort := &autoAbort{
		slope: func() (float64, error) {
			slope := slopes[next]
			next++
			return slope, nil
		},
		oldSlope: math.Inf(1),
		noDec:    -1,
	}
	stalled, err := abort.test(0.5, 3)
	assert.NoError(t, err)
	assert.False(t, stalled)
	for call := 1; call < 4; call++ {
		stalled, err = abort.test(0.5, 3)
		assert.NoError(t, err)
		if call < 3 {
			assert.False(t, stalled, "call %d", call)
		}
	}
	assert.True(t, stalled)
}
