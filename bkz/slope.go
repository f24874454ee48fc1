package bkz

import (
	"math"

	"github.com/chenjinhua1993/fplll/gso"
)

// CurrentSlope returns the ordinary-least-squares slope of the log-norm
// profile log(r[i]) over the rows [startRow, stopRow). Every row in the
// range is refreshed before it is read, so this is a read-with-recompute
// operation on the orthogonalization state.
func CurrentSlope(m *gso.Mat, startRow, stopRow int) (float64, error) {
	y := make([]float64, stopRow-startRow)
	for i := startRow; i < stopRow; i++ {
		rI, err := m.R(i)
		if err != nil {
			return 0, err
		}
		logR, err := rI.Log()
		if err != nil {
			return 0, err
		}
		y[i-startRow] = logR
	}
	n := stopRow - startRow
	iMean := float64(n-1) * 0.5
	yMean := 0.0
	for _, yI := range y {
		yMean += yI
	}
	yMean /= float64(n)
	v1, v2 := 0.0, 0.0
	for i, yI := range y {
		v1 += (float64(i) - iMean) * (yI - yMean)
		v2 += (float64(i) - iMean) * (float64(i) - iMean)
	}
	return v1 / v2, nil
}

// autoAbort decides when further tours are unproductive: it tracks the best
// (most negative) profile slope seen so far and a stall counter, and signals
// abort once the slope has failed to improve by the configured relative
// margin for maxNoDec consecutive checks. One autoAbort is scoped to one
// tour sequence and discarded with it.
type autoAbort struct {
	slope    func() (float64, error)
	oldSlope float64
	noDec    int
}

func newAutoAbort(m *gso.Mat, startRow, stopRow int) *autoAbort {
	return &autoAbort{
		slope: func() (float64, error) {
			return CurrentSlope(m, startRow, stopRow)
		},
		oldSlope: math.Inf(1),
		noDec:    -1,
	}
}

// test records one slope observation and reports whether to abort.
func (a *autoAbort) test(scale float64, maxNoDec int) (bool, error) {
	slope, err := a.slope()
	if err != nil {
		return false, err
	}
	newSlope := -slope
	if a.noDec == -1 || newSlope < scale*a.oldSlope {
		a.noDec = 0
	} else {
		a.noDec++
	}
	if newSlope < a.oldSlope {
		a.oldSlope = newSlope
	}
	return a.noDec >= maxNoDec, nil
}
