// Package bkz implements Block Korkine-Zolotarev reduction: an outer loop of
// tours, each sweeping an SVP reduction step across every block of the
// basis, under loop, time and auto-abort termination heuristics.
package bkz

import (
	"fmt"
	"time"
)

const (
	// DefaultDelta is the reduction-acceptance threshold: a candidate must
	// have squared norm below Delta times the current block leader's.
	DefaultDelta = 0.99
	// DefaultAutoAbortScale is the relative slope improvement required to
	// reset the auto-abort stall counter.
	DefaultAutoAbortScale = 1.0
	// DefaultAutoAbortMaxNoDec is the number of consecutive stalled checks
	// tolerated before auto-abort fires.
	DefaultAutoAbortMaxNoDec = 5
	// DefaultGHFactor scales the Gaussian-heuristic bound when GHBound is
	// set.
	DefaultGHFactor = 1.1
)

// Param is the immutable configuration snapshot of one BKZ invocation.
// The zero value is not usable; construct with NewParam.
type Param struct {
	// Delta is the reduction quality threshold in (0.25, 1).
	Delta float64
	// BlockSize is the SVP block size. A value below 2 makes the whole
	// reduction a no-op reported as success.
	BlockSize int

	// Verbose enables per-tour progress logging and a parameter echo.
	Verbose bool
	// NoInitialLLL skips the whole-basis LLL pass that otherwise precedes
	// the first tour.
	NoInitialLLL bool
	// BoundedLLL restricts the pre-enumeration LLL pass to the block
	// itself instead of the whole prefix.
	BoundedLLL bool

	// MaxLoops caps the number of tours; a value <= 0 means no ceiling.
	MaxLoops int
	// MaxTime caps the wall-clock duration, checked at tour boundaries; 0
	// means no ceiling.
	MaxTime time.Duration

	// AutoAbort stops tours once the log-norm profile slope stalls.
	AutoAbort         bool
	AutoAbortScale    float64
	AutoAbortMaxNoDec int

	// Pruning is the enumeration pruning-coefficient schedule; nil means
	// no pruning. Coefficient k scales the radius bound with k+1 fixed
	// coordinates.
	Pruning []float64

	// GHBound caps the enumeration radius with the Gaussian heuristic,
	// scaled by GHFactor. SDVariant and SLDReduction select the self-dual
	// and slide variants; the built-in enumeration implements the plain
	// variant, so they only take effect with a custom search step.
	GHBound      bool
	GHFactor     float64
	SDVariant    bool
	SLDReduction bool

	// DumpGSOFilename, when set, appends a log-norm profile snapshot of
	// the basis before the first tour and after every subsequent tour.
	DumpGSOFilename string

	// Preprocessing is the chain of nested preprocessing strategies:
	// element 0 applies to every block of this level before enumeration,
	// element 1 to every block of element 0, and so on. Each level must
	// have a strictly smaller block size than its parent; levels of block
	// size <= 2 are skipped.
	Preprocessing []Param
}

// NewParam returns a Param with the given block size and all tunables at
// their defaults.
func NewParam(blockSize int) Param {
	return Param{
		Delta:             DefaultDelta,
		BlockSize:         blockSize,
		AutoAbortScale:    DefaultAutoAbortScale,
		AutoAbortMaxNoDec: DefaultAutoAbortMaxNoDec,
		GHFactor:          DefaultGHFactor,
	}
}

// Validate checks p and every nested preprocessing level.
func (p *Param) Validate() error {
	if p.Delta <= 0.25 || p.Delta >= 1.0 {
		return fmt.Errorf("bkz.Validate: delta = %f is outside (0.25, 1)", p.Delta)
	}
	if p.AutoAbortScale <= 0 {
		return fmt.Errorf("bkz.Validate: auto-abort scale = %f is not positive", p.AutoAbortScale)
	}
	if p.AutoAbortMaxNoDec < 1 {
		return fmt.Errorf("bkz.Validate: auto-abort stall tolerance = %d is below 1", p.AutoAbortMaxNoDec)
	}
	for _, coefficient := range p.Pruning {
		if coefficient <= 0 || coefficient > 1 {
			return fmt.Errorf("bkz.Validate: pruning coefficient %f is outside (0, 1]", coefficient)
		}
	}
	blockSize := p.BlockSize
	for level, pre := range p.Preprocessing {
		if pre.BlockSize >= blockSize {
			return fmt.Errorf(
				"bkz.Validate: preprocessing level %d has block size %d >= %d of its parent",
				level, pre.BlockSize, blockSize,
			)
		}
		if len(pre.Preprocessing) > 0 {
			return fmt.Errorf(
				"bkz.Validate: preprocessing level %d must chain through the top-level list", level,
			)
		}
		single := pre
		single.Preprocessing = nil
		if err := single.Validate(); err != nil {
			return err
		}
		blockSize = pre.BlockSize
	}
	return nil
}

// preprocessing returns the strategy for the next nesting level down: the
// first chain element promoted to a full Param carrying the rest of the
// chain.
func (p *Param) preprocessing() (Param, bool) {
	if len(p.Preprocessing) == 0 {
		return Param{}, false
	}
	pre := p.Preprocessing[0]
	pre.Preprocessing = p.Preprocessing[1:]
	return pre, true
}
