package bkz

import (
	"fmt"
	"log/slog"
	"math"
	"math/big"
	"os"
	"time"

	"github.com/chenjinhua1993/fplll/bignumber"
	"github.com/chenjinhua1993/fplll/enum"
	"github.com/chenjinhua1993/fplll/gso"
	"github.com/chenjinhua1993/fplll/lll"
	"github.com/chenjinhua1993/fplll/red"
)

// EnumFunc searches a block for the shortest nonzero integer combination
// within the radius; an empty result means none was found.
type EnumFunc func(
	m *gso.Mat, first, last int, radius *bignumber.BigNumber, pruning []float64,
) ([]int64, error)

// Reduction runs one BKZ invocation over a basis. It holds the
// orthogonalization state and the LLL reducer by reference and mutates the
// underlying basis in place; the caller owns both for the duration of the
// call and must not touch them concurrently.
type Reduction struct {
	m     *gso.Mat
	lll   *lll.Reducer
	param Param
	delta *bignumber.BigNumber

	// numRows excludes trailing zero rows of the basis.
	numRows int

	status    red.Status
	startTime time.Time

	// Swappable for tests: the clock behind the time ceiling and the
	// enumeration step behind svpReduction.
	now       func() time.Time
	enumerate EnumFunc

	logger *slog.Logger
}

// NewReduction returns a Reduction of the basis behind m using lllObj for
// the in-block LLL passes and the configuration in param.
func NewReduction(m *gso.Mat, lllObj *lll.Reducer, param Param) (*Reduction, error) {
	if err := param.Validate(); err != nil {
		return nil, fmt.Errorf("NewReduction: invalid parameters: %q", err.Error())
	}
	delta, err := bignumber.NewFromFloat64(param.Delta)
	if err != nil {
		return nil, fmt.Errorf("NewReduction: could not convert delta: %q", err.Error())
	}
	numRows := m.NumRows()
	for numRows > 0 && m.Basis().IsZeroRow(numRows-1) {
		numRows--
	}
	return &Reduction{
		m:         m,
		lll:       lllObj,
		param:     param,
		delta:     delta,
		numRows:   numRows,
		status:    red.Success,
		now:       time.Now,
		enumerate: enum.Enumerate,
		logger:    slog.New(slog.NewTextHandler(os.Stderr, nil)),
	}, nil
}

// SetLogger replaces the logger used for verbose progress output.
func (r *Reduction) SetLogger(logger *slog.Logger) {
	r.logger = logger
}

// Status returns the outcome of the last call to Reduce.
func (r *Reduction) Status() red.Status { return r.status }

// Reduce runs BKZ to completion. Limit-exceeded terminations (time, loops)
// are reported through Status but return a nil error; only the failure
// kinds of the status taxonomy produce a non-nil error, in which case the
// basis may be left partially reduced.
func (r *Reduction) Reduce() error {
	if r.param.DumpGSOFilename != "" {
		if err := r.dumpGSO(r.param.DumpGSOFilename, "Input", false); err != nil {
			return r.fail(err)
		}
	}
	if r.param.BlockSize < 2 || r.numRows < 2 {
		return r.setStatus(red.Success)
	}
	if r.param.Verbose {
		r.logger.Info("entering BKZ")
		r.echoParams(&r.param)
	}
	r.startTime = r.now()

	if !r.param.NoInitialLLL {
		if err := r.lll.Reduce(0, 0, r.numRows); err != nil {
			return r.fail(err)
		}
	}
	if err := r.m.DiscoverAllRows(); err != nil {
		return r.fail(err)
	}

	finalStatus := red.Success
	abort := newAutoAbort(r.m, 0, r.numRows)
	kappaMax := -1
	for loop := 0; ; loop++ {
		if r.param.MaxLoops > 0 && loop >= r.param.MaxLoops {
			finalStatus = red.BKZLoopsLimit
			break
		}
		if r.param.MaxTime > 0 && r.now().Sub(r.startTime) >= r.param.MaxTime {
			finalStatus = red.BKZTimeLimit
			break
		}
		if r.param.AutoAbort {
			stalled, err := abort.test(r.param.AutoAbortScale, r.param.AutoAbortMaxNoDec)
			if err != nil {
				return r.fail(err)
			}
			if stalled {
				break
			}
		}
		clean := true
		if err := r.tour(loop, &kappaMax, r.param, 0, r.numRows, &clean); err != nil {
			return r.fail(err)
		}
		if clean || r.param.BlockSize >= r.numRows {
			break
		}
	}
	if r.param.DumpGSOFilename != "" {
		prefix := fmt.Sprintf("Output (%.3fs)", r.elapsed().Seconds())
		if err := r.dumpGSO(r.param.DumpGSOFilename, prefix, true); err != nil {
			return r.fail(err)
		}
	}
	return r.setStatus(finalStatus)
}

// tour sweeps svpReduction across every valid block offset of [minRow,
// maxRow) once. clean stays true only if no basis change occurred. kappaMax
// tracks the highest offset whose block was found already reduced on first
// encounter; it is diagnostic only.
func (r *Reduction) tour(loop int, kappaMax *int, par Param, minRow, maxRow int, clean *bool) error {
	for kappa := minRow; kappa < maxRow-1; kappa++ {
		blockSize := par.BlockSize
		if maxRow-kappa < blockSize {
			blockSize = maxRow - kappa
		}
		if err := r.svpReduction(kappa, blockSize, par, clean); err != nil {
			return err
		}
		if par.Verbose && *kappaMax < kappa && *clean {
			r.logger.Info("block reduced for the first time",
				"maxOffset", kappa, "blockSize", par.BlockSize)
			*kappaMax = kappa
		}
	}

	if par.Verbose {
		r0, err := r.m.R(minRow)
		if err != nil {
			return err
		}
		slope, err := CurrentSlope(r.m, minRow, maxRow)
		if err != nil {
			return err
		}
		r.logger.Info("end of BKZ loop",
			"loop", loop,
			"elapsed", r.elapsed().Seconds(),
			"leadingNorm", r0.Float64(),
			"slope", slope,
		)
	}
	if par.DumpGSOFilename != "" {
		prefix := fmt.Sprintf("End of BKZ loop %4d (%.3fs)", loop, r.elapsed().Seconds())
		if err := r.dumpGSO(par.DumpGSOFilename, prefix, true); err != nil {
			return err
		}
	}
	return nil
}

// svpReduction reduces the block [kappa, kappa+blockSize) towards its
// shortest vector: LLL preprocessing, optional nested BKZ preprocessing,
// enumeration, and insertion of the found vector when it beats the delta
// threshold. clean is cleared whenever the basis changes.
func (r *Reduction) svpReduction(kappa, blockSize int, par Param, clean *bool) error {
	lllStart := 0
	if par.BoundedLLL {
		lllStart = kappa
	}
	if err := r.lll.Reduce(lllStart, kappa, kappa+blockSize); err != nil {
		return err
	}
	if r.lll.NSwaps() > 0 {
		*clean = false
	}

	if pre, ok := par.preprocessing(); ok && pre.BlockSize > 2 && pre.BlockSize < blockSize {
		if err := r.preprocessBlock(kappa, blockSize, pre, clean); err != nil {
			return err
		}
	}

	rKappa, err := r.m.R(kappa)
	if err != nil {
		return err
	}
	maxDist := bignumber.NewFromBigNumber(rKappa)
	deltaMaxDist := bignumber.NewFromInt64(0).Mul(r.delta, maxDist)

	radius := maxDist
	radiusCapped := false
	if par.GHBound && blockSize >= 3 {
		capped, err := r.gaussHeuristicBound(kappa, blockSize, par.GHFactor)
		if err != nil {
			return err
		}
		if capped != nil && capped.Cmp(maxDist) < 0 {
			radius = capped
			radiusCapped = true
		}
	}

	coords, err := r.enumerate(r.m, kappa, kappa+blockSize, radius, par.Pruning)
	if err != nil {
		return err
	}
	if len(coords) == 0 {
		if radiusCapped {
			// The Gaussian-heuristic cap put the radius below the
			// incumbent, so an empty search is a legitimate "no shorter
			// vector here".
			return nil
		}
		// Without pruning the incumbent itself is feasible, so an empty
		// result means the search excluded a known-feasible point.
		return red.NewError(
			red.EnumFailure, "svpReduction: no vector found in block [%d, %d)",
			kappa, kappa+blockSize,
		)
	}

	nzVectors, iVector := 0, -1
	for i, coordinate := range coords {
		if coordinate != 0 {
			nzVectors++
			if iVector == -1 && (coordinate == 1 || coordinate == -1) {
				iVector = i
			}
		}
	}

	newDist, err := r.projectedNorm(kappa, blockSize, coords)
	if err != nil {
		return err
	}
	if newDist.Cmp(deltaMaxDist) >= 0 {
		return nil // no sufficient improvement
	}

	if nzVectors == 1 {
		// The found vector is another row of the block: a rename, not a
		// synthesis.
		if err = r.m.MoveRow(kappa+iVector, kappa); err != nil {
			return fmt.Errorf("svpReduction: could not move row %d: %w", kappa+iVector, err)
		}
		if err = r.lll.SizeReduce(kappa, kappa+1); err != nil {
			return err
		}
	} else {
		// General case: append the combination as a temporary row, let LLL
		// place it at its rank position, and drop the row it makes
		// redundant.
		d := r.m.NumRows()
		r.m.CreateRow()
		coefficient := new(big.Int)
		for i, coordinate := range coords {
			if coordinate == 0 {
				continue
			}
			if err = r.m.AddMulRow(d, kappa+i, coefficient.SetInt64(coordinate)); err != nil {
				return fmt.Errorf("svpReduction: could not build combination row: %w", err)
			}
		}
		if err = r.m.MoveRow(d, kappa); err != nil {
			return fmt.Errorf("svpReduction: could not move combination row: %w", err)
		}
		if err = r.lll.Reduce(kappa, kappa, kappa+blockSize+1); err != nil {
			return err
		}
		if !r.m.Basis().IsZeroRow(kappa + blockSize) {
			return red.NewError(
				red.BKZFailure,
				"svpReduction: dependent row of block [%d, %d) did not reduce to zero",
				kappa, kappa+blockSize,
			)
		}
		if err = r.m.MoveRow(kappa+blockSize, d); err != nil {
			return fmt.Errorf("svpReduction: could not retire zero row: %w", err)
		}
		if err = r.m.RemoveLastRow(); err != nil {
			return fmt.Errorf("svpReduction: could not drop zero row: %w", err)
		}
	}
	*clean = false
	return nil
}

// preprocessBlock runs a bounded sequence of nested tours over the block
// with the cheaper strategy pre, stopping at pre's own limits or as soon as
// a nested tour makes no change.
func (r *Reduction) preprocessBlock(kappa, blockSize int, pre Param, clean *bool) error {
	abort := newAutoAbort(r.m, kappa, kappa+blockSize)
	start := r.now()
	kappaMax := -1
	for loop := 0; ; loop++ {
		if pre.MaxLoops > 0 && loop >= pre.MaxLoops {
			return nil
		}
		if pre.MaxTime > 0 && r.now().Sub(start) >= pre.MaxTime {
			return nil
		}
		stalled, err := abort.test(pre.AutoAbortScale, pre.AutoAbortMaxNoDec)
		if err != nil {
			return err
		}
		if stalled {
			return nil
		}
		nestedClean := true
		if err = r.tour(loop, &kappaMax, pre, kappa, kappa+blockSize, &nestedClean); err != nil {
			return err
		}
		if nestedClean {
			return nil
		}
		*clean = false
	}
}

// projectedNorm returns the exact squared norm of the projection of the
// integer combination coords of block rows onto the complement of the rows
// before kappa. The comparison against the delta threshold is done on this
// exact value rather than the float-space enumeration distance.
func (r *Reduction) projectedNorm(kappa, blockSize int, coords []int64) (*bignumber.BigNumber, error) {
	retVal := bignumber.NewFromInt64(0)
	vJ := bignumber.NewFromInt64(0)
	vJSq := bignumber.NewFromInt64(0)
	for j := 0; j < blockSize; j++ {
		vJ.Set(bignumber.NewFromInt64(coords[j]))
		for i := j + 1; i < blockSize; i++ {
			if coords[i] == 0 {
				continue
			}
			muIJ, err := r.m.Mu(kappa+i, kappa+j)
			if err != nil {
				return nil, err
			}
			vJ.Int64MulAdd(coords[i], muIJ)
		}
		rJ, err := r.m.R(kappa + j)
		if err != nil {
			return nil, err
		}
		vJSq.Mul(vJ, vJ)
		retVal.MulAdd(vJSq, rJ)
	}
	return retVal, nil
}

// gaussHeuristicBound returns ghFactor^2 times the squared Gaussian
// heuristic length of the block, or nil when it cannot be computed.
func (r *Reduction) gaussHeuristicBound(kappa, blockSize int, ghFactor float64) (*bignumber.BigNumber, error) {
	n := float64(blockSize)
	logVol := 0.0
	for i := kappa; i < kappa+blockSize; i++ {
		rI, err := r.m.R(i)
		if err != nil {
			return nil, err
		}
		logR, err := rI.Log()
		if err != nil {
			return nil, err
		}
		logVol += 0.5 * logR
	}
	lgamma, _ := math.Lgamma(n/2 + 1)
	logGH := (logVol - (n/2)*math.Log(math.Pi) + lgamma) / n
	logBound := 2 * (logGH + math.Log(ghFactor))

	// Rebuild the bound as mantissa * 2^exponent so huge profiles stay
	// representable.
	log2Bound := logBound / math.Ln2
	exponent := math.Floor(log2Bound)
	mantissa, err := bignumber.NewFromFloat64(math.Exp2(log2Bound - exponent))
	if err != nil {
		return nil, nil
	}
	return mantissa.Mul(mantissa, bignumber.NewPowerOfTwo(int64(exponent))), nil
}

// dumpGSO appends one snapshot of the log-norm profile to filename: the
// prefix label, then one value per row.
func (r *Reduction) dumpGSO(filename, prefix string, appendMode bool) error {
	flags := os.O_CREATE | os.O_WRONLY
	if appendMode {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	dump, err := os.OpenFile(filename, flags, 0o644)
	if err != nil {
		return fmt.Errorf("dumpGSO: could not open %s: %q", filename, err.Error())
	}
	defer dump.Close()
	if _, err = fmt.Fprintf(dump, "%s: ", prefix); err != nil {
		return fmt.Errorf("dumpGSO: could not write to %s: %q", filename, err.Error())
	}
	for i := 0; i < r.numRows; i++ {
		rI, err := r.m.R(i)
		if err != nil {
			return err
		}
		logR, err := rI.Log()
		if err != nil {
			return err
		}
		if _, err = fmt.Fprintf(dump, "%.8f ", logR); err != nil {
			return fmt.Errorf("dumpGSO: could not write to %s: %q", filename, err.Error())
		}
	}
	if _, err = fmt.Fprintln(dump); err != nil {
		return fmt.Errorf("dumpGSO: could not write to %s: %q", filename, err.Error())
	}
	return nil
}

// echoParams logs the configuration, recursing through the preprocessing
// chain.
func (r *Reduction) echoParams(par *Param) {
	r.logger.Info("BKZ parameters",
		"blockSize", par.BlockSize,
		"delta", par.Delta,
		"maxLoops", par.MaxLoops,
		"maxTime", par.MaxTime,
		"autoAbortScale", par.AutoAbortScale,
		"autoAbortMaxNoDec", par.AutoAbortMaxNoDec,
	)
	if pre, ok := par.preprocessing(); ok {
		r.echoParams(&pre)
	}
}

func (r *Reduction) elapsed() time.Duration {
	return r.now().Sub(r.startTime)
}

// setStatus records the final status of a run that did not fail.
func (r *Reduction) setStatus(status red.Status) error {
	r.status = status
	if r.param.Verbose {
		if status == red.Success {
			r.logger.Info("end of BKZ: success")
		} else {
			r.logger.Info("end of BKZ", "status", status.String())
		}
	}
	return nil
}

// fail records the status carried by err and reports err to the caller.
func (r *Reduction) fail(err error) error {
	r.status = red.StatusOf(err)
	if r.param.Verbose {
		r.logger.Error("end of BKZ: failure", "status", r.status.String(), "error", err.Error())
	}
	return err
}
