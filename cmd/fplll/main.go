// Command fplll reduces an integer lattice basis with BKZ. It reads a basis
// in bracket format ("[[1 2][3 4]]") from a file or standard input, reduces
// it, and prints the reduced basis to standard output.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/chenjinhua1993/fplll/basis"
	"github.com/chenjinhua1993/fplll/bignumber"
	"github.com/chenjinhua1993/fplll/bkz"
	"github.com/chenjinhua1993/fplll/gso"
	"github.com/chenjinhua1993/fplll/lll"
)

func main() {
	var (
		blockSize  = flag.Int("block-size", 20, "SVP block size")
		delta      = flag.Float64("delta", bkz.DefaultDelta, "reduction acceptance threshold in (0.25, 1)")
		eta        = flag.Float64("eta", lll.DefaultEta, "size-reduction threshold")
		maxLoops   = flag.Int("max-loops", 0, "tour ceiling, 0 for none")
		maxTime    = flag.Duration("max-time", 0, "wall-clock ceiling, 0 for none")
		autoAbort  = flag.Bool("auto-abort", false, "stop when the log-norm profile slope stalls")
		boundedLLL = flag.Bool("bounded-lll", false, "restrict in-tour LLL passes to the current block")
		noLLL      = flag.Bool("no-lll", false, "skip the initial whole-basis LLL pass")
		verbose    = flag.Bool("verbose", false, "log per-tour progress")
		dumpGSO    = flag.String("dump-gso", "", "file receiving log-norm profile snapshots")
		precision  = flag.Int64("precision", 1000, "internal precision in bits")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if err := run(
		flag.Arg(0), *blockSize, *delta, *eta, *maxLoops, *maxTime,
		*autoAbort, *boundedLLL, *noLLL, *verbose, *dumpGSO, *precision, logger,
	); err != nil {
		logger.Error("reduction failed", "error", err.Error())
		os.Exit(1)
	}
}

func run(
	inputPath string, blockSize int, delta, eta float64, maxLoops int,
	maxTime time.Duration, autoAbort, boundedLLL, noLLL, verbose bool,
	dumpGSO string, precision int64, logger *slog.Logger,
) error {
	if err := bignumber.Init(precision); err != nil {
		return fmt.Errorf("run: could not initialize precision: %q", err.Error())
	}
	b, err := readBasis(inputPath)
	if err != nil {
		return err
	}

	m := gso.NewMat(b)
	lllObj, err := lll.NewReducer(m, delta, eta)
	if err != nil {
		return fmt.Errorf("run: could not create LLL reducer: %q", err.Error())
	}

	param := bkz.NewParam(blockSize)
	param.Delta = delta
	param.MaxLoops = maxLoops
	param.MaxTime = maxTime
	param.AutoAbort = autoAbort
	param.BoundedLLL = boundedLLL
	param.NoInitialLLL = noLLL
	param.Verbose = verbose
	param.DumpGSOFilename = dumpGSO

	reduction, err := bkz.NewReduction(m, lllObj, param)
	if err != nil {
		return fmt.Errorf("run: could not create reduction: %q", err.Error())
	}
	reduction.SetLogger(logger)
	if err = reduction.Reduce(); err != nil {
		return fmt.Errorf("run: %s: %q", reduction.Status().String(), err.Error())
	}
	if verbose && reduction.Status().IsLimit() {
		logger.Info("stopped at a configured ceiling", "status", reduction.Status().String())
	}
	fmt.Println(b.String())
	return nil
}

// readBasis parses a bracket-format basis from inputPath, or from standard
// input when inputPath is empty or "-".
func readBasis(inputPath string) (*basis.Matrix, error) {
	var (
		input []byte
		err   error
	)
	if inputPath == "" || inputPath == "-" {
		input, err = io.ReadAll(os.Stdin)
	} else {
		input, err = os.ReadFile(inputPath)
	}
	if err != nil {
		return nil, fmt.Errorf("readBasis: could not read input: %q", err.Error())
	}
	b, err := basis.NewFromString(string(input))
	if err != nil {
		return nil, fmt.Errorf("readBasis: could not parse basis: %q", err.Error())
	}
	return b, nil
}
