package service

import (
	"context"
	"fmt"
	"time"

	"structcheck/internal/check/candidate"
	"structcheck/internal/check/hint"
	"structcheck/internal/check/kind"
	"structcheck/internal/check/loader"
	"structcheck/internal/check/oracle"
	"structcheck/internal/check/verdict"
	appErr "structcheck/pkg/errors"
	"structcheck/pkg/utils/logger"

	"go.uber.org/zap"
)

const defaultCheckTimeout = 10 * time.Second

// CheckerConfig configures a Checker.
type CheckerConfig struct {
	Loader    *loader.Loader
	Hints     *hint.Generator
	Literals  oracle.Literals
	BenchSize int
	// Timeout bounds one whole check: compile, build, script and timing phases.
	Timeout time.Duration
}

// Checker runs the check pipeline for one submission.
type Checker struct {
	loader    *loader.Loader
	hints     *hint.Generator
	literals  oracle.Literals
	benchSize int
	timeout   time.Duration
}

// Request is one source to check.
type Request struct {
	CheckID string
	Kind    kind.Kind
	Source  string
	// Progress, when set, is told when the check enters the compiling and
	// running stages.
	Progress func(ctx context.Context, status verdict.Status)
}

// Outcome is the verdict of a check together with the raw oracle data.
type Outcome struct {
	Verdict verdict.Verdict
	Result  *oracle.Result
	Timing  oracle.Timing
	Elapsed time.Duration
}

// NewChecker creates a Checker.
func NewChecker(cfg CheckerConfig) (*Checker, error) {
	if cfg.Loader == nil {
		return nil, fmt.Errorf("loader is required")
	}
	if cfg.Hints == nil {
		return nil, fmt.Errorf("hint generator is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultCheckTimeout
	}
	benchSize := cfg.BenchSize
	if benchSize <= 0 {
		benchSize = oracle.DefaultBenchSize
	}
	return &Checker{
		loader:    cfg.Loader,
		hints:     cfg.Hints,
		literals:  cfg.Literals.WithDefaults(),
		benchSize: benchSize,
		timeout:   timeout,
	}, nil
}

// Run checks req. Every failure is folded into the returned verdict.
func (c *Checker) Run(ctx context.Context, req Request) Outcome {
	start := time.Now()
	ctxCheck, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	in := c.run(ctxCheck, req)
	out := Outcome{
		Verdict: verdict.Assemble(in),
		Result:  in.Result,
		Timing:  in.Timing,
		Elapsed: time.Since(start),
	}
	observeCheck(req.Kind, out)

	fields := []zap.Field{
		zap.String("kind", req.Kind.String()),
		zap.String("status", string(out.Verdict.Status)),
		zap.Int("hints", len(out.Verdict.Hints)),
		zap.Duration("elapsed", out.Elapsed),
	}
	if in.Err != nil {
		code := appErr.GetCode(in.Err)
		fields = append(fields, zap.Int("error_code", int(code)), zap.Error(in.Err))
		if !code.IsCandidateFault() && code != appErr.CodeTooLarge && code != appErr.StructureNotSupported {
			logger.Error(ctx, "check failed", fields...)
			return out
		}
	}
	logger.Info(ctx, "check finished", fields...)
	return out
}

func (c *Checker) run(ctx context.Context, req Request) verdict.Input {
	in := verdict.Input{CheckID: req.CheckID, Kind: req.Kind}
	progress := func(status verdict.Status) {
		if req.Progress != nil {
			req.Progress(ctx, status)
		}
	}

	progress(verdict.StatusCompiling)
	prog, err := c.loader.Compile(ctx, req.Source, req.Kind)
	if err != nil {
		in.Err = err
		return in
	}
	logger.Debug(ctx, "source compiled", zap.String("program_id", prog.ID))

	cand, err := candidate.Instantiate(ctx, prog)
	if err != nil {
		in.Err = err
		return in
	}
	defer cand.Close()

	// Hints do not depend on how the candidate behaves, only on it having
	// been instantiated.
	in.Hints = c.hints.Generate(ctx, prog)

	orc, err := oracle.New(req.Kind, c.literals)
	if err != nil {
		in.Err = err
		return in
	}

	progress(verdict.StatusRunning)
	inst, err := cand.New(ctx)
	if err != nil {
		in.Err = err
		return in
	}
	defer inst.Close()
	res, err := orc.Run(ctx, inst)
	in.Result = &res
	if err != nil {
		in.Err = err
		return in
	}
	if !res.Passed {
		logger.Debug(ctx, "oracle mismatch", zap.String("failed_check", res.FailedCheck))
		return in
	}

	in.Timing = c.measure(ctx, cand, req.Kind)
	return in
}

// measure times a fresh instance. Timing is informational: a candidate that
// passed the oracle but fails while being timed keeps its verdict and reports
// zero timings.
func (c *Checker) measure(ctx context.Context, cand *candidate.Candidate, k kind.Kind) oracle.Timing {
	bench, err := cand.New(ctx)
	if err != nil {
		logger.Warn(ctx, "timing skipped", zap.String("kind", k.String()), zap.Error(err))
		return oracle.Timing{}
	}
	defer bench.Close()
	timing, err := oracle.Measure(ctx, k, bench, c.benchSize)
	if err != nil {
		logger.Warn(ctx, "timing failed",
			zap.String("kind", k.String()),
			zap.Int("error_code", int(appErr.GetCode(err))),
			zap.Error(err),
		)
		return oracle.Timing{}
	}
	return timing
}
