package oracle

import (
	"context"
	"strconv"
	"time"

	"structcheck/internal/check/candidate"
	"structcheck/internal/check/kind"
	"structcheck/pkg/utils/logger"

	"go.uber.org/zap"
)

// DefaultBenchSize is the number of operations per timing phase.
const DefaultBenchSize = 1000

// Phases names the methods timed for a kind.
type Phases struct {
	Add    string
	Find   string
	Delete string
}

var phases = map[kind.Kind]Phases{
	kind.List:       {Add: "Add", Find: "Contains", Delete: "Remove"},
	kind.Stack:      {Add: "Push", Find: "Contains", Delete: "Pop"},
	kind.Queue:      {Add: "Enqueue", Find: "Contains", Delete: "Dequeue"},
	kind.HashSet:    {Add: "Add", Find: "Contains", Delete: "Remove"},
	kind.LinkedList: {Add: "AddLast", Find: "Contains", Delete: "Remove"},
}

// PhasesFor returns the timed methods of k. ok is false for kinds without timing.
func PhasesFor(k kind.Kind) (Phases, bool) {
	p, ok := phases[k]
	return p, ok
}

// Timing holds the elapsed candidate time of each phase.
type Timing struct {
	Add    time.Duration `json:"add"`
	Find   time.Duration `json:"find"`
	Delete time.Duration `json:"delete"`
}

// BenchInputs returns n distinct inputs for the timing phases.
func BenchInputs(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = "item-" + strconv.Itoa(i)
	}
	return out
}

// Measure runs the add, find and delete phases of k on inst, which should be
// a fresh instance. Phases stop at the first failure; the timings gathered so
// far are returned with the error.
func Measure(ctx context.Context, k kind.Kind, inst candidate.Invoker, n int) (Timing, error) {
	var t Timing
	p, ok := PhasesFor(k)
	if !ok {
		return t, nil
	}
	if n <= 0 {
		n = DefaultBenchSize
	}
	inputs := BenchInputs(n)

	var err error
	if t.Add, err = inst.Loop(ctx, p.Add, inputs); err != nil {
		return t, err
	}
	if t.Find, err = inst.Loop(ctx, p.Find, inputs); err != nil {
		return t, err
	}
	if t.Delete, err = inst.Loop(ctx, p.Delete, inputs); err != nil {
		return t, err
	}
	logger.Debug(ctx, "timing measured",
		zap.String("kind", k.String()),
		zap.Int("n", n),
		zap.Duration("add", t.Add),
		zap.Duration("find", t.Find),
		zap.Duration("delete", t.Delete),
	)
	return t, nil
}
