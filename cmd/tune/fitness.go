package main

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/coil/config"
	"github.com/pthm-cable/coil/rope"
	"github.com/pthm-cable/coil/scene"
	"github.com/pthm-cable/coil/telemetry"
)

// Fitness weights. Spacing error is in meters, so a missed transition
// outweighs any amount of solver slack.
const (
	missedEventPenalty = 1.0
	wrapShortfallScale = 0.01 // per degree short of the scripted wind
	iterationCost      = 1e-5 // per solver pass, favors cheaper configs
)

// runResult holds the results from a single scripted run.
type runResult struct {
	turns       float64
	windowStats []telemetry.WindowStats
	ropes       int
}

// FitnessEvaluator plays the demo script against candidate configs.
type FitnessEvaluator struct {
	params      *ParamVector
	configPath  string
	turns       []float64
	statsWindow float64

	mu          sync.Mutex
	bestFitness float64
	lastSpacing float64
}

// NewFitnessEvaluator creates a new evaluator. Every evaluation plays
// one script per entry of turns, in parallel.
func NewFitnessEvaluator(params *ParamVector, configPath string, turns []float64) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		configPath:  configPath,
		turns:       turns,
		statsWindow: 1.0,
		bestFitness: math.Inf(1),
	}
}

// LastSpacing returns the mean spacing error from the most recent evaluation.
func (fe *FitnessEvaluator) LastSpacing() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastSpacing
}

// Evaluate computes fitness for a parameter vector (lower = better).
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	results := make([]*runResult, len(fe.turns))
	errs := make([]error, len(fe.turns))
	var wg sync.WaitGroup
	for i, turns := range fe.turns {
		wg.Add(1)
		go func(idx int, turns float64) {
			defer wg.Done()
			results[idx], errs[idx] = fe.runScript(x, turns)
		}(i, turns)
	}
	wg.Wait()

	var total, spacing float64
	for i, r := range results {
		if errs[i] != nil {
			return math.Inf(1)
		}
		total += computeFitness(r, fe.iterations(x))
		spacing += meanSpacing(r.windowStats)
	}
	n := float64(len(results))

	fe.mu.Lock()
	fe.bestFitness = math.Min(fe.bestFitness, total/n)
	fe.lastSpacing = spacing / n
	fe.mu.Unlock()

	return total / n
}

func (fe *FitnessEvaluator) iterations(x []float64) int {
	cfg := &config.Config{}
	fe.params.ApplyToConfig(cfg, x)
	return cfg.Physics.Iterations
}

// runScript plays the demo script once with x applied.
func (fe *FitnessEvaluator) runScript(x []float64, turns float64) (*runResult, error) {
	cfg, err := config.Load(fe.configPath)
	if err != nil {
		return nil, err
	}
	fe.params.ApplyToConfig(cfg, x)

	result := &runResult{turns: turns}
	s, err := scene.New(scene.Options{
		Config:         cfg,
		StatsWindowSec: fe.statsWindow,
		StatsCallback: func(stats telemetry.WindowStats) {
			result.windowStats = append(result.windowStats, stats)
		},
	})
	if err != nil {
		return nil, err
	}
	defer s.Close()

	post := rope.PostFromConfig(cfg)
	e := s.AddRope(r3.Add(post.Center, r3.Vec{X: post.Radius + 0.25, Y: 0.2}), r3.Vec{Y: -1})
	s.Play(e, scene.DefaultScript(cfg, turns), 0)
	result.ropes = len(s.Ropes())
	return result, nil
}

// computeFitness scores one scripted run: one capture, commit, release
// and cut are expected, the peak wrap should reach the scripted turns,
// and the chain should hold its spacing.
func computeFitness(r *runResult, iterations int) float64 {
	var captures, commits, releases, cuts int
	var peak float64
	for _, w := range r.windowStats {
		captures += w.Captures
		commits += w.Commits
		releases += w.Releases
		cuts += w.Cuts
		peak = math.Max(peak, w.MaxWrapDeg)
	}

	fitness := meanSpacing(r.windowStats)
	for _, n := range []int{captures, commits, releases, cuts} {
		fitness += missedEventPenalty * math.Abs(float64(n-1))
	}
	if short := 360*r.turns*0.9 - peak; short > 0 {
		fitness += wrapShortfallScale * short
	}
	if r.ropes != 2 {
		fitness += missedEventPenalty
	}
	return fitness + iterationCost*float64(iterations)
}

// meanSpacing averages the per-window mean spacing error.
func meanSpacing(windows []telemetry.WindowStats) float64 {
	if len(windows) == 0 {
		return 0
	}
	var sum float64
	for _, w := range windows {
		sum += w.SpacingErrMean
	}
	return sum / float64(len(windows))
}
