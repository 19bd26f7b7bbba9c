package tuning

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/liqcal/calibration-core/internal/trial"
	"github.com/liqcal/calibration-core/pkg/logger"
	"github.com/liqcal/calibration-core/pkg/params"
)

// Default convergence constants.
const (
	DefaultConvergenceWindow    = 10
	DefaultConvergenceThreshold = 0.01
)

// Evaluator executes one dispense-and-measure trial. The score is finite
// and lower is better; an error is the failure signal. Evaluation is the
// session's only blocking call, so any timeout belongs to the caller or
// the evaluator itself.
type Evaluator interface {
	Evaluate(ctx context.Context, p params.Vector) (float64, error)
}

// EvaluatorFunc adapts a function to the Evaluator interface.
type EvaluatorFunc func(ctx context.Context, p params.Vector) (float64, error)

// Evaluate calls f.
func (f EvaluatorFunc) Evaluate(ctx context.Context, p params.Vector) (float64, error) {
	return f(ctx, p)
}

// ConvergenceConfig controls the optional early-stop check: once Window
// successful scores exist, recent variance below Threshold marks the run
// converged. The run still completes its budget unless StopEarly is set.
type ConvergenceConfig struct {
	Window    int     `yaml:"window"`
	Threshold float64 `yaml:"threshold"`
	StopEarly bool    `yaml:"stop_early"`
}

// DefaultConvergenceConfig returns the standard convergence constants.
func DefaultConvergenceConfig() ConvergenceConfig {
	return ConvergenceConfig{
		Window:    DefaultConvergenceWindow,
		Threshold: DefaultConvergenceThreshold,
	}
}

// SessionConfig configures one tuning run.
type SessionConfig struct {
	// Strategy names the optimization strategy variant.
	Strategy string

	// Budget is the total trial count, seed trial included.
	Budget int

	// Seed is the trial-0 vector, used verbatim.
	Seed params.Vector

	// Bounds constrains every generated vector.
	Bounds params.Bounds

	// StepScales, SwitchInterval, PhaseFractions and FineTuneFactor are
	// forwarded to the strategy; zero values select defaults.
	StepScales     map[params.Name]float64
	SwitchInterval int
	PhaseFractions PhaseFractions
	FineTuneFactor float64

	// Controller configures learning-rate decay.
	Controller RateControllerConfig

	// Convergence configures the optional early-stop check.
	Convergence ConvergenceConfig

	// Logger receives run progress; nil uses the package default.
	Logger *slog.Logger
}

// Result is the outcome of a completed run.
type Result struct {
	RunID    string
	Strategy string
	Seed     params.Vector

	Best      trial.Record
	BestFound bool

	History   *trial.History
	Trials    int
	Successes int
	Failures  int

	Converged         bool
	ConvergenceReason string

	FinalRate float64
	Duration  time.Duration
}

// Session drives one tuning run: N sequential trials against an
// evaluator, with the strategy proposing every vector after the seed.
type Session struct {
	cfg         SessionConfig
	strategy    Strategy
	controller  *RateController
	evaluator   Evaluator
	convergence ConvergenceConfig
	log         *slog.Logger
}

// NewSession validates the configuration and constructs the strategy and
// controller. Configuration errors (unknown strategy, invalid bounds or
// controller constants, non-positive budget) are fatal here, before any
// trial runs.
func NewSession(cfg SessionConfig, evaluator Evaluator) (*Session, error) {
	if evaluator == nil {
		return nil, fmt.Errorf("evaluator is required")
	}
	if cfg.Budget <= 0 {
		return nil, fmt.Errorf("trial budget must be positive, got %d", cfg.Budget)
	}

	strategy, err := NewStrategy(cfg.Strategy, StrategyConfig{
		Seed:           cfg.Seed,
		Bounds:         cfg.Bounds,
		StepScales:     cfg.StepScales,
		SwitchInterval: cfg.SwitchInterval,
		Budget:         cfg.Budget,
		PhaseFractions: cfg.PhaseFractions,
		FineTuneFactor: cfg.FineTuneFactor,
	})
	if err != nil {
		return nil, err
	}

	controller, err := NewRateController(cfg.Controller)
	if err != nil {
		return nil, err
	}

	conv := cfg.Convergence
	if conv.Window <= 0 {
		conv.Window = DefaultConvergenceWindow
	}
	if conv.Threshold <= 0 {
		conv.Threshold = DefaultConvergenceThreshold
	}

	log := cfg.Logger
	if log == nil {
		log = logger.Default
	}

	return &Session{
		cfg:         cfg,
		strategy:    strategy,
		controller:  controller,
		evaluator:   evaluator,
		convergence: conv,
		log:         log,
	}, nil
}

// Strategy returns the constructed strategy.
func (s *Session) Strategy() Strategy {
	return s.strategy
}

// Run executes the configured budget trial by trial. Evaluator failures
// are recorded and skipped over, never fatal; ctx cancellation between
// trials aborts the run with ctx's error.
func (s *Session) Run(ctx context.Context) (*Result, error) {
	runID := uuid.New().String()
	hist := trial.NewHistory()
	start := time.Now()

	s.log.Info("tuning session started",
		"run_id", runID,
		"strategy", s.strategy.Name(),
		"budget", s.cfg.Budget,
		"seed", s.cfg.Seed.String(),
		"initial_rate", s.controller.Rate())

	result := &Result{
		RunID:    runID,
		Strategy: s.strategy.Name(),
		Seed:     s.cfg.Seed,
		History:  hist,
	}

	for i := 0; i < s.cfg.Budget; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("run aborted at trial %d: %w", i, err)
		}

		var next params.Vector
		if i == 0 {
			// The seed is tried verbatim; the strategy is not consulted.
			next = s.cfg.Seed
		} else {
			var err error
			next, err = s.strategy.Generate(i, hist, s.controller.Rate())
			if err != nil {
				return nil, fmt.Errorf("strategy %s failed at trial %d: %w", s.strategy.Name(), i, err)
			}
		}

		phase := ""
		if pa, ok := s.strategy.(PhaseAware); ok {
			phase = pa.Phase(i)
		}

		rate := s.controller.Rate()
		score, evalErr := s.evaluator.Evaluate(ctx, next)

		var rec trial.Record
		if evalErr != nil {
			rec = trial.FailedRecord(i, next, evalErr.Error(), phase, rate)
			s.log.Warn("trial failed", "run_id", runID, "trial", i, "reason", evalErr.Error())
		} else {
			rec = trial.Succeeded(i, next, score, phase, rate)
		}
		if err := hist.Append(rec); err != nil {
			return nil, err
		}

		improvedBest := false
		if !rec.Failed {
			if best, ok := hist.Best(); ok && best.Index == i {
				improvedBest = true
			}
		}
		decayed := s.controller.Observe(score, rec.Failed)

		if improvedBest {
			s.log.Info("new best score", "run_id", runID, "trial", i, "score", score, "params", next.String())
		} else if !rec.Failed {
			s.log.Debug("trial complete", "run_id", runID, "trial", i, "score", score, "phase", phase)
		}
		if decayed {
			s.log.Info("learning rate decayed", "run_id", runID, "trial", i, "rate", s.controller.Rate())
		}

		if !result.Converged && hist.SuccessCount() >= s.convergence.Window {
			if v := hist.RecentVariance(s.convergence.Window); v < s.convergence.Threshold {
				result.Converged = true
				result.ConvergenceReason = fmt.Sprintf(
					"variance of last %d scores %.6f below threshold %.6f",
					s.convergence.Window, v, s.convergence.Threshold)
				s.log.Info("run converged", "run_id", runID, "trial", i, "reason", result.ConvergenceReason)
				if s.convergence.StopEarly {
					break
				}
			}
		}
	}

	result.Trials = hist.Len()
	result.Successes = hist.SuccessCount()
	result.Failures = hist.FailureCount()
	result.FinalRate = s.controller.Rate()
	result.Duration = time.Since(start)
	result.Best, result.BestFound = hist.Best()

	if result.BestFound {
		s.log.Info("tuning session finished",
			"run_id", runID,
			"trials", result.Trials,
			"failures", result.Failures,
			"best_trial", result.Best.Index,
			"best_score", result.Best.Score,
			"duration", result.Duration)
	} else {
		s.log.Warn("tuning session finished with no successful trials",
			"run_id", runID, "trials", result.Trials)
	}
	return result, nil
}
