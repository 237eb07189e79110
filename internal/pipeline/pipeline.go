// Sequential processing of named registry algorithms
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"hybrid-image-generator/internal/algorithms"
	"hybrid-image-generator/internal/core"
	"hybrid-image-generator/internal/metrics"
)

// ProcessingStep represents a sequential processing step
type ProcessingStep struct {
	Algorithm  string
	Parameters map[string]interface{}
	Enabled    bool
}

// Pipeline applies an ordered list of unary registry algorithms to one
// buffer.
type Pipeline struct {
	mu          sync.RWMutex
	steps       []ProcessingStep
	metricsEval *metrics.Evaluator
	logger      logrus.FieldLogger
	debugger    *Debugger
}

func New(logger logrus.FieldLogger, debugger *Debugger) *Pipeline {
	return &Pipeline{
		steps:       make([]ProcessingStep, 0),
		metricsEval: metrics.NewEvaluator(),
		logger:      logger,
		debugger:    debugger,
	}
}

// AddStep validates and appends a step
func (p *Pipeline) AddStep(algorithm string, parameters map[string]interface{}) error {
	alg, ok := algorithms.Get(algorithm)
	if !ok {
		return fmt.Errorf("unknown algorithm: %s", algorithm)
	}
	if alg.Arity() != 1 {
		return fmt.Errorf("%s combines %d images and cannot be a pipeline step", algorithm, alg.Arity())
	}
	if err := alg.Validate(parameters); err != nil {
		return fmt.Errorf("invalid parameters: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.steps = append(p.steps, ProcessingStep{
		Algorithm:  algorithm,
		Parameters: parameters,
		Enabled:    true,
	})
	p.logger.WithField("algorithm", algorithm).Debug("PIPELINE: Added processing step")
	return nil
}

// SetStepEnabled toggles the step at index i
func (p *Pipeline) SetStepEnabled(i int, enabled bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if i < 0 || i >= len(p.steps) {
		return fmt.Errorf("step %d out of range (have %d)", i, len(p.steps))
	}
	p.steps[i].Enabled = enabled
	return nil
}

// GetSteps returns sequential processing steps
func (p *Pipeline) GetSteps() []ProcessingStep {
	p.mu.RLock()
	defer p.mu.RUnlock()

	steps := make([]ProcessingStep, len(p.steps))
	copy(steps, p.steps)
	return steps
}

// ClearAll removes every step
func (p *Pipeline) ClearAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.steps = make([]ProcessingStep, 0)
}

// Run applies the enabled steps in order and returns the result together
// with per-step quality metrics keyed "step<index>_<algorithm>_<metric>",
// so repeated algorithms keep separate entries. Cancellation
// is checked between steps.
func (p *Pipeline) Run(ctx context.Context, input *core.Buffer) (*core.Buffer, map[string]float64, error) {
	if err := input.Validate(); err != nil {
		return nil, nil, err
	}

	current := input
	processMetrics := make(map[string]float64)

	steps := p.GetSteps()
	p.logger.WithField("step_count", len(steps)).Debug("PIPELINE: Processing sequential steps")

	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		log := p.logger.WithFields(logrus.Fields{"step": i, "algorithm": step.Algorithm})
		if !step.Enabled {
			log.Debug("PIPELINE: Skipping disabled step")
			continue
		}

		var result *core.Buffer
		err := p.debugger.Track("step", map[string]interface{}{"step": i, "algorithm": step.Algorithm}, func() error {
			var err error
			result, err = algorithms.ApplyAlgorithm(step.Algorithm, []*core.Buffer{current}, step.Parameters)
			return err
		})
		if err != nil {
			log.WithError(err).Error("PIPELINE: Sequential step failed")
			return nil, nil, fmt.Errorf("step %d (%s): %w", i, step.Algorithm, err)
		}

		start := time.Now()
		stepMetrics := p.metricsEval.EvaluateStep(current, result, step.Algorithm)
		p.debugger.LogOperation("metrics", time.Since(start), nil, nil)
		for k, v := range stepMetrics {
			processMetrics[fmt.Sprintf("step%d_%s_%s", i, step.Algorithm, k)] = v
		}

		current = result
		log.Debug("PIPELINE: Step completed")
	}

	if current == input {
		current = input.Clone()
	}
	return current, processMetrics, nil
}
