package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/accounts/internal/logging"
)

// Step is one individually committed action of a saga. Compensate may be
// nil for steps that are never undone.
type Step struct {
	Name       string
	Run        func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

// SagaError reports the step that failed and the steps that had already
// completed before it.
type SagaError struct {
	Step      string
	Completed []string
	Err       error
}

func (e *SagaError) Error() string {
	return fmt.Sprintf("step %q failed after [%s]: %v", e.Step, strings.Join(e.Completed, ", "), e.Err)
}

func (e *SagaError) Unwrap() error { return e.Err }

// Saga runs its steps in order and stops at the first failure, invoking the
// compensations of completed steps in reverse order.
type Saga struct {
	name   string
	steps  []Step
	logger logging.Logger
}

func NewSaga(name string, logger logging.Logger, steps ...Step) *Saga {
	return &Saga{name: name, steps: steps, logger: logger.With("saga", name)}
}

func (s *Saga) Run(ctx context.Context) error {
	completed := make([]string, 0, len(s.steps))

	for i, step := range s.steps {
		s.logger.Debug(ctx, "saga step started", "step", step.Name)

		if err := step.Run(ctx); err != nil {
			s.logger.Error(ctx, "saga step failed", "step", step.Name, "error", err)
			s.compensate(ctx, s.steps[:i])
			return &SagaError{Step: step.Name, Completed: completed, Err: err}
		}

		completed = append(completed, step.Name)
		s.logger.Debug(ctx, "saga step completed", "step", step.Name)
	}

	return nil
}

func (s *Saga) compensate(ctx context.Context, done []Step) {
	for i := len(done) - 1; i >= 0; i-- {
		step := done[i]
		if step.Compensate == nil {
			continue
		}
		s.logger.Warn(ctx, "compensating saga step", "step", step.Name)
		if err := step.Compensate(ctx); err != nil {
			s.logger.Error(ctx, "saga compensation failed", "step", step.Name, "error", err)
		}
	}
}
