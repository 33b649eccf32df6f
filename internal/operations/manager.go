package operations

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"aqicli/internal/infrastructure"
)

// Manager runs registered steps in order
type Manager struct {
	steps  []Step
	ids    map[string]bool
	tracer *StepTracer
	logger *slog.Logger
}

// NewManager creates a manager reporting to the given telemetry, which may be nil
func NewManager(tel *infrastructure.Telemetry, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		ids:    make(map[string]bool),
		tracer: NewStepTracer(tel),
		logger: logger,
	}
}

// RegisterStage appends a step to the pipeline
func (m *Manager) RegisterStage(step Step) error {
	if step == nil {
		return fmt.Errorf("cannot register nil step")
	}
	if m.ids[step.ID()] {
		return fmt.Errorf("step %s already registered", step.ID())
	}
	m.ids[step.ID()] = true
	m.steps = append(m.steps, step)
	return nil
}

// RegisterStages appends several steps
func (m *Manager) RegisterStages(steps ...Step) error {
	for _, s := range steps {
		if err := m.RegisterStage(s); err != nil {
			return err
		}
	}
	return nil
}

// Steps returns the registered steps in order
func (m *Manager) Steps() []Step {
	return m.steps
}

// Execute runs every step against state. It stops at the first failure and
// returns it wrapped in an OperationError.
func (m *Manager) Execute(ctx context.Context, state *State) error {
	ctx = infrastructure.EnsureTraceID(ctx)
	if state.ID == "" {
		state.ID = infrastructure.GetTraceID(ctx)
	}

	for _, step := range m.steps {
		state.SetStep(step.ID(), NewStepState(step.ID(), step.Name()))
	}

	ctx, span := m.tracer.TraceOperation(ctx, state.ID, len(m.steps))
	defer span.End()

	state.Start()
	m.logger.InfoContext(ctx, "Operation started",
		slog.String("operation_id", state.ID),
		slog.Int("step_count", len(m.steps)))

	err := m.executeSequential(ctx, state)
	if err != nil {
		state.Fail(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		m.logger.ErrorContext(ctx, "Operation failed",
			slog.String("operation_id", state.ID),
			slog.String("step", FailedStep(err)),
			slog.String("error", err.Error()),
			slog.Duration("duration", state.Duration()))
		return err
	}

	state.Complete()
	span.SetAttributes(attribute.Int("operation.outputs", len(state.Outputs)))
	span.SetStatus(codes.Ok, "operation completed")
	m.logger.InfoContext(ctx, "Operation completed",
		slog.String("operation_id", state.ID),
		slog.Int("outputs", len(state.Outputs)),
		slog.Duration("duration", state.Duration()))
	return nil
}

func (m *Manager) executeSequential(ctx context.Context, state *State) error {
	for i, step := range m.steps {
		stepState := state.GetStep(step.ID())

		if err := ctx.Err(); err != nil {
			m.skipRemaining(state, i, "operation cancelled")
			return NewCancellationError(step.ID(), err)
		}

		if c, ok := step.(Conditional); ok {
			if run, reason := c.ShouldRun(state); !run {
				stepState.Skip(reason)
				m.logger.InfoContext(ctx, "Step skipped",
					slog.String("step", step.ID()),
					slog.String("reason", reason))
				continue
			}
		}

		m.logger.InfoContext(ctx, "Executing step",
			slog.String("operation_id", state.ID),
			slog.String("step", step.ID()),
			slog.Int("step_number", i+1),
			slog.Int("total_steps", len(m.steps)))

		if err := m.executeStep(ctx, state, step, stepState); err != nil {
			m.skipRemaining(state, i+1, fmt.Sprintf("previous step %s failed", step.ID()))
			return err
		}
	}
	return nil
}

func (m *Manager) executeStep(ctx context.Context, state *State, step Step, stepState *StepState) (err error) {
	stepCtx, span := m.tracer.TraceStep(ctx, state.ID, step.ID())
	defer span.End()

	stepState.Start()
	start := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			err = NewExecutionError(step.ID(), fmt.Errorf("panic: %v", rec))
			stepState.Fail(err)
			m.tracer.RecordStep(stepCtx, span, step.ID(), time.Since(start), err)
		}
	}()

	execErr := step.Execute(stepCtx, state)
	duration := time.Since(start)
	m.tracer.RecordStep(stepCtx, span, step.ID(), duration, execErr)

	if execErr != nil {
		stepState.Fail(execErr)
		m.logger.ErrorContext(stepCtx, "Step failed",
			slog.String("step", step.ID()),
			slog.Duration("duration", duration),
			slog.String("error", execErr.Error()))
		return NewExecutionError(step.ID(), execErr)
	}

	stepState.Complete()
	m.logger.InfoContext(stepCtx, "Step completed",
		slog.String("step", step.ID()),
		slog.Duration("duration", duration))
	return nil
}

func (m *Manager) skipRemaining(state *State, from int, reason string) {
	for _, step := range m.steps[from:] {
		if st := state.GetStep(step.ID()); st != nil && st.GetStatus() == StepStatusPending {
			st.Skip(reason)
		}
	}
}
