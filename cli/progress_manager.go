package cli

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/pterm/pterm"
)

type progressSpinner interface {
	Stop() error
	Success(...any)
	Fail(...any)
	UpdateText(string)
}

type progressSpinnerFactory func(w io.Writer, text string) (progressSpinner, error)

var defaultSpinnerFactory progressSpinnerFactory = func(w io.Writer, text string) (progressSpinner, error) {
	spinner, err := pterm.DefaultSpinner.
		WithWriter(w).
		WithRemoveWhenDone(false).
		WithText(text).
		Start()
	if err != nil {
		return nil, err
	}
	return spinner, nil
}

// StepStatus represents the state of a progress step.
type StepStatus int

const (
	// StepPending indicates a step has not yet started.
	StepPending StepStatus = iota
	// StepRunning indicates a step is currently in progress.
	StepRunning
	// StepCompleted indicates a step finished successfully.
	StepCompleted
	// StepFailed indicates a step encountered an error.
	StepFailed
)

// Step is one stage of a conversion.
type Step struct {
	ID        string
	Message   string
	Status    StepStatus
	startTime time.Time
}

// ProgressManager shows one spinner per step, one step at a time. It also reports bytes read while
// the running step loads a file, so it can be handed to a loader as its progress observer.
type ProgressManager struct {
	out            io.Writer
	stepMap        map[string]*Step
	current        *Step
	currentSpinner progressSpinner
	spinnerFactory progressSpinnerFactory
	mu             sync.Mutex
	disabled       bool
}

// ProgressManagerOption allows customizing ProgressManager behavior at creation time.
type ProgressManagerOption func(*ProgressManager)

// WithProgressOutput enables or disables terminal output for a ProgressManager.
func WithProgressOutput(enabled bool) ProgressManagerOption {
	return func(pm *ProgressManager) {
		pm.disabled = !enabled
	}
}

func withProgressSpinnerFactory(factory progressSpinnerFactory) ProgressManagerOption {
	return func(pm *ProgressManager) {
		pm.spinnerFactory = factory
	}
}

// NewProgressManager creates a ProgressManager writing to out with all steps registered upfront.
func NewProgressManager(out io.Writer, steps []*Step, opts ...ProgressManagerOption) *ProgressManager {
	stepMap := make(map[string]*Step, len(steps))
	for _, step := range steps {
		stepMap[step.ID] = step
	}
	pm := &ProgressManager{
		out:            out,
		stepMap:        stepMap,
		spinnerFactory: defaultSpinnerFactory,
	}
	for _, opt := range opts {
		opt(pm)
	}
	return pm
}

// Start begins the spinner of the given step, stopping any spinner still running.
func (pm *ProgressManager) Start(stepID string) error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	step, exists := pm.stepMap[stepID]
	if !exists {
		return errors.Errorf("step %q not found", stepID)
	}
	step.Status = StepRunning
	step.startTime = time.Now()
	pm.current = step

	if pm.disabled {
		return nil
	}
	if pm.currentSpinner != nil {
		//nolint:errcheck
		_ = pm.currentSpinner.Stop()
	}
	spinner, err := pm.spinnerFactory(pm.out, step.Message)
	if err != nil {
		return errors.Wrap(err, "failed to start spinner")
	}
	pm.currentSpinner = spinner
	return nil
}

// Complete marks a step as completed, replacing its message with message when one is given.
func (pm *ProgressManager) Complete(stepID, message string) error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	step, exists := pm.stepMap[stepID]
	if !exists {
		return errors.Errorf("step %q not found", stepID)
	}
	step.Status = StepCompleted
	if message == "" {
		message = step.Message
	}
	pm.finishLocked(step, func(spinner progressSpinner, text string) { spinner.Success(text) },
		message+elapsedSince(step.startTime))
	return nil
}

// Fail marks a step as failed because of err.
func (pm *ProgressManager) Fail(stepID string, err error) error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	step, exists := pm.stepMap[stepID]
	if !exists {
		return errors.Errorf("step %q not found", stepID)
	}
	step.Status = StepFailed
	pm.finishLocked(step, func(spinner progressSpinner, text string) { spinner.Fail(text) },
		fmt.Sprintf("%s: %v", step.Message, err))
	return nil
}

// Stop stops any running spinner without marking its step.
func (pm *ProgressManager) Stop() {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	pm.current = nil
	if pm.currentSpinner != nil {
		//nolint:errcheck
		_ = pm.currentSpinner.Stop()
		pm.currentSpinner = nil
	}
}

func (pm *ProgressManager) finishLocked(step *Step, finish func(progressSpinner, string), text string) {
	if pm.current == step {
		pm.current = nil
	}
	if pm.disabled || pm.currentSpinner == nil {
		return
	}
	finish(pm.currentSpinner, text)
	pm.currentSpinner = nil
}

// Progress shows how much of the running step's input has been read.
func (pm *ProgressManager) Progress(loaded, total int64) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if pm.disabled || pm.current == nil || pm.currentSpinner == nil {
		return
	}
	pm.currentSpinner.UpdateText(progressText(pm.current.Message, loaded, total))
}

func progressText(message string, loaded, total int64) string {
	if total <= 0 {
		return fmt.Sprintf("%s (%s)", message, humanize.Bytes(uint64(loaded)))
	}
	return fmt.Sprintf("%s (%s / %s)", message, humanize.Bytes(uint64(loaded)), humanize.Bytes(uint64(total)))
}

func elapsedSince(start time.Time) string {
	if start.IsZero() {
		return ""
	}
	return fmt.Sprintf(" (%s)", time.Since(start).Round(time.Millisecond))
}
