package events

import (
	"context"
	"errors"

	"github.com/wms-platform/picking-orchestrator/internal/domain"
	"github.com/wms-platform/picking-orchestrator/internal/workflows"
	"github.com/wms-platform/picking-orchestrator/pkg/logging"
	"go.temporal.io/api/serviceerror"
)

// WorkflowSignaler sends a signal to a running workflow
type WorkflowSignaler interface {
	SignalWorkflow(ctx context.Context, workflowID, signalName string, arg interface{}) error
}

// WorkflowNotifier forwards every event to next and additionally signals the
// wave's picking workflow when a wave completes.
type WorkflowNotifier struct {
	next     domain.Notifier
	signaler WorkflowSignaler
	logger   *logging.Logger
}

// NewWorkflowNotifier wraps next, which may be nil
func NewWorkflowNotifier(next domain.Notifier, signaler WorkflowSignaler, logger *logging.Logger) *WorkflowNotifier {
	return &WorkflowNotifier{
		next:     next,
		signaler: signaler,
		logger:   logger.WithComponent("workflow-notifier"),
	}
}

// Publish implements domain.Notifier
func (n *WorkflowNotifier) Publish(ctx context.Context, event domain.DomainEvent) error {
	var err error
	if n.next != nil {
		err = n.next.Publish(ctx, event)
	}

	completed, ok := event.(*domain.WaveCompletedEvent)
	if !ok {
		return err
	}

	signalErr := n.signaler.SignalWorkflow(ctx, workflows.WorkflowID(completed.WaveID), workflows.WaveCompletedSignal,
		workflows.WaveCompletedSignalPayload{WaveID: completed.WaveID})
	var notFound *serviceerror.NotFound
	switch {
	case signalErr == nil:
		n.logger.Debug("Signalled wave workflow", "waveId", completed.WaveID)
	case errors.As(signalErr, &notFound):
		// wave was not started through a workflow
	default:
		n.logger.WithError(signalErr).Warn("Failed to signal wave workflow", "waveId", completed.WaveID)
	}
	return err
}
