// Package temporal dials the Temporal frontend and holds the task queue and
// option defaults shared by the API process and the worker.
package temporal

import (
	"context"
	"fmt"
	"time"

	"github.com/wms-platform/picking-orchestrator/pkg/logging"
	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/client"
	tlog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"
)

// TaskQueue is the queue the picking worker polls
const TaskQueue = "picking-orchestrator-queue"

type Config struct {
	HostPort  string
	Namespace string
	Identity  string
	// WorkflowTimeout bounds a whole wave run including every retry
	WorkflowTimeout time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		HostPort:        "localhost:7233",
		Namespace:       "default",
		Identity:        "picking-orchestrator",
		WorkflowTimeout: 24 * time.Hour,
	}
}

// Client starts and signals picking workflows
type Client struct {
	client client.Client
	config *Config
}

// NewClient dials Temporal, routing SDK logs through logger
func NewClient(ctx context.Context, config *Config, logger *logging.Logger) (*Client, error) {
	options := client.Options{
		HostPort:  config.HostPort,
		Namespace: config.Namespace,
		Identity:  config.Identity,
		Logger:    tlog.NewStructuredLogger(logger.WithComponent("temporal").Logger),
	}

	c, err := client.DialContext(ctx, options)
	if err != nil {
		return nil, fmt.Errorf("failed to create Temporal client: %w", err)
	}

	return &Client{client: c, config: config}, nil
}

func (c *Client) Close() {
	c.client.Close()
}

// StartWorkflow starts workflowFn on the picking task queue. Starting an id
// that is still running returns the existing run; an id whose run already
// closed is rejected.
func (c *Client) StartWorkflow(ctx context.Context, workflowID string, workflowFn interface{}, args ...interface{}) (client.WorkflowRun, error) {
	options := client.StartWorkflowOptions{
		ID:                       workflowID,
		TaskQueue:                TaskQueue,
		WorkflowExecutionTimeout: c.config.WorkflowTimeout,
		WorkflowIDReusePolicy:    enumspb.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE,
	}
	run, err := c.client.ExecuteWorkflow(ctx, options, workflowFn, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to start workflow %s: %w", workflowID, err)
	}
	return run, nil
}

// SignalWorkflow signals the latest run of workflowID
func (c *Client) SignalWorkflow(ctx context.Context, workflowID, signalName string, arg interface{}) error {
	return c.client.SignalWorkflow(ctx, workflowID, "", signalName, arg)
}

// WorkerOptions sizes the worker's pollers and execution slots
type WorkerOptions struct {
	TaskQueue                    string
	MaxConcurrentActivityPollers int
	MaxConcurrentWorkflowPollers int
	MaxConcurrentActivities      int
	MaxConcurrentWorkflows       int
}

func DefaultWorkerOptions() *WorkerOptions {
	return &WorkerOptions{
		TaskQueue:                    TaskQueue,
		MaxConcurrentActivityPollers: 4,
		MaxConcurrentWorkflowPollers: 4,
		MaxConcurrentActivities:      100,
		MaxConcurrentWorkflows:       100,
	}
}

// NewWorker creates a worker bound to opts.TaskQueue
func (c *Client) NewWorker(opts *WorkerOptions) worker.Worker {
	return worker.New(c.client, opts.TaskQueue, worker.Options{
		MaxConcurrentActivityExecutionSize:     opts.MaxConcurrentActivities,
		MaxConcurrentWorkflowTaskExecutionSize: opts.MaxConcurrentWorkflows,
		MaxConcurrentActivityTaskPollers:       opts.MaxConcurrentActivityPollers,
		MaxConcurrentWorkflowTaskPollers:       opts.MaxConcurrentWorkflowPollers,
	})
}

// DefaultActivityOptions retries an activity three times over about a minute
func DefaultActivityOptions() workflow.ActivityOptions {
	return workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    3,
		},
	}
}
