package jobs

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskReorderScan walks every branch looking for ingredients below
	// their reorder level.
	TaskReorderScan = "replenish:reorder-scan"
	// TaskIdempotencyCleanup prunes aged idempotency keys.
	TaskIdempotencyCleanup = "replenish:idempotency-cleanup"
)

// ReorderScanPayload contains options for the nightly shortage scan.
type ReorderScanPayload struct {
	// BranchID limits the scan to one branch; zero scans all branches.
	BranchID int64 `json:"branch_id"`
}

// NewReorderScanTask builds a reorder scan task.
func NewReorderScanTask(branchID int64) (*asynq.Task, error) {
	body, err := json.Marshal(ReorderScanPayload{BranchID: branchID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReorderScan, body, asynq.Queue(QueueDefault)), nil
}

// NewIdempotencyCleanupTask builds a cleanup task.
func NewIdempotencyCleanupTask() (*asynq.Task, error) {
	return asynq.NewTask(TaskIdempotencyCleanup, nil, asynq.Queue(QueueDefault)), nil
}

// Client submits jobs to the queue.
type Client struct {
	client *asynq.Client
}

// NewClient constructs an Asynq client.
func NewClient(redisOpts asynq.RedisClientOpt) (*Client, error) {
	return &Client{client: asynq.NewClient(redisOpts)}, nil
}

// EnqueueReorderScan enqueues an on-demand shortage scan.
func (c *Client) EnqueueReorderScan(ctx context.Context, branchID int64) (*asynq.TaskInfo, error) {
	task, err := NewReorderScanTask(branchID)
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault))
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}
