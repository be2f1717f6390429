package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// TaskSubmissionForward triggers one forwarding invocation for a stored
// submission. Delivery is at-least-once; the orchestrator tolerates
// re-invocation.
const TaskSubmissionForward = "submission.forward"

// SubmissionForwardPayload is the inbound trigger event.
type SubmissionForwardPayload struct {
	SubmissionKey string `json:"submissionKey"`
	SubmitterID   string `json:"submitterId"`
	SubmitterType string `json:"submitterType"`
}

// NewSubmissionForwardTask builds the forwarding task. The task ID is the
// submission key, so a duplicate enqueue of the same submission is
// deduplicated by the queue while a task for it is still pending.
func NewSubmissionForwardTask(payload SubmissionForwardPayload) (*asynq.Task, []asynq.Option, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	opts := []asynq.Option{asynq.TaskID(payload.SubmissionKey)}
	return asynq.NewTask(TaskSubmissionForward, data), opts, nil
}

// ParseSubmissionForwardPayload decodes the forwarding task payload.
func ParseSubmissionForwardPayload(task *asynq.Task) (SubmissionForwardPayload, error) {
	var payload SubmissionForwardPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return SubmissionForwardPayload{}, err
	}
	return payload, nil
}
