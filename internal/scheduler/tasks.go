package scheduler

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

// TaskPendingSweep walks every team member holding a pending chat
// action and drops the expired ones.
const TaskPendingSweep = "chat.pending.sweep"

type PendingSweepPayload struct {
	EnqueuedAt time.Time `json:"enqueuedAt"`
}

func NewPendingSweepTask(payload PendingSweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPendingSweep, data), nil
}

func ParsePendingSweepPayload(task *asynq.Task) (PendingSweepPayload, error) {
	var payload PendingSweepPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return PendingSweepPayload{}, err
	}
	return payload, nil
}
