// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// TaskStatus is the lifecycle state of one aggregation request.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskProcessing TaskStatus = "processing"
	TaskCompleted  TaskStatus = "completed"
	TaskFailed     TaskStatus = "failed"
)

// Terminal reports whether s is an end state. A task never leaves a
// terminal state.
func (s TaskStatus) Terminal() bool {
	return s == TaskCompleted || s == TaskFailed
}

// Task tracks one user-issued aggregation request from creation to a
// terminal state. Tasks are owned and exclusively mutated by the task
// manager; callers only ever see snapshot copies, which keeps polling
// cheap to serialize.
type Task struct {
	// ID is the opaque unique task token.
	ID string `json:"id" yaml:"id"`

	// Query is the original input string the request was created with.
	Query string `json:"query" yaml:"query"`

	// Status is the lifecycle state: pending → processing → completed|failed.
	Status TaskStatus `json:"status" yaml:"status"`

	// Progress is in [0,1] and never decreases while the task is live.
	Progress float64 `json:"progress" yaml:"progress"`

	// Message is a human-readable description of the current phase.
	Message string `json:"message" yaml:"message"`

	// Result holds the aggregation outcome as plain nested maps/lists/
	// scalars. Present only when Status is completed.
	Result map[string]any `json:"result,omitempty" yaml:"result,omitempty"`

	// Error is the failure message. Present only when Status is failed.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}
