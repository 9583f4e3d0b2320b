// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package task tracks background search tasks through their lifecycle:
// pending, processing, then completed or failed. See docs/ARCHITECTURE.md
// § Task Lifecycle.
package task

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/biosearch/pkg/types"
)

// Manager is an in-memory task table with TTL expiry and bounded size.
// All methods are safe for concurrent use.
type Manager struct {
	// OnTerminal, when set, is invoked with a copy of each task that
	// reaches a terminal state. It runs outside the manager lock, so it
	// may call back into the manager.
	OnTerminal func(types.Task)

	cfg   types.TaskConfig
	mu    sync.Mutex
	tasks map[string]*types.Task
	clock func() time.Time
}

// NewManager builds a manager with the given limits.
func NewManager(cfg types.TaskConfig) *Manager {
	return &Manager{
		cfg:   cfg,
		tasks: make(map[string]*types.Task),
		clock: time.Now,
	}
}

// Create registers a new pending task for query and returns a copy of it.
// Housekeeping (TTL expiry, capacity eviction) runs before every insert so
// the table never grows past its bound through creation alone.
func (m *Manager) Create(query string) types.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.clock()
	m.housekeep(now)

	id := uuid.NewString()
	for _, exists := m.tasks[id]; exists; _, exists = m.tasks[id] {
		id = uuid.NewString()
	}
	t := &types.Task{
		ID:        id,
		Query:     query,
		Status:    types.TaskPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.tasks[id] = t
	return *t
}

// Update records progress on a running task. Progress is clamped to
// [0, 1]; updates to unknown or already-terminal tasks are no-ops.
func (m *Manager) Update(id string, progress float64, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok || t.Status.Terminal() {
		return
	}
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}
	t.Status = types.TaskProcessing
	t.Progress = progress
	t.Message = message
	t.UpdatedAt = m.clock()
}

// Complete marks the task completed with its result and full progress.
// Completing an already-terminal task overwrites its outcome: last write
// wins. Unknown ids are no-ops.
func (m *Manager) Complete(id string, result map[string]any) {
	m.finish(id, func(t *types.Task) {
		t.Status = types.TaskCompleted
		t.Progress = 1.0
		t.Message = "completed"
		t.Result = result
		t.Error = ""
	})
}

// Fail marks the task failed with errMsg. Progress is left where it was,
// so callers can see how far the task got. Unknown ids are no-ops.
func (m *Manager) Fail(id string, errMsg string) {
	m.finish(id, func(t *types.Task) {
		t.Status = types.TaskFailed
		t.Message = "failed"
		t.Error = errMsg
		t.Result = nil
	})
}

func (m *Manager) finish(id string, apply func(*types.Task)) {
	m.mu.Lock()
	t, ok := m.tasks[id]
	if !ok {
		m.mu.Unlock()
		return
	}
	apply(t)
	t.UpdatedAt = m.clock()
	snapshot := *t
	m.mu.Unlock()
	if m.OnTerminal != nil {
		m.OnTerminal(snapshot)
	}
}

// Get returns a copy of the task with the given id.
func (m *Manager) Get(id string) (types.Task, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return types.Task{}, false
	}
	return *t, true
}

// List returns copies of live tasks, newest first. An empty status matches
// every state; limit <= 0 means no cap.
func (m *Manager) List(status types.TaskStatus, limit int) []types.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]types.Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		if status != "" && t.Status != status {
			continue
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Delete removes the task with the given id, reporting whether it existed.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.tasks[id]
	delete(m.tasks, id)
	return ok
}

// Len reports the current table size.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

// housekeep drops tasks idle past the TTL, then, if the table is still at
// capacity, evicts the oldest half of the terminal tasks. Running tasks
// are never evicted for capacity. Callers hold the lock.
func (m *Manager) housekeep(now time.Time) {
	if m.cfg.TTL > 0 {
		for id, t := range m.tasks {
			if now.Sub(t.UpdatedAt) > m.cfg.TTL {
				delete(m.tasks, id)
			}
		}
	}
	if m.cfg.MaxTasks <= 0 || len(m.tasks) < m.cfg.MaxTasks {
		return
	}
	var terminal []*types.Task
	for _, t := range m.tasks {
		if t.Status.Terminal() {
			terminal = append(terminal, t)
		}
	}
	if len(terminal) == 0 {
		return
	}
	sort.Slice(terminal, func(i, j int) bool {
		return terminal[i].UpdatedAt.Before(terminal[j].UpdatedAt)
	})
	evict := len(terminal) / 2
	if evict == 0 {
		evict = 1
	}
	for _, t := range terminal[:evict] {
		delete(m.tasks, t.ID)
	}
}
