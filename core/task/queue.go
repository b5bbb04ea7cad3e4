package task

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/coursetools/core"
)

// Task states
const (
	StateQueuing  = "QUEUING"
	StateProgress = "PROGRESS"
	StateSuccess  = "SUCCESS"
	StateFailure  = "FAILURE"
)

var (
	// errors
	ErrQueueFull   = errors.New("task queue is full")
	ErrUnknownTask = errors.New("unknown task")
	ErrNotFound    = errors.New("task not found")
	ErrStopped     = errors.New("task queue is stopped")
)

type (
	// Handler runs a task. Its result must be JSON serializable.
	Handler func(ctx context.Context, payload json.RawMessage) (interface{}, error)

	Task struct {
		ID        string          `json:"id"`
		Name      string          `json:"name"`
		Payload   json.RawMessage `json:"payload,omitempty"`
		State     string          `json:"state"`
		Result    interface{}     `json:"result,omitempty"`
		Error     string          `json:"error,omitempty"`
		CreatedAt time.Time       `json:"created_at"` // UTC
		UpdatedAt time.Time       `json:"updated_at"` // UTC
	}

	// Queue runs submitted tasks on a pool of workers.
	// Task statuses are kept in memory for the lifetime of the Queue.
	Queue struct {
		workers int
		logger  core.Logger

		mu       sync.RWMutex
		handlers map[string]Handler
		tasks    map[string]*Task
		jobs     chan string
		started  bool
		stopped  bool

		cancel context.CancelFunc
		wg     sync.WaitGroup
	}
)

func (t Task) IsDone() bool {
	return t.State == StateSuccess || t.State == StateFailure
}

func NewQueue(conf core.TasksConfig, logger core.Logger) *Queue {
	workers := conf.Workers
	if workers <= 0 {
		workers = 1
	}
	size := conf.QueueSize
	if size <= 0 {
		size = 1
	}
	return &Queue{
		workers:  workers,
		logger:   logger,
		handlers: make(map[string]Handler),
		tasks:    make(map[string]*Task),
		jobs:     make(chan string, size),
	}
}

// Register makes the task name runnable. Registering a name twice replaces its handler.
func (q *Queue) Register(name string, h Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[name] = h
}

func (q *Queue) Registered(name string) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	_, ok := q.handlers[name]
	return ok
}

// Start launches the workers. They run until ctx is cancelled or Stop is called.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started || q.stopped {
		return
	}
	q.started = true

	ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			q.work(ctx)
		}()
	}
}

// Stop stops accepting tasks, waits for the queued ones to be processed and stops the workers.
func (q *Queue) Stop() {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return
	}
	q.stopped = true
	close(q.jobs)
	q.mu.Unlock()

	q.wg.Wait()
	if q.cancel != nil {
		q.cancel()
	}
}

// Submit queues the named task. payload is marshalled to JSON.
func (q *Queue) Submit(ctx context.Context, name string, payload interface{}) (Task, error) {
	if err := ctx.Err(); err != nil {
		return Task{}, err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Task{}, errors.Wrap(err, "marshalling payload")
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.stopped {
		return Task{}, ErrStopped
	}
	if _, ok := q.handlers[name]; !ok {
		return Task{}, errors.Wrapf(ErrUnknownTask, "%q", name)
	}

	now := time.Now().UTC()
	t := &Task{
		ID:        uuid.New().String(),
		Name:      name,
		Payload:   data,
		State:     StateQueuing,
		CreatedAt: now,
		UpdatedAt: now,
	}
	select {
	case q.jobs <- t.ID:
	default:
		return Task{}, ErrQueueFull
	}
	q.tasks[t.ID] = t
	return *t, nil
}

func (q *Queue) Status(id string) (Task, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if t, ok := q.tasks[id]; ok {
		return *t, nil
	}
	return Task{}, ErrNotFound
}

func (q *Queue) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case id, ok := <-q.jobs:
			if !ok {
				return
			}
			q.run(ctx, id)
		}
	}
}

func (q *Queue) run(ctx context.Context, id string) {
	h, name, payload, ok := q.begin(id)
	if !ok {
		return
	}

	var (
		result interface{}
		err    error
	)
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = errors.Errorf("panic: %v", r)
			}
		}()
		result, err = h(ctx, payload)
	}()

	if err != nil {
		q.logger.Error(fmt.Sprintf("task %s [%s] failed: %v", name, id, err), err)
	} else {
		q.logger.Info(fmt.Sprintf("task %s [%s] succeeded", name, id))
	}
	q.finish(id, result, err)
}

func (q *Queue) begin(id string) (Handler, string, json.RawMessage, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	t, ok := q.tasks[id]
	if !ok {
		return nil, "", nil, false
	}
	t.State = StateProgress
	t.UpdatedAt = time.Now().UTC()
	return q.handlers[t.Name], t.Name, t.Payload, true
}

func (q *Queue) finish(id string, result interface{}, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	t := q.tasks[id]
	if err != nil {
		t.State = StateFailure
		t.Error = err.Error()
	} else {
		t.State = StateSuccess
		t.Result = result
	}
	t.UpdatedAt = time.Now().UTC()
}
