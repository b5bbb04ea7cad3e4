package task_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/coursetools/core"
	. "github.com/trezcool/coursetools/core/task"
	"github.com/trezcool/coursetools/testutil"
)

type echoPayload struct {
	Value string `json:"value"`
}

func newQueue(t *testing.T, workers, size int) *Queue {
	q := NewQueue(core.TasksConfig{Workers: workers, QueueSize: size}, &testutil.Logger{})
	q.Register("echo", func(_ context.Context, payload json.RawMessage) (interface{}, error) {
		var p echoPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, err
		}
		return p.Value, nil
	})
	q.Register("fail", func(context.Context, json.RawMessage) (interface{}, error) {
		return nil, errors.New("boom")
	})
	q.Register("panic", func(context.Context, json.RawMessage) (interface{}, error) {
		panic("lol")
	})
	return q
}

func waitDone(t *testing.T, q *Queue, id string) Task {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		tsk, err := q.Status(id)
		if err != nil {
			t.Fatalf("Status() unexpected error = %v", err)
		}
		if tsk.IsDone() {
			return tsk
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("task %s did not finish", id)
	return Task{}
}

func TestQueue_Submit(t *testing.T) {
	q := newQueue(t, 2, 10)
	q.Start(context.Background())
	defer q.Stop()

	tests := []struct {
		name       string
		task       string
		payload    interface{}
		wantErr    error
		wantState  string
		wantResult interface{}
		wantError  string
	}{
		{name: "success", task: "echo", payload: echoPayload{Value: "hi"}, wantState: StateSuccess, wantResult: "hi"},
		{name: "failure", task: "fail", wantState: StateFailure, wantError: "boom"},
		{name: "panic", task: "panic", wantState: StateFailure, wantError: "panic: lol"},
		{name: "bad payload", task: "echo", payload: []int{1}, wantState: StateFailure},
		{name: "unknown task", task: "lol", wantErr: ErrUnknownTask},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tsk, err := q.Submit(context.Background(), tt.task, tt.payload)
			if errors.Cause(err) != tt.wantErr {
				t.Fatalf("Submit() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if tsk.ID == "" || tsk.State != StateQueuing {
				t.Errorf("Submit() = %+v, want a queued task", tsk)
			}

			done := waitDone(t, q, tsk.ID)
			if done.State != tt.wantState {
				t.Errorf("State = %v, want %v", done.State, tt.wantState)
			}
			if tt.wantResult != nil && done.Result != tt.wantResult {
				t.Errorf("Result = %v, want %v", done.Result, tt.wantResult)
			}
			if tt.wantError != "" && done.Error != tt.wantError {
				t.Errorf("Error = %v, want %v", done.Error, tt.wantError)
			}
		})
	}
}

func TestQueue_Submit_full(t *testing.T) {
	q := newQueue(t, 1, 2) // not started: nothing is consumed

	for i := 0; i < 2; i++ {
		if _, err := q.Submit(context.Background(), "echo", nil); err != nil {
			t.Fatalf("Submit() unexpected error = %v", err)
		}
	}
	if _, err := q.Submit(context.Background(), "echo", nil); err != ErrQueueFull {
		t.Errorf("Submit() error = %v, wantErr %v", err, ErrQueueFull)
	}
}

func TestQueue_Submit_cancelledContext(t *testing.T) {
	q := newQueue(t, 1, 2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := q.Submit(ctx, "echo", nil); err != context.Canceled {
		t.Errorf("Submit() error = %v, wantErr %v", err, context.Canceled)
	}
}

func TestQueue_Stop(t *testing.T) {
	q := newQueue(t, 1, 10)

	// queued before the workers start, processed before Stop returns
	var ids []string
	for i := 0; i < 3; i++ {
		tsk, err := q.Submit(context.Background(), "echo", echoPayload{Value: "v"})
		if err != nil {
			t.Fatalf("Submit() unexpected error = %v", err)
		}
		ids = append(ids, tsk.ID)
	}
	q.Start(context.Background())
	q.Stop()

	for _, id := range ids {
		tsk, err := q.Status(id)
		if err != nil {
			t.Fatalf("Status() unexpected error = %v", err)
		}
		if tsk.State != StateSuccess {
			t.Errorf("State = %v, want %v", tsk.State, StateSuccess)
		}
	}

	if _, err := q.Submit(context.Background(), "echo", nil); err != ErrStopped {
		t.Errorf("Submit() after Stop() error = %v, wantErr %v", err, ErrStopped)
	}
	q.Stop() // no-op
}

func TestQueue_Status(t *testing.T) {
	q := newQueue(t, 1, 1)
	if _, err := q.Status("lol"); err != ErrNotFound {
		t.Errorf("Status() error = %v, wantErr %v", err, ErrNotFound)
	}
	if !q.Registered("echo") || q.Registered("lol") {
		t.Errorf("Registered() mismatch")
	}
}
