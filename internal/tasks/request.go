package tasks

import (
	"context"
	"errors"

	"github.com/tgienger/taskly/internal/models"
)

type opKind int

const (
	opRefresh opKind = iota
	opCreate
	opSetStatus
	opSetDescription
	opDelete
)

func (k opKind) String() string {
	switch k {
	case opRefresh:
		return "list"
	case opCreate:
		return "create"
	case opSetStatus:
		return "update status"
	case opSetDescription:
		return "update description"
	case opDelete:
		return "delete"
	}
	return "unknown"
}

// Request is one store call captured on the event loop. Do is safe to run on
// another goroutine: it only touches the store.
type Request struct {
	kind   opKind
	store  Store
	epoch  uint64
	owner  string
	taskID string
	text   string
	status models.Status
}

// Op names the store operation, e.g. "list" or "delete".
func (r Request) Op() string { return r.kind.String() }

// TaskID is the target task, empty for list and create.
func (r Request) TaskID() string { return r.taskID }

// IsRefresh reports whether r re-fetches the collection.
func (r Request) IsRefresh() bool { return r.kind == opRefresh }

// Do performs the store call. Failures come back wrapped in StoreError.
func (r Request) Do(ctx context.Context) Result {
	res := Result{req: r}
	switch r.kind {
	case opRefresh:
		res.tasks, res.err = r.store.ListTasks(ctx, r.owner)
	case opCreate:
		res.task, res.err = r.store.CreateTask(ctx, r.owner, r.text)
	case opSetStatus:
		res.err = r.store.UpdateTaskStatus(ctx, r.owner, r.taskID, r.status)
	case opSetDescription:
		res.err = r.store.UpdateTaskDescription(ctx, r.owner, r.taskID, r.text)
	case opDelete:
		res.err = r.store.DeleteTask(ctx, r.owner, r.taskID)
	}
	if res.err != nil {
		var se *StoreError
		if !errors.As(res.err, &se) {
			res.err = &StoreError{Op: r.kind.String(), Err: res.err}
		}
	}
	return res
}

// Result is the outcome of a Request, fed back through Controller.Resolve.
type Result struct {
	req   Request
	tasks []models.Task
	task  models.Task
	err   error
}

// Request returns the request that produced r.
func (r Result) Request() Request { return r.req }

// Err is nil on success, otherwise a *StoreError.
func (r Result) Err() error { return r.err }
