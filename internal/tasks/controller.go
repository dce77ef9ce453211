package tasks

import (
	"slices"

	"github.com/tgienger/taskly/internal/models"
)

// Controller owns the task collection of the current owner. It is not safe
// for concurrent use; all methods run on the event loop.
type Controller struct {
	store  Store
	notify Notifier

	owner string
	// epoch changes with every owner change so results issued for a previous
	// identity are dropped on arrival
	epoch uint64

	tasks    []models.Task
	loaded   bool
	inflight int

	editors map[string]*Editor
	form    Form
}

// NewController creates a controller with no owner. notify may be nil.
func NewController(store Store, notify Notifier) *Controller {
	if notify == nil {
		notify = func(Notice) {}
	}
	return &Controller{
		store:   store,
		notify:  notify,
		editors: make(map[string]*Editor),
	}
}

// Owner returns the current owner id, empty when signed out
func (c *Controller) Owner() string { return c.owner }

// SetOwner switches identity. A new owner triggers a refresh; an empty owner
// clears the collection, editors and form.
func (c *Controller) SetOwner(owner string) []Request {
	c.owner = owner
	c.epoch++
	c.tasks = nil
	c.loaded = false
	c.inflight = 0
	c.editors = make(map[string]*Editor)
	c.form = Form{}

	if owner == "" {
		return nil
	}
	req, err := c.Refresh()
	if err != nil {
		return nil
	}
	return []Request{req}
}

// Refresh asks for the full ordered list of the owner's tasks and marks the
// controller as loading until the answer is resolved.
func (c *Controller) Refresh() (Request, error) {
	if c.owner == "" {
		return Request{}, &AuthRequiredError{Op: opRefresh.String()}
	}
	c.inflight++
	return c.request(opRefresh), nil
}

// Tasks returns a copy of the collection in store order (newest first).
func (c *Controller) Tasks() []models.Task {
	return slices.Clone(c.tasks)
}

// Task looks up a task of the current collection by id.
func (c *Controller) Task(id string) (models.Task, bool) {
	for _, t := range c.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return models.Task{}, false
}

// Loading reports whether at least one refresh is in flight.
func (c *Controller) Loading() bool { return c.inflight > 0 }

// Loaded reports whether a refresh for the current owner has succeeded.
func (c *Controller) Loaded() bool { return c.loaded }

func (c *Controller) PendingTasks() []models.Task   { return Pending(c.tasks) }
func (c *Controller) CompletedTasks() []models.Task { return Completed(c.tasks) }
func (c *Controller) PendingCount() int             { return PendingCount(c.tasks) }
func (c *Controller) CompletedCount() int           { return CompletedCount(c.tasks) }

// Resolve applies a finished request and returns the follow-up requests, which
// is the refresh after a successful write.
func (c *Controller) Resolve(res Result) []Request {
	req := res.req
	if req.epoch != c.epoch {
		return nil
	}

	switch req.kind {
	case opRefresh:
		if c.inflight > 0 {
			c.inflight--
		}
		if res.err != nil {
			c.fail("Could not load tasks", res.err)
			return nil
		}
		c.tasks = res.tasks
		c.loaded = true
		c.dropStaleEditors()
		return nil

	case opCreate:
		c.form.submitting = false
		if res.err != nil {
			c.fail("Could not add task", res.err)
			return nil
		}
		c.form.input = ""
		c.success("Task added")

	case opSetStatus:
		if res.err != nil {
			c.fail("Could not update task", res.err)
			return nil
		}
		if req.status == models.StatusCompleted {
			c.success("Task completed")
		} else {
			c.success("Task reopened")
		}

	case opSetDescription:
		if res.err != nil {
			if ed, ok := c.editors[req.taskID]; ok {
				ed.saving = false
			}
			c.fail("Could not update task", res.err)
			return nil
		}
		if ed, ok := c.editors[req.taskID]; ok {
			ed.close()
		}
		c.success("Task updated")

	case opDelete:
		if res.err != nil {
			c.fail("Could not delete task", res.err)
			return nil
		}
		c.success("Task deleted")
	}

	return c.mutationComplete()
}

// mutationComplete re-fetches after a successful write.
func (c *Controller) mutationComplete() []Request {
	req, err := c.Refresh()
	if err != nil {
		return nil
	}
	return []Request{req}
}

func (c *Controller) request(kind opKind) Request {
	return Request{
		kind:  kind,
		store: c.store,
		epoch: c.epoch,
		owner: c.owner,
	}
}

// dropStaleEditors forgets editors whose task left the collection.
func (c *Controller) dropStaleEditors() {
	for id := range c.editors {
		if _, ok := c.Task(id); !ok {
			delete(c.editors, id)
		}
	}
}
