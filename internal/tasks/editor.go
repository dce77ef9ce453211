package tasks

// EditState is the mode of a single task item
type EditState int

const (
	Viewing EditState = iota
	Editing
)

func (s EditState) String() string {
	if s == Editing {
		return "editing"
	}
	return "viewing"
}

// Editor is the per-task view/edit state machine. The draft only exists
// while editing.
type Editor struct {
	taskID string
	state  EditState
	draft  string
	saving bool
}

func (e *Editor) TaskID() string   { return e.taskID }
func (e *Editor) State() EditState { return e.state }
func (e *Editor) Draft() string    { return e.draft }

// Saving reports whether a description update is in flight.
func (e *Editor) Saving() bool { return e.saving }

func (e *Editor) close() {
	e.state = Viewing
	e.draft = ""
	e.saving = false
}

// EditState returns the state of the task's editor, Viewing if it has none.
func (c *Controller) EditState(id string) EditState {
	if ed, ok := c.editors[id]; ok {
		return ed.state
	}
	return Viewing
}

// Editor returns the task's editor, nil if the task has never been edited.
func (c *Controller) Editor(id string) *Editor {
	return c.editors[id]
}

// BeginEdit copies the task's description into a fresh draft.
func (c *Controller) BeginEdit(id string) error {
	task, ok := c.Task(id)
	if !ok {
		return ErrUnknownTask
	}
	ed, ok := c.editors[id]
	if !ok {
		ed = &Editor{taskID: id}
		c.editors[id] = ed
	}
	if ed.state == Editing {
		return nil
	}
	ed.state = Editing
	ed.draft = task.Description
	return nil
}

// SetDraft replaces the draft of an editing task. It is ignored otherwise.
func (c *Controller) SetDraft(id, text string) {
	if ed, ok := c.editors[id]; ok && ed.state == Editing {
		ed.draft = text
	}
}

// Cancel discards the draft without touching the store.
func (c *Controller) Cancel(id string) {
	if ed, ok := c.editors[id]; ok {
		ed.close()
	}
}

// Save validates the draft and prepares the description update. The editor
// stays in Editing until the update succeeds.
func (c *Controller) Save(id string) (Request, error) {
	ed, ok := c.editors[id]
	if !ok || ed.state != Editing {
		return Request{}, ErrUnknownTask
	}
	if ed.saving {
		return Request{}, ErrSaving
	}
	desc, err := ValidateDescription(ed.draft)
	if err != nil {
		c.fail("The description cannot be empty", err)
		return Request{}, err
	}
	if c.owner == "" {
		err := &AuthRequiredError{Op: opSetDescription.String()}
		c.fail("You need to sign in to edit tasks", err)
		return Request{}, err
	}

	req := c.request(opSetDescription)
	req.taskID = id
	req.text = desc
	ed.saving = true
	return req, nil
}

// ToggleStatus prepares the update to the opposite status. It does not care
// whether the item is being edited.
func (c *Controller) ToggleStatus(id string) (Request, error) {
	if c.owner == "" {
		err := &AuthRequiredError{Op: opSetStatus.String()}
		c.fail("You need to sign in to update tasks", err)
		return Request{}, err
	}
	task, ok := c.Task(id)
	if !ok {
		return Request{}, ErrUnknownTask
	}

	req := c.request(opSetStatus)
	req.taskID = id
	req.status = task.Status.Toggle()
	return req, nil
}

// Delete prepares the removal of a task that is not being edited.
func (c *Controller) Delete(id string) (Request, error) {
	if c.owner == "" {
		err := &AuthRequiredError{Op: opDelete.String()}
		c.fail("You need to sign in to delete tasks", err)
		return Request{}, err
	}
	if _, ok := c.Task(id); !ok {
		return Request{}, ErrUnknownTask
	}
	if c.EditState(id) == Editing {
		c.info("Finish editing the task before deleting it", ErrEditing)
		return Request{}, ErrEditing
	}

	req := c.request(opDelete)
	req.taskID = id
	return req, nil
}
