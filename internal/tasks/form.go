package tasks

import "github.com/tgienger/taskly/internal/models"

// Form holds the new-task input.
type Form struct {
	input      string
	submitting bool
}

// Input is the current text of the input field.
func (f *Form) Input() string { return f.input }

// SetInput records what the user typed.
func (f *Form) SetInput(s string) { f.input = s }

// Submitting reports whether a create is in flight.
func (f *Form) Submitting() bool { return f.submitting }

// Form returns the creation form.
func (c *Controller) Form() *Form { return &c.form }

// Submit validates rawText and prepares exactly one create call. The input is
// cleared only once the create succeeds.
func (c *Controller) Submit(rawText string) (Request, error) {
	c.form.input = rawText

	desc, err := ValidateDescription(rawText)
	if err != nil {
		c.fail("Please enter a task description", err)
		return Request{}, err
	}
	if c.owner == "" {
		err := &AuthRequiredError{Op: opCreate.String()}
		c.fail("You need to sign in to add tasks", err)
		return Request{}, err
	}

	req := c.request(opCreate)
	req.text = desc
	req.status = models.StatusPending
	c.form.submitting = true
	return req, nil
}
