package tasks

// Level is the severity of a user-visible notice
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelError
)

// Notice is a short message surfaced to the user, like a toast
type Notice struct {
	Level Level
	Text  string
	Err   error
}

// Notifier receives notices. It is called on the event loop.
type Notifier func(Notice)

func (c *Controller) success(text string) {
	c.notify(Notice{Level: LevelSuccess, Text: text})
}

func (c *Controller) fail(text string, err error) {
	c.notify(Notice{Level: LevelError, Text: text, Err: err})
}

func (c *Controller) info(text string, err error) {
	c.notify(Notice{Level: LevelInfo, Text: text, Err: err})
}
