// Package toggle implements the reentrant two-phase command behind
// every "download/cancel" and "select/unselect" affordance.
package toggle

import "sync"

// Phase is one face of the command.
type Phase struct {
	Label  string
	Icon   string
	Action func()
}

// Confirmation is the prompt shown before a gated phase runs.
type Confirmation struct {
	Title       string
	Description string
}

// ConfirmFunc asks the user to confirm. Hosts wire their own dialog;
// tests wire a constant.
type ConfirmFunc func(c Confirmation) bool

// Command flips between a start phase and a cancel phase on every
// invocation. The cancel phase is gated behind a confirmation so a
// stray activation cannot kill a long transfer.
type Command struct {
	mu      sync.Mutex
	start   Phase
	cancel  Phase
	armed   bool // true once start ran, i.e. the cancel phase is active
	confirm ConfirmFunc
	prompt  Confirmation
}

func New(start, cancel Phase, confirm ConfirmFunc, prompt Confirmation) *Command {
	if confirm == nil {
		confirm = func(Confirmation) bool { return true }
	}
	return &Command{
		start:   start,
		cancel:  cancel,
		confirm: confirm,
		prompt:  prompt,
	}
}

// Invoke runs the active phase's action and flips to the other phase.
// In the cancel phase the action only runs after confirmation; a
// declined prompt leaves the command armed.
func (c *Command) Invoke() {
	c.mu.Lock()

	if !c.armed {
		action := c.start.Action
		c.armed = true
		c.mu.Unlock()

		if action != nil {
			action()
		}
		return
	}

	prompt := c.prompt
	c.mu.Unlock()

	if !c.confirm(prompt) {
		return
	}

	c.mu.Lock()
	action := c.cancel.Action
	c.armed = false
	c.mu.Unlock()

	if action != nil {
		action()
	}
}

// Reset returns the command to its start phase without running the
// cancel action, for when the underlying session ends on its own.
func (c *Command) Reset() {
	c.mu.Lock()
	c.armed = false
	c.mu.Unlock()
}

// Label of the currently active phase.
func (c *Command) Label() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.armed {
		return c.cancel.Label
	}
	return c.start.Label
}

// Icon of the currently active phase.
func (c *Command) Icon() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.armed {
		return c.cancel.Icon
	}
	return c.start.Icon
}
