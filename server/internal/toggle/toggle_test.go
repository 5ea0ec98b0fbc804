package toggle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newCounting(confirm ConfirmFunc) (*Command, *int, *int) {
	var starts, cancels int
	cmd := New(
		Phase{Label: "Download", Action: func() { starts++ }},
		Phase{Label: "Cancel", Action: func() { cancels++ }},
		confirm,
		Confirmation{Title: "Cancel?"},
	)
	return cmd, &starts, &cancels
}

func TestInvokeFlipsPhases(t *testing.T) {
	cmd, starts, cancels := newCounting(func(Confirmation) bool { return true })

	assert.Equal(t, "Download", cmd.Label())

	cmd.Invoke()
	assert.Equal(t, 1, *starts)
	assert.Equal(t, "Cancel", cmd.Label())

	cmd.Invoke()
	assert.Equal(t, 1, *cancels)
	assert.Equal(t, "Download", cmd.Label())
}

func TestDeclinedConfirmationKeepsArmed(t *testing.T) {
	cmd, _, cancels := newCounting(func(Confirmation) bool { return false })

	cmd.Invoke()
	cmd.Invoke()

	assert.Zero(t, *cancels)
	assert.Equal(t, "Cancel", cmd.Label())
}

func TestConfirmationReceivesPrompt(t *testing.T) {
	var seen Confirmation
	cmd, _, _ := newCounting(func(c Confirmation) bool {
		seen = c
		return true
	})

	cmd.Invoke()
	cmd.Invoke()

	assert.Equal(t, "Cancel?", seen.Title)
}

func TestResetReturnsToStartWithoutCancel(t *testing.T) {
	cmd, starts, cancels := newCounting(func(Confirmation) bool { return true })

	cmd.Invoke()
	cmd.Reset()

	assert.Equal(t, "Download", cmd.Label())

	cmd.Invoke()
	assert.Equal(t, 2, *starts)
	assert.Zero(t, *cancels)
}

func TestNilConfirmDefaultsToYes(t *testing.T) {
	cmd, _, cancels := newCounting(nil)

	cmd.Invoke()
	cmd.Invoke()

	assert.Equal(t, 1, *cancels)
}
