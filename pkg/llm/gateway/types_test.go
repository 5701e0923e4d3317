package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignal(t *testing.T) {
	s := NewSignal()

	var a, b int
	unsubA := s.Subscribe(func() { a++ })
	unsubB := s.Subscribe(func() { b++ })
	assert.Equal(t, 2, s.Listeners())

	s.Raise()
	assert.Equal(t, 1, a)
	assert.Equal(t, 1, b)

	unsubA()
	unsubA()
	assert.Equal(t, 1, s.Listeners())

	s.Raise()
	assert.Equal(t, 1, a)
	assert.Equal(t, 2, b)

	unsubB()
	assert.Equal(t, 0, s.Listeners())
}

func TestState(t *testing.T) {
	assert.Equal(t, "running", StateRunning.String())
	assert.Equal(t, "unknown", State(42).String())
	assert.False(t, StateIdle.IsTerminal())
	assert.False(t, StateRunning.IsTerminal())
	assert.True(t, StateCompleted.IsTerminal())
	assert.True(t, StateCancelled.IsTerminal())
	assert.True(t, StateFailed.IsTerminal())
}

func TestNotification_Display(t *testing.T) {
	assert.Equal(t, "Hi", Notification{Kind: NotifyData, Text: "Hi"}.Display())
	assert.Equal(t, "[error] boom", Notification{Kind: NotifyError, Text: "boom"}.Display())
	assert.True(t, NotifyStopped.IsTerminal())
	assert.False(t, NotifyData.IsTerminal())
}
