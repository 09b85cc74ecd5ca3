package tray

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTray_Toggle(t *testing.T) {
	tr := New()
	assert.True(t, tr.IsEnabled())

	var got []bool
	tr.OnToggle(func(enabled bool) { got = append(got, enabled) })

	tr.handleToggle()
	tr.handleToggle()

	assert.Equal(t, []bool{false, true}, got)
	assert.True(t, tr.IsEnabled())
}

func TestTray_Callbacks(t *testing.T) {
	tr := New()

	var editor, web int
	tr.OnEditor(func() { editor++ })
	tr.OnWeb(func() { web++ })

	tr.handle(func() func() { return tr.onEditor })
	tr.handle(func() func() { return tr.onWeb })
	tr.handle(func() func() { return tr.onQuit }) // unset

	assert.Equal(t, 1, editor)
	assert.Equal(t, 1, web)
}

func TestTray_UpdatesBeforeReady(t *testing.T) {
	tr := New()

	// Menu items do not exist until Run; updates are ignored.
	tr.SetLastNote("C")
	tr.SetEditorOpen(true)
}

func TestToggleTitle(t *testing.T) {
	assert.Equal(t, "● Sound On", toggleTitle(true))
	assert.Equal(t, "○ Muted", toggleTitle(false))
}
