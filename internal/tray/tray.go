// Package tray provides a system tray menu for running the piano without a window.
package tray

import (
	"sync"

	"github.com/getlantern/systray"
)

// Tray represents the system tray application.
type Tray struct {
	onToggle func(enabled bool)
	onEditor func()
	onWeb    func()
	onQuit   func()
	enabled  bool
	mu       sync.RWMutex

	// Menu items stored for later updates
	menuToggle   *systray.MenuItem
	menuLastNote *systray.MenuItem
	menuEditor   *systray.MenuItem
}

// New creates a new Tray instance with sound enabled.
func New() *Tray {
	return &Tray{
		enabled: true,
	}
}

// OnToggle sets the callback called when notes are muted or unmuted.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnEditor sets the callback called when the editor menu item is clicked.
func (t *Tray) OnEditor(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onEditor = fn
}

// OnWeb sets the callback called when the live view menu item is clicked.
func (t *Tray) OnWeb(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onWeb = fn
}

// OnQuit sets the callback called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until Quit is called and must run on the main goroutine.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit removes the tray icon and makes Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("Tecla")
	systray.SetTooltip("Invisible Piano")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Mute or unmute notes")
	systray.AddSeparator()

	t.menuLastNote = systray.AddMenuItem("Last: none", "Last played note")
	t.menuLastNote.Disable()
	systray.AddSeparator()

	t.menuEditor = systray.AddMenuItem("Edit Keys", "Open the key editor")
	t.mu.Unlock()
	menuWeb := systray.AddMenuItem("Open Live View...", "Open the live view in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Tecla")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-t.menuEditor.ClickedCh:
				t.handle(func() func() { return t.onEditor })
			case <-menuWeb.ClickedCh:
				t.handle(func() func() { return t.onWeb })
			case <-menuQuit.ClickedCh:
				t.handle(func() func() { return t.onQuit })
				systray.Quit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Sound On"
	}
	return "○ Muted"
}

// handleToggle flips the enabled state and notifies the callback.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled

	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}

	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

// handle reads a callback under the lock and calls it outside.
func (t *Tray) handle(get func() func()) {
	t.mu.RLock()
	callback := get()
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// SetLastNote updates the last note shown in the menu.
func (t *Tray) SetLastNote(key string) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuLastNote == nil {
		return
	}
	if key == "" {
		t.menuLastNote.SetTitle("Last: none")
	} else {
		t.menuLastNote.SetTitle("Last: " + key)
	}
}

// SetEditorOpen updates the editor menu item.
func (t *Tray) SetEditorOpen(open bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuEditor == nil {
		return
	}
	if open {
		t.menuEditor.SetTitle("Close Editor")
	} else {
		t.menuEditor.SetTitle("Edit Keys")
	}
}

// IsEnabled reports whether notes are played.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}
