// Package display shows rendered frames and turns key presses into commands.
package display

import (
	"sync"

	"gocv.io/x/gocv"
)

// WindowTitle is the title of the preview window.
const WindowTitle = "Invisible Piano"

// Command is a control request from the user.
type Command int

const (
	CommandNone Command = iota
	CommandQuit
	CommandEditor
)

func (c Command) String() string {
	switch c {
	case CommandQuit:
		return "quit"
	case CommandEditor:
		return "editor"
	default:
		return "none"
	}
}

// ParseKey maps a key code from the window to a command. Only the low
// byte is significant.
func ParseKey(key int) Command {
	if key < 0 {
		return CommandNone
	}
	switch key & 0xFF {
	case 'q':
		return CommandQuit
	case 'c':
		return CommandEditor
	default:
		return CommandNone
	}
}

// Surface is where frames are shown and commands are read from.
type Surface interface {
	Show(frame *gocv.Mat)
	// PollKey returns the next pending command without blocking for long.
	PollKey() Command
	// Push queues a command from another source, e.g. the tray menu.
	Push(cmd Command)
	Close() error
}

// queue is a small non-blocking command queue shared by both surfaces.
type queue struct {
	once sync.Once
	ch   chan Command
}

func (q *queue) init() {
	q.once.Do(func() { q.ch = make(chan Command, 8) })
}

func (q *queue) push(cmd Command) {
	q.init()
	select {
	case q.ch <- cmd:
	default:
	}
}

func (q *queue) pop() Command {
	q.init()
	select {
	case cmd := <-q.ch:
		return cmd
	default:
		return CommandNone
	}
}

// Window is an OpenCV window. It must be used from the goroutine that
// created it.
type Window struct {
	win *gocv.Window
	q   queue
}

// NewWindow opens a preview window with the given title.
func NewWindow(title string) *Window {
	return &Window{win: gocv.NewWindow(title)}
}

func (w *Window) Show(frame *gocv.Mat) {
	if frame == nil || frame.Empty() {
		return
	}
	w.win.IMShow(*frame)
}

func (w *Window) PollKey() Command {
	if cmd := ParseKey(w.win.WaitKey(1)); cmd != CommandNone {
		return cmd
	}
	return w.q.pop()
}

func (w *Window) Push(cmd Command) { w.q.push(cmd) }

func (w *Window) Close() error {
	return w.win.Close()
}

// Headless discards frames. Commands only arrive through Push.
type Headless struct {
	mu    sync.Mutex
	shown int
	q     queue
}

// NewHeadless creates a surface without a window.
func NewHeadless() *Headless {
	return &Headless{}
}

func (h *Headless) Show(frame *gocv.Mat) {
	h.mu.Lock()
	h.shown++
	h.mu.Unlock()
}

// Shown returns the number of frames passed to Show.
func (h *Headless) Shown() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.shown
}

func (h *Headless) PollKey() Command { return h.q.pop() }

func (h *Headless) Push(cmd Command) { h.q.push(cmd) }

func (h *Headless) Close() error { return nil }
