// Package piano holds the live piano board shared by the main loop and the editor.
package piano

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/ayusman/tecla/internal/config"
	"github.com/ayusman/tecla/internal/keyzone"
)

// ErrInvalidColors is returned when a color channel is outside [0,255].
var ErrInvalidColors = errors.New("invalid colors")

// Board is the live configuration: the key registry plus display colors
// and size. The main loop reads it every frame; the editor mutates it.
type Board struct {
	keys *keyzone.Registry

	mu     sync.RWMutex
	colors config.Colors
	width  int
	height int
}

// NewBoard creates a board from a layout. A layout whose keys the
// registry rejects falls back to the default layout.
func NewBoard(l config.Layout) *Board {
	b := &Board{keys: keyzone.NewRegistry()}
	if err := b.Apply(l); err != nil {
		log.Warn().Err(err).Msg("Invalid layout keys, using defaults")
		_ = b.Apply(config.Default())
	}
	return b
}

// Keys returns the key registry.
func (b *Board) Keys() *keyzone.Registry {
	return b.keys
}

// Colors returns the current color scheme.
func (b *Board) Colors() config.Colors {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.colors
}

// SetColors replaces the color scheme.
func (b *Board) SetColors(c config.Colors) error {
	if !c.Valid() {
		return ErrInvalidColors
	}
	b.mu.Lock()
	b.colors = c
	b.mu.Unlock()
	return nil
}

// Size returns the display size in pixels.
func (b *Board) Size() (width, height int) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.width, b.height
}

// Snapshot returns the board as a plain layout, suitable for saving.
func (b *Board) Snapshot() config.Layout {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return config.Layout{
		Keys:   b.keys.List(),
		Width:  b.width,
		Height: b.height,
		Colors: b.colors,
	}
}

// Apply replaces the whole board with l. Invalid colors or a non-positive
// size keep the current value. Invalid keys leave the board unchanged.
func (b *Board) Apply(l config.Layout) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.keys.Replace(l.Keys); err != nil {
		return err
	}
	if l.Colors.Valid() {
		b.colors = l.Colors
	}
	if l.Width > 0 && l.Height > 0 {
		b.width, b.height = l.Width, l.Height
	} else if b.width == 0 || b.height == 0 {
		b.width, b.height = config.DefaultWidth, config.DefaultHeight
	}
	return nil
}
