// Package config loads and saves the piano layout (JSON) and the runtime settings (YAML).
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/ayusman/tecla/internal/keyzone"
)

// DefaultLayoutFile is the layout file name used when none is given.
const DefaultLayoutFile = "piano_config.json"

// Default display size.
const (
	DefaultWidth  = 1280
	DefaultHeight = 720
)

// ErrMalformed is returned when a layout file parses but holds invalid values.
var ErrMalformed = errors.New("malformed layout")

// Color is a display color with channels in OpenCV order: blue, green, red.
type Color [3]int

// Valid reports whether every channel is within [0,255].
func (c Color) Valid() bool {
	for _, v := range c {
		if v < 0 || v > 255 {
			return false
		}
	}
	return true
}

// Colors is the display color scheme.
type Colors struct {
	Normal  Color
	Engaged Color
	Text    Color
}

// Valid reports whether all three colors are valid.
func (c Colors) Valid() bool {
	return c.Normal.Valid() && c.Engaged.Valid() && c.Text.Valid()
}

// DefaultColors returns green keys, red when engaged, white labels.
func DefaultColors() Colors {
	return Colors{
		Normal:  Color{0, 255, 0},
		Engaged: Color{0, 0, 255},
		Text:    Color{255, 255, 255},
	}
}

// Layout is the persisted piano configuration.
type Layout struct {
	Keys   []keyzone.Key
	Width  int
	Height int
	Colors Colors
}

// DefaultKeyIDs are the built-in keys in left-to-right order.
var DefaultKeyIDs = []string{"C", "D", "E", "F", "G", "A", "B"}

// Default returns the built-in layout: seven keys in a horizontal row,
// 1280x720, green/red/white.
func Default() Layout {
	keys := make([]keyzone.Key, 0, len(DefaultKeyIDs))
	for i, id := range DefaultKeyIDs {
		x1 := keyzone.DefaultFirstX + i*(keyzone.DefaultKeyWidth+keyzone.DefaultKeyGap)
		keys = append(keys, keyzone.Key{
			ID:    id,
			Sound: id + ".wav",
			Zone:  keyzone.NewZone(x1, keyzone.DefaultKeyTop, x1+keyzone.DefaultKeyWidth, keyzone.DefaultKeyBot),
		})
	}
	sortKeys(keys)

	return Layout{
		Keys:   keys,
		Width:  DefaultWidth,
		Height: DefaultHeight,
		Colors: DefaultColors(),
	}
}

// fileLayout is the on-disk form. Nil fields are absent from the file
// and keep their default value.
type fileLayout struct {
	Keys   map[string]string `json:"teclas,omitempty"`
	Areas  map[string][]int  `json:"teclas_area,omitempty"`
	Width  *int              `json:"largura_janela,omitempty"`
	Height *int              `json:"altura_janela,omitempty"`
	Colors *fileColors       `json:"cores,omitempty"`
}

type fileColors struct {
	Normal  *Color `json:"normal,omitempty"`
	Engaged *Color `json:"acionada,omitempty"`
	Text    *Color `json:"texto,omitempty"`
}

// Decode reads a layout record and overlays it on the defaults.
// Sounds and areas each replace the default maps as a whole; colors
// override one by one. Keys missing either a sound or an area are dropped.
func Decode(r io.Reader) (Layout, error) {
	dec := json.NewDecoder(r)

	var f fileLayout
	if err := dec.Decode(&f); err != nil {
		return Layout{}, fmt.Errorf("decode layout: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Layout{}, fmt.Errorf("%w: trailing data after layout", ErrMalformed)
	}
	return f.overlay(Default())
}

func (f fileLayout) overlay(l Layout) (Layout, error) {
	sounds := make(map[string]string, len(l.Keys))
	areas := make(map[string][]int, len(l.Keys))
	for _, k := range l.Keys {
		sounds[k.ID] = k.Sound
		areas[k.ID] = areaOf(k.Zone)
	}
	if f.Keys != nil {
		sounds = f.Keys
	}
	if f.Areas != nil {
		areas = f.Areas
	}

	if _, ok := sounds[""]; ok {
		return Layout{}, fmt.Errorf("%w: empty key id", ErrMalformed)
	}
	if _, ok := areas[""]; ok {
		return Layout{}, fmt.Errorf("%w: empty key id", ErrMalformed)
	}
	for id, area := range areas {
		if len(area) != 4 {
			return Layout{}, fmt.Errorf("%w: key %s area has %d values, want 4", ErrMalformed, id, len(area))
		}
	}

	keys := make([]keyzone.Key, 0, len(sounds))
	for id, sound := range sounds {
		area, ok := areas[id]
		if !ok {
			log.Warn().Str("key", id).Msg("Key has a sound but no area, skipping")
			continue
		}
		zone := keyzone.NewZone(area[0], area[1], area[2], area[3])
		if !zone.Valid() {
			return Layout{}, fmt.Errorf("%w: key %s has invalid area %v", ErrMalformed, id, area)
		}
		keys = append(keys, keyzone.Key{ID: id, Sound: sound, Zone: zone})
	}
	for id := range areas {
		if _, ok := sounds[id]; !ok {
			log.Warn().Str("key", id).Msg("Key has an area but no sound, skipping")
		}
	}
	sortKeys(keys)
	l.Keys = keys

	if f.Width != nil {
		l.Width = *f.Width
	}
	if f.Height != nil {
		l.Height = *f.Height
	}
	if l.Width <= 0 || l.Height <= 0 {
		return Layout{}, fmt.Errorf("%w: window size %dx%d", ErrMalformed, l.Width, l.Height)
	}

	if f.Colors != nil {
		if f.Colors.Normal != nil {
			l.Colors.Normal = *f.Colors.Normal
		}
		if f.Colors.Engaged != nil {
			l.Colors.Engaged = *f.Colors.Engaged
		}
		if f.Colors.Text != nil {
			l.Colors.Text = *f.Colors.Text
		}
	}
	if !l.Colors.Valid() {
		return Layout{}, fmt.Errorf("%w: color channel out of range", ErrMalformed)
	}

	return l, nil
}

// Encode writes the full layout record as indented JSON.
func Encode(w io.Writer, l Layout) error {
	f := fileLayout{
		Keys:   make(map[string]string, len(l.Keys)),
		Areas:  make(map[string][]int, len(l.Keys)),
		Width:  &l.Width,
		Height: &l.Height,
		Colors: &fileColors{
			Normal:  &l.Colors.Normal,
			Engaged: &l.Colors.Engaged,
			Text:    &l.Colors.Text,
		},
	}
	for _, k := range l.Keys {
		f.Keys[k.ID] = k.Sound
		f.Areas[k.ID] = areaOf(k.Zone)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(f)
}

// LoadFile reads a layout file. A missing file returns an error wrapping
// os.ErrNotExist.
func LoadFile(path string) (Layout, error) {
	f, err := os.Open(path)
	if err != nil {
		return Layout{}, fmt.Errorf("open layout: %w", err)
	}
	defer f.Close()

	return Decode(f)
}

// Load reads a layout file and falls back to Default on any error.
func Load(path string) Layout {
	l, err := LoadFile(path)
	if err == nil {
		log.Info().Str("path", path).Int("keys", len(l.Keys)).Msg("Loaded layout")
		return l
	}

	if errors.Is(err, os.ErrNotExist) {
		log.Info().Str("path", path).Msg("Layout file not found, using defaults")
	} else {
		log.Warn().Err(err).Str("path", path).Msg("Failed to load layout, using defaults")
	}
	return Default()
}

// Save writes the layout to path, replacing any existing file.
func Save(path string, l Layout) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create layout dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".layout-*.json")
	if err != nil {
		return fmt.Errorf("create temp layout: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp layout: %w", err)
	}
	if err := Encode(tmp, l); err != nil {
		tmp.Close()
		return fmt.Errorf("encode layout: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp layout: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write layout: %w", err)
	}
	return nil
}

func areaOf(z keyzone.Zone) []int {
	return []int{z.X1, z.Y1, z.X2, z.Y2}
}

func sortKeys(keys []keyzone.Key) {
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].ID < keys[j].ID
	})
}
