package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/tecla/internal/keyzone"
)

func TestDefault(t *testing.T) {
	l := Default()

	assert.Equal(t, 1280, l.Width)
	assert.Equal(t, 720, l.Height)
	assert.Equal(t, Color{0, 255, 0}, l.Colors.Normal)
	assert.Equal(t, Color{0, 0, 255}, l.Colors.Engaged)
	assert.Equal(t, Color{255, 255, 255}, l.Colors.Text)

	want := map[string]keyzone.Zone{
		"C": keyzone.NewZone(50, 50, 150, 250),
		"D": keyzone.NewZone(160, 50, 260, 250),
		"E": keyzone.NewZone(270, 50, 370, 250),
		"F": keyzone.NewZone(380, 50, 480, 250),
		"G": keyzone.NewZone(490, 50, 590, 250),
		"A": keyzone.NewZone(600, 50, 700, 250),
		"B": keyzone.NewZone(710, 50, 810, 250),
	}
	require.Len(t, l.Keys, len(want))
	for _, k := range l.Keys {
		assert.Equal(t, want[k.ID], k.Zone, "zone of %s", k.ID)
		assert.Equal(t, k.ID+".wav", k.Sound)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.json")

	_, err := LoadFile(path)
	assert.ErrorIs(t, err, os.ErrNotExist)

	assert.Equal(t, Default(), Load(path))
}

func TestLoad_MalformedFileUsesDefaults(t *testing.T) {
	cases := map[string]string{
		"not json":       `{"teclas": `,
		"wrong type":     `{"largura_janela": "wide"}`,
		"inverted zone":  `{"teclas": {"C": "c.wav"}, "teclas_area": {"C": [150, 50, 50, 250]}}`,
		"color range":    `{"cores": {"normal": [0, 300, 0]}}`,
		"zero width":     `{"largura_janela": 0}`,
		"fractional key": `{"teclas_area": {"C": [50.5, 50, 150, 250]}}`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "layout.json")
			require.NoError(t, os.WriteFile(path, []byte(body), 0644))

			_, err := LoadFile(path)
			assert.Error(t, err)
			assert.Equal(t, Default(), Load(path))
		})
	}
}

func TestDecode_PartialOverlay(t *testing.T) {
	body := `{
		"largura_janela": 640,
		"cores": {"texto": [10, 20, 30]}
	}`

	l, err := Decode(strings.NewReader(body))
	require.NoError(t, err)

	def := Default()
	assert.Equal(t, 640, l.Width)
	assert.Equal(t, def.Height, l.Height)
	assert.Equal(t, def.Keys, l.Keys)
	assert.Equal(t, def.Colors.Normal, l.Colors.Normal)
	assert.Equal(t, def.Colors.Engaged, l.Colors.Engaged)
	assert.Equal(t, Color{10, 20, 30}, l.Colors.Text)
}

func TestDecode_SoundsReplaceDefaults(t *testing.T) {
	body := `{"teclas": {"C": "/sounds/c.wav", "X": "x.wav"}}`

	l, err := Decode(strings.NewReader(body))
	require.NoError(t, err)

	// X has no area in the defaults and is dropped; C keeps its default area.
	require.Len(t, l.Keys, 1)
	assert.Equal(t, keyzone.Key{ID: "C", Sound: "/sounds/c.wav", Zone: keyzone.NewZone(50, 50, 150, 250)}, l.Keys[0])
}

func TestDecode_AreaNeedsFourValues(t *testing.T) {
	cases := map[string]string{
		"five values":  `{"teclas_area": {"C": [50, 50, 150, 250, 999]}}`,
		"three values": `{"teclas_area": {"C": [50, 50, 150]}}`,
		"empty":        `{"teclas": {"C": "c.wav"}, "teclas_area": {"C": []}}`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(body))
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestDecode_TrailingData(t *testing.T) {
	cases := map[string]string{
		"garbage":      `{"largura_janela": 640} trailing garbage`,
		"second value": `{"largura_janela": 640} {"altura_janela": 480}`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(body))
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}

	l, err := Decode(strings.NewReader("{\"largura_janela\": 640}\n\n"))
	require.NoError(t, err)
	assert.Equal(t, 640, l.Width)
}

func TestDecode_EmptyKeyID(t *testing.T) {
	cases := map[string]string{
		"both":       `{"teclas": {"": "x.wav"}, "teclas_area": {"": [1, 2, 3, 4]}}`,
		"sound only": `{"teclas": {"": "x.wav"}}`,
		"area only":  `{"teclas_area": {"": [1, 2, 3, 4]}}`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(body))
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	l := Layout{
		Keys: []keyzone.Key{
			{ID: "A", Sound: "/tmp/a.wav", Zone: keyzone.NewZone(1, 2, 3, 4)},
			{ID: "Do", Sound: "do.mp3", Zone: keyzone.NewZone(100, 200, 300, 400)},
			{ID: "Z", Sound: "z.wav", Zone: keyzone.NewZone(-10, -20, 1000, 2000)},
		},
		Width:  1920,
		Height: 1080,
		Colors: Colors{
			Normal:  Color{1, 2, 3},
			Engaged: Color{4, 5, 6},
			Text:    Color{255, 0, 128},
		},
	}

	path := filepath.Join(t.TempDir(), "nested", "layout.json")
	require.NoError(t, Save(path, l))

	got, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, l, got)
}

func TestSave_FileUsesPersistedFieldNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.json")
	require.NoError(t, Save(path, Default()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	for _, field := range []string{`"teclas"`, `"teclas_area"`, `"largura_janela"`, `"altura_janela"`, `"cores"`, `"normal"`, `"acionada"`, `"texto"`} {
		assert.Contains(t, string(data), field)
	}
}
