package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultSettingsFile is the runtime settings file name used when none is given.
const DefaultSettingsFile = "tecla.yaml"

// envPrefix prefixes every environment override, e.g. TECLA_CAMERA=1.
const envPrefix = "TECLA_"

// Settings holds the runtime options that are not part of the piano layout.
type Settings struct {
	Camera     int              `yaml:"camera"`
	Layout     string           `yaml:"layout"`
	Database   string           `yaml:"database"`
	Listen     string           `yaml:"listen"`
	WebDir     string           `yaml:"web_dir"`
	Headless   bool             `yaml:"headless"`
	SaveOnExit bool             `yaml:"save_on_exit"`
	Log        LogSettings      `yaml:"log"`
	Detector   DetectorSettings `yaml:"detector"`
	Trigger    TriggerSettings  `yaml:"trigger"`
	Capture    CaptureSettings  `yaml:"capture"`
	Sound      SoundSettings    `yaml:"sound"`
}

// LogSettings configures the logger.
type LogSettings struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console, json
}

// DetectorSettings configures hand detection.
type DetectorSettings struct {
	MaxHands      int     `yaml:"max_hands"`
	MinConfidence float64 `yaml:"min_confidence"`
}

// TriggerSettings configures the key trigger state machine.
type TriggerSettings struct {
	// ReleaseOnLoss releases a hand's engaged keys when that hand is not
	// detected in a frame. When false the keys stay engaged until the hand
	// is seen outside them.
	ReleaseOnLoss bool `yaml:"release_on_loss"`
}

// CaptureSettings configures the camera loop.
type CaptureSettings struct {
	IdleGate        bool    `yaml:"idle_gate"`
	MotionThreshold float64 `yaml:"motion_threshold"`
}

// SoundSettings configures playback.
type SoundSettings struct {
	Volume float64 `yaml:"volume"`
}

// DefaultSettings returns the settings used when no file is present.
func DefaultSettings() *Settings {
	dataDir := defaultDataDir()
	return &Settings{
		Camera:     0,
		Layout:     DefaultLayoutFile,
		Database:   filepath.Join(dataDir, "tecla.db"),
		Listen:     "127.0.0.1:8080",
		Headless:   false,
		SaveOnExit: false,
		Log: LogSettings{
			Level:  "info",
			Format: "console",
		},
		Detector: DetectorSettings{
			MaxHands:      2,
			MinConfidence: 0.7,
		},
		Capture: CaptureSettings{
			MotionThreshold: 1.0,
		},
		Sound: SoundSettings{
			Volume: 1.0,
		},
	}
}

func defaultDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(homeDir, ".tecla")
}

// LoadSettings reads the YAML settings file, then applies TECLA_* environment
// overrides. A .env file next to the working directory is loaded first when
// present. A missing settings file is not an error.
func LoadSettings(path string) (*Settings, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	s := DefaultSettings()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, s); err != nil {
			return nil, fmt.Errorf("parse settings %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read settings %s: %w", path, err)
	}

	if err := s.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// SaveSettings writes the settings as YAML.
func SaveSettings(path string, s *Settings) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks value ranges.
func (s *Settings) Validate() error {
	if s.Camera < 0 {
		return fmt.Errorf("camera must be >= 0, got %d", s.Camera)
	}
	if s.Detector.MaxHands <= 0 {
		return fmt.Errorf("detector.max_hands must be > 0, got %d", s.Detector.MaxHands)
	}
	if s.Detector.MinConfidence < 0 || s.Detector.MinConfidence > 1 {
		return fmt.Errorf("detector.min_confidence must be within [0,1], got %v", s.Detector.MinConfidence)
	}
	if s.Sound.Volume < 0 || s.Sound.Volume > 1 {
		return fmt.Errorf("sound.volume must be within [0,1], got %v", s.Sound.Volume)
	}
	return nil
}

func (s *Settings) applyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(envPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	num := func(name string, dst *int) error {
		if v, ok := lookup(envPrefix + name); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", envPrefix, name, err)
			}
			*dst = n
		}
		return nil
	}
	flag := func(name string, dst *bool) error {
		if v, ok := lookup(envPrefix + name); ok && v != "" {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("%s%s: %w", envPrefix, name, err)
			}
			*dst = b
		}
		return nil
	}

	str("LAYOUT", &s.Layout)
	str("DATABASE", &s.Database)
	str("LISTEN", &s.Listen)
	str("WEB_DIR", &s.WebDir)
	str("LOG_LEVEL", &s.Log.Level)
	str("LOG_FORMAT", &s.Log.Format)

	if err := num("CAMERA", &s.Camera); err != nil {
		return err
	}
	if err := flag("HEADLESS", &s.Headless); err != nil {
		return err
	}
	if err := flag("SAVE_ON_EXIT", &s.SaveOnExit); err != nil {
		return err
	}
	return flag("RELEASE_ON_LOSS", &s.Trigger.ReleaseOnLoss)
}
