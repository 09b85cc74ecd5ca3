package main

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ayusman/tecla/internal/app"
	"github.com/ayusman/tecla/internal/capture"
	"github.com/ayusman/tecla/internal/config"
	"github.com/ayusman/tecla/internal/detector"
	"github.com/ayusman/tecla/internal/display"
	"github.com/ayusman/tecla/internal/editor"
	"github.com/ayusman/tecla/internal/logging"
	"github.com/ayusman/tecla/internal/metrics"
	"github.com/ayusman/tecla/internal/piano"
	"github.com/ayusman/tecla/internal/server"
	"github.com/ayusman/tecla/internal/sound"
	"github.com/ayusman/tecla/internal/store"
	"github.com/ayusman/tecla/internal/trigger"
	"github.com/ayusman/tecla/internal/tray"
)

// CLI flags
var (
	settingsFlag string
	layoutFlag   string
	cameraFlag   int
	headlessFlag bool
	listenFlag   string
	logLevelFlag string
)

var rootCmd = &cobra.Command{
	Use:   "tecla",
	Short: "Invisible piano played with your fingertips in front of a webcam",
	Long: `Tecla watches the webcam, tracks your index fingertips and plays a note
whenever a fingertip enters one of the rectangular keys drawn over the image.

Press c in the window to open the key editor and q to quit. With --listen the
live view, key editor API and note history are served over HTTP.

Examples:
  tecla
  tecla run --camera 1 --layout my_piano.json
  tecla run --headless --listen 127.0.0.1:8080
  tecla init-layout piano_config.json`,
	SilenceUsage: true,
	RunE:         runPiano,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the piano (default command)",
	RunE:  runPiano,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&settingsFlag, "settings", config.DefaultSettingsFile, "Runtime settings file (YAML)")
	rootCmd.PersistentFlags().StringVar(&layoutFlag, "layout", "", "Piano layout file (default from settings, "+config.DefaultLayoutFile+")")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn, error")

	for _, c := range []*cobra.Command{rootCmd, runCmd} {
		c.Flags().IntVar(&cameraFlag, "camera", 0, "Camera device index")
		c.Flags().BoolVar(&headlessFlag, "headless", false, "Run without a window, controlled from the system tray")
		c.Flags().StringVar(&listenFlag, "listen", "", "HTTP listen address, empty to disable")
	}

	rootCmd.AddCommand(runCmd, initLayoutCmd, initSettingsCmd, keysCmd, historyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadSettings reads the settings file and applies any flags set on cmd.
func loadSettings(cmd *cobra.Command) (*config.Settings, error) {
	s, err := config.LoadSettings(settingsFlag)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("layout") {
		s.Layout = layoutFlag
	}
	if flags.Changed("log-level") {
		s.Log.Level = logLevelFlag
	}
	if flags.Changed("camera") {
		s.Camera = cameraFlag
	}
	if flags.Changed("headless") {
		s.Headless = headlessFlag
	}
	if flags.Changed("listen") {
		s.Listen = listenFlag
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	logging.Init(s.Log.Level, s.Log.Format)
	return s, nil
}

// runPiano wires every component and runs the capture loop until the user
// quits, the camera stream ends or the process is signalled.
func runPiano(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	board := piano.NewBoard(config.Load(settings.Layout))
	sess := editor.NewSession()

	player := sound.NewPlayer(settings.Sound.Volume)
	player.OnError(func(ref string, err error) {
		m.SoundErrors.Inc()
		log.Warn().Err(err).Str("sound", ref).Msg("Failed to play sound")
	})
	player.Preload(soundRefs(board))
	defer player.Close()

	cfg := app.Config{
		Board:           board,
		Camera:          capture.NewCamera(settings.Camera, capture.DefaultWidth, capture.DefaultHeight),
		Detector:        newDetector(settings),
		Emitter:         player,
		Editor:          sess,
		Frames:          server.NewFrameBuffer(),
		Hub:             server.NewHub(),
		Metrics:         m,
		IdleGate:        settings.Capture.IdleGate,
		MotionThreshold: settings.Capture.MotionThreshold,
		LayoutPath:      settings.Layout,
		SaveOnExit:      settings.SaveOnExit,
	}
	if settings.Trigger.ReleaseOnLoss {
		cfg.Policy = trigger.ReleaseOnLoss
	}

	var st *store.Store
	if settings.Database != "" {
		st, err = store.New(settings.Database)
		if err != nil {
			log.Warn().Err(err).Str("path", settings.Database).Msg("History disabled")
		} else {
			defer st.Close()

			session, err := st.Sessions().Start(settings.Layout)
			if err != nil {
				return err
			}
			recorder := store.NewRecorder(st.Notes(), session.ID, store.DefaultRecorderBuffer)
			defer func() {
				recorder.Close()
				if err := st.Sessions().End(session.ID); err != nil {
					log.Warn().Err(err).Msg("Failed to end history session")
				}
				log.Info().
					Str("session", session.ID).
					Int64("notes", recorder.Written()).
					Int64("dropped", recorder.Dropped()).
					Msg("History session closed")
			}()
			cfg.Recorder = recorder
		}
	}

	srvDone := make(chan struct{})
	if settings.Listen == "" {
		close(srvDone)
	} else {
		srv := server.New(server.Config{
			StaticDir:  webDir(settings.WebDir),
			LayoutPath: settings.Layout,
			Board:      board,
			Editor:     sess,
			Store:      st,
			Frames:     cfg.Frames,
			Hub:        cfg.Hub,
			Metrics:    m,
			Volume:     player,
		})
		go func() {
			defer close(srvDone)
			if err := srv.Run(ctx, settings.Listen); err != nil {
				log.Error().Err(err).Str("addr", settings.Listen).Msg("HTTP server failed")
			}
		}()
	}

	if settings.Headless {
		err = runHeadless(ctx, cfg, settings.Listen)
	} else {
		window := display.NewWindow(display.WindowTitle)
		defer window.Close()
		cfg.Surface = window

		err = app.New(cfg).Run(ctx)
	}

	// Stop the HTTP server before the store and recorder close.
	stop()
	<-srvDone
	return err
}

// runHeadless drives the piano from the system tray. The tray owns the main
// goroutine; the loop runs beside it and quits the tray when it ends.
func runHeadless(ctx context.Context, cfg app.Config, listen string) error {
	surface := display.NewHeadless()
	cfg.Surface = surface

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a := app.New(cfg)
	t := tray.New()
	t.OnToggle(a.SetEnabled)
	t.OnEditor(func() { t.SetEditorOpen(a.Editor().Toggle()) })
	t.OnQuit(func() { surface.Push(display.CommandQuit) })
	if listen != "" {
		t.OnWeb(func() { openBrowser("http://" + listen) })
	}
	a.OnNote(func(ev trigger.Event) { t.SetLastNote(ev.Key) })

	go watchEditor(ctx, a.Editor(), t.SetEditorOpen)

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.Run(ctx)
		t.Quit()
	}()

	t.Run()
	cancel()
	return <-errCh
}

// watchEditor reports editor open/close transitions until ctx ends.
func watchEditor(ctx context.Context, sess *editor.Session, fn func(open bool)) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	open := false
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if now := sess.IsOpen(); now != open {
				open = now
				fn(open)
			}
		}
	}
}

func newDetector(s *config.Settings) detector.Detector {
	cfg := detector.DefaultConfig()
	cfg.MaxHands = s.Detector.MaxHands
	cfg.MinConfidence = s.Detector.MinConfidence

	d, err := detector.NewMediaPipeDetector(cfg)
	if err != nil {
		log.Warn().Err(err).Msg("Hand detection unavailable, keys will not trigger")
		return detector.NewMockDetector()
	}
	return d
}

func soundRefs(board *piano.Board) []string {
	keys := board.Keys().List()
	refs := make([]string, 0, len(keys))
	for _, k := range keys {
		refs = append(refs, k.Sound)
	}
	return refs
}

// webDir returns dir when set, otherwise the first "web" directory found
// next to the working directory or in ~/.tecla.
func webDir(dir string) string {
	if dir != "" {
		return dir
	}

	candidates := []string{"web", "../web", "../../web"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".tecla", "web"))
	}
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}

func openBrowser(url string) {
	if strings.HasPrefix(url, "http://:") {
		url = "http://127.0.0.1" + strings.TrimPrefix(url, "http://")
	}

	var c *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		c = exec.Command("open", url)
	case "windows":
		c = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		c = exec.Command("xdg-open", url)
	}
	if err := c.Start(); err != nil {
		log.Warn().Err(err).Str("url", url).Msg("Failed to open browser")
		return
	}
	go func() {
		if err := c.Wait(); err != nil && !errors.Is(err, exec.ErrNotFound) {
			log.Debug().Err(err).Msg("Browser launcher exited")
		}
	}()
}
