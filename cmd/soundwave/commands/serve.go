package commands

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ayusman/soundwave/internal/app"
	"github.com/ayusman/soundwave/internal/audio"
	"github.com/ayusman/soundwave/internal/capture"
	"github.com/ayusman/soundwave/internal/config"
	"github.com/ayusman/soundwave/internal/detector"
	"github.com/ayusman/soundwave/internal/gesture"
	"github.com/ayusman/soundwave/internal/log"
	"github.com/ayusman/soundwave/internal/plugin"
	"github.com/ayusman/soundwave/internal/recording"
	"github.com/ayusman/soundwave/internal/server"
	"github.com/ayusman/soundwave/internal/store"
	"github.com/ayusman/soundwave/internal/tray"
)

const (
	sinkPlugin      = "system-control"
	pluginTimeout   = 5 * time.Second
	shutdownTimeout = 5 * time.Second
)

var (
	serveAddr   string
	serveRecord string
	serveSink   string
	serveTray   bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the camera pipeline, HTTP API and tray menu",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("addr") {
			cfg.Addr = serveAddr
		}
		if cmd.Flags().Changed("record") {
			cfg.RecordPath = serveRecord
		}
		if cmd.Flags().Changed("sink") {
			cfg.Sink = serveSink
		}
		if cmd.Flags().Changed("tray") {
			cfg.Tray = serveTray
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		return serve(cfg)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "HTTP listen address")
	serveCmd.Flags().StringVar(&serveRecord, "record", "", "append every tick to this recording file")
	serveCmd.Flags().StringVar(&serveSink, "sink", "", "audio sink: plugin or memory")
	serveCmd.Flags().BoolVar(&serveTray, "tray", false, "show the system tray menu")
	rootCmd.AddCommand(serveCmd)
}

func serve(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	log.Info("store opened", "path", st.Path())

	sink, flush := openSink(ctx, cfg)
	det := openDetector()

	var rec *recording.Writer
	if cfg.RecordPath != "" {
		rec, err = recording.Create(cfg.RecordPath, string(cfg.Engine.Mode))
		if err != nil {
			return err
		}
		log.Info("recording ticks", "path", cfg.RecordPath)
	}

	preview := capture.NewLatestFrame()
	a, err := app.New(app.Options{
		Camera:          capture.NewCamera(cfg.CameraID),
		Detector:        det,
		Sink:            sink,
		Store:           st,
		Engine:          cfg.Engine,
		MotionThreshold: cfg.MotionThreshold,
		Recorder:        rec,
		Preview:         preview,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn("close app failed", "error", err)
		}
	}()

	if err := a.LoadSettings(); err != nil {
		log.Warn("load settings failed", "error", err)
	}
	if err := a.Start(); err != nil {
		return fmt.Errorf("start pipeline: %w", err)
	}

	staticDir := findWebDir(cfg.StaticDir)
	if staticDir != "" {
		log.Info("serving static files", "dir", staticDir)
	}
	srv := server.New(server.Config{
		StaticDir: staticDir,
		Control:   a,
		Store:     st,
		Preview:   preview,
	})

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe(cfg.Addr) }()

	if cfg.Tray {
		runTray(ctx, stop, a, cfg.Addr)
	}

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown failed", "error", err)
	}
	a.Stop()
	if err := flush(shutdownCtx); err != nil {
		log.Warn("final volume write failed", "error", err)
	}
	return nil
}

// openSink returns the configured audio sink and a function that writes any
// queued volume. The system-control plugin is preferred; any other plugin
// that can set the volume will do. Without one the in-memory sink is used.
func openSink(ctx context.Context, cfg config.Config) (audio.Sink, func(context.Context) error) {
	noFlush := func(context.Context) error { return nil }
	if cfg.Sink == "memory" {
		return audio.NewMemorySink(), noFlush
	}

	mgr := plugin.NewManager(cfg.PluginDir)
	if err := mgr.Discover(); err != nil {
		log.Warn("plugin discovery failed, using memory sink", "dir", cfg.PluginDir, "error", err)
		return audio.NewMemorySink(), noFlush
	}
	plug, err := mgr.Resolve(sinkPlugin, audio.ActionSetVolume)
	if err != nil {
		log.Warn("no volume plugin found, using memory sink", "dir", mgr.Dir(), "error", err)
		return audio.NewMemorySink(), noFlush
	}

	ps, err := audio.NewPluginSink(plugin.NewExecutor(pluginTimeout), plug, audio.DefaultWriteInterval)
	if err != nil {
		log.Warn("plugin sink unavailable, using memory sink", "plugin", plug.Manifest.Name, "error", err)
		return audio.NewMemorySink(), noFlush
	}
	go ps.Run(ctx)

	log.Info("audio sink ready", "plugin", plug.Manifest.Name, "version", plug.Manifest.Version)
	return ps, ps.Flush
}

// openDetector starts the MediaPipe bridge, falling back to a detector that
// never sees a hand so the rest of the app stays usable.
func openDetector() detector.Detector {
	d, err := detector.NewMediaPipeDetector(detector.DefaultConfig())
	if err != nil {
		log.Warn("hand detection unavailable", "error", err)
		return detector.NewMockDetector()
	}
	return d
}

// runTray blocks in the tray event loop until the user quits or ctx ends.
func runTray(ctx context.Context, stop context.CancelFunc, a *app.App, addr string) {
	t := tray.New(a.IsEnabled(), a.EngineConfig().Mode)
	t.OnToggle(a.SetEnabled)
	t.OnMode(func(mode gesture.Mode) {
		cfg := a.EngineConfig()
		cfg.Mode = mode
		if err := a.Configure(cfg); err != nil {
			log.Warn("switch mode failed", "mode", mode, "error", err)
		}
	})
	t.OnSettings(func() { openBrowser(settingsURL(addr)) })
	t.OnQuit(stop)

	results, cancel := a.Subscribe()
	defer cancel()
	go t.Watch(results)
	t.Update(a.Status().Result)

	go func() {
		<-ctx.Done()
		t.Quit()
	}()
	t.Run()
}

func settingsURL(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		addr = "localhost" + addr
	}
	return "http://" + addr + "/"
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.Warn("open browser failed", "url", url, "error", err)
		return
	}
	go cmd.Wait()
}

// findWebDir returns dir when set, otherwise the first existing web
// directory among ./web, ../web, ../../web and ~/.soundwave/web.
func findWebDir(dir string) string {
	if dir != "" {
		return dir
	}

	candidates := []string{"web", "../web", "../../web", filepath.Join(config.DataDir(), "web")}
	for _, p := range candidates {
		info, err := os.Stat(p)
		if err != nil || !info.IsDir() {
			continue
		}
		if abs, err := filepath.Abs(p); err == nil {
			return abs
		}
		return p
	}
	return ""
}
