package commands

import (
	"github.com/spf13/cobra"

	"github.com/ayusman/soundwave/internal/config"
	"github.com/ayusman/soundwave/internal/log"
)

var (
	// Global flags
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "soundwave",
	Short: "Control audio volume with hand gestures",
	Long: `soundwave - Control audio volume with hand gestures seen by a webcam.

Two control modes are available:
  continuous  rotate the thumb/index pair; the angle sets the rate of change
  discrete    point the index finger left or right to step the volume

Configuration is read from the OS config directory:
  macOS:   ~/Library/Application Support/soundwave/config.yaml
  Linux:   ~/.config/soundwave/config.yaml

Examples:
  # Run the controller with the tray menu and web UI
  soundwave serve

  # Record a session, then inspect it offline
  soundwave serve --record session.swr
  soundwave replay session.swr`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default is the OS config directory)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
}

// loadConfig reads the configuration and initializes logging. The
// --log-level flag wins over the file and environment.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	log.Init(cfg.LogLevel)
	return cfg, nil
}
