package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ayusman/soundwave/internal/gesture"
	"github.com/ayusman/soundwave/internal/recording"
)

var (
	replayMode    string
	replayJSON    bool
	replayChanged bool
)

var replayCmd = &cobra.Command{
	Use:   "replay <file>",
	Short: "Feed a recorded session through a fresh control engine",
	Long: `Replay reads a tick recording written by 'soundwave serve --record' and
prints the volume trace a fresh engine produces for it.

The engine uses the configured parameters. The mode defaults to the one
stored in the recording and can be overridden with --mode.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		r, err := recording.Open(args[0])
		if err != nil {
			return err
		}
		defer r.Close()

		engineCfg := cfg.Engine
		mode := replayMode
		if mode == "" {
			mode = r.Header().Mode
		}
		if mode != "" {
			m, err := gesture.ParseMode(mode)
			if err != nil {
				return err
			}
			engineCfg.Mode = m
		}

		engine, err := gesture.New(engineCfg)
		if err != nil {
			return err
		}

		results, err := recording.Replay(r, engine)
		printTrace(cmd.OutOrStdout(), results)
		if err != nil {
			return fmt.Errorf("replay stopped after %d ticks: %w", len(results), err)
		}
		return nil
	},
}

func init() {
	replayCmd.Flags().StringVar(&replayMode, "mode", "", "override the control mode (continuous or discrete)")
	replayCmd.Flags().BoolVar(&replayJSON, "json", false, "print one JSON result per line")
	replayCmd.Flags().BoolVar(&replayChanged, "changed", false, "only print ticks that changed the volume")
	rootCmd.AddCommand(replayCmd)
}

func printTrace(w io.Writer, results []gesture.Result) {
	if len(results) == 0 {
		fmt.Fprintln(w, "no ticks")
		return
	}

	start := results[0].At
	enc := json.NewEncoder(w)
	for _, r := range results {
		if replayChanged && !r.Changed {
			continue
		}
		if replayJSON {
			enc.Encode(r)
			continue
		}
		fmt.Fprintf(w, "%8dms  %-16s %-6s vol=%6.2f  delta=%+.2f\n",
			r.At.Sub(start).Milliseconds(), r.Status, r.Direction, r.Volume, r.Delta)
	}

	last := results[len(results)-1]
	fmt.Fprintf(w, "%d ticks, final volume %.2f\n", len(results), last.Volume)
}
