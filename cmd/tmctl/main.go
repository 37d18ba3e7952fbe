// tmctl is the operational companion to the temporal memory API: it replays
// recorded column streams through a layer offline and inspects snapshot
// files, without running the HTTP server.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/htm-project/temporal-api/internal/cortical/temporal"
	"github.com/htm-project/temporal-api/internal/domain/htm"
	"github.com/htm-project/temporal-api/internal/infrastructure/config"
	"github.com/htm-project/temporal-api/internal/persistence"
)

type replayOptions struct {
	layerConfig  string
	snapshotIn   string
	snapshotOut  string
	learn        bool
	resetMarkers bool
}

func main() {
	rootCmd := &cobra.Command{
		Use:          "tmctl",
		Short:        "Temporal memory layer tooling",
		Long:         "Replay column streams through an HTM temporal memory layer and inspect layer snapshots.",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newReplayCommand())
	rootCmd.AddCommand(newInspectCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newReplayCommand() *cobra.Command {
	var opts replayOptions

	cmd := &cobra.Command{
		Use:   "replay <stream-file>",
		Short: "Replay a column stream through a layer",
		Long: "Reads one time step per line (comma or space separated column indices; an " +
			"empty line is an empty step, a line of '--' is a sequence reset) and feeds " +
			"it through a temporal memory layer.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd.Flags(), args[0], &opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.layerConfig, "layer-config", "c", "", "Path to YAML layer config (defaults to standard HTM parameters)")
	f.StringVar(&opts.snapshotIn, "from-snapshot", "", "Start from a snapshot file instead of a fresh layer")
	f.StringVarP(&opts.snapshotOut, "snapshot-out", "o", "", "Write the trained layer to a snapshot file")
	f.BoolVar(&opts.learn, "learn", true, "Enable learning during replay")
	f.BoolVar(&opts.resetMarkers, "reset-markers", true, "Treat '--' lines as sequence resets")

	return cmd
}

func runReplay(flags *pflag.FlagSet, streamPath string, opts *replayOptions) error {
	if flags.Changed("from-snapshot") && flags.Changed("layer-config") {
		fmt.Fprintln(os.Stderr, "warning: --layer-config is ignored when starting from a snapshot")
	}

	layer, err := buildLayer(opts)
	if err != nil {
		return err
	}

	file, err := os.Open(streamPath)
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}
	defer file.Close()

	steps := 0
	bursts := 0
	lineNo := 0
	start := time.Now()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		if line == "--" && opts.resetMarkers {
			layer.Reset()
			continue
		}

		columns, err := parseColumns(line)
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}

		predicted := len(layer.PredictiveCells())
		if err := layer.Compute(columns, opts.learn); err != nil {
			return fmt.Errorf("step %d: %w", steps+1, err)
		}

		if predicted == 0 && len(columns) > 0 {
			bursts++
		}
		steps++
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stream: %w", err)
	}

	elapsed := time.Since(start)
	fmt.Printf("replayed %d steps in %s (%d unpredicted steps)\n", steps, elapsed, bursts)
	fmt.Printf("segments: %d, synapses: %d\n",
		layer.Connections().NumSegments(), layer.Connections().NumSynapses())

	if opts.snapshotOut != "" {
		store := persistence.NewStore(true)
		envelope := &persistence.Envelope{Layer: layer.TakeSnapshot()}
		if err := store.Save(opts.snapshotOut, envelope); err != nil {
			return err
		}
		fmt.Printf("snapshot written to %s\n", opts.snapshotOut)
	}

	return nil
}

func buildLayer(opts *replayOptions) (*temporal.TemporalMemory, error) {
	if opts.snapshotIn != "" {
		store := persistence.NewStore(true)
		envelope, err := store.Load(opts.snapshotIn)
		if err != nil {
			return nil, err
		}
		return temporal.FromSnapshot(envelope.Layer)
	}

	layerConfig := htm.DefaultTemporalMemoryConfig()
	if opts.layerConfig != "" {
		loaded, err := config.LoadLayerConfig(opts.layerConfig)
		if err != nil {
			return nil, err
		}
		layerConfig = loaded
	}
	return temporal.New(layerConfig)
}

func newInspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <snapshot-file>",
		Short: "Print metadata of a layer snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := persistence.NewStore(true)
			envelope, err := store.Load(args[0])
			if err != nil {
				return err
			}

			layer := envelope.Layer
			fmt.Printf("instance: %s\n", envelope.InstanceID)
			fmt.Printf("saved at: %s\n", time.Unix(envelope.SavedAt, 0).UTC().Format(time.RFC3339))
			fmt.Printf("columns: %d, cells per column: %d\n",
				layer.Config.NumColumns(), layer.Config.CellsPerColumn)
			fmt.Printf("segments: %d, active cells: %d, winner cells: %d\n",
				len(layer.Connections.Segments), len(layer.ActiveCells), len(layer.WinnerCells))
			fmt.Printf("active segments: %d, matching segments: %d\n",
				len(layer.ActiveSegments), len(layer.MatchingSegments))
			return nil
		},
	}
}

// parseColumns reads a whitespace- or comma-separated list of column indices.
func parseColumns(line string) ([]int, error) {
	if line == "" {
		return nil, nil
	}

	fields := strings.FieldsFunc(line, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})

	columns := make([]int, 0, len(fields))
	for _, field := range fields {
		value, err := strconv.Atoi(field)
		if err != nil {
			return nil, fmt.Errorf("invalid column index %q", field)
		}
		columns = append(columns, value)
	}
	return columns, nil
}
