package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JamesPrial/kencana-farm/internal/config"
	"github.com/JamesPrial/kencana-farm/internal/farm"
	"github.com/JamesPrial/kencana-farm/internal/logging"
)

// skipFarm marks commands that run without opening storage.
const skipFarm = "skip-farm"

// opener opens the farm for a command.
type opener func(ctx context.Context, envFile string) (*farm.Farm, *zap.Logger, error)

type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	open    opener
	envFile string
	asJSON  bool

	farm   *farm.Farm
	logger *zap.Logger
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *app {
	return &app{stdin: stdin, stdout: stdout, stderr: stderr, open: openFarm}
}

// openFarm loads configuration from the environment and envFile and opens
// the configured storage.
func openFarm(ctx context.Context, envFile string) (*farm.Farm, *zap.Logger, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	f, err := farm.Open(ctx, cfg, logger, nil)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, err
	}
	return f, logger, nil
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "kencana",
		Short:         "Track crops, reminders and harvest forecasts",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[skipFarm] != "" {
				return nil
			}
			f, logger, err := a.open(cmd.Context(), a.envFile)
			if err != nil {
				return err
			}
			a.farm = f
			a.logger = logging.OrNop(logger)
			return nil
		},
	}
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file read before the environment")
	root.PersistentFlags().BoolVar(&a.asJSON, "json", false, "print JSON instead of tables")

	root.AddCommand(
		newCropCmd(a),
		newTaskCmd(a),
		newHarvestCmd(a),
		newExportCmd(a),
		newImportCmd(a),
		newWatchCmd(a),
	)
	return root
}

// close releases the farm opened for the command, if any.
func (a *app) close() error {
	if a.farm == nil {
		return nil
	}
	err := a.farm.Close()
	a.farm = nil
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	return err
}

// printJSON writes v as indented JSON.
func (a *app) printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = fmt.Fprintln(a.stdout, string(data))
	return err
}

// print writes v as JSON when --json is set, or the rendered table.
func (a *app) print(v any, table string) error {
	if a.asJSON {
		return a.printJSON(v)
	}
	_, err := fmt.Fprintln(a.stdout, table)
	return err
}
