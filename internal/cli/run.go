package cli

import (
	"github.com/spf13/cobra"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	SourceOptions
	Frames  int
	FPS     float64
	Profile bool
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a headless face depth session",
		Long: `Run the face depth pipeline on the procedural robot without a window.

Frames come from the synthetic tracker, a websocket tracker or a recorded
session. The command stops after --frames frames (0 runs until interrupted)
and prints a summary.

Exit codes:
  0 - The session ran
  1 - The face surface failed during the session
  2 - Command error (bad config, tracker failed to start, etc.)

Examples:
  facedepth run --frames 300
  facedepth run --source ws --listen :8765
  facedepth run --source replay --db session.db --loop --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(opts, cmd)
		},
	}

	addSourceFlags(cmd, &opts.SourceOptions)
	cmd.Flags().IntVarP(&opts.Frames, "frames", "n", 300, "frames to run (0 = until interrupted)")
	cmd.Flags().Float64Var(&opts.FPS, "fps", 60, "target frame rate")
	cmd.Flags().BoolVar(&opts.Profile, "profile", false, "log frame statistics every second")
	return cmd
}

func runRun(opts *RunOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()

	s, err := newSession(ctx, opts.RootOptions, &opts.SourceOptions, cmd.ErrOrStderr(), nil, nil)
	if err != nil {
		return err
	}
	defer s.Close()

	e := s.engine(opts.Frames, opts.FPS)
	if opts.Profile {
		e.EnableProfiler()
	}
	if err := e.Run(ctx); err != nil {
		return WrapExitError(ExitFailure, "session stopped", err)
	}

	sum := s.summary("run", e)
	if err := writeSummary(cmd.OutOrStdout(), opts.Format, sum); err != nil {
		return err
	}
	if failed := s.helper.Failed(); failed != nil {
		return WrapExitError(ExitFailure, "face surface failed", failed)
	}
	return nil
}
