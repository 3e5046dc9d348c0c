package cli

import (
	"time"

	"github.com/Carmen-Shannon/oxy-facedepth/engine/detector"
	"github.com/spf13/cobra"
)

// RecordOptions holds flags for the record command.
type RecordOptions struct {
	*RootOptions
	Listen   string
	Database string
	Session  string
	Frames   int
	Limit    int64
}

// NewRecordCommand creates the record command.
func NewRecordCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RecordOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record frames pushed by a websocket tracker",
		Long: `Accept a websocket tracker connection and append every frame to a SQLite
recording, for later use with "run --source replay".

Examples:
  facedepth record --db session.db --frames 600
  facedepth record --listen :9000 --session take-2`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecord(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Listen, "listen", "127.0.0.1:8765", "websocket listen address")
	cmd.Flags().StringVar(&opts.Database, "db", "facedepth.db", "recording database")
	cmd.Flags().StringVar(&opts.Session, "session", "", "session id (default random)")
	cmd.Flags().IntVarP(&opts.Frames, "frames", "n", 300, "frames to record (0 = until interrupted)")
	cmd.Flags().Int64Var(&opts.Limit, "read-limit", 16<<20, "maximum websocket message size in bytes")
	return cmd
}

func runRecord(opts *RecordOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	logger := opts.logger(cmd.ErrOrStderr())

	recOpts := []detector.DetectorBuilderOption{detector.WithLogger(logger)}
	if opts.Session != "" {
		recOpts = append(recOpts, detector.WithSession(opts.Session))
	}
	rec, err := detector.OpenRecorder(opts.Database, recOpts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open recording", err)
	}
	defer rec.Close()

	ws := detector.NewWebSocket(detector.WithLogger(logger), detector.WithReadLimit(opts.Limit))
	stop, addr, err := serve(opts.Listen, ws)
	if err != nil {
		_ = ws.Close()
		return WrapExitError(ExitCommandError, "failed to listen", err)
	}
	defer stop()
	defer ws.Close()

	det := detector.Recording(ws, rec)
	logger.Info("waiting for tracker", "url", "ws://"+addr, "session", rec.SessionID())
	if _, err := det.Init(ctx, detector.Config{}).Wait(ctx); err != nil {
		return WrapExitError(ExitCommandError, "tracker never connected", err)
	}

	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()
	polled := 0
loop:
	for opts.Frames == 0 || rec.Frames() < opts.Frames {
		select {
		case <-ctx.Done():
			break loop
		case <-ticker.C:
			if _, ok := det.Poll(); ok {
				polled++
			}
		}
	}
	return writeSummary(cmd.OutOrStdout(), opts.Format, Summary{
		Command: "record",
		Source:  SourceWebSocket,
		Session: rec.SessionID(),
		Frames:  rec.Frames(),
		Polled:  polled,
	})
}
