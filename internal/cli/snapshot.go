package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-facedepth/engine/preview"
	"github.com/spf13/cobra"
)

// SnapshotOptions holds flags for the snapshot command.
type SnapshotOptions struct {
	*RootOptions
	SourceOptions
	Output string
	Frames int
	Size   int
}

// NewSnapshotCommand creates the snapshot command.
func NewSnapshotCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SnapshotOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Write the camera preview after a number of frames",
		Long: `Run a headless session with a preview canvas and write the canvas to a WebP
or PNG file, chosen by the output extension. The preview collapses while a
face is tracked, so a snapshot taken during tracking shows only the background.

Examples:
  facedepth snapshot --pattern 0 --out preview.webp
  facedepth snapshot --source replay --db session.db --frames 10 --out frame.png`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshot(opts, cmd)
		},
	}

	addSourceFlags(cmd, &opts.SourceOptions)
	cmd.Flags().StringVarP(&opts.Output, "out", "o", "preview.webp", "output file (.webp or .png)")
	cmd.Flags().IntVarP(&opts.Frames, "frames", "n", 1, "frames to run before the snapshot")
	cmd.Flags().IntVar(&opts.Size, "size", 256, "canvas width and height in pixels")
	return cmd
}

func runSnapshot(opts *SnapshotOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()

	ext := strings.ToLower(filepath.Ext(opts.Output))
	if ext != ".webp" && ext != ".png" {
		return WrapExitError(ExitCommandError, fmt.Sprintf("unsupported output extension %q", ext), nil)
	}
	if opts.Size <= 0 || opts.Frames <= 0 {
		return WrapExitError(ExitCommandError, "--size and --frames must be positive", nil)
	}

	canvas := preview.NewCanvas(opts.Size, opts.Size)
	defer canvas.Close()

	s, err := newSession(ctx, opts.RootOptions, &opts.SourceOptions, cmd.ErrOrStderr(), nil, canvas)
	if err != nil {
		return err
	}
	defer s.Close()

	e := s.engine(opts.Frames, 1000)
	if err := e.Run(ctx); err != nil {
		return WrapExitError(ExitFailure, "session stopped", err)
	}

	f, err := os.Create(opts.Output)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create output", err)
	}
	if ext == ".png" {
		err = canvas.EncodePNG(f)
	} else {
		err = canvas.EncodeWebP(f)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return WrapExitError(ExitFailure, "failed to encode preview", err)
	}

	sum := s.summary("snapshot", e)
	sum.Output = opts.Output
	return writeSummary(cmd.OutOrStdout(), opts.Format, sum)
}
