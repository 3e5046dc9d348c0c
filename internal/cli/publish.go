package cli

import (
	"time"

	"github.com/Carmen-Shannon/oxy-facedepth/engine/detector"
	"github.com/spf13/cobra"
)

// PublishOptions holds flags for the publish command.
type PublishOptions struct {
	*RootOptions
	URL        string
	Frames     int
	FPS        float64
	Resolution int
	Pattern    string
	Timeout    time.Duration
}

// NewPublishCommand creates the publish command.
func NewPublishCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PublishOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Push synthetic tracker frames to a websocket endpoint",
		Long: `Act as a remote face tracker: generate synthetic frames and push them to a
facedepth websocket endpoint ("run --source ws" or "record").

Examples:
  facedepth publish --url ws://127.0.0.1:8765 --frames 600
  facedepth publish --pattern 0001111 --fps 30`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPublish(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.URL, "url", "ws://127.0.0.1:8765", "websocket endpoint")
	cmd.Flags().IntVarP(&opts.Frames, "frames", "n", 300, "frames to send")
	cmd.Flags().Float64Var(&opts.FPS, "fps", 30, "frames per second")
	cmd.Flags().IntVar(&opts.Resolution, "resolution", 64, "depth buffer resolution")
	cmd.Flags().StringVar(&opts.Pattern, "pattern", "1", "detection pattern, one 0/1 per frame, repeated")
	cmd.Flags().DurationVar(&opts.Timeout, "write-timeout", 5*time.Second, "deadline for each frame write")
	return cmd
}

func runPublish(opts *PublishOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	logger := opts.logger(cmd.ErrOrStderr())

	pattern, err := parsePattern(opts.Pattern)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --pattern", err)
	}
	if opts.Resolution <= 0 {
		return WrapExitError(ExitCommandError, "invalid --resolution", nil)
	}
	fps := opts.FPS
	if fps <= 0 {
		fps = 30
	}

	pub, err := detector.DialPublisher(ctx, opts.URL, detector.WithLogger(logger), detector.WithWriteTimeout(opts.Timeout))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to connect", err)
	}
	defer pub.Close()

	ticker := time.NewTicker(time.Duration(float64(time.Second) / fps))
	defer ticker.Stop()

	sent, detected := 0, 0
loop:
	for sent < opts.Frames {
		select {
		case <-ctx.Done():
			break loop
		case <-ticker.C:
		}
		f := detector.SyntheticFrame(sent, opts.Resolution, pattern, [3]float32{0.2, 0.35, 0.1}, 120)
		if err := pub.Publish(f); err != nil {
			return WrapExitError(ExitFailure, "publish failed", err)
		}
		sent++
		if f.Detected {
			detected++
		}
	}
	return writeSummary(cmd.OutOrStdout(), opts.Format, Summary{Command: "publish", Frames: sent, Detected: detected})
}
