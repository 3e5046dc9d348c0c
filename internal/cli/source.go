package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/Carmen-Shannon/oxy-facedepth/engine/detector"
	"github.com/spf13/cobra"
)

// Detector sources selectable with --source.
const (
	SourceSynthetic = "synthetic"
	SourceWebSocket = "ws"
	SourceReplay    = "replay"
)

// SourceOptions holds the flags selecting and configuring the face tracker.
type SourceOptions struct {
	Source     string
	Listen     string
	Database   string
	Session    string
	Resolution int
	Pattern    string
	Loop       bool
	ReadLimit  int64
}

func addSourceFlags(cmd *cobra.Command, o *SourceOptions) {
	cmd.Flags().StringVar(&o.Source, "source", SourceSynthetic, "tracker source (synthetic|ws|replay)")
	cmd.Flags().StringVar(&o.Listen, "listen", "127.0.0.1:8765", "websocket listen address for --source ws")
	cmd.Flags().StringVar(&o.Database, "db", "facedepth.db", "recording database for --source replay")
	cmd.Flags().StringVar(&o.Session, "session", "", "recorded session to replay (default latest)")
	cmd.Flags().IntVar(&o.Resolution, "resolution", 64, "synthetic depth buffer resolution")
	cmd.Flags().StringVar(&o.Pattern, "pattern", "1", "synthetic detection pattern, one 0/1 per frame, repeated")
	cmd.Flags().BoolVar(&o.Loop, "loop", false, "restart the replay when it ends")
	cmd.Flags().Int64Var(&o.ReadLimit, "read-limit", 16<<20, "maximum websocket message size in bytes for --source ws")
}

// parsePattern turns a string such as "0011" into cyclic detection flags.
func parsePattern(s string) ([]bool, error) {
	if s == "" {
		return nil, fmt.Errorf("detection pattern is empty")
	}
	out := make([]bool, 0, len(s))
	for i, c := range s {
		switch c {
		case '0':
			out = append(out, false)
		case '1':
			out = append(out, true)
		default:
			return nil, fmt.Errorf("detection pattern %q: invalid character %q at %d", s, c, i)
		}
	}
	return out, nil
}

// open creates the selected detector. The returned stop function releases what the detector does not
// own itself, such as the websocket listener, and must run after the detector is closed.
func (o *SourceOptions) open(logger *slog.Logger) (detector.Detector, func(), error) {
	switch o.Source {
	case SourceSynthetic:
		pattern, err := parsePattern(o.Pattern)
		if err != nil {
			return nil, nil, WrapExitError(ExitCommandError, "invalid --pattern", err)
		}
		det := detector.NewSynthetic(
			detector.WithLogger(logger),
			detector.WithResolution(o.Resolution),
			detector.WithDetectionPattern(pattern...),
		)
		return det, func() {}, nil

	case SourceWebSocket:
		det := detector.NewWebSocket(detector.WithLogger(logger), detector.WithReadLimit(o.ReadLimit))
		stop, addr, err := serve(o.Listen, det)
		if err != nil {
			return nil, nil, WrapExitError(ExitCommandError, "failed to listen", err)
		}
		logger.Info("waiting for tracker", "url", "ws://"+addr)
		return det, stop, nil

	case SourceReplay:
		opts := []detector.DetectorBuilderOption{detector.WithLogger(logger)}
		if o.Session != "" {
			opts = append(opts, detector.WithSession(o.Session))
		}
		if o.Loop {
			opts = append(opts, detector.WithLoop())
		}
		det, err := detector.OpenReplay(o.Database, opts...)
		if err != nil {
			return nil, nil, WrapExitError(ExitCommandError, "failed to open recording", err)
		}
		return det, func() {}, nil
	}
	return nil, nil, WrapExitError(ExitCommandError, fmt.Sprintf("unknown source %q", o.Source), nil)
}

// serve mounts h on a new HTTP server listening on addr.
func serve(addr string, h http.Handler) (func(), string, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, "", err
	}
	srv := &http.Server{Handler: h, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Default().Error("websocket server stopped", "error", err)
		}
	}()
	stop := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
	return stop, ln.Addr().String(), nil
}
