package cli

import (
	"context"
	"io"
	"log/slog"

	"github.com/Carmen-Shannon/oxy-facedepth/engine"
	"github.com/Carmen-Shannon/oxy-facedepth/engine/detector"
	"github.com/Carmen-Shannon/oxy-facedepth/engine/face"
	"github.com/Carmen-Shannon/oxy-facedepth/engine/preview"
	"github.com/Carmen-Shannon/oxy-facedepth/engine/renderer"
	"github.com/Carmen-Shannon/oxy-facedepth/engine/scene"
	"github.com/Carmen-Shannon/oxy-facedepth/internal/robot"
)

// session wires a tracker, the robot avatar and a face depth helper into a scene.
type session struct {
	source string
	logger *slog.Logger
	stop   func()

	avatar *robot.Avatar
	scene  scene.Scene
	helper *face.Helper

	detected int
}

// newSession opens the tracker, initializes the helper and inserts the face into the robot.
// A nil renderer gives a headless scene; canvas may be nil.
func newSession(ctx context.Context, root *RootOptions, src *SourceOptions, logOut io.Writer, r renderer.Renderer, canvas preview.Canvas, sceneOpts ...scene.SceneBuilderOption) (*session, error) {
	cfg, err := root.config()
	if err != nil {
		return nil, err
	}
	logger := root.logger(logOut)

	det, stop, err := src.open(logger)
	if err != nil {
		return nil, err
	}

	s := &session{source: src.Source, logger: logger, stop: stop, avatar: robot.New()}
	cfg.Avatar = s.avatar.Root
	s.scene = scene.NewScene("facedepth", r, append([]scene.SceneBuilderOption{scene.WithNodes(s.avatar.Root)}, sceneOpts...)...)

	opts := []face.HelperBuilderOption{face.WithLogger(logger), face.WithScene(s.scene)}
	if canvas != nil {
		opts = append(opts, face.WithCanvas(canvas))
	}
	s.helper, err = face.NewHelper(cfg, det, opts...)
	if err != nil {
		_ = det.Close()
		stop()
		return nil, WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	if err := s.helper.Initialize(ctx); err != nil {
		s.Close()
		return nil, WrapExitError(ExitCommandError, "face depth failed to start", err)
	}
	if err := s.helper.InsertFace(); err != nil {
		logger.Warn("running without face insertion", "error", err)
	}
	return s, nil
}

// engine builds the frame loop over the session. The robot idle animation runs as the body animation.
func (s *session) engine(frames int, fps float64, extra ...engine.EngineBuilderOption) engine.Engine {
	opts := []engine.EngineBuilderOption{
		engine.WithLogger(s.logger),
		engine.WithFrameRate(fps),
		engine.WithMaxFrames(frames),
		engine.WithScene(s.scene),
		engine.WithAnimation(s.avatar.Animate),
		engine.WithFrameObserver(func(f detector.Frame) {
			if f.Detected {
				s.detected++
			}
		}),
	}
	return engine.NewEngine(s.helper, append(opts, extra...)...)
}

func (s *session) summary(command string, e engine.Engine) Summary {
	sum := Summary{
		Command:  command,
		Source:   s.source,
		Frames:   e.Frames(),
		Polled:   e.Polled(),
		Detected: s.detected,
		State:    s.helper.State().String(),
		Inserted: s.helper.Inserted(),
		Skinned:  s.helper.Mesh().Skinned(),
	}
	if replay, ok := s.helper.Detector().(*detector.Replay); ok {
		sum.Session = replay.SessionID()
	}
	if err := s.helper.Failed(); err != nil {
		sum.Error = err.Error()
	}
	return sum
}

func (s *session) Close() {
	if err := s.helper.Close(); err != nil {
		s.logger.Warn("detector close failed", "error", err)
	}
	s.stop()
}
