package cli

import (
	"github.com/Carmen-Shannon/oxy-facedepth/engine"
	"github.com/Carmen-Shannon/oxy-facedepth/engine/renderer"
	"github.com/Carmen-Shannon/oxy-facedepth/engine/scene"
	"github.com/Carmen-Shannon/oxy-facedepth/engine/window"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/spf13/cobra"
)

// ViewOptions holds flags for the view command.
type ViewOptions struct {
	*RootOptions
	SourceOptions
	Width    int
	Height   int
	FPS      float64
	Software bool
	VSync    bool
	MSAA     bool
	Profile  bool
}

// NewViewCommand creates the view command.
func NewViewCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ViewOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "view",
		Short: "Show the robot with the tracked face in a window",
		Long: `Open a window and render the procedural robot with the face depth surface.
Detector polling pauses while the window is unfocused unless
keep_running_on_focus_lost is set.

Examples:
  facedepth view
  facedepth view --source ws --config facedepth.yaml`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runView(opts, cmd)
		},
	}

	addSourceFlags(cmd, &opts.SourceOptions)
	cmd.Flags().IntVar(&opts.Width, "width", 960, "window width")
	cmd.Flags().IntVar(&opts.Height, "height", 960, "window height")
	cmd.Flags().Float64Var(&opts.FPS, "fps", 60, "target frame rate")
	cmd.Flags().BoolVar(&opts.Software, "software", false, "force the fallback software adapter")
	cmd.Flags().BoolVar(&opts.VSync, "vsync", true, "wait for vertical blank when presenting; V toggles it while running")
	cmd.Flags().BoolVar(&opts.MSAA, "msaa", true, "enable 4x multisample anti-aliasing")
	cmd.Flags().BoolVar(&opts.Profile, "profile", false, "log frame statistics every second")
	return cmd
}

func runView(opts *ViewOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()

	w, err := window.NewWindow(window.WithTitle("oxy-facedepth"), window.WithSize(opts.Width, opts.Height))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open window", err)
	}
	defer w.Close()

	present := renderer.PresentModeVSync
	if !opts.VSync {
		present = renderer.PresentModeUncapped
	}
	msaa := renderer.MSAA4x
	if !opts.MSAA {
		msaa = renderer.MSAAOff
	}
	r, err := renderer.NewRenderer(renderer.BackendTypeWGPU, w,
		renderer.WithLogger(opts.logger(cmd.ErrOrStderr())),
		renderer.WithClearColor([4]float64{0.08, 0.08, 0.1, 1}),
		renderer.WithForceSoftwareRenderer(opts.Software),
		renderer.WithPresentMode(present),
		renderer.WithMSAA(msaa),
	)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create renderer", err)
	}
	defer r.Release()

	s, err := newSession(ctx, opts.RootOptions, &opts.SourceOptions, cmd.ErrOrStderr(), r, nil,
		scene.WithView(mgl32.Vec3{0, 1.8, 1.2}, mgl32.Vec3{0, 1.6, 0}),
		scene.WithAspect(float32(w.Width())/float32(max(w.Height(), 1))),
	)
	if err != nil {
		return err
	}
	defer s.Close()

	e := s.engine(0, opts.FPS, engine.WithWindow(w))
	w.SetKeyDownCallback(func(key uint32) {
		switch key {
		case uint32(glfw.KeyEscape):
			e.Quit()
		case uint32(glfw.KeyV):
			if err := r.SetPresentMode(r.PresentMode().Toggled()); err != nil {
				s.logger.Warn("present mode switch failed", "error", err)
			}
		}
	})
	if opts.Profile {
		e.EnableProfiler()
	}
	if err := e.Run(ctx); err != nil {
		return WrapExitError(ExitFailure, "session stopped", err)
	}
	return writeSummary(cmd.OutOrStdout(), opts.Format, s.summary("view", e))
}
