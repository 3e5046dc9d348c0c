// Package cli implements the facedepth command line.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/Carmen-Shannon/oxy-facedepth/engine/face"
	"github.com/Carmen-Shannon/oxy-facedepth/internal/robot"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Verbose    bool
	Format     string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command of the facedepth CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "facedepth",
		Short: "facedepth - tracked face depth on a rigged avatar",
		Long:  "Replaces an avatar's face with a depth-displaced surface driven by a face tracker, and rotates its neck with the tracked head.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "YAML configuration file")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewRecordCommand(opts))
	cmd.AddCommand(NewPublishCommand(opts))
	cmd.AddCommand(NewSnapshotCommand(opts))
	cmd.AddCommand(NewViewCommand(opts))
	return cmd
}

// logger writes structured logs to w, at debug level when verbose.
func (o *RootOptions) logger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if o.Verbose {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}
	if o.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

// config loads the configuration file, or the defaults placed over the robot's face panel without one, and
// fills the robot avatar's names where the file leaves them unset.
func (o *RootOptions) config() (face.Config, error) {
	cfg := face.DefaultConfig()
	cfg.FaceScale = robot.FaceSize
	cfg.FaceOffset = robot.FacePosition
	if o.ConfigPath != "" {
		loaded, err := face.LoadConfig(o.ConfigPath)
		if err != nil {
			return face.Config{}, WrapExitError(ExitCommandError, "failed to load config", err)
		}
		cfg = loaded
	}
	if cfg.NeckBoneName == "" {
		cfg.NeckBoneName = robot.NeckBoneName
	}
	if cfg.MeshesToHideIfDetected == nil {
		cfg.MeshesToHideIfDetected = []string{robot.VisorName}
	}
	return cfg, nil
}
