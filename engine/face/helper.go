package face

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Carmen-Shannon/oxy-facedepth/common"
	"github.com/Carmen-Shannon/oxy-facedepth/engine/detector"
	"github.com/Carmen-Shannon/oxy-facedepth/engine/preview"
	"github.com/Carmen-Shannon/oxy-facedepth/engine/renderer/depth_texture"
	"github.com/Carmen-Shannon/oxy-facedepth/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-facedepth/engine/scene"
	"github.com/google/uuid"
)

// Helper owns one face depth subsystem: the detector session, the generated surface, the detection state
// machine, the preview state and the neck override. Every method except Close runs on the frame goroutine.
type Helper struct {
	id     string
	cfg    Config
	det    detector.Detector
	logger *slog.Logger

	scene  scene.Scene
	canvas preview.Canvas

	surface  *Surface
	machine  *DetectionMachine
	preview  *PreviewState
	neck     *NeckFilter
	donor    scene.Mesh
	inserted bool

	initialized bool
	failed      error
	closed      bool
}

// NewHelper validates cfg and creates an uninitialized helper.
//
// Parameters:
//   - cfg: the configuration
//   - det: the face tracker
//   - options: functional options
//
// Returns:
//   - *Helper: the helper
//   - error: ErrInvalidConfig
func NewHelper(cfg Config, det detector.Detector, options ...HelperBuilderOption) (*Helper, error) {
	if det == nil {
		return nil, fmt.Errorf("%w: detector is required", ErrInvalidConfig)
	}
	cfg.FaceMeshName = common.Coalesce(cfg.FaceMeshName, DefaultFaceMeshName)
	cfg.PreviewHideDelay = common.Coalesce(cfg.PreviewHideDelay, DefaultPreviewHideDelay)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	h := &Helper{
		id:      uuid.NewString(),
		cfg:     cfg,
		det:     det,
		machine: NewDetectionMachine(),
	}
	for _, opt := range options {
		opt(h)
	}
	h.logger = common.LoggerOr(h.logger).With("component", "facedepth", "helper", h.id)
	h.preview = NewPreviewState(h.canvas, cfg.PreviewHideDelay)
	return h, nil
}

// Initialize starts the detector, waits for it to become ready and builds the surface at the detector's
// buffer resolution. OnFaceMeshReady fires with the new mesh.
//
// Parameters:
//   - ctx: bounds the detector load
//
// Returns:
//   - error: ErrInitFailed wrapping the cause; the helper stays unusable
func (h *Helper) Initialize(ctx context.Context) error {
	if h.closed {
		return ErrClosed
	}
	if h.initialized {
		return nil
	}

	ready := h.det.Init(ctx, detector.Config{
		NNTrackPath:            h.cfg.NNTrackPath,
		NNDepthPath:            h.cfg.NNDepthPath,
		Canvas:                 h.canvas,
		KeepRunningOnFocusLost: h.cfg.KeepRunningOnFocusLost,
		FollowZRot:             h.cfg.FollowZRot,
	})
	info, err := ready.Wait(ctx)
	if err != nil {
		h.logger.Error("detector failed to start", "error", err)
		return fmt.Errorf("%w: %w", ErrInitFailed, err)
	}

	mask, err := material.LoadMaskTexture(h.cfg.MaskTexturePath, info.Resolution)
	if err != nil {
		h.logger.Error("mask texture failed to load", "path", h.cfg.MaskTexturePath, "error", err)
		return fmt.Errorf("%w: %w", ErrInitFailed, err)
	}
	surface, err := BuildSurface(info.Resolution, mask, h.cfg.DepthParams(info.Resolution))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInitFailed, err)
	}

	h.surface = surface
	h.machine.Bind(surface.Mesh(), nil, nil)
	h.initialized = true
	h.logger.Info("face depth initialized", "resolution", info.Resolution)

	if h.cfg.OnFaceMeshReady != nil {
		h.cfg.OnFaceMeshReady(surface.Mesh())
	}
	return nil
}

// SetAvatar sets the character model for a later InsertFace. Has no effect after insertion.
//
// Parameters:
//   - avatar: the character root node
func (h *Helper) SetAvatar(avatar scene.Node) {
	if h.inserted {
		return
	}
	h.cfg.Avatar = avatar
}

// InsertFace transplants the surface onto the avatar's donor mesh, calibrates its pose and hooks the neck
// override. Without an avatar it does nothing. Once it succeeds further calls do nothing.
//
// Returns:
//   - error: ErrNotInitialized, ErrTargetNotFound when the donor is missing (non-fatal, the surface stays
//     available for host composition), or ErrEmptyDonor
func (h *Helper) InsertFace() error {
	if h.closed {
		return ErrClosed
	}
	if !h.initialized {
		return ErrNotInitialized
	}
	if h.inserted || h.cfg.Avatar == nil {
		return nil
	}

	avatar := h.cfg.Avatar
	scene.PrecomputeMatrices(avatar)

	donor, ok := scene.FindByName(avatar, h.cfg.FaceMeshName).(scene.Mesh)
	if !ok {
		err := fmt.Errorf("%w: mesh %q", ErrTargetNotFound, h.cfg.FaceMeshName)
		h.logger.Warn("face insertion skipped", "error", err)
		return err
	}

	hide := make([]scene.Node, 0, len(h.cfg.MeshesToHideIfDetected)+1)
	for _, name := range h.cfg.MeshesToHideIfDetected {
		n := scene.FindByName(avatar, name)
		if n == nil {
			h.logger.Debug("mesh to hide not found", "name", name)
			continue
		}
		hide = append(hide, n)
	}
	hide = append(hide, donor)

	if err := AttachSkin(donor, h.surface); err != nil {
		h.logger.Warn("face insertion failed", "donor", donor.Name(), "error", err)
		return err
	}
	mesh := h.surface.Mesh()
	if parent := donor.Parent(); parent != nil && mesh.Parent() != parent {
		parent.Add(mesh)
	}
	SetPose(mesh, h.cfg.FaceScale, h.cfg.faceOffset(), h.cfg.FaceRx)

	h.neck = nil
	if h.cfg.NeckBoneName != "" && mesh.Skeleton() != nil {
		bone := mesh.Skeleton().BoneByName(h.cfg.NeckBoneName)
		if bone == nil {
			h.logger.Warn("neck tracking skipped", "error", fmt.Errorf("%w: bone %q", ErrTargetNotFound, h.cfg.NeckBoneName))
		} else {
			neck, err := NewNeckFilter(bone, h.cfg.NeckAmortizationFactor, h.cfg.neckFactors())
			if err != nil {
				return err
			}
			h.neck = neck
			mesh.SetOnBeforeRender(func(scene.Mesh) { neck.Apply() })
		}
	}

	h.donor = donor
	h.machine.Bind(mesh, hide, h.neck)
	h.inserted = true
	h.logger.Info("face inserted", "donor", donor.Name(), "skinned", mesh.Skinned(), "neck", h.neck != nil)

	if h.cfg.OnFaceMeshReady != nil {
		h.cfg.OnFaceMeshReady(mesh)
	}
	return nil
}

// OnFrame is the detection callback. It runs the preview and detection state machines, stages the depth
// buffer and feeds the neck filter.
//
// A frame whose resolution differs from the surface's latches the helper into a failed state: the surface is
// hidden, the donor restored, and every later OnFrame returns the same error.
//
// Parameters:
//   - f: the detection frame
//
// Returns:
//   - error: ErrNotInitialized, the latched failure, or a per-frame buffer error
func (h *Helper) OnFrame(f detector.Frame) error {
	if h.closed {
		return ErrClosed
	}
	if !h.initialized {
		return ErrNotInitialized
	}

	h.preview.Apply(f.Detected)
	if h.preview.Updating() {
		h.det.RenderVideo()
	}
	if h.failed != nil {
		return h.failed
	}

	if h.machine.Apply(f.Detected) {
		if f.Detected {
			h.logger.Info("face detected")
		} else {
			h.logger.Info("face lost")
		}
	}
	if !f.Detected {
		return nil
	}

	if err := h.surface.Update(f.Buffer, f.Resolution); err != nil {
		if errors.Is(err, depth_texture.ErrResolutionMismatch) {
			h.failed = fmt.Errorf("face: %w", err)
			h.machine.Reset()
			h.logger.Error("face surface disabled", "error", err)
			return h.failed
		}
		h.logger.Debug("frame dropped", "error", err)
		return fmt.Errorf("face: %w", err)
	}

	if h.neck != nil {
		h.neck.Update(f.Rx, f.Ry, f.Rz)
	}
	return nil
}

// Render is the render step. It opens the neck override's frame and renders the attached scene. Without a
// scene it runs the same ordered steps on the surface's own subtree: before-render hooks, world matrices, skeleton palette.
//
// Returns:
//   - error: ErrNotInitialized or a scene render error
func (h *Helper) Render() error {
	if h.closed {
		return ErrClosed
	}
	if !h.initialized {
		return ErrNotInitialized
	}
	if h.neck != nil {
		h.neck.BeginFrame()
	}
	if h.scene != nil {
		return h.scene.Render()
	}

	mesh := h.surface.Mesh()
	mesh.BeforeRender()
	var root scene.Node = mesh
	for root.Parent() != nil {
		root = root.Parent()
	}
	root.UpdateMatrixWorld()
	if sk := mesh.Skeleton(); sk != nil {
		sk.Update()
	}
	return nil
}

// ID returns the helper's session identifier.
func (h *Helper) ID() string {
	return h.id
}

func (h *Helper) Config() Config {
	return h.cfg
}

func (h *Helper) Detector() detector.Detector {
	return h.det
}

// Surface returns the generated surface, or nil before Initialize.
func (h *Helper) Surface() *Surface {
	return h.surface
}

// Mesh returns the current surface mesh, or nil before Initialize.
func (h *Helper) Mesh() scene.Mesh {
	if h.surface == nil {
		return nil
	}
	return h.surface.Mesh()
}

// Texture returns the depth texture, or nil before Initialize.
func (h *Helper) Texture() depth_texture.DepthTexture {
	if h.surface == nil {
		return nil
	}
	return h.surface.Texture()
}

// Donor returns the replaced mesh, or nil before a successful InsertFace.
func (h *Helper) Donor() scene.Mesh {
	return h.donor
}

func (h *Helper) Inserted() bool {
	return h.inserted
}

func (h *Helper) State() DetectionState {
	return h.machine.State()
}

func (h *Helper) Machine() *DetectionMachine {
	return h.machine
}

func (h *Helper) Preview() *PreviewState {
	return h.preview
}

// Neck returns the neck override, or nil when neck tracking is off.
func (h *Helper) Neck() *NeckFilter {
	return h.neck
}

// Failed returns the latched fatal error, or nil.
func (h *Helper) Failed() error {
	return h.failed
}

// Close stops the preview timer and closes the detector. Safe to call more than once.
//
// Returns:
//   - error: the detector close error
func (h *Helper) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true
	h.preview.Close()
	h.logger.Info("face depth closed")
	return h.det.Close()
}
