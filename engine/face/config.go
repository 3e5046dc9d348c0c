package face

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/Carmen-Shannon/oxy-facedepth/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-facedepth/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

const (
	// DefaultFaceMeshName is the donor mesh looked up when none is configured.
	DefaultFaceMeshName = "robotFace"

	// DefaultPreviewHideDelay is how long a face must stay tracked before preview refreshes stop.
	DefaultPreviewHideDelay = 500 * time.Millisecond
)

// Config is the face depth helper configuration. The tagged fields load from YAML; Avatar and
// OnFaceMeshReady are set by the application.
type Config struct {
	DisplayVideoRes int `yaml:"display_video_res"`

	DepthScale                 float32    `yaml:"depth_scale"`
	MaskTexturePath            string     `yaml:"mask_texture_path"`
	DepthLightFallOffRange     [2]float32 `yaml:"depth_light_falloff_range"`
	DepthLightFallOffIntensity float32    `yaml:"depth_light_falloff_intensity"`
	DepthAlphaFallOffRange     [2]float32 `yaml:"depth_alpha_falloff_range"`
	AlphaFallOff               bool       `yaml:"alpha_falloff"`

	NNTrackPath string `yaml:"nn_track_path"`
	NNDepthPath string `yaml:"nn_depth_path"`
	FollowZRot  bool   `yaml:"follow_z_rot"`

	FaceMeshName           string     `yaml:"face_mesh_name"`
	MeshesToHideIfDetected []string   `yaml:"meshes_to_hide_if_detected"`
	FaceScale              float32    `yaml:"face_scale"`
	FaceOffset             [3]float32 `yaml:"face_offset"`
	FaceRx                 float32    `yaml:"face_rx"`

	NeckBoneName           string     `yaml:"neck_bone_name"`
	NeckRotationFactors    [3]float32 `yaml:"neck_rotation_factors"`
	NeckAmortizationFactor float32    `yaml:"neck_amortization_factor"`

	KeepRunningOnFocusLost bool          `yaml:"keep_running_on_focus_lost"`
	PreviewHideDelay       time.Duration `yaml:"preview_hide_delay"`

	// Avatar is the loaded character model the face is inserted into, or nil.
	Avatar scene.Node `yaml:"-"`
	// OnFaceMeshReady is called with the surface mesh once it is built and again when insertion replaces it.
	OnFaceMeshReady func(scene.Mesh) `yaml:"-"`
}

// DefaultConfig returns the stock configuration.
//
// Returns:
//   - Config: the defaults
func DefaultConfig() Config {
	p := material.DefaultDepthParams()
	return Config{
		DisplayVideoRes:            512,
		DepthScale:                 p.DepthScale,
		DepthLightFallOffRange:     p.LightFallOffRange,
		DepthLightFallOffIntensity: p.LightFallOffIntensity,
		DepthAlphaFallOffRange:     p.AlphaFallOffRange,
		AlphaFallOff:               p.AlphaFallOff,
		FollowZRot:                 true,
		FaceMeshName:               DefaultFaceMeshName,
		FaceScale:                  1,
		NeckRotationFactors:        [3]float32{1, 1, 1},
		NeckAmortizationFactor:     0.8,
		KeepRunningOnFocusLost:     true,
		PreviewHideDelay:           DefaultPreviewHideDelay,
	}
}

// LoadConfig reads a YAML file over DefaultConfig and validates the result. Keys absent from the file keep their defaults.
//
// Parameters:
//   - path: the YAML file
//
// Returns:
//   - Config: the loaded configuration
//   - error: a read or parse error, or ErrInvalidConfig
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("face: read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML over DefaultConfig and validates the result.
//
// Parameters:
//   - data: the YAML document
//
// Returns:
//   - Config: the parsed configuration
//   - error: a parse error, or ErrInvalidConfig
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("face: parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration against the embedded CUE schema and the runtime constraints.
//
// Returns:
//   - error: ErrInvalidConfig wrapping the first violation, or nil
func (c Config) Validate() error {
	if c.PreviewHideDelay <= 0 {
		return fmt.Errorf("%w: preview_hide_delay must be positive, got %s", ErrInvalidConfig, c.PreviewHideDelay)
	}

	// Round-trip through YAML so the schema sees the file's key names and a duration string.
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("face: compile config schema: %w", err)
	}
	v := schema.LookupPath(cue.ParsePath("#Config")).Unify(ctx.Encode(doc))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// DepthParams returns the shader parameters for a surface of the given resolution.
//
// Parameters:
//   - resolution: the grid and texture resolution
//
// Returns:
//   - material.DepthParams: the parameters
func (c Config) DepthParams(resolution int) material.DepthParams {
	return material.DepthParams{
		DepthScale:            c.DepthScale,
		Resolution:            resolution,
		LightFallOffRange:     c.DepthLightFallOffRange,
		LightFallOffIntensity: c.DepthLightFallOffIntensity,
		AlphaFallOffRange:     c.DepthAlphaFallOffRange,
		AlphaFallOff:          c.AlphaFallOff,
	}
}

func (c Config) faceOffset() mgl32.Vec3 {
	return mgl32.Vec3(c.FaceOffset)
}

func (c Config) neckFactors() mgl32.Vec3 {
	return mgl32.Vec3(c.NeckRotationFactors)
}
