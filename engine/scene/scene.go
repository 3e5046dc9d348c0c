package scene

import (
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-facedepth/common"
	"github.com/Carmen-Shannon/oxy-facedepth/engine/model"
	"github.com/Carmen-Shannon/oxy-facedepth/engine/renderer"
	"github.com/Carmen-Shannon/oxy-facedepth/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-facedepth/engine/renderer/depth_texture"
	"github.com/Carmen-Shannon/oxy-facedepth/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-facedepth/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-facedepth/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// meshUniformsBinding is the binding of GPUMeshUniforms in the mesh bind group.
	meshUniformsBinding = 0

	// bonesBinding is the binding of the bone palette in the mesh bind group.
	bonesBinding = 1

	// mat4Size is the byte size of one mat4x4<f32> in the bone palette.
	mat4Size = 64
)

// Scene is the host scene: a node tree under a single root plus the per-frame render step.
//
// Render runs, in order: every mesh's before-render hook, the world matrix pass, the skinning palette update
// of every skeleton in use, and, when a renderer is attached, GPU resource creation for new meshes, the staged
// buffer and texture uploads, and the draw calls. Without a renderer the CPU half still runs, which is what
// tests and headless tools use.
type Scene interface {
	Name() string

	// Root returns the root node every scene object hangs under.
	Root() Node

	// Add attaches a node under the root.
	//
	// Parameters:
	//   - n: the node to attach
	Add(n Node)

	// FindByName returns the first node below the root with the given name, or nil.
	//
	// Parameters:
	//   - name: the node name
	//
	// Returns:
	//   - Node: the node, or nil
	FindByName(name string) Node

	// Renderer returns the attached renderer, or nil for a headless scene.
	Renderer() renderer.Renderer

	// SetView places the camera.
	//
	// Parameters:
	//   - eye: the camera position
	//   - target: the point looked at
	SetView(eye, target mgl32.Vec3)

	// Resize updates the projection aspect ratio and reconfigures the renderer surface.
	//
	// Parameters:
	//   - width: the new width in pixels
	//   - height: the new height in pixels
	//
	// Returns:
	//   - error: an error if the renderer could not be reconfigured
	Resize(width, height int) error

	// ViewProjection returns the current camera view-projection matrix.
	ViewProjection() mgl32.Mat4

	// Update runs the CPU half of the frame: hooks, world matrices and skeletons.
	Update()

	// DrawList returns the visible meshes of the last Update, opaque first and then transparent back to front.
	DrawList() []Mesh

	// Draw uploads staged data and issues the draw calls of the last Update. Does nothing without a renderer.
	//
	// Returns:
	//   - error: an error if GPU resources could not be created or the frame could not be acquired
	Draw() error

	// Render runs Update followed by Draw.
	//
	// Returns:
	//   - error: the Draw error, if any
	Render() error
}

type scene struct {
	mu *sync.RWMutex

	name string
	root Node
	r    renderer.Renderer

	eye    mgl32.Vec3
	target mgl32.Vec3
	fovY   float32
	aspect float32
	near   float32
	far    float32

	drawList []Mesh

	// Pre-allocated slices reused each frame to avoid per-frame allocations.
	bufferWrites  []bind_group_provider.BufferWrite
	textureWrites []bind_group_provider.TextureWrite

	// skinPool runs the per-skeleton palette updates of a frame. Workers persist across frames.
	skinPool    worker.DynamicWorkerPool
	skinWorkers int
}

var _ Scene = &scene{}

// NewScene creates a Scene. A nil renderer gives a headless scene.
//
// Parameters:
//   - name: the name of the scene
//   - r: the renderer to draw with, or nil
//   - options: functional options to further configure the scene
//
// Returns:
//   - Scene: the newly created scene
func NewScene(name string, r renderer.Renderer, options ...SceneBuilderOption) Scene {
	s := &scene{
		mu:          &sync.RWMutex{},
		name:        name,
		root:        NewNode(name + " root"),
		r:           r,
		eye:         mgl32.Vec3{0, 0, 2},
		fovY:        mgl32.DegToRad(45),
		aspect:      1,
		near:        0.01,
		far:         1000,
		skinWorkers: max(runtime.NumCPU()-1, 1),
	}
	for _, option := range options {
		option(s)
	}

	// Created after options so WithSkinningWorkers can override the default.
	s.skinPool = worker.NewDynamicWorkerPool(s.skinWorkers, 64, 1*time.Second)
	return s
}

func (s *scene) Name() string {
	return s.name
}

func (s *scene) Root() Node {
	return s.root
}

func (s *scene) Add(n Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.root.Add(n)
}

func (s *scene) FindByName(name string) Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return FindByName(s.root, name)
}

func (s *scene) Renderer() renderer.Renderer {
	return s.r
}

func (s *scene) SetView(eye, target mgl32.Vec3) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.eye = eye
	s.target = target
}

func (s *scene) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return nil
	}
	s.mu.Lock()
	s.aspect = float32(width) / float32(height)
	s.mu.Unlock()
	if s.r == nil {
		return nil
	}
	return s.r.Resize(width, height)
}

func (s *scene) ViewProjection() mgl32.Mat4 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.viewProjection()
}

// viewProjection requires s.mu.
func (s *scene) viewProjection() mgl32.Mat4 {
	proj := mgl32.Perspective(s.fovY, s.aspect, s.near, s.far)
	view := mgl32.LookAtV(s.eye, s.target, mgl32.Vec3{0, 1, 0})
	return proj.Mul4(view)
}

func (s *scene) Update() {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Hooks run before the world pass so a node override written by a hook propagates to its subtree.
	var meshes []Mesh
	s.root.Traverse(func(n Node) {
		if m, ok := n.(Mesh); ok {
			meshes = append(meshes, m)
		}
	})
	for _, m := range meshes {
		m.BeforeRender()
	}

	s.root.UpdateMatrixWorld()

	s.drawList = s.drawList[:0]
	collectVisible(s.root, &s.drawList)

	skeletons := make([]*Skeleton, 0, 2)
	seen := make(map[*Skeleton]struct{})
	for _, m := range s.drawList {
		sk := m.Skeleton()
		if !m.Skinned() || sk == nil {
			continue
		}
		if _, ok := seen[sk]; ok {
			continue
		}
		seen[sk] = struct{}{}
		skeletons = append(skeletons, sk)
	}
	s.updateSkeletons(skeletons)

	viewProj := s.viewProjection()
	sort.SliceStable(s.drawList, func(i, j int) bool {
		a, b := s.drawList[i], s.drawList[j]
		at, bt := isTransparent(a), isTransparent(b)
		if at != bt {
			return !at
		}
		if ao, bo := renderOrder(a), renderOrder(b); ao != bo {
			return ao < bo
		}
		if !at {
			return false
		}
		return clipDepth(viewProj, a) > clipDepth(viewProj, b)
	})
}

// updateSkeletons recomputes skinning palettes. A single skeleton is updated inline; several are fanned out to the
// pool with a WaitGroup barrier, since pool.Wait blocks until workers idle-exit.
func (s *scene) updateSkeletons(skeletons []*Skeleton) {
	if len(skeletons) == 1 {
		skeletons[0].Update()
		return
	}
	var wg sync.WaitGroup
	for i, sk := range skeletons {
		wg.Add(1)
		skCap := sk
		s.skinPool.SubmitTask(worker.Task{
			ID: i,
			Do: func() (any, error) {
				defer wg.Done()
				skCap.Update()
				return nil, nil
			},
		})
	}
	wg.Wait()
}

func (s *scene) DrawList() []Mesh {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Mesh(nil), s.drawList...)
}

func (s *scene) Draw() error {
	if s.r == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	viewProj := s.viewProjection()
	s.bufferWrites = s.bufferWrites[:0]
	s.textureWrites = s.textureWrites[:0]

	drawable := make([]Mesh, 0, len(s.drawList))
	for _, m := range s.drawList {
		mat, ok := m.Material().(material.DepthMaterial)
		if !ok {
			continue
		}
		if m.BindGroupProvider() == nil {
			if err := s.initMesh(m, mat); err != nil {
				return fmt.Errorf("scene %q: init mesh %q: %w", s.name, m.Name(), err)
			}
		}
		s.bufferWrites = append(s.bufferWrites, meshWrites(m, viewProj)...)
		s.bufferWrites = append(s.bufferWrites, mat.StagedWrites()...)
		if t := mat.DepthTexture(); t != nil {
			s.textureWrites = append(s.textureWrites, t.StagedWrites()...)
		}
		drawable = append(drawable, m)
	}

	s.r.WriteBuffers(s.bufferWrites)
	s.r.WriteTextures(s.textureWrites)

	if err := s.r.BeginFrame(); err != nil {
		return fmt.Errorf("scene %q: begin frame: %w", s.name, err)
	}
	for _, m := range drawable {
		mat := m.Material()
		groups := []bind_group_provider.BindGroupProvider{m.BindGroupProvider(), mat.BindGroupProvider()}
		if err := s.r.DrawCall(mat.PipelineKey(), m.BindGroupProvider(), groups); err != nil {
			s.r.EndFrame()
			return fmt.Errorf("draw call failed for mesh %q in scene %q: %w", m.Name(), s.name, err)
		}
	}
	s.r.EndFrame()
	s.r.Present()
	return nil
}

func (s *scene) Render() error {
	s.Update()
	return s.Draw()
}

// initMesh registers the material's pipeline variant and creates the mesh and material bind groups.
// Requires s.mu and a renderer.
func (s *scene) initMesh(m Mesh, mat material.DepthMaterial) error {
	sh, err := shader.NewFaceDepthShader(mat.Features()...)
	if err != nil {
		return err
	}
	p := s.r.Pipeline(sh.Key())
	if p == nil {
		p = pipeline.NewPipeline(sh.Key(),
			pipeline.WithShader(sh),
			pipeline.WithBlendState(mat.BlendState()),
			pipeline.WithDepthWriteEnabled(!mat.Transparent()),
			pipeline.WithCullMode(wgpu.CullModeNone),
		)
		if err := s.r.RegisterPipelines(p); err != nil {
			return err
		}
	}
	mat.SetPipelineKey(sh.Key())

	geom := m.Geometry()
	if geom == nil || geom.VertexCount() == 0 {
		return model.ErrEmptyGeometry
	}

	meshGroup, paletteBinding, ok := sh.Binding(shader.AnnotationArgBones)
	if !ok {
		paletteBinding = bonesBinding
	}
	meshProvider := bind_group_provider.NewBindGroupProvider(m.Name(), bind_group_provider.WithSharedLayout(p.BindGroupLayout(meshGroup)))
	if err := s.r.InitMeshBuffers(meshProvider, geom.VertexData(), geom.IndexData(), len(geom.Indices)); err != nil {
		return err
	}
	bones := 1
	if sk := m.Skeleton(); m.Skinned() && sk != nil && len(sk.Bones()) > 0 {
		bones = len(sk.Bones())
	}
	sizes := map[int]uint64{paletteBinding: uint64(bones * mat4Size)}
	if err := s.r.InitBindGroup(meshProvider, sh.BindGroupLayoutDescriptor(meshGroup), sizes); err != nil {
		return err
	}
	m.SetBindGroupProvider(meshProvider)

	if mat.BindGroupProvider() != nil {
		return nil
	}
	return s.initMaterial(sh, p, mat)
}

// initMaterial creates the material bind group: parameters, depth texture, depth sampler and mask.
func (s *scene) initMaterial(sh shader.Shader, p pipeline.Pipeline, mat material.DepthMaterial) error {
	group, texBinding, ok := sh.Binding(shader.AnnotationArgDepthTexture)
	if !ok {
		return fmt.Errorf("shader %s declares no depth texture", sh.Key())
	}
	_, samplerBinding, _ := sh.Binding(shader.AnnotationArgDepthSampler)
	_, maskBinding, _ := sh.Binding(shader.AnnotationArgMaskTexture)

	provider := bind_group_provider.NewBindGroupProvider(mat.Name(), bind_group_provider.WithSharedLayout(p.BindGroupLayout(group)))

	depth := mat.DepthTexture()
	if depth == nil {
		depth = depth_texture.NewDepthTexture(mat.Mask().Resolution())
		mat.SetDepthTexture(depth)
	}
	staging := depth.Staging()
	if staging == nil {
		res := uint32(depth.Resolution())
		staging = common.NewTextureStaging(res, res)
	}
	if err := s.r.InitTextureView(provider, texBinding, *staging, depth.Format()); err != nil {
		return err
	}
	if err := s.r.InitSampler(provider, samplerBinding, depth.Sampler()); err != nil {
		return err
	}
	if err := s.r.InitTextureView(provider, maskBinding, mat.Mask().Staging(), wgpu.TextureFormatRGBA8Unorm); err != nil {
		return err
	}
	if err := s.r.InitBindGroup(provider, sh.BindGroupLayoutDescriptor(group), nil); err != nil {
		return err
	}
	mat.SetBindGroupProvider(provider)
	return nil
}

// meshWrites stages the per-mesh uniforms and the bone palette.
func meshWrites(m Mesh, viewProj mgl32.Mat4) []bind_group_provider.BufferWrite {
	provider := m.BindGroupProvider()
	u := model.GPUMeshUniforms{
		ViewProj:          viewProj,
		Model:             m.MatrixWorld(),
		BindMatrix:        m.BindMatrix(),
		BindMatrixInverse: m.BindMatrixInverse(),
	}
	palette := identityPalette
	if sk := m.Skeleton(); m.Skinned() && sk != nil {
		u.Skinned = 1
		palette = sk.Marshal()
	}
	return []bind_group_provider.BufferWrite{
		{Provider: provider, Binding: meshUniformsBinding, Data: u.Marshal()},
		{Provider: provider, Binding: bonesBinding, Data: palette},
	}
}

var identityPalette = NewSkeleton([]Node{NewNode("identity")}, []mgl32.Mat4{mgl32.Ident4()}).Marshal()

// collectVisible appends the visible meshes of the subtree. Hidden nodes prune their subtree.
func collectVisible(n Node, out *[]Mesh) {
	if !n.Visible() {
		return
	}
	if m, ok := n.(Mesh); ok {
		*out = append(*out, m)
	}
	for _, c := range n.Children() {
		collectVisible(c, out)
	}
}

func isTransparent(m Mesh) bool {
	mat := m.Material()
	return mat != nil && mat.Transparent()
}

func renderOrder(m Mesh) int {
	if mat := m.Material(); mat != nil {
		return mat.RenderOrder()
	}
	return 0
}

// clipDepth returns the clip space w of the mesh origin, which grows with distance from the camera.
func clipDepth(viewProj mgl32.Mat4, m Mesh) float32 {
	return viewProj.Mul4x1(m.MatrixWorld().Col(3)).W()
}
