// pre_processor.go implements the WGSL shader pre-processor. It scans shader source for
// @oxy: annotations, replaces them with generated WGSL declarations or injected struct
// source, keeps or drops variant blocks according to the enabled features, and collects
// a declarations list used to build bind group layouts without parsing WGSL.
//
// The pre-processor maintains two registries:
//   - structRegistry: maps AnnotationArg keys to embedded WGSL struct sources, their
//     resolved type names and their GPU sizes.
//   - addressSpaceRegistry: maps address space argument keys to WGSL var<> syntax strings.
package shader

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Carmen-Shannon/oxy-facedepth/engine/model"
	"github.com/Carmen-Shannon/oxy-facedepth/engine/renderer/material"
)

// registryEntry pairs a WGSL struct source string (embedded from a .wgsl asset file)
// with the resolved WGSL type name used in generated @group/@binding declarations.
type registryEntry struct {
	// Source is the raw WGSL struct definition text injected by @oxy:include.
	Source string

	// Type is the WGSL type name emitted in @oxy:group declarations.
	Type string

	// Size is the byte size of the matching Go GPU type, used as MinBindingSize.
	Size uint64
}

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	structRegistry       map[AnnotationArg]registryEntry
	addressSpaceRegistry map[AnnotationArg]string

	// declarations accumulates group and provider annotations during a Process call.
	declarations []Annotation

	// includes accumulates the struct keys injected during a Process call.
	includes []AnnotationArg
}

// PreProcessor processes raw WGSL shader source code containing @oxy: annotations.
type PreProcessor interface {
	// Process pre-processes WGSL source. @oxy:include annotations are replaced with embedded struct
	// source, @oxy:group annotations with generated binding declarations, @oxy:provider annotations are
	// recorded only, and @oxy:if / @oxy:else / @oxy:endif blocks are kept or dropped by feature.
	// Declarations collected inside dropped blocks are discarded too.
	//
	// Parameters:
	//   - source: the raw WGSL shader source code
	//   - features: the enabled variant features
	//
	// Returns:
	//   - string: the processed WGSL source
	//   - error: an error if any annotation is malformed or variant blocks are unbalanced
	Process(source string, features ...string) (string, error)

	// Declarations returns the group and provider annotations collected during the most recent
	// call to Process, in source order.
	//
	// Returns:
	//   - []Annotation: the declarations collected during the last Process call
	Declarations() []Annotation
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a new PreProcessor with all registered struct types and address space mappings.
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor instance
func NewPreProcessor() PreProcessor {
	return newPreProcessor()
}

func newPreProcessor() *preProcessor {
	var (
		meshUniforms model.GPUMeshUniforms
		faceParams   material.GPUFaceDepthParams
	)
	return &preProcessor{
		structRegistry: map[AnnotationArg]registryEntry{
			annotationArgSkinnedVertex:   {Source: model.GPUSkinnedVertexSource, Type: "VertexInput"},
			AnnotationArgMeshUniforms:    {Source: model.GPUMeshUniformsSource, Type: "MeshUniforms", Size: uint64(meshUniforms.Size())},
			AnnotationArgFaceDepthParams: {Source: material.GPUFaceDepthParamsSource, Type: "FaceDepthParams", Size: uint64(faceParams.Size())},
		},
		addressSpaceRegistry: map[AnnotationArg]string{
			annotationArgStorageTypeUniform: "var<uniform>",
			annotationArgStorageTypeRead:    "var<storage, read>",
		},
	}
}

// variantFrame tracks one open @oxy:if block.
type variantFrame struct {
	line     int
	active   bool
	inherits bool
}

func (p *preProcessor) Process(source string, features ...string) (string, error) {
	p.declarations = p.declarations[:0]
	p.includes = p.includes[:0]

	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))
	var stack []variantFrame
	emitting := true

	for i, line := range lines {
		a, err := parseAnnotation(line, i+1)
		if err != nil {
			return "", err
		}

		if a != nil {
			switch a.Type {
			case annotationTypeIf:
				enabled := slices.Contains(features, string(a.Args[0]))
				stack = append(stack, variantFrame{line: i + 1, active: enabled, inherits: emitting})
				emitting = emitting && enabled
				continue
			case annotationTypeElse:
				if len(stack) == 0 {
					return "", fmt.Errorf("line %d: @oxy else without matching if", i+1)
				}
				top := &stack[len(stack)-1]
				top.active = !top.active
				emitting = top.inherits && top.active
				continue
			case annotationTypeEndIf:
				if len(stack) == 0 {
					return "", fmt.Errorf("line %d: @oxy endif without matching if", i+1)
				}
				emitting = stack[len(stack)-1].inherits
				stack = stack[:len(stack)-1]
				continue
			}
		}

		if !emitting {
			continue
		}
		if a == nil {
			out = append(out, line)
			continue
		}

		switch a.Type {
		case annotationTypeInclude:
			entry, ok := p.structRegistry[a.Args[0]]
			if !ok {
				return "", fmt.Errorf("line %d: unknown @oxy:include argument %q", i+1, a.Args[0])
			}
			out = append(out, entry.Source)
			p.includes = append(p.includes, a.Args[0])
		case AnnotationTypeBindingGroup:
			addrSpace := p.addressSpaceRegistry[a.Args[0]]
			entry := p.structRegistry[a.Args[2]]
			out = append(out, fmt.Sprintf("@group(%d) @binding(%d) %s %s: %s;", *a.Group, *a.Binding, addrSpace, a.Args[1], entry.Type))
			p.declarations = append(p.declarations, *a)
		case AnnotationTypeProvider:
			p.declarations = append(p.declarations, *a)
		default:
			return "", fmt.Errorf("line %d: unknown annotation type %q", i+1, a.Type)
		}
	}
	if len(stack) > 0 {
		return "", fmt.Errorf("line %d: @oxy if block is never closed", stack[len(stack)-1].line)
	}
	return strings.Join(out, "\n"), nil
}

func (p *preProcessor) Declarations() []Annotation {
	return p.declarations
}

// structSize returns the registered GPU size of a struct type key, or 0 when unknown.
func (p *preProcessor) structSize(key AnnotationArg) uint64 {
	return p.structRegistry[key].Size
}
