package systems

import (
	"fmt"

	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

// Render targets owned by the render view system.
const (
	TargetHDR      = "hdr"
	TargetGBuffer  = "gbuffer"
	TargetMSAA     = "msaa"
	TargetResolved = "resolved"
)

// Frame resources exchanged between passes.
const (
	ResourceSceneColor  = "scene_color"
	ResourceBrightness  = "brightness"
	ResourceHDRDepth    = "hdr_depth"
	ResourceGPosition   = "g_position"
	ResourceGNormal     = "g_normal"
	ResourceGAlbedoSpec = "g_albedo_spec"
	ResourceGDepth      = "g_depth"
	ResourceMSAAColor   = "msaa_color"
	ResourceResolved    = "resolved_color"
	ResourceBlurred     = "blurred"
	ResourceScreen      = "screen"
)

type resourceLocation struct {
	target string
	kind   metadata.AttachmentKind
}

// Resources stored in a render target attachment. ResourceBlurred lives in
// whichever ping-pong buffer the blur ended on.
var resourceLocations = map[string]resourceLocation{
	ResourceSceneColor:  {TargetHDR, metadata.AttachmentSceneColor},
	ResourceBrightness:  {TargetHDR, metadata.AttachmentBrightness},
	ResourceGPosition:   {TargetGBuffer, metadata.AttachmentPosition},
	ResourceGNormal:     {TargetGBuffer, metadata.AttachmentNormal},
	ResourceGAlbedoSpec: {TargetGBuffer, metadata.AttachmentAlbedoSpec},
	ResourceMSAAColor:   {TargetMSAA, metadata.AttachmentSceneColor},
	ResourceResolved:    {TargetResolved, metadata.AttachmentSceneColor},
}

// SelectPipeline picks the pipeline for config. Toggles the chosen pipeline
// cannot honour are reported once.
func SelectPipeline(config metadata.FrameConfig) metadata.PipelineKind {
	kind := config.PipelineKind()
	if config.MSAA && kind != metadata.PipelineMSAA {
		core.LogWarnOnce("pipeline/msaa/"+kind.String(), "msaa is not available in the %s pipeline, ignoring it", kind)
	}
	if config.Bloom && kind == metadata.PipelineForward || config.Bloom && kind == metadata.PipelineMSAA {
		core.LogWarnOnce("pipeline/bloom/"+kind.String(), "bloom needs an hdr buffer, ignoring it in the %s pipeline", kind)
	}
	return kind
}

func scenePasses(target string, writes ...string) []*metadata.Pass {
	return []*metadata.Pass{
		{
			Name:     "scene",
			Stage:    metadata.StageGeometry,
			Draw:     metadata.DrawScene,
			Target:   target,
			Writes:   writes,
			Clear:    metadata.ClearColor | metadata.ClearDepth,
			Depth:    metadata.DepthDefault,
			Lighting: true,
		},
		{
			Name:   "skybox",
			Stage:  metadata.StageGeometry,
			Draw:   metadata.DrawSkybox,
			Target: target,
			Shader: metadata.BUILTIN_SHADER_NAME_SKYBOX,
			Depth:  metadata.DepthSkybox,
		},
		{
			Name:     "overlay",
			Stage:    metadata.StageGeometry,
			Draw:     metadata.DrawSceneOverlay,
			Target:   target,
			Depth:    metadata.DepthDefault,
			Blend:    true,
			Lighting: true,
		},
	}
}

// postProcessPasses blurs the bright buffer when bloom is on and tone maps the HDR scene to the screen.
func postProcessPasses(bloom bool) []*metadata.Pass {
	var passes []*metadata.Pass
	tonemap := &metadata.Pass{
		Name:   "tonemap",
		Stage:  metadata.StagePostProcess,
		Draw:   metadata.DrawTonemap,
		Target: metadata.DefaultTargetName,
		Shader: metadata.BUILTIN_SHADER_NAME_BLOOM,
		Inputs: []metadata.PassInput{{Resource: ResourceSceneColor, Role: metadata.RoleSceneColor}},
		Writes: []string{ResourceScreen},
		Clear:  metadata.ClearColor | metadata.ClearDepth,
		Depth:  metadata.DepthDisabled,
	}
	if bloom {
		passes = append(passes, &metadata.Pass{
			Name:   "blur",
			Stage:  metadata.StagePostProcess,
			Draw:   metadata.DrawBlur,
			Shader: metadata.BUILTIN_SHADER_NAME_BLUR,
			Inputs: []metadata.PassInput{{Resource: ResourceBrightness, Role: metadata.RoleBlurSource}},
			Writes: []string{ResourceBlurred},
			Depth:  metadata.DepthDisabled,
		})
		tonemap.Inputs = append(tonemap.Inputs, metadata.PassInput{Resource: ResourceBlurred, Role: metadata.RoleBloomBlur})
	}
	return append(passes, tonemap)
}

// BuildPipeline returns the ordered passes of kind.
func BuildPipeline(kind metadata.PipelineKind, config metadata.FrameConfig) *metadata.Pipeline {
	p := &metadata.Pipeline{Kind: kind}
	switch kind {
	case metadata.PipelineForward:
		p.Passes = scenePasses(metadata.DefaultTargetName, ResourceScreen)

	case metadata.PipelineForwardHDR:
		p.Passes = scenePasses(TargetHDR, ResourceSceneColor, ResourceBrightness, ResourceHDRDepth)
		p.Passes = append(p.Passes, postProcessPasses(config.Bloom)...)

	case metadata.PipelineDeferred:
		p.Passes = []*metadata.Pass{
			{
				Name:   "geometry",
				Stage:  metadata.StageGeometry,
				Draw:   metadata.DrawScene,
				Target: TargetGBuffer,
				Shader: metadata.BUILTIN_SHADER_NAME_GBUFFER,
				Writes: []string{ResourceGPosition, ResourceGNormal, ResourceGAlbedoSpec, ResourceGDepth},
				Clear:  metadata.ClearColor | metadata.ClearDepth,
				Depth:  metadata.DepthDefault,
			},
			{
				Name:   "lighting",
				Stage:  metadata.StageResolve,
				Draw:   metadata.DrawFullScreenQuad,
				Target: TargetHDR,
				Shader: metadata.BUILTIN_SHADER_NAME_DEFERRED,
				Inputs: []metadata.PassInput{
					{Resource: ResourceGPosition, Role: metadata.RoleGPosition},
					{Resource: ResourceGNormal, Role: metadata.RoleGNormal},
					{Resource: ResourceGAlbedoSpec, Role: metadata.RoleGAlbedoSpec},
				},
				Writes:   []string{ResourceSceneColor, ResourceBrightness},
				Clear:    metadata.ClearColor | metadata.ClearDepth,
				Depth:    metadata.DepthDisabled,
				Lighting: true,
			},
			{
				Name:     "depth_copy",
				Stage:    metadata.StageResolve,
				Draw:     metadata.DrawBlit,
				Source:   TargetGBuffer,
				Target:   TargetHDR,
				BlitMask: metadata.BlitDepth,
				Requires: []string{ResourceGDepth},
				Writes:   []string{ResourceHDRDepth},
			},
			{
				Name:     "skybox",
				Stage:    metadata.StageResolve,
				Draw:     metadata.DrawSkybox,
				Target:   TargetHDR,
				Shader:   metadata.BUILTIN_SHADER_NAME_SKYBOX,
				Requires: []string{ResourceHDRDepth},
				Depth:    metadata.DepthSkybox,
			},
			{
				Name:     "overlay",
				Stage:    metadata.StageResolve,
				Draw:     metadata.DrawSceneOverlay,
				Target:   TargetHDR,
				Requires: []string{ResourceSceneColor, ResourceHDRDepth},
				Depth:    metadata.DepthDefault,
				Blend:    true,
				Lighting: true,
			},
		}
		p.Passes = append(p.Passes, postProcessPasses(config.Bloom)...)

	case metadata.PipelineMSAA:
		p.Passes = scenePasses(TargetMSAA, ResourceMSAAColor)
		p.Passes = append(p.Passes,
			&metadata.Pass{
				Name:     "resolve",
				Stage:    metadata.StageResolve,
				Draw:     metadata.DrawBlit,
				Source:   TargetMSAA,
				Target:   TargetResolved,
				BlitMask: metadata.BlitColor,
				Requires: []string{ResourceMSAAColor},
				Writes:   []string{ResourceResolved},
			},
			&metadata.Pass{
				Name:   "screen",
				Stage:  metadata.StagePostProcess,
				Draw:   metadata.DrawFullScreenQuad,
				Target: metadata.DefaultTargetName,
				Shader: metadata.BUILTIN_SHADER_NAME_SCREEN,
				Inputs: []metadata.PassInput{{Resource: ResourceResolved, Role: metadata.RoleScreen}},
				Writes: []string{ResourceScreen},
				Clear:  metadata.ClearColor | metadata.ClearDepth,
				Depth:  metadata.DepthDisabled,
			},
		)
	}
	return p
}

// ValidatePipeline checks that stages never go backwards, that every resource is
// written before it is read and that the last pass draws to the screen.
func ValidatePipeline(p *metadata.Pipeline) error {
	if p == nil || len(p.Passes) == 0 {
		return fmt.Errorf("empty pipeline: %w", core.ErrPassOrder)
	}
	written := make(map[string]bool)
	stage := metadata.StageIdle
	for _, pass := range p.Passes {
		if pass.Stage < stage {
			return fmt.Errorf("pass %s runs in stage %s after stage %s: %w", pass.Name, pass.Stage, stage, core.ErrPassOrder)
		}
		if pass.Stage == metadata.StageIdle || pass.Stage == metadata.StagePresented {
			return fmt.Errorf("pass %s has no drawing stage: %w", pass.Name, core.ErrPassOrder)
		}
		stage = pass.Stage
		for _, name := range passReads(pass) {
			if !written[name] {
				return fmt.Errorf("pass %s reads %s before it is written: %w", pass.Name, name, core.ErrPassOrder)
			}
		}
		for _, name := range pass.Writes {
			written[name] = true
		}
	}
	if last := p.Passes[len(p.Passes)-1]; last.Target != metadata.DefaultTargetName {
		return fmt.Errorf("final pass %s draws to %s instead of the screen: %w", last.Name, last.Target, core.ErrPassOrder)
	}
	return nil
}

func passReads(pass *metadata.Pass) []string {
	reads := make([]string, 0, len(pass.Inputs)+len(pass.Requires))
	for _, in := range pass.Inputs {
		reads = append(reads, in.Resource)
	}
	return append(reads, pass.Requires...)
}
