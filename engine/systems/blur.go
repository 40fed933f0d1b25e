package systems

import (
	"fmt"

	"github.com/spaghettifunk/prism/engine/renderer"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

const (
	TargetPingPong0 = "pingpong0"
	TargetPingPong1 = "pingpong1"
)

var pingPongTargets = [2]string{TargetPingPong0, TargetPingPong1}

// BlurIteration records one draw of the ping-pong loop.
type BlurIteration struct {
	// Texture sampled by the draw.
	Read metadata.TextureHandle
	// Ping-pong buffer sampled, -1 for the source texture.
	ReadBuffer int
	// Ping-pong buffer written.
	Write      int
	Horizontal bool
}

type BlurResult struct {
	// The blurred texture, the source itself when no iteration ran.
	Texture metadata.TextureHandle
	// Buffer holding Texture, -1 for the source.
	Buffer     int
	Iterations []BlurIteration
}

// BlurStage runs a separable Gaussian blur by alternating horizontal and
// vertical passes between two half float targets.
type BlurStage struct {
	targets *RenderTargetSystem
	shaders *ShaderSystem
	quad    *FullScreenQuad
	backend renderer.RendererBackend
}

func NewBlurStage(targets *RenderTargetSystem, shaders *ShaderSystem, quad *FullScreenQuad, backend renderer.RendererBackend) *BlurStage {
	return &BlurStage{
		targets: targets,
		shaders: shaders,
		quad:    quad,
		backend: backend,
	}
}

func PingPongSpec(i int) RenderTargetSpec {
	return RenderTargetSpec{
		Name: pingPongTargets[i],
		Color: []metadata.ColorAttachmentSpec{{
			Kind:   metadata.AttachmentSceneColor,
			Format: metadata.FormatRGBA16F,
			Filter: metadata.FilterLinear,
			Wrap:   metadata.WrapClampToEdge,
		}},
	}
}

// Initialize creates both ping-pong targets.
func (b *BlurStage) Initialize(width, height uint32) error {
	for i := range pingPongTargets {
		if _, err := b.targets.Create(PingPongSpec(i), width, height); err != nil {
			return err
		}
	}
	return nil
}

// Run blurs source with exactly amount draws. The first draw is horizontal and
// reads source, every later draw reads the buffer written by the previous one.
func (b *BlurStage) Run(source metadata.TextureHandle, amount int) (*BlurResult, error) {
	result := &BlurResult{Texture: source, Buffer: -1}
	if amount < 1 {
		return result, nil
	}

	var buffers [2]*metadata.RenderTarget
	for i, name := range pingPongTargets {
		target, err := b.targets.Get(name)
		if err != nil {
			return nil, err
		}
		buffers[i] = target
	}
	if source == buffers[1].ColorAttachments[0].Texture {
		return nil, fmt.Errorf("blur source is the first ping-pong write buffer")
	}

	shader, err := b.shaders.Use(metadata.BUILTIN_SHADER_NAME_BLUR)
	if err != nil {
		return nil, err
	}
	b.backend.SetDepthState(metadata.DepthDisabled)
	b.backend.SetBlend(false)

	horizontal := true
	read, readBuffer := source, -1
	for i := 0; i < amount; i++ {
		write := 0
		if horizontal {
			write = 1
		}
		if err := b.targets.Bind(buffers[write]); err != nil {
			return nil, err
		}
		if err := b.shaders.SetUniform(shader, "horizontal", horizontal); err != nil {
			return nil, err
		}
		if err := b.shaders.BindSampler(shader, metadata.RoleBlurSource, read); err != nil {
			return nil, err
		}
		if err := b.quad.DrawFullScreenQuad(); err != nil {
			return nil, err
		}

		result.Iterations = append(result.Iterations, BlurIteration{
			Read:       read,
			ReadBuffer: readBuffer,
			Write:      write,
			Horizontal: horizontal,
		})
		read, readBuffer = buffers[write].ColorAttachments[0].Texture, write
		horizontal = !horizontal
	}
	b.backend.FramebufferBind(metadata.DefaultFramebuffer)

	result.Texture, result.Buffer = read, readBuffer
	return result, nil
}
