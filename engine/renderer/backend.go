package renderer

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

// RendererBackend is the graphics API the render systems are written against.
type RendererBackend interface {
	Initialize(config *metadata.RendererBackendConfig) error
	Shutdown() error
	Resized(width, height uint32)
	BeginFrame(deltaTime float64) error
	EndFrame(deltaTime float64) error

	// pixels are tightly packed RGBA8 rows, nil allocates storage only.
	TextureCreate(config *metadata.TextureConfig, pixels []uint8) (metadata.TextureHandle, error)
	TextureCreateCubemap(config *metadata.TextureConfig, faces [6][]uint8) (metadata.TextureHandle, error)
	TextureDestroy(texture metadata.TextureHandle)
	TextureBind(unit uint32, texture metadata.TextureHandle)

	RenderbufferCreate(format metadata.TextureFormat, width, height, samples uint32) (metadata.RenderbufferHandle, error)
	RenderbufferDestroy(renderbuffer metadata.RenderbufferHandle)

	FramebufferCreate(label string) (metadata.FramebufferHandle, error)
	FramebufferAttachTexture(framebuffer metadata.FramebufferHandle, slot metadata.AttachmentSlot, texture metadata.TextureHandle)
	FramebufferAttachRenderbuffer(framebuffer metadata.FramebufferHandle, slot metadata.AttachmentSlot, renderbuffer metadata.RenderbufferHandle)
	FramebufferDrawBuffers(framebuffer metadata.FramebufferHandle, count int)
	FramebufferStatus(framebuffer metadata.FramebufferHandle) metadata.FramebufferStatus
	FramebufferDestroy(framebuffer metadata.FramebufferHandle)
	FramebufferBind(framebuffer metadata.FramebufferHandle)
	FramebufferBlit(src, dst metadata.FramebufferHandle, srcWidth, srcHeight, dstWidth, dstHeight uint32, mask metadata.BlitMask) error
	// FramebufferRead returns RGBA float pixels of a color attachment, row 0 at the bottom.
	FramebufferRead(framebuffer metadata.FramebufferHandle, attachment int, width, height uint32) ([]float32, error)

	Viewport(x, y int32, width, height uint32)
	Clear(color mgl32.Vec4, flags metadata.ClearFlag)
	SetDepthState(state metadata.DepthState)
	SetBlend(enabled bool)

	ShaderCreate(shader *metadata.Shader, config *metadata.ShaderConfig) error
	ShaderDestroy(shader *metadata.Shader)
	ShaderUse(shader *metadata.Shader) error
	// SetUniform returns core.ErrUniformNotFound when the program does not expose name.
	SetUniform(shader *metadata.Shader, name string, value interface{}) error

	GeometryCreate(geometry *metadata.Geometry, layout metadata.VertexLayout, vertices []float32, indices []uint32) error
	GeometryDraw(geometry *metadata.Geometry) error
	GeometryDestroy(geometry *metadata.Geometry)
}
