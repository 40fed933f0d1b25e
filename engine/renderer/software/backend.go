// Package software is a CPU stand-in for the GPU backend. Every draw runs its
// fragment kernel over the whole viewport: vertex data and depth state are
// recorded in the trace but never rasterized, so captures show screen-space
// passes faithfully and scene passes as flat fills.
package software

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

const maxTextureUnits = 16

var errNoProgram = errors.New("no program in use")

type attachment struct {
	surface      *surface
	texture      metadata.TextureHandle
	renderbuffer metadata.RenderbufferHandle
}

type framebuffer struct {
	label       string
	color       [metadata.MaxColorAttachments]*attachment
	depth       *attachment
	drawBuffers int
}

func (fb *framebuffer) size() (int, int) {
	for _, a := range fb.color {
		if a != nil {
			return a.surface.width, a.surface.height
		}
	}
	if fb.depth != nil {
		return fb.depth.surface.width, fb.depth.surface.height
	}
	return 0, 0
}

type geometry struct {
	name        string
	vertexCount int
	indexCount  int
}

type Option func(*Backend)

// WithMemoryLimit caps the bytes of image storage the backend may allocate.
func WithMemoryLimit(bytes uint64) Option {
	return func(b *Backend) {
		b.memoryLimit = bytes
	}
}

// Backend is a deterministic CPU renderer. Every draw covers its whole viewport
// and runs the Program registered under the shader name once per pixel.
type Backend struct {
	width  uint32
	height uint32

	memoryLimit uint64
	memoryUsed  uint64

	nextID        uint32
	textures      map[metadata.TextureHandle]*surface
	renderbuffers map[metadata.RenderbufferHandle]*surface
	framebuffers  map[metadata.FramebufferHandle]*framebuffer
	geometries    map[uint32]*geometry
	programs      map[uint32]*programState

	units    [maxTextureUnits]metadata.TextureHandle
	bound    metadata.FramebufferHandle
	current  *programState
	viewport [4]int
	depth    metadata.DepthState
	blend    bool

	frame uint64
	trace *Trace
}

func New(opts ...Option) *Backend {
	b := &Backend{
		textures:      make(map[metadata.TextureHandle]*surface),
		renderbuffers: make(map[metadata.RenderbufferHandle]*surface),
		framebuffers:  make(map[metadata.FramebufferHandle]*framebuffer),
		geometries:    make(map[uint32]*geometry),
		programs:      make(map[uint32]*programState),
		depth:         metadata.DepthDefault,
		trace:         &Trace{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Backend) Trace() *Trace {
	return b.trace
}

func (b *Backend) Initialize(config *metadata.RendererBackendConfig) error {
	b.resizeDefault(config.Width, config.Height)
	core.LogInfo("software renderer initialized (%dx%d)", config.Width, config.Height)
	return nil
}

func (b *Backend) Shutdown() error {
	b.textures = make(map[metadata.TextureHandle]*surface)
	b.renderbuffers = make(map[metadata.RenderbufferHandle]*surface)
	b.framebuffers = make(map[metadata.FramebufferHandle]*framebuffer)
	b.geometries = make(map[uint32]*geometry)
	b.programs = make(map[uint32]*programState)
	b.memoryUsed = 0
	b.current = nil
	return nil
}

func (b *Backend) Resized(width, height uint32) {
	b.resizeDefault(width, height)
}

func (b *Backend) resizeDefault(width, height uint32) {
	b.width, b.height = width, height
	b.framebuffers[metadata.DefaultFramebuffer] = &framebuffer{
		label:       metadata.DefaultTargetName,
		color:       [metadata.MaxColorAttachments]*attachment{{surface: newSurface(int(width), int(height), 1, metadata.FormatRGBA8, 1)}},
		depth:       &attachment{surface: newSurface(int(width), int(height), 1, metadata.FormatDepth24Stencil8, 1)},
		drawBuffers: 1,
	}
	b.viewport = [4]int{0, 0, int(width), int(height)}
}

func (b *Backend) BeginFrame(deltaTime float64) error {
	b.frame++
	b.trace.record(Command{Op: OpBeginFrame, Frame: b.frame})
	return nil
}

func (b *Backend) EndFrame(deltaTime float64) error {
	b.trace.record(Command{Op: OpEndFrame, Frame: b.frame})
	return nil
}

func (b *Backend) allocate(s *surface) error {
	size := s.sizeBytes()
	if b.memoryLimit > 0 && b.memoryUsed+size > b.memoryLimit {
		return fmt.Errorf("allocating %d bytes (%d of %d in use): %w", size, b.memoryUsed, b.memoryLimit, core.ErrResourceExhaustion)
	}
	b.memoryUsed += size
	return nil
}

func (b *Backend) release(s *surface) {
	size := s.sizeBytes()
	if size > b.memoryUsed {
		b.memoryUsed = 0
		return
	}
	b.memoryUsed -= size
}

// MemoryUsed returns the bytes of image storage currently allocated.
func (b *Backend) MemoryUsed() uint64 {
	return b.memoryUsed
}

func (b *Backend) id() uint32 {
	b.nextID++
	return b.nextID
}

func (b *Backend) TextureCreate(config *metadata.TextureConfig, pixels []uint8) (metadata.TextureHandle, error) {
	if config.Width == 0 || config.Height == 0 {
		return metadata.NoTexture, fmt.Errorf("texture %s: invalid size %dx%d", config.Name, config.Width, config.Height)
	}
	if config.Samples > 1 && pixels != nil {
		return metadata.NoTexture, fmt.Errorf("texture %s: cannot upload pixels to a multisampled texture", config.Name)
	}
	s := newSurface(int(config.Width), int(config.Height), int(config.Samples), config.Format, 1)
	s.filter, s.wrap = config.Filter, config.Wrap
	if err := b.allocate(s); err != nil {
		return metadata.NoTexture, fmt.Errorf("texture %s: %w", config.Name, err)
	}
	if pixels != nil {
		s.upload(0, pixels)
	}
	h := metadata.TextureHandle(b.id())
	b.textures[h] = s
	return h, nil
}

func (b *Backend) TextureCreateCubemap(config *metadata.TextureConfig, faces [6][]uint8) (metadata.TextureHandle, error) {
	s := newSurface(int(config.Width), int(config.Height), 1, config.Format, 6)
	s.filter, s.wrap = config.Filter, metadata.WrapClampToEdge
	if err := b.allocate(s); err != nil {
		return metadata.NoTexture, fmt.Errorf("cubemap %s: %w", config.Name, err)
	}
	for i, face := range faces {
		if face != nil {
			s.upload(i, face)
		}
	}
	h := metadata.TextureHandle(b.id())
	b.textures[h] = s
	return h, nil
}

func (b *Backend) TextureDestroy(texture metadata.TextureHandle) {
	s, ok := b.textures[texture]
	if !ok {
		return
	}
	b.release(s)
	delete(b.textures, texture)
	for i, h := range b.units {
		if h == texture {
			b.units[i] = metadata.NoTexture
		}
	}
}

func (b *Backend) TextureBind(unit uint32, texture metadata.TextureHandle) {
	if unit >= maxTextureUnits {
		core.LogWarnOnce(fmt.Sprintf("software.unit.%d", unit), "texture unit %d out of range", unit)
		return
	}
	b.units[unit] = texture
	b.trace.record(Command{Op: OpBindTexture, Frame: b.frame, Unit: unit, Texture: texture})
}

func (b *Backend) RenderbufferCreate(format metadata.TextureFormat, width, height, samples uint32) (metadata.RenderbufferHandle, error) {
	s := newSurface(int(width), int(height), int(samples), format, 1)
	if err := b.allocate(s); err != nil {
		return 0, fmt.Errorf("renderbuffer: %w", err)
	}
	h := metadata.RenderbufferHandle(b.id())
	b.renderbuffers[h] = s
	return h, nil
}

func (b *Backend) RenderbufferDestroy(renderbuffer metadata.RenderbufferHandle) {
	if s, ok := b.renderbuffers[renderbuffer]; ok {
		b.release(s)
		delete(b.renderbuffers, renderbuffer)
	}
}

func (b *Backend) FramebufferCreate(label string) (metadata.FramebufferHandle, error) {
	h := metadata.FramebufferHandle(b.id())
	b.framebuffers[h] = &framebuffer{label: label, drawBuffers: 1}
	return h, nil
}

func (b *Backend) attach(framebuffer metadata.FramebufferHandle, slot metadata.AttachmentSlot, a *attachment) {
	fb, ok := b.framebuffers[framebuffer]
	if !ok || framebuffer == metadata.DefaultFramebuffer {
		return
	}
	switch slot {
	case metadata.SlotDepth, metadata.SlotDepthStencil:
		fb.depth = a
	default:
		i := int(slot - metadata.SlotColor0)
		if i < metadata.MaxColorAttachments {
			fb.color[i] = a
		}
	}
}

func (b *Backend) FramebufferAttachTexture(framebuffer metadata.FramebufferHandle, slot metadata.AttachmentSlot, texture metadata.TextureHandle) {
	s, ok := b.textures[texture]
	if !ok {
		b.attach(framebuffer, slot, nil)
		return
	}
	b.attach(framebuffer, slot, &attachment{surface: s, texture: texture})
}

func (b *Backend) FramebufferAttachRenderbuffer(framebuffer metadata.FramebufferHandle, slot metadata.AttachmentSlot, renderbuffer metadata.RenderbufferHandle) {
	s, ok := b.renderbuffers[renderbuffer]
	if !ok {
		b.attach(framebuffer, slot, nil)
		return
	}
	b.attach(framebuffer, slot, &attachment{surface: s, renderbuffer: renderbuffer})
}

func (b *Backend) FramebufferDrawBuffers(framebuffer metadata.FramebufferHandle, count int) {
	if fb, ok := b.framebuffers[framebuffer]; ok && framebuffer != metadata.DefaultFramebuffer {
		fb.drawBuffers = count
	}
}

func (b *Backend) FramebufferStatus(framebuffer metadata.FramebufferHandle) metadata.FramebufferStatus {
	fb, ok := b.framebuffers[framebuffer]
	if !ok {
		return metadata.FramebufferUndefined
	}
	if framebuffer == metadata.DefaultFramebuffer {
		return metadata.FramebufferComplete
	}
	attached := []*attachment{}
	for i, a := range fb.color {
		if a == nil {
			if i < fb.drawBuffers {
				if i == 0 && fb.drawBuffers == 1 && fb.depth != nil {
					continue
				}
				return metadata.FramebufferIncompleteAttachment
			}
			continue
		}
		if a.surface.format.IsDepth() || a.surface.cubemap() {
			return metadata.FramebufferIncompleteAttachment
		}
		attached = append(attached, a)
	}
	if fb.depth != nil {
		if !fb.depth.surface.format.IsDepth() {
			return metadata.FramebufferIncompleteAttachment
		}
		attached = append(attached, fb.depth)
	}
	if len(attached) == 0 {
		return metadata.FramebufferMissingAttachment
	}
	first := attached[0].surface
	for _, a := range attached[1:] {
		if a.surface.samples != first.samples {
			return metadata.FramebufferIncompleteMultisample
		}
		if a.surface.width != first.width || a.surface.height != first.height {
			return metadata.FramebufferIncompleteDimensions
		}
	}
	return metadata.FramebufferComplete
}

func (b *Backend) FramebufferDestroy(framebuffer metadata.FramebufferHandle) {
	if framebuffer == metadata.DefaultFramebuffer {
		return
	}
	delete(b.framebuffers, framebuffer)
	if b.bound == framebuffer {
		b.bound = metadata.DefaultFramebuffer
	}
}

func (b *Backend) FramebufferBind(framebuffer metadata.FramebufferHandle) {
	b.bound = framebuffer
	label := ""
	if fb, ok := b.framebuffers[framebuffer]; ok {
		label = fb.label
	}
	b.trace.record(Command{Op: OpBindFramebuffer, Frame: b.frame, Framebuffer: framebuffer, Target: label})
}

func (b *Backend) FramebufferBlit(src, dst metadata.FramebufferHandle, srcWidth, srcHeight, dstWidth, dstHeight uint32, mask metadata.BlitMask) error {
	s, ok := b.framebuffers[src]
	if !ok {
		return fmt.Errorf("blit: unknown source framebuffer %d", src)
	}
	d, ok := b.framebuffers[dst]
	if !ok {
		return fmt.Errorf("blit: unknown destination framebuffer %d", dst)
	}
	if mask&metadata.BlitColor != 0 {
		if err := blitSurface(s.color[0], d.color[0], srcWidth, srcHeight, dstWidth, dstHeight); err != nil {
			return fmt.Errorf("blit color %s -> %s: %w", s.label, d.label, err)
		}
	}
	if mask&metadata.BlitDepth != 0 {
		if srcWidth != dstWidth || srcHeight != dstHeight {
			return fmt.Errorf("blit depth %s -> %s: depth blits require matching dimensions", s.label, d.label)
		}
		if err := blitSurface(s.depth, d.depth, srcWidth, srcHeight, dstWidth, dstHeight); err != nil {
			return fmt.Errorf("blit depth %s -> %s: %w", s.label, d.label, err)
		}
	}
	b.trace.record(Command{Op: OpBlit, Frame: b.frame, Source: src, Framebuffer: dst, Target: d.label})
	return nil
}

func blitSurface(src, dst *attachment, srcWidth, srcHeight, dstWidth, dstHeight uint32) error {
	if src == nil || dst == nil {
		return errors.New("missing attachment")
	}
	if dst.surface.samples > 1 {
		return errors.New("cannot blit into a multisampled attachment")
	}
	if src.surface.samples > 1 && (srcWidth != dstWidth || srcHeight != dstHeight) {
		return errors.New("multisampled source requires matching dimensions")
	}
	sw := clampInt(int(srcWidth), 0, src.surface.width)
	sh := clampInt(int(srcHeight), 0, src.surface.height)
	dw := clampInt(int(dstWidth), 0, dst.surface.width)
	dh := clampInt(int(dstHeight), 0, dst.surface.height)
	if sw == 0 || sh == 0 {
		return nil
	}
	for y := 0; y < dh; y++ {
		sy := y * sh / dh
		for x := 0; x < dw; x++ {
			sx := x * sw / dw
			dst.surface.storeAll(0, x, y, src.surface.resolve(0, sx, sy))
		}
	}
	return nil
}

func (b *Backend) FramebufferRead(framebuffer metadata.FramebufferHandle, index int, width, height uint32) ([]float32, error) {
	fb, ok := b.framebuffers[framebuffer]
	if !ok {
		return nil, fmt.Errorf("read: unknown framebuffer %d", framebuffer)
	}
	if index < 0 || index >= metadata.MaxColorAttachments || fb.color[index] == nil {
		return nil, fmt.Errorf("read %s: no color attachment %d", fb.label, index)
	}
	s := fb.color[index].surface
	if s.samples > 1 {
		return nil, fmt.Errorf("read %s: attachment %d is multisampled", fb.label, index)
	}
	w := clampInt(int(width), 0, s.width)
	h := clampInt(int(height), 0, s.height)
	out := make([]float32, 0, w*h*4)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := s.load(0, x, y, 0)
			out = append(out, c[:]...)
		}
	}
	return out, nil
}

func (b *Backend) Viewport(x, y int32, width, height uint32) {
	b.viewport = [4]int{int(x), int(y), int(width), int(height)}
	b.trace.record(Command{Op: OpViewport, Frame: b.frame, Framebuffer: b.bound})
}

func (b *Backend) Clear(color mgl32.Vec4, flags metadata.ClearFlag) {
	fb, ok := b.framebuffers[b.bound]
	if !ok {
		return
	}
	if flags&metadata.ClearColor != 0 {
		for i := 0; i < fb.drawBuffers && i < metadata.MaxColorAttachments; i++ {
			if fb.color[i] != nil {
				fb.color[i].surface.fill(color)
			}
		}
	}
	if flags&(metadata.ClearDepth|metadata.ClearStencil) != 0 && fb.depth != nil {
		fb.depth.surface.fill(mgl32.Vec4{1, 0, 0, 1})
	}
	b.trace.record(Command{Op: OpClear, Frame: b.frame, Framebuffer: b.bound, Target: fb.label})
}

func (b *Backend) SetDepthState(state metadata.DepthState) {
	b.depth = state
	b.trace.record(Command{Op: OpDepthState, Frame: b.frame, Depth: state})
}

func (b *Backend) SetBlend(enabled bool) {
	b.blend = enabled
	b.trace.record(Command{Op: OpBlend, Frame: b.frame, Blend: enabled})
}

func (b *Backend) ShaderCreate(shader *metadata.Shader, config *metadata.ShaderConfig) error {
	p, ok := lookupProgram(config.Name)
	if !ok {
		return fmt.Errorf("software program %q: %w", config.Name, core.ErrShaderNotFound)
	}
	shader.ID = b.id()
	shader.Name = config.Name
	state := &programState{
		id:      shader.ID,
		name:    config.Name,
		program: p,
		values:  make(map[string]interface{}),
	}
	shader.InternalData = state
	b.programs[shader.ID] = state
	return nil
}

func (b *Backend) ShaderDestroy(shader *metadata.Shader) {
	if b.current != nil && b.current.id == shader.ID {
		b.current = nil
	}
	delete(b.programs, shader.ID)
	shader.InternalData = nil
}

func (b *Backend) ShaderUse(shader *metadata.Shader) error {
	state, ok := b.programs[shader.ID]
	if !ok {
		return fmt.Errorf("shader %s: %w", shader.Name, core.ErrShaderNotFound)
	}
	b.current = state
	b.trace.record(Command{Op: OpUseShader, Frame: b.frame, Shader: state.name})
	return nil
}

func (b *Backend) SetUniform(shader *metadata.Shader, name string, value interface{}) error {
	state, ok := b.programs[shader.ID]
	if !ok {
		return fmt.Errorf("shader %s: %w", shader.Name, core.ErrShaderNotFound)
	}
	if err := state.set(name, value); err != nil {
		return err
	}
	b.trace.record(Command{Op: OpSetUniform, Frame: b.frame, Shader: state.name, Uniform: name, Value: value})
	return nil
}

func (b *Backend) GeometryCreate(g *metadata.Geometry, layout metadata.VertexLayout, vertices []float32, indices []uint32) error {
	if layout.Stride <= 0 || len(vertices)%int(layout.Stride) != 0 {
		return fmt.Errorf("geometry %s: %d floats do not match stride %d", g.Name, len(vertices), layout.Stride)
	}
	g.ID = b.id()
	g.VertexCount = uint32(len(vertices) / int(layout.Stride))
	g.IndexCount = uint32(len(indices))
	b.geometries[g.ID] = &geometry{
		name:        g.Name,
		vertexCount: int(g.VertexCount),
		indexCount:  len(indices),
	}
	return nil
}

func (b *Backend) GeometryDestroy(g *metadata.Geometry) {
	delete(b.geometries, g.ID)
}

func (b *Backend) GeometryDraw(g *metadata.Geometry) error {
	if b.current == nil {
		return errNoProgram
	}
	geo, ok := b.geometries[g.ID]
	if !ok {
		return fmt.Errorf("geometry %s was not uploaded", g.Name)
	}
	fb, ok := b.framebuffers[b.bound]
	if !ok {
		return fmt.Errorf("draw into unknown framebuffer %d", b.bound)
	}
	b.rasterize(fb)
	uniforms := make(map[string]interface{}, len(b.current.values))
	for k, v := range b.current.values {
		uniforms[k] = v
	}
	units := make(map[uint32]metadata.TextureHandle)
	for i, h := range b.units {
		if h != metadata.NoTexture {
			units[uint32(i)] = h
		}
	}
	b.trace.record(Command{
		Op:          OpDraw,
		Frame:       b.frame,
		Framebuffer: b.bound,
		Target:      fb.label,
		Shader:      b.current.name,
		Geometry:    geo.name,
		Depth:       b.depth,
		Blend:       b.blend,
		Uniforms:    uniforms,
		Units:       units,
	})
	return nil
}

// rasterize covers the viewport, clipped to the framebuffer, with the current program.
func (b *Backend) rasterize(fb *framebuffer) {
	fw, fh := fb.size()
	vx, vy, vw, vh := b.viewport[0], b.viewport[1], b.viewport[2], b.viewport[3]
	if vw <= 0 || vh <= 0 || b.current.program.Fragment == nil {
		return
	}
	x0, y0 := clampInt(vx, 0, fw), clampInt(vy, 0, fh)
	x1, y1 := clampInt(vx+vw, 0, fw), clampInt(vy+vh, 0, fh)
	frag := &Fragment{state: b.current, backend: b}
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			frag.X, frag.Y = x, y
			frag.UV = mgl32.Vec2{(float32(x-vx) + 0.5) / float32(vw), (float32(y-vy) + 0.5) / float32(vh)}
			frag.Out = [metadata.MaxColorAttachments]mgl32.Vec4{}
			b.current.program.Fragment(frag)
			for i := 0; i < fb.drawBuffers && i < metadata.MaxColorAttachments; i++ {
				a := fb.color[i]
				if a == nil {
					continue
				}
				c := frag.Out[i]
				if b.blend {
					dst := a.surface.load(0, x, y, 0)
					alpha := c[3]
					for k := 0; k < 3; k++ {
						c[k] = c[k]*alpha + dst[k]*(1-alpha)
					}
					c[3] = alpha + dst[3]*(1-alpha)
				}
				a.surface.storeAll(0, x, y, c)
			}
		}
	}
}
