package systems

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

/** @brief The configuration for the render target system. */
type RenderTargetSystemConfig struct {
	/** @brief The maximum number of targets alive at once. */
	MaxTargetCount uint16
}

// RenderTargetSpec describes a target so it can be created again at another size.
type RenderTargetSpec struct {
	Name  string
	Color []metadata.ColorAttachmentSpec
	Depth *metadata.DepthAttachmentSpec
}

// RenderTargetSystem creates, owns and validates offscreen framebuffers.
// Every operation leaves the default framebuffer bound.
type RenderTargetSystem struct {
	Config  *RenderTargetSystemConfig
	Lookup  map[string]*metadata.RenderTarget
	specs   map[string]RenderTargetSpec
	backend renderer.RendererBackend
}

func NewRenderTargetSystem(config *RenderTargetSystemConfig, backend renderer.RendererBackend) (*RenderTargetSystem, error) {
	if config.MaxTargetCount == 0 {
		err := fmt.Errorf("func NewRenderTargetSystem - config.MaxTargetCount must be > 0")
		core.LogError(err.Error())
		return nil, err
	}
	return &RenderTargetSystem{
		Config:  config,
		Lookup:  make(map[string]*metadata.RenderTarget, config.MaxTargetCount),
		specs:   make(map[string]RenderTargetSpec, config.MaxTargetCount),
		backend: backend,
	}, nil
}

// Create allocates every attachment of spec at width x height, attaches them and checks completeness.
// Nothing is leaked on failure.
func (rts *RenderTargetSystem) Create(spec RenderTargetSpec, width, height uint32) (*metadata.RenderTarget, error) {
	if width == 0 || height == 0 {
		return nil, &core.ConfigurationError{Target: spec.Name, Status: fmt.Sprintf("invalid size %dx%d", width, height)}
	}
	if len(spec.Color) == 0 && spec.Depth == nil {
		return nil, &core.ConfigurationError{Target: spec.Name, Status: metadata.FramebufferMissingAttachment.String()}
	}
	if len(spec.Color) > metadata.MaxColorAttachments {
		return nil, &core.ConfigurationError{Target: spec.Name, Status: fmt.Sprintf("%d color attachments, at most %d supported", len(spec.Color), metadata.MaxColorAttachments)}
	}
	if _, ok := rts.Lookup[spec.Name]; ok {
		return nil, fmt.Errorf("render target %s already exists", spec.Name)
	}
	if len(rts.Lookup) >= int(rts.Config.MaxTargetCount) {
		return nil, fmt.Errorf("render target %s: %w (limit %d)", spec.Name, core.ErrResourceExhaustion, rts.Config.MaxTargetCount)
	}

	target := &metadata.RenderTarget{
		ID:     uuid.NewString(),
		Name:   spec.Name,
		Width:  width,
		Height: height,
	}
	label := fmt.Sprintf("%s#%s", spec.Name, target.ID[:8])
	defer rts.backend.FramebufferBind(metadata.DefaultFramebuffer)

	fb, err := rts.backend.FramebufferCreate(label)
	if err != nil {
		return nil, fmt.Errorf("render target %s: %w", spec.Name, err)
	}
	target.Framebuffer = fb

	for i, c := range spec.Color {
		if c.Format.IsDepth() {
			rts.release(target)
			return nil, &core.ConfigurationError{Target: spec.Name, Attachment: c.Kind.String(), Status: fmt.Sprintf("depth format %s in a color slot", c.Format)}
		}
		tex, err := rts.backend.TextureCreate(&metadata.TextureConfig{
			Name:    fmt.Sprintf("%s.%s", label, c.Kind),
			Width:   width,
			Height:  height,
			Format:  c.Format,
			Samples: c.Samples,
			Filter:  c.Filter,
			Wrap:    c.Wrap,
		}, nil)
		if err != nil {
			rts.release(target)
			return nil, fmt.Errorf("render target %s attachment %s: %w", spec.Name, c.Kind, err)
		}
		target.ColorAttachments = append(target.ColorAttachments, &metadata.RenderTargetAttachment{
			Kind:    c.Kind,
			Format:  c.Format,
			Samples: c.Samples,
			Texture: tex,
		})
		rts.backend.FramebufferAttachTexture(fb, metadata.ColorSlot(i), tex)
	}
	rts.backend.FramebufferDrawBuffers(fb, len(spec.Color))

	if d := spec.Depth; d != nil {
		slot := metadata.SlotDepth
		if d.Kind == metadata.AttachmentDepthStencil {
			slot = metadata.SlotDepthStencil
		}
		attachment := &metadata.RenderTargetAttachment{Kind: d.Kind, Format: d.Format(), Samples: d.Samples}
		if d.Renderbuffer {
			rb, err := rts.backend.RenderbufferCreate(d.Format(), width, height, d.Samples)
			if err != nil {
				rts.release(target)
				return nil, fmt.Errorf("render target %s attachment %s: %w", spec.Name, d.Kind, err)
			}
			attachment.Renderbuffer = rb
			target.DepthAttachment = attachment
			rts.backend.FramebufferAttachRenderbuffer(fb, slot, rb)
		} else {
			tex, err := rts.backend.TextureCreate(&metadata.TextureConfig{
				Name:    fmt.Sprintf("%s.%s", label, d.Kind),
				Width:   width,
				Height:  height,
				Format:  d.Format(),
				Samples: d.Samples,
				Filter:  metadata.FilterNearest,
				Wrap:    metadata.WrapClampToEdge,
			}, nil)
			if err != nil {
				rts.release(target)
				return nil, fmt.Errorf("render target %s attachment %s: %w", spec.Name, d.Kind, err)
			}
			attachment.Texture = tex
			target.DepthAttachment = attachment
			rts.backend.FramebufferAttachTexture(fb, slot, tex)
		}
	}

	if status := rts.backend.FramebufferStatus(fb); status != metadata.FramebufferComplete {
		rts.release(target)
		err := &core.ConfigurationError{Target: spec.Name, Status: status.String()}
		core.LogError(err.Error())
		return nil, err
	}

	target.Complete = true
	rts.Lookup[spec.Name] = target
	rts.specs[spec.Name] = spec
	core.LogDebug("render target %s created (%dx%d, %d color attachments)", label, width, height, len(spec.Color))
	return target, nil
}

// release frees every backend object of target.
func (rts *RenderTargetSystem) release(target *metadata.RenderTarget) {
	for _, a := range target.ColorAttachments {
		rts.releaseAttachment(a)
	}
	if target.DepthAttachment != nil {
		rts.releaseAttachment(target.DepthAttachment)
	}
	if target.Framebuffer != metadata.DefaultFramebuffer {
		rts.backend.FramebufferDestroy(target.Framebuffer)
	}
	target.MarkDestroyed()
}

func (rts *RenderTargetSystem) releaseAttachment(a *metadata.RenderTargetAttachment) {
	if a.Texture != metadata.NoTexture {
		rts.backend.TextureDestroy(a.Texture)
	}
	if a.Renderbuffer != 0 {
		rts.backend.RenderbufferDestroy(a.Renderbuffer)
	}
}

// Destroy releases target exactly once. A second call returns core.ErrTargetDestroyed.
func (rts *RenderTargetSystem) Destroy(target *metadata.RenderTarget) error {
	if target == nil {
		return fmt.Errorf("render target: %w", core.ErrTargetNotFound)
	}
	if target.Destroyed() {
		return fmt.Errorf("render target %s: %w", target.Name, core.ErrTargetDestroyed)
	}
	rts.release(target)
	if rts.Lookup[target.Name] == target {
		delete(rts.Lookup, target.Name)
		delete(rts.specs, target.Name)
	}
	rts.backend.FramebufferBind(metadata.DefaultFramebuffer)
	return nil
}

func (rts *RenderTargetSystem) Get(name string) (*metadata.RenderTarget, error) {
	target, ok := rts.Lookup[name]
	if !ok {
		return nil, fmt.Errorf("render target %s: %w", name, core.ErrTargetNotFound)
	}
	return target, nil
}

// Bind makes target the draw framebuffer and sets the viewport to its size.
func (rts *RenderTargetSystem) Bind(target *metadata.RenderTarget) error {
	if target.Destroyed() {
		return fmt.Errorf("render target %s: %w", target.Name, core.ErrTargetDestroyed)
	}
	if !target.Complete {
		return fmt.Errorf("render target %s: %w", target.Name, core.ErrTargetIncomplete)
	}
	rts.backend.FramebufferBind(target.Framebuffer)
	rts.backend.Viewport(0, 0, target.Width, target.Height)
	return nil
}

// Resize re-creates every target at the new size. Handles held by callers become stale.
// A target that fails to re-create keeps its spec and is retried by the next Resize.
func (rts *RenderTargetSystem) Resize(width, height uint32) error {
	specs := make([]RenderTargetSpec, 0, len(rts.specs))
	for name, spec := range rts.specs {
		// a target whose last re-create failed has a spec but no entry
		if target := rts.Lookup[name]; target != nil {
			if target.Width == width && target.Height == height {
				continue
			}
			if err := rts.Destroy(target); err != nil {
				return err
			}
		}
		specs = append(specs, spec)
	}
	var errs []error
	for _, spec := range specs {
		if _, err := rts.Create(spec, width, height); err != nil {
			rts.specs[spec.Name] = spec
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (rts *RenderTargetSystem) Shutdown() error {
	for _, target := range rts.Lookup {
		if err := rts.Destroy(target); err != nil {
			return err
		}
	}
	rts.specs = make(map[string]RenderTargetSpec)
	return nil
}
