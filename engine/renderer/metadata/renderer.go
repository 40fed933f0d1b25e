package metadata

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

type TextureHandle uint32
type RenderbufferHandle uint32
type FramebufferHandle uint32

const (
	// The window-system provided framebuffer.
	DefaultFramebuffer FramebufferHandle = 0
	// Passing NoTexture to a bind call leaves the unit empty.
	NoTexture TextureHandle = 0

	// Name used by passes to address the default framebuffer.
	DefaultTargetName = "default"

	MaxColorAttachments = 4
)

type RendererBackendConfig struct {
	// The name of the application
	ApplicationName string
	// Size of the default framebuffer
	Width  uint32
	Height uint32
}

/** @brief Represents a render target, an offscreen framebuffer and its attachments. */
type RenderTarget struct {
	// Unique identifier, used as debug label for the backend objects.
	ID     string
	Name   string
	Width  uint32
	Height uint32
	// The backend framebuffer object.
	Framebuffer FramebufferHandle
	// Color attachments, in draw buffer order.
	ColorAttachments []*RenderTargetAttachment
	// Depth or depth+stencil attachment, nil when the target has none.
	DepthAttachment *RenderTargetAttachment
	// Set once the backend reported the framebuffer complete.
	Complete bool

	destroyed bool
}

func (rt *RenderTarget) Destroyed() bool {
	return rt.destroyed
}

// MarkDestroyed is called by the owner once every backend resource is released.
func (rt *RenderTarget) MarkDestroyed() {
	rt.destroyed = true
	rt.Complete = false
}

// Attachment returns the color attachment with the given semantic kind.
func (rt *RenderTarget) Attachment(kind AttachmentKind) (*RenderTargetAttachment, bool) {
	if rt.DepthAttachment != nil && rt.DepthAttachment.Kind == kind {
		return rt.DepthAttachment, true
	}
	for _, a := range rt.ColorAttachments {
		if a.Kind == kind {
			return a, true
		}
	}
	return nil, false
}

/** @brief A single image backing a render target slot. */
type RenderTargetAttachment struct {
	Kind    AttachmentKind
	Format  TextureFormat
	Samples uint32
	// Exactly one of Texture or Renderbuffer is set.
	Texture      TextureHandle
	Renderbuffer RenderbufferHandle
}

type AttachmentKind uint8

const (
	AttachmentPosition AttachmentKind = iota
	AttachmentNormal
	AttachmentAlbedoSpec
	AttachmentBrightness
	AttachmentSceneColor
	AttachmentDepth
	AttachmentDepthStencil
)

func (k AttachmentKind) String() string {
	switch k {
	case AttachmentPosition:
		return "position"
	case AttachmentNormal:
		return "normal"
	case AttachmentAlbedoSpec:
		return "albedo_spec"
	case AttachmentBrightness:
		return "brightness"
	case AttachmentSceneColor:
		return "scene_color"
	case AttachmentDepth:
		return "depth"
	case AttachmentDepthStencil:
		return "depth_stencil"
	}
	return fmt.Sprintf("attachment(%d)", uint8(k))
}

// IsDepth reports whether the kind belongs in the depth slot.
func (k AttachmentKind) IsDepth() bool {
	return k == AttachmentDepth || k == AttachmentDepthStencil
}

type ColorAttachmentSpec struct {
	Kind   AttachmentKind
	Format TextureFormat
	Filter TextureFilter
	Wrap   TextureWrap
	// Values greater than 1 allocate a multisampled texture.
	Samples uint32
}

type DepthAttachmentSpec struct {
	// AttachmentDepth or AttachmentDepthStencil
	Kind    AttachmentKind
	Samples uint32
	// Renderbuffers cannot be sampled but are the cheaper choice for depth that is only tested.
	Renderbuffer bool
}

// Format returns the storage format matching the depth kind.
func (d DepthAttachmentSpec) Format() TextureFormat {
	if d.Kind == AttachmentDepthStencil {
		return FormatDepth24Stencil8
	}
	return FormatDepth24
}

type AttachmentSlot uint8

const (
	SlotColor0 AttachmentSlot = iota
	SlotColor1
	SlotColor2
	SlotColor3
	SlotDepth
	SlotDepthStencil
)

// ColorSlot returns the slot of the i-th color attachment.
func ColorSlot(i int) AttachmentSlot {
	return SlotColor0 + AttachmentSlot(i)
}

type FramebufferStatus uint8

const (
	FramebufferComplete FramebufferStatus = iota
	FramebufferIncompleteAttachment
	FramebufferMissingAttachment
	FramebufferIncompleteMultisample
	FramebufferIncompleteDimensions
	FramebufferUnsupported
	FramebufferUndefined
)

func (s FramebufferStatus) String() string {
	switch s {
	case FramebufferComplete:
		return "complete"
	case FramebufferIncompleteAttachment:
		return "incomplete attachment"
	case FramebufferMissingAttachment:
		return "missing attachment"
	case FramebufferIncompleteMultisample:
		return "incomplete multisample"
	case FramebufferIncompleteDimensions:
		return "incomplete dimensions"
	case FramebufferUnsupported:
		return "unsupported"
	}
	return "undefined"
}

/**
 * @brief The types of clearing to be done on a pass.
 * Can be combined together for multiple clearing functions.
 */
type ClearFlag uint8

const (
	ClearNone    ClearFlag = 0x0
	ClearColor   ClearFlag = 0x1
	ClearDepth   ClearFlag = 0x2
	ClearStencil ClearFlag = 0x4
)

type BlitMask uint8

const (
	BlitColor BlitMask = 0x1
	BlitDepth BlitMask = 0x2
)

type DepthFunc uint8

const (
	DepthLess DepthFunc = iota
	DepthLessEqual
	DepthAlways
)

type DepthState struct {
	Test  bool
	Write bool
	Func  DepthFunc
}

var (
	// Depth state used by geometry passes.
	DepthDefault = DepthState{Test: true, Write: true, Func: DepthLess}
	// Depth state used by the skybox so it passes at the far plane.
	DepthSkybox = DepthState{Test: true, Write: true, Func: DepthLessEqual}
	// Depth state used by full screen passes.
	DepthDisabled = DepthState{Test: false, Write: false, Func: DepthAlways}
)

var ClearColorDefault = mgl32.Vec4{0.1, 0.1, 0.1, 1.0}
