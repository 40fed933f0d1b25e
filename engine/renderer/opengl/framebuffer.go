package opengl

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

func attachmentPoint(slot metadata.AttachmentSlot) uint32 {
	switch slot {
	case metadata.SlotDepth:
		return gl.DEPTH_ATTACHMENT
	case metadata.SlotDepthStencil:
		return gl.DEPTH_STENCIL_ATTACHMENT
	}
	return gl.COLOR_ATTACHMENT0 + uint32(slot-metadata.SlotColor0)
}

func (b *Backend) FramebufferCreate(label string) (metadata.FramebufferHandle, error) {
	var id uint32
	gl.GenFramebuffers(1, &id)
	if id == 0 {
		return 0, fmt.Errorf("framebuffer %s: glGenFramebuffers returned 0", label)
	}
	h := metadata.FramebufferHandle(id)
	b.framebuffers[h] = label
	return h, nil
}

// withFramebuffer runs fn with framebuffer bound and restores the previous binding.
func (b *Backend) withFramebuffer(framebuffer metadata.FramebufferHandle, fn func()) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(framebuffer))
	fn()
	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(b.bound))
}

func (b *Backend) FramebufferAttachTexture(framebuffer metadata.FramebufferHandle, slot metadata.AttachmentSlot, texture metadata.TextureHandle) {
	target := uint32(gl.TEXTURE_2D)
	if info, ok := b.textures[texture]; ok {
		target = info.target
	}
	b.withFramebuffer(framebuffer, func() {
		gl.FramebufferTexture2D(gl.FRAMEBUFFER, attachmentPoint(slot), target, uint32(texture), 0)
	})
}

func (b *Backend) FramebufferAttachRenderbuffer(framebuffer metadata.FramebufferHandle, slot metadata.AttachmentSlot, renderbuffer metadata.RenderbufferHandle) {
	b.withFramebuffer(framebuffer, func() {
		gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, attachmentPoint(slot), gl.RENDERBUFFER, uint32(renderbuffer))
	})
}

func (b *Backend) FramebufferDrawBuffers(framebuffer metadata.FramebufferHandle, count int) {
	b.withFramebuffer(framebuffer, func() {
		if count == 0 {
			gl.DrawBuffer(gl.NONE)
			gl.ReadBuffer(gl.NONE)
			return
		}
		buffers := make([]uint32, count)
		for i := range buffers {
			buffers[i] = gl.COLOR_ATTACHMENT0 + uint32(i)
		}
		gl.DrawBuffers(int32(count), &buffers[0])
	})
}

func (b *Backend) FramebufferStatus(framebuffer metadata.FramebufferHandle) metadata.FramebufferStatus {
	var status uint32
	b.withFramebuffer(framebuffer, func() {
		status = gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	})
	switch status {
	case gl.FRAMEBUFFER_COMPLETE:
		return metadata.FramebufferComplete
	case gl.FRAMEBUFFER_INCOMPLETE_ATTACHMENT:
		return metadata.FramebufferIncompleteAttachment
	case gl.FRAMEBUFFER_INCOMPLETE_MISSING_ATTACHMENT:
		return metadata.FramebufferMissingAttachment
	case gl.FRAMEBUFFER_INCOMPLETE_MULTISAMPLE:
		return metadata.FramebufferIncompleteMultisample
	case gl.FRAMEBUFFER_UNSUPPORTED:
		return metadata.FramebufferUnsupported
	}
	return metadata.FramebufferUndefined
}

func (b *Backend) FramebufferDestroy(framebuffer metadata.FramebufferHandle) {
	if framebuffer == metadata.DefaultFramebuffer {
		return
	}
	id := uint32(framebuffer)
	gl.DeleteFramebuffers(1, &id)
	delete(b.framebuffers, framebuffer)
	if b.bound == framebuffer {
		b.FramebufferBind(metadata.DefaultFramebuffer)
	}
}

func (b *Backend) FramebufferBind(framebuffer metadata.FramebufferHandle) {
	b.bound = framebuffer
	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(framebuffer))
}

func (b *Backend) FramebufferBlit(src, dst metadata.FramebufferHandle, srcWidth, srcHeight, dstWidth, dstHeight uint32, mask metadata.BlitMask) error {
	var bits uint32
	if mask&metadata.BlitColor != 0 {
		bits |= gl.COLOR_BUFFER_BIT
	}
	if mask&metadata.BlitDepth != 0 {
		bits |= gl.DEPTH_BUFFER_BIT
	}
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, uint32(src))
	gl.BindFramebuffer(gl.DRAW_FRAMEBUFFER, uint32(dst))
	gl.BlitFramebuffer(0, 0, int32(srcWidth), int32(srcHeight), 0, 0, int32(dstWidth), int32(dstHeight), bits, gl.NEAREST)
	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(b.bound))
	return checkError(fmt.Sprintf("blit %s -> %s", b.framebuffers[src], b.framebuffers[dst]))
}

func (b *Backend) FramebufferRead(framebuffer metadata.FramebufferHandle, attachment int, width, height uint32) ([]float32, error) {
	out := make([]float32, int(width)*int(height)*4)
	if len(out) == 0 {
		return out, nil
	}
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, uint32(framebuffer))
	if framebuffer == metadata.DefaultFramebuffer {
		gl.ReadBuffer(gl.BACK)
	} else {
		gl.ReadBuffer(gl.COLOR_ATTACHMENT0 + uint32(attachment))
	}
	gl.ReadPixels(0, 0, int32(width), int32(height), gl.RGBA, gl.FLOAT, gl.Ptr(&out[0]))
	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(b.bound))
	if err := checkError("read " + b.framebuffers[framebuffer]); err != nil {
		return nil, err
	}
	return out, nil
}
