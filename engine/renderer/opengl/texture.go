package opengl

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

func internalFormat(f metadata.TextureFormat) int32 {
	switch f {
	case metadata.FormatRGB8:
		return gl.RGB8
	case metadata.FormatRGBA8:
		return gl.RGBA8
	case metadata.FormatRGB16F:
		return gl.RGB16F
	case metadata.FormatRGBA16F:
		return gl.RGBA16F
	case metadata.FormatDepth24:
		return gl.DEPTH_COMPONENT24
	case metadata.FormatDepth24Stencil8:
		return gl.DEPTH24_STENCIL8
	}
	return gl.RGBA8
}

// pixelFormat returns the client format and type used to allocate storage.
func pixelFormat(f metadata.TextureFormat) (uint32, uint32) {
	switch f {
	case metadata.FormatRGB8:
		return gl.RGB, gl.UNSIGNED_BYTE
	case metadata.FormatRGB16F:
		return gl.RGB, gl.FLOAT
	case metadata.FormatRGBA16F:
		return gl.RGBA, gl.FLOAT
	case metadata.FormatDepth24:
		return gl.DEPTH_COMPONENT, gl.UNSIGNED_INT
	case metadata.FormatDepth24Stencil8:
		return gl.DEPTH_STENCIL, gl.UNSIGNED_INT_24_8
	}
	return gl.RGBA, gl.UNSIGNED_BYTE
}

func filterParams(f metadata.TextureFilter) (int32, int32) {
	switch f {
	case metadata.FilterNearest:
		return gl.NEAREST, gl.NEAREST
	case metadata.FilterLinearMipmap:
		return gl.LINEAR_MIPMAP_LINEAR, gl.LINEAR
	}
	return gl.LINEAR, gl.LINEAR
}

func wrapParam(w metadata.TextureWrap) int32 {
	if w == metadata.WrapRepeat {
		return gl.REPEAT
	}
	return gl.CLAMP_TO_EDGE
}

func (b *Backend) TextureCreate(config *metadata.TextureConfig, pixels []uint8) (metadata.TextureHandle, error) {
	var id uint32
	gl.GenTextures(1, &id)

	target := uint32(gl.TEXTURE_2D)
	if config.Samples > 1 {
		if pixels != nil {
			gl.DeleteTextures(1, &id)
			return metadata.NoTexture, fmt.Errorf("texture %s: cannot upload pixels to a multisampled texture", config.Name)
		}
		target = gl.TEXTURE_2D_MULTISAMPLE
		gl.BindTexture(target, id)
		gl.TexImage2DMultisample(target, int32(config.Samples), uint32(internalFormat(config.Format)),
			int32(config.Width), int32(config.Height), true)
	} else {
		gl.BindTexture(target, id)
		format, xtype := pixelFormat(config.Format)
		var ptr interface{}
		if pixels != nil {
			format, xtype = gl.RGBA, gl.UNSIGNED_BYTE
			ptr = pixels
		}
		gl.TexImage2D(target, 0, internalFormat(config.Format), int32(config.Width), int32(config.Height), 0,
			format, xtype, glPtr(ptr))

		minFilter, magFilter := filterParams(config.Filter)
		gl.TexParameteri(target, gl.TEXTURE_MIN_FILTER, minFilter)
		gl.TexParameteri(target, gl.TEXTURE_MAG_FILTER, magFilter)
		gl.TexParameteri(target, gl.TEXTURE_WRAP_S, wrapParam(config.Wrap))
		gl.TexParameteri(target, gl.TEXTURE_WRAP_T, wrapParam(config.Wrap))
		if config.Filter == metadata.FilterLinearMipmap && pixels != nil {
			gl.GenerateMipmap(target)
		}
	}
	gl.BindTexture(target, 0)

	if err := checkError("texture " + config.Name); err != nil {
		gl.DeleteTextures(1, &id)
		return metadata.NoTexture, err
	}
	h := metadata.TextureHandle(id)
	b.textures[h] = textureInfo{target: target, label: config.Name}
	return h, nil
}

func (b *Backend) TextureCreateCubemap(config *metadata.TextureConfig, faces [6][]uint8) (metadata.TextureHandle, error) {
	var id uint32
	gl.GenTextures(1, &id)
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, id)
	for i, face := range faces {
		var ptr interface{}
		if face != nil {
			ptr = face
		}
		gl.TexImage2D(gl.TEXTURE_CUBE_MAP_POSITIVE_X+uint32(i), 0, internalFormat(config.Format),
			int32(config.Width), int32(config.Height), 0, gl.RGBA, gl.UNSIGNED_BYTE, glPtr(ptr))
	}
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_WRAP_R, gl.CLAMP_TO_EDGE)
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, 0)

	if err := checkError("cubemap " + config.Name); err != nil {
		gl.DeleteTextures(1, &id)
		return metadata.NoTexture, err
	}
	h := metadata.TextureHandle(id)
	b.textures[h] = textureInfo{target: gl.TEXTURE_CUBE_MAP, label: config.Name}
	return h, nil
}

func (b *Backend) TextureDestroy(texture metadata.TextureHandle) {
	if _, ok := b.textures[texture]; !ok {
		return
	}
	id := uint32(texture)
	gl.DeleteTextures(1, &id)
	delete(b.textures, texture)
}

func (b *Backend) TextureBind(unit uint32, texture metadata.TextureHandle) {
	gl.ActiveTexture(gl.TEXTURE0 + unit)
	if texture == metadata.NoTexture {
		gl.BindTexture(gl.TEXTURE_2D, 0)
		return
	}
	info, ok := b.textures[texture]
	if !ok {
		gl.BindTexture(gl.TEXTURE_2D, 0)
		return
	}
	gl.BindTexture(info.target, uint32(texture))
}

func (b *Backend) RenderbufferCreate(format metadata.TextureFormat, width, height, samples uint32) (metadata.RenderbufferHandle, error) {
	var id uint32
	gl.GenRenderbuffers(1, &id)
	gl.BindRenderbuffer(gl.RENDERBUFFER, id)
	if samples > 1 {
		gl.RenderbufferStorageMultisample(gl.RENDERBUFFER, int32(samples), uint32(internalFormat(format)), int32(width), int32(height))
	} else {
		gl.RenderbufferStorage(gl.RENDERBUFFER, uint32(internalFormat(format)), int32(width), int32(height))
	}
	gl.BindRenderbuffer(gl.RENDERBUFFER, 0)

	if err := checkError("renderbuffer"); err != nil {
		gl.DeleteRenderbuffers(1, &id)
		return 0, err
	}
	return metadata.RenderbufferHandle(id), nil
}

func (b *Backend) RenderbufferDestroy(renderbuffer metadata.RenderbufferHandle) {
	id := uint32(renderbuffer)
	gl.DeleteRenderbuffers(1, &id)
}

func glPtr(data interface{}) unsafe.Pointer {
	if data == nil {
		return nil
	}
	return gl.Ptr(data)
}
