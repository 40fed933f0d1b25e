package metadata

import "fmt"

type TextureFormat uint8

const (
	FormatRGB8 TextureFormat = iota
	FormatRGBA8
	FormatRGB16F
	FormatRGBA16F
	FormatDepth24
	FormatDepth24Stencil8
)

func (f TextureFormat) String() string {
	switch f {
	case FormatRGB8:
		return "RGB8"
	case FormatRGBA8:
		return "RGBA8"
	case FormatRGB16F:
		return "RGB16F"
	case FormatRGBA16F:
		return "RGBA16F"
	case FormatDepth24:
		return "DEPTH24"
	case FormatDepth24Stencil8:
		return "DEPTH24_STENCIL8"
	}
	return fmt.Sprintf("format(%d)", uint8(f))
}

func (f TextureFormat) IsDepth() bool {
	return f == FormatDepth24 || f == FormatDepth24Stencil8
}

// IsFloat reports whether the format stores half floats and keeps values above 1.0.
func (f TextureFormat) IsFloat() bool {
	return f == FormatRGB16F || f == FormatRGBA16F
}

func (f TextureFormat) Channels() int {
	switch f {
	case FormatRGB8, FormatRGB16F:
		return 3
	case FormatRGBA8, FormatRGBA16F:
		return 4
	}
	return 1
}

// BytesPerPixel is the storage size of one sample.
func (f TextureFormat) BytesPerPixel() int {
	switch f {
	case FormatRGB8:
		return 3
	case FormatRGBA8, FormatDepth24, FormatDepth24Stencil8:
		return 4
	case FormatRGB16F:
		return 6
	case FormatRGBA16F:
		return 8
	}
	return 4
}

type TextureFilter uint8

const (
	FilterLinear TextureFilter = iota
	FilterNearest
	// Linear with mipmaps, only valid on sampled asset textures.
	FilterLinearMipmap
)

type TextureWrap uint8

const (
	WrapClampToEdge TextureWrap = iota
	WrapRepeat
)

type TextureConfig struct {
	Name    string
	Width   uint32
	Height  uint32
	Format  TextureFormat
	Samples uint32
	Filter  TextureFilter
	Wrap    TextureWrap
	Cubemap bool
}

// TextureRole names the purpose a texture is sampled for.
type TextureRole uint8

const (
	RoleDiffuse TextureRole = iota
	RoleSpecular
	RoleNormal
	RoleHeight
	RoleSkybox
	RoleGPosition
	RoleGNormal
	RoleGAlbedoSpec
	RoleSceneColor
	RoleBloomBlur
	RoleBlurSource
	RoleScreen
)

// SamplerBinding is the texture unit and the sampler uniform used for a role.
type SamplerBinding struct {
	Unit    uint32
	Uniform string
}

// SamplerBindings is the single table every stage uses to bind textures.
// Units are reused across roles that never share a program.
var SamplerBindings = map[TextureRole]SamplerBinding{
	RoleDiffuse:     {Unit: 0, Uniform: "material.diffuse"},
	RoleSpecular:    {Unit: 1, Uniform: "material.specular"},
	RoleNormal:      {Unit: 2, Uniform: "material.normal"},
	RoleHeight:      {Unit: 3, Uniform: "material.height"},
	RoleSkybox:      {Unit: 0, Uniform: "skybox"},
	RoleGPosition:   {Unit: 0, Uniform: "gPosition"},
	RoleGNormal:     {Unit: 1, Uniform: "gNormal"},
	RoleGAlbedoSpec: {Unit: 2, Uniform: "gAlbedoSpec"},
	RoleSceneColor:  {Unit: 0, Uniform: "scene"},
	RoleBloomBlur:   {Unit: 1, Uniform: "bloomBlur"},
	RoleBlurSource:  {Unit: 0, Uniform: "image"},
	RoleScreen:      {Unit: 0, Uniform: "screenTexture"},
}

func (r TextureRole) String() string {
	switch r {
	case RoleDiffuse:
		return "diffuse"
	case RoleSpecular:
		return "specular"
	case RoleNormal:
		return "normal"
	case RoleHeight:
		return "height"
	case RoleSkybox:
		return "skybox"
	case RoleGPosition:
		return "g_position"
	case RoleGNormal:
		return "g_normal"
	case RoleGAlbedoSpec:
		return "g_albedo_spec"
	case RoleSceneColor:
		return "scene_color"
	case RoleBloomBlur:
		return "bloom_blur"
	case RoleBlurSource:
		return "blur_source"
	case RoleScreen:
		return "screen"
	}
	return fmt.Sprintf("role(%d)", uint8(r))
}
