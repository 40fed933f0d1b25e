package software

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

// Gaussian weights of the separable blur, center tap first.
var blurWeights = [5]float32{0.227027, 0.1945946, 0.1216216, 0.054054, 0.016216}

var luminance = mgl32.Vec3{0.2126, 0.7152, 0.0722}

func init() {
	RegisterProgram(&Program{
		Name: metadata.BUILTIN_SHADER_NAME_PHONG,
		Uniforms: with(transformUniforms(), lightUniforms(), materialUniforms(), map[string]metadata.UniformType{
			"normalMapping": metadata.UniformBool,
			"heightScale":   metadata.UniformFloat,
		}),
		Fragment: phong,
	})
	RegisterProgram(&Program{
		Name: metadata.BUILTIN_SHADER_NAME_GBUFFER,
		Uniforms: with(transformUniforms(), map[string]metadata.UniformType{
			"material.diffuse":  metadata.UniformSampler,
			"material.specular": metadata.UniformSampler,
		}),
		Fragment: gbuffer,
	})
	RegisterProgram(&Program{
		Name: metadata.BUILTIN_SHADER_NAME_DEFERRED,
		Uniforms: with(lightUniforms(), map[string]metadata.UniformType{
			"gPosition":          metadata.UniformSampler,
			"gNormal":            metadata.UniformSampler,
			"gAlbedoSpec":        metadata.UniformSampler,
			"material.shininess": metadata.UniformFloat,
		}),
		Fragment: deferredLighting,
	})
	RegisterProgram(&Program{
		Name: metadata.BUILTIN_SHADER_NAME_LIGHTBOX,
		Uniforms: with(transformUniforms(), map[string]metadata.UniformType{
			"lightColor": metadata.UniformVec3,
		}),
		Fragment: lightBox,
	})
	RegisterProgram(&Program{
		Name: metadata.BUILTIN_SHADER_NAME_SKYBOX,
		Uniforms: map[string]metadata.UniformType{
			"projection": metadata.UniformMat4,
			"view":       metadata.UniformMat4,
			"skybox":     metadata.UniformSampler,
		},
		Fragment: skybox,
	})
	RegisterProgram(&Program{
		Name: metadata.BUILTIN_SHADER_NAME_BLUR,
		Uniforms: map[string]metadata.UniformType{
			"image":      metadata.UniformSampler,
			"horizontal": metadata.UniformBool,
		},
		Fragment: gaussianBlur,
	})
	RegisterProgram(&Program{
		Name: metadata.BUILTIN_SHADER_NAME_BLOOM,
		Uniforms: map[string]metadata.UniformType{
			"scene":     metadata.UniformSampler,
			"bloomBlur": metadata.UniformSampler,
			"bloom":     metadata.UniformBool,
			"exposure":  metadata.UniformFloat,
		},
		Fragment: bloomFinal,
	})
	RegisterProgram(&Program{
		Name: metadata.BUILTIN_SHADER_NAME_SCREEN,
		Uniforms: map[string]metadata.UniformType{
			"screenTexture": metadata.UniformSampler,
		},
		Fragment: screen,
	})
}

func with(sets ...map[string]metadata.UniformType) map[string]metadata.UniformType {
	out := make(map[string]metadata.UniformType)
	for _, set := range sets {
		for k, v := range set {
			out[k] = v
		}
	}
	return out
}

func transformUniforms() map[string]metadata.UniformType {
	return map[string]metadata.UniformType{
		"projection": metadata.UniformMat4,
		"view":       metadata.UniformMat4,
		"model":      metadata.UniformMat4,
	}
}

func materialUniforms() map[string]metadata.UniformType {
	return map[string]metadata.UniformType{
		"material.diffuse":   metadata.UniformSampler,
		"material.specular":  metadata.UniformSampler,
		"material.normal":    metadata.UniformSampler,
		"material.height":    metadata.UniformSampler,
		"material.shininess": metadata.UniformFloat,
	}
}

func lightUniforms() map[string]metadata.UniformType {
	u := map[string]metadata.UniformType{
		"viewPos":               metadata.UniformVec3,
		"dirLight.direction":    metadata.UniformVec3,
		"dirLight.ambient":      metadata.UniformVec3,
		"dirLight.diffuse":      metadata.UniformVec3,
		"dirLight.specular":     metadata.UniformVec3,
		"pointLightCount":       metadata.UniformInt,
		"flashlight":            metadata.UniformBool,
		"spotLight.position":    metadata.UniformVec3,
		"spotLight.direction":   metadata.UniformVec3,
		"spotLight.ambient":     metadata.UniformVec3,
		"spotLight.diffuse":     metadata.UniformVec3,
		"spotLight.specular":    metadata.UniformVec3,
		"spotLight.constant":    metadata.UniformFloat,
		"spotLight.linear":      metadata.UniformFloat,
		"spotLight.quadratic":   metadata.UniformFloat,
		"spotLight.cutOff":      metadata.UniformFloat,
		"spotLight.outerCutOff": metadata.UniformFloat,
	}
	for i := 0; i < metadata.MaxPointLights; i++ {
		p := fmt.Sprintf("pointLights[%d].", i)
		u[p+"position"] = metadata.UniformVec3
		u[p+"ambient"] = metadata.UniformVec3
		u[p+"diffuse"] = metadata.UniformVec3
		u[p+"specular"] = metadata.UniformVec3
		u[p+"constant"] = metadata.UniformFloat
		u[p+"linear"] = metadata.UniformFloat
		u[p+"quadratic"] = metadata.UniformFloat
	}
	return u
}

func normalize(v mgl32.Vec3) mgl32.Vec3 {
	l := v.Len()
	if l == 0 {
		return v
	}
	return v.Mul(1 / l)
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

func powf(a, b float32) float32 {
	return float32(math.Pow(float64(a), float64(b)))
}

func mulVec(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}

// shade evaluates Blinn-Phong for the directional, point and spot lights.
func shade(f *Fragment, pos, normal, albedo mgl32.Vec3, specular float32) mgl32.Vec3 {
	shininess := f.Float("material.shininess")
	if shininess <= 0 {
		shininess = 32
	}
	viewDir := normalize(f.Vec3("viewPos").Sub(pos))
	contribution := func(lightDir, ambient, diffuse, spec mgl32.Vec3) mgl32.Vec3 {
		diff := maxf(normal.Dot(lightDir), 0)
		halfway := normalize(lightDir.Add(viewDir))
		s := powf(maxf(normal.Dot(halfway), 0), shininess)
		return mulVec(ambient, albedo).Add(mulVec(diffuse, albedo).Mul(diff)).Add(spec.Mul(s * specular))
	}

	result := contribution(normalize(f.Vec3("dirLight.direction").Mul(-1)),
		f.Vec3("dirLight.ambient"), f.Vec3("dirLight.diffuse"), f.Vec3("dirLight.specular"))

	count := int(f.Int("pointLightCount"))
	if count > metadata.MaxPointLights {
		count = metadata.MaxPointLights
	}
	for i := 0; i < count; i++ {
		p := fmt.Sprintf("pointLights[%d].", i)
		toLight := f.Vec3(p + "position").Sub(pos)
		d := toLight.Len()
		denom := f.Float(p+"constant") + f.Float(p+"linear")*d + f.Float(p+"quadratic")*d*d
		if denom <= 0 {
			continue
		}
		c := contribution(normalize(toLight), f.Vec3(p+"ambient"), f.Vec3(p+"diffuse"), f.Vec3(p+"specular"))
		result = result.Add(c.Mul(1 / denom))
	}

	if f.Bool("flashlight") {
		toLight := f.Vec3("spotLight.position").Sub(pos)
		lightDir := normalize(toLight)
		theta := lightDir.Dot(normalize(f.Vec3("spotLight.direction").Mul(-1)))
		epsilon := f.Float("spotLight.cutOff") - f.Float("spotLight.outerCutOff")
		intensity := float32(1)
		if epsilon != 0 {
			intensity = mgl32.Clamp((theta-f.Float("spotLight.outerCutOff"))/epsilon, 0, 1)
		}
		d := toLight.Len()
		denom := f.Float("spotLight.constant") + f.Float("spotLight.linear")*d + f.Float("spotLight.quadratic")*d*d
		if denom > 0 {
			c := contribution(lightDir, f.Vec3("spotLight.ambient"), f.Vec3("spotLight.diffuse"), f.Vec3("spotLight.specular"))
			result = result.Add(c.Mul(intensity / denom))
		}
	}
	return result
}

// brightness keeps colors whose luminance exceeds 1.
func brightness(c mgl32.Vec3) mgl32.Vec4 {
	if c.Dot(luminance) > 1 {
		return c.Vec4(1)
	}
	return mgl32.Vec4{0, 0, 0, 1}
}

// surfacePoint approximates the shaded point of an object by its origin and up axis.
func surfacePoint(f *Fragment) (mgl32.Vec3, mgl32.Vec3) {
	model := f.Mat4("model")
	pos := model.Col(3).Vec3()
	normal := normalize(model.Mul4x1(mgl32.Vec4{0, 1, 0, 0}).Vec3())
	return pos, normal
}

func phong(f *Fragment) {
	pos, normal := surfacePoint(f)
	albedo := f.Texture("material.diffuse", f.UV).Vec3()
	spec := f.Texture("material.specular", f.UV).X()
	color := shade(f, pos, normal, albedo, spec)
	f.Out[0] = color.Vec4(1)
	f.Out[1] = brightness(color)
}

func gbuffer(f *Fragment) {
	pos, normal := surfacePoint(f)
	f.Out[0] = pos.Vec4(1)
	f.Out[1] = normal.Vec4(1)
	f.Out[2] = f.Texture("material.diffuse", f.UV).Vec3().Vec4(f.Texture("material.specular", f.UV).X())
}

func deferredLighting(f *Fragment) {
	pos := f.Texture("gPosition", f.UV).Vec3()
	normal := normalize(f.Texture("gNormal", f.UV).Vec3())
	albedoSpec := f.Texture("gAlbedoSpec", f.UV)
	color := shade(f, pos, normal, albedoSpec.Vec3(), albedoSpec.W())
	f.Out[0] = color.Vec4(1)
	f.Out[1] = brightness(color)
}

func lightBox(f *Fragment) {
	c := f.Vec3("lightColor")
	f.Out[0] = c.Vec4(1)
	f.Out[1] = brightness(c)
}

func skybox(f *Fragment) {
	f.Out[0] = f.Texture("skybox", f.UV).Vec3().Vec4(1)
}

func gaussianBlur(f *Fragment) {
	dx, dy := 1, 0
	if !f.Bool("horizontal") {
		dx, dy = 0, 1
	}
	result := f.TexelFetch("image", f.X, f.Y).Vec3().Mul(blurWeights[0])
	for i := 1; i < len(blurWeights); i++ {
		result = result.Add(f.TexelFetch("image", f.X+dx*i, f.Y+dy*i).Vec3().Mul(blurWeights[i]))
		result = result.Add(f.TexelFetch("image", f.X-dx*i, f.Y-dy*i).Vec3().Mul(blurWeights[i]))
	}
	f.Out[0] = result.Vec4(1)
}

// Tonemap maps an HDR color to display range with exposure and gamma 2.2.
func Tonemap(hdr mgl32.Vec3, exposure float32) mgl32.Vec3 {
	var out mgl32.Vec3
	for i := range hdr {
		mapped := 1 - math.Exp(-float64(hdr[i])*float64(exposure))
		out[i] = float32(math.Pow(mapped, 1/2.2))
	}
	return out
}

func bloomFinal(f *Fragment) {
	hdr := f.Texture("scene", f.UV).Vec3()
	if f.Bool("bloom") {
		hdr = hdr.Add(f.Texture("bloomBlur", f.UV).Vec3())
	}
	f.Out[0] = Tonemap(hdr, f.Float("exposure")).Vec4(1)
}

func screen(f *Fragment) {
	f.Out[0] = f.Texture("screenTexture", f.UV).Vec3().Vec4(1)
}
