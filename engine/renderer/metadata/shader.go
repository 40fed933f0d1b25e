package metadata

const (
	BUILTIN_SHADER_NAME_PHONG    = "Shader.Builtin.Phong"
	BUILTIN_SHADER_NAME_GBUFFER  = "Shader.Builtin.GBuffer"
	BUILTIN_SHADER_NAME_DEFERRED = "Shader.Builtin.DeferredLighting"
	BUILTIN_SHADER_NAME_LIGHTBOX = "Shader.Builtin.LightBox"
	BUILTIN_SHADER_NAME_SKYBOX   = "Shader.Builtin.Skybox"
	BUILTIN_SHADER_NAME_BLUR     = "Shader.Builtin.Blur"
	BUILTIN_SHADER_NAME_BLOOM    = "Shader.Builtin.BloomFinal"
	BUILTIN_SHADER_NAME_SCREEN   = "Shader.Builtin.Screen"
)

// BuiltinShaders lists every program the render view system creates at startup.
var BuiltinShaders = []string{
	BUILTIN_SHADER_NAME_PHONG,
	BUILTIN_SHADER_NAME_GBUFFER,
	BUILTIN_SHADER_NAME_DEFERRED,
	BUILTIN_SHADER_NAME_LIGHTBOX,
	BUILTIN_SHADER_NAME_SKYBOX,
	BUILTIN_SHADER_NAME_BLUR,
	BUILTIN_SHADER_NAME_BLOOM,
	BUILTIN_SHADER_NAME_SCREEN,
}

type UniformType uint8

const (
	UniformBool UniformType = iota
	UniformInt
	UniformFloat
	UniformVec2
	UniformVec3
	UniformVec4
	UniformMat4
	UniformSampler
)

func (t UniformType) String() string {
	switch t {
	case UniformBool:
		return "bool"
	case UniformInt:
		return "int"
	case UniformFloat:
		return "float"
	case UniformVec2:
		return "vec2"
	case UniformVec3:
		return "vec3"
	case UniformVec4:
		return "vec4"
	case UniformMat4:
		return "mat4"
	case UniformSampler:
		return "sampler"
	}
	return "unknown"
}

/** @brief Configuration for a shader program. */
type ShaderConfig struct {
	Name           string
	VertexSource   string
	FragmentSource string
}

/** @brief Represents a linked shader program on the backend. */
type Shader struct {
	// The shader identifier
	ID   uint32
	Name string
	// Backend specific program data.
	InternalData interface{}
}
