package systems

import (
	"errors"
	"fmt"

	"github.com/spaghettifunk/prism/engine/assets"
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

/** @brief Configuration for the shader system. */
type ShaderSystemConfig struct {
	/** @brief The maximum number of shaders held in the system. */
	MaxShaderCount uint16
}

type ShaderSystem struct {
	// This system's configuration.
	Config *ShaderSystemConfig
	// A lookup table for shader name->shader
	Lookup map[string]*metadata.Shader
	// The currently bound shader.
	Current *metadata.Shader
	// sub systems
	assetManager *assets.AssetManager
	backend      renderer.RendererBackend
}

func NewShaderSystem(config *ShaderSystemConfig, am *assets.AssetManager, backend renderer.RendererBackend) (*ShaderSystem, error) {
	if config.MaxShaderCount == 0 {
		err := fmt.Errorf("func NewShaderSystem - config.MaxShaderCount must be > 0")
		core.LogError(err.Error())
		return nil, err
	}
	return &ShaderSystem{
		Config:       config,
		Lookup:       make(map[string]*metadata.Shader, config.MaxShaderCount),
		assetManager: am,
		backend:      backend,
	}, nil
}

// Initialize creates every builtin shader.
func (shaderSystem *ShaderSystem) Initialize() error {
	for _, name := range metadata.BuiltinShaders {
		config := &metadata.ShaderConfig{Name: name}
		if shaderSystem.assetManager != nil {
			res, err := shaderSystem.assetManager.LoadAsset(name, metadata.ResourceTypeShader, nil)
			if err != nil {
				return err
			}
			config = res.Data.(*metadata.ShaderConfig)
		}
		if _, err := shaderSystem.Create(config); err != nil {
			return err
		}
	}
	return nil
}

/**
 * @brief Shuts down the shader system, destroying any shader still in existence.
 */
func (shaderSystem *ShaderSystem) Shutdown() error {
	for name, s := range shaderSystem.Lookup {
		shaderSystem.backend.ShaderDestroy(s)
		delete(shaderSystem.Lookup, name)
	}
	shaderSystem.Current = nil
	return nil
}

/**
 * @brief Creates a new shader with the given config.
 */
func (shaderSystem *ShaderSystem) Create(config *metadata.ShaderConfig) (*metadata.Shader, error) {
	if _, ok := shaderSystem.Lookup[config.Name]; ok {
		return nil, fmt.Errorf("shader %s already exists", config.Name)
	}
	if len(shaderSystem.Lookup) >= int(shaderSystem.Config.MaxShaderCount) {
		return nil, fmt.Errorf("shader %s: %w (limit %d)", config.Name, core.ErrResourceExhaustion, shaderSystem.Config.MaxShaderCount)
	}
	shader := &metadata.Shader{Name: config.Name}
	if err := shaderSystem.backend.ShaderCreate(shader, config); err != nil {
		core.LogError("failed to create shader %s: %s", config.Name, err)
		return nil, err
	}
	shaderSystem.Lookup[config.Name] = shader
	core.LogDebug("shader %s created", config.Name)
	return shader, nil
}

func (shaderSystem *ShaderSystem) Get(name string) (*metadata.Shader, error) {
	s, ok := shaderSystem.Lookup[name]
	if !ok {
		return nil, fmt.Errorf("shader %s: %w", name, core.ErrShaderNotFound)
	}
	return s, nil
}

// Use makes the named shader current.
func (shaderSystem *ShaderSystem) Use(name string) (*metadata.Shader, error) {
	s, err := shaderSystem.Get(name)
	if err != nil {
		return nil, err
	}
	if err := shaderSystem.backend.ShaderUse(s); err != nil {
		return nil, err
	}
	shaderSystem.Current = s
	return s, nil
}

// SetUniform sets a shader parameter. A parameter the program does not expose is
// reported once per shader and name, and the frame carries on.
func (shaderSystem *ShaderSystem) SetUniform(shader *metadata.Shader, name string, value interface{}) error {
	err := shaderSystem.backend.SetUniform(shader, name, value)
	if err == nil {
		return nil
	}
	if errors.Is(err, core.ErrUniformNotFound) || errors.Is(err, core.ErrUniformType) {
		core.LogWarnOnce(shader.Name+"/"+name, "shader binding gap: %s", err)
		return nil
	}
	return err
}

// BindSampler binds texture to the unit of role and points the role's sampler at it.
func (shaderSystem *ShaderSystem) BindSampler(shader *metadata.Shader, role metadata.TextureRole, texture metadata.TextureHandle) error {
	binding, ok := metadata.SamplerBindings[role]
	if !ok {
		return fmt.Errorf("no sampler binding for role %s", role)
	}
	shaderSystem.backend.TextureBind(binding.Unit, texture)
	return shaderSystem.SetUniform(shader, binding.Uniform, int32(binding.Unit))
}

// UnbindSampler leaves the unit of role empty.
func (shaderSystem *ShaderSystem) UnbindSampler(role metadata.TextureRole) {
	if binding, ok := metadata.SamplerBindings[role]; ok {
		shaderSystem.backend.TextureBind(binding.Unit, metadata.NoTexture)
	}
}
