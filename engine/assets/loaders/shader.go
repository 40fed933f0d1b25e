package loaders

import (
	"fmt"
	"io/fs"
	"path"

	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

type ShaderLoader struct {
	// Source tree holding <stem>.vert and <stem>.frag files.
	FS fs.FS
}

var shaderFiles = map[string]string{
	metadata.BUILTIN_SHADER_NAME_PHONG:    "phong",
	metadata.BUILTIN_SHADER_NAME_GBUFFER:  "gbuffer",
	metadata.BUILTIN_SHADER_NAME_DEFERRED: "deferred",
	metadata.BUILTIN_SHADER_NAME_LIGHTBOX: "lightbox",
	metadata.BUILTIN_SHADER_NAME_SKYBOX:   "skybox",
	metadata.BUILTIN_SHADER_NAME_BLUR:     "blur",
	metadata.BUILTIN_SHADER_NAME_BLOOM:    "bloom_final",
	metadata.BUILTIN_SHADER_NAME_SCREEN:   "screen",
}

// Load reads the stage sources of the named shader. name is a shader name, not a file.
func (sl *ShaderLoader) Load(name string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	stem, ok := shaderFiles[name]
	if !ok {
		return nil, fmt.Errorf("no sources registered for shader %s", name)
	}
	vert, err := fs.ReadFile(sl.FS, path.Join("shaders", stem+".vert"))
	if err != nil {
		return nil, err
	}
	frag, err := fs.ReadFile(sl.FS, path.Join("shaders", stem+".frag"))
	if err != nil {
		return nil, err
	}
	return &metadata.Resource{
		Name:     name,
		FullPath: path.Join("shaders", stem),
		DataSize: uint64(len(vert) + len(frag)),
		Data: &metadata.ShaderConfig{
			Name:           name,
			VertexSource:   string(vert),
			FragmentSource: string(frag),
		},
	}, nil
}

func (sl *ShaderLoader) Unload(*metadata.Resource) error {
	return nil
}
