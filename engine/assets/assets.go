package assets

import (
	"embed"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/spaghettifunk/prism/engine/assets/loaders"
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

//go:embed shaders
var builtinShaders embed.FS

type AssetInfo struct {
	Path       string
	Type       metadata.ResourceType
	LastLoaded time.Time
}

type AssetManager struct {
	root    string
	assets  map[string]AssetInfo
	loaders map[metadata.ResourceType]Loader

	mutex sync.RWMutex
}

func NewAssetManager() (*AssetManager, error) {
	return &AssetManager{
		assets:  make(map[string]AssetInfo),
		loaders: make(map[metadata.ResourceType]Loader),
	}, nil
}

// Initialize sets the directory textures are resolved against and registers the loaders.
func (am *AssetManager) Initialize(assetsDir string) error {
	am.root = assetsDir

	// Register loaders
	am.registerLoader(metadata.ResourceTypeShader, &loaders.ShaderLoader{FS: builtinShaders})
	am.registerLoader(metadata.ResourceTypeImage, &loaders.ImageLoader{})
	am.registerLoader(metadata.ResourceTypeCubemap, &loaders.CubemapLoader{})

	return nil
}

// Register loaders for each asset type
func (am *AssetManager) registerLoader(assetType metadata.ResourceType, loader Loader) {
	am.loaders[assetType] = loader
}

func (am *AssetManager) resolve(filename string) string {
	if filepath.IsAbs(filename) || am.root == "" {
		return filename
	}
	return filepath.Join(am.root, filename)
}

// Load an asset using the appropriate loader
func (am *AssetManager) LoadAsset(filename string, resourceType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	path := filename
	switch resourceType {
	case metadata.ResourceTypeShader:
	case metadata.ResourceTypeImage:
		path = am.resolve(filename)
	case metadata.ResourceTypeCubemap:
		if p, ok := params.(*loaders.CubemapResourceParams); ok {
			resolved := &loaders.CubemapResourceParams{}
			for i, face := range p.Faces {
				resolved.Faces[i] = am.resolve(face)
			}
			params = resolved
		}
	default:
		return nil, fmt.Errorf("unknown resource type %d", resourceType)
	}

	loader, loaderExists := am.loaders[resourceType]
	if !loaderExists {
		return nil, fmt.Errorf("no loader registered for asset type: %d", resourceType)
	}

	resource, err := loader.Load(path, resourceType, params)
	if err != nil {
		core.LogError("failed to load asset %s: %s", path, err)
		return nil, err
	}

	am.mutex.Lock()
	am.assets[path] = AssetInfo{Path: path, Type: resourceType, LastLoaded: time.Now()}
	am.mutex.Unlock()

	return resource, nil
}

// Loaded reports whether path was loaded successfully at least once.
func (am *AssetManager) Loaded(path string) bool {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	_, ok := am.assets[am.resolve(path)]
	return ok
}

func (am *AssetManager) UnloadAsset(resource *metadata.Resource) error {
	am.mutex.Lock()
	delete(am.assets, resource.FullPath)
	am.mutex.Unlock()
	return nil
}

func (am *AssetManager) Shutdown() error {
	am.mutex.Lock()
	am.assets = make(map[string]AssetInfo)
	am.mutex.Unlock()
	return nil
}
