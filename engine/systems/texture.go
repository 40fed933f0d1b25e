package systems

import (
	"errors"
	"fmt"
	"sync"

	"github.com/spaghettifunk/prism/engine/assets"
	"github.com/spaghettifunk/prism/engine/assets/loaders"
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

const defaultTextureSize = 16

type TextureSystemConfig struct {
	/** @brief The maximum number of textures that can be loaded at once. */
	MaxTextureCount uint32
	/** @brief Images larger than this are downscaled on load, 0 keeps the source size. */
	MaxTextureSize uint32
}

type TextureSystem struct {
	Config *TextureSystemConfig
	// Checkerboard bound in place of any diffuse texture that failed to load.
	DefaultTexture  metadata.TextureHandle
	DefaultSpecular metadata.TextureHandle
	DefaultNormal   metadata.TextureHandle
	DefaultCubemap  metadata.TextureHandle
	// Hashtable for texture lookups.
	Lookup map[string]metadata.TextureHandle
	// sub systems
	assetManager *assets.AssetManager
	backend      renderer.RendererBackend
}

func NewTextureSystem(config *TextureSystemConfig, am *assets.AssetManager, backend renderer.RendererBackend) (*TextureSystem, error) {
	if config.MaxTextureCount == 0 {
		err := fmt.Errorf("func NewTextureSystem - config.MaxTextureCount must be > 0")
		core.LogError(err.Error())
		return nil, err
	}
	return &TextureSystem{
		Config:       config,
		Lookup:       make(map[string]metadata.TextureHandle),
		assetManager: am,
		backend:      backend,
	}, nil
}

func solidPixels(size int, r, g, b uint8) []uint8 {
	pixels := make([]uint8, size*size*4)
	for i := 0; i < len(pixels); i += 4 {
		pixels[i], pixels[i+1], pixels[i+2], pixels[i+3] = r, g, b, 255
	}
	return pixels
}

func checkerPixels(size int) []uint8 {
	pixels := solidPixels(size, 255, 255, 255)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if (x/4+y/4)%2 == 0 {
				i := (y*size + x) * 4
				// magenta
				pixels[i+1] = 0
			}
		}
	}
	return pixels
}

// Initialize creates the default textures used as fallbacks.
func (ts *TextureSystem) Initialize() error {
	var err error
	config := &metadata.TextureConfig{
		Width:  defaultTextureSize,
		Height: defaultTextureSize,
		Format: metadata.FormatRGBA8,
		Filter: metadata.FilterNearest,
		Wrap:   metadata.WrapRepeat,
	}

	config.Name = "Texture.Default"
	if ts.DefaultTexture, err = ts.backend.TextureCreate(config, checkerPixels(defaultTextureSize)); err != nil {
		return err
	}
	config.Name = "Texture.DefaultSpecular"
	if ts.DefaultSpecular, err = ts.backend.TextureCreate(config, solidPixels(defaultTextureSize, 0, 0, 0)); err != nil {
		return err
	}
	config.Name = "Texture.DefaultNormal"
	if ts.DefaultNormal, err = ts.backend.TextureCreate(config, solidPixels(defaultTextureSize, 128, 128, 255)); err != nil {
		return err
	}

	config.Name = "Texture.DefaultCubemap"
	gray := solidPixels(defaultTextureSize, 128, 128, 128)
	if ts.DefaultCubemap, err = ts.backend.TextureCreateCubemap(config, [6][]uint8{gray, gray, gray, gray, gray, gray}); err != nil {
		return err
	}
	return nil
}

func (ts *TextureSystem) Shutdown() error {
	for name, h := range ts.Lookup {
		ts.backend.TextureDestroy(h)
		delete(ts.Lookup, name)
	}
	for _, h := range []metadata.TextureHandle{ts.DefaultTexture, ts.DefaultSpecular, ts.DefaultNormal, ts.DefaultCubemap} {
		if h != metadata.NoTexture {
			ts.backend.TextureDestroy(h)
		}
	}
	return nil
}

// Default returns the fallback texture for a material role.
func (ts *TextureSystem) Default(role metadata.TextureRole) metadata.TextureHandle {
	switch role {
	case metadata.RoleSpecular:
		return ts.DefaultSpecular
	case metadata.RoleNormal, metadata.RoleHeight:
		return ts.DefaultNormal
	case metadata.RoleSkybox:
		return ts.DefaultCubemap
	}
	return ts.DefaultTexture
}

func (ts *TextureSystem) register(name string) error {
	if len(ts.Lookup) >= int(ts.Config.MaxTextureCount) {
		return fmt.Errorf("texture %s: %w (limit %d)", name, core.ErrResourceExhaustion, ts.Config.MaxTextureCount)
	}
	return nil
}

/**
 * @brief Acquires a 2D texture by asset path, loading it on first use.
 * A texture that cannot be loaded resolves to the default texture; only
 * backend allocation failures are returned.
 */
func (ts *TextureSystem) Acquire(path string) (metadata.TextureHandle, error) {
	if h, ok := ts.Lookup[path]; ok {
		return h, nil
	}
	if err := ts.register(path); err != nil {
		return metadata.NoTexture, err
	}
	image, err := ts.decode(path)
	if err != nil {
		return ts.fallback(path, err)
	}
	return ts.upload(path, image)
}

// Preload decodes the images on the job system workers and uploads them from
// the calling thread, which must own the graphics context.
func (ts *TextureSystem) Preload(jobs *JobSystem, paths []string) error {
	type decoded struct {
		image *metadata.ImageResourceData
		err   error
	}
	results := make([]decoded, len(paths))

	var wg sync.WaitGroup
	for i, path := range paths {
		if _, ok := ts.Lookup[path]; ok {
			continue
		}
		wg.Add(1)
		jobs.Submit(JobTask{
			OnStart: func() (interface{}, error) {
				return ts.decode(path)
			},
			OnComplete: func(result interface{}) {
				results[i].image = result.(*metadata.ImageResourceData)
			},
			OnFailure: func(err error) {
				results[i].err = err
			},
			OnCompletionCallback: wg.Done,
		})
	}
	wg.Wait()

	for i, path := range paths {
		if _, ok := ts.Lookup[path]; ok {
			continue
		}
		if err := ts.register(path); err != nil {
			return err
		}
		if results[i].err != nil {
			if _, err := ts.fallback(path, results[i].err); err != nil {
				return err
			}
			continue
		}
		if _, err := ts.upload(path, results[i].image); err != nil {
			return err
		}
	}
	return nil
}

func (ts *TextureSystem) decode(path string) (*metadata.ImageResourceData, error) {
	res, err := ts.assetManager.LoadAsset(path, metadata.ResourceTypeImage, &metadata.ImageResourceParams{
		FlipY:   true,
		MaxSize: ts.Config.MaxTextureSize,
	})
	if err != nil {
		return nil, err
	}
	return res.Data.(*metadata.ImageResourceData), nil
}

func (ts *TextureSystem) fallback(path string, err error) (metadata.TextureHandle, error) {
	if errors.Is(err, core.ErrMissingAsset) {
		core.LogWarn("texture %s failed to load, using the default texture", path)
		return ts.DefaultTexture, nil
	}
	return metadata.NoTexture, err
}

func (ts *TextureSystem) upload(path string, image *metadata.ImageResourceData) (metadata.TextureHandle, error) {
	h, err := ts.backend.TextureCreate(&metadata.TextureConfig{
		Name:   path,
		Width:  image.Width,
		Height: image.Height,
		Format: metadata.FormatRGBA8,
		Filter: metadata.FilterLinearMipmap,
		Wrap:   metadata.WrapRepeat,
	}, image.Pixels)
	if err != nil {
		return metadata.NoTexture, err
	}
	ts.Lookup[path] = h
	return h, nil
}

// AcquireCubemap loads six faces in +X, -X, +Y, -Y, +Z, -Z order under name.
func (ts *TextureSystem) AcquireCubemap(name string, faces [6]string) (metadata.TextureHandle, error) {
	if h, ok := ts.Lookup[name]; ok {
		return h, nil
	}
	if err := ts.register(name); err != nil {
		return metadata.NoTexture, err
	}

	res, err := ts.assetManager.LoadAsset(name, metadata.ResourceTypeCubemap, &loaders.CubemapResourceParams{Faces: faces})
	if err != nil {
		if errors.Is(err, core.ErrMissingAsset) {
			core.LogWarn("cubemap %s failed to load, using the default cubemap", name)
			return ts.DefaultCubemap, nil
		}
		return metadata.NoTexture, err
	}

	cube := res.Data.(*metadata.CubemapResourceData)
	h, err := ts.backend.TextureCreateCubemap(&metadata.TextureConfig{
		Name:   name,
		Width:  cube.Width,
		Height: cube.Height,
		Format: metadata.FormatRGBA8,
		Filter: metadata.FilterLinear,
		Wrap:   metadata.WrapClampToEdge,
	}, cube.Faces)
	if err != nil {
		return metadata.NoTexture, err
	}
	ts.Lookup[name] = h
	return h, nil
}

func (ts *TextureSystem) Release(name string) {
	if h, ok := ts.Lookup[name]; ok {
		ts.backend.TextureDestroy(h)
		delete(ts.Lookup, name)
	}
}
