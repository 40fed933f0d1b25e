package assets

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/spaghettifunk/prism/engine/assets/loaders"
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T, root string) *AssetManager {
	t.Helper()
	am, err := NewAssetManager()
	require.NoError(t, err)
	require.NoError(t, am.Initialize(root))
	return am
}

// writePNG writes a 2x2 image whose top row is red and bottom row is blue.
func writePNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for x := 0; x < 2; x++ {
		img.Set(x, 0, color.RGBA{R: 255, A: 255})
		img.Set(x, 1, color.RGBA{B: 255, A: 255})
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestLoadImageFlip(t *testing.T) {
	root := t.TempDir()
	writePNG(t, filepath.Join(root, "wall.png"))
	am := newManager(t, root)

	res, err := am.LoadAsset("wall.png", metadata.ResourceTypeImage, &metadata.ImageResourceParams{FlipY: true})
	require.NoError(t, err)
	data := res.Data.(*metadata.ImageResourceData)
	assert.Equal(t, uint32(2), data.Width)
	assert.Equal(t, uint32(2), data.Height)
	// first row is now the bottom (blue) row of the file
	assert.Equal(t, []uint8{0, 0, 255, 255}, data.Pixels[0:4])
	assert.Equal(t, []uint8{255, 0, 0, 255}, data.Pixels[8:12])
	assert.True(t, am.Loaded("wall.png"))

	res, err = am.LoadAsset("wall.png", metadata.ResourceTypeImage, nil)
	require.NoError(t, err)
	assert.Equal(t, []uint8{255, 0, 0, 255}, res.Data.(*metadata.ImageResourceData).Pixels[0:4])
}

func TestLoadImageDownscale(t *testing.T) {
	root := t.TempDir()
	img := image.NewRGBA(image.Rect(0, 0, 64, 32))
	f, err := os.Create(filepath.Join(root, "big.png"))
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	am := newManager(t, root)
	res, err := am.LoadAsset("big.png", metadata.ResourceTypeImage, &metadata.ImageResourceParams{MaxSize: 16})
	require.NoError(t, err)
	data := res.Data.(*metadata.ImageResourceData)
	assert.Equal(t, uint32(16), data.Width)
	assert.Equal(t, uint32(8), data.Height)
	assert.Len(t, data.Pixels, 16*8*4)
}

func TestLoadMissingImage(t *testing.T) {
	am := newManager(t, t.TempDir())
	_, err := am.LoadAsset("nope.png", metadata.ResourceTypeImage, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrMissingAsset))

	var missing *core.MissingAssetError
	require.True(t, errors.As(err, &missing))
	assert.Contains(t, missing.Path, "nope.png")
}

func TestLoadCubemap(t *testing.T) {
	root := t.TempDir()
	params := &loaders.CubemapResourceParams{}
	for i, name := range []string{"right", "left", "top", "bottom", "front", "back"} {
		writePNG(t, filepath.Join(root, name+".png"))
		params.Faces[i] = name + ".png"
	}
	am := newManager(t, root)

	res, err := am.LoadAsset("skybox", metadata.ResourceTypeCubemap, params)
	require.NoError(t, err)
	data := res.Data.(*metadata.CubemapResourceData)
	assert.Equal(t, uint32(2), data.Width)
	for _, face := range data.Faces {
		assert.Len(t, face, 16)
	}

	params.Faces[3] = "missing.png"
	_, err = am.LoadAsset("skybox", metadata.ResourceTypeCubemap, params)
	assert.True(t, errors.Is(err, core.ErrMissingAsset))
}

func TestBuiltinShaderSources(t *testing.T) {
	am := newManager(t, "")
	for _, name := range metadata.BuiltinShaders {
		res, err := am.LoadAsset(name, metadata.ResourceTypeShader, nil)
		require.NoError(t, err, name)
		cfg := res.Data.(*metadata.ShaderConfig)
		assert.Equal(t, name, cfg.Name)
		assert.Contains(t, cfg.VertexSource, "#version 410 core")
		assert.Contains(t, cfg.FragmentSource, "void main()")
	}

	_, err := am.LoadAsset("Shader.Unknown", metadata.ResourceTypeShader, nil)
	assert.Error(t, err)
}
