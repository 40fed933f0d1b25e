package loaders

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

type ImageLoader struct{}

// decodeImage decodes any registered format into tightly packed RGBA8 rows.
func decodeImage(path string, params *metadata.ImageResourceParams) (*metadata.ImageResourceData, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &core.MissingAssetError{Path: path, Err: err}
	}
	defer file.Close()

	img, format, err := image.Decode(file)
	if err != nil {
		return nil, &core.MissingAssetError{Path: path, Err: err}
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return nil, &core.MissingAssetError{Path: path, Err: fmt.Errorf("empty %s image", format)}
	}
	if params.MaxSize > 0 && (width > int(params.MaxSize) || height > int(params.MaxSize)) {
		scale := float64(params.MaxSize) / float64(max(width, height))
		width = max(1, int(float64(width)*scale))
		height = max(1, int(float64(height)*scale))
		core.LogDebug("downscaling %s to %dx%d", path, width, height)
	}

	rgba := image.NewRGBA(image.Rect(0, 0, width, height))
	if width == bounds.Dx() && height == bounds.Dy() {
		draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	} else {
		draw.CatmullRom.Scale(rgba, rgba.Bounds(), img, bounds, draw.Src, nil)
	}

	pixels := rgba.Pix
	if params.FlipY {
		pixels = flipRows(rgba.Pix, width*4, height)
	}
	return &metadata.ImageResourceData{
		Width:  uint32(width),
		Height: uint32(height),
		Pixels: pixels,
	}, nil
}

func flipRows(pixels []uint8, stride, rows int) []uint8 {
	out := make([]uint8, len(pixels))
	for y := 0; y < rows; y++ {
		copy(out[(rows-1-y)*stride:(rows-y)*stride], pixels[y*stride:(y+1)*stride])
	}
	return out
}

func (il *ImageLoader) Load(path string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	typedParams, ok := params.(*metadata.ImageResourceParams)
	if !ok || typedParams == nil {
		typedParams = &metadata.ImageResourceParams{}
	}

	data, err := decodeImage(path, typedParams)
	if err != nil {
		return nil, err
	}
	return &metadata.Resource{
		Name:     "image",
		FullPath: path,
		DataSize: uint64(len(data.Pixels)),
		Data:     data,
	}, nil
}

func (il *ImageLoader) Unload(*metadata.Resource) error {
	return nil
}

// CubemapLoader loads six face images. path is unused, faces come through params.
type CubemapLoader struct{}

type CubemapResourceParams struct {
	// Face paths in +X, -X, +Y, -Y, +Z, -Z order.
	Faces [6]string
}

func (cl *CubemapLoader) Load(path string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	typedParams, ok := params.(*CubemapResourceParams)
	if !ok || typedParams == nil {
		return nil, fmt.Errorf("cubemap %s: missing face list", path)
	}

	out := &metadata.CubemapResourceData{}
	size := uint64(0)
	for i, face := range typedParams.Faces {
		data, err := decodeImage(face, &metadata.ImageResourceParams{})
		if err != nil {
			return nil, err
		}
		if i == 0 {
			out.Width, out.Height = data.Width, data.Height
		} else if data.Width != out.Width || data.Height != out.Height {
			return nil, fmt.Errorf("cubemap face %s is %dx%d, expected %dx%d", face, data.Width, data.Height, out.Width, out.Height)
		}
		out.Faces[i] = data.Pixels
		size += uint64(len(data.Pixels))
	}
	return &metadata.Resource{
		Name:     "cubemap",
		FullPath: path,
		DataSize: size,
		Data:     out,
	}, nil
}

func (cl *CubemapLoader) Unload(*metadata.Resource) error {
	return nil
}
