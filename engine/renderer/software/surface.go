package software

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
	"github.com/x448/float16"
)

// surface is the storage behind textures, renderbuffers and the default framebuffer.
// Texels are kept as RGBA floats, quantized to the precision of their format on store.
type surface struct {
	width   int
	height  int
	samples int
	faces   int
	format  metadata.TextureFormat
	filter  metadata.TextureFilter
	wrap    metadata.TextureWrap
	data    [][]float32
}

func newSurface(width, height, samples int, format metadata.TextureFormat, faces int) *surface {
	if samples < 1 {
		samples = 1
	}
	if faces < 1 {
		faces = 1
	}
	s := &surface{
		width:   width,
		height:  height,
		samples: samples,
		faces:   faces,
		format:  format,
		data:    make([][]float32, faces),
	}
	for i := range s.data {
		s.data[i] = make([]float32, width*height*samples*4)
	}
	return s
}

func (s *surface) cubemap() bool {
	return s.faces == 6
}

func (s *surface) sizeBytes() uint64 {
	return uint64(s.width) * uint64(s.height) * uint64(s.samples) * uint64(s.faces) * uint64(s.format.BytesPerPixel())
}

func (s *surface) index(x, y, sample int) int {
	return ((y*s.width+x)*s.samples + sample) * 4
}

func (s *surface) store(face, x, y, sample int, c mgl32.Vec4) {
	q := quantize(s.format, c)
	i := s.index(x, y, sample)
	copy(s.data[face][i:i+4], q[:])
}

// storeAll writes every sample of the texel.
func (s *surface) storeAll(face, x, y int, c mgl32.Vec4) {
	q := quantize(s.format, c)
	for sample := 0; sample < s.samples; sample++ {
		i := s.index(x, y, sample)
		copy(s.data[face][i:i+4], q[:])
	}
}

func (s *surface) load(face, x, y, sample int) mgl32.Vec4 {
	i := s.index(x, y, sample)
	d := s.data[face]
	return mgl32.Vec4{d[i], d[i+1], d[i+2], d[i+3]}
}

// resolve averages every sample of the texel.
func (s *surface) resolve(face, x, y int) mgl32.Vec4 {
	if s.samples == 1 {
		return s.load(face, x, y, 0)
	}
	var sum [4]float64
	for sample := 0; sample < s.samples; sample++ {
		c := s.load(face, x, y, sample)
		for k := 0; k < 4; k++ {
			sum[k] += float64(c[k])
		}
	}
	n := float64(s.samples)
	return mgl32.Vec4{float32(sum[0] / n), float32(sum[1] / n), float32(sum[2] / n), float32(sum[3] / n)}
}

func (s *surface) fill(c mgl32.Vec4) {
	q := quantize(s.format, c)
	for face := range s.data {
		d := s.data[face]
		for i := 0; i < len(d); i += 4 {
			copy(d[i:i+4], q[:])
		}
	}
}

// fetch reads a texel with clamp to edge addressing.
func (s *surface) fetch(face, x, y int) mgl32.Vec4 {
	x = clampInt(x, 0, s.width-1)
	y = clampInt(y, 0, s.height-1)
	return s.load(face, x, y, 0)
}

// sample performs a nearest lookup honoring the wrap mode.
func (s *surface) sample(face int, uv mgl32.Vec2) mgl32.Vec4 {
	u, v := uv.X(), uv.Y()
	if s.wrap == metadata.WrapRepeat {
		u = u - float32(math.Floor(float64(u)))
		v = v - float32(math.Floor(float64(v)))
	}
	x := int(math.Floor(float64(u * float32(s.width))))
	y := int(math.Floor(float64(v * float32(s.height))))
	return s.fetch(face, x, y)
}

// upload copies tightly packed RGBA8 rows into the face.
func (s *surface) upload(face int, pixels []uint8) {
	for y := 0; y < s.height; y++ {
		for x := 0; x < s.width; x++ {
			i := (y*s.width + x) * 4
			if i+3 >= len(pixels) {
				return
			}
			c := mgl32.Vec4{
				float32(pixels[i]) / 255,
				float32(pixels[i+1]) / 255,
				float32(pixels[i+2]) / 255,
				float32(pixels[i+3]) / 255,
			}
			s.storeAll(face, x, y, c)
		}
	}
}

func quantize(format metadata.TextureFormat, c mgl32.Vec4) mgl32.Vec4 {
	switch format {
	case metadata.FormatRGB8, metadata.FormatRGBA8:
		for i := range c {
			c[i] = float32(math.Round(float64(mgl32.Clamp(c[i], 0, 1))*255)) / 255
		}
	case metadata.FormatRGB16F, metadata.FormatRGBA16F:
		for i := range c {
			c[i] = float16.Fromfloat32(c[i]).Float32()
		}
	case metadata.FormatDepth24, metadata.FormatDepth24Stencil8:
		return mgl32.Vec4{mgl32.Clamp(c[0], 0, 1), 0, 0, 1}
	}
	if format.Channels() == 3 {
		c[3] = 1
	}
	return c
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
