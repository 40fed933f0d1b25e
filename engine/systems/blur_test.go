package systems

import (
	"fmt"
	"strings"
	"testing"

	"github.com/spaghettifunk/prism/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBlurStage(t *testing.T, r *rig, width, height uint32) *BlurStage {
	t.Helper()
	stage := NewBlurStage(r.targets, r.shaders, NewFullScreenQuad(r.geometries, r.backend), r.backend)
	require.NoError(t, stage.Initialize(width, height))
	return stage
}

func TestBlurPingPongParity(t *testing.T) {
	for amount := 0; amount <= 6; amount++ {
		t.Run(fmt.Sprintf("amount=%d", amount), func(t *testing.T) {
			r := newRig(t, 8, 8, false)
			stage := newBlurStage(t, r, 8, 8)
			source := r.solidTexture(t, 8, 8, [4]uint8{255, 255, 255, 255})

			r.backend.Trace().Reset()
			result, err := stage.Run(source, amount)
			require.NoError(t, err)

			draws := r.backend.Trace().DrawsWith(metadata.BUILTIN_SHADER_NAME_BLUR)
			require.Len(t, draws, amount)
			require.Len(t, result.Iterations, amount)

			if amount == 0 {
				assert.Equal(t, source, result.Texture)
				assert.Equal(t, -1, result.Buffer)
				return
			}

			buffers := [2]*metadata.RenderTarget{}
			for i, name := range pingPongTargets {
				target, err := r.targets.Get(name)
				require.NoError(t, err)
				buffers[i] = target
			}

			for i, it := range result.Iterations {
				assert.Equal(t, i%2 == 0, it.Horizontal, "iteration %d", i)
				assert.NotEqual(t, it.ReadBuffer, it.Write, "iteration %d", i)
				if i == 0 {
					assert.Equal(t, source, it.Read)
					assert.Equal(t, -1, it.ReadBuffer)
				} else {
					prev := result.Iterations[i-1]
					assert.Equal(t, prev.Write, it.ReadBuffer)
					assert.Equal(t, buffers[prev.Write].ColorAttachments[0].Texture, it.Read)
				}

				draw := draws[i]
				assert.Equal(t, it.Horizontal, draw.Uniforms["horizontal"])
				assert.Equal(t, it.Read, draw.Units[0])
				assert.True(t, strings.HasPrefix(draw.Target, pingPongTargets[it.Write]), draw.Target)
				assert.Equal(t, metadata.DepthDisabled, draw.Depth)
			}

			last := result.Iterations[amount-1]
			assert.Equal(t, last.Write, result.Buffer)
			assert.Equal(t, buffers[last.Write].ColorAttachments[0].Texture, result.Texture)
		})
	}
}

func TestBlurOfWhiteStaysWhite(t *testing.T) {
	const size = 256
	r := newRig(t, 8, 8, false)
	stage := newBlurStage(t, r, size, size)
	source := r.solidTexture(t, size, size, [4]uint8{255, 255, 255, 255})

	result, err := stage.Run(source, 10)
	require.NoError(t, err)
	require.Equal(t, 0, result.Buffer)

	target, err := r.targets.Get(pingPongTargets[result.Buffer])
	require.NoError(t, err)
	pixels := r.read(t, target.Framebuffer, 0, size, size)
	for i := 0; i < len(pixels); i += 4 {
		for c := 0; c < 3; c++ {
			if !assert.InDelta(t, 1, pixels[i+c], 1e-3, "pixel %d channel %d", i/4, c) {
				return
			}
		}
	}
}

func TestBlurRejectsWriteBufferAsSource(t *testing.T) {
	r := newRig(t, 8, 8, false)
	stage := newBlurStage(t, r, 8, 8)
	target, err := r.targets.Get(TargetPingPong1)
	require.NoError(t, err)

	_, err = stage.Run(target.ColorAttachments[0].Texture, 2)
	assert.Error(t, err)
}

func TestFullScreenQuadIsIdempotent(t *testing.T) {
	r := newRig(t, 8, 8, false)
	quad := NewFullScreenQuad(r.geometries, r.backend)
	target, err := r.targets.Create(PingPongSpec(0), 8, 8)
	require.NoError(t, err)
	source := r.solidTexture(t, 8, 8, [4]uint8{10, 200, 30, 255})

	shader, err := r.shaders.Use(metadata.BUILTIN_SHADER_NAME_SCREEN)
	require.NoError(t, err)
	require.NoError(t, r.shaders.BindSampler(shader, metadata.RoleScreen, source))
	require.NoError(t, r.targets.Bind(target))

	require.NoError(t, quad.DrawFullScreenQuad())
	first := r.read(t, target.Framebuffer, 0, 8, 8)
	require.NoError(t, quad.DrawFullScreenQuad())
	second := r.read(t, target.Framebuffer, 0, 8, 8)
	assert.Equal(t, first, second)

	draws := r.backend.Trace().DrawsWith(metadata.BUILTIN_SHADER_NAME_SCREEN)
	require.Len(t, draws, 2)
	assert.Equal(t, GeometryNameScreenQuad, draws[0].Geometry)
	assert.Equal(t, GeometryNameScreenQuad, draws[1].Geometry)
	assert.Len(t, r.geometries.Lookup, 1)
}
