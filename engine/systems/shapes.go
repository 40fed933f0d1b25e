package systems

import "github.com/go-gl/mathgl/mgl32"

// CubeMesh returns a cube spanning [-1,1] on every axis as 36 unindexed
// position/normal/uv vertices, faces wound counter-clockwise.
func CubeMesh() []float32 {
	type face struct {
		normal mgl32.Vec3
		u, v   mgl32.Vec3
	}
	faces := []face{
		{mgl32.Vec3{0, 0, -1}, mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{0, -1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, 1}},
		{mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}},
	}
	corners := [6][2]float32{{0, 0}, {1, 0}, {1, 1}, {1, 1}, {0, 1}, {0, 0}}

	vertices := make([]float32, 0, 36*8)
	for _, f := range faces {
		for _, c := range corners {
			p := f.normal.Add(f.u.Mul(c[0]*2 - 1)).Add(f.v.Mul(c[1]*2 - 1))
			vertices = append(vertices, p[0], p[1], p[2], f.normal[0], f.normal[1], f.normal[2], c[0], c[1])
		}
	}
	return vertices
}

// PyramidMesh returns the square based pyramid of the demo scene.
func PyramidMesh() ([]float32, []uint32) {
	vertices := []float32{
		// position          normal            uv
		-0.5, 0.0, 0.5, 1.0, 0.0, 0.0, 0.0, 0.0,
		-0.5, 0.0, -0.5, 0.0, 1.0, 0.0, 5.0, 0.0,
		0.5, 0.0, -0.5, -1.0, 0.0, 0.0, 0.0, 0.0,
		0.5, 0.0, 0.5, 0.0, -1.0, 0.0, 5.0, 0.0,
		0.0, 0.8, 0.0, 0.0, 0.0, 1.0, 2.5, 5.0,
	}
	indices := []uint32{
		0, 1, 3,
		1, 2, 3,
		0, 1, 4,
		0, 3, 4,
		2, 3, 4,
		1, 2, 4,
	}
	return vertices, indices
}

// SkyboxMesh returns the positions of a cube seen from the inside.
func SkyboxMesh() []float32 {
	cube := CubeMesh()
	vertices := make([]float32, 0, 36*3)
	for i := 0; i < len(cube); i += 8 {
		vertices = append(vertices, cube[i], cube[i+1], cube[i+2])
	}
	return vertices
}

// ScreenQuadMesh covers normalized device coordinates with uvs in [0,1].
func ScreenQuadMesh() ([]float32, []uint32) {
	vertices := []float32{
		// position   uv
		-1.0, 1.0, 0.0, 1.0,
		-1.0, -1.0, 0.0, 0.0,
		1.0, -1.0, 1.0, 0.0,
		1.0, 1.0, 1.0, 1.0,
	}
	indices := []uint32{0, 1, 2, 0, 2, 3}
	return vertices, indices
}

// PlaneMesh returns a unit quad in the XZ plane facing +Y, with tangents for normal mapping.
func PlaneMesh() ([]float32, []uint32) {
	vertices := []float32{
		-1.0, 0.0, 1.0, 0.0, 1.0, 0.0, 0.0, 0.0,
		1.0, 0.0, 1.0, 0.0, 1.0, 0.0, 1.0, 0.0,
		1.0, 0.0, -1.0, 0.0, 1.0, 0.0, 1.0, 1.0,
		-1.0, 0.0, -1.0, 0.0, 1.0, 0.0, 0.0, 1.0,
	}
	indices := []uint32{0, 1, 2, 0, 2, 3}
	return ComputeTangents(vertices, indices), indices
}

// ComputeTangents expands position/normal/uv vertices with per-vertex tangent and
// bitangent vectors accumulated over the triangles that use them.
func ComputeTangents(vertices []float32, indices []uint32) []float32 {
	const in, out = 8, 14
	count := len(vertices) / in
	tangents := make([]mgl32.Vec3, count)
	bitangents := make([]mgl32.Vec3, count)

	vec := func(i, offset int) mgl32.Vec3 {
		return mgl32.Vec3{vertices[i*in+offset], vertices[i*in+offset+1], vertices[i*in+offset+2]}
	}
	uv := func(i int) mgl32.Vec2 {
		return mgl32.Vec2{vertices[i*in+6], vertices[i*in+7]}
	}
	accum := func(i0, i1, i2 int) {
		e1 := vec(i1, 0).Sub(vec(i0, 0))
		e2 := vec(i2, 0).Sub(vec(i0, 0))
		d1 := uv(i1).Sub(uv(i0))
		d2 := uv(i2).Sub(uv(i0))
		denom := d1[0]*d2[1] - d2[0]*d1[1]
		if denom == 0 {
			return
		}
		r := 1 / denom
		t := e1.Mul(d2[1] * r).Sub(e2.Mul(d1[1] * r))
		b := e2.Mul(d1[0] * r).Sub(e1.Mul(d2[0] * r))
		for _, i := range []int{i0, i1, i2} {
			tangents[i] = tangents[i].Add(t)
			bitangents[i] = bitangents[i].Add(b)
		}
	}
	if len(indices) > 0 {
		for i := 0; i+2 < len(indices); i += 3 {
			accum(int(indices[i]), int(indices[i+1]), int(indices[i+2]))
		}
	} else {
		for i := 0; i+2 < count; i += 3 {
			accum(i, i+1, i+2)
		}
	}

	result := make([]float32, 0, count*out)
	for i := 0; i < count; i++ {
		n := vec(i, 3)
		t := tangents[i].Sub(n.Mul(n.Dot(tangents[i])))
		if t.Len() < 1e-4 {
			t = n.Cross(mgl32.Vec3{0, 0, 1})
			if t.Len() < 1e-4 {
				t = n.Cross(mgl32.Vec3{1, 0, 0})
			}
		}
		t = t.Normalize()
		b := bitangents[i]
		if b.Len() < 1e-4 {
			b = n.Cross(t)
		}
		b = b.Normalize()
		result = append(result, vertices[i*in:(i+1)*in]...)
		result = append(result, t[0], t[1], t[2], b[0], b[1], b[2])
	}
	return result
}
