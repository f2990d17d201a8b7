// Package mesh builds renderable tube surfaces from particle chains.
package mesh

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Mesh is a triangle mesh suitable for rendering.
// All arrays are flat: Vertices and Normals hold 3 floats per vertex,
// UVs hold 2 floats per vertex, Indices hold 3 entries per triangle.
type Mesh struct {
	Vertices []float32
	Normals  []float32
	UVs      []float32
	Indices  []uint32
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// Vertex returns vertex i as a vector.
func (m *Mesh) Vertex(i int) r3.Vec {
	return r3.Vec{X: float64(m.Vertices[3*i]), Y: float64(m.Vertices[3*i+1]), Z: float64(m.Vertices[3*i+2])}
}

// reset truncates all buffers, keeping their backing arrays.
func (m *Mesh) reset() {
	m.Vertices = m.Vertices[:0]
	m.Normals = m.Normals[:0]
	m.UVs = m.UVs[:0]
	m.Indices = m.Indices[:0]
}

// Tube sweeps a regular polygon through a polyline.
type Tube struct {
	Sides  int
	Radius float64
}

// NewTube creates a tube generator. Fewer than 3 sides is raised to 3.
func NewTube(sides int, radius float64) *Tube {
	if sides < 3 {
		sides = 3
	}
	return &Tube{Sides: sides, Radius: radius}
}

var (
	worldUp    = r3.Vec{Y: 1}
	worldRight = r3.Vec{X: 1}
)

// Build regenerates every buffer of m from points. Each ring gets
// Sides+1 vertices so the UV seam can wrap. Returns false and leaves m
// untouched when there are fewer than two points.
func (t *Tube) Build(points []r3.Vec, m *Mesh) bool {
	n := len(points)
	if n < 2 {
		return false
	}
	m.reset()

	sides := t.Sides
	if sides < 3 {
		sides = 3
	}
	ringSize := sides + 1

	vScale := 1.0
	if circ := 2 * math.Pi * t.Radius; circ > 0 {
		vScale = 1 / circ
	}

	var normal r3.Vec
	prevTangent := worldUp
	arc := 0.0

	for i := 0; i < n; i++ {
		tangent := ringTangent(points, i, prevTangent)
		normal = ringNormal(tangent, normal, i == 0)
		binormal := r3.Cross(tangent, normal)
		prevTangent = tangent

		if i > 0 {
			arc += r3.Norm(r3.Sub(points[i], points[i-1]))
		}

		for k := 0; k < ringSize; k++ {
			ang := 2 * math.Pi * float64(k) / float64(sides)
			dir := r3.Add(r3.Scale(math.Cos(ang), normal), r3.Scale(math.Sin(ang), binormal))
			v := r3.Add(points[i], r3.Scale(t.Radius, dir))

			m.Vertices = append(m.Vertices, float32(v.X), float32(v.Y), float32(v.Z))
			m.Normals = append(m.Normals, float32(dir.X), float32(dir.Y), float32(dir.Z))
			m.UVs = append(m.UVs, float32(float64(k)/float64(sides)), float32(arc*vScale))
		}
	}

	for i := 0; i < n-1; i++ {
		for k := 0; k < sides; k++ {
			a := uint32(i*ringSize + k)
			b := a + uint32(ringSize)
			m.Indices = append(m.Indices, a, a+1, b, a+1, b+1, b)
		}
	}
	return true
}

// ringTangent uses a central difference except at the two ends.
// A degenerate difference keeps the previous ring's tangent.
func ringTangent(points []r3.Vec, i int, fallback r3.Vec) r3.Vec {
	n := len(points)
	var d r3.Vec
	switch i {
	case 0:
		d = r3.Sub(points[1], points[0])
	case n - 1:
		d = r3.Sub(points[n-1], points[n-2])
	default:
		d = r3.Sub(points[i+1], points[i-1])
	}
	l := r3.Norm(d)
	if l < 1e-12 {
		return fallback
	}
	return r3.Scale(1/l, d)
}

// ringNormal carries the previous normal onto the plane perpendicular to
// tangent so consecutive rings do not twist. The first ring, or a ring whose
// carried normal collapses, falls back to a fixed world reference.
func ringNormal(tangent, prev r3.Vec, first bool) r3.Vec {
	if !first {
		if n, ok := perpendicular(prev, tangent); ok {
			return n
		}
	}
	ref := worldUp
	if math.Abs(r3.Dot(tangent, ref)) > 0.99 {
		ref = worldRight
	}
	n, _ := perpendicular(ref, tangent)
	return n
}

// perpendicular returns the unit component of v orthogonal to unit axis.
func perpendicular(v, axis r3.Vec) (r3.Vec, bool) {
	p := r3.Sub(v, r3.Scale(r3.Dot(v, axis), axis))
	l := r3.Norm(p)
	if l < 1e-9 {
		return r3.Vec{}, false
	}
	return r3.Scale(1/l, p), true
}
