// Package renderer draws rope scenes with raylib. Every function here must
// run between rl.BeginMode3D and rl.EndMode3D.
package renderer

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/coil/mesh"
	"github.com/pthm-cable/coil/rope"
)

// Palette holds the scene colors.
type Palette struct {
	Rope     rl.Color
	Tail     rl.Color
	Selected rl.Color
	Post     rl.Color
	Particle rl.Color
	Grip     rl.Color
	GripHeld rl.Color
	Target   rl.Color
}

// DefaultPalette returns the default scene colors.
func DefaultPalette() Palette {
	return Palette{
		Rope:     rl.Color{R: 210, G: 170, B: 110, A: 255},
		Tail:     rl.Color{R: 150, G: 130, B: 100, A: 255},
		Selected: rl.Color{R: 240, G: 200, B: 120, A: 255},
		Post:     rl.Color{R: 90, G: 100, B: 115, A: 255},
		Particle: rl.Color{R: 255, G: 90, B: 60, A: 255},
		Grip:     rl.Color{R: 120, G: 200, B: 255, A: 160},
		GripHeld: rl.Color{R: 80, G: 255, B: 140, A: 200},
		Target:   rl.Color{R: 255, G: 255, B: 255, A: 200},
	}
}

// light is the fixed key light direction, pointing from the scene to the light.
var light = r3.Unit(r3.Vec{X: 0.4, Y: 1, Z: 0.6})

// V3 converts an engine vector to a raylib vector.
func V3(v r3.Vec) rl.Vector3 {
	return rl.NewVector3(float32(v.X), float32(v.Y), float32(v.Z))
}

// shade scales a base color by a half-Lambert term of the face normal.
func shade(base rl.Color, n r3.Vec) rl.Color {
	k := 0.5 + 0.5*r3.Dot(n, light)
	k = 0.35 + 0.65*k
	return rl.Color{
		R: uint8(math.Min(255, float64(base.R)*k)),
		G: uint8(math.Min(255, float64(base.G)*k)),
		B: uint8(math.Min(255, float64(base.B)*k)),
		A: base.A,
	}
}

// DrawMesh draws a tube mesh as shaded triangles.
func DrawMesh(m *mesh.Mesh, color rl.Color) {
	if m.IsEmpty() {
		return
	}
	rl.DisableBackfaceCulling()
	defer rl.EnableBackfaceCulling()

	for t := 0; t < m.TriangleCount(); t++ {
		a := m.Vertex(int(m.Indices[3*t]))
		b := m.Vertex(int(m.Indices[3*t+1]))
		c := m.Vertex(int(m.Indices[3*t+2]))
		n := r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
		if l := r3.Norm(n); l > 0 {
			n = r3.Scale(1/l, n)
		}
		rl.DrawTriangle3D(V3(a), V3(b), V3(c), shade(color, n))
	}
}

// DrawWireframe draws the triangle edges of a tube mesh.
func DrawWireframe(m *mesh.Mesh, color rl.Color) {
	for t := 0; t < m.TriangleCount(); t++ {
		a := V3(m.Vertex(int(m.Indices[3*t])))
		b := V3(m.Vertex(int(m.Indices[3*t+1])))
		c := V3(m.Vertex(int(m.Indices[3*t+2])))
		rl.DrawLine3D(a, b, color)
		rl.DrawLine3D(b, c, color)
		rl.DrawLine3D(c, a, color)
	}
}

// DrawParticles draws every live particle of r as a small sphere.
func DrawParticles(r *rope.Rope, color rl.Color) {
	radius := float32(r.RestLength() * 0.2)
	for _, p := range r.Positions() {
		rl.DrawSphere(V3(p), radius, color)
	}
}

// DrawPost draws the winding post as a capped cylinder.
func DrawPost(p rope.Post, color rl.Color) {
	axis := r3.Unit(p.Axis)
	start := r3.Sub(p.Center, r3.Scale(p.HalfSpan, axis))
	end := r3.Add(p.Center, r3.Scale(p.HalfSpan, axis))
	r := float32(p.Radius)
	rl.DrawCylinderEx(V3(start), V3(end), r, r, 24, color)
	rl.DrawCylinderWiresEx(V3(start), V3(end), r, r, 24, rl.Fade(rl.Black, 0.3))
}

// DrawPostAxis draws the post axis extended past both ends.
func DrawPostAxis(p rope.Post, color rl.Color) {
	axis := r3.Unit(p.Axis)
	ext := p.HalfSpan + 4*p.Radius
	rl.DrawLine3D(V3(r3.Sub(p.Center, r3.Scale(ext, axis))), V3(r3.Add(p.Center, r3.Scale(ext, axis))), color)
}

// DrawGrip draws the grab handle.
func DrawGrip(pos r3.Vec, held bool, pal Palette) {
	c := pal.Grip
	if held {
		c = pal.GripHeld
	}
	rl.DrawSphere(V3(pos), 0.012, c)
}

// DrawTarget marks the point the grip should follow.
func DrawTarget(pos r3.Vec, color rl.Color) {
	rl.DrawSphereWires(V3(pos), 0.016, 6, 6, color)
}
