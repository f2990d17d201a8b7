package game

import (
	"math"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/coil/camera"
)

// pickRadius is the maximum screen distance in pixels for hovering a particle.
const pickRadius = 14

// nearestOnScreen returns the index of the point closest to (mx, my) on
// screen, within maxPx, or -1.
func nearestOnScreen(cam *camera.Camera, points []r3.Vec, mx, my, maxPx float32) (int, float32) {
	best := -1
	bestDist := maxPx
	for i, p := range points {
		sx, sy, ok := cam.WorldToScreen(float32(p.X), float32(p.Y), float32(p.Z))
		if !ok {
			continue
		}
		d := float32(math.Hypot(float64(sx-mx), float64(sy-my)))
		if d <= bestDist {
			best = i
			bestDist = d
		}
	}
	return best, bestDist
}

// rayPlane intersects a ray with the plane through point with the given
// normal. Hits behind the origin and rays parallel to the plane miss.
func rayPlane(origin, dir, point, normal r3.Vec) (r3.Vec, bool) {
	denom := r3.Dot(dir, normal)
	if math.Abs(denom) < 1e-9 {
		return r3.Vec{}, false
	}
	t := r3.Dot(r3.Sub(point, origin), normal) / denom
	if t < 0 {
		return r3.Vec{}, false
	}
	return r3.Add(origin, r3.Scale(t, dir)), true
}

// updateHover finds the rope particle under the cursor.
func (g *Game) updateHover(mx, my float32) {
	g.hasHover = false
	bestDist := float32(pickRadius)
	for _, e := range g.scene.Ropes() {
		r := g.scene.Rope(e)
		if r == nil {
			continue
		}
		i, d := nearestOnScreen(g.camera, r.Positions(), mx, my, bestDist)
		if i < 0 {
			continue
		}
		g.hoverRope = e
		g.hoverParticle = i
		g.hasHover = true
		bestDist = d
	}
}

// hovered returns the hovered rope and particle, if any.
func (g *Game) hovered() (ecs.Entity, int, bool) {
	if !g.hasHover || g.scene.Rope(g.hoverRope) == nil {
		return ecs.Entity{}, 0, false
	}
	if g.hoverParticle >= g.scene.Rope(g.hoverRope).LiveCount() {
		return ecs.Entity{}, 0, false
	}
	return g.hoverRope, g.hoverParticle, true
}

// gripPoint maps the cursor ray onto the plane through the post center
// perpendicular to its axis.
func (g *Game) gripPoint(origin, dir r3.Vec) (r3.Vec, bool) {
	post := g.scene.Post(g.primary)
	axis := post.Axis
	if r3.Norm(axis) == 0 {
		axis = r3.Vec{Y: 1}
	}
	return rayPlane(origin, dir, post.Center, r3.Unit(axis))
}
