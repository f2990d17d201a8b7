// Package camera provides an orbit camera for viewing a 3D scene.
package camera

import "math"

// Camera orbits a target point at a fixed distance.
// Yaw turns about the world Y axis, pitch tilts toward it.
type Camera struct {
	// Target is the point the camera looks at
	TargetX, TargetY, TargetZ float32

	// Orientation in radians
	Yaw, Pitch float32

	// Distance from the target
	Distance float32

	// Vertical field of view in degrees
	FovY float32

	// Viewport dimensions (screen size)
	ViewportW, ViewportH float32

	// Constraints
	MinDistance, MaxDistance float32
	MaxPitch                 float32

	home pose
}

// pose is the framing Reset returns to.
type pose struct {
	TargetX, TargetY, TargetZ float32
	Yaw, Pitch, Distance      float32
}

// New creates a camera looking at (tx, ty, tz) from distance along +Z.
func New(viewportW, viewportH, tx, ty, tz, distance float32) *Camera {
	c := &Camera{
		TargetX:     tx,
		TargetY:     ty,
		TargetZ:     tz,
		Distance:    distance,
		FovY:        45,
		ViewportW:   viewportW,
		ViewportH:   viewportH,
		MinDistance: 0.1,
		MaxDistance: 20,
		MaxPitch:    1.5,
	}
	c.home = pose{TargetX: tx, TargetY: ty, TargetZ: tz, Distance: distance}
	return c
}

// Position returns the camera eye in world coordinates.
func (c *Camera) Position() (x, y, z float32) {
	cp := float32(math.Cos(float64(c.Pitch)))
	x = c.TargetX + c.Distance*cp*float32(math.Sin(float64(c.Yaw)))
	y = c.TargetY + c.Distance*float32(math.Sin(float64(c.Pitch)))
	z = c.TargetZ + c.Distance*cp*float32(math.Cos(float64(c.Yaw)))
	return x, y, z
}

// basis returns the forward, right and up unit vectors of the view.
func (c *Camera) basis() (f, r, u [3]float32) {
	ex, ey, ez := c.Position()
	f = normalize([3]float32{c.TargetX - ex, c.TargetY - ey, c.TargetZ - ez})
	r = normalize(cross(f, [3]float32{0, 1, 0}))
	u = cross(r, f)
	return f, r, u
}

// WorldToScreen projects a world point onto the viewport.
// visible is false for points behind the camera.
func (c *Camera) WorldToScreen(wx, wy, wz float32) (sx, sy float32, visible bool) {
	ex, ey, ez := c.Position()
	f, r, u := c.basis()
	rel := [3]float32{wx - ex, wy - ey, wz - ez}

	depth := dot(rel, f)
	if depth <= 1e-4 {
		return 0, 0, false
	}
	focal := c.focal()
	sx = c.ViewportW/2 + dot(rel, r)*focal/depth
	sy = c.ViewportH/2 - dot(rel, u)*focal/depth
	return sx, sy, true
}

// focal is the projection scale in pixels at unit depth.
func (c *Camera) focal() float32 {
	half := float64(c.FovY) * math.Pi / 360
	return c.ViewportH / 2 / float32(math.Tan(half))
}

// Orbit rotates the camera about the target.
func (c *Camera) Orbit(dyaw, dpitch float32) {
	c.Yaw = float32(math.Remainder(float64(c.Yaw+dyaw), 2*math.Pi))
	c.Pitch = clamp(c.Pitch+dpitch, -c.MaxPitch, c.MaxPitch)
}

// Pan moves the target by the given delta in screen pixels, in the view plane.
func (c *Camera) Pan(dx, dy float32) {
	_, r, u := c.basis()
	scale := c.Distance / c.focal()
	c.TargetX += (-dx*r[0] + dy*u[0]) * scale
	c.TargetY += (-dx*r[1] + dy*u[1]) * scale
	c.TargetZ += (-dx*r[2] + dy*u[2]) * scale
}

// SetDistance sets the orbit distance, clamped to min/max.
func (c *Camera) SetDistance(d float32) {
	c.Distance = clamp(d, c.MinDistance, c.MaxDistance)
}

// ZoomBy divides the current distance by the given factor.
func (c *Camera) ZoomBy(factor float32) {
	if factor <= 0 {
		return
	}
	c.SetDistance(c.Distance / factor)
}

// Resize updates viewport dimensions.
func (c *Camera) Resize(viewportW, viewportH float32) {
	c.ViewportW = viewportW
	c.ViewportH = viewportH
}

// Reset returns the camera to the pose it was created with.
func (c *Camera) Reset() {
	c.TargetX, c.TargetY, c.TargetZ = c.home.TargetX, c.home.TargetY, c.home.TargetZ
	c.Yaw, c.Pitch, c.Distance = c.home.Yaw, c.home.Pitch, c.home.Distance
}

func dot(a, b [3]float32) float32 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func cross(a, b [3]float32) [3]float32 {
	return [3]float32{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func normalize(v [3]float32) [3]float32 {
	l := float32(math.Sqrt(float64(dot(v, v))))
	if l == 0 {
		return v
	}
	return [3]float32{v[0] / l, v[1] / l, v[2] / l}
}

// clamp restricts a value to a range.
func clamp(x, min, max float32) float32 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}
