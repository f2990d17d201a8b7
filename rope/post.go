package rope

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Post is the cylindrical winding reference, re-resolved every tick from
// whatever transform owns it.
type Post struct {
	Center   r3.Vec
	Axis     r3.Vec
	HalfSpan float64
	Radius   float64
}

// DefaultPost is substituted when no post is supplied.
func DefaultPost() Post {
	return Post{
		Axis:     r3.Vec{Y: 1},
		HalfSpan: 0.05,
		Radius:   0.01,
	}
}

// resolvePost normalizes the caller's post, falling back to DefaultPost.
func resolvePost(p *Post) Post {
	if p == nil {
		return DefaultPost()
	}
	post := *p
	axis, ok := unit(post.Axis)
	if !ok {
		axis = r3.Vec{Y: 1}
	}
	post.Axis = axis
	post.Radius = math.Abs(post.Radius)
	post.HalfSpan = math.Abs(post.HalfSpan)
	return post
}

// decompose splits x into its signed offset along the axis and the radial
// vector from the axis to x.
func (p Post) decompose(x r3.Vec) (axial float64, radial r3.Vec) {
	rel := r3.Sub(x, p.Center)
	axial = r3.Dot(rel, p.Axis)
	radial = r3.Sub(rel, r3.Scale(axial, p.Axis))
	return axial, radial
}

// axialLimit is how far from the center the coil may travel along the axis.
func (p Post) axialLimit(margin float64) float64 {
	return math.Max(p.HalfSpan-margin, 0)
}

// point returns the position at the given axial offset, azimuth and radius
// in the frame (u, v) perpendicular to the axis.
func (p Post) point(axial, azimuth, radius float64, u, v r3.Vec) r3.Vec {
	dir := r3.Add(r3.Scale(math.Cos(azimuth), u), r3.Scale(math.Sin(azimuth), v))
	return r3.Add(r3.Add(p.Center, r3.Scale(axial, p.Axis)), r3.Scale(radius, dir))
}

// arcPerRadian is the helix arc length per radian of wrap for the given pitch.
func (p Post) arcPerRadian(pitch float64) float64 {
	rise := pitch / (2 * math.Pi)
	return math.Sqrt(p.Radius*p.Radius + rise*rise)
}
