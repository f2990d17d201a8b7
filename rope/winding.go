package rope

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// session is the winding state owned by a captured rope. It is zeroed on
// release.
type session struct {
	refU, refV r3.Vec // Angular reference frame perpendicular to the post axis

	baseAxial float64
	tipAxial  float64

	wrap        float64 // Accumulated wrap, radians, >= 0
	committed   bool
	commitAccum float64

	prevAzimuth float64 // Last accepted grip azimuth
	azimuth     float64 // Tip azimuth; the coil starts at azimuth - dir*wrap

	lockSign     float64 // Latched delta sign, 0 = unset
	reverseAccum float64

	hasWound     bool
	wasHeld      bool
	detent       int
	leadLength   float64 // Free span from root to post at capture
	arcPerRadian float64
}

// reframe keeps the reference frame perpendicular to a post that may have
// rotated since the last tick.
func (s *session) reframe(post Post) {
	u, ok := unit(r3.Sub(s.refU, r3.Scale(r3.Dot(s.refU, post.Axis), post.Axis)))
	if !ok {
		u, _ = unit(r3.Cross(post.Axis, s.refV))
	}
	s.refU = u
	s.refV = r3.Cross(post.Axis, u)
}

// azimuthOf returns the angle of radial around the axis, measured from refU.
func (s *session) azimuthOf(radial r3.Vec) float64 {
	return math.Atan2(r3.Dot(radial, s.refV), r3.Dot(radial, s.refU))
}

func (r *Rope) targetRadius(post Post) float64 {
	w := r.params.Winding
	if w.UseGripRadius {
		return post.Radius + w.GripRadius
	}
	return post.Radius
}

// updateWinding runs the Free/Captured state machine for one tick and keeps
// the live count on its length target.
func (r *Rope) updateWinding(dt float64, in Input, post Post) {
	if r.cooldown > 0 {
		r.cooldown -= dt
	}

	switch r.state {
	case StateFree, StateHover:
		r.updateFree(in, post)
	case StateCaptured:
		r.updateCaptured(in, post)
	}

	if r.state != StateCaptured {
		r.resizeTo(r.requested)
		r.kinematicFrom = r.chain.live
	}
}

// updateFree captures when the held grip enters the band around the
// target radius.
func (r *Rope) updateFree(in Input, post Post) {
	w := r.params.Winding
	if !r.params.Grabbable || !in.Held || in.Grip == nil || r.cooldown > 0 {
		return
	}

	axial, radial := post.decompose(*in.Grip)
	dist := r3.Norm(radial)
	if math.Abs(dist-r.targetRadius(post)) > w.CaptureBand+epsilon {
		return
	}
	if math.Abs(axial) > post.HalfSpan+w.CaptureBand {
		return
	}
	u, ok := unit(radial)
	if !ok {
		return
	}

	limit := post.axialLimit(w.EndMargin)
	base := clamp(axial, -limit, limit)
	r.session = session{
		refU:         u,
		refV:         r3.Cross(post.Axis, u),
		baseAxial:    base,
		tipAxial:     base,
		wasHeld:      true,
		leadLength:   r.VisibleLength(),
		arcPerRadian: post.arcPerRadian(w.Pitch),
	}
	r.state = StateCaptured
	r.emit(EventCapture, 0)
	r.placeTip(post)
}

func (r *Rope) updateCaptured(in Input, post Post) {
	w := r.params.Winding
	s := &r.session
	s.reframe(post)
	s.arcPerRadian = post.arcPerRadian(w.Pitch)
	s.wrap = math.Min(s.wrap, r.maxWrap())

	if !in.Held || in.Grip == nil {
		s.wasHeld = false
		if !s.committed || s.wrap < w.NearZero {
			r.release()
			return
		}
		r.placeCoil(post)
		return
	}

	_, radial := post.decompose(*in.Grip)
	theta := s.azimuthOf(radial)
	if !s.wasHeld {
		// Regrip: measure from the new hand position, not the old one.
		s.prevAzimuth = theta
		s.wasHeld = true
	}

	delta := wrapAngle(theta - s.prevAzimuth)
	accepted := math.Abs(delta) >= w.Deadband && delta != 0
	if accepted {
		s.prevAzimuth = theta
		if w.MaxStep > 0 && math.Abs(delta) > w.MaxStep {
			delta = sign(delta) * w.MaxStep
		}
	}

	if !s.committed {
		if accepted {
			s.commitAccum += math.Abs(delta)
			s.azimuth += delta
		}
		if s.commitAccum >= w.CommitAngle-epsilon {
			s.committed = true
			r.emit(EventCommit, 0)
		}
		r.placeTip(post)
		return
	}

	if accepted {
		r.applyWindDelta(delta)
	}

	if s.hasWound && s.wrap < w.NearZero {
		r.release()
		return
	}
	if s.wrap < w.ReleaseAngle && math.Abs(r3.Norm(radial)-r.targetRadius(post)) > w.ExitTolerance {
		r.release()
		return
	}
	r.placeCoil(post)
}

// applyWindDelta folds one accepted azimuth step into the wrap angle,
// honouring the direction lock.
func (r *Rope) applyWindDelta(delta float64) {
	w := r.params.Winding
	s := &r.session
	sg := sign(delta)
	mag := math.Abs(delta)

	if w.DirectionLock {
		if s.lockSign == 0 {
			s.lockSign = sg
		}
		if sg != s.lockSign {
			s.reverseAccum += mag
			if s.reverseAccum > w.ReverseFlip {
				s.lockSign = sg
				s.reverseAccum = 0
			}
			return
		}
		s.reverseAccum = 0
	}

	old := s.wrap
	if sg == w.Direction {
		s.wrap = math.Min(s.wrap+mag, r.maxWrap())
	} else {
		s.wrap = math.Max(0, s.wrap-mag)
	}
	s.azimuth += w.Direction * (s.wrap - old)
	if s.wrap >= w.NearZero {
		s.hasWound = true
	}

	if w.DeepenDetent > 0 {
		d := int(s.wrap / w.DeepenDetent)
		if d > s.detent {
			s.detent = d
			r.emit(EventDeepen, d)
		} else if d < s.detent {
			s.detent = d
		}
	}
}

// maxWrap is the wrap angle whose coil, added to the lead, fills the
// particle capacity.
func (r *Rope) maxWrap() float64 {
	s := &r.session
	if s.arcPerRadian < epsilon {
		return math.Inf(1)
	}
	room := float64(r.chain.capacity()-1)*r.rest - s.leadLength
	return math.Max(0, room/s.arcPerRadian)
}

// release ends the session: the grip pins the tip again, recapture waits
// for the cooldown and the feeder target resumes from the current length.
func (r *Rope) release() {
	r.emit(EventRelease, 0)
	r.session = session{}
	r.state = StateFree
	r.cooldown = r.params.Winding.ReleaseCooldown
	r.kinematicFrom = r.chain.live
	r.requested = clamp(r.VisibleLength(), r.params.MinLength, r.params.MaxLength)
}

// axialAt returns the post offset of the coil point wound by angle.
func (r *Rope) axialAt(angle float64, post Post) float64 {
	w := r.params.Winding
	s := &r.session
	limit := post.axialLimit(w.EndMargin)
	return clamp(s.baseAxial+w.AxialAdvance*w.Pitch*angle/(2*math.Pi), -limit, limit)
}

// placeTip snaps the working particle and grip onto the post surface at the
// session azimuth before commitment.
func (r *Rope) placeTip(post Post) {
	s := &r.session
	r.resizeTo(s.leadLength)
	last := r.chain.last()
	s.tipAxial = s.baseAxial
	p := post.point(s.tipAxial, s.azimuth, post.Radius, s.refU, s.refV)
	r.chain.place(last, p)
	r.gripTarget = p
	r.kinematicFrom = last
}

// placeCoil sizes the chain for lead plus wound length, puts the tip on the
// helix and packs the trailing particles onto the helix by stepping back
// one rest length of arc at a time.
func (r *Rope) placeCoil(post Post) {
	w := r.params.Winding
	s := &r.session

	r.resizeTo(s.leadLength + s.wrap*s.arcPerRadian)
	last := r.chain.last()

	s.tipAxial = r.axialAt(s.wrap, post)
	tip := post.point(s.tipAxial, s.azimuth, post.Radius, s.refU, s.refV)
	r.chain.place(last, tip)
	r.gripTarget = tip

	packed := 1
	if s.arcPerRadian < epsilon {
		r.kinematicFrom = last
		return
	}
	step := r.rest / s.arcPerRadian
	for k := 1; k < last; k++ {
		back := float64(k) * step
		if back > s.wrap+epsilon {
			break
		}
		az := s.azimuth - w.Direction*back
		ax := r.axialAt(s.wrap-back, post)
		r.chain.place(last-k, post.point(ax, az, post.Radius, s.refU, s.refV))
		packed++
	}
	r.kinematicFrom = r.chain.live - packed
}
