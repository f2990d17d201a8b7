package rope

import "gonum.org/v1/gonum/spatial/r3"

// chain is a fixed-capacity particle array. Only the first live entries
// take part in integration, constraints and meshing.
type chain struct {
	pos  []r3.Vec
	prev []r3.Vec
	live int
}

func newChain(capacity int) chain {
	return chain{
		pos:  make([]r3.Vec, capacity),
		prev: make([]r3.Vec, capacity),
	}
}

func (c *chain) capacity() int {
	return len(c.pos)
}

func (c *chain) last() int {
	return c.live - 1
}

// integrate advances every live particle by position Verlet:
// x' = x + (x - x0)*damping + a*dt^2.
func (c *chain) integrate(dt float64, accel r3.Vec, damping float64) {
	a := r3.Scale(dt*dt, accel)
	for i := 0; i < c.live; i++ {
		cur := c.pos[i]
		vel := r3.Sub(cur, c.prev[i])
		c.pos[i] = r3.Add(r3.Add(cur, r3.Scale(damping, vel)), a)
		c.prev[i] = cur
	}
}

// place moves particle i to p with zero velocity.
func (c *chain) place(i int, p r3.Vec) {
	c.pos[i] = p
	c.prev[i] = p
}

// resize sets the live count to n, which the caller has already clamped.
// New particles are stacked on the current tail at rest.
func (c *chain) resize(n int) {
	if n > c.live {
		tail := c.pos[c.live-1]
		for i := c.live; i < n; i++ {
			c.place(i, tail)
		}
	}
	c.live = n
}

// positions returns the live particle positions. The slice aliases the chain.
func (c *chain) positions() []r3.Vec {
	return c.pos[:c.live]
}
