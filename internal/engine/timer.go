package engine

// Countdown tracks the whole-second time budget of a session. It is
// driven externally, one Tick per second, and fires expiry exactly
// once per reset key.
type Countdown struct {
	limit     int
	remaining int
	resetKey  string
	fired     bool
}

// Reset reinitializes the countdown for a new session identity. The
// expiry guard is cleared even when key and limit are unchanged.
func (c *Countdown) Reset(key string, limitSeconds int) {
	if limitSeconds < 0 {
		limitSeconds = 0
	}
	c.resetKey = key
	c.limit = limitSeconds
	c.remaining = limitSeconds
	c.fired = false
}

// Tick decrements the remaining time by one second and reports whether
// expiry fired on this tick. Ticks after expiry are no-ops.
func (c *Countdown) Tick() bool {
	if c.fired || c.remaining <= 0 {
		return false
	}
	c.remaining--
	if c.remaining == 0 {
		c.fired = true
		return true
	}
	return false
}

// Remaining returns the seconds left.
func (c *Countdown) Remaining() int {
	return c.remaining
}

// Limit returns the configured duration.
func (c *Countdown) Limit() int {
	return c.limit
}

// Expired reports whether expiry has fired for the current key.
func (c *Countdown) Expired() bool {
	return c.fired
}
