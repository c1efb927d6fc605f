package platform

// FakeClock is a monotonically-advancing Clock a test drives by hand,
// standing in for SystemClock wherever a test needs G to increase by
// known amounts rather than by real wall-clock time.
type FakeClock struct {
	nanos uint64
}

// NewFakeClock starts the clock at startNanos.
func NewFakeClock(startNanos uint64) *FakeClock {
	return &FakeClock{nanos: startNanos}
}

func (c *FakeClock) NowNanos() uint64 {
	return c.nanos
}

// Advance moves the clock forward by deltaNanos.
func (c *FakeClock) Advance(deltaNanos uint64) {
	c.nanos += deltaNanos
}
