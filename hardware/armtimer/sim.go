package armtimer

// SimCounter is a manually advanced stand-in for the system counter and its
// per-core compare timer. Tests and the simulated board move time with
// Advance; AutoAdvance makes every ReadCount step the counter so spin loops
// terminate off target.
type SimCounter struct {
	freqHz uint64
	count  uint64
	ctl    uint32
	cval   uint64

	// AutoAdvance is added to the counter on every ReadCount.
	AutoAdvance uint64
}

// NewSimCounter returns a counter reporting freqHz. Zero is legal and
// mimics hardware whose frequency register was never populated.
func NewSimCounter(freqHz uint64) *SimCounter {
	return &SimCounter{freqHz: freqHz}
}

// Advance moves the counter forward by ticks.
func (c *SimCounter) Advance(ticks uint64) {
	c.count += ticks
}

// SetCount places the counter at an absolute raw value, for wraparound
// tests.
func (c *SimCounter) SetCount(v uint64) {
	c.count = v
}

// Fired reports whether the timer would be asserting its interrupt line
// right now: enabled, condition met, not masked at the source.
func (c *SimCounter) Fired() bool {
	return c.ctl&CtlEnable != 0 && c.ctl&CtlIMask == 0 && c.conditionMet()
}

func (c *SimCounter) conditionMet() bool {
	return c.count >= c.cval
}

// Deadline returns the absolute counter value the timer will fire at.
func (c *SimCounter) Deadline() uint64 {
	return c.cval
}

func (c *SimCounter) ReadFreq() uint64 { return c.freqHz }

func (c *SimCounter) WriteFreq(hz uint64) { c.freqHz = hz }

func (c *SimCounter) ReadCount() uint64 {
	c.count += c.AutoAdvance
	return c.count
}

func (c *SimCounter) ReadCtl() uint32 {
	ctl := c.ctl &^ uint32(CtlIStatus)
	if c.ctl&CtlEnable != 0 && c.conditionMet() {
		ctl |= CtlIStatus
	}
	return ctl
}

func (c *SimCounter) WriteCtl(v uint32) {
	// The condition bit is read only.
	c.ctl = v & (CtlEnable | CtlIMask)
}

func (c *SimCounter) WriteTval(ticks uint64) {
	c.cval = c.count + ticks
}

func (c *SimCounter) Barrier() {}
