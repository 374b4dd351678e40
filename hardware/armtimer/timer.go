// Package armtimer drives one countdown/compare timer off the 64-bit system
// counter and keeps the kernel's monotonic uptime. All time arithmetic is
// integer only.
package armtimer

import (
	"math/bits"

	"github.com/CodeTheEagle/PhotonX-OS/hardware/gicv2"
	"github.com/CodeTheEagle/PhotonX-OS/lib/trust"
)

// Driver owns the timer hardware and the monotonic clock state. It is the
// single writer of that state; both the interrupt path and direct uptime
// queries funnel through updateUptime so no interval is ever accumulated
// twice.
type Driver struct {
	regs CounterRegs
	gic  *gicv2.Driver

	freqHz   uint64
	minDelta uint64
	maxDelta uint64

	bootTick uint64
	lastTick uint64
	uptimeNS uint64

	tick func()
}

// New returns a driver over regs that registers its interrupt line with gic.
// Nothing is touched until Init.
func New(regs CounterRegs, gic *gicv2.Driver) *Driver {
	return &Driver{regs: regs, gic: gic}
}

// Init calibrates and quiesces the timer. Must run after the interrupt
// controller is up and before the scheduler starts. On return the timer is
// disarmed and its interrupt masked at the source; the line is enabled and
// prioritized at the controller, so the first ArmTimeout is all it takes to
// go live.
func (t *Driver) Init() {
	freq := t.regs.ReadFreq()
	if freq == 0 {
		// Routine under emulation; not an error.
		trust.Warnf("armtimer: hardware reports 0 Hz, substituting %d Hz", uint64(DefaultFrequencyHz))
		freq = DefaultFrequencyHz
		t.regs.WriteFreq(freq)
	}
	t.freqHz = freq
	t.minDelta = minDeltaTicks
	t.maxDelta = maxDeltaTicks

	// Kill any deadline a previous stage left armed.
	t.regs.WriteCtl(0)

	t.bootTick = t.regs.ReadCount()
	t.lastTick = t.bootTick
	t.uptimeNS = 0

	t.gic.RegisterHandler(IRQLine, t.HandleInterrupt)
	t.gic.SetPriority(IRQLine, 0) // most urgent: ticks drive preemption
	t.gic.SetTarget(IRQLine, 0x01)
	t.gic.Enable(IRQLine)

	trust.Infof("armtimer: %d Hz, boot tick %d, line %d", freq, t.bootTick, uint32(IRQLine))
}

// Frequency returns the tick rate established at Init.
func (t *Driver) Frequency() uint64 {
	return t.freqHz
}

// BootTicks returns the raw counter value captured at Init.
func (t *Driver) BootTicks() uint64 {
	return t.bootTick
}

// TicksToNanoseconds converts raw ticks to nanoseconds. The intermediate
// product is computed at 128 bits, so the conversion holds for any tick
// count the counter can accumulate over the hardware's operating lifetime;
// an input past that point saturates instead of wrapping.
func (t *Driver) TicksToNanoseconds(ticks uint64) uint64 {
	return mulDiv(ticks, NanosPerSecond, t.freqHz)
}

// NanosecondsToTicks converts nanoseconds to raw ticks.
func (t *Driver) NanosecondsToTicks(ns uint64) uint64 {
	return mulDiv(ns, t.freqHz, NanosPerSecond)
}

// TicksToMicroseconds converts raw ticks to microseconds.
func (t *Driver) TicksToMicroseconds(ticks uint64) uint64 {
	return mulDiv(ticks, MicrosPerSecond, t.freqHz)
}

// MicrosecondsToTicks converts microseconds to raw ticks.
func (t *Driver) MicrosecondsToTicks(us uint64) uint64 {
	return mulDiv(us, t.freqHz, MicrosPerSecond)
}

// mulDiv computes value*mul/div with a 128-bit intermediate, saturating when
// the quotient itself does not fit 64 bits.
func mulDiv(value, mul, div uint64) uint64 {
	hi, lo := bits.Mul64(value, mul)
	if hi >= div {
		return ^uint64(0)
	}
	q, _ := bits.Div64(hi, lo, div)
	return q
}

// tickDelta is the wraparound-safe distance from last to now: when now reads
// numerically below last, the counter has run through its maximum and back
// up, never backwards.
func tickDelta(last, now uint64) uint64 {
	if now >= last {
		return now - last
	}
	return (^uint64(0) - last) + now + 1
}

// updateUptime folds the ticks elapsed since the last snapshot into the
// accumulated uptime and re-snapshots. Sole writer of the clock state.
func (t *Driver) updateUptime() {
	now := t.regs.ReadCount()
	t.uptimeNS += t.TicksToNanoseconds(tickDelta(t.lastTick, now))
	t.lastTick = now
}

// UptimeNanoseconds returns monotonic nanoseconds since Init.
func (t *Driver) UptimeNanoseconds() uint64 {
	t.updateUptime()
	return t.uptimeNS
}

// UptimeSeconds returns monotonic whole seconds since Init.
func (t *Driver) UptimeSeconds() uint64 {
	return t.UptimeNanoseconds() / NanosPerSecond
}

// ArmTimeout programs the timer to fire ns nanoseconds from now with the
// interrupt live. Delays below the hardware latency floor are clamped up to
// it, never rounded to zero. The trailing barrier makes the deadline
// hardware-visible before ArmTimeout returns, because the caller's next move
// is typically to unmask interrupts globally.
func (t *Driver) ArmTimeout(ns uint64) {
	ticks := t.NanosecondsToTicks(ns)
	if ticks < t.minDelta {
		ticks = t.minDelta
	}
	if ticks > t.maxDelta {
		ticks = t.maxDelta
	}
	t.regs.WriteTval(ticks)
	t.regs.WriteCtl(CtlEnable)
	t.regs.Barrier()
}

// CancelTimeout disarms the timer and masks its interrupt. Cancelling an
// already-disarmed timer is a no-op.
func (t *Driver) CancelTimeout() {
	t.regs.WriteCtl(CtlIMask)
	t.regs.Barrier()
}

// SetTickCallback installs the scheduler hook HandleInterrupt invokes.
func (t *Driver) SetTickCallback(fn func()) {
	t.tick = fn
}

// HandleInterrupt runs when our line is dispatched. Only a timer whose
// condition flag is actually set is ours to handle; anything else is
// spurious and ignored. The interrupt is masked at the source before any
// other work so the level-triggered condition cannot re-fire under us
// before the next deadline is programmed.
func (t *Driver) HandleInterrupt() {
	ctl := t.regs.ReadCtl()
	if ctl&CtlIStatus == 0 {
		return
	}
	t.regs.WriteCtl(ctl | CtlIMask)
	t.updateUptime()
	if t.tick != nil {
		t.tick()
	}
}

// SpinDelay busy-waits for us microseconds. Only for bring-up, before
// interrupts are enabled; it uses the same wraparound-safe comparison as the
// uptime path.
func (t *Driver) SpinDelay(us uint64) {
	start := t.regs.ReadCount()
	want := t.MicrosecondsToTicks(us)
	if want < t.minDelta {
		want = t.minDelta
	}
	for tickDelta(start, t.regs.ReadCount()) < want {
	}
}

// SpinDelayMillis busy-waits for ms milliseconds, in microsecond chunks.
func (t *Driver) SpinDelayMillis(ms uint64) {
	for ; ms > 0; ms-- {
		t.SpinDelay(1000)
	}
}

// SpinUntil busy-waits until uptime reaches absNS nanoseconds.
func (t *Driver) SpinUntil(absNS uint64) {
	for t.UptimeNanoseconds() < absNS {
	}
}

// DumpRegisters logs the timer state for bring-up debugging.
func (t *Driver) DumpRegisters() {
	ctl := t.regs.ReadCtl()
	trust.Debugf("armtimer: freq=%d count=%d ctl=%#x (en:%d mask:%d met:%d)",
		t.regs.ReadFreq(), t.regs.ReadCount(), ctl,
		ctl&CtlEnable, (ctl>>1)&1, (ctl>>2)&1)
}
