package armtimer

// CounterRegs is the generic-timer hardware: a 64-bit free-running
// up-counter with a per-core countdown/compare timer hanging off it. On
// target these are the CNTFRQ/CNTPCT/CNTP_CTL/CNTP_TVAL system registers;
// off target a SimCounter stands in.
type CounterRegs interface {
	// ReadFreq returns the counter frequency in ticks per second, as the
	// hardware reports it. Zero means nobody populated it.
	ReadFreq() uint64
	// WriteFreq programs the reported frequency. Normally firmware's job;
	// we only do it when the reported value is zero.
	WriteFreq(hz uint64)
	// ReadCount returns the current raw counter value.
	ReadCount() uint64
	// ReadCtl and WriteCtl access the timer control register.
	ReadCtl() uint32
	WriteCtl(v uint32)
	// WriteTval arms the countdown: the timer condition is met ticks from
	// now.
	WriteTval(ticks uint64)
	// Barrier orders the preceding register writes before anything after
	// it, so an armed deadline is live before interrupts are unmasked.
	Barrier()
}

// Timer control register bits.
const (
	CtlEnable  = 1 << 0 // timer counts and compares
	CtlIMask   = 1 << 1 // interrupt held off even when the condition is met
	CtlIStatus = 1 << 2 // condition met (read only)
)

const (
	// IRQLine is the private peripheral line of the per-core physical
	// timer.
	IRQLine = 30

	// DefaultFrequencyHz is substituted when the hardware reports zero,
	// which is routine under emulation without a populated description
	// table.
	DefaultFrequencyHz = 100_000_000

	// minDeltaTicks is the floor on any programmed delay: armed deadlines
	// shorter than this risk firing before the arm sequence finishes, or
	// not at all.
	minDeltaTicks = 0xF

	// maxDeltaTicks is the ceiling, effectively the full countdown range.
	maxDeltaTicks = 1<<63 - 1

	NanosPerSecond  = 1_000_000_000
	MicrosPerSecond = 1_000_000
)
