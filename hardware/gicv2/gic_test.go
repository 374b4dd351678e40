package gicv2

import (
	"io"
	"testing"

	"github.com/CodeTheEagle/PhotonX-OS/lib/trust"
)

func TestMain(m *testing.M) {
	trust.SetOutput(io.Discard)
	m.Run()
}

func newInitialized(t *testing.T, lines uint32) (*Sim, *Driver) {
	t.Helper()
	sim := NewSim(lines)
	d := New(sim.Dist(), sim.Core())
	d.Init()
	return sim, d
}

func TestInitLineCount(t *testing.T) {
	_, d := newInitialized(t, 64)
	if 64 != d.Lines() {
		t.Errorf("expected 64 lines after init, got %d", d.Lines())
	}
}

func TestInitQuiescentState(t *testing.T) {
	sim, d := newInitialized(t, 64)
	for id := uint32(0); id < d.Lines(); id++ {
		if sim.Enabled(id) {
			t.Errorf("line %d enabled after init", id)
		}
		if DefaultPriority != sim.Priority(id) {
			t.Errorf("line %d priority %#x after init, want %#x", id, sim.Priority(id), DefaultPriority)
		}
	}
	// SPIs routed to core 0; SGIs and PPIs are core-local and untouched.
	for id := uint32(SPIBase); id < d.Lines(); id++ {
		if 0x01 != sim.Target(id) {
			t.Errorf("SPI %d target %#x after init, want 0x01", id, sim.Target(id))
		}
	}
	for id := uint32(0); id < SPIBase; id++ {
		if 0 != sim.Target(id) {
			t.Errorf("core-local line %d has target %#x after init", id, sim.Target(id))
		}
	}
	if SpuriousID != d.Acknowledge() {
		t.Errorf("acknowledge with nothing pending did not report spurious")
	}
}

func TestEnableDisableSingleLine(t *testing.T) {
	sim, d := newInitialized(t, 64)
	d.Enable(33)
	d.Enable(34)
	if !sim.Enabled(33) || !sim.Enabled(34) {
		t.Errorf("enable did not take effect")
	}
	if sim.Enabled(32) || sim.Enabled(35) {
		t.Errorf("enable touched a neighboring line")
	}
	d.Disable(33)
	if sim.Enabled(33) {
		t.Errorf("disable did not take effect")
	}
	if !sim.Enabled(34) {
		t.Errorf("disable of line 33 also cleared line 34")
	}
}

func TestEnableOutOfRangeIgnored(t *testing.T) {
	sim, d := newInitialized(t, 64)
	d.Enable(64)
	d.Enable(500)
	for id := uint32(0); id < 64; id++ {
		if sim.Enabled(id) {
			t.Errorf("out-of-range enable leaked onto line %d", id)
		}
	}
}

func TestSetPriorityPreservesNeighbors(t *testing.T) {
	sim, d := newInitialized(t, 64)
	d.SetPriority(33, 0x10)
	if 0x10 != sim.Priority(33) {
		t.Errorf("priority of line 33 is %#x, want 0x10", sim.Priority(33))
	}
	for _, id := range []uint32{32, 34, 35} {
		if DefaultPriority != sim.Priority(id) {
			t.Errorf("priority write to line 33 disturbed line %d (now %#x)", id, sim.Priority(id))
		}
	}
}

func TestSetTargetSPIOnly(t *testing.T) {
	sim, d := newInitialized(t, 64)
	d.SetTarget(33, 0x3)
	if 0x3 != sim.Target(33) {
		t.Errorf("target of SPI 33 is %#x, want 0x3", sim.Target(33))
	}
	if 0x01 != sim.Target(32) || 0x01 != sim.Target(34) {
		t.Errorf("target write to SPI 33 disturbed a neighbor")
	}
	d.SetTarget(27, 0x2) // PPI, must be refused
	if 0 != sim.Target(27) {
		t.Errorf("target write to PPI 27 was not refused (now %#x)", sim.Target(27))
	}
}

func TestAcknowledgeClaimsAndClearsPending(t *testing.T) {
	sim, d := newInitialized(t, 64)
	d.Enable(40)
	sim.SetPending(40)
	if 40 != d.Acknowledge() {
		t.Errorf("acknowledge did not return the pending line")
	}
	if sim.Pending(40) {
		t.Errorf("claim did not clear the pending bit")
	}
	if SpuriousID != d.Acknowledge() {
		t.Errorf("second acknowledge of a latched line was not spurious")
	}
}

func TestDisabledLineNotDelivered(t *testing.T) {
	sim, d := newInitialized(t, 64)
	sim.SetPending(40)
	if SpuriousID != d.Acknowledge() {
		t.Errorf("disabled line was delivered")
	}
	if !sim.Pending(40) {
		t.Errorf("spurious acknowledge consumed the pending bit")
	}
}

func TestPriorityArbitration(t *testing.T) {
	sim, d := newInitialized(t, 64)
	d.Enable(33)
	d.Enable(34)
	d.SetPriority(34, 0x20)
	sim.SetPending(33)
	sim.SetPending(34)
	if 34 != d.Acknowledge() {
		t.Errorf("more urgent line 34 did not win arbitration")
	}
	d.EndOfInterrupt(34)
	if 33 != d.Acknowledge() {
		t.Errorf("line 33 not delivered after 34 completed")
	}
	d.EndOfInterrupt(33)
}

func TestPriorityMaskHoldsBackLowestBand(t *testing.T) {
	sim, d := newInitialized(t, 64)
	d.Enable(35)
	d.SetPriority(35, 0xF8) // inside the masked-out band
	sim.SetPending(35)
	if SpuriousID != d.Acknowledge() {
		t.Errorf("line in the masked priority band was delivered")
	}
}

func TestDispatchRunsHandlerAndCompletesOnce(t *testing.T) {
	sim, d := newInitialized(t, 64)
	calls := 0
	d.RegisterHandler(33, func() { calls++ })
	d.Enable(33)
	sim.SetPending(33)

	d.DispatchIRQ()
	if 1 != calls {
		t.Errorf("handler ran %d times, want 1", calls)
	}
	if 1 != sim.AckCount(33) {
		t.Errorf("line acknowledged %d times, want 1", sim.AckCount(33))
	}
	if 1 != sim.EOICount(33) {
		t.Errorf("line completed %d times, want exactly 1", sim.EOICount(33))
	}

	// Nothing pending now: the spurious path must not run handlers or
	// write completions.
	d.DispatchIRQ()
	if 1 != calls || 1 != sim.EOICount(33) {
		t.Errorf("spurious dispatch ran a handler or wrote a completion")
	}
}

func TestDispatchWithoutHandlerStillCompletes(t *testing.T) {
	sim, d := newInitialized(t, 64)
	d.Enable(37)
	sim.SetPending(37)
	d.DispatchIRQ()
	if 1 != sim.EOICount(37) {
		t.Errorf("unhandled line completed %d times, want 1", sim.EOICount(37))
	}
}

func TestRegisterHandlerNilUnbinds(t *testing.T) {
	sim, d := newInitialized(t, 64)
	calls := 0
	d.RegisterHandler(33, func() { calls++ })
	d.RegisterHandler(33, nil)
	d.Enable(33)
	sim.SetPending(33)
	d.DispatchIRQ()
	if 0 != calls {
		t.Errorf("unbound handler still ran")
	}
	if 1 != sim.EOICount(33) {
		t.Errorf("unbound line completed %d times, want 1", sim.EOICount(33))
	}
}
