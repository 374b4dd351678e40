package virt

import (
	"io"
	"testing"

	"github.com/CodeTheEagle/PhotonX-OS/hardware/armtimer"
	"github.com/CodeTheEagle/PhotonX-OS/kernel/hocs"
	"github.com/CodeTheEagle/PhotonX-OS/lib/trust"
)

func TestMain(m *testing.M) {
	trust.SetOutput(io.Discard)
	m.Run()
}

func spin() {
	for {
	}
}

func newBooted(t *testing.T, hz uint64) *Board {
	t.Helper()
	b := NewBoard(Options{
		CounterHz: hz,
		Sched:     hocs.Config{MaxTasks: 8, PriorityLevels: 8, StackBytes: 256, QuantumTicks: 5},
	})
	b.Boot()
	return b
}

func TestBootArmsTimerThroughController(t *testing.T) {
	b := newBooted(t, 100_000_000)
	if !b.GIC.Enabled(armtimer.IRQLine) {
		t.Errorf("timer line not enabled at the controller after boot")
	}
	if 0 != b.GIC.Priority(armtimer.IRQLine) {
		t.Errorf("timer line priority %#x after boot, want 0", b.GIC.Priority(armtimer.IRQLine))
	}
	if 0 == b.Counter.Deadline() {
		t.Errorf("no deadline armed after boot")
	}
}

func TestBootFrequencyFallback(t *testing.T) {
	b := newBooted(t, 0)
	if armtimer.DefaultFrequencyHz != b.Timer.Frequency() {
		t.Errorf("board with silent hardware got frequency %d", b.Timer.Frequency())
	}
	b.RunTicks(3)
	if 3 != b.GIC.EOICount(armtimer.IRQLine) {
		t.Errorf("fallback-frequency board delivered %d ticks, want 3", b.GIC.EOICount(armtimer.IRQLine))
	}
}

func TestTicksDriveUptime(t *testing.T) {
	b := newBooted(t, 100_000_000)
	b.RunTicks(10)
	up := b.Timer.UptimeNanoseconds()
	if up < 10*b.TickNanos() {
		t.Errorf("uptime %d ns after 10 one-ms ticks", up)
	}
}

func TestOneCompletionPerDeliveredTick(t *testing.T) {
	b := newBooted(t, 100_000_000)
	b.RunTicks(7)
	acks := b.GIC.AckCount(armtimer.IRQLine)
	eois := b.GIC.EOICount(armtimer.IRQLine)
	if 7 != acks {
		t.Errorf("%d acknowledges after 7 ticks, want 7", acks)
	}
	if acks != eois {
		t.Errorf("%d completions for %d acknowledges, want exactly one each", eois, acks)
	}
	if b.CPU.Masked() {
		t.Errorf("interrupts left masked after the run")
	}
}

// The bring-up scenario: two urgent control tasks and one background task,
// driven entirely by simulated timer interrupts at 100MHz.
func TestPreemptiveScheduling(t *testing.T) {
	b := newBooted(t, 100_000_000)
	t1, err := b.Sched.CreateTask("ctl-a", spin, 0)
	if err != nil {
		t.Fatalf("create ctl-a: %v", err)
	}
	t2, err := b.Sched.CreateTask("ctl-b", spin, 0)
	if err != nil {
		t.Fatalf("create ctl-b: %v", err)
	}
	t3, err := b.Sched.CreateTask("background", spin, 5)
	if err != nil {
		t.Fatalf("create background: %v", err)
	}

	// The first quantum expiry hands the processor to a priority-0 task.
	b.RunQuantum()
	cur := b.Sched.Current()
	if t1 != cur && t2 != cur {
		t.Fatalf("after the first quantum, task %d runs; want one of the priority-0 pair", cur)
	}
	if t1 != cur {
		t.Errorf("priority-0 tasks not dispatched in creation order (got %d)", cur)
	}

	// A yield rotates to the priority-0 peer, never the background task.
	b.Sched.Yield()
	if t2 != b.Sched.Current() {
		t.Errorf("after the yield, task %d runs; want the peer %d", b.Sched.Current(), t2)
	}

	// Only once both urgent tasks block does the background level run.
	b.Sched.Block()
	if t1 != b.Sched.Current() {
		t.Errorf("after one block, task %d runs; want %d", b.Sched.Current(), t1)
	}
	if t3 == b.Sched.Current() {
		t.Errorf("background task ran while a priority-0 task was runnable")
	}
	b.Sched.Block()
	if t3 != b.Sched.Current() {
		t.Errorf("after both blocks, task %d runs; want the background %d", b.Sched.Current(), t3)
	}
	b.Sched.Verify()
}

func TestQuantumRotationUnderTicks(t *testing.T) {
	b := newBooted(t, 100_000_000)
	a, _ := b.Sched.CreateTask("a", spin, 2)
	c, _ := b.Sched.CreateTask("b", spin, 2)

	b.RunQuantum() // idle's quantum expires, a dispatched
	if a != b.Sched.Current() {
		t.Fatalf("first quantum dispatched %d, want %d", b.Sched.Current(), a)
	}
	b.RunQuantum()
	if c != b.Sched.Current() {
		t.Errorf("second quantum dispatched %d, want the peer %d", b.Sched.Current(), c)
	}
	if b.Sched.Task(a).Runtime() == 0 {
		t.Errorf("preempted task was never charged runtime")
	}
	b.Sched.Verify()
}

func TestHandoffsRecorded(t *testing.T) {
	b := newBooted(t, 100_000_000)
	a, _ := b.Sched.CreateTask("a", spin, 2)
	b.RunQuantum()
	last, ok := b.Trace.Last()
	if !ok {
		t.Fatalf("no handoffs recorded")
	}
	if hocs.IdleID != last.From || a != last.To {
		t.Errorf("recorded handoff %v, want idle to %d", last, a)
	}
}
