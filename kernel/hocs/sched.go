// Package hocs is the preemptive multitasking core: the process table, the
// per-priority ready queues, and the decision procedure that hands the
// processor between tasks.
//
// One Scheduler owns all of that state for one core. Every mutating call
// runs with interrupts masked (or arrives from interrupt context, which the
// same source cannot preempt), so the tick interrupt can never observe a
// half-updated queue.
package hocs

import (
	"errors"

	"github.com/CodeTheEagle/PhotonX-OS/lib/trust"
)

var (
	// ErrTableFull is returned by CreateTask when every slot is taken.
	// The kernel carries on; the caller decides what to do about it.
	ErrTableFull = errors.New("hocs: process table full")

	// ErrBadPriority is returned by CreateTask for a priority outside the
	// configured levels.
	ErrBadPriority = errors.New("hocs: priority out of range")

	// ErrNotBlocked is returned by Unblock for a task that is not
	// blocked.
	ErrNotBlocked = errors.New("hocs: task not blocked")
)

// Config sizes a scheduler. Zero fields take the defaults below.
type Config struct {
	MaxTasks       int
	PriorityLevels int
	StackBytes     int
	QuantumTicks   uint64
}

const (
	DefaultMaxTasks       = 128
	DefaultPriorityLevels = 16
	DefaultStackBytes     = 8192
	DefaultQuantumTicks   = 10
)

func (c Config) withDefaults() Config {
	if c.MaxTasks <= 0 {
		c.MaxTasks = DefaultMaxTasks
	}
	if c.PriorityLevels <= 0 {
		c.PriorityLevels = DefaultPriorityLevels
	}
	if c.StackBytes <= 0 {
		c.StackBytes = DefaultStackBytes
	}
	if c.QuantumTicks == 0 {
		c.QuantumTicks = DefaultQuantumTicks
	}
	return c
}

// Scheduler is the explicit owner of all scheduling state for one core.
type Scheduler struct {
	cfg Config
	cpu CPU
	sw  Switcher

	table  []PCB
	stacks [][]byte // static pool, indexed by task id
	queues []readyQueue

	current TaskID

	// preemptCount > 0 holds off involuntary scheduling from the tick
	// path. Voluntary calls are unaffected.
	preemptCount int
}

// New builds a scheduler and installs the idle task in slot 0, running at
// the lowest priority. The caller supplies the processor masking hooks and
// the context switch implementation.
func New(cfg Config, cpu CPU, sw Switcher) *Scheduler {
	cfg = cfg.withDefaults()
	s := &Scheduler{
		cfg:    cfg,
		cpu:    cpu,
		sw:     sw,
		table:  make([]PCB, cfg.MaxTasks),
		stacks: make([][]byte, cfg.MaxTasks),
		queues: make([]readyQueue, cfg.PriorityLevels),
	}
	for i := range s.table {
		p := &s.table[i]
		p.id = TaskID(i)
		p.state = Unused
		p.next = noTask
	}
	for i := range s.queues {
		s.queues[i].init()
	}
	for i := range s.stacks {
		s.stacks[i] = make([]byte, cfg.StackBytes)
	}

	idle := &s.table[IdleID]
	idle.name = "idle"
	idle.state = Running
	idle.priority = cfg.PriorityLevels - 1
	idle.ticksLeft = cfg.QuantumTicks
	idle.stack = s.stacks[IdleID]
	s.current = IdleID

	trust.Infof("hocs: scheduler up, %d slots, %d priority levels, quantum %d ticks",
		cfg.MaxTasks, cfg.PriorityLevels, cfg.QuantumTicks)
	return s
}

// QuantumTicks returns the configured quantum.
func (s *Scheduler) QuantumTicks() uint64 {
	return s.cfg.QuantumTicks
}

// Current returns the id of the task on the processor.
func (s *Scheduler) Current() TaskID {
	return s.current
}

// State returns the lifecycle state of a task.
func (s *Scheduler) State(id TaskID) TaskState {
	return s.table[id].state
}

// Task returns the PCB of id for inspection. The scheduler remains the
// owner; callers must not hold the pointer across scheduling calls.
func (s *Scheduler) Task(id TaskID) *PCB {
	return &s.table[id]
}

// CreateTask allocates the lowest-numbered free slot for a task running
// entry at the given fixed priority, makes it ready, and returns its id.
// Slot 0 is the idle task's and is never handed out.
func (s *Scheduler) CreateTask(name string, entry func(), priority int) (TaskID, error) {
	if priority < 0 || priority >= s.cfg.PriorityLevels {
		return 0, ErrBadPriority
	}
	s.cpu.MaskInterrupts()
	defer s.cpu.UnmaskInterrupts()

	slot := -1
	for i := 1; i < len(s.table); i++ {
		if s.table[i].state == Unused {
			slot = i
			break
		}
	}
	if slot < 0 {
		return 0, ErrTableFull
	}

	p := &s.table[slot]
	p.name = name
	p.priority = priority
	p.state = Created
	p.ticksLeft = s.cfg.QuantumTicks
	p.runtime = 0
	p.stack = s.stacks[slot]
	p.entry = entry

	// First resume starts at entry with a fresh stack and interrupts
	// masked in the saved state.
	p.ctx = Context{}
	p.ctx.PC = codeAddr(entry)
	p.ctx.SP = p.StackTop()
	p.ctx.PState = spawnPState

	p.state = Ready
	s.queues[priority].append(s.table, p.id)

	trust.Debugf("hocs: created task %d %q at priority %d", p.id, name, priority)
	return p.id, nil
}

// Schedule runs one scheduling decision: pick the most urgent ready task
// and, if it is not the current one, hand the processor over. A preempted
// task that is still runnable goes back on the tail of its own priority
// queue so it competes again on equal footing with its peers.
func (s *Scheduler) Schedule() {
	s.cpu.MaskInterrupts()
	defer s.cpu.UnmaskInterrupts()
	s.scheduleLocked()
}

// Yield is a voluntary Schedule, as if the quantum had just expired.
func (s *Scheduler) Yield() {
	s.cpu.MaskInterrupts()
	defer s.cpu.UnmaskInterrupts()
	s.table[s.current].ticksLeft = s.cfg.QuantumTicks
	s.scheduleLocked()
}

// Tick is the timer driver's callback, invoked from interrupt context once
// per timer interrupt. It charges the running task one tick and forces a
// scheduling decision when the quantum runs out. The caller re-arms the
// timer for the next quantum boundary afterwards.
func (s *Scheduler) Tick() {
	s.cpu.MaskInterrupts()
	defer s.cpu.UnmaskInterrupts()

	p := &s.table[s.current]
	p.runtime++
	if p.ticksLeft > 0 {
		p.ticksLeft--
	}
	if p.ticksLeft > 0 {
		return
	}
	if s.preemptCount > 0 {
		return // preemption is off; re-check on the next tick
	}
	p.ticksLeft = s.cfg.QuantumTicks
	s.scheduleLocked()
}

// Block parks the current task until somebody unblocks it, then schedules.
// The idle task can never block.
func (s *Scheduler) Block() {
	s.cpu.MaskInterrupts()
	defer s.cpu.UnmaskInterrupts()
	if s.current == IdleID {
		trust.Fatalf(2, "hocs: idle task tried to block")
	}
	s.table[s.current].state = Blocked
	s.scheduleLocked()
}

// Unblock makes a blocked task ready again, at the tail of its priority
// queue.
func (s *Scheduler) Unblock(id TaskID) error {
	s.cpu.MaskInterrupts()
	defer s.cpu.UnmaskInterrupts()
	p := &s.table[id]
	if p.state != Blocked {
		return ErrNotBlocked
	}
	p.state = Ready
	s.queues[p.priority].append(s.table, id)
	return nil
}

// Exit retires the current task. The slot stays a zombie; reclamation is a
// separate concern. The idle task can never exit.
func (s *Scheduler) Exit() {
	s.cpu.MaskInterrupts()
	defer s.cpu.UnmaskInterrupts()
	if s.current == IdleID {
		trust.Fatalf(2, "hocs: idle task tried to exit")
	}
	p := &s.table[s.current]
	p.state = Zombie
	trust.Debugf("hocs: task %d %q exited after %d ticks", p.id, p.name, p.runtime)
	s.scheduleLocked()
}

// ProhibitPreemption holds off involuntary scheduling until the matching
// PermitPreemption. Calls nest.
func (s *Scheduler) ProhibitPreemption() {
	s.cpu.MaskInterrupts()
	s.preemptCount++
	s.cpu.UnmaskInterrupts()
}

// PermitPreemption re-allows involuntary scheduling.
func (s *Scheduler) PermitPreemption() {
	s.cpu.MaskInterrupts()
	if s.preemptCount == 0 {
		trust.Fatalf(2, "hocs: unbalanced PermitPreemption")
	}
	s.preemptCount--
	s.cpu.UnmaskInterrupts()
}

// scheduleLocked is the decision procedure. Interrupts are masked on entry.
func (s *Scheduler) scheduleLocked() {
	next := s.pickNext()
	if next == s.current {
		return
	}

	prev := &s.table[s.current]
	if prev.state == Running {
		// Still runnable, just displaced. Idle never queues; everyone
		// else rejoins the back of their own line.
		prev.state = Ready
		if prev.id != IdleID {
			s.queues[prev.priority].append(s.table, prev.id)
		}
	}

	in := &s.table[next]
	if next != IdleID && in.state != Ready {
		trust.Fatalf(2, "hocs: dispatching task %d (%s) in state %s", next, in.name, in.state)
	}
	in.state = Running
	s.current = next
	s.sw.Switch(prev, in)
}

// pickNext removes and returns the head of the most urgent non-empty ready
// queue, or the idle task when every queue is empty. FIFO order within a
// level is what makes this round robin.
func (s *Scheduler) pickNext() TaskID {
	for prio := range s.queues {
		if !s.queues[prio].empty() {
			return s.queues[prio].removeHead(s.table)
		}
	}
	return IdleID
}

// Verify walks the table and the queues and halts on any disagreement
// between queue membership and task state. Meant for tests and bring-up
// sanity checks, not the hot path.
func (s *Scheduler) Verify() {
	seen := make([]int, len(s.table))
	for prio := range s.queues {
		for idx := s.queues[prio].head; idx != noTask; idx = s.table[idx].next {
			p := &s.table[idx]
			seen[idx]++
			if seen[idx] > 1 {
				trust.Fatalf(2, "hocs: task %d (%s) queued more than once", idx, p.name)
			}
			if p.state != Ready {
				trust.Fatalf(2, "hocs: task %d (%s) queued at priority %d in state %s",
					idx, p.name, prio, p.state)
			}
			if p.priority != prio {
				trust.Fatalf(2, "hocs: task %d (%s) of priority %d queued at level %d",
					idx, p.name, p.priority, prio)
			}
			if !p.inQueue {
				trust.Fatalf(2, "hocs: task %d (%s) linked but not marked queued", idx, p.name)
			}
		}
	}
	for i := range s.table {
		p := &s.table[i]
		if p.state == Ready && p.id != IdleID && seen[i] == 0 {
			trust.Fatalf(2, "hocs: task %d (%s) ready but absent from its queue", i, p.name)
		}
		if p.state == Running && TaskID(i) != s.current {
			trust.Fatalf(2, "hocs: task %d (%s) running but not current", i, p.name)
		}
	}
}
