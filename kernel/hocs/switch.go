package hocs

// Switcher is the narrow boundary to the architecture's context switch. The
// contract: save every callee-saved register, the stack pointer and the
// return address into prev's context, load next's context, and resume next
// at its saved program counter. For a task that has never run, the saved
// program counter is its entry point, so first runs and resumptions look
// identical. The call does not return in prev's flow until some future
// scheduling decision switches prev back in.
//
// Implementations are not reentrant. The scheduler only invokes Switch with
// interrupts masked.
type Switcher interface {
	Switch(prev, next *PCB)
}

// CPU is what the scheduler needs from the processor to keep interrupt
// context and task context from interleaving inside a scheduling decision.
// Implementations nest: each mask call needs a matching unmask before
// delivery resumes.
type CPU interface {
	MaskInterrupts()
	UnmaskInterrupts()
}

// Handoff is one recorded context switch.
type Handoff struct {
	From TaskID
	To   TaskID
}

// TraceSwitcher records handoffs instead of performing them. It stands in
// for the real switch on hosts where there is no register file to swap, and
// gives tests the exact dispatch order.
type TraceSwitcher struct {
	Handoffs []Handoff
}

func (t *TraceSwitcher) Switch(prev, next *PCB) {
	t.Handoffs = append(t.Handoffs, Handoff{From: prev.id, To: next.id})
}

// Last returns the most recent handoff, if any.
func (t *TraceSwitcher) Last() (Handoff, bool) {
	if len(t.Handoffs) == 0 {
		return Handoff{}, false
	}
	return t.Handoffs[len(t.Handoffs)-1], true
}
