package hocs

// TaskInfo is a diagnostic snapshot of one occupied table slot.
type TaskInfo struct {
	ID       TaskID
	Name     string
	State    TaskState
	Priority int
	Runtime  uint64
}

// Tasks snapshots every occupied slot, idle included.
func (s *Scheduler) Tasks() []TaskInfo {
	s.cpu.MaskInterrupts()
	defer s.cpu.UnmaskInterrupts()
	var out []TaskInfo
	for i := range s.table {
		p := &s.table[i]
		if p.state == Unused {
			continue
		}
		out = append(out, TaskInfo{
			ID:       p.id,
			Name:     p.name,
			State:    p.state,
			Priority: p.priority,
			Runtime:  p.runtime,
		})
	}
	return out
}
