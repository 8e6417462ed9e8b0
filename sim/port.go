package sim

// PhaseChange is one write to the phase lines
type PhaseChange struct {
	Tick    uint64
	Pattern uint8
}

// Port is a virtual phase/enable output port
type Port struct {
	now func() uint64

	Pattern uint8
	Enabled bool

	// History of phase writes, oldest first
	History []PhaseChange
}

// NewPort creates a port stamping writes with now
func NewPort(now func() uint64) *Port {
	return &Port{now: now}
}

// SetPhase implements core.PhasePort
func (p *Port) SetPhase(pattern uint8) {
	p.Pattern = pattern
	p.History = append(p.History, PhaseChange{Tick: p.now(), Pattern: pattern})
}

// SetEnable implements core.PhasePort
func (p *Port) SetEnable(on bool) {
	p.Enabled = on
}

// Steps returns the phase writes that carry a pattern, i.e. real steps
func (p *Port) Steps() []PhaseChange {
	var out []PhaseChange
	for _, c := range p.History {
		if c.Pattern != 0 {
			out = append(out, c)
		}
	}
	return out
}

// Reset clears the history
func (p *Port) Reset() {
	p.History = nil
}
