// Package phase maps mission clock readings onto the ordered sequence of
// mission phases defined by a mission template.
package phase

import (
	"fmt"
	"sort"
)

// Phase is one named segment of the mission timeline. OffsetSeconds is the
// nominal start offset relative to T-0 (negative = before liftoff).
type Phase struct {
	ID            string  `yaml:"id" json:"id"`
	Label         string  `yaml:"label" json:"label"`
	Icon          string  `yaml:"icon" json:"icon"`
	OffsetSeconds float64 `yaml:"offset_seconds" json:"offset_seconds"`
	Short         string  `yaml:"short" json:"short"`
	Long          string  `yaml:"long" json:"long"`
}

// Table is an ordered phase list, sorted ascending by offset at load time.
type Table struct {
	phases []Phase
}

// Status is the resolved display state for one clock reading.
type Status struct {
	// Pre is true before the first phase; Index and Phase are zero values then.
	Pre bool `json:"pre"`
	// Index is the position of the current phase in the table.
	Index int `json:"index"`
	// Phase is the current phase.
	Phase Phase `json:"phase"`
	// Next is the upcoming phase, zero value when Final.
	Next Phase `json:"next"`
	// Progress within the current phase, clamped to [0,1]. 1 when Final.
	Progress float64 `json:"progress"`
	// Final is true while in the last phase of the table.
	Final bool `json:"final"`
}

// NewTable validates and sorts the phases. Phases with duplicate offsets are
// rejected so resolution is unambiguous.
func NewTable(phases []Phase) (*Table, error) {
	if len(phases) == 0 {
		return nil, fmt.Errorf("phase: table requires at least one phase")
	}
	sorted := make([]Phase, len(phases))
	copy(sorted, phases)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].OffsetSeconds < sorted[j].OffsetSeconds
	})
	for i := 1; i < len(sorted); i++ {
		if sorted[i].OffsetSeconds == sorted[i-1].OffsetSeconds {
			return nil, fmt.Errorf("phase: %s and %s share offset %v",
				sorted[i-1].ID, sorted[i].ID, sorted[i].OffsetSeconds)
		}
	}
	return &Table{phases: sorted}, nil
}

// Phases returns the sorted phase list.
func (t *Table) Phases() []Phase {
	return t.phases
}

// Len returns the number of phases.
func (t *Table) Len() int {
	return len(t.phases)
}

// Resolve returns the status for the given elapsed seconds: the latest phase
// whose offset does not exceed elapsed. Resolution is never by proximity, so
// a brief backward clock correction cannot flip between adjacent phases.
func (t *Table) Resolve(elapsed float64) Status {
	// First index whose offset is strictly greater than elapsed.
	n := sort.Search(len(t.phases), func(i int) bool {
		return t.phases[i].OffsetSeconds > elapsed
	})
	if n == 0 {
		return Status{Pre: true}
	}
	idx := n - 1
	st := Status{
		Index: idx,
		Phase: t.phases[idx],
	}
	if idx == len(t.phases)-1 {
		st.Final = true
		st.Progress = 1
		return st
	}
	st.Next = t.phases[idx+1]
	span := st.Next.OffsetSeconds - st.Phase.OffsetSeconds
	st.Progress = clamp01((elapsed - st.Phase.OffsetSeconds) / span)
	return st
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
