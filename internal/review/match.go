// Package review holds the per-session review state and turns it into page
// views: match decisions, pagination, column mapping checks and row rendering.
package review

import (
	"encoding/json"
)

// MatchState is the operator's MATCH decision per row index. Rows never set
// read as false. The zero value and a nil pointer are both empty states.
type MatchState struct {
	marks map[int]bool
}

func NewMatchState() *MatchState {
	return &MatchState{marks: make(map[int]bool)}
}

// Get returns the decision for a row, false when unset.
func (m *MatchState) Get(row int) bool {
	if m == nil {
		return false
	}
	return m.marks[row]
}

// Set overwrites the decision for a row.
func (m *MatchState) Set(row int, v bool) {
	if m.marks == nil {
		m.marks = make(map[int]bool)
	}
	m.marks[row] = v
}

// Reset forgets every decision.
func (m *MatchState) Reset() {
	m.marks = make(map[int]bool)
}

// Len is the number of rows with an explicit decision.
func (m *MatchState) Len() int {
	if m == nil {
		return 0
	}
	return len(m.marks)
}

// Values expands the state to a dense slice for rows [0, n).
func (m *MatchState) Values(n int) []bool {
	out := make([]bool, max(n, 0))
	for i := range out {
		out[i] = m.Get(i)
	}
	return out
}

// Matched counts rows in [0, n) marked true.
func (m *MatchState) Matched(n int) int {
	if m == nil {
		return 0
	}
	count := 0
	for row, v := range m.marks {
		if v && row >= 0 && row < n {
			count++
		}
	}
	return count
}

// OutOfRange reports whether any decision refers to a row index outside
// [0, n), which happens when a shorter table replaces the reviewed one.
func (m *MatchState) OutOfRange(n int) bool {
	if m == nil {
		return false
	}
	for row := range m.marks {
		if row < 0 || row >= n {
			return true
		}
	}
	return false
}

func (m *MatchState) MarshalJSON() ([]byte, error) {
	if m == nil || m.marks == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m.marks)
}

func (m *MatchState) UnmarshalJSON(b []byte) error {
	marks := make(map[int]bool)
	if err := json.Unmarshal(b, &marks); err != nil {
		return err
	}
	m.marks = marks
	return nil
}
