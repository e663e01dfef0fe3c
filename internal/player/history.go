package player

// historySize bounds both the recent-play window and each group queue.
const historySize = 10

// History remembers recent motion plays. It feeds the anti-repetition
// weighted draw and the round-robin alternation within a group.
type History struct {
	recent []string
	groups map[string][]string
}

// NewHistory returns an empty history.
func NewHistory() *History {
	return &History{groups: make(map[string][]string)}
}

// Record appends a play, trimming the window to the last plays.
func (h *History) Record(id, group string) {
	h.recent = append(h.recent, id)
	if len(h.recent) > historySize {
		h.recent = h.recent[len(h.recent)-historySize:]
	}
	if group != "" {
		q := append(h.groups[group], id)
		if len(q) > historySize {
			q = q[len(q)-historySize:]
		}
		h.groups[group] = q
	}
}

// RecentUse counts how often the id appears in the recent window.
func (h *History) RecentUse(id string) int {
	n := 0
	for _, r := range h.recent {
		if r == id {
			n++
		}
	}
	return n
}

// Last returns the most recently recorded id, or "".
func (h *History) Last() string {
	if len(h.recent) == 0 {
		return ""
	}
	return h.recent[len(h.recent)-1]
}

// Reset drops everything, called on avatar rebind.
func (h *History) Reset() {
	h.recent = h.recent[:0]
	h.groups = make(map[string][]string)
}
