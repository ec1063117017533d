package monitor

import "sync"

const maxHistoryEntries = 50

// History keeps a bounded, most-recent-first record of completed runs for
// the status API.
type History struct {
	mu      sync.RWMutex
	entries []*Report
}

func NewHistory() *History {
	return &History{}
}

func (h *History) Add(r *Report) {
	if r == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append([]*Report{r}, h.entries...)
	if len(h.entries) > maxHistoryEntries {
		h.entries = h.entries[:maxHistoryEntries]
	}
}

// Last returns the most recent run, or nil when nothing has run yet.
func (h *History) Last() *Report {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.entries) == 0 {
		return nil
	}
	return h.entries[0]
}

// Recent returns up to limit most recent runs, newest first.
func (h *History) Recent(limit int) []*Report {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if limit <= 0 || limit > len(h.entries) {
		limit = len(h.entries)
	}
	out := make([]*Report, limit)
	copy(out, h.entries[:limit])
	return out
}
