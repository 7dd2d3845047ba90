package translate

import "strings"

// contextEntry is a snapshot of one dialogue block used to prime
// single-item translation prompts.
type contextEntry struct {
	jpName string
	jpText string
	enName string
	enText string
}

// contextWindow is a bounded FIFO of recently processed blocks. Only the
// sequential (non-batched) strategy renders it into prompts; batched calls
// rely on the co-submitted lines of the batch instead.
type contextWindow struct {
	capacity int
	entries  []contextEntry
}

func newContextWindow(capacity int) *contextWindow {
	return &contextWindow{capacity: capacity}
}

// Append pushes a block snapshot, evicting the oldest entry when the
// window is over capacity. A zero-capacity window stays empty.
func (w *contextWindow) Append(jpName, jpText, enName, enText string) {
	if w.capacity <= 0 {
		return
	}
	w.entries = append(w.entries, contextEntry{
		jpName: jpName,
		jpText: jpText,
		enName: enName,
		enText: enText,
	})
	if len(w.entries) > w.capacity {
		w.entries = w.entries[1:]
	}
}

// Render produces the prompt preamble listing prior dialogue. Entries with
// a known translation show both sides; untranslated entries show only the
// source line. Returns "" for an empty window.
func (w *contextWindow) Render() string {
	if len(w.entries) == 0 {
		return ""
	}

	parts := make([]string, 0, len(w.entries))
	for _, e := range w.entries {
		if e.enText != "" {
			parts = append(parts, e.jpName+": "+e.jpText+"\n[Translation]: "+e.enName+": "+e.enText)
		} else {
			parts = append(parts, e.jpName+": "+e.jpText)
		}
	}

	return "\n\nPrevious dialogue for context:\n" + strings.Join(parts, "\n") + "\n\nNow translate:"
}

// Reset clears the window for a new file.
func (w *contextWindow) Reset() {
	w.entries = nil
}

// Len returns the number of buffered entries.
func (w *contextWindow) Len() int {
	return len(w.entries)
}
