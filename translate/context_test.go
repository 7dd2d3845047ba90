package translate

import (
	"strings"
	"testing"
)

func TestContextWindowEviction(t *testing.T) {
	w := newContextWindow(2)

	w.Append("A", "a-jp", "A-en", "a-en")
	w.Append("B", "b-jp", "B-en", "b-en")
	w.Append("C", "c-jp", "C-en", "c-en")

	if w.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", w.Len())
	}

	rendered := w.Render()
	if strings.Contains(rendered, "a-jp") {
		t.Errorf("oldest entry should have been evicted, got %q", rendered)
	}
	if !strings.Contains(rendered, "b-jp") || !strings.Contains(rendered, "c-jp") {
		t.Errorf("newest entries missing from %q", rendered)
	}
}

func TestContextWindowZeroCapacity(t *testing.T) {
	w := newContextWindow(0)
	w.Append("A", "a-jp", "A-en", "a-en")

	if w.Len() != 0 {
		t.Errorf("zero-capacity window buffered %d entries", w.Len())
	}
	if got := w.Render(); got != "" {
		t.Errorf("Render() = %q, want empty", got)
	}
}

func TestContextWindowRender(t *testing.T) {
	w := newContextWindow(3)
	w.Append("勇者", "こんにちは", "Hero", "Hello")
	w.Append("魔王", "さらばだ", "", "")

	got := w.Render()
	want := "\n\nPrevious dialogue for context:\n" +
		"勇者: こんにちは\n[Translation]: Hero: Hello\n" +
		"魔王: さらばだ" +
		"\n\nNow translate:"
	if got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}
}

func TestContextWindowReset(t *testing.T) {
	w := newContextWindow(3)
	w.Append("A", "a", "A", "a")
	w.Reset()

	if w.Len() != 0 {
		t.Errorf("Len() after Reset = %d, want 0", w.Len())
	}
}
