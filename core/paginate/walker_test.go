package paginate

import (
	"errors"
	"testing"
)

func contents(t *testing.T, w *Walker, moves string) string {
	t.Helper()
	var out string
	for _, m := range moves {
		switch m {
		case 'n':
			p, ok, err := w.Next()
			if err != nil {
				t.Fatalf("next: %v", err)
			}
			if ok {
				out = p.Content
			}
		case 'p':
			if p, ok := w.Previous(); ok {
				out = p.Content
			}
		case 'f':
			if p, ok := w.First(); ok {
				out = p.Content
			}
		case 'l':
			p, ok, err := w.Last()
			if err != nil {
				t.Fatalf("last: %v", err)
			}
			if ok {
				out = p.Content
			}
		}
	}
	return out
}

func TestWalkerForwardBackwardRoundTrip(t *testing.T) {
	w := NewWalker(Strings("a", "b", "c", "d"))

	if got := contents(t, w, "nnnn"); got != "d" {
		t.Fatalf("after four next = %q, want d", got)
	}
	if got := contents(t, w, "ppp"); got != "a" {
		t.Fatalf("after three previous = %q, want a", got)
	}
	if w.Index() != 0 {
		t.Fatalf("index = %d, want 0", w.Index())
	}
}

func TestWalkerNextStopsAtEnd(t *testing.T) {
	w := NewWalker(Strings("a", "b"))
	contents(t, w, "nn")

	if _, ok, err := w.Next(); ok || err != nil {
		t.Fatalf("next past end = ok %v err %v, want exhaustion", ok, err)
	}
	if w.Index() != 1 {
		t.Fatalf("cursor moved on exhausted next: index %d", w.Index())
	}
}

func TestWalkerPreviousNeverPullsSource(t *testing.T) {
	pulls := 0
	src := FuncSource(func() (Page, bool, error) {
		pulls++
		if pulls > 3 {
			return Page{}, false, nil
		}
		return Page{Content: string(rune('a' + pulls - 1))}, true, nil
	})

	w := NewWalker(src)
	contents(t, w, "nnn")
	if pulls != 3 {
		t.Fatalf("pulls after three next = %d, want 3", pulls)
	}

	contents(t, w, "ppnn")
	if pulls != 3 {
		t.Fatalf("buffered navigation pulled the source: %d pulls", pulls)
	}
}

func TestWalkerFirstRedisplaysBufferHead(t *testing.T) {
	w := NewWalker(Strings("a", "b", "c"))

	if _, ok := w.First(); ok {
		t.Fatal("First reported a move before anything was materialized")
	}

	contents(t, w, "nn")
	p, ok := w.First()
	if !ok || p.Content != "a" {
		t.Fatalf("First = %q/%v, want a/true", p.Content, ok)
	}
	if _, ok := w.First(); ok {
		t.Fatal("First reported a move while already at the head")
	}
}

func TestWalkerLastDrainsSource(t *testing.T) {
	pulls := 0
	src := FuncSource(func() (Page, bool, error) {
		pulls++
		if pulls > 5 {
			return Page{}, false, nil
		}
		return Page{Content: string(rune('a' + pulls - 1))}, true, nil
	})

	w := NewWalker(src)
	contents(t, w, "n")

	p, ok, err := w.Last()
	if err != nil || !ok {
		t.Fatalf("Last = %v/%v", ok, err)
	}
	if p.Content != "e" {
		t.Fatalf("Last page = %q, want e", p.Content)
	}
	if w.Index() != w.Len()-1 {
		t.Fatalf("cursor %d not at final page %d", w.Index(), w.Len()-1)
	}
	if w.Len() != 5 {
		t.Fatalf("buffer length = %d, want 5", w.Len())
	}
}

func TestWalkerSourceErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	src := FuncSource(func() (Page, bool, error) {
		return Page{}, false, boom
	})

	w := NewWalker(src)
	if _, _, err := w.Next(); !errors.Is(err, boom) {
		t.Fatalf("next error = %v, want boom", err)
	}
	if _, _, err := w.Last(); !errors.Is(err, boom) {
		t.Fatalf("last error = %v, want boom", err)
	}
}
