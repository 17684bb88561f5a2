package paginate

// Walker tracks the pages materialized from a Source and a cursor into them.
// The buffer is always a prefix of the full sequence; backward moves never
// touch the source. Not safe for concurrent use; the owning handler's lock
// serializes access.
type Walker struct {
	source Source
	buffer []Page
	index  int
}

// NewWalker wraps a source with an empty buffer. The cursor is positioned
// before the first page until Next pulls it.
func NewWalker(source Source) *Walker {
	return &Walker{source: source, index: -1}
}

// Next moves the cursor forward, reusing the buffer when the page was
// already materialized and pulling exactly one page from the source
// otherwise. ok is false when the sequence is exhausted; the cursor does not
// move in that case.
func (w *Walker) Next() (Page, bool, error) {
	if w.index+1 < len(w.buffer) {
		w.index++
		return w.buffer[w.index], true, nil
	}

	page, ok, err := w.source.Next()
	if err != nil {
		return Page{}, false, err
	}
	if !ok {
		return Page{}, false, nil
	}
	w.buffer = append(w.buffer, page)
	w.index++
	return page, true, nil
}

// Previous moves the cursor one page back within the buffer. ok is false at
// the first page.
func (w *Walker) Previous() (Page, bool) {
	if w.index <= 0 {
		return Page{}, false
	}
	w.index--
	return w.buffer[w.index], true
}

// First re-displays the first buffered page. ok is false when the cursor is
// already there or nothing has been materialized yet. The source is never
// restarted.
func (w *Walker) First() (Page, bool) {
	if len(w.buffer) == 0 || w.index == 0 {
		return Page{}, false
	}
	w.index = 0
	return w.buffer[0], true
}

// Last drains the entire remaining source into the buffer and positions the
// cursor on the true final page.
func (w *Walker) Last() (Page, bool, error) {
	for {
		page, ok, err := w.source.Next()
		if err != nil {
			return Page{}, false, err
		}
		if !ok {
			break
		}
		w.buffer = append(w.buffer, page)
	}
	if len(w.buffer) == 0 {
		return Page{}, false, nil
	}
	w.index = len(w.buffer) - 1
	return w.buffer[w.index], true, nil
}

// Index returns the cursor position, -1 before the first pull.
func (w *Walker) Index() int {
	return w.index
}

// Len returns how many pages have been materialized so far.
func (w *Walker) Len() int {
	return len(w.buffer)
}
