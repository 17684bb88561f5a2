package paginate

// SliceSource returns a Source over an already-materialized page slice.
func SliceSource(pages []Page) Source {
	cp := make([]Page, len(pages))
	copy(cp, pages)
	return &sliceSource{pages: cp}
}

type sliceSource struct {
	pages []Page
	pos   int
}

func (s *sliceSource) Next() (Page, bool, error) {
	if s.pos >= len(s.pages) {
		return Page{}, false, nil
	}
	p := s.pages[s.pos]
	s.pos++
	return p, true, nil
}

// FuncSource adapts a pull function into a Source.
type FuncSource func() (Page, bool, error)

// Next implements Source.
func (f FuncSource) Next() (Page, bool, error) {
	return f()
}

// Strings returns a Source producing one content-only page per string.
func Strings(contents ...string) Source {
	pages := make([]Page, len(contents))
	for i, c := range contents {
		pages[i] = Page{Content: c}
	}
	return SliceSource(pages)
}
