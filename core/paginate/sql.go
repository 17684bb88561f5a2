package paginate

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// RenderRow builds a page from the current row of a positioned result set,
// typically via rows.StructScan or rows.Scan.
type RenderRow func(rows *sqlx.Rows) (Page, error)

// SQLSource paginates a sqlx result set, one page per row, pulling rows only
// as pages are visited. The rows are closed once the set is drained or a row
// fails to render.
func SQLSource(rows *sqlx.Rows, render RenderRow) Source {
	return &sqlSource{rows: rows, render: render}
}

type sqlSource struct {
	rows   *sqlx.Rows
	render RenderRow
	done   bool
}

func (s *sqlSource) Next() (Page, bool, error) {
	if s.done {
		return Page{}, false, nil
	}
	if !s.rows.Next() {
		s.done = true
		err := s.rows.Err()
		_ = s.rows.Close()
		if err != nil {
			return Page{}, false, fmt.Errorf("paginate: advancing rows: %w", err)
		}
		return Page{}, false, nil
	}

	page, err := s.render(s.rows)
	if err != nil {
		s.done = true
		_ = s.rows.Close()
		return Page{}, false, fmt.Errorf("paginate: rendering row: %w", err)
	}
	return page, true, nil
}
