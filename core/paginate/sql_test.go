package paginate

import (
	"fmt"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

type guildRow struct {
	Name    string `db:"name"`
	Members int    `db:"members"`
}

func openFixture(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if _, err := db.Exec(`CREATE TABLE guilds (name TEXT, members INTEGER)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	for i, name := range []string{"alpha", "beta", "gamma"} {
		if _, err := db.Exec(`INSERT INTO guilds (name, members) VALUES (?, ?)`, name, (i+1)*10); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	return db
}

func TestSQLSourcePagesRows(t *testing.T) {
	db := openFixture(t)
	rows, err := db.Queryx(`SELECT name, members FROM guilds ORDER BY name`)
	if err != nil {
		t.Fatalf("query: %v", err)
	}

	src := SQLSource(rows, func(rows *sqlx.Rows) (Page, error) {
		var row guildRow
		if err := rows.StructScan(&row); err != nil {
			return Page{}, err
		}
		return Page{Content: fmt.Sprintf("%s: %d members", row.Name, row.Members)}, nil
	})

	want := []string{"alpha: 10 members", "beta: 20 members", "gamma: 30 members"}
	for i, expected := range want {
		page, ok, err := src.Next()
		if err != nil || !ok {
			t.Fatalf("page %d: ok %v err %v", i, ok, err)
		}
		if page.Content != expected {
			t.Fatalf("page %d = %q, want %q", i, page.Content, expected)
		}
	}

	if _, ok, err := src.Next(); ok || err != nil {
		t.Fatalf("drained source: ok %v err %v", ok, err)
	}
	// Exhaustion is sticky once the rows are closed.
	if _, ok, err := src.Next(); ok || err != nil {
		t.Fatalf("second drained pull: ok %v err %v", ok, err)
	}
}

func TestSQLSourceRenderErrorClosesRows(t *testing.T) {
	db := openFixture(t)
	rows, err := db.Queryx(`SELECT name, members FROM guilds`)
	if err != nil {
		t.Fatalf("query: %v", err)
	}

	src := SQLSource(rows, func(*sqlx.Rows) (Page, error) {
		return Page{}, fmt.Errorf("render failed")
	})

	if _, ok, err := src.Next(); ok || err == nil {
		t.Fatalf("render failure not surfaced: ok %v err %v", ok, err)
	}
	if _, ok, err := src.Next(); ok || err != nil {
		t.Fatalf("source not terminated after failure: ok %v err %v", ok, err)
	}
	if rows.Next() {
		t.Fatal("rows still open after render failure")
	}
}

func TestSQLSourceDrivesWalker(t *testing.T) {
	db := openFixture(t)
	rows, err := db.Queryx(`SELECT name, members FROM guilds ORDER BY name`)
	if err != nil {
		t.Fatalf("query: %v", err)
	}

	w := NewWalker(SQLSource(rows, func(rows *sqlx.Rows) (Page, error) {
		var row guildRow
		if err := rows.StructScan(&row); err != nil {
			return Page{}, err
		}
		return Page{Content: row.Name}, nil
	}))

	page, ok, err := w.Last()
	if err != nil || !ok {
		t.Fatalf("last: ok %v err %v", ok, err)
	}
	if page.Content != "gamma" || w.Len() != 3 {
		t.Fatalf("last = %q with %d pages, want gamma with 3", page.Content, w.Len())
	}
}
