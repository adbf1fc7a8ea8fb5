package pipeline

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// sqliteWriter writes one <job>.sqlite database with a table per report
// table.
type sqliteWriter struct{}

func (sqliteWriter) Format() string { return FormatSQLite }

func (sqliteWriter) Write(dir string, rep *Report) ([]string, error) {
	for _, t := range rep.Tables {
		if err := checkTable(t); err != nil {
			return nil, err
		}
	}
	var s staging
	tmp, err := s.reserve(filepath.Join(dir, rep.Job+".sqlite"))
	if err != nil {
		s.abort()
		return nil, err
	}
	if err := writeSQLite(tmp, rep); err != nil {
		s.abort()
		return nil, err
	}
	return s.commit()
}

func writeSQLite(path string, rep *Report) error {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	for _, t := range rep.Tables {
		if err := insertTable(tx, t); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("table %s: %w", t.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	return db.Close()
}

func insertTable(tx *sql.Tx, t Table) error {
	cols := make([]string, len(t.Columns))
	names := make([]string, len(t.Columns))
	marks := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = quoteIdent(c.Name)
		cols[i] = names[i] + " " + sqliteType(c.Kind)
		marks[i] = "?"
	}
	create := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(t.Name), strings.Join(cols, ", "))
	if _, err := tx.Exec(create); err != nil {
		return err
	}
	if len(t.Rows) == 0 {
		return nil
	}

	stmt, err := tx.Prepare(fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(t.Name), strings.Join(names, ", "), strings.Join(marks, ", ")))
	if err != nil {
		return err
	}
	defer stmt.Close()

	args := make([]any, len(t.Columns))
	for _, row := range t.Rows {
		for i, v := range row {
			args[i] = sqliteValue(v)
		}
		if _, err := stmt.Exec(args...); err != nil {
			return err
		}
	}
	return nil
}

func sqliteType(kind ColumnKind) string {
	switch kind {
	case KindFloat:
		return "REAL"
	case KindInt:
		return "INTEGER"
	case KindDate:
		return "DATE"
	case KindTime:
		return "DATETIME"
	default:
		return "TEXT"
	}
}

func sqliteValue(v any) any {
	switch x := v.(type) {
	case time.Time:
		return formatCell(x)
	default:
		return v
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
