package helpers

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/spektr-org/admissions/schema"
)

// OpenSQLite opens a SQLite database file read-only.
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, errors.Wrapf(err, "opening sqlite %s", path)
	}
	return db, nil
}

// ReadSQLiteTable reads every row of table as strings. NULL becomes "".
func ReadSQLiteTable(ctx context.Context, db *sql.DB, table string) (*Table, error) {
	rows, err := db.QueryContext(ctx, "SELECT * FROM "+quoteIdent(table))
	if err != nil {
		return nil, errors.Wrapf(err, "querying table %s", table)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(err, "columns")
	}
	if err := validateHeader(cols); err != nil {
		return nil, err
	}

	t := &Table{Headers: cols}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for j := range values {
			ptrs[j] = &values[j]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, errors.Wrap(err, "scan row")
		}
		row := make([]string, len(cols))
		for j, v := range values {
			row[j] = formatValue(v)
		}
		t.Rows = append(t.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "reading table %s", table)
	}
	return t, nil
}

// LoadSQLite loads table from db the same way ReadCSV loads a CSV file.
func LoadSQLite(ctx context.Context, db *sql.DB, table string, cfg schema.Config, opts ...Option) (*Dataset, error) {
	t, err := ReadSQLiteTable(ctx, db, table)
	if err != nil {
		return nil, err
	}
	ds, err := Build(t, cfg, opts...)
	if err != nil {
		return nil, err
	}
	ds.Source = table
	return ds, nil
}

// formatValue converts a database value to its text form.
func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(val)
	case string:
		return val
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case time.Time:
		return val.Format(time.RFC3339)
	default:
		return fmt.Sprint(val)
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
