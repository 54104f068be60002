package helpers

import (
	"context"

	"github.com/pkg/errors"

	"github.com/spektr-org/admissions/schema"
)

// LoadTable reads the raw table at location without normalizing it. With a
// table name, location is a SQLite database file; otherwise it is a CSV
// path or URL.
func LoadTable(ctx context.Context, location, table string) (*Table, error) {
	if table != "" {
		db, err := OpenSQLite(location)
		if err != nil {
			return nil, err
		}
		defer db.Close()

		t, err := ReadSQLiteTable(ctx, db, table)
		if err != nil {
			return nil, errors.Wrapf(err, "loading %s", location)
		}
		return t, nil
	}

	rc, err := Open(ctx, location)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	t, err := ReadTable(rc)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", location)
	}
	return t, nil
}

// Load reads and builds the dataset at location. See LoadTable.
func Load(ctx context.Context, location, table string, cfg schema.Config, opts ...Option) (*Dataset, error) {
	t, err := LoadTable(ctx, location, table)
	if err != nil {
		return nil, err
	}
	ds, err := Build(t, cfg, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", location)
	}
	ds.Source = location
	if table != "" {
		ds.Source += "#" + table
	}
	return ds, nil
}
