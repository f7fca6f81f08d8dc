package repository

import (
	"strings"

	"github.com/jackc/pgx/v5"
)

// trailingScanner appends extra destinations after the ones passed to Scan,
// letting the shared scan helpers read joined rows with additional columns.
type trailingScanner struct {
	row   pgx.Row
	extra []any
}

func (s *trailingScanner) Scan(dest ...any) error {
	return s.row.Scan(append(dest, s.extra...)...)
}

// qualifiedLocationColumns prefixes every location column with a table alias.
func qualifiedLocationColumns(alias string) string {
	cols := strings.Split(locationColumns, ",")
	for i, c := range cols {
		cols[i] = alias + "." + strings.TrimSpace(c)
	}
	return strings.Join(cols, ", ")
}
