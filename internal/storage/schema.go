package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/mmex-tools/mmexplore/internal/common"
)

// TableStat is one user table with its row count.
type TableStat struct {
	Name     string
	RowCount int64
}

// ColumnInfo is one column's metadata as reported by PRAGMA
// table_info.
type ColumnInfo struct {
	Name         string
	Type         string
	DefaultValue string
	ID           int
	NotNull      bool
	PrimaryKey   bool
}

// ListTables returns the user tables in the database with their row
// counts, ordered by name.
//
// sqlite_master and PRAGMA surfaces are raw-SQL only; table names
// come back from sqlite_master itself, so quoting them into the count
// query is safe.
func (s *Store) ListTables(ctx context.Context) ([]TableStat, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var stats []TableStat
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		rows, queryErr := conn.QueryContext(ctx,
			`SELECT name FROM sqlite_master
			 WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
			 ORDER BY name`)
		if queryErr != nil {
			return fmt.Errorf("%w: listing tables: %v", common.ErrQueryFailed, queryErr)
		}

		var names []string
		for rows.Next() {
			var name string
			if scanErr := rows.Scan(&name); scanErr != nil {
				_ = rows.Close()
				return fmt.Errorf("%w: scanning table name: %v", common.ErrQueryFailed, scanErr)
			}
			names = append(names, name)
		}
		if rowsErr := rows.Err(); rowsErr != nil {
			_ = rows.Close()
			return fmt.Errorf("%w: iterating tables: %v", common.ErrQueryFailed, rowsErr)
		}
		_ = rows.Close()

		for _, name := range names {
			var count int64
			countQuery := "SELECT COUNT(*) FROM " + quoteIdent(name)
			if scanErr := conn.QueryRowContext(ctx, countQuery).Scan(&count); scanErr != nil {
				return fmt.Errorf("%w: counting rows in %s: %v", common.ErrQueryFailed, name, scanErr)
			}
			stats = append(stats, TableStat{Name: name, RowCount: count})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return stats, nil
}

// TableInfo returns column metadata for the named table, or
// ErrTableNotFound when the table does not exist.
func (s *Store) TableInfo(ctx context.Context, table string) ([]ColumnInfo, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(table, "table"); err != nil {
		return nil, err
	}

	var columns []ColumnInfo
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		if err := requireTable(ctx, conn, table); err != nil {
			return err
		}

		rows, queryErr := conn.QueryContext(ctx, "PRAGMA table_info("+quoteIdent(table)+")")
		if queryErr != nil {
			return fmt.Errorf("%w: reading columns of %s: %v", common.ErrQueryFailed, table, queryErr)
		}
		defer func() { _ = rows.Close() }()

		for rows.Next() {
			var (
				col     ColumnInfo
				notNull int
				pk      int
				dflt    sql.NullString
			)
			if scanErr := rows.Scan(&col.ID, &col.Name, &col.Type, &notNull, &dflt, &pk); scanErr != nil {
				return fmt.Errorf("%w: scanning column info: %v", common.ErrQueryFailed, scanErr)
			}
			col.NotNull = notNull != 0
			col.PrimaryKey = pk != 0
			col.DefaultValue = dflt.String
			columns = append(columns, col)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	return columns, nil
}

// SampleRows returns up to limit rows of the named table as strings,
// for schema exploration display.
func (s *Store) SampleRows(ctx context.Context, table string, limit int) ([]string, [][]string, error) {
	if err := validateContext(ctx); err != nil {
		return nil, nil, err
	}
	if err := validateString(table, "table"); err != nil {
		return nil, nil, err
	}
	if limit <= 0 {
		limit = 5
	}

	var (
		columns []string
		samples [][]string
	)
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		if err := requireTable(ctx, conn, table); err != nil {
			return err
		}

		query := fmt.Sprintf("SELECT * FROM %s LIMIT %d", quoteIdent(table), limit)
		rows, queryErr := conn.QueryContext(ctx, query)
		if queryErr != nil {
			return fmt.Errorf("%w: sampling %s: %v", common.ErrQueryFailed, table, queryErr)
		}
		defer func() { _ = rows.Close() }()

		cols, colsErr := rows.Columns()
		if colsErr != nil {
			return fmt.Errorf("%w: reading columns of %s: %v", common.ErrQueryFailed, table, colsErr)
		}
		columns = cols

		for rows.Next() {
			values := make([]any, len(cols))
			ptrs := make([]any, len(cols))
			for i := range values {
				ptrs[i] = &values[i]
			}
			if scanErr := rows.Scan(ptrs...); scanErr != nil {
				return fmt.Errorf("%w: scanning sample row: %v", common.ErrQueryFailed, scanErr)
			}

			row := make([]string, len(cols))
			for i, v := range values {
				row[i] = renderValue(v)
			}
			samples = append(samples, row)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, nil, err
	}

	return columns, samples, nil
}

// requireTable checks the table exists in sqlite_master.
func requireTable(ctx context.Context, conn *sql.Conn, table string) error {
	var count int
	err := conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`,
		table).Scan(&count)
	if err != nil {
		return fmt.Errorf("%w: checking for table %s: %v", common.ErrQueryFailed, table, err)
	}
	if count == 0 {
		return fmt.Errorf("%w: %s", common.ErrTableNotFound, table)
	}
	return nil
}

// quoteIdent double-quotes an SQL identifier. Identifiers cannot be
// bound as parameters, so this is the only interpolation path; every
// caller validates the name against sqlite_master first.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// renderValue stringifies a scanned column value for display.
func renderValue(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(value)
	default:
		return fmt.Sprintf("%v", value)
	}
}
