package artifact

import (
	"database/sql"
	"fmt"

	"github.com/fraudlens/fraudlens/internal/explain"

	_ "modernc.org/sqlite"
)

// loadBackgroundSQLite reads a background set from a SQLite table whose
// column names are the feature names. Uses modernc.org/sqlite for a
// pure Go implementation (no CGO required).
func loadBackgroundSQLite(path, table string) (*explain.Background, error) {
	if table == "" {
		table = "background"
	}
	if !validTableName(table) {
		return nil, fmt.Errorf("invalid background table name: %s", table)
	}

	dsn := fmt.Sprintf("file:%s?mode=ro&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	defer db.Close()

	rows, err := db.Query(fmt.Sprintf(`SELECT * FROM "%s"`, table))
	if err != nil {
		return nil, fmt.Errorf("failed to query background table: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var data [][]float64
	for rows.Next() {
		row := make([]float64, len(columns))
		dest := make([]any, len(columns))
		for i := range row {
			dest[i] = &row[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan background row: %w", err)
		}
		data = append(data, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return explain.NewBackground(columns, data)
}

// validTableName permits only identifier characters, since the table
// name is interpolated into the query.
func validTableName(name string) bool {
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
		default:
			return false
		}
	}
	return len(name) > 0
}
