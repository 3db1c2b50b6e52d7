package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/mrlokans/library/internal/config"
)

// DefaultMaxRows caps how many rows a generated query may return.
const DefaultMaxRows = 100

// ReadOnlyQuerier runs a single SELECT statement and returns its rows as maps.
type ReadOnlyQuerier struct {
	db      *gorm.DB
	driver  config.DatabaseDriver
	maxRows int
}

func NewReadOnlyQuerier(d *Database, maxRows int) *ReadOnlyQuerier {
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	return &ReadOnlyQuerier{db: d.ReadOnly(), driver: d.Driver, maxRows: maxRows}
}

// Dialect returns the SQL dialect name the queries are executed against.
func (q *ReadOnlyQuerier) Dialect() string {
	return string(q.driver)
}

func (q *ReadOnlyQuerier) Query(ctx context.Context, query string) ([]map[string]any, error) {
	query = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(query), ";"))
	if query == "" {
		return nil, errors.New("empty query")
	}
	wrapped := fmt.Sprintf("SELECT * FROM (%s) AS assistant_q LIMIT %d", query, q.maxRows)

	var rows []map[string]any
	err := q.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if q.driver == config.DriverPostgres {
			if err := tx.Exec("SET TRANSACTION READ ONLY").Error; err != nil {
				return err
			}
		}
		return tx.Raw(wrapped).Scan(&rows).Error
	})
	if err != nil {
		return nil, errors.Wrap(err, "read-only query failed")
	}

	for _, row := range rows {
		for k, v := range row {
			if b, ok := v.([]byte); ok {
				row[k] = string(b)
			}
		}
	}
	return rows, nil
}
