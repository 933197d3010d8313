package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kailas-cloud/techsearch/internal/db"
)

// sqlQueryer is satisfied by both *sql.DB and *sql.Conn.
type sqlQueryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type querier struct {
	q       sqlQueryer
	dialect Dialect
}

func (q *querier) QueryRows(ctx context.Context, query string, args ...any) ([]db.Row, error) {
	rows, err := q.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: err}
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, &db.Error{Op: db.OpScan, Err: err}
	}

	var out []db.Row
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, &db.Error{Op: db.OpScan, Err: err}
		}
		row := make(db.Row, len(cols))
		for i, c := range cols {
			row[c] = Normalize(vals[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: err}
	}
	return out, nil
}

func (q *querier) QueryStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := q.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: err}
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v any
		if err := rows.Scan(&v); err != nil {
			return nil, &db.Error{Op: db.OpScan, Err: err}
		}
		switch s := Normalize(v).(type) {
		case nil:
		case string:
			out = append(out, s)
		default:
			out = append(out, fmt.Sprint(s))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: err}
	}
	return out, nil
}

func (q *querier) QueryInt(ctx context.Context, query string, args ...any) (int, error) {
	var n int64
	if err := q.q.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, &db.Error{Op: db.OpCount, Err: err}
	}
	return int(n), nil
}

func (q *querier) TableExists(ctx context.Context, name string) (bool, error) {
	if q.dialect.TableExistsSQL == "" {
		return false, nil
	}
	var n int64
	if err := q.q.QueryRowContext(ctx, q.dialect.TableExistsSQL, name).Scan(&n); err != nil {
		return false, &db.Error{Op: db.OpTable, Err: err}
	}
	return n > 0, nil
}

// Normalize maps driver values onto the small set of types rows carry:
// text becomes string, integers int64, floats float64 and dates "YYYY-MM-DD".
func Normalize(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case []byte:
		return string(x)
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		return int64(x)
	case float32:
		return float64(x)
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format(time.DateOnly)
		}
		return x.Format(time.RFC3339)
	default:
		return v
	}
}
