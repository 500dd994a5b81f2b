package postgres

import (
	"fmt"
	"math"
	"net/netip"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/ericfisherdev/claimsdash/internal/domain/model"
)

// collectTable reads every row of rows into a model.Table. Column names come
// from the result's field descriptions, so SELECT * queries keep their shape.
func collectTable(rows pgx.Rows) (model.Table, error) {
	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = f.Name
	}

	tbl := model.Table{Columns: columns, Rows: [][]any{}}
	for rows.Next() {
		raw, err := rows.Values()
		if err != nil {
			return model.Table{}, err
		}
		row := make([]any, len(raw))
		for i, v := range raw {
			row[i] = normalizeValue(v)
		}
		tbl.Rows = append(tbl.Rows, row)
	}
	return tbl, rows.Err()
}

// normalizeValue converts a decoded pgx value into one of string, int64,
// float64, bool, time.Time or nil. Non-finite floats become their Postgres
// spelling because JSON has no representation for them.
func normalizeValue(v any) any {
	switch v := v.(type) {
	case nil:
		return nil
	case string, int64, bool, time.Time:
		return v
	case float64:
		return finite(v)
	case int16:
		return int64(v)
	case int32:
		return int64(v)
	case int:
		return int64(v)
	case float32:
		return finite(float64(v))
	case []byte:
		return string(v)
	case [16]byte:
		return uuid.UUID(v).String()
	case pgtype.Numeric:
		if !v.Valid {
			return nil
		}
		if v.NaN {
			return "NaN"
		}
		f, err := v.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return finite(f.Float64)
	case pgtype.Interval:
		if !v.Valid {
			return nil
		}
		d := time.Duration(v.Microseconds)*time.Microsecond + time.Duration(v.Days)*24*time.Hour
		if v.Months != 0 {
			return fmt.Sprintf("%d mons %s", v.Months, d)
		}
		return d.String()
	case netip.Prefix:
		return v.String()
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

func finite(f float64) any {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	default:
		return f
	}
}
