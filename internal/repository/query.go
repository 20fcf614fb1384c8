package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	apperrors "github.com/heapsnap-analysis/pkg/errors"
)

// ValueKind tags the decoded type of one result-set cell.
type ValueKind int

const (
	// KindNull marks a SQL NULL cell.
	KindNull ValueKind = iota
	// KindInteger marks a cell decoded as an integer.
	KindInteger
	// KindReal marks a cell decoded as a floating-point number.
	KindReal
	// KindText marks a cell decoded as text.
	KindText
)

// ColumnValue is one tagged result-set cell. Exactly one of Integer/Real/
// Text carries a value, selected by Kind.
type ColumnValue struct {
	Kind    ValueKind
	Integer int64
	Real    float64
	Text    string
}

// Row is one query result row: column name to tagged value, in column order.
type Row struct {
	Columns []string
	Values  []ColumnValue
}

// Query runs an arbitrary SQL statement against the output store and
// returns every result row, tagged by decoded type. Blob columns are
// unsupported: the schema never produces them, so encountering one is
// treated as a hard query failure rather than silently coerced.
func Query(ctx context.Context, db *gorm.DB, sqlText string) ([]Row, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeQueryError, "failed to obtain underlying *sql.DB", err)
	}

	rows, err := sqlDB.QueryContext(ctx, sqlText)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeQueryError, "query execution failed", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeQueryError, "failed to read result columns", err)
	}

	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeQueryError, "failed to read result column types", err)
	}
	isBlob := make([]bool, len(colTypes))
	for i, ct := range colTypes {
		isBlob[i] = strings.Contains(strings.ToUpper(ct.DatabaseTypeName()), "BLOB")
	}

	var results []Row
	for rows.Next() {
		raw := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeQueryError, "failed to scan result row", err)
		}

		values := make([]ColumnValue, len(cols))
		for i, v := range raw {
			cv, err := decodeCell(v, isBlob[i])
			if err != nil {
				return nil, err
			}
			values[i] = cv
		}

		results = append(results, Row{Columns: cols, Values: values})
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeQueryError, "error iterating result rows", err)
	}

	return results, nil
}

func decodeCell(v interface{}, isBlob bool) (ColumnValue, error) {
	switch t := v.(type) {
	case nil:
		return ColumnValue{Kind: KindNull}, nil
	case int64:
		return ColumnValue{Kind: KindInteger, Integer: t}, nil
	case float64:
		return ColumnValue{Kind: KindReal, Real: t}, nil
	case string:
		return ColumnValue{Kind: KindText, Text: t}, nil
	case []byte:
		// The sqlite/mysql/postgres drivers hand back []byte for both TEXT
		// and BLOB columns; only the declared column type distinguishes
		// them, so a genuine blob still hard-fails per the unsupported
		// contract while a TEXT column scanned as []byte is accepted.
		if isBlob {
			return ColumnValue{}, apperrors.New(apperrors.CodeQueryError, "blob columns are unsupported")
		}
		return ColumnValue{Kind: KindText, Text: string(t)}, nil
	case bool:
		if t {
			return ColumnValue{Kind: KindInteger, Integer: 1}, nil
		}
		return ColumnValue{Kind: KindInteger, Integer: 0}, nil
	default:
		return ColumnValue{}, apperrors.New(apperrors.CodeQueryError, "unsupported result column type")
	}
}
