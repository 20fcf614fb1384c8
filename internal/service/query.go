package service

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/heapsnap-analysis/internal/repository"
	apperrors "github.com/heapsnap-analysis/pkg/errors"
)

// RunQueries opens the database at path and executes each of sqlStatements
// in order, returning one result set per statement. Used both for
// post-ingestion --query flags against the freshly written database and for
// ad-hoc querying of an already-ingested one.
func RunQueries(ctx context.Context, path string, sqlStatements []string) ([][]repository.Row, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeIOError, "failed to open database for query", err)
	}
	defer func() {
		if sqlDB, derr := db.DB(); derr == nil {
			_ = sqlDB.Close()
		}
	}()

	results := make([][]repository.Row, len(sqlStatements))
	for i, stmt := range sqlStatements {
		rows, err := repository.Query(ctx, db, stmt)
		if err != nil {
			return nil, err
		}
		results[i] = rows
	}
	return results, nil
}

// FormatRow renders one result row as "col=value, col=value" for
// human-readable stdout printing; exact formatting is not part of the
// contract beyond being readable, one row per line.
func FormatRow(row repository.Row) string {
	parts := make([]string, len(row.Columns))
	for i, col := range row.Columns {
		parts[i] = fmt.Sprintf("%s=%s", col, formatValue(row.Values[i]))
	}
	return strings.Join(parts, ", ")
}

func formatValue(v repository.ColumnValue) string {
	switch v.Kind {
	case repository.KindNull:
		return "NULL"
	case repository.KindInteger:
		return fmt.Sprintf("%d", v.Integer)
	case repository.KindReal:
		return fmt.Sprintf("%g", v.Real)
	case repository.KindText:
		return v.Text
	default:
		return ""
	}
}
