// Package repository implements data access for every entity. Each
// repository is an interface plus a SQL implementation over sqlx; mutating
// methods take an sqlx.ExtContext so services can pass either the DB or an
// open transaction.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"time"

	"github.com/jmoiron/sqlx"

	"github.com/goatkit/timeflow/internal/database"
	"github.com/goatkit/timeflow/internal/utils"
)

func nowIST() time.Time { return utils.NowIST() }

// insertReturningID runs an INSERT ... RETURNING id, falling back to
// LastInsertId on drivers without RETURNING.
func insertReturningID(ctx context.Context, ext sqlx.ExtContext, table string, cols []string, vals []any) (int64, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING id",
		table, strings.Join(cols, ", "), placeholders)

	query, useLastID := database.ConvertReturning(query)
	query = database.ConvertPlaceholders(query)

	if useLastID {
		res, err := ext.ExecContext(ctx, query, vals...)
		if err != nil {
			return 0, fmt.Errorf("insert %s: %w", table, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("insert %s: last insert id: %w", table, err)
		}
		return id, nil
	}

	var id int64
	if err := sqlx.GetContext(ctx, ext, &id, query, vals...); err != nil {
		return 0, fmt.Errorf("insert %s: %w", table, err)
	}
	return id, nil
}

// updateByID applies the given column set to one row. Columns are sorted so
// generated SQL is deterministic.
func updateByID(ctx context.Context, ext sqlx.ExtContext, table string, set map[string]any, id int64) error {
	if len(set) == 0 {
		return nil
	}
	cols := make([]string, 0, len(set))
	for c := range set {
		cols = append(cols, c)
	}
	sort.Strings(cols)

	clauses := make([]string, len(cols))
	vals := make([]any, 0, len(cols)+1)
	for i, c := range cols {
		clauses[i] = c + " = ?"
		vals = append(vals, set[c])
	}
	vals = append(vals, id)

	query := database.ConvertPlaceholders(
		fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", table, strings.Join(clauses, ", ")))
	res, err := ext.ExecContext(ctx, query, vals...)
	if err != nil {
		return fmt.Errorf("update %s: %w", table, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// exists runs a single-column existence probe.
func exists(ctx context.Context, ext sqlx.ExtContext, query string, args ...any) (bool, error) {
	var one int
	err := sqlx.GetContext(ctx, ext, &one, database.ConvertPlaceholders(query), args...)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// forUpdate appends a row lock clause on drivers that support it. sqlite
// serializes writers already.
func forUpdate(query string) string {
	if database.GetDBDriver() == "sqlite3" {
		return query
	}
	return query + " FOR UPDATE"
}
