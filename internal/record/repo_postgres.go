package record

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// NOTE: PostgresStore assumes every table in the Schema exists with at least:
//
//   CREATE TABLE <table> (
//     id         text PRIMARY KEY,
//     created_at timestamptz NOT NULL,
//     <column>   text NULL, ...
//   );
//
// Identifiers are quoted, so table and column names are taken verbatim.

type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore expects a *sql.DB opened with the pgx stdlib driver.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Insert(ctx context.Context, table string, row Row) error {
	q, args := buildInsert(table, row)
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, table, id string) (Row, error) {
	q := fmt.Sprintf("SELECT * FROM %s WHERE id = $1", quoteIdent(table))

	rows, err := s.db.QueryContext(ctx, q, id)
	if err != nil {
		return Row{}, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return Row{}, err
	}
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return Row{}, err
		}
		return Row{}, ErrNotFound
	}

	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return Row{}, err
	}

	out := Row{Attributes: make(map[string]any, len(cols))}
	for i, c := range cols {
		switch c {
		case ColumnID:
			out.ID = fmt.Sprint(vals[i])
		case ColumnCreatedAt:
			if t, ok := vals[i].(time.Time); ok {
				out.CreatedAt = t
			}
		default:
			if b, ok := vals[i].([]byte); ok {
				out.Attributes[c] = string(b)
				continue
			}
			out.Attributes[c] = vals[i]
		}
	}
	return out, rows.Err()
}

// UpdateAttributes issues a single UPDATE touching only the named columns.
func (s *PostgresStore) UpdateAttributes(ctx context.Context, table, id string, values map[string]any) error {
	if len(values) == 0 {
		return nil
	}
	q, args := buildUpdate(table, id, values)
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func buildInsert(table string, row Row) (string, []any) {
	keys := sortedKeys(row.Attributes)

	cols := make([]string, 0, len(keys)+2)
	marks := make([]string, 0, len(keys)+2)
	args := make([]any, 0, len(keys)+2)

	cols = append(cols, quoteIdent(ColumnID), quoteIdent(ColumnCreatedAt))
	args = append(args, row.ID, row.CreatedAt)
	for _, k := range keys {
		cols = append(cols, quoteIdent(k))
		args = append(args, row.Attributes[k])
	}
	for i := range args {
		marks = append(marks, fmt.Sprintf("$%d", i+1))
	}

	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(table),
		strings.Join(cols, ", "),
		strings.Join(marks, ", "),
	)
	return q, args
}

func buildUpdate(table, id string, values map[string]any) (string, []any) {
	keys := sortedKeys(values)

	sets := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys)+1)
	for i, k := range keys {
		sets = append(sets, fmt.Sprintf("%s = $%d", quoteIdent(k), i+1))
		args = append(args, values[k])
	}
	args = append(args, id)

	q := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d",
		quoteIdent(table),
		strings.Join(sets, ", "),
		len(args),
	)
	return q, args
}

func quoteIdent(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
