package audit

import (
	"context"
	"database/sql"
)

// NOTE: PostgresRepo assumes the following table exists:
//
//   CREATE TABLE audit_events (
//     id            text PRIMARY KEY,
//     type          text NOT NULL,
//     actor_user_id text,
//     actor_role    text,
//     ip_address    text,
//     record_table  text NOT NULL,
//     record_id     text NOT NULL,
//     attributes    text,
//     message       text,
//     created_at    timestamptz NOT NULL
//   );

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) Append(ctx context.Context, e Event) error {
	const q = `
INSERT INTO audit_events (
  id, type, actor_user_id, actor_role, ip_address, record_table, record_id, attributes, message, created_at
) VALUES (
  $1,$2,$3,$4,NULLIF($5,''),$6,$7,$8,$9,$10
)
`
	_, err := r.db.ExecContext(ctx, q,
		e.ID,
		e.Type,
		e.ActorUserID,
		e.ActorRole,
		e.IPAddress,
		e.Table,
		e.RecordID,
		e.Attributes,
		e.Message,
		e.CreatedAt,
	)
	return err
}
