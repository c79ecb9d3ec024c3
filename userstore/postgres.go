package userstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/authgate/authgate"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres is a credential store backed by PostgreSQL. The pool is owned by
// the caller and is never closed by the store.
type Postgres struct {
	pool  *pgxpool.Pool
	table string
}

// NewPostgres creates a store on pool using the given table, "authgate_users"
// when empty. The name may be schema-qualified ("auth.users"); each part is
// quoted before use.
func NewPostgres(pool *pgxpool.Pool, table string) (*Postgres, error) {
	if pool == nil {
		return nil, errors.New("userstore: nil pool")
	}
	if table == "" {
		table = "authgate_users"
	}
	return &Postgres{
		pool:  pool,
		table: pgx.Identifier(strings.Split(table, ".")).Sanitize(),
	}, nil
}

// EnsureSchema creates the backing table if it does not exist.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS `+p.table+` (
  user_id     TEXT PRIMARY KEY,
  identifier  TEXT NOT NULL UNIQUE,
  secret_hash TEXT NOT NULL,
  session_id  TEXT NOT NULL DEFAULT '',
  created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`)
	if err != nil {
		return fmt.Errorf("userstore: ensure schema: %w", err)
	}
	return nil
}

// FindByIdentifier returns the record for identifier, or
// [authgate.ErrUserNotFound].
func (p *Postgres) FindByIdentifier(ctx context.Context, identifier string) (authgate.UserRecord, error) {
	var user authgate.UserRecord
	err := p.pool.QueryRow(ctx,
		`SELECT user_id, identifier, secret_hash, session_id, created_at
		   FROM `+p.table+`
		  WHERE identifier = $1`,
		identifier,
	).Scan(&user.UserID, &user.Identifier, &user.SecretHash, &user.SessionID, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return authgate.UserRecord{}, authgate.ErrUserNotFound
		}
		return authgate.UserRecord{}, fmt.Errorf("userstore: select: %w", err)
	}
	return user, nil
}

// Create inserts a new record. A unique violation on the identifier column
// maps to [authgate.ErrAccountExists].
func (p *Postgres) Create(ctx context.Context, input authgate.CreateUserInput) (authgate.UserRecord, error) {
	user := authgate.UserRecord{
		UserID:     uuid.NewString(),
		Identifier: input.Identifier,
		SecretHash: input.SecretHash,
		CreatedAt:  time.Now().UTC(),
	}

	_, err := p.pool.Exec(ctx,
		`INSERT INTO `+p.table+` (user_id, identifier, secret_hash, session_id, created_at)
		 VALUES ($1, $2, $3, '', $4)`,
		user.UserID, user.Identifier, user.SecretHash, user.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return authgate.UserRecord{}, authgate.ErrAccountExists
		}
		return authgate.UserRecord{}, fmt.Errorf("userstore: insert: %w", err)
	}
	return user, nil
}

// Save overwrites the mutable columns of the record keyed by UserID.
func (p *Postgres) Save(ctx context.Context, user authgate.UserRecord) error {
	ct, err := p.pool.Exec(ctx,
		`UPDATE `+p.table+`
		    SET secret_hash = $1,
		        session_id = $2
		  WHERE user_id = $3`,
		user.SecretHash, user.SessionID, user.UserID,
	)
	if err != nil {
		return fmt.Errorf("userstore: update: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return authgate.ErrUserNotFound
	}
	return nil
}
