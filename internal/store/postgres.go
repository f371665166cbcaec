package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // Postgres driver
)

// Postgres stores identity mappings in a shared Postgres database, for
// running several bot instances against one set of mappings.
type Postgres struct {
	db *sqlx.DB
}

// OpenPostgres connects to dsn, a postgres:// URL.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	conn, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	insertVersion := `
		insert into schema_version (version) values ($1)
		on conflict (version) do nothing`
	if err := initSchema(ctx, conn, insertVersion); err != nil {
		conn.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Postgres{db: conn}, nil
}

func (p *Postgres) Read(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := p.db.GetContext(ctx, &v, `select v from kv where k = $1`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (p *Postgres) Write(ctx context.Context, key, value string) error {
	query := `
		insert into kv (k, v) values ($1, $2)
		on conflict (k) do update
			set v = excluded.v`
	_, err := p.db.ExecContext(ctx, query, key, value)
	return err
}

func (p *Postgres) Delete(ctx context.Context, key string) error {
	_, err := p.db.ExecContext(ctx, `delete from kv where k = $1`, key)
	return err
}

func (p *Postgres) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := p.db.SelectContext(ctx, &keys, `
		select k from kv
		where left(k, length($1)) = $1
		order by k`, prefix)
	if err != nil {
		return nil, err
	}
	return keys, nil
}

func (p *Postgres) Close() error {
	return p.db.Close()
}
