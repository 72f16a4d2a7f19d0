// Package postgres implements the interface for PostgreSQL.
package postgres

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/tarancss/chainscan/lib/block/types"
	"github.com/tarancss/chainscan/lib/store"
)

// Schema creates the tables if they do not exist.
const Schema = `
CREATE TABLE IF NOT EXISTS found (
	id       BIGSERIAL PRIMARY KEY,
	chain    TEXT        NOT NULL,
	address  TEXT        NOT NULL,
	balance  NUMERIC     NOT NULL,
	usd      NUMERIC     NOT NULL,
	found_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS found_chain_idx ON found (chain);
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	started      TIMESTAMPTZ NOT NULL,
	finished     TIMESTAMPTZ NOT NULL,
	chains       TEXT[]      NOT NULL,
	checked      BIGINT      NOT NULL,
	found        INTEGER     NOT NULL,
	best_chain   TEXT,
	best_address TEXT,
	best_balance NUMERIC,
	best_usd     NUMERIC,
	best_at      TIMESTAMPTZ
);`

// Postgres implements a connection to a PostgreSQL database.
type Postgres struct {
	db *sql.DB
}

// New returns a postgres client connection to the specified database in 'connection' and creates the tables.
func New(connection string) (*Postgres, error) {
	db, err := sql.Open("postgres", connection)
	if err != nil {
		return nil, errors.Wrap(err, "cannot connect to postgres DB")
	}

	if _, err = db.Exec(Schema); err != nil {
		db.Close()

		return nil, errors.Wrap(err, "creating postgres schema")
	}

	return &Postgres{db: db}, nil
}

// Close will close any database connection. Must be called at termination time.
func (p *Postgres) Close() error {
	return p.db.Close()
}

// SaveFound inserts a found record.
func (p *Postgres) SaveFound(ctx context.Context, f types.Found) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO found (chain, address, balance, usd, found_at) VALUES ($1, $2, $3, $4, $5)`,
		f.Chain, f.Address, f.Balance, f.USD, f.Time)

	return errors.Wrap(err, "could not insert found record in db")
}

// GetFound returns the found records of chains, or of every chain if chains is empty, oldest first.
func (p *Postgres) GetFound(ctx context.Context, chains []string) ([]types.Found, error) {
	if chains == nil {
		chains = []string{}
	}

	rows, err := p.db.QueryContext(ctx,
		`SELECT chain, address, balance, usd, found_at FROM found
		 WHERE cardinality($1::text[]) = 0 OR chain = ANY($1)
		 ORDER BY found_at, id`, pq.Array(chains))
	if err != nil {
		return nil, errors.Wrap(err, "querying found records")
	}
	defer rows.Close()

	var found []types.Found

	for rows.Next() {
		var f types.Found
		if err = rows.Scan(&f.Chain, &f.Address, &f.Balance, &f.USD, &f.Time); err != nil {
			return nil, errors.Wrap(err, "scanning found record")
		}

		f.Time = f.Time.UTC()
		found = append(found, f)
	}

	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "reading found records")
	}

	if len(found) == 0 {
		return nil, store.ErrDataNotFound
	}

	return found, nil
}

// SaveRun saves a run summary, replacing a run with the same ID.
func (p *Postgres) SaveRun(ctx context.Context, r store.Run) error {
	var (
		bc, ba sql.NullString
		bb, bu decimal.NullDecimal
		bt     sql.NullTime
	)

	if r.Best != nil {
		bc = sql.NullString{String: r.Best.Chain, Valid: true}
		ba = sql.NullString{String: r.Best.Address, Valid: true}
		bb = decimal.NewNullDecimal(r.Best.Balance)
		bu = decimal.NewNullDecimal(r.Best.USD)
		bt = sql.NullTime{Time: r.Best.Time, Valid: true}
	}

	_, err := p.db.ExecContext(ctx, `
		INSERT INTO runs (id, started, finished, chains, checked, found,
			best_chain, best_address, best_balance, best_usd, best_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			started = EXCLUDED.started, finished = EXCLUDED.finished, chains = EXCLUDED.chains,
			checked = EXCLUDED.checked, found = EXCLUDED.found, best_chain = EXCLUDED.best_chain,
			best_address = EXCLUDED.best_address, best_balance = EXCLUDED.best_balance,
			best_usd = EXCLUDED.best_usd, best_at = EXCLUDED.best_at`,
		r.ID, r.Started, r.Finished, pq.Array(r.Chains), int64(r.Checked), r.Found, bc, ba, bb, bu, bt)

	return errors.Wrap(err, "could not save run in db")
}

// GetRuns returns up to limit runs, most recently started first.
func (p *Postgres) GetRuns(ctx context.Context, limit int) ([]store.Run, error) {
	q := `SELECT id, started, finished, chains, checked, found,
			best_chain, best_address, best_balance, best_usd, best_at
		FROM runs ORDER BY started DESC`

	args := []interface{}{}
	if limit > 0 {
		q += ` LIMIT $1`

		args = append(args, limit)
	}

	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying runs")
	}
	defer rows.Close()

	var runs []store.Run

	for rows.Next() {
		var (
			r       store.Run
			checked int64
			bc, ba  sql.NullString
			bb, bu  decimal.NullDecimal
			bt      sql.NullTime
		)

		if err = rows.Scan(&r.ID, &r.Started, &r.Finished, pq.Array(&r.Chains), &checked, &r.Found,
			&bc, &ba, &bb, &bu, &bt); err != nil {
			return nil, errors.Wrap(err, "scanning run")
		}

		r.Checked = uint64(checked)
		r.Started, r.Finished = r.Started.UTC(), r.Finished.UTC()

		if bc.Valid {
			r.Best = &types.Found{
				Chain:   bc.String,
				Address: ba.String,
				Balance: bb.Decimal,
				USD:     bu.Decimal,
				Time:    bt.Time.UTC(),
			}
		}

		runs = append(runs, r)
	}

	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "reading runs")
	}

	if len(runs) == 0 {
		return nil, store.ErrDataNotFound
	}

	return runs, nil
}
