// Package mysql implements the interface for MySQL.
package mysql

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/tarancss/chainscan/lib/block/types"
	"github.com/tarancss/chainscan/lib/store"
	"github.com/tarancss/chainscan/lib/util"
)

// Schema creates the tables if they do not exist.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS found (
		id       BIGINT AUTO_INCREMENT PRIMARY KEY,
		chain    VARCHAR(16)    NOT NULL,
		address  VARCHAR(128)   NOT NULL,
		balance  DECIMAL(65,18) NOT NULL,
		usd      DECIMAL(65,18) NOT NULL,
		found_at DATETIME(6)    NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS runs (
		id           VARCHAR(36)     PRIMARY KEY,
		started      DATETIME(6)     NOT NULL,
		finished     DATETIME(6)     NOT NULL,
		chains       TEXT            NOT NULL,
		checked      BIGINT UNSIGNED NOT NULL,
		found        INT             NOT NULL,
		best_chain   VARCHAR(16),
		best_address VARCHAR(128),
		best_balance DECIMAL(65,18),
		best_usd     DECIMAL(65,18),
		best_at      DATETIME(6)
	)`,
}

// MySQL implements a connection to a MySQL database.
type MySQL struct {
	db *sql.DB
}

// New returns a MySQL client connection to the database in dsn and creates the tables. Times are always parsed and
// saved in UTC.
func New(dsn string) (*MySQL, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, errors.Wrap(err, "parsing mysql dsn")
	}

	cfg.ParseTime = true
	cfg.Loc = time.UTC

	conn, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "cannot connect to mysql DB")
	}

	db := sql.OpenDB(conn)

	for _, q := range Schema {
		if _, err = db.Exec(q); err != nil {
			db.Close()

			return nil, errors.Wrap(err, "creating mysql schema")
		}
	}

	return &MySQL{db: db}, nil
}

// Close will close any database connection. Must be called at termination time.
func (m *MySQL) Close() error {
	return m.db.Close()
}

// SaveFound inserts a found record.
func (m *MySQL) SaveFound(ctx context.Context, f types.Found) error {
	_, err := m.db.ExecContext(ctx,
		`INSERT INTO found (chain, address, balance, usd, found_at) VALUES (?, ?, ?, ?, ?)`,
		f.Chain, f.Address, f.Balance, f.USD, f.Time.UTC())

	return errors.Wrap(err, "could not insert found record in db")
}

// GetFound returns the found records of chains, or of every chain if chains is empty, oldest first.
func (m *MySQL) GetFound(ctx context.Context, chains []string) ([]types.Found, error) {
	rows, err := m.db.QueryContext(ctx,
		`SELECT chain, address, balance, usd, found_at FROM found ORDER BY found_at, id`)
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

		if len(chains) == 0 || util.In(chains, f.Chain) {
			found = append(found, f)
		}
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
func (m *MySQL) SaveRun(ctx context.Context, r store.Run) error {
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
		bt = sql.NullTime{Time: r.Best.Time.UTC(), Valid: true}
	}

	_, err := m.db.ExecContext(ctx, `
		INSERT INTO runs (id, started, finished, chains, checked, found,
			best_chain, best_address, best_balance, best_usd, best_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			started = VALUES(started), finished = VALUES(finished), chains = VALUES(chains),
			checked = VALUES(checked), found = VALUES(found), best_chain = VALUES(best_chain),
			best_address = VALUES(best_address), best_balance = VALUES(best_balance),
			best_usd = VALUES(best_usd), best_at = VALUES(best_at)`,
		r.ID, r.Started.UTC(), r.Finished.UTC(), strings.Join(r.Chains, ","), r.Checked, r.Found,
		bc, ba, bb, bu, bt)

	return errors.Wrap(err, "could not save run in db")
}

// GetRuns returns up to limit runs, most recently started first.
func (m *MySQL) GetRuns(ctx context.Context, limit int) ([]store.Run, error) {
	q := `SELECT id, started, finished, chains, checked, found,
			best_chain, best_address, best_balance, best_usd, best_at
		FROM runs ORDER BY started DESC`

	args := []interface{}{}
	if limit > 0 {
		q += ` LIMIT ?`

		args = append(args, limit)
	}

	rows, err := m.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying runs")
	}
	defer rows.Close()

	var runs []store.Run

	for rows.Next() {
		var (
			r      store.Run
			chains string
			bc, ba sql.NullString
			bb, bu decimal.NullDecimal
			bt     sql.NullTime
		)

		if err = rows.Scan(&r.ID, &r.Started, &r.Finished, &chains, &r.Checked, &r.Found,
			&bc, &ba, &bb, &bu, &bt); err != nil {
			return nil, errors.Wrap(err, "scanning run")
		}

		if chains != "" {
			r.Chains = strings.Split(chains, ",")
		}

		if bc.Valid {
			r.Best = &types.Found{Chain: bc.String, Address: ba.String, Balance: bb.Decimal, USD: bu.Decimal, Time: bt.Time}
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
