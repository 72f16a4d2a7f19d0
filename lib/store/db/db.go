// Package db implements the opening and graceful closing of database connections.
package db

import (
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/tarancss/chainscan/lib/store"
	"github.com/tarancss/chainscan/lib/store/memory"
	"github.com/tarancss/chainscan/lib/store/mongo"
	"github.com/tarancss/chainscan/lib/store/mysql"
	"github.com/tarancss/chainscan/lib/store/postgres"
)

// Database types.
const (
	MONGODB  string = "mongodb"
	POSTGRES string = "postgresql"
	MYSQL    string = "mysql"
	MEMORY   string = "memory"
)

// New returns a new database connection according to the options (database type). An empty type means no database.
func New(options, connection string) (store.DB, error) {
	var (
		dh  store.DB
		err error
	)

	switch strings.ToLower(options) {
	case "":
		return nil, nil
	case MONGODB:
		dh, err = open(mongo.New(connection))
	case POSTGRES:
		dh, err = open(postgres.New(connection))
	case MYSQL:
		dh, err = open(mysql.New(connection))
	case MEMORY:
		dh = memory.New()
	default:
		err = errors.Wrapf(store.ErrUnknownDB, "%q", options)
	}

	return dh, err
}

// open avoids returning a typed nil DB on error.
func open[T store.DB](dh T, err error) (store.DB, error) {
	if err != nil {
		return nil, err
	}

	return dh, nil
}

// Close gracefully closes the database connection.
func Close(dh store.DB) error {
	if c, ok := dh.(io.Closer); ok {
		return c.Close()
	}

	return nil
}
