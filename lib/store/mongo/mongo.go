// Package mongo implements the interface for MongoDB.
package mongo

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	mgo "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tarancss/chainscan/lib/block/types"
	"github.com/tarancss/chainscan/lib/store"
	"github.com/tarancss/chainscan/lib/util"
)

// Databases used. Found records are kept in one collection per chain.
const (
	foundDB = "found"
	scanDB  = "scan"
	runsCol = "runs"
)

// Mongo implements a connection to a MongoDB database.
type Mongo struct {
	c *mgo.Client
}

// MongoFound implements a store found record to MongoDB. Amounts are saved as strings so no precision is lost.
type MongoFound struct {
	Chain   string    `bson:"chain"`
	Address string    `bson:"address"`
	Balance string    `bson:"balance"`
	USD     string    `bson:"usd"`
	Time    time.Time `bson:"time"`
}

func toMongo(f types.Found) MongoFound {
	return MongoFound{
		Chain:   f.Chain,
		Address: f.Address,
		Balance: f.Balance.String(),
		USD:     f.USD.String(),
		Time:    f.Time,
	}
}

// Found converts a MongoFound to types.Found.
func (f MongoFound) Found() (types.Found, error) {
	bal, err := decimal.NewFromString(f.Balance)
	if err != nil {
		return types.Found{}, errors.Wrap(err, "balance")
	}

	usd, err := decimal.NewFromString(f.USD)
	if err != nil {
		return types.Found{}, errors.Wrap(err, "usd")
	}

	return types.Found{Chain: f.Chain, Address: f.Address, Balance: bal, USD: usd, Time: f.Time.UTC()}, nil
}

// MongoRun implements a store run to MongoDB.
type MongoRun struct {
	store.Run `bson:",inline"`
	Best      *MongoFound `bson:"best,omitempty"`
}

// New returns a Mongo client connection to the specified MongoDB database uri.
func New(uri string) (*Mongo, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second) //nolint:gomnd // 5 seconds timeout
	defer cancel()

	c, err := mgo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "error connecting to mongo DB")
	}

	return &Mongo{c: c}, nil
}

// Close will close a database connection. Must be called at termination time.
func (m *Mongo) Close() error {
	return m.c.Disconnect(context.Background())
}

// SaveFound inserts a found record in the collection of its chain.
func (m *Mongo) SaveFound(ctx context.Context, f types.Found) error {
	_, err := m.c.Database(foundDB).Collection(f.Chain).InsertOne(ctx, toMongo(f))

	return errors.Wrap(err, "could not insert found record in db")
}

// GetFound returns the found records of the chains indicated, or of every chain if chains is empty, oldest first
// within each chain.
func (m *Mongo) GetFound(ctx context.Context, chains []string) ([]types.Found, error) {
	cols, err := m.c.Database(foundDB).ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return nil, errors.Wrap(err, "error getting mongo DB object")
	}

	var found []types.Found

	for _, col := range sortedIn(cols, chains) {
		cur, err := m.c.Database(foundDB).Collection(col).Find(ctx, bson.M{},
			options.Find().SetSort(bson.D{{Key: "time", Value: 1}}))
		if err != nil {
			return nil, errors.Wrapf(err, "[%s] finding records", col)
		}

		var docs []MongoFound
		if err = cur.All(ctx, &docs); err != nil {
			return nil, errors.Wrapf(err, "[%s] decoding records", col)
		}

		for _, d := range docs {
			f, err := d.Found()
			if err != nil {
				return nil, errors.Wrapf(err, "[%s] decoding record", col)
			}

			found = append(found, f)
		}
	}

	if len(found) == 0 {
		return nil, store.ErrDataNotFound
	}

	sortFound(found)

	return found, nil
}

// SaveRun saves a run summary, replacing a run with the same ID.
func (m *Mongo) SaveRun(ctx context.Context, r store.Run) error {
	mr := MongoRun{Run: r}
	if r.Best != nil {
		b := toMongo(*r.Best)
		mr.Best = &b
	}

	_, err := m.c.Database(scanDB).Collection(runsCol).ReplaceOne(ctx, bson.M{"_id": r.ID}, mr,
		options.Replace().SetUpsert(true))

	return errors.Wrap(err, "could not save run in db")
}

// GetRuns returns up to limit runs, most recently started first.
func (m *Mongo) GetRuns(ctx context.Context, limit int) ([]store.Run, error) {
	opts := options.Find().SetSort(bson.D{{Key: "started", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cur, err := m.c.Database(scanDB).Collection(runsCol).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "finding runs")
	}

	var docs []MongoRun
	if err = cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decoding runs")
	}

	if len(docs) == 0 {
		return nil, store.ErrDataNotFound
	}

	runs := make([]store.Run, 0, len(docs))

	for _, d := range docs {
		r := d.Run
		r.Started, r.Finished = r.Started.UTC(), r.Finished.UTC()

		if d.Best != nil {
			b, err := d.Best.Found()
			if err != nil {
				return nil, errors.Wrapf(err, "[%s] decoding best", r.ID)
			}

			r.Best = &b
		}

		runs = append(runs, r)
	}

	return runs, nil
}

// sortedIn returns the collections in chains, or all of them if chains is empty.
func sortedIn(cols, chains []string) []string {
	res := make([]string, 0, len(cols))

	for _, c := range cols {
		if len(chains) == 0 || util.In(chains, c) {
			res = append(res, c)
		}
	}

	return res
}
