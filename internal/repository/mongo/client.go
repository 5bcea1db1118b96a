package mongo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"golang.org/x/sync/singleflight"
)

// DialFunc establishes a client session against a MongoDB deployment. The
// default implementation connects and pings; tests swap in a stub.
type DialFunc func(ctx context.Context, uri string) (*mongo.Client, error)

// ConnectHook runs once against the database right after a successful dial,
// before the connection is published to callers. Index creation lives here so
// that a deployment where indexes cannot be built counts as a failed connect
// and is retried on the next request.
type ConnectHook func(ctx context.Context, db *mongo.Database) error

// Connector hands out a shared *mongo.Database, connecting on first use
// rather than at startup. A successful connect is reused for the lifetime of
// the process. A failed connect is not remembered: the next caller dials
// again. Concurrent callers while no connection exists share one in-flight
// attempt instead of piling up dials.
type Connector struct {
	uri            string
	dbName         string
	connectTimeout time.Duration
	hooks          []ConnectHook
	dial           DialFunc

	group  singleflight.Group
	mu     sync.RWMutex
	client *mongo.Client
	db     *mongo.Database
}

// NewConnector returns a Connector for the given deployment. Hooks run as
// part of every connect attempt, in order.
func NewConnector(uri, dbName string, connectTimeout time.Duration, hooks ...ConnectHook) *Connector {
	return &Connector{
		uri:            uri,
		dbName:         dbName,
		connectTimeout: connectTimeout,
		hooks:          hooks,
		dial:           defaultDial,
	}
}

func defaultDial(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}

// Database returns the shared database handle, dialing if no connection is
// established yet. Callers that arrive during an in-flight dial share its
// outcome and inherit the deadline of the caller that started it.
func (c *Connector) Database(ctx context.Context) (*mongo.Database, error) {
	c.mu.RLock()
	db := c.db
	c.mu.RUnlock()
	if db != nil {
		return db, nil
	}

	v, err, _ := c.group.Do("connect", func() (any, error) {
		return c.connect(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*mongo.Database), nil
}

func (c *Connector) connect(ctx context.Context) (*mongo.Database, error) {
	// A flight that started after a previous one published its result would
	// dial a second time; re-check under the lock.
	c.mu.RLock()
	db := c.db
	c.mu.RUnlock()
	if db != nil {
		return db, nil
	}

	if c.connectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.connectTimeout)
		defer cancel()
	}

	client, err := c.dial(ctx, c.uri)
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	db = client.Database(c.dbName)
	for _, hook := range c.hooks {
		if err := hook(ctx, db); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, fmt.Errorf("prepare database: %w", err)
		}
	}

	c.mu.Lock()
	c.client = client
	c.db = db
	c.mu.Unlock()
	return db, nil
}

// Disconnect closes the underlying client if one was established. The
// connector can be used again afterwards; the next call dials fresh.
func (c *Connector) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	client := c.client
	c.client = nil
	c.db = nil
	c.mu.Unlock()
	if client == nil {
		return nil
	}
	return client.Disconnect(ctx)
}
