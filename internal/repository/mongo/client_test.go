package mongo

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// newTestClient builds a driver client without touching a real deployment.
// The driver only dials when an operation runs, and these tests never run
// one.
func newTestClient(t *testing.T) *mongo.Client {
	t.Helper()
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI("mongodb://127.0.0.1:27017"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = client.Disconnect(context.Background())
	})
	return client
}

func TestConnector_DialsOnceAndCaches(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	var dials atomic.Int32
	c := NewConnector("mongodb://test", "devevents", 0)
	c.dial = func(ctx context.Context, uri string) (*mongo.Client, error) {
		dials.Add(1)
		return client, nil
	}

	first, err := c.Database(ctx)
	require.NoError(t, err)
	require.Equal(t, "devevents", first.Name())

	second, err := c.Database(ctx)
	require.NoError(t, err)
	require.Same(t, first, second)
	require.Equal(t, int32(1), dials.Load())
}

func TestConnector_ConcurrentCallersShareOneDial(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	release := make(chan struct{})
	var dials atomic.Int32
	c := NewConnector("mongodb://test", "devevents", 0)
	c.dial = func(ctx context.Context, uri string) (*mongo.Client, error) {
		dials.Add(1)
		<-release
		return client, nil
	}

	const callers = 8
	var wg sync.WaitGroup
	dbs := make([]*mongo.Database, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			dbs[i], errs[i] = c.Database(ctx)
		}(i)
	}

	// Give the callers a moment to pile onto the in-flight dial.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		require.Same(t, dbs[0], dbs[i])
	}
	require.Equal(t, int32(1), dials.Load())
}

func TestConnector_FailedDialIsRetried(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	dialErr := errors.New("connection refused")
	var dials atomic.Int32
	c := NewConnector("mongodb://test", "devevents", 0)
	c.dial = func(ctx context.Context, uri string) (*mongo.Client, error) {
		if dials.Add(1) == 1 {
			return nil, dialErr
		}
		return client, nil
	}

	_, err := c.Database(ctx)
	require.ErrorIs(t, err, dialErr)

	db, err := c.Database(ctx)
	require.NoError(t, err)
	require.Equal(t, "devevents", db.Name())
	require.Equal(t, int32(2), dials.Load())

	// The success is now cached; no further dials.
	_, err = c.Database(ctx)
	require.NoError(t, err)
	require.Equal(t, int32(2), dials.Load())
}

func TestConnector_HookFailureIsRetried(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	hookErr := errors.New("index build failed")
	var hookRuns atomic.Int32
	hook := func(ctx context.Context, db *mongo.Database) error {
		if hookRuns.Add(1) == 1 {
			return hookErr
		}
		return nil
	}

	var dials atomic.Int32
	c := NewConnector("mongodb://test", "devevents", 0, hook)
	c.dial = func(ctx context.Context, uri string) (*mongo.Client, error) {
		dials.Add(1)
		return client, nil
	}

	_, err := c.Database(ctx)
	require.ErrorIs(t, err, hookErr)

	db, err := c.Database(ctx)
	require.NoError(t, err)
	require.Equal(t, "devevents", db.Name())
	require.Equal(t, int32(2), dials.Load())
	require.Equal(t, int32(2), hookRuns.Load())
}

func TestConnector_DisconnectAllowsReconnect(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	var dials atomic.Int32
	c := NewConnector("mongodb://test", "devevents", 0)
	c.dial = func(ctx context.Context, uri string) (*mongo.Client, error) {
		dials.Add(1)
		return client, nil
	}

	_, err := c.Database(ctx)
	require.NoError(t, err)
	require.NoError(t, c.Disconnect(ctx))

	_, err = c.Database(ctx)
	require.NoError(t, err)
	require.Equal(t, int32(2), dials.Load())
}

func TestConnector_DisconnectWithoutConnectIsNoop(t *testing.T) {
	c := NewConnector("mongodb://test", "devevents", 0)
	require.NoError(t, c.Disconnect(context.Background()))
}
