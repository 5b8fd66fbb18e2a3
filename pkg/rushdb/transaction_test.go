package rushdb_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haivivi/rushdb-go/pkg/rushdb"
)

// txServer answers the transaction endpoints and records the paths it saw.
func txServer(failCommit bool) func(req *rushdb.Request) (*rushdb.Response, error) {
	return func(req *rushdb.Request) (*rushdb.Response, error) {
		switch {
		case req.Path == "/tx":
			return ok(map[string]any{"id": "tx-1"}), nil
		case strings.HasSuffix(req.Path, "/commit") && failCommit:
			return jsonResponse(http.StatusBadRequest, map[string]any{"message": "transaction expired"}), nil
		default:
			return ok(map[string]any{"message": "ok"}), nil
		}
	}
}

func paths(rec *recorder) []string {
	var out []string
	for _, r := range rec.all() {
		out = append(out, r.Method+" "+r.Path)
	}
	return out
}

func TestTransaction_Begin(t *testing.T) {
	client, rec := newTestClient(t, txServer(false))
	ctx := context.Background()

	tx, err := client.Transactions.Begin(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, "tx-1", tx.ID())
	assert.Equal(t, rushdb.StateOpen, tx.State())
	assert.Equal(t, rushdb.DefaultTransactionTTL, tx.TTL())
	assert.Equal(t, map[string]any{"ttl": float64(5000)}, decodeBody(t, rec.last(t)))

	_, err = client.Transactions.Begin(ctx, 30*time.Second)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"ttl": float64(30000)}, decodeBody(t, rec.last(t)))
}

func TestTransaction_CommitOnce(t *testing.T) {
	client, rec := newTestClient(t, txServer(false))
	ctx := context.Background()

	tx, err := client.Transactions.Begin(ctx, 0)
	require.NoError(t, err)

	require.NoError(t, tx.Commit(ctx))
	assert.Equal(t, rushdb.StateCommitted, tx.State())
	assert.True(t, tx.Done())

	err = tx.Commit(ctx)
	assert.ErrorIs(t, err, rushdb.ErrTransactionCompleted)
	err = tx.Rollback(ctx)
	assert.ErrorIs(t, err, rushdb.ErrTransactionCompleted)
	assert.Equal(t, rushdb.StateCommitted, tx.State())

	assert.Equal(t, []string{"POST /tx", "POST /tx/tx-1/commit"}, paths(rec))
}

func TestTransaction_RollbackOnce(t *testing.T) {
	client, rec := newTestClient(t, txServer(false))
	ctx := context.Background()

	tx, err := client.Transactions.Begin(ctx, 0)
	require.NoError(t, err)

	require.NoError(t, client.Transactions.Rollback(ctx, tx))
	assert.Equal(t, rushdb.StateRolledBack, tx.State())

	assert.ErrorIs(t, tx.Rollback(ctx), rushdb.ErrTransactionCompleted)
	assert.ErrorIs(t, client.Transactions.Commit(ctx, tx), rushdb.ErrTransactionCompleted)
	assert.Equal(t, rushdb.StateRolledBack, tx.State())

	assert.Equal(t, []string{"POST /tx", "POST /tx/tx-1/rollback"}, paths(rec))
	assert.Equal(t, "{}", string(rec.last(t).Body))
}

func TestTransaction_FailedCommitStaysOpen(t *testing.T) {
	client, _ := newTestClient(t, txServer(true))
	ctx := context.Background()

	tx, err := client.Transactions.Begin(ctx, 0)
	require.NoError(t, err)

	err = tx.Commit(ctx)
	require.Error(t, err)
	e, isAPI := rushdb.AsError(err)
	require.True(t, isAPI)
	assert.Equal(t, "transaction expired", e.Message)
	assert.Equal(t, rushdb.StateOpen, tx.State())

	require.NoError(t, tx.Rollback(ctx))
	assert.Equal(t, rushdb.StateRolledBack, tx.State())
}

func TestTransaction_ConcurrentCommitSendsOneRequest(t *testing.T) {
	client, rec := newTestClient(t, txServer(false))
	ctx := context.Background()

	tx, err := client.Transactions.Begin(ctx, 0)
	require.NoError(t, err)

	const n = 8
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i%2 == 0 {
				errs[i] = tx.Commit(ctx)
			} else {
				errs[i] = tx.Rollback(ctx)
			}
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, rushdb.ErrTransactionCompleted)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 2, rec.count(), "begin plus exactly one finishing request")
}

func TestTransaction_HeaderAttachedInAnyState(t *testing.T) {
	client, rec := newTestClient(t, txServer(false))
	ctx := context.Background()

	tx, err := client.Transactions.Begin(ctx, 0)
	require.NoError(t, err)

	_, err = client.Records.Create(ctx, "USER", map[string]any{"name": "Ann"}, nil, rushdb.InTx(tx))
	require.NoError(t, err)
	assert.Equal(t, "tx-1", rec.last(t).Header.Get(rushdb.HeaderTransactionID))

	require.NoError(t, tx.Commit(ctx))

	// The server decides whether a finished transaction may be referenced.
	_, err = client.Records.Update(ctx, "r-1", map[string]any{"name": "Bo"}, rushdb.InTx(tx))
	require.NoError(t, err)
	assert.Equal(t, "tx-1", rec.last(t).Header.Get(rushdb.HeaderTransactionID))

	_, err = client.Records.Update(ctx, "r-1", map[string]any{"name": "Bo"}, rushdb.InTxID("other"))
	require.NoError(t, err)
	assert.Equal(t, "other", rec.last(t).Header.Get(rushdb.HeaderTransactionID))

	_, err = client.Records.Update(ctx, "r-1", map[string]any{"name": "Bo"})
	require.NoError(t, err)
	assert.Empty(t, rec.last(t).Header.Get(rushdb.HeaderTransactionID))
}

func TestTransactions_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("commits on success", func(t *testing.T) {
		client, rec := newTestClient(t, txServer(false))
		var got *rushdb.Transaction
		err := client.Transactions.Run(ctx, 0, func(ctx context.Context, tx *rushdb.Transaction) error {
			got = tx
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, rushdb.StateCommitted, got.State())
		assert.Equal(t, []string{"POST /tx", "POST /tx/tx-1/commit"}, paths(rec))
	})

	t.Run("rolls back on error", func(t *testing.T) {
		client, rec := newTestClient(t, txServer(false))
		boom := errors.New("boom")
		var got *rushdb.Transaction
		err := client.Transactions.Run(ctx, 0, func(ctx context.Context, tx *rushdb.Transaction) error {
			got = tx
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, rushdb.StateRolledBack, got.State())
		assert.Equal(t, []string{"POST /tx", "POST /tx/tx-1/rollback"}, paths(rec))
	})

	t.Run("rolls back on panic", func(t *testing.T) {
		client, rec := newTestClient(t, txServer(false))
		var got *rushdb.Transaction
		assert.PanicsWithValue(t, "kaboom", func() {
			_ = client.Transactions.Run(ctx, 0, func(ctx context.Context, tx *rushdb.Transaction) error {
				got = tx
				panic("kaboom")
			})
		})
		assert.Equal(t, rushdb.StateRolledBack, got.State())
		assert.Equal(t, []string{"POST /tx", "POST /tx/tx-1/rollback"}, paths(rec))
	})

	t.Run("leaves finalized transaction alone", func(t *testing.T) {
		client, rec := newTestClient(t, txServer(false))
		err := client.Transactions.Run(ctx, 0, func(ctx context.Context, tx *rushdb.Transaction) error {
			return tx.Rollback(ctx)
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"POST /tx", "POST /tx/tx-1/rollback"}, paths(rec))

		client, rec = newTestClient(t, txServer(false))
		boom := errors.New("boom")
		err = client.Transactions.Run(ctx, 0, func(ctx context.Context, tx *rushdb.Transaction) error {
			if err := tx.Commit(ctx); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, rushdb.ErrTransactionCompleted)
		assert.Equal(t, []string{"POST /tx", "POST /tx/tx-1/commit"}, paths(rec))
	})

	t.Run("reports commit failure", func(t *testing.T) {
		client, _ := newTestClient(t, txServer(true))
		var got *rushdb.Transaction
		err := client.Transactions.Run(ctx, 0, func(ctx context.Context, tx *rushdb.Transaction) error {
			got = tx
			return nil
		})
		require.Error(t, err)
		_, isAPI := rushdb.AsError(err)
		assert.True(t, isAPI)
		assert.Equal(t, rushdb.StateOpen, got.State())
	})
}

func TestTransaction_EndDeferred(t *testing.T) {
	client, rec := newTestClient(t, txServer(false))
	ctx := context.Background()

	work := func(fail bool) (err error) {
		tx, err := client.Transactions.Begin(ctx, 0)
		if err != nil {
			return err
		}
		defer tx.End(ctx, &err)
		if fail {
			return errors.New("fail")
		}
		return nil
	}

	require.NoError(t, work(false))
	require.Error(t, work(true))
	assert.Equal(t, []string{
		"POST /tx", "POST /tx/tx-1/commit",
		"POST /tx", "POST /tx/tx-1/rollback",
	}, paths(rec))
}

func TestTransactions_Resume(t *testing.T) {
	client, rec := newTestClient(t, txServer(false))
	tx := client.Transactions.Resume("tx-9")
	assert.Equal(t, rushdb.StateOpen, tx.State())
	require.NoError(t, tx.Commit(context.Background()))
	assert.Equal(t, "/tx/tx-9/commit", rec.last(t).Path)
}
