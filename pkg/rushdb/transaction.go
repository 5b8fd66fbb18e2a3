package rushdb

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// State is the local lifecycle state of a transaction handle.
type State int32

const (
	StateOpen State = iota
	StateCommitted
	StateRolledBack
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateCommitted:
		return "committed"
	case StateRolledBack:
		return "rolled back"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// Transaction is a handle on a server-side transaction. It holds only the id
// and the local state; the operations themselves live on the server.
//
// Commit and Rollback are each allowed once, and only while the handle is
// open. The handle is safe for concurrent use: when two callers race to
// finish it, one request is sent and the loser gets ErrTransactionCompleted.
type Transaction struct {
	id  string
	ttl time.Duration
	svc *TransactionsService

	mu    sync.Mutex
	state State
}

// ID returns the server-assigned transaction id.
func (tx *Transaction) ID() string {
	return tx.id
}

// TTL returns the time-to-live requested at begin. Zero for resumed handles.
func (tx *Transaction) TTL() time.Duration {
	return tx.ttl
}

// State returns the current local state.
func (tx *Transaction) State() State {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	return tx.state
}

// Done reports whether the transaction was committed or rolled back.
func (tx *Transaction) Done() bool {
	return tx.State() != StateOpen
}

// Commit commits the transaction.
func (tx *Transaction) Commit(ctx context.Context) error {
	return tx.finish(ctx, StateCommitted)
}

// Rollback rolls the transaction back.
func (tx *Transaction) Rollback(ctx context.Context) error {
	return tx.finish(ctx, StateRolledBack)
}

// finish performs the transition to target. The lock is held across the
// request; a failed request leaves the handle open.
func (tx *Transaction) finish(ctx context.Context, target State) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	if tx.state != StateOpen {
		return fmt.Errorf("%w: %s is %s", ErrTransactionCompleted, tx.id, tx.state)
	}

	action, outcome := "commit", "committed"
	if target == StateRolledBack {
		action, outcome = "rollback", "rolled_back"
	}

	c := tx.svc.client
	err := c.do(ctx, apiCall{
		method: http.MethodPost,
		path:   pathEscape("/tx", tx.id, action),
		route:  "/tx/{id}/" + action,
		body:   struct{}{},
	})
	if err != nil {
		return err
	}

	tx.state = target
	c.metrics.recordTransaction(outcome)
	return nil
}

// End finishes the transaction according to *errp and is meant to be
// deferred:
//
//	tx, err := client.Transactions.Begin(ctx, 0)
//	if err != nil {
//	    return err
//	}
//	defer tx.End(ctx, &err)
//
// If the surrounding function returns a nil error the transaction is
// committed; if it returns an error or panics it is rolled back. A
// transaction already committed or rolled back is left alone. Commit and
// rollback failures are reported through *errp; a panic is re-raised after
// the rollback.
func (tx *Transaction) End(ctx context.Context, errp *error) {
	r := recover()

	failed := r != nil || (errp != nil && *errp != nil)
	var err error
	if failed {
		// The caller's context may be what failed; roll back regardless.
		err = tx.Rollback(context.WithoutCancel(ctx))
	} else {
		err = tx.Commit(ctx)
	}
	if errors.Is(err, ErrTransactionCompleted) {
		err = nil
	}

	if r != nil {
		if err != nil {
			tx.svc.client.logger.ErrorContext(ctx, "rushdb rollback after panic failed", "tx", tx.id, "error", err)
		}
		panic(r)
	}
	if err != nil && errp != nil {
		if *errp != nil {
			*errp = errors.Join(*errp, fmt.Errorf("rollback %s: %w", tx.id, err))
		} else {
			*errp = fmt.Errorf("commit %s: %w", tx.id, err)
		}
	}
}
