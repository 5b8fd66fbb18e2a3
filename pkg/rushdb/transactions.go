package rushdb

import (
	"context"
	"net/http"
	"time"
)

// DefaultTransactionTTL is used when Begin is called without a TTL.
const DefaultTransactionTTL = 5 * time.Second

// TransactionsService begins and finishes transactions.
type TransactionsService struct {
	client *Client
}

// newTransactionsService creates a new transactions service.
func newTransactionsService(client *Client) *TransactionsService {
	return &TransactionsService{client: client}
}

// Begin opens a transaction that the server keeps alive for ttl without
// activity. A ttl of zero or less uses DefaultTransactionTTL.
func (s *TransactionsService) Begin(ctx context.Context, ttl time.Duration) (*Transaction, error) {
	if ttl <= 0 {
		ttl = DefaultTransactionTTL
	}

	req := struct {
		TTL int64 `json:"ttl"`
	}{
		TTL: ttl.Milliseconds(),
	}

	var resp envelope[struct {
		ID string `json:"id"`
	}]
	err := s.client.do(ctx, apiCall{
		method: http.MethodPost,
		path:   "/tx",
		body:   req,
		result: &resp,
	})
	if err != nil {
		return nil, err
	}
	if resp.Data.ID == "" {
		return nil, &Error{Kind: KindDecode, Message: "begin transaction: response has no id", Method: http.MethodPost, Path: "/tx"}
	}

	s.client.metrics.recordTransaction("begun")
	return &Transaction{
		id:  resp.Data.ID,
		ttl: ttl,
		svc: s,
	}, nil
}

// Resume returns an open handle for a transaction begun elsewhere, e.g. by
// another process that handed over the id.
func (s *TransactionsService) Resume(id string) *Transaction {
	return &Transaction{id: id, svc: s}
}

// Commit commits tx.
func (s *TransactionsService) Commit(ctx context.Context, tx *Transaction) error {
	return tx.Commit(ctx)
}

// Rollback rolls tx back.
func (s *TransactionsService) Rollback(ctx context.Context, tx *Transaction) error {
	return tx.Rollback(ctx)
}

// Run begins a transaction, calls fn with it, and commits when fn returns
// nil. When fn returns an error or panics the transaction is rolled back.
// If fn already committed or rolled back the transaction, Run leaves it
// as is.
//
// Example:
//
//	err := client.Transactions.Run(ctx, 10*time.Second, func(ctx context.Context, tx *rushdb.Transaction) error {
//	    author, err := client.Records.Create(ctx, "AUTHOR", map[string]any{"name": "Ann"}, nil, rushdb.InTx(tx))
//	    if err != nil {
//	        return err
//	    }
//	    _, err = client.Records.Attach(ctx, author, book, nil, rushdb.InTx(tx))
//	    return err
//	})
func (s *TransactionsService) Run(ctx context.Context, ttl time.Duration, fn func(ctx context.Context, tx *Transaction) error) (err error) {
	tx, err := s.Begin(ctx, ttl)
	if err != nil {
		return err
	}
	defer tx.End(ctx, &err)
	return fn(ctx, tx)
}
