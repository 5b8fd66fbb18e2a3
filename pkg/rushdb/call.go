package rushdb

import "net/http"

// CallOption configures a single API call.
type CallOption func(*callOptions)

type callOptions struct {
	txID     string
	recordID string
	strict   *bool
	header   http.Header
}

func applyCallOptions(opts []CallOption) callOptions {
	var o callOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// InTx scopes the call to tx by sending its id in the X-Transaction-Id
// header. The header is attached whatever the local state of tx; the server
// decides whether a finished transaction can still be referenced.
func InTx(tx *Transaction) CallOption {
	return func(o *callOptions) {
		if tx != nil {
			o.txID = tx.ID()
		}
	}
}

// InTxID scopes the call to a transaction known only by id.
func InTxID(id string) CallOption {
	return func(o *callOptions) {
		o.txID = id
	}
}

// FromRecord makes Records.Find search relative to the record with the
// given id.
func FromRecord(id string) CallOption {
	return func(o *callOptions) {
		o.recordID = id
	}
}

// Strict overrides the client's find policy for one call. With strict set,
// Records.Find returns errors instead of an empty result.
func Strict(strict bool) CallOption {
	return func(o *callOptions) {
		o.strict = &strict
	}
}

// WithHeader adds a header to the call.
func WithHeader(key, value string) CallOption {
	return func(o *callOptions) {
		if o.header == nil {
			o.header = make(http.Header)
		}
		o.header.Add(key, value)
	}
}
