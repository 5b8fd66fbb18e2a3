// Package rushdb provides a Go client for the RushDB graph database HTTP API.
//
// # Basic Usage
//
//	client, err := rushdb.NewClient("your-api-key")
//	if err != nil {
//	    return err
//	}
//
//	// Create a record
//	author, err := client.Records.Create(ctx, "AUTHOR", map[string]any{
//	    "name": "Ann",
//	    "born": 1970,
//	}, nil)
//
//	// Search with a where-clause
//	res, err := client.Records.Find(ctx, rushdb.SearchQuery{
//	    Labels: []string{"AUTHOR"},
//	    Where: rushdb.Where{
//	        {"born", rushdb.Gte(1960).And(rushdb.Lt(1980))},
//	        {"BOOK", rushdb.Where{{"title", rushdb.Contains("Go")}}},
//	    },
//	    OrderBy: rushdb.SortBy("name", rushdb.Asc),
//	}.WithLimit(20))
//
// # Where-clauses
//
// A Where is an ordered list of clauses. A key is a field name, a logical
// operator ($and, $or) or a related-record label. Labels are recognised by an
// upper-case first letter; their value is a nested Where evaluated against
// records one relationship hop away. Nesting has no depth limit. The client
// sends the clause verbatim and the server evaluates it; Where.Validate can be
// used to catch ambiguous clauses before sending.
//
// # Transactions
//
//	err := client.Transactions.Run(ctx, 0, func(ctx context.Context, tx *rushdb.Transaction) error {
//	    _, err := client.Records.Create(ctx, "BOOK", data, nil, rushdb.InTx(tx))
//	    return err
//	})
//
// Run commits when the function returns nil and rolls back on error or
// panic. A transaction can be committed or rolled back once; a second attempt
// returns ErrTransactionCompleted without contacting the server.
//
// # Error Handling
//
//	rec, err := client.Records.FindByID(ctx, id)
//	if err != nil {
//	    if e, ok := rushdb.AsError(err); ok && e.IsNotFound() {
//	        // Handle missing record
//	    }
//	    return err
//	}
//
// Records.Find is lenient by default and returns an empty result on failure.
// Pass rushdb.WithStrictFind(true) to NewClient, or rushdb.Strict(true) to a
// single call, to get the error.
//
// # Configuration
//
//	client, err := rushdb.NewClient("api-key",
//	    rushdb.WithBaseURL("http://localhost:3000/api/v1"),
//	    rushdb.WithTimeout(10*time.Second),
//	    rushdb.WithLogger(slog.Default()),
//	    rushdb.WithTracerProvider(otel.GetTracerProvider()),
//	    rushdb.WithMetrics(prometheus.DefaultRegisterer),
//	)
package rushdb
