package mocks

import "context"

// Transactor runs the callback inline and records how many transactions
// were opened.
type Transactor struct {
	Calls int
}

func (t *Transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.Calls++
	return fn(ctx)
}
