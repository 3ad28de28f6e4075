package shared

import "context"

// TxManager runs a function as one atomic unit of work. Repository calls made
// with the context passed to fn share a single database transaction: if fn
// returns an error the whole unit rolls back and nothing partial is persisted.
type TxManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
