// Package lock provides the per-product exclusive locks that serialise stock
// movements on the same product.
package lock

import "context"

type Locker interface {
	// Acquire blocks until key is held or the attempt is abandoned. Exhausted or
	// timed-out attempts fail with apperror.Conflict. release must be called once.
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// Key is the lock key guarding a product's stock.
func Key(productID string) string {
	return "lock:stock:" + productID
}
