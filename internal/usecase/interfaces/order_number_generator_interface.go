package interfaces

import "context"

// IOrderNumberGenerator produces human-readable order number candidates.
//
// Candidates are not guaranteed unique; uniqueness is enforced on write.
type IOrderNumberGenerator interface {
	Next(ctx context.Context) (string, error)
}
