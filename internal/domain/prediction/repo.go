package prediction

import "context"

// Repository stores prediction outcomes for later review.
type Repository interface {
	Create(ctx context.Context, rec *Record) error
	// List returns records newest first, with the total count before paging.
	List(ctx context.Context, limit, offset int) ([]*Record, int, error)
	ListByDisease(ctx context.Context, disease string, limit, offset int) ([]*Record, int, error)
}
