package comments

import "context"

// Repository is the persistence contract for comments.
type Repository interface {
	Insert(ctx context.Context, c Comment) error
	// List returns up to limit comments, newest first.
	List(ctx context.Context, limit int) ([]Comment, error)
}
