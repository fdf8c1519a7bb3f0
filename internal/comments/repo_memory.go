package comments

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo keeps comments in process. Used by tests and local runs
// without a database.
type MemoryRepo struct {
	mu       sync.Mutex
	comments []Comment
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) Insert(_ context.Context, c Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.comments = append(r.comments, c)
	return nil
}

func (r *MemoryRepo) List(_ context.Context, limit int) ([]Comment, error) {
	r.mu.Lock()
	out := make([]Comment, len(r.comments))
	copy(out, r.comments)
	r.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
