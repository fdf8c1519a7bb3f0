package comments

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestService_AddFillsIDAndTimestamp(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)
	fixed := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	svc.clock = func() time.Time { return fixed }

	c, err := svc.Add(context.Background(), " Asha ", "asha@example.com", "Great map")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if c.ID == "" || !c.CreatedAt.Equal(fixed) || c.Name != "Asha" {
		t.Fatalf("unexpected comment %+v", c)
	}
}

func TestService_AddRejectsBlankFields(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	if _, err := svc.Add(context.Background(), "a", "", "m"); !errors.Is(err, ErrInvalidComment) {
		t.Fatalf("expected ErrInvalidComment, got %v", err)
	}
	if _, err := svc.Add(context.Background(), "a", "b@c.io", "   "); !errors.Is(err, ErrInvalidComment) {
		t.Fatalf("expected ErrInvalidComment, got %v", err)
	}
}

func TestService_ListNewestFirstAndLimited(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		at := base.Add(time.Duration(i) * time.Hour)
		svc.clock = func() time.Time { return at }
		if _, err := svc.Add(context.Background(), "n", "e@x.io", "m"); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	got, err := svc.List(context.Background(), 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || !got[0].CreatedAt.After(got[1].CreatedAt) {
		t.Fatalf("expected 2 newest first, got %+v", got)
	}
}

func TestService_ListEmptyIsNotNil(t *testing.T) {
	got, err := NewService(NewMemoryRepo()).List(context.Background(), 0)
	if err != nil || got == nil {
		t.Fatalf("expected empty slice, got %v %v", got, err)
	}
}

type failingRepo struct{}

func (failingRepo) Insert(context.Context, Comment) error { return errors.New("db down") }
func (failingRepo) List(context.Context, int) ([]Comment, error) {
	return nil, errors.New("db down")
}

func TestService_PropagatesRepoErrors(t *testing.T) {
	svc := NewService(failingRepo{})
	if _, err := svc.Add(context.Background(), "n", "e@x.io", "m"); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := svc.List(context.Background(), 1); err == nil {
		t.Fatalf("expected error")
	}
}
