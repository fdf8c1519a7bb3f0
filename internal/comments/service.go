package comments

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidComment = errors.New("comments: name, email and message are required")
	ErrNotSaved       = errors.New("comments: comment was not saved")
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

// Add stores a new comment and returns it with id and timestamp filled.
func (s *Service) Add(ctx context.Context, name, email, message string) (Comment, error) {
	if s.repo == nil {
		return Comment{}, errors.New("comments: repository not configured")
	}
	c := Comment{
		Name:     strings.TrimSpace(name),
		Email:    strings.TrimSpace(email),
		Feedback: strings.TrimSpace(message),
	}
	if c.Name == "" || c.Email == "" || c.Feedback == "" {
		return Comment{}, ErrInvalidComment
	}
	c.ID = uuid.NewString()
	c.CreatedAt = s.clock().UTC()

	if err := s.repo.Insert(ctx, c); err != nil {
		return Comment{}, err
	}
	return c, nil
}

// List returns recent comments. limit is clamped to (0, MaxListLimit].
func (s *Service) List(ctx context.Context, limit int) ([]Comment, error) {
	if s.repo == nil {
		return nil, errors.New("comments: repository not configured")
	}
	switch {
	case limit <= 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}
	out, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []Comment{}
	}
	return out, nil
}
