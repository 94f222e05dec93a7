package repositories

import (
	"context"

	"wattwise-server/entities"

	"github.com/pkg/errors"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate key")
)

// ProfileRepository is the profile store as seen by the use cases.
// Update applies only the given columns and returns the stored result.
type ProfileRepository interface {
	FindBySubject(ctx context.Context, subject string) (*entities.Profile, error)
	FindByID(ctx context.Context, id string) (*entities.Profile, error)
	Create(ctx context.Context, profile *entities.Profile) error
	Update(ctx context.Context, id string, fields map[string]any) (*entities.Profile, error)
}
