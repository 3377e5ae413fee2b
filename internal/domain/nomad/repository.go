package nomad

import (
	"context"

	"github.com/nomad-hub/nomad-meetup-hub/internal/domain/shared"
)

// Repository is the persistence port for nomad profiles. The production
// implementation lives in infrastructure/persistence/postgres.
type Repository interface {
	// GetByID returns one profile, or shared.ErrProfileNotFound.
	GetByID(ctx context.Context, id shared.NomadID) (*Profile, error)

	// GetByIDs returns the profiles for the given IDs in one round
	// trip. Missing IDs are silently omitted.
	GetByIDs(ctx context.Context, ids []shared.NomadID) ([]*Profile, error)

	// Upsert creates or replaces a profile.
	Upsert(ctx context.Context, profile *Profile) error

	// Delete removes a profile.
	Delete(ctx context.Context, id shared.NomadID) error
}
