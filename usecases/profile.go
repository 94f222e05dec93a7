package usecases

import (
	"context"

	"wattwise-server/apperr"
	"wattwise-server/entities"
	"wattwise-server/identity"
	"wattwise-server/repositories"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type ProfileUseCase struct {
	ProfileRepo repositories.ProfileRepository
	log         *zap.Logger
}

func NewProfileUseCase(profileRepo repositories.ProfileRepository, log *zap.Logger) *ProfileUseCase {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProfileUseCase{
		ProfileRepo: profileRepo,
		log:         log,
	}
}

// Sync returns the profile for the verified subject, creating it on first
// contact. Concurrent first requests for one subject race on the store's
// unique index; the loser re-reads the winner's row.
func (uc *ProfileUseCase) Sync(ctx context.Context, claims identity.Claims) (*entities.Profile, error) {
	if claims.Subject == "" {
		return nil, apperr.Unauthorizedf("Authentication failed. Invalid token.")
	}

	profile, err := uc.ProfileRepo.FindBySubject(ctx, claims.Subject)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	if claims.Email == "" {
		return nil, apperr.Unauthorizedf("Identity token does not carry an email address.")
	}

	profile = newProfileFromClaims(claims)
	err = uc.ProfileRepo.Create(ctx, profile)
	if err == nil {
		uc.log.Info("new profile synced", zap.String("profile_id", profile.ID), zap.String("email", profile.Email))
		return profile, nil
	}
	if !errors.Is(err, repositories.ErrDuplicate) {
		return nil, err
	}

	// someone else created it between our read and our insert
	profile, err = uc.ProfileRepo.FindBySubject(ctx, claims.Subject)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, apperr.New(apperr.Conflict, "Email is already linked to another account.")
	}
	if err != nil {
		return nil, err
	}
	return profile, nil
}

func newProfileFromClaims(claims identity.Claims) *entities.Profile {
	name := claims.Name
	if name == "" {
		name = claims.EmailLocalPart()
	}

	p := &entities.Profile{
		IdentitySubjectID: claims.Subject,
		Email:             entities.NormalizeEmail(claims.Email),
		DisplayName:       &name,
	}
	if claims.Picture != "" {
		picture := claims.Picture
		p.AvatarURL = &picture
	}
	return p
}

// GetProfile retrieves the profile by its own id.
func (uc *ProfileUseCase) GetProfile(ctx context.Context, id string) (*entities.Profile, error) {
	profile, err := uc.ProfileRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return profile, nil
}

// UpdateProfile applies a validated partial update.
func (uc *ProfileUseCase) UpdateProfile(ctx context.Context, id string, patch ProfilePatch) (*entities.Profile, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	profile, err := uc.ProfileRepo.Update(ctx, id, patch.Columns())
	if err != nil {
		return nil, notFound(err)
	}
	return profile, nil
}

// ReplaceAppliances stores the complete appliance list and marks onboarding
// as completed, whatever its previous state.
func (uc *ProfileUseCase) ReplaceAppliances(ctx context.Context, id string, appliances []entities.Appliance) (*entities.Profile, error) {
	if appliances == nil {
		appliances = []entities.Appliance{}
	}

	profile, err := uc.ProfileRepo.Update(ctx, id, map[string]any{
		"appliances":           datatypes.JSONSlice[entities.Appliance](appliances),
		"onboarding_completed": true,
	})
	if err != nil {
		return nil, notFound(err)
	}
	return profile, nil
}

func notFound(err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return apperr.NotFoundf("User not found.")
	}
	return err
}
