package repositories

import (
	"context"

	"wattwise-server/db"
	"wattwise-server/entities"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type profilePgRepository struct {
	db db.Database
}

func NewProfilePgRepository(database db.Database) ProfileRepository {
	return &profilePgRepository{db: database}
}

func (r *profilePgRepository) FindBySubject(ctx context.Context, subject string) (*entities.Profile, error) {
	var profile entities.Profile
	err := r.db.GetDB().WithContext(ctx).Where("identity_subject_id = ?", subject).First(&profile).Error
	if err != nil {
		return nil, translate(err)
	}
	return &profile, nil
}

func (r *profilePgRepository) FindByID(ctx context.Context, id string) (*entities.Profile, error) {
	var profile entities.Profile
	err := r.db.GetDB().WithContext(ctx).Where("id = ?", id).First(&profile).Error
	if err != nil {
		return nil, translate(err)
	}
	return &profile, nil
}

func (r *profilePgRepository) Create(ctx context.Context, profile *entities.Profile) error {
	return translate(r.db.GetDB().WithContext(ctx).Create(profile).Error)
}

func (r *profilePgRepository) Update(ctx context.Context, id string, fields map[string]any) (*entities.Profile, error) {
	if len(fields) == 0 {
		return r.FindByID(ctx, id)
	}

	var profile *entities.Profile
	err := r.db.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&entities.Profile{}).Where("id = ?", id).Updates(fields)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		var stored entities.Profile
		if err := tx.Where("id = ?", id).First(&stored).Error; err != nil {
			return err
		}
		profile = &stored
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	return profile, nil
}

// translate maps gorm errors onto the repository sentinels.
// Duplicate keys are only recognised when the connection was opened
// with TranslateError enabled.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return errors.Wrap(ErrDuplicate, err.Error())
	default:
		return errors.WithStack(err)
	}
}
