package auth

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/xintone/xintone/pkg/models"
)

// RoleLookup finds the application role stored for a user.
type RoleLookup interface {
	LookupRole(ctx context.Context, userID string) (role string, found bool, err error)
}

// ProfileRoles reads roles from the profiles table.
type ProfileRoles struct {
	DB *gorm.DB
}

var _ RoleLookup = (*ProfileRoles)(nil)

// LookupRole implements RoleLookup.
func (p *ProfileRoles) LookupRole(ctx context.Context, userID string) (string, bool, error) {
	profile := models.Profile{ID: userID}
	if err := profile.Get(ctx, p.DB); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("error getting profile: %w", err)
	}
	return profile.Role, true, nil
}

// WithRoleLookup wraps v so that a role found by lookup replaces the
// provider-reported role. Users without a profile keep the provider role.
func WithRoleLookup(v Verifier, lookup RoleLookup) Verifier {
	return VerifierFunc(func(ctx context.Context, token string) (*Identity, error) {
		id, err := v.Verify(ctx, token)
		if err != nil || id == nil {
			return id, err
		}

		role, found, err := lookup.LookupRole(ctx, id.ID)
		if err != nil {
			return nil, err
		}
		if found {
			id.Role = role
		}
		return id, nil
	})
}
