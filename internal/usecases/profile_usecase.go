package usecases

import (
	"context"
	"fmt"

	"ispagents/internal/entities"
)

// ProfileStore extends ProfileReader with the update operation.
type ProfileStore interface {
	ProfileReader
	UpdateProfile(ctx context.Context, userID int, update entities.ProfileUpdate) (*entities.Profile, error)
}

// ProfileUsecase mutates profiles and keeps the reactive provider in
// sync so gates re-evaluate against fresh data.
type ProfileUsecase struct {
	store    ProfileStore
	provider *ProfileProvider
}

func NewProfileUsecase(store ProfileStore, provider *ProfileProvider) *ProfileUsecase {
	return &ProfileUsecase{store: store, provider: provider}
}

// UpdateProfile applies a partial update and invalidates the cached
// snapshot.
func (uc *ProfileUsecase) UpdateProfile(ctx context.Context, userID int, update entities.ProfileUpdate) (*entities.Profile, error) {
	if update.Plan != nil {
		switch *update.Plan {
		case entities.PlanFree, entities.PlanBasic, entities.PlanPremium, entities.PlanEnterprise:
		default:
			return nil, fmt.Errorf("profile: invalid plan %q", *update.Plan)
		}
	}
	if update.UserRoleType != nil {
		switch *update.UserRoleType {
		case entities.RoleTypeTecnico, entities.RoleTypeComercial, entities.RoleTypeGeral, entities.RoleTypeAdmin:
		default:
			return nil, fmt.Errorf("profile: invalid role type %q", *update.UserRoleType)
		}
	}

	profile, err := uc.store.UpdateProfile(ctx, userID, update)
	if err != nil {
		return nil, err
	}
	if uc.provider != nil {
		uc.provider.Invalidate(userID)
	}
	return profile, nil
}

// CompleteOnboarding flips the one-time setup flag.
func (uc *ProfileUsecase) CompleteOnboarding(ctx context.Context, userID int) (*entities.Profile, error) {
	done := true
	return uc.UpdateProfile(ctx, userID, entities.ProfileUpdate{OnboardingCompleted: &done})
}

// GetProfile reads the persisted profile directly (bypassing the
// cache); dashboards use this for their own view.
func (uc *ProfileUsecase) GetProfile(ctx context.Context, userID int) (*entities.Profile, error) {
	return uc.store.GetProfile(ctx, userID)
}
