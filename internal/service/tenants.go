package service

import (
	"context"
	"strings"

	"shoptracker/internal/domain"
)

type TenantProfile struct {
	ID           string  `json:"id" validate:"required,max=128"`
	Email        string  `json:"email" validate:"omitempty,email,max=320"`
	DisplayName  string  `json:"display_name" validate:"max=200"`
	BusinessName *string `json:"business_name" validate:"omitempty,max=200"`
}

// EnsureTenant registers the tenant on first sight and refreshes its
// profile afterwards. Empty fields keep what is stored.
func (s *Service) EnsureTenant(ctx context.Context, profile TenantProfile) (domain.Tenant, error) {
	profile.ID = strings.TrimSpace(profile.ID)
	profile.Email = strings.ToLower(strings.TrimSpace(profile.Email))
	profile.DisplayName = strings.TrimSpace(profile.DisplayName)
	if profile.BusinessName != nil {
		trimmed := strings.TrimSpace(*profile.BusinessName)
		profile.BusinessName = &trimmed
		if trimmed == "" {
			profile.BusinessName = nil
		}
	}
	if err := requireTenant(profile.ID); err != nil {
		return domain.Tenant{}, err
	}
	if err := s.validateInput(profile); err != nil {
		return domain.Tenant{}, err
	}
	return s.repo.UpsertTenant(ctx, domain.Tenant{
		ID:           profile.ID,
		Email:        profile.Email,
		DisplayName:  profile.DisplayName,
		BusinessName: profile.BusinessName,
	})
}
