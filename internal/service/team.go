package service

import (
	"context"

	"warehub-backend/internal/domain"
	"warehub-backend/internal/repository"
)

const teamMemberActive = "active"

type teamAuthorizer struct {
	userRepo repository.UserRepository
}

// NewTeamAuthorizer allows on-behalf bookings between active members of a shared team.
func NewTeamAuthorizer(userRepo repository.UserRepository) TeamAuthorizer {
	return &teamAuthorizer{userRepo: userRepo}
}

func (a *teamAuthorizer) CanBookOnBehalf(ctx context.Context, bookerID, customerID int32) (bool, bool, error) {
	if bookerID == customerID {
		return false, false, nil
	}
	bookerTeams, err := a.userRepo.ListTeamMemberships(ctx, bookerID)
	if err != nil {
		return false, false, err
	}
	customerTeams, err := a.userRepo.ListTeamMemberships(ctx, customerID)
	if err != nil {
		return false, false, err
	}

	customerIn := make(map[int32]bool, len(customerTeams))
	for _, m := range customerTeams {
		if m.Status == teamMemberActive {
			customerIn[m.TeamID] = true
		}
	}

	allowed, isAdmin := false, false
	for _, m := range bookerTeams {
		if m.Status != teamMemberActive || !customerIn[m.TeamID] {
			continue
		}
		allowed = true
		if m.Role == domain.TeamRoleAdmin {
			isAdmin = true
		}
	}
	return allowed, isAdmin, nil
}
