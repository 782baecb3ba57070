package app

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/example/rabotim/internal/errs"
	"github.com/example/rabotim/internal/ports/primary"
	"github.com/example/rabotim/internal/ports/secondary"
)

// ProfileServiceImpl implements the ProfileService interface.
type ProfileServiceImpl struct {
	profileRepo secondary.ProfileRepository
	now         func() time.Time
}

// NewProfileService creates a new ProfileService with injected dependencies.
func NewProfileService(profileRepo secondary.ProfileRepository) *ProfileServiceImpl {
	return &ProfileServiceImpl{profileRepo: profileRepo, now: time.Now}
}

// UpsertProfile creates or updates a profile mirrored from auth.
func (s *ProfileServiceImpl) UpsertProfile(ctx context.Context, req primary.UpsertProfileRequest) (*primary.Profile, error) {
	if strings.TrimSpace(req.UserID) == "" {
		return nil, errs.New(errs.KindValidation, "user ID is required")
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(req.Email))
	if err != nil {
		return nil, errs.New(errs.KindValidation, "invalid email %q", req.Email)
	}

	record := &secondary.ProfileRecord{
		ID:          req.UserID,
		Email:       addr.Address,
		DisplayName: strings.TrimSpace(req.DisplayName),
		UpdatedAt:   s.now().UTC(),
	}
	if err := s.profileRepo.Upsert(ctx, record); err != nil {
		return nil, err
	}
	return s.GetProfile(ctx, req.UserID)
}

// GetProfile retrieves a profile.
func (s *ProfileServiceImpl) GetProfile(ctx context.Context, userID string) (*primary.Profile, error) {
	record, err := s.profileRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &primary.Profile{
		UserID:      record.ID,
		Email:       record.Email,
		DisplayName: record.DisplayName,
	}, nil
}

// Ensure ProfileServiceImpl implements the interface
var _ primary.ProfileService = (*ProfileServiceImpl)(nil)
