package primary

import "context"

// ProfileService defines the primary port for user profiles.
type ProfileService interface {
	// UpsertProfile creates or updates a profile mirrored from auth.
	UpsertProfile(ctx context.Context, req UpsertProfileRequest) (*Profile, error)

	// GetProfile retrieves a profile.
	GetProfile(ctx context.Context, userID string) (*Profile, error)
}

// UpsertProfileRequest contains profile fields.
type UpsertProfileRequest struct {
	UserID      string
	Email       string
	DisplayName string
}

// Profile represents a user profile at the port boundary.
type Profile struct {
	UserID      string
	Email       string
	DisplayName string
}
