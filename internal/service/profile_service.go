package service

import (
	"context"
	"strings"

	"sharify/internal/cache"
	"sharify/internal/models"
	"sharify/internal/querykeys"
	"sharify/internal/repository"
	"sharify/internal/validation"
)

// ProfileService manages public user records and the optional profiles on
// top of them.
type ProfileService struct {
	users     repository.UserRepository
	profiles  repository.ProfileRepository
	media     *MediaService
	publisher ChangePublisher
}

// EnsureUserInput is the best-effort metadata used when creating a missing
// user record.
type EnsureUserInput struct {
	UserID      uint
	Email       string
	DisplayName string
}

// UpdateProfileInput carries the editable profile fields.
type UpdateProfileInput struct {
	UserID   uint   `json:"-"`
	Name     string `json:"name" validate:"max=100"`
	Bio      string `json:"bio" validate:"max=2000"`
	Location string `json:"location" validate:"max=100"`
	Website  string `json:"website" validate:"omitempty,url,max=300"`
}

func NewProfileService(
	users repository.UserRepository,
	profiles repository.ProfileRepository,
	media *MediaService,
	publisher ChangePublisher,
) *ProfileService {
	return &ProfileService{users: users, profiles: profiles, media: media, publisher: publisherOrNoop(publisher)}
}

// EnsureUser creates the public user record for a signed-in account if it
// does not exist yet. The name falls back to the email address.
func (s *ProfileService) EnsureUser(ctx context.Context, in EnsureUserInput) (*models.User, bool, error) {
	if in.UserID == 0 {
		return nil, false, models.NewUnauthorizedError("Not authenticated")
	}
	name := strings.TrimSpace(in.DisplayName)
	if name == "" {
		name = in.Email
	}
	user := &models.User{ID: in.UserID, Name: name, Email: in.Email}
	created, err := s.users.Ensure(ctx, user)
	if err != nil {
		return nil, false, err
	}
	if created {
		s.publisher.Publish(ctx, querykeys.Change{Entity: querykeys.EntityUser, OwnerID: in.UserID})
		return user, true, nil
	}
	existing, err := s.users.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// PublicProfile returns what other users see for userID: the profile when
// one exists, otherwise the bare user record.
func (s *ProfileService) PublicProfile(ctx context.Context, userID uint) (*models.PublicProfile, error) {
	var out models.PublicProfile
	err := cache.Aside(ctx, querykeys.PublicProfileKey(userID), &out, func(ctx context.Context) (models.PublicProfile, error) {
		p, err := s.load(ctx, userID)
		if err != nil {
			return models.PublicProfile{}, err
		}
		return *p, nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetProfile returns the caller's own profile, bypassing the shared cache.
func (s *ProfileService) GetProfile(ctx context.Context, userID uint) (*models.PublicProfile, error) {
	if userID == 0 {
		return nil, models.NewUnauthorizedError("Not authenticated")
	}
	return s.load(ctx, userID)
}

func (s *ProfileService) load(ctx context.Context, userID uint) (*models.PublicProfile, error) {
	profile, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if profile == nil {
			return nil, err
		}
		user = nil
	}
	out := models.NewPublicProfile(profile, user)
	if out == nil {
		return nil, models.NewNotFoundError("User", userID)
	}
	return out, nil
}

func (s *ProfileService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.PublicProfile, error) {
	if in.UserID == 0 {
		return nil, models.NewUnauthorizedError("Not authenticated")
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Bio = strings.TrimSpace(in.Bio)
	in.Location = strings.TrimSpace(in.Location)
	in.Website = strings.TrimSpace(in.Website)
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}

	if err := s.profiles.Upsert(ctx, &models.Profile{
		UserID:   in.UserID,
		Name:     in.Name,
		Bio:      in.Bio,
		Location: in.Location,
		Website:  in.Website,
	}); err != nil {
		return nil, err
	}
	s.publisher.Publish(ctx, querykeys.Change{Entity: querykeys.EntityProfile, OwnerID: in.UserID})
	return s.load(ctx, in.UserID)
}

// UploadAvatar stores a normalised avatar and points the profile at it.
func (s *ProfileService) UploadAvatar(ctx context.Context, userID uint, content []byte, contentType string) (*models.PublicProfile, error) {
	if userID == 0 {
		return nil, models.NewUnauthorizedError("Not authenticated")
	}
	if s.media == nil {
		return nil, models.NewValidationError("File uploads are not enabled")
	}
	obj, err := s.media.UploadAvatar(ctx, userID, content, contentType)
	if err != nil {
		return nil, err
	}
	if err := s.profiles.SetAvatar(ctx, userID, obj.URL); err != nil {
		return nil, err
	}
	s.publisher.Publish(ctx, querykeys.Change{Entity: querykeys.EntityProfile, OwnerID: userID})
	return s.load(ctx, userID)
}
