package service

import (
	"context"
	"testing"

	"sharify/internal/models"
	"sharify/internal/querykeys"
	"sharify/internal/repository"
	"sharify/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupProfiles(t *testing.T) (*ProfileService, *recorder) {
	t.Helper()
	db := setupTestDB(t)
	media, _ := newTestMedia(t, 0)
	rec := &recorder{}
	svc := NewProfileService(repository.NewUserRepository(db), repository.NewProfileRepository(db), media, rec)
	return svc, rec
}

func TestProfileService_EnsureUser(t *testing.T) {
	svc, rec := setupProfiles(t)
	ctx := context.Background()

	user, created, err := svc.EnsureUser(ctx, EnsureUserInput{UserID: 4, Email: "dana@example.com"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "dana@example.com", user.Name)

	user, created, err = svc.EnsureUser(ctx, EnsureUserInput{UserID: 4, Email: "dana@example.com", DisplayName: "Dana"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "dana@example.com", user.Name, "existing records are never overwritten")

	assert.Equal(t, []querykeys.Change{{Entity: querykeys.EntityUser, OwnerID: 4}}, rec.all())
}

func TestProfileService_PublicProfileFallsBackToUser(t *testing.T) {
	svc, _ := setupProfiles(t)
	ctx := context.Background()

	_, _, err := svc.EnsureUser(ctx, EnsureUserInput{UserID: 4, Email: "dana@example.com", DisplayName: "Dana"})
	require.NoError(t, err)

	p, err := svc.PublicProfile(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, "Dana", p.Name)
	assert.False(t, p.HasProfile)

	_, err = svc.PublicProfile(ctx, 99)
	assert.Equal(t, models.CodeNotFound, appCode(t, err))
}

func TestProfileService_UpdateProfile(t *testing.T) {
	svc, rec := setupProfiles(t)
	ctx := context.Background()
	_, _, err := svc.EnsureUser(ctx, EnsureUserInput{UserID: 4, Email: "dana@example.com"})
	require.NoError(t, err)

	p, err := svc.UpdateProfile(ctx, UpdateProfileInput{UserID: 4, Name: " Dana ", Bio: "SDE @ Atlassian", Website: "https://dana.dev"})
	require.NoError(t, err)
	assert.True(t, p.HasProfile)
	assert.Equal(t, "Dana", p.Name)
	assert.Equal(t, "SDE @ Atlassian", p.Bio)

	_, err = svc.UpdateProfile(ctx, UpdateProfileInput{UserID: 4, Website: "not a url"})
	assert.Equal(t, models.CodeValidation, appCode(t, err))

	_, err = svc.GetProfile(ctx, 0)
	assert.Equal(t, models.CodeUnauthorized, appCode(t, err))

	changes := rec.all()
	require.Len(t, changes, 2)
	assert.Equal(t, querykeys.Change{Entity: querykeys.EntityProfile, OwnerID: 4}, changes[1])
}

func TestProfileService_UploadAvatar(t *testing.T) {
	svc, _ := setupProfiles(t)
	ctx := context.Background()
	_, _, err := svc.EnsureUser(ctx, EnsureUserInput{UserID: 4, Email: "dana@example.com", DisplayName: "Dana"})
	require.NoError(t, err)

	p, err := svc.UploadAvatar(ctx, 4, testutil.PNG(t, 64, 64), "image/png")
	require.NoError(t, err)
	assert.Contains(t, p.AvatarURL, "/media/avatars/4/")
	assert.Equal(t, "Dana", p.Name, "name falls back to the user record")
}
