package services

import (
	"context"
	"testing"

	"chitfund-backoffice/internal/adapters/persistence/models"
	"chitfund-backoffice/internal/pkg/crypto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newUserFixture() (*UserService, *stubUserRepo) {
	userRepo := newStubUserRepo()
	svc := NewUserService(userRepo, crypto.NewCodec("test-encryption-key"), zap.NewNop())
	return svc, userRepo
}

func TestInviteCreatesUnclaimedRecord(t *testing.T) {
	svc, userRepo := newUserFixture()
	ctx := context.Background()

	resp, err := svc.Invite(ctx, &InviteInput{
		Email: " Priya@Chitfund.Test ", DisplayName: "Priya",
		Role: models.RoleAgent, InitialPassword: "Welcome123",
	})
	require.NoError(t, err)

	// Address normalized, status active, and the DTO never leaks the
	// initial password
	assert.Equal(t, "priya@chitfund.test", resp.Email)
	assert.Equal(t, models.StatusActive, resp.Status)

	stored, err := userRepo.GetByUID(ctx, resp.UID)
	require.NoError(t, err)
	assert.True(t, stored.IsUnclaimedInvite())
}

func TestInviteRejectsShortInitialPassword(t *testing.T) {
	svc, _ := newUserFixture()

	_, err := svc.Invite(context.Background(), &InviteInput{
		Email: "priya@chitfund.test", DisplayName: "Priya",
		Role: models.RoleAgent, InitialPassword: "abc",
	})
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestInviteDuplicateEmail(t *testing.T) {
	svc, _ := newUserFixture()
	ctx := context.Background()

	input := &InviteInput{
		Email: "priya@chitfund.test", DisplayName: "Priya",
		Role: models.RoleAgent, InitialPassword: "Welcome123",
	}
	_, err := svc.Invite(ctx, input)
	require.NoError(t, err)

	_, err = svc.Invite(ctx, input)
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestUpdatePartialFields(t *testing.T) {
	svc, userRepo := newUserFixture()
	ctx := context.Background()

	require.NoError(t, userRepo.Create(ctx, &models.User{
		UID: "uid-1", Email: "priya@chitfund.test", Role: models.RoleAgent,
		DisplayName: "Priya", Phone: "9000000000", Status: models.StatusActive,
	}))

	name := "Priya S"
	resp, err := svc.Update(ctx, "uid-1", &UpdateUserInput{DisplayName: &name})
	require.NoError(t, err)

	assert.Equal(t, "Priya S", resp.DisplayName)
	// Untouched fields stay as they were
	assert.Equal(t, "9000000000", resp.Phone)
}

func TestUpdateRejectsUnknownStatus(t *testing.T) {
	svc, userRepo := newUserFixture()
	ctx := context.Background()

	require.NoError(t, userRepo.Create(ctx, &models.User{
		UID: "uid-1", Email: "priya@chitfund.test", Role: models.RoleAgent, Status: models.StatusActive,
	}))

	bogus := "SUSPENDED"
	_, err := svc.Update(ctx, "uid-1", &UpdateUserInput{Status: &bogus})
	assert.Error(t, err)
}

func TestPhotoRoundTrip(t *testing.T) {
	svc, userRepo := newUserFixture()
	ctx := context.Background()

	require.NoError(t, userRepo.Create(ctx, &models.User{
		UID: "uid-1", Email: "priya@chitfund.test", Role: models.RoleAgent, Status: models.StatusActive,
	}))

	require.NoError(t, svc.UpdatePhoto(ctx, "uid-1", "base64-image-bytes"))

	// Stored ciphertext, returned plaintext
	stored, err := userRepo.GetByUID(ctx, "uid-1")
	require.NoError(t, err)
	assert.NotEqual(t, "base64-image-bytes", stored.Photo)

	photo, err := svc.GetPhoto(ctx, "uid-1")
	require.NoError(t, err)
	assert.Equal(t, "base64-image-bytes", photo)
}

func TestDeactivate(t *testing.T) {
	svc, userRepo := newUserFixture()
	ctx := context.Background()

	require.NoError(t, userRepo.Create(ctx, &models.User{
		UID: "uid-1", Email: "priya@chitfund.test", Role: models.RoleAgent, Status: models.StatusActive,
	}))

	require.NoError(t, svc.Deactivate(ctx, "uid-1"))

	stored, err := userRepo.GetByUID(ctx, "uid-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusInactive, stored.Status)
}

func TestUserNotFoundMapping(t *testing.T) {
	svc, _ := newUserFixture()
	ctx := context.Background()

	_, err := svc.GetByUID(ctx, "nope")
	assert.ErrorIs(t, err, ErrUserNotFound)

	err = svc.Delete(ctx, "nope")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
