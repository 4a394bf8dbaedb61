package service

import (
	"coachlink/fitness-platform/internal/domain"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthFixture() (*memStore, AuthService) {
	store := newMemStore()
	svc := NewAuthService(&memUserRepo{s: store}, &memLoginTokenRepo{s: store}, "test-secret", time.Hour, 2*time.Minute)
	return store, svc
}

func TestRegisterAndLogin(t *testing.T) {
	_, svc := newAuthFixture()
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice", "alice@test.dev", "s3cretpass", domain.RoleClient)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleClient, user.Role)
	assert.True(t, user.IsValidated)
	assert.Empty(t, user.PasswordHash, "hash must never leave the service")

	token, logged, err := svc.Login(ctx, "alice@test.dev", "s3cretpass")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, user.ID, logged.ID)

	_, _, err = svc.Login(ctx, "alice@test.dev", "wrongpass")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestRegisterDuplicate(t *testing.T) {
	_, svc := newAuthFixture()
	ctx := context.Background()

	_, err := svc.Register(ctx, "bob", "bob@test.dev", "s3cretpass", domain.RoleClient)
	require.NoError(t, err)

	_, err = svc.Register(ctx, "bob2", "bob@test.dev", "s3cretpass", domain.RoleClient)
	assert.ErrorIs(t, err, ErrUserAlreadyExists)

	_, err = svc.Register(ctx, "bob", "bob2@test.dev", "s3cretpass", domain.RoleClient)
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestRegisterRejectsAdminRole(t *testing.T) {
	_, svc := newAuthFixture()

	_, err := svc.Register(context.Background(), "eve", "eve@test.dev", "s3cretpass", domain.RoleAdmin)
	assert.Error(t, err)
}

func TestTrainerAwaitsValidation(t *testing.T) {
	store, svc := newAuthFixture()
	ctx := context.Background()

	trainer, err := svc.Register(ctx, "coach", "coach@test.dev", "s3cretpass", domain.RoleTrainer)
	require.NoError(t, err)
	assert.False(t, trainer.IsValidated)
	assert.Equal(t, domain.DefaultMaxClients, trainer.MaxClients)

	_, _, err = svc.Login(ctx, "coach@test.dev", "s3cretpass")
	assert.ErrorIs(t, err, ErrTrainerNotValidated)

	// Once validated the same credentials work.
	userRepo := &memUserRepo{s: store}
	require.NoError(t, userRepo.SetValidated(ctx, trainer.ID))

	token, _, err := svc.Login(ctx, "coach@test.dev", "s3cretpass")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestLoginTokenSingleUse(t *testing.T) {
	_, svc := newAuthFixture()
	ctx := context.Background()

	user, err := svc.Register(ctx, "carol", "carol@test.dev", "s3cretpass", domain.RoleClient)
	require.NoError(t, err)

	issued, err := svc.IssueLoginToken(ctx, user.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, issued.Token)
	assert.True(t, issued.ExpiresAt.After(time.Now()))

	jwtToken, exchanged, err := svc.ExchangeLoginToken(ctx, issued.Token)
	require.NoError(t, err)
	assert.NotEmpty(t, jwtToken)
	assert.Equal(t, user.ID, exchanged.ID)

	// Replay must fail.
	_, _, err = svc.ExchangeLoginToken(ctx, issued.Token)
	assert.ErrorIs(t, err, ErrLoginTokenInvalid)

	// Unknown tokens too.
	_, _, err = svc.ExchangeLoginToken(ctx, "no-such-token")
	assert.ErrorIs(t, err, ErrLoginTokenInvalid)
}

func TestGetProfile(t *testing.T) {
	_, svc := newAuthFixture()
	ctx := context.Background()

	user, err := svc.Register(ctx, "dave", "dave@test.dev", "s3cretpass", domain.RoleClient)
	require.NoError(t, err)

	profile, err := svc.GetProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "dave", profile.Username)
	assert.Empty(t, profile.PasswordHash)
}
