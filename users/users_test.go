package users_test

import (
	"testing"
	"time"

	apperrors "github.com/jrsteele09/livee-admin-console/internal/errors"
	"github.com/jrsteele09/livee-admin-console/users"
	fakeuserrepo "github.com/jrsteele09/livee-admin-console/users/repofake"
	"github.com/stretchr/testify/require"
)

func TestValidatePasswordStrength(t *testing.T) {
	require.NoError(t, users.ValidatePasswordStrength("Sup3r-Secret"))

	for password, message := range map[string]string{
		"Sh0rt":        "at least 8 characters",
		"alllower1":    "uppercase",
		"ALLUPPER1":    "lowercase",
		"NoDigitsHere": "number",
	} {
		err := users.ValidatePasswordStrength(password)
		require.Error(t, err, password)
		require.Contains(t, err.Error(), message)
	}
}

func TestHashPassword(t *testing.T) {
	hash, err := users.HashPassword("Sup3r-Secret")
	require.NoError(t, err)
	require.NotEqual(t, "Sup3r-Secret", hash)
	require.True(t, users.CheckPasswordHash("Sup3r-Secret", hash))
	require.False(t, users.CheckPasswordHash("sup3r-secret", hash))
}

func TestUserRoles(t *testing.T) {
	u := users.User{Roles: []users.RoleType{users.RoleBusinessUser}}
	require.True(t, u.IsBusinessUser())
	require.False(t, u.IsAdmin())
}

func TestFakeUserRepo(t *testing.T) {
	repo := fakeuserrepo.NewFakeUserRepo()

	u := &users.User{Email: "Admin@Livee.test", Roles: []users.RoleType{users.RoleAdmin}}
	require.NoError(t, repo.Upsert(u))
	require.NotEmpty(t, u.ID)

	byEmail, err := repo.GetByEmail(" admin@livee.TEST ")
	require.NoError(t, err)
	require.Equal(t, u.ID, byEmail.ID)

	byEmail.FullName = "changed"
	byID, err := repo.GetByID(u.ID)
	require.NoError(t, err)
	require.Empty(t, byID.FullName, "repo hands out copies")

	at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.SetLastLogin("admin@livee.test", at))
	byID, err = repo.GetByID(u.ID)
	require.NoError(t, err)
	require.Equal(t, at, byID.LastLogin)

	_, err = repo.GetByEmail("nobody@livee.test")
	require.ErrorIs(t, err, apperrors.ErrUserNotFound)
	require.ErrorIs(t, repo.SetLastLogin("nobody@livee.test", at), apperrors.ErrUserNotFound)
}
