package server

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/jrsteele09/livee-admin-console/server/businessrepo"
	"github.com/jrsteele09/livee-admin-console/users"
)

// InitialiseSystem creates the admin user and seeds the sample businesses.
// Both steps are skipped when the data already exists.
func (s *Server) InitialiseSystem(ctx context.Context) error {
	adminEmail := s.config.GetAdminEmail()
	generatedPassword, err := s.createAdmin(adminEmail, s.config.GetAdminPassword())
	if err != nil {
		return fmt.Errorf("[Server InitialiseSystem] failed to bootstrap admin: %w", err)
	}
	s.generatedPassword = generatedPassword

	seeded, err := businessrepo.Seed(ctx, s.repos.Businesses, s.now())
	if err != nil {
		return fmt.Errorf("[Server InitialiseSystem] failed to seed businesses: %w", err)
	}

	if seeded > 0 {
		s.log.Info().Int("businesses", seeded).Msg("seeded sample businesses")
	}
	if generatedPassword != "" && s.env == "DEV" {
		s.log.Warn().
			Str("email", adminEmail).
			Str("password", generatedPassword).
			Msg("admin credentials generated - save this password, it will not be displayed again")
	}
	return nil
}

// createAdmin creates the admin user if it doesn't exist. The password is
// generated when none is configured and returned so it can be shown once.
func (s *Server) createAdmin(email, defaultPassword string) (generatedPassword string, err error) {
	existingUser, err := s.repos.Users.GetByEmail(email)
	if err == nil && existingUser != nil && existingUser.IsAdmin() {
		return "", nil
	}

	password := defaultPassword
	if password != "" {
		if err := users.ValidatePasswordStrength(password); err != nil {
			return "", fmt.Errorf("[server createAdmin] configured admin password rejected: %w", err)
		}
	} else {
		// Generate a secure random password
		passwordBytes := make([]byte, 16)
		if _, err := rand.Read(passwordBytes); err != nil {
			return "", fmt.Errorf("[server createAdmin] failed to generate password: %w", err)
		}
		password = base64.URLEncoding.EncodeToString(passwordBytes)
		generatedPassword = password
	}

	passwordHash, err := users.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("[server createAdmin] failed to hash password: %w", err)
	}

	adminUser := &users.User{
		Email:        strings.ToLower(strings.TrimSpace(email)),
		FullName:     "Platform Administrator",
		PasswordHash: passwordHash,
		Roles:        []users.RoleType{users.RoleAdmin},
		DateJoined:   s.now(),
	}
	if existingUser != nil {
		adminUser.ID = existingUser.ID
	}

	if err := s.repos.Users.Upsert(adminUser); err != nil {
		return "", fmt.Errorf("[server createAdmin] failed to create admin: %w", err)
	}
	return generatedPassword, nil
}
