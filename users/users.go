package users

import (
	"fmt"
	"slices"
	"time"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// RoleType is a platform role.
type RoleType string

const (
	RoleAdmin        RoleType = "admin"         // Can moderate businesses and branches
	RoleBusinessUser RoleType = "business_user" // Owns one or more businesses
)

type User struct {
	ID           string     `json:"id"`                  // Unique identifier for the user
	Email        string     `json:"email"`               // User's email address, unique
	FullName     string     `json:"fullName"`            // Display name
	PasswordHash string     `json:"-"`                   // Hashed version of the user's password - never serialize
	Roles        []RoleType `json:"roles,omitempty"`     // Platform roles
	DateJoined   time.Time  `json:"dateJoined"`          // Date and time when the user registered
	LastLogin    time.Time  `json:"lastLogin,omitempty"` // Last time the user logged in
	Blocked      bool       `json:"blocked,omitempty"`   // Blocked users cannot log in or refresh
}

func (u *User) HasRole(role RoleType) bool {
	return slices.Contains(u.Roles, role)
}

func (u *User) IsAdmin() bool {
	return u.HasRole(RoleAdmin)
}

func (u *User) IsBusinessUser() bool {
	return u.HasRole(RoleBusinessUser)
}

// ValidatePasswordStrength checks if password meets security requirements:
// - At least 8 characters long
// - Contains uppercase and lowercase letters
// - Contains at least one number
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	var (
		hasUpper  bool
		hasLower  bool
		hasNumber bool
	)

	for _, char := range password {
		if unicode.IsUpper(char) {
			hasUpper = true
		} else if unicode.IsLower(char) {
			hasLower = true
		} else if unicode.IsDigit(char) {
			hasNumber = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}

	return nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
