package users

import "time"

type UserRepo interface {
	Upsert(user *User) error
	GetByEmail(email string) (*User, error)
	GetByID(ID string) (*User, error)
	SetLastLogin(email string, at time.Time) error
}
