package model

import (
	"time"

	"github.com/google/uuid"

	"docvault/internal/validate"
)

const (
	MaxUserNameLength     = 50
	MaxPasswordHashLength = 100
)

// User is an account. PasswordHash never leaves the process in JSON.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         UserRole  `json:"role"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	UpdatedBy    string    `json:"updated_by"`
}

// UserParams feeds NewUser. ID, CreatedAt, UpdatedAt and UpdatedBy are set only when rehydrating;
// a fresh account is last updated by itself.
type UserParams struct {
	Email        string
	PasswordHash string
	Name         string
	Role         UserRole

	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time
	UpdatedBy string
}

// NewUser builds and validates a user.
func NewUser(p UserParams) (User, error) {
	u := User{
		ID:           p.ID,
		Email:        p.Email,
		PasswordHash: p.PasswordHash,
		Role:         p.Role,
		Name:         p.Name,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
		UpdatedBy:    p.UpdatedBy,
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = UserRoleUser
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = Now()
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = u.CreatedAt
	}
	if u.UpdatedBy == "" {
		u.UpdatedBy = u.ID
	}
	if err := ValidateUser(u); err != nil {
		return User{}, err
	}
	return u, nil
}

// ValidateUser checks id, createdAt, email, password hash, updatedBy, name, updatedAt and role, in that order.
func ValidateUser(u User) error {
	if _, err := validate.UUID(u.ID); err != nil {
		return err
	}
	if _, err := validate.Date(u.CreatedAt); err != nil {
		return err
	}
	if _, err := validate.Email(u.Email); err != nil {
		return err
	}
	if _, err := validate.String(u.PasswordHash, MaxPasswordHashLength); err != nil {
		return err
	}
	if _, err := validate.UUID(u.UpdatedBy); err != nil {
		return err
	}
	if _, err := validate.String(u.Name, MaxUserNameLength); err != nil {
		return err
	}
	if _, err := validate.Date(u.UpdatedAt); err != nil {
		return err
	}
	if _, err := validate.Enum(string(u.Role), UserRoles...); err != nil {
		return err
	}
	return nil
}

func (u User) WithEmail(actorID, email string) (User, error) {
	if _, err := validate.Email(email); err != nil {
		return User{}, err
	}
	if _, err := validate.UUID(actorID); err != nil {
		return User{}, err
	}
	u.Email = email
	u.touch(actorID)
	return u, nil
}

func (u User) WithName(actorID, name string) (User, error) {
	if _, err := validate.String(name, MaxUserNameLength); err != nil {
		return User{}, err
	}
	if _, err := validate.UUID(actorID); err != nil {
		return User{}, err
	}
	u.Name = name
	u.touch(actorID)
	return u, nil
}

func (u User) WithPasswordHash(actorID, hash string) (User, error) {
	if _, err := validate.String(hash, MaxPasswordHashLength); err != nil {
		return User{}, err
	}
	if _, err := validate.UUID(actorID); err != nil {
		return User{}, err
	}
	u.PasswordHash = hash
	u.touch(actorID)
	return u, nil
}

func (u *User) touch(actorID string) {
	u.UpdatedAt = Now()
	u.UpdatedBy = actorID
}
