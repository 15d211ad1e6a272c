package user

import (
	"time"

	"github.com/google/uuid"
)

// User is a stored account. PasswordHash is never serialized.
type User struct {
	ID               uuid.UUID `json:"id"`
	Email            string    `json:"email"`
	PasswordHash     string    `json:"-"`
	Name             string    `json:"name"`
	Phone            string    `json:"phone,omitempty"`
	Address          string    `json:"address,omitempty"`
	BloodType        string    `json:"bloodType,omitempty"`
	EmergencyContact string    `json:"emergencyContact,omitempty"`
	DateOfBirth      string    `json:"dateOfBirth,omitempty"`
	Gender           string    `json:"gender,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Profile holds the optional, freely mutable profile fields.
type Profile struct {
	Phone            string `json:"phone,omitempty"`
	Address          string `json:"address,omitempty"`
	BloodType        string `json:"bloodType,omitempty"`
	EmergencyContact string `json:"emergencyContact,omitempty"`
	DateOfBirth      string `json:"dateOfBirth,omitempty"`
	Gender           string `json:"gender,omitempty"`
}

// PublicUser is the client-safe view of a User. It has no password field.
type PublicUser struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Profile
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Public strips the password hash.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Profile:   u.Profile(),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func (u *User) Profile() Profile {
	return Profile{
		Phone:            u.Phone,
		Address:          u.Address,
		BloodType:        u.BloodType,
		EmergencyContact: u.EmergencyContact,
		DateOfBirth:      u.DateOfBirth,
		Gender:           u.Gender,
	}
}

// ProfileUpdate is a partial update; nil fields are left unchanged.
type ProfileUpdate struct {
	Name             *string `json:"name,omitempty"`
	Phone            *string `json:"phone,omitempty"`
	Address          *string `json:"address,omitempty"`
	BloodType        *string `json:"bloodType,omitempty"`
	EmergencyContact *string `json:"emergencyContact,omitempty"`
	DateOfBirth      *string `json:"dateOfBirth,omitempty"`
	Gender           *string `json:"gender,omitempty"`
}

// IsEmpty reports whether the update changes nothing.
func (p ProfileUpdate) IsEmpty() bool {
	return p.Name == nil && p.Phone == nil && p.Address == nil && p.BloodType == nil &&
		p.EmergencyContact == nil && p.DateOfBirth == nil && p.Gender == nil
}
