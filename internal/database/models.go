package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the bun model for the users table.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID               uuid.UUID `bun:"id,pk,type:uuid"`
	Email            string    `bun:"email,notnull,unique"`
	PasswordHash     string    `bun:"password_hash,notnull"`
	Name             string    `bun:"name,notnull"`
	Phone            string    `bun:"phone,nullzero"`
	Address          string    `bun:"address,nullzero"`
	BloodType        string    `bun:"blood_type,nullzero"`
	EmergencyContact string    `bun:"emergency_contact,nullzero"`
	DateOfBirth      string    `bun:"date_of_birth,nullzero"`
	Gender           string    `bun:"gender,nullzero"`
	CreatedAt        time.Time `bun:"created_at,notnull,nullzero,default:current_timestamp"`
	UpdatedAt        time.Time `bun:"updated_at,notnull,nullzero,default:current_timestamp"`
}
