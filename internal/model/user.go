package model

import "time"

// Role is the closed set of account roles. Uploaders create and review
// documents; signers apply signatures to documents assigned to them.
type Role string

const (
	RoleUploader Role = "UPLOADER"
	RoleSigner   Role = "SIGNER"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUploader || r == RoleSigner
}

// User is a registered account. Email is unique case-insensitively; the
// role is fixed at registration time.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}
