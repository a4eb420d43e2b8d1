// Package service implements the signing workflow use cases. Every
// state-changing operation checks the actor's role and relation to the
// entity before touching storage, then relies on conditional store updates
// to stay correct under concurrent requests.
package service

import (
	"database/sql"
	"errors"

	"signflow/internal/model"
)

// Identity is the authenticated caller of a use case, as established by the
// HTTP auth middleware.
type Identity struct {
	UserID string
	Role   model.Role
}

var (
	ErrIDRequired = errors.New("id is required")
	ErrReaderNil  = errors.New("reader is nil")

	// ErrNotFound means the requested entity does not exist.
	ErrNotFound = errors.New("resource not found")
	// ErrForbidden means the actor's role or relation to the entity does
	// not permit the operation.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidState means the transition was attempted from the wrong
	// document status, including a compare-and-swap lost to a concurrent
	// request.
	ErrInvalidState = errors.New("invalid document state")
	// ErrDuplicateAssignment means the document is already assigned to the
	// signer.
	ErrDuplicateAssignment = errors.New("document already assigned to this signer")
	// ErrSignerNotFound means no account with the SIGNER role matches the
	// given email.
	ErrSignerNotFound = errors.New("signer not found")

	ErrEmailTaken         = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrPasswordTooShort means the password does not meet the minimum
	// length of minPasswordLen characters.
	ErrPasswordTooShort = errors.New("password too short")
)

// minPasswordLen is the minimum accepted password length.
const minPasswordLen = 6

// mapNotFound translates the persistence-level missing-row error into the
// service taxonomy.
func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
