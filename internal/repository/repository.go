package repository

// Package repository contains data access layer abstractions.
// Implementations live in subpackages (e.g., postgres) inside this directory.

import "errors"

var (
	// ErrConflict is returned by conditional updates when the stored row no
	// longer matches the expected state (a lost compare-and-swap race).
	ErrConflict = errors.New("conditional update conflict")

	// ErrDuplicate is returned when an insert violates a uniqueness
	// constraint, e.g. a second assignment for the same (document, signer)
	// pair or a taken email address.
	ErrDuplicate = errors.New("duplicate record")
)
