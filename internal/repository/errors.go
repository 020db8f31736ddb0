// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios without
// inspecting driver-specific errors.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on a
// resource that belongs to a different email. Handlers translate it
// into the same not-found response as a missing row so existence is not
// leaked across accounts.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a delete or update cannot be performed
// because of dependent state, such as deleting a time slot that still
// has reservations. Handlers should translate this into an HTTP 409
// response.
var ErrConflict = errors.New("conflict")

// ErrSlugExists is returned when inserting a time slot whose slug is
// already taken.
var ErrSlugExists = errors.New("slug already exists")
