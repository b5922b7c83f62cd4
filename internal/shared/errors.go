package shared

import (
	"errors"

	"github.com/gestionpro/gestionpro/internal/platform/httpx"
)

var (
	// ErrNotFound indicates a referenced entity does not exist. Aliased to
	// the transport sentinel so handlers can fall through to RespondError.
	ErrNotFound = httpx.ErrNotFound
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrRoleInUse indicates a role cannot be removed while assigned.
	ErrRoleInUse = errors.New("role is assigned to one or more users")
)
