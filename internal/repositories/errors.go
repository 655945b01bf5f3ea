package repositories

import "errors"

var (
	// ErrNotFound is returned when a lookup matched no row. Callers rely on it to
	// tell a missing record apart from a failed query.
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned when a conditional write matched the row but not its expected state
	ErrConflict = errors.New("record state conflict")

	ErrDuplicate = errors.New("duplicate record")

	// ErrInvalidCredentials is returned when the identity provider rejects a password, code or token
	ErrInvalidCredentials = errors.New("invalid credentials")
)

func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConflictError(err error) bool {
	return errors.Is(err, ErrConflict)
}
