package domain

import "errors"

// Sentinel errors shared across services and repositories. Repositories
// translate driver-level failures (sql.ErrNoRows, mongo.ErrNoDocuments,
// unique-constraint violations) into these values so the delivery layer can
// map them to HTTP status codes without knowing which store was involved.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned when input fails a service-level guard.
	ErrInvalidInput = errors.New("invalid input")

	// ErrForbidden is returned when the caller is not allowed to act on a
	// resource owned by someone else.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidCredentials is returned on a failed login attempt. It is
	// deliberately indistinct about whether the email or the password was
	// wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
