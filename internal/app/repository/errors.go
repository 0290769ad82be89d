package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	// ErrLinkNotFound signals that the requested link does not exist or was deleted.
	ErrLinkNotFound = errors.New("link not found")

	// ErrUserNotFound signals that the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrDuplicateUser is returned when a username or email is already taken.
	ErrDuplicateUser = errors.New("user already exists")

	// ErrTokenNotFound is returned when no valid refresh token matches a hash.
	ErrTokenNotFound = errors.New("refresh token not found")

	// ErrLinkSetMismatch is returned by Reorder when the requested ids are not
	// exactly the owner's current links.
	ErrLinkSetMismatch = errors.New("link ids do not match the owner's links")

	// ErrOrderConflict is returned when an order index could not be assigned
	// after repeated unique-index conflicts.
	ErrOrderConflict = errors.New("order index conflict")
)

const uniqueViolationCode = "23505"

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolationCode
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
