package errs

import (
	"errors"
)

var (
	ErrNotFound      = errors.New("book not found")
	ErrDuplicateIsbn = errors.New("duplicate isbn")
	ErrInternal      = errors.New("internal server error")
)
