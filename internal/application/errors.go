package application

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrProfileNotFound    = errors.New("profile not found")
	ErrForbidden          = errors.New("forbidden")
	ErrEmptyMessage       = errors.New("message content is empty")
	ErrSelfMessage        = errors.New("cannot message yourself")
	ErrInvalidEvent       = errors.New("title, description, location and date are required")
)
